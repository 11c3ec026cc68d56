// token.go — извлечение срока действия из bearer-токена backend.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry извлекает claim exp из JWT без проверки подписи.
// Подпись принадлежит backend (HS256 с его секретом) и здесь не
// проверяется: токен для UI Module непрозрачен, exp нужен только
// для проактивного завершения сессии до первого 401.
func TokenExpiry(tokenString string) (time.Time, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()

	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, fmt.Errorf("разбор токена: %w", err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("токен без claim exp")
	}

	return exp.Time, nil
}
