// Пакет validation — клиентская валидация форм UI Module.
// Правила повторяют серверные: формат OAB, email, Telegram ID,
// даты в бразильском формате (dd/mm/yyyy) и их взаимный порядок.
// Валидация выполняется ДО обращения к backend: невалидная форма
// не порождает сетевых запросов.
// Тексты ошибок — на португальском: они показываются пользователю
// рядом с сообщениями backend, которые тоже приходят на португальском.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// MinPasswordLength — минимальная длина пароля.
const MinPasswordLength = 6

// Ошибки формата полей (показываются пользователю в формах).
var (
	ErrNameRequired   = errors.New("nome é obrigatório")
	ErrOABFormat      = errors.New("formato de OAB inválido (ex.: 123.456SP ou 123456/SP)")
	ErrEmailFormat    = errors.New("e-mail inválido")
	ErrTelegramFormat = errors.New("Telegram inválido (@usuario ou chat id numérico)")
)

// Форматы OAB: "123.456UF" (точка опциональна) либо "123456/UF".
var (
	oabDotPattern   = regexp.MustCompile(`^\d{1,3}(\.?\d{3})?[A-Z]{2}$`)
	oabSlashPattern = regexp.MustCompile(`^\d{1,6}/[A-Z]{2}$`)
)

// emailPattern — минимальная проверка формы local@domain.tld.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// telegramPattern — @username (3-31 символ) либо числовой chat id
// (возможно отрицательный — группы).
var telegramPattern = regexp.MustCompile(`^(@[a-zA-Z0-9_]{3,31}|-?\d+)$`)

// displayDateLayout — формат отображения дат (бразильский).
const displayDateLayout = "02/01/2006"

// isoDateLayout — формат дат на проводе (backend).
const isoDateLayout = "2006-01-02"

// NormalizeOAB приводит OAB к каноническому виду: убирает точку
// разделителя тысяч и поднимает буквы штата в верхний регистр.
func NormalizeOAB(oab string) string {
	oab = strings.ToUpper(strings.TrimSpace(oab))
	return strings.ReplaceAll(oab, ".", "")
}

// ValidOAB проверяет формат номера OAB (после приведения к верхнему регистру).
func ValidOAB(oab string) bool {
	oab = strings.ToUpper(strings.TrimSpace(oab))
	return oabDotPattern.MatchString(oab) || oabSlashPattern.MatchString(oab)
}

// ValidEmail проверяет форму email-адреса.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// ValidTelegramID проверяет Telegram ID: @username либо числовой chat id.
func ValidTelegramID(id string) bool {
	return telegramPattern.MatchString(strings.TrimSpace(id))
}

// ParseDisplayDate разбирает дату в формате dd/mm/yyyy и возвращает
// ISO-представление (yyyy-mm-dd) для передачи backend.
func ParseDisplayDate(value string) (string, error) {
	t, err := time.Parse(displayDateLayout, strings.TrimSpace(value))
	if err != nil {
		return "", fmt.Errorf("data inválida %q: use o formato dd/mm/aaaa", value)
	}
	return t.Format(isoDateLayout), nil
}

// FormatDisplayDate преобразует ISO-дату в формат отображения dd/mm/yyyy.
// Невалидный вход возвращается как есть.
func FormatDisplayDate(iso string) string {
	t, err := time.Parse(isoDateLayout, iso)
	if err != nil {
		return iso
	}
	return t.Format(displayDateLayout)
}

// CheckDeadlineOrder проверяет календарный порядок дат процесса:
// entry_date <= delivery_deadline <= fatal_deadline. Все даты — ISO.
func CheckDeadlineOrder(entryISO, deliveryISO, fatalISO string) error {
	entry, err := time.Parse(isoDateLayout, entryISO)
	if err != nil {
		return fmt.Errorf("data de entrada: %w", err)
	}
	delivery, err := time.Parse(isoDateLayout, deliveryISO)
	if err != nil {
		return fmt.Errorf("prazo de entrega: %w", err)
	}
	fatal, err := time.Parse(isoDateLayout, fatalISO)
	if err != nil {
		return fmt.Errorf("prazo fatal: %w", err)
	}

	if delivery.Before(entry) {
		return errors.New("o prazo de entrega não pode ser anterior à data de entrada")
	}
	if fatal.Before(delivery) {
		return errors.New("o prazo fatal não pode ser anterior ao prazo de entrega")
	}
	return nil
}

// CheckPasswordChange проверяет форму смены пароля: новый пароль не короче
// MinPasswordLength, совпадает с подтверждением и отличается от текущего.
func CheckPasswordChange(current, newPassword, confirm string) error {
	if current == "" || newPassword == "" || confirm == "" {
		return errors.New("todos os campos de senha são obrigatórios")
	}
	if len(newPassword) < MinPasswordLength {
		return fmt.Errorf("a nova senha deve ter pelo menos %d caracteres", MinPasswordLength)
	}
	if newPassword != confirm {
		return errors.New("a nova senha e a confirmação não coincidem")
	}
	if newPassword == current {
		return errors.New("a nova senha deve ser diferente da atual")
	}
	return nil
}
