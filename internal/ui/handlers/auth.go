// auth.go — вход и выход пользователя.
// Логин проксируется в backend (POST /auth/token, form-encoded);
// полученный bearer-токен вместе с данными пользователя сохраняется
// в зашифрованном session cookie.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/arturkryukov/lexoffice/ui-module/internal/apiclient"
	"github.com/arturkryukov/lexoffice/ui-module/internal/ui/auth"
	"github.com/arturkryukov/lexoffice/ui-module/internal/ui/i18n"
	"github.com/arturkryukov/lexoffice/ui-module/internal/ui/pages"
)

// AuthHandler — обработчики входа и выхода.
type AuthHandler struct {
	api            *apiclient.Client
	sessionManager *auth.SessionManager
	logger         *slog.Logger
}

// NewAuthHandler создаёт новый AuthHandler.
func NewAuthHandler(api *apiclient.Client, sessionManager *auth.SessionManager, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		api:            api,
		sessionManager: sessionManager,
		logger:         logger.With(slog.String("component", "ui.auth")),
	}
}

// HandleLoginPage обрабатывает GET /login — страница входа.
// Пользователь с действующей сессией отправляется на /dashboard.
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if session, err := h.sessionManager.GetSessionFromRequest(r); err == nil && session != nil && !session.IsExpired() {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}

	render(w, r, h.logger, pages.Login(pages.LoginData{
		Page: basePage(r, ""),
	}))
}

// HandleLogin обрабатывает POST /login.
// Обменивает логин/OAB и пароль на bearer-токен backend, извлекает
// профиль через GET /auth/users/me и создаёт сессию.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	identifier := r.PostFormValue("identifier")
	password := r.PostFormValue("password")

	if identifier == "" || password == "" {
		h.renderLoginError(w, r, identifier, i18n.T(r.Context(), "login.required"))
		return
	}

	tokenResp, err := h.api.Login(r.Context(), identifier, password)
	if err != nil {
		// Backend возвращает причину на португальском
		// ("Usuário/OAB ou senha incorretos") — показываем как есть.
		var apiErr *apiclient.APIError
		msg := err.Error()
		if errors.As(err, &apiErr) {
			msg = apiErr.Detail
		} else if errors.Is(err, apiclient.ErrUnauthorized) {
			msg = "Usuário/OAB ou senha incorretos"
		}
		h.logger.Info("Неудачная попытка входа",
			slog.String("identifier", identifier),
		)
		h.renderLoginError(w, r, identifier, msg)
		return
	}

	// Срок сессии — claim exp токена; если токен не разбирается,
	// ограничиваемся часом.
	expiresAt, err := auth.TokenExpiry(tokenResp.AccessToken)
	if err != nil {
		h.logger.Warn("Не удалось извлечь exp из токена",
			slog.String("error", err.Error()),
		)
		expiresAt = time.Now().Add(time.Hour)
	}

	me, err := h.api.Me(r.Context(), tokenResp.AccessToken)
	if err != nil {
		h.logger.Error("Ошибка получения профиля после входа",
			slog.String("error", err.Error()),
		)
		h.renderLoginError(w, r, identifier, "Erro ao carregar o perfil do usuário")
		return
	}

	session := &auth.SessionData{
		Token:     tokenResp.AccessToken,
		ExpiresAt: expiresAt.Unix(),
		LawyerID:  me.ID,
		Name:      me.Name,
		Username:  me.Username,
		OAB:       me.OAB,
		IsAdmin:   me.IsSystemAdmin(),
	}
	if err := h.sessionManager.SetSessionCookie(w, session); err != nil {
		h.logger.Error("Ошибка установки session cookie",
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("Пользователь вошёл",
		slog.String("username", me.Username),
		slog.Bool("is_admin", session.IsAdmin),
	)

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// HandleLogout обрабатывает POST /logout — очищает сессию.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessionManager.ClearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

// renderLoginError повторно рендерит страницу входа с ошибкой,
// сохраняя введённый идентификатор.
func (h *AuthHandler) renderLoginError(w http.ResponseWriter, r *http.Request, identifier, msg string) {
	page := basePage(r, "")
	page.Error = msg
	render(w, r, h.logger, pages.Login(pages.LoginData{
		Page:       page,
		Identifier: identifier,
	}))
}
