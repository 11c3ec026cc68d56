// settings.go — настройки текущего пользователя: профиль, смена
// пароля, язык интерфейса. После успешной смены пароля сессия
// завершается — старый токен недействителен, пользователь входит заново.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/arturkryukov/lexoffice/ui-module/internal/apiclient"
	"github.com/arturkryukov/lexoffice/ui-module/internal/domain/model"
	"github.com/arturkryukov/lexoffice/ui-module/internal/ui/auth"
	"github.com/arturkryukov/lexoffice/ui-module/internal/ui/i18n"
	"github.com/arturkryukov/lexoffice/ui-module/internal/ui/pages"
	"github.com/arturkryukov/lexoffice/ui-module/internal/validation"
)

// SettingsHandler — обработчики страницы настроек.
type SettingsHandler struct {
	api            *apiclient.Client
	sessionManager *auth.SessionManager
	logger         *slog.Logger
}

// NewSettingsHandler создаёт новый SettingsHandler.
func NewSettingsHandler(api *apiclient.Client, sessionManager *auth.SessionManager, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		api:            api,
		sessionManager: sessionManager,
		logger:         logger.With(slog.String("component", "ui.settings")),
	}
}

// HandleSettings обрабатывает GET /settings — формы профиля и пароля.
// Профиль загружается из backend, а не из сессии: сессия может
// содержать устаревшие данные после редактирования другим админом.
func (h *SettingsHandler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	session := uiSession(r)
	if session == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	me, err := h.api.Me(r.Context(), session.Token)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			endSession(h.sessionManager, w, r)
			return
		}
		data := pages.SettingsData{Page: basePage(r, "settings")}
		data.Error = apiDetail(err)
		render(w, r, h.logger, pages.Settings(data))
		return
	}

	form := pages.ProfileForm{
		Name:  me.Name,
		Email: me.Email,
	}
	if me.TelegramID != nil {
		form.Telegram = *me.TelegramID
	}

	render(w, r, h.logger, pages.Settings(pages.SettingsData{
		Page:    basePage(r, "settings"),
		Profile: form,
	}))
}

// HandleProfileUpdate обрабатывает POST /settings/profile.
// После успешного обновления session cookie переустанавливается
// с новым именем — навигация показывает актуальные данные сразу.
func (h *SettingsHandler) HandleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	session := uiSession(r)
	if session == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	form := pages.ProfileForm{
		Name:     strings.TrimSpace(r.PostFormValue("name")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Telegram: strings.TrimSpace(r.PostFormValue("telegram_id")),
	}

	fieldErrors := make(map[string]string)
	if form.Name == "" {
		fieldErrors["name"] = validation.ErrNameRequired.Error()
	}
	if !validation.ValidEmail(form.Email) {
		fieldErrors["email"] = validation.ErrEmailFormat.Error()
	}
	if form.Telegram != "" && !validation.ValidTelegramID(form.Telegram) {
		fieldErrors["telegram_id"] = validation.ErrTelegramFormat.Error()
	}
	if len(fieldErrors) > 0 {
		render(w, r, h.logger, pages.Settings(pages.SettingsData{
			Page:        basePage(r, "settings"),
			Profile:     form,
			FieldErrors: fieldErrors,
		}))
		return
	}

	upd := model.ProfileUpdate{
		Name:  form.Name,
		Email: form.Email,
	}
	if form.Telegram != "" {
		upd.TelegramID = &form.Telegram
	}

	me, err := h.api.UpdateProfile(r.Context(), session.Token, upd)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			endSession(h.sessionManager, w, r)
			return
		}
		data := pages.SettingsData{
			Page:    basePage(r, "settings"),
			Profile: form,
		}
		data.Error = apiDetail(err)
		render(w, r, h.logger, pages.Settings(data))
		return
	}

	session.Name = me.Name
	if err := h.sessionManager.SetSessionCookie(w, session); err != nil {
		h.logger.Warn("Ошибка обновления session cookie после смены профиля",
			slog.String("error", err.Error()),
		)
	}

	h.logger.Info("Профиль обновлён", slog.String("username", session.Username))
	redirectFlash(w, r, "/settings", i18n.T(r.Context(), "settings.profile_saved"))
}

// HandlePasswordUpdate обрабатывает POST /settings/password.
func (h *SettingsHandler) HandlePasswordUpdate(w http.ResponseWriter, r *http.Request) {
	session := uiSession(r)
	if session == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	current := r.PostFormValue("current_password")
	newPassword := r.PostFormValue("new_password")
	confirm := r.PostFormValue("confirm_password")

	if err := validation.CheckPasswordChange(current, newPassword, confirm); err != nil {
		h.renderPasswordError(w, r, session, err.Error())
		return
	}

	err := h.api.ChangePassword(r.Context(), session.Token, model.PasswordUpdate{
		CurrentPassword: current,
		NewPassword:     newPassword,
	})
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			endSession(h.sessionManager, w, r)
			return
		}
		// Неверный текущий пароль — detail backend
		h.renderPasswordError(w, r, session, apiDetail(err))
		return
	}

	h.logger.Info("Пароль изменён, сессия завершена",
		slog.String("username", session.Username),
	)

	// Старый токен недействителен — завершаем сессию
	h.sessionManager.ClearSessionCookie(w)
	redirectFlash(w, r, "/login", i18n.T(r.Context(), "settings.password_changed"))
}

// renderPasswordError повторно рендерит настройки с ошибкой формы пароля,
// подставляя профиль из сессии (без обращения к backend).
func (h *SettingsHandler) renderPasswordError(w http.ResponseWriter, r *http.Request, session *auth.SessionData, msg string) {
	render(w, r, h.logger, pages.Settings(pages.SettingsData{
		Page: basePage(r, "settings"),
		Profile: pages.ProfileForm{
			Name: session.Name,
		},
		PasswordError: msg,
	}))
}
