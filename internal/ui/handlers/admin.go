// admin.go — панель администратора: список юристов и сброс паролей.
// Доступна только системному администратору; остальные отправляются
// на /dashboard.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/arturkryukov/lexoffice/ui-module/internal/apiclient"
	"github.com/arturkryukov/lexoffice/ui-module/internal/repository"
	"github.com/arturkryukov/lexoffice/ui-module/internal/ui/auth"
	"github.com/arturkryukov/lexoffice/ui-module/internal/ui/pages"
	"github.com/arturkryukov/lexoffice/ui-module/internal/validation"
)

// AdminHandler — обработчики админ-панели.
type AdminHandler struct {
	lawyers        *repository.LawyerRepository
	api            *apiclient.Client
	sessionManager *auth.SessionManager
	logger         *slog.Logger
}

// NewAdminHandler создаёт новый AdminHandler.
func NewAdminHandler(lawyers *repository.LawyerRepository, api *apiclient.Client, sessionManager *auth.SessionManager, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		lawyers:        lawyers,
		api:            api,
		sessionManager: sessionManager,
		logger:         logger.With(slog.String("component", "ui.admin")),
	}
}

// HandleAdmin обрабатывает GET /admin.
func (h *AdminHandler) HandleAdmin(w http.ResponseWriter, r *http.Request) {
	session := uiSession(r)
	if session == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	if !session.IsAdmin {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}

	lawyers, err := h.lawyers.List(r.Context(), session.Token)
	if err != nil {
		endSession(h.sessionManager, w, r)
		return
	}

	render(w, r, h.logger, pages.Admin(pages.AdminData{
		Page:    basePage(r, "admin"),
		Lawyers: lawyers,
	}))
}

// HandleResetPassword обрабатывает POST /admin/lawyers/{id}/reset-password.
// Сообщение об успехе приходит от backend и показывается как есть.
func (h *AdminHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	session := uiSession(r)
	if session == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	if !session.IsAdmin {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}

	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	newPassword := r.PostFormValue("new_password")
	confirm := r.PostFormValue("confirm_password")

	if len(newPassword) < validation.MinPasswordLength {
		redirectError(w, r, "/admin", fmt.Sprintf("a nova senha deve ter pelo menos %d caracteres", validation.MinPasswordLength))
		return
	}
	if newPassword != confirm {
		redirectError(w, r, "/admin", "a nova senha e a confirmação não coincidem")
		return
	}

	message, err := h.api.ResetLawyerPassword(r.Context(), session.Token, id, newPassword)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			endSession(h.sessionManager, w, r)
			return
		}
		redirectError(w, r, "/admin", apiDetail(err))
		return
	}

	h.logger.Info("Пароль юриста сброшен администратором",
		slog.Int64("lawyer_id", id),
		slog.String("reset_by", session.Username),
	)
	redirectFlash(w, r, "/admin", message)
}
