// lawyers.go — CRUD юристов.
// Формы валидируются ДО обращения к backend: невалидный ввод повторно
// рендерит форму с ошибками по полям и не порождает сетевых запросов.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/arturkryukov/lexoffice/ui-module/internal/apiclient"
	"github.com/arturkryukov/lexoffice/ui-module/internal/domain/model"
	"github.com/arturkryukov/lexoffice/ui-module/internal/repository"
	"github.com/arturkryukov/lexoffice/ui-module/internal/ui/auth"
	"github.com/arturkryukov/lexoffice/ui-module/internal/ui/i18n"
	"github.com/arturkryukov/lexoffice/ui-module/internal/ui/pages"
	"github.com/arturkryukov/lexoffice/ui-module/internal/validation"
)

// LawyerHandler — обработчики страницы юристов.
type LawyerHandler struct {
	repo           *repository.LawyerRepository
	sessionManager *auth.SessionManager
	logger         *slog.Logger
}

// NewLawyerHandler создаёт новый LawyerHandler.
func NewLawyerHandler(repo *repository.LawyerRepository, sessionManager *auth.SessionManager, logger *slog.Logger) *LawyerHandler {
	return &LawyerHandler{
		repo:           repo,
		sessionManager: sessionManager,
		logger:         logger.With(slog.String("component", "ui.lawyers")),
	}
}

// HandleList обрабатывает GET /lawyers — список с формой создания.
// Параметр q фильтрует по имени/OAB (подстрока, без учёта регистра).
func (h *LawyerHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	session := uiSession(r)
	if session == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	lawyers, err := h.repo.List(r.Context(), session.Token)
	if err != nil {
		endSession(h.sessionManager, w, r)
		return
	}

	query := r.URL.Query().Get("q")
	data := pages.LawyersData{
		Page:    basePage(r, "lawyers"),
		Lawyers: filterLawyers(lawyers, query),
		Query:   query,
	}
	render(w, r, h.logger, pages.Lawyers(data))
}

// HandleEditPage обрабатывает GET /lawyers/{id}/edit — форма в режиме
// редактирования поверх списка.
func (h *LawyerHandler) HandleEditPage(w http.ResponseWriter, r *http.Request) {
	session := uiSession(r)
	if session == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	lawyer, err := h.repo.Get(r.Context(), session.Token, id)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			endSession(h.sessionManager, w, r)
			return
		}
		redirectError(w, r, "/lawyers", apiDetail(err))
		return
	}

	lawyers, err := h.repo.List(r.Context(), session.Token)
	if err != nil {
		endSession(h.sessionManager, w, r)
		return
	}

	form := pages.LawyerForm{
		ID:       lawyer.ID,
		Name:     lawyer.Name,
		Username: lawyer.Username,
		OAB:      lawyer.OAB,
		Email:    lawyer.Email,
	}
	if lawyer.TelegramID != nil {
		form.Telegram = *lawyer.TelegramID
	}

	data := pages.LawyersData{
		Page:    basePage(r, "lawyers"),
		Lawyers: lawyers,
		Form:    form,
		Editing: true,
	}
	render(w, r, h.logger, pages.Lawyers(data))
}

// HandleCreate обрабатывает POST /lawyers.
func (h *LawyerHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	h.handleSave(w, r, 0)
}

// HandleUpdate обрабатывает POST /lawyers/{id}.
func (h *LawyerHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	h.handleSave(w, r, id)
}

// handleSave — общая логика создания (id == 0) и обновления юриста.
func (h *LawyerHandler) handleSave(w http.ResponseWriter, r *http.Request, id int64) {
	session := uiSession(r)
	if session == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	form := pages.LawyerForm{
		ID:       id,
		Name:     strings.TrimSpace(r.PostFormValue("name")),
		Username: strings.TrimSpace(r.PostFormValue("username")),
		OAB:      strings.TrimSpace(r.PostFormValue("oab")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Telegram: strings.TrimSpace(r.PostFormValue("telegram_id")),
	}
	password := r.PostFormValue("password")

	fieldErrors := validateLawyerForm(form, password, id == 0)
	if len(fieldErrors) > 0 {
		data := pages.LawyersData{
			Page:        basePage(r, "lawyers"),
			Form:        form,
			Editing:     id != 0,
			FieldErrors: fieldErrors,
		}
		render(w, r, h.logger, pages.Lawyers(data))
		return
	}

	in := model.LawyerInput{
		Name:     form.Name,
		Username: form.Username,
		OAB:      validation.NormalizeOAB(form.OAB),
		Email:    form.Email,
		Password: password,
	}
	if form.Telegram != "" {
		in.TelegramID = &form.Telegram
	}

	var err error
	msgKey := "lawyers.created"
	if id == 0 {
		_, err = h.repo.Create(r.Context(), session.Token, in)
	} else {
		_, err = h.repo.Update(r.Context(), session.Token, id, in)
		msgKey = "lawyers.updated"
	}
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			endSession(h.sessionManager, w, r)
			return
		}
		// Ошибка backend (дубликат OAB и т.п.) — рендерим форму повторно
		data := pages.LawyersData{
			Page:    basePage(r, "lawyers"),
			Form:    form,
			Editing: id != 0,
		}
		data.Error = apiDetail(err)
		render(w, r, h.logger, pages.Lawyers(data))
		return
	}

	redirectFlash(w, r, "/lawyers", i18n.T(r.Context(), msgKey))
}

// HandleDelete обрабатывает POST /lawyers/{id}/delete.
// Системный администратор защищён от удаления; отказ backend из-за
// привязанных процессов показывается как есть.
func (h *LawyerHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	session := uiSession(r)
	if session == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	lawyer, err := h.repo.Get(r.Context(), session.Token, id)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			endSession(h.sessionManager, w, r)
			return
		}
		redirectError(w, r, "/lawyers", apiDetail(err))
		return
	}
	if lawyer.IsSystemAdmin() {
		redirectError(w, r, "/lawyers", i18n.T(r.Context(), "lawyers.admin_protected"))
		return
	}

	if err := h.repo.Delete(r.Context(), session.Token, id); err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			endSession(h.sessionManager, w, r)
			return
		}
		redirectError(w, r, "/lawyers", apiDetail(err))
		return
	}

	h.logger.Info("Юрист удалён",
		slog.Int64("lawyer_id", id),
		slog.String("deleted_by", session.Username),
	)
	redirectFlash(w, r, "/lawyers", i18n.T(r.Context(), "lawyers.deleted"))
}

// validateLawyerForm валидирует форму юриста. requirePassword — пароль
// обязателен (создание).
func validateLawyerForm(form pages.LawyerForm, password string, requirePassword bool) map[string]string {
	errs := make(map[string]string)
	if form.Name == "" {
		errs["name"] = validation.ErrNameRequired.Error()
	}
	if !validation.ValidOAB(form.OAB) {
		errs["oab"] = validation.ErrOABFormat.Error()
	}
	if !validation.ValidEmail(form.Email) {
		errs["email"] = validation.ErrEmailFormat.Error()
	}
	if form.Telegram != "" && !validation.ValidTelegramID(form.Telegram) {
		errs["telegram_id"] = validation.ErrTelegramFormat.Error()
	}
	if requirePassword {
		if password == "" {
			errs["password"] = "senha é obrigatória"
		} else if len(password) < validation.MinPasswordLength {
			errs["password"] = fmt.Sprintf("a senha deve ter pelo menos %d caracteres", validation.MinPasswordLength)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// filterLawyers фильтрует список по подстроке имени или OAB.
func filterLawyers(lawyers []model.Lawyer, query string) []model.Lawyer {
	if query == "" {
		return lawyers
	}
	q := strings.ToLower(query)
	filtered := make([]model.Lawyer, 0, len(lawyers))
	for _, l := range lawyers {
		if strings.Contains(strings.ToLower(l.Name), q) || strings.Contains(strings.ToLower(l.OAB), q) {
			filtered = append(filtered, l)
		}
	}
	return filtered
}

// apiDetail возвращает detail из *APIError либо текст ошибки.
func apiDetail(err error) string {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return err.Error()
}
