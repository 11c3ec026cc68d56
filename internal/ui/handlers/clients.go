// clients.go — CRUD клиентов.
// Область права выбирается из справочника GET /areas-of-expertise/
// (публичный endpoint backend, не требует токена).
package handlers

import (
	"errors"
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

// ClientHandler — обработчики страницы клиентов.
type ClientHandler struct {
	repo           *repository.ClientRepository
	api            *apiclient.Client
	sessionManager *auth.SessionManager
	logger         *slog.Logger
}

// NewClientHandler создаёт новый ClientHandler.
func NewClientHandler(repo *repository.ClientRepository, api *apiclient.Client, sessionManager *auth.SessionManager, logger *slog.Logger) *ClientHandler {
	return &ClientHandler{
		repo:           repo,
		api:            api,
		sessionManager: sessionManager,
		logger:         logger.With(slog.String("component", "ui.clients")),
	}
}

// HandleList обрабатывает GET /clients — список с формой создания.
func (h *ClientHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	session := uiSession(r)
	if session == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	clients, err := h.repo.List(r.Context(), session.Token)
	if err != nil {
		endSession(h.sessionManager, w, r)
		return
	}

	query := r.URL.Query().Get("q")
	data := pages.ClientsData{
		Page:    basePage(r, "clients"),
		Clients: filterClients(clients, query),
		Areas:   h.areas(r),
		Query:   query,
	}
	render(w, r, h.logger, pages.Clients(data))
}

// HandleEditPage обрабатывает GET /clients/{id}/edit.
func (h *ClientHandler) HandleEditPage(w http.ResponseWriter, r *http.Request) {
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

	client, err := h.repo.Get(r.Context(), session.Token, id)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			endSession(h.sessionManager, w, r)
			return
		}
		redirectError(w, r, "/clients", apiDetail(err))
		return
	}

	clients, err := h.repo.List(r.Context(), session.Token)
	if err != nil {
		endSession(h.sessionManager, w, r)
		return
	}

	data := pages.ClientsData{
		Page:    basePage(r, "clients"),
		Clients: clients,
		Areas:   h.areas(r),
		Form: pages.ClientForm{
			ID:   client.ID,
			Name: client.Name,
			Area: client.AreaOfExpertise,
		},
		Editing: true,
	}
	render(w, r, h.logger, pages.Clients(data))
}

// HandleCreate обрабатывает POST /clients.
func (h *ClientHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	h.handleSave(w, r, 0)
}

// HandleUpdate обрабатывает POST /clients/{id}.
func (h *ClientHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	h.handleSave(w, r, id)
}

// handleSave — общая логика создания (id == 0) и обновления клиента.
func (h *ClientHandler) handleSave(w http.ResponseWriter, r *http.Request, id int64) {
	session := uiSession(r)
	if session == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	form := pages.ClientForm{
		ID:   id,
		Name: strings.TrimSpace(r.PostFormValue("name")),
		Area: strings.TrimSpace(r.PostFormValue("area_of_expertise")),
	}

	fieldErrors := make(map[string]string)
	if form.Name == "" {
		fieldErrors["name"] = validation.ErrNameRequired.Error()
	}
	if form.Area == "" {
		fieldErrors["area_of_expertise"] = "área de atuação é obrigatória"
	}
	if len(fieldErrors) > 0 {
		data := pages.ClientsData{
			Page:        basePage(r, "clients"),
			Areas:       h.areas(r),
			Form:        form,
			Editing:     id != 0,
			FieldErrors: fieldErrors,
		}
		render(w, r, h.logger, pages.Clients(data))
		return
	}

	in := model.ClientInput{
		Name:            form.Name,
		AreaOfExpertise: form.Area,
	}

	var err error
	msgKey := "clients.created"
	if id == 0 {
		_, err = h.repo.Create(r.Context(), session.Token, in)
	} else {
		_, err = h.repo.Update(r.Context(), session.Token, id, in)
		msgKey = "clients.updated"
	}
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			endSession(h.sessionManager, w, r)
			return
		}
		data := pages.ClientsData{
			Page:    basePage(r, "clients"),
			Areas:   h.areas(r),
			Form:    form,
			Editing: id != 0,
		}
		data.Error = apiDetail(err)
		render(w, r, h.logger, pages.Clients(data))
		return
	}

	redirectFlash(w, r, "/clients", i18n.T(r.Context(), msgKey))
}

// HandleDelete обрабатывает POST /clients/{id}/delete.
// Backend отклоняет удаление клиента с привязанными процессами —
// detail отказа показывается пользователю.
func (h *ClientHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.repo.Delete(r.Context(), session.Token, id); err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			endSession(h.sessionManager, w, r)
			return
		}
		redirectError(w, r, "/clients", apiDetail(err))
		return
	}

	h.logger.Info("Клиент удалён",
		slog.Int64("client_id", id),
		slog.String("deleted_by", session.Username),
	)
	redirectFlash(w, r, "/clients", i18n.T(r.Context(), "clients.deleted"))
}

// areas загружает справочник областей права. Ошибка не фатальна:
// форма рендерится с пустым селектом.
func (h *ClientHandler) areas(r *http.Request) []string {
	areas, err := h.api.AreasOfExpertise(r.Context())
	if err != nil {
		h.logger.Warn("Ошибка загрузки справочника областей права",
			slog.String("error", err.Error()),
		)
		return nil
	}
	return areas
}

// filterClients фильтрует список по подстроке имени или области права.
func filterClients(clients []model.Client, query string) []model.Client {
	if query == "" {
		return clients
	}
	q := strings.ToLower(query)
	filtered := make([]model.Client, 0, len(clients))
	for _, c := range clients {
		if strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(strings.ToLower(c.AreaOfExpertise), q) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}
