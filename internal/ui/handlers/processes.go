// processes.go — CRUD судебных процессов и массовое удаление.
// Не-администратор создаёт и редактирует процессы только на себя:
// селект юриста заблокирован, lawyer_id принудительно берётся из сессии.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/arturkryukov/lexoffice/ui-module/internal/apiclient"
	"github.com/arturkryukov/lexoffice/ui-module/internal/domain/model"
	"github.com/arturkryukov/lexoffice/ui-module/internal/repository"
	"github.com/arturkryukov/lexoffice/ui-module/internal/ui/auth"
	"github.com/arturkryukov/lexoffice/ui-module/internal/ui/i18n"
	"github.com/arturkryukov/lexoffice/ui-module/internal/ui/pages"
	"github.com/arturkryukov/lexoffice/ui-module/internal/validation"
)

// processStatuses — допустимые статусы для селектов.
var processStatuses = []string{model.StatusActive, model.StatusConcluded, model.StatusArchived}

// ProcessHandler — обработчики страницы процессов.
type ProcessHandler struct {
	processes      *repository.ProcessRepository
	lawyers        *repository.LawyerRepository
	clients        *repository.ClientRepository
	sessionManager *auth.SessionManager
	logger         *slog.Logger
}

// NewProcessHandler создаёт новый ProcessHandler.
func NewProcessHandler(
	processes *repository.ProcessRepository,
	lawyers *repository.LawyerRepository,
	clients *repository.ClientRepository,
	sessionManager *auth.SessionManager,
	logger *slog.Logger,
) *ProcessHandler {
	return &ProcessHandler{
		processes:      processes,
		lawyers:        lawyers,
		clients:        clients,
		sessionManager: sessionManager,
		logger:         logger.With(slog.String("component", "ui.processes")),
	}
}

// HandleList обрабатывает GET /processes.
// Как и на Dashboard, справочники загружаются до списка процессов,
// чтобы имена разрешались из наполненных кэшей.
func (h *ProcessHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	session := uiSession(r)
	if session == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	filters := pages.ProcessListFilters{
		Status:   r.URL.Query().Get("status"),
		LawyerID: r.URL.Query().Get("lawyer_id"),
		ClientID: r.URL.Query().Get("client_id"),
		From:     r.URL.Query().Get("fatal_de"),
		To:       r.URL.Query().Get("fatal_ate"),
	}

	form := pages.ProcessForm{Status: model.StatusActive}
	h.renderList(w, r, session, filters, form, false, nil, "")
}

// HandleEditPage обрабатывает GET /processes/{id}/edit.
func (h *ProcessHandler) HandleEditPage(w http.ResponseWriter, r *http.Request) {
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

	process, err := h.processes.Get(r.Context(), session.Token, id)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			endSession(h.sessionManager, w, r)
			return
		}
		redirectError(w, r, "/processes", apiDetail(err))
		return
	}

	form := pages.ProcessForm{
		ID:               process.ID,
		ProcessNumber:    process.ProcessNumber,
		LawyerID:         strconv.FormatInt(process.LawyerID, 10),
		ClientID:         strconv.FormatInt(process.ClientID, 10),
		EntryDate:        validation.FormatDisplayDate(process.EntryDate),
		DeliveryDeadline: validation.FormatDisplayDate(process.DeliveryDeadline),
		FatalDeadline:    validation.FormatDisplayDate(process.FatalDeadline),
		Status:           process.Status,
	}
	if process.ActionType != nil {
		form.ActionType = *process.ActionType
	}
	if process.CompletionDate != nil {
		form.CompletionDate = validation.FormatDisplayDate(*process.CompletionDate)
	}

	h.renderList(w, r, session, pages.ProcessListFilters{}, form, true, nil, "")
}

// HandleCreate обрабатывает POST /processes.
func (h *ProcessHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	h.handleSave(w, r, 0)
}

// HandleUpdate обрабатывает POST /processes/{id}.
func (h *ProcessHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	h.handleSave(w, r, id)
}

// handleSave — общая логика создания (id == 0) и обновления процесса.
// Невалидная форма повторно рендерится с ошибками по полям и не
// порождает запросов записи к backend.
func (h *ProcessHandler) handleSave(w http.ResponseWriter, r *http.Request, id int64) {
	session := uiSession(r)
	if session == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	form := pages.ProcessForm{
		ID:               id,
		ProcessNumber:    strings.TrimSpace(r.PostFormValue("process_number")),
		LawyerID:         r.PostFormValue("lawyer_id"),
		ClientID:         r.PostFormValue("client_id"),
		EntryDate:        strings.TrimSpace(r.PostFormValue("entry_date")),
		DeliveryDeadline: strings.TrimSpace(r.PostFormValue("delivery_deadline")),
		FatalDeadline:    strings.TrimSpace(r.PostFormValue("fatal_deadline")),
		Status:           r.PostFormValue("status"),
		ActionType:       strings.TrimSpace(r.PostFormValue("action_type")),
		CompletionDate:   strings.TrimSpace(r.PostFormValue("completion_date")),
	}

	// Не-администратор работает только со своими процессами
	if !session.IsAdmin {
		form.LawyerID = strconv.FormatInt(session.LawyerID, 10)
	}

	in, fieldErrors := buildProcessInput(form)
	if len(fieldErrors) > 0 {
		h.renderList(w, r, session, pages.ProcessListFilters{}, form, id != 0, fieldErrors, "")
		return
	}

	var err error
	msgKey := "processes.created"
	if id == 0 {
		_, err = h.processes.Create(r.Context(), session.Token, in)
	} else {
		_, err = h.processes.Update(r.Context(), session.Token, id, in)
		msgKey = "processes.updated"
	}
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			endSession(h.sessionManager, w, r)
			return
		}
		h.renderList(w, r, session, pages.ProcessListFilters{}, form, id != 0, nil, apiDetail(err))
		return
	}

	redirectFlash(w, r, "/processes", i18n.T(r.Context(), msgKey))
}

// HandleDelete обрабатывает POST /processes/{id}/delete.
func (h *ProcessHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.processes.Delete(r.Context(), session.Token, id); err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			endSession(h.sessionManager, w, r)
			return
		}
		redirectError(w, r, "/processes", apiDetail(err))
		return
	}

	h.logger.Info("Процесс удалён",
		slog.Int64("process_id", id),
		slog.String("deleted_by", session.Username),
	)
	redirectFlash(w, r, "/processes", i18n.T(r.Context(), "processes.deleted"))
}

// deleteResult — результат удаления одного процесса.
type deleteResult struct {
	id  int64
	err error
}

// HandleDeleteSelected обрабатывает POST /processes/delete-selected.
// Удаления выполняются параллельно (по горутине на id); результаты
// агрегируются в одно сообщение "M удалено, N ошибок". Список при этом
// не перечитывается: единственный повторный GET — redirect на /processes.
func (h *ProcessHandler) HandleDeleteSelected(w http.ResponseWriter, r *http.Request) {
	session := uiSession(r)
	if session == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	var ids []int64
	for _, raw := range r.PostForm["ids"] {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		redirectError(w, r, "/processes", i18n.T(r.Context(), "processes.none_selected"))
		return
	}

	results := make(chan deleteResult, len(ids))
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			results <- deleteResult{id: id, err: h.processes.Delete(r.Context(), session.Token, id)}
		}(id)
	}
	wg.Wait()
	close(results)

	var deleted, failed int
	var failures []string
	for res := range results {
		if res.err != nil {
			failed++
			failures = append(failures, strconv.FormatInt(res.id, 10)+": "+apiDetail(res.err))
			continue
		}
		deleted++
	}
	sort.Strings(failures)

	h.logger.Info("Массовое удаление процессов",
		slog.Int("requested", len(ids)),
		slog.Int("deleted", deleted),
		slog.Int("failed", failed),
		slog.String("deleted_by", session.Username),
	)

	summary := i18n.Tf(r.Context(), "processes.deleted_summary", deleted, failed)
	if failed > 0 {
		redirectError(w, r, "/processes", summary+" — "+strings.Join(failures, "; "))
		return
	}
	redirectFlash(w, r, "/processes", summary)
}

// renderList загружает справочники и список процессов и рендерит страницу.
// При Editing или ошибках формы список рендерится без фильтров.
func (h *ProcessHandler) renderList(
	w http.ResponseWriter,
	r *http.Request,
	session *auth.SessionData,
	filters pages.ProcessListFilters,
	form pages.ProcessForm,
	editing bool,
	fieldErrors map[string]string,
	formError string,
) {
	ctx := r.Context()

	var (
		wg         sync.WaitGroup
		lawyers    []model.Lawyer
		clients    []model.Client
		lawyersErr error
		clientsErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		lawyers, lawyersErr = h.lawyers.List(ctx, session.Token)
	}()
	go func() {
		defer wg.Done()
		clients, clientsErr = h.clients.List(ctx, session.Token)
	}()
	wg.Wait()

	if errors.Is(lawyersErr, apiclient.ErrUnauthorized) || errors.Is(clientsErr, apiclient.ErrUnauthorized) {
		endSession(h.sessionManager, w, r)
		return
	}

	processes, err := h.processes.List(ctx, session.Token, processFilters(filters.Status, filters.LawyerID, filters.ClientID, filters.From, filters.To))
	if err != nil {
		endSession(h.sessionManager, w, r)
		return
	}

	locked := !session.IsAdmin
	if locked && form.LawyerID == "" {
		form.LawyerID = strconv.FormatInt(session.LawyerID, 10)
	}
	if form.Status == "" {
		form.Status = model.StatusActive
	}

	data := pages.ProcessesData{
		Page:         basePage(r, "processes"),
		Rows:         processRows(processes, h.lawyers, h.clients),
		Form:         form,
		Editing:      editing,
		FieldErrors:  fieldErrors,
		Lawyers:      lawyerOptions(lawyers, form.LawyerID),
		Clients:      clientOptions(clients, form.ClientID),
		Filters:      filters,
		LockedLawyer: locked,
		Statuses:     processStatuses,
	}
	if formError != "" {
		data.Error = formError
	}
	render(w, r, h.logger, pages.Processes(data))
}

// buildProcessInput валидирует форму процесса и строит тело запроса.
// Возвращает ошибки по полям; при наличии ошибок input не используется.
func buildProcessInput(form pages.ProcessForm) (model.ProcessInput, map[string]string) {
	errs := make(map[string]string)
	var in model.ProcessInput

	in.ProcessNumber = form.ProcessNumber
	if in.ProcessNumber == "" {
		errs["process_number"] = "número do processo é obrigatório"
	}

	lawyerID, err := strconv.ParseInt(form.LawyerID, 10, 64)
	if err != nil {
		errs["lawyer_id"] = "advogado é obrigatório"
	}
	in.LawyerID = lawyerID

	clientID, err := strconv.ParseInt(form.ClientID, 10, 64)
	if err != nil {
		errs["client_id"] = "cliente é obrigatório"
	}
	in.ClientID = clientID

	entryISO, err := validation.ParseDisplayDate(form.EntryDate)
	if err != nil {
		errs["entry_date"] = err.Error()
	}
	in.EntryDate = entryISO

	deliveryISO, err := validation.ParseDisplayDate(form.DeliveryDeadline)
	if err != nil {
		errs["delivery_deadline"] = err.Error()
	}
	in.DeliveryDeadline = deliveryISO

	fatalISO, err := validation.ParseDisplayDate(form.FatalDeadline)
	if err != nil {
		errs["fatal_deadline"] = err.Error()
	}
	in.FatalDeadline = fatalISO

	if entryISO != "" && deliveryISO != "" && fatalISO != "" {
		if err := validation.CheckDeadlineOrder(entryISO, deliveryISO, fatalISO); err != nil {
			errs["fatal_deadline"] = err.Error()
		}
	}

	in.Status = form.Status
	if form.ActionType != "" {
		actionType := form.ActionType
		in.ActionType = &actionType
	}
	if form.CompletionDate != "" {
		completionISO, err := validation.ParseDisplayDate(form.CompletionDate)
		if err != nil {
			errs["completion_date"] = err.Error()
		} else {
			in.CompletionDate = &completionISO
		}
	}

	if len(errs) > 0 {
		return model.ProcessInput{}, errs
	}
	return in, nil
}
