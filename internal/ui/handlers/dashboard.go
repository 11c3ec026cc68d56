// dashboard.go — главная страница: сводные показатели, алерты по
// фатальным срокам и фильтруемая таблица процессов.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/arturkryukov/lexoffice/ui-module/internal/apiclient"
	"github.com/arturkryukov/lexoffice/ui-module/internal/domain/model"
	"github.com/arturkryukov/lexoffice/ui-module/internal/repository"
	"github.com/arturkryukov/lexoffice/ui-module/internal/ui/auth"
	"github.com/arturkryukov/lexoffice/ui-module/internal/ui/pages"
	"github.com/arturkryukov/lexoffice/ui-module/internal/validation"
)

// nearDeadlineDays — горизонт алертов по фатальным срокам.
const nearDeadlineDays = 7

// DashboardHandler — обработчик страницы Dashboard.
type DashboardHandler struct {
	lawyers        *repository.LawyerRepository
	clients        *repository.ClientRepository
	processes      *repository.ProcessRepository
	sessionManager *auth.SessionManager
	logger         *slog.Logger
}

// NewDashboardHandler создаёт новый DashboardHandler.
func NewDashboardHandler(
	lawyers *repository.LawyerRepository,
	clients *repository.ClientRepository,
	processes *repository.ProcessRepository,
	sessionManager *auth.SessionManager,
	logger *slog.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		lawyers:        lawyers,
		clients:        clients,
		processes:      processes,
		sessionManager: sessionManager,
		logger:         logger.With(slog.String("component", "ui.dashboard")),
	}
}

// HandleDashboard обрабатывает GET /dashboard.
// Справочники юристов и клиентов загружаются параллельно ДО списка
// процессов: к моменту рендеринга строк кэши имён уже наполнены и
// ссылки lawyer_id/client_id разрешаются без "N/A".
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	session := uiSession(r)
	if session == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	ctx := r.Context()

	filters := pages.DashboardFilters{
		Status:   r.URL.Query().Get("status"),
		LawyerID: r.URL.Query().Get("lawyer_id"),
		ClientID: r.URL.Query().Get("client_id"),
		From:     r.URL.Query().Get("fatal_de"),
		To:       r.URL.Query().Get("fatal_ate"),
	}

	var (
		wg          sync.WaitGroup
		lawyers     []model.Lawyer
		clients     []model.Client
		lawyersErr  error
		clientsErr  error
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

	data := pages.DashboardData{
		Page:    basePage(r, "dashboard"),
		Summary: buildSummary(processes, len(clients), len(lawyers)),
		Alerts:  buildAlerts(processes, h.lawyers, h.clients),
		Rows:    processRows(processes, h.lawyers, h.clients),
		Filters: filters,
		Lawyers: lawyerOptions(lawyers, filters.LawyerID),
		Clients: clientOptions(clients, filters.ClientID),
	}

	render(w, r, h.logger, pages.Dashboard(data))
}

// buildSummary считает сводные показатели по загруженному списку процессов.
func buildSummary(processes []model.Process, totalClients, totalLawyers int) pages.DashboardSummary {
	s := pages.DashboardSummary{
		TotalProcesses: len(processes),
		TotalClients:   totalClients,
		TotalLawyers:   totalLawyers,
	}
	today := time.Now().Format("2006-01-02")
	horizon := time.Now().AddDate(0, 0, nearDeadlineDays).Format("2006-01-02")
	for i := range processes {
		p := &processes[i]
		if p.Status == model.StatusActive {
			s.ActiveProcesses++
			// ISO-даты сравниваются лексикографически
			if p.FatalDeadline >= today && p.FatalDeadline <= horizon {
				s.NearDeadline++
			}
		}
	}
	return s
}

// buildAlerts собирает алерты по активным процессам с фатальным сроком
// в ближайшие nearDeadlineDays дней, отсортированные по сроку.
func buildAlerts(processes []model.Process, lawyers *repository.LawyerRepository, clients *repository.ClientRepository) []pages.DeadlineAlert {
	today := time.Now().Format("2006-01-02")
	horizon := time.Now().AddDate(0, 0, nearDeadlineDays).Format("2006-01-02")

	var urgent []model.Process
	for i := range processes {
		p := processes[i]
		if p.Status == model.StatusActive && p.FatalDeadline >= today && p.FatalDeadline <= horizon {
			urgent = append(urgent, p)
		}
	}
	sort.Slice(urgent, func(i, j int) bool {
		return urgent[i].FatalDeadline < urgent[j].FatalDeadline
	})

	alerts := make([]pages.DeadlineAlert, 0, len(urgent))
	for _, p := range urgent {
		alerts = append(alerts, pages.DeadlineAlert{
			ProcessNumber: p.ProcessNumber,
			ClientName:    clients.IDToName(p.ClientID),
			LawyerName:    lawyers.IDToName(p.LawyerID),
			FatalDeadline: validation.FormatDisplayDate(p.FatalDeadline),
			DueToday:      p.FatalDeadline == today,
		})
	}
	return alerts
}

// processRows преобразует процессы в строки таблицы с разрешёнными
// именами и датами в формате отображения.
func processRows(processes []model.Process, lawyers *repository.LawyerRepository, clients *repository.ClientRepository) []pages.ProcessRow {
	rows := make([]pages.ProcessRow, 0, len(processes))
	for i := range processes {
		p := &processes[i]
		row := pages.ProcessRow{
			ID:               p.ID,
			ProcessNumber:    p.ProcessNumber,
			LawyerName:       lawyers.IDToName(p.LawyerID),
			ClientName:       clients.IDToName(p.ClientID),
			EntryDate:        validation.FormatDisplayDate(p.EntryDate),
			DeliveryDeadline: validation.FormatDisplayDate(p.DeliveryDeadline),
			FatalDeadline:    validation.FormatDisplayDate(p.FatalDeadline),
			Status:           p.Status,
		}
		if p.ActionType != nil {
			row.ActionType = *p.ActionType
		}
		rows = append(rows, row)
	}
	return rows
}

// processFilters строит фильтры backend из значений формы.
// Пустые и невалидные значения не попадают в запрос; даты приходят
// в формате отображения и переводятся в ISO.
func processFilters(status, lawyerID, clientID, from, to string) model.ProcessFilters {
	var f model.ProcessFilters
	if status != "" {
		f.Status = &status
	}
	if id, err := strconv.ParseInt(lawyerID, 10, 64); err == nil {
		f.LawyerID = &id
	}
	if id, err := strconv.ParseInt(clientID, 10, 64); err == nil {
		f.ClientID = &id
	}
	if iso, err := validation.ParseDisplayDate(from); err == nil {
		f.FatalDeadlineFrom = &iso
	}
	if iso, err := validation.ParseDisplayDate(to); err == nil {
		f.FatalDeadlineTo = &iso
	}
	return f
}
