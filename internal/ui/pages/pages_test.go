package pages

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/arturkryukov/lexoffice/ui-module/internal/domain/model"
)

// testPage — общие данные страницы для тестов рендеринга.
func testPage(active string) Page {
	return Page{
		Lang:     "pt",
		LoggedIn: true,
		Username: "maria",
		Name:     "Maria Silva",
		Active:   active,
	}
}

func renderComponent(t *testing.T, c Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("ошибка рендеринга: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("рендеринг вернул пустой вывод")
	}
	return buf.String()
}

func TestRenderLogin(t *testing.T) {
	html := renderComponent(t, Login(LoginData{
		Page:       Page{Lang: "pt", Error: "Usuário/OAB ou senha incorretos"},
		Identifier: "maria",
	}))
	if !strings.Contains(html, `value="maria"`) {
		t.Error("идентификатор не сохранён в форме")
	}
	if !strings.Contains(html, "Usuário/OAB ou senha incorretos") {
		t.Error("сообщение об ошибке не показано")
	}
}

func TestRenderDashboard(t *testing.T) {
	html := renderComponent(t, Dashboard(DashboardData{
		Page: testPage("dashboard"),
		Summary: DashboardSummary{
			TotalProcesses:  5,
			ActiveProcesses: 3,
			NearDeadline:    1,
			TotalClients:    4,
			TotalLawyers:    2,
		},
		Alerts: []DeadlineAlert{
			{ProcessNumber: "0001234-56.2026.8.26.0100", ClientName: "ACME Ltda",
				LawyerName: "Maria Silva", FatalDeadline: "29/08/2026", DueToday: true},
		},
		Rows: []ProcessRow{
			{ID: 1, ProcessNumber: "0001234-56.2026.8.26.0100", LawyerName: "Maria Silva",
				ClientName: "ACME Ltda", EntryDate: "01/08/2026",
				DeliveryDeadline: "10/08/2026", FatalDeadline: "29/08/2026", Status: "ativo"},
		},
		Lawyers: []Option{{Value: "7", Label: "Maria Silva"}},
		Clients: []Option{{Value: "2", Label: "ACME Ltda"}},
	}))
	if !strings.Contains(html, "0001234-56.2026.8.26.0100") {
		t.Error("номер процесса отсутствует в таблице")
	}
	if !strings.Contains(html, "due-today") {
		t.Error("алерт с сегодняшним сроком не выделен")
	}
}

func TestRenderLawyers(t *testing.T) {
	telegram := "@maria_adv"
	html := renderComponent(t, Lawyers(LawyersData{
		Page: testPage("lawyers"),
		Lawyers: []model.Lawyer{
			{ID: 1, Name: "Administrador", Username: "admin", OAB: "00001SP", Email: "admin@adv.br"},
			{ID: 7, Name: "Maria Silva", Username: "maria", OAB: "123456SP",
				Email: "maria@adv.br", TelegramID: &telegram},
		},
		Form:        LawyerForm{Name: "João", OAB: "1234567SP"},
		FieldErrors: map[string]string{"oab": "formato de OAB inválido"},
	}))
	if !strings.Contains(html, "formato de OAB inválido") {
		t.Error("ошибка поля OAB не показана")
	}
	if !strings.Contains(html, "@maria_adv") {
		t.Error("telegram id не показан в таблице")
	}
	// Системный администратор без кнопки удаления: одна форма удаления
	// на двух юристов
	if strings.Count(html, "/delete") != 1 {
		t.Errorf("форм удаления = %d, ожидается 1 (админ защищён)", strings.Count(html, "/delete"))
	}
}

func TestRenderClients(t *testing.T) {
	html := renderComponent(t, Clients(ClientsData{
		Page: testPage("clients"),
		Clients: []model.Client{
			{ID: 2, Name: "ACME Ltda", AreaOfExpertise: "Trabalhista"},
		},
		Areas: []string{"Cível", "Trabalhista"},
		Form:  ClientForm{},
	}))
	if !strings.Contains(html, "ACME Ltda") {
		t.Error("клиент отсутствует в таблице")
	}
	if !strings.Contains(html, "Trabalhista") {
		t.Error("область права отсутствует")
	}
}

func TestRenderProcesses_LockedLawyer(t *testing.T) {
	html := renderComponent(t, Processes(ProcessesData{
		Page: testPage("processes"),
		Rows: []ProcessRow{
			{ID: 1, ProcessNumber: "0001234-56.2026.8.26.0100", LawyerName: "Maria Silva",
				ClientName: "ACME Ltda", Status: "ativo"},
		},
		Form:         ProcessForm{LawyerID: "7", Status: "ativo"},
		Lawyers:      []Option{{Value: "7", Label: "Maria Silva", Selected: true}},
		Clients:      []Option{{Value: "2", Label: "ACME Ltda"}},
		LockedLawyer: true,
		Statuses:     []string{"ativo", "concluído", "arquivado"},
	}))
	// Заблокированный селект + скрытое поле с lawyer_id из сессии
	if !strings.Contains(html, "disabled") {
		t.Error("селект юриста не заблокирован")
	}
	if !strings.Contains(html, `type="hidden" name="lawyer_id" value="7"`) {
		t.Error("скрытое поле lawyer_id отсутствует")
	}
	if !strings.Contains(html, "delete-selected") {
		t.Error("форма массового удаления отсутствует")
	}
	if !strings.Contains(html, `name="ids" value="1"`) {
		t.Error("чекбокс выбора процесса отсутствует")
	}
}

func TestRenderSettings(t *testing.T) {
	html := renderComponent(t, Settings(SettingsData{
		Page:          testPage("settings"),
		Profile:       ProfileForm{Name: "Maria Silva", Email: "maria@adv.br"},
		PasswordError: "a nova senha e a confirmação não coincidem",
	}))
	if !strings.Contains(html, "a nova senha e a confirmação não coincidem") {
		t.Error("ошибка смены пароля не показана")
	}
}

func TestRenderAdmin(t *testing.T) {
	html := renderComponent(t, Admin(AdminData{
		Page: testPage("admin"),
		Lawyers: []model.Lawyer{
			{ID: 7, Name: "Maria Silva", Username: "maria", OAB: "123456SP"},
		},
	}))
	if !strings.Contains(html, "/admin/lawyers/7/reset-password") {
		t.Error("форма сброса пароля отсутствует")
	}
}

func TestRenderUnknownPage(t *testing.T) {
	var buf bytes.Buffer
	if err := (Component{name: "missing.html"}).Render(context.Background(), &buf); err == nil {
		t.Error("ожидалась ошибка для неизвестной страницы")
	}
}
