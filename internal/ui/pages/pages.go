// Пакет pages — server-side рендеринг страниц UI Module (html/template).
// Шаблоны встраиваются в бинарник через go:embed; каждая страница
// компилируется вместе с общим layout и отдаётся как Component
// с методом Render(ctx, w).
package pages

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/arturkryukov/lexoffice/ui-module/internal/domain/model"
	"github.com/arturkryukov/lexoffice/ui-module/internal/ui/i18n"
	"github.com/arturkryukov/lexoffice/ui-module/internal/validation"
)

//go:embed templates/*.html
var templateFS embed.FS

// funcMap — функции, доступные в шаблонах.
var funcMap = template.FuncMap{
	// t — перевод по ключу для языка страницы: {{t .Lang "nav.dashboard"}}
	"t": func(lang, key string) string {
		if b := i18n.GetBundle(); b != nil {
			return b.Translate(lang, key)
		}
		return key
	},
	// dateBR — ISO-дата → dd/mm/yyyy для отображения.
	"dateBR": validation.FormatDisplayDate,
}

// pageFiles — страницы приложения; каждая компилируется с layout.
var pageFiles = []string{
	"login.html",
	"dashboard.html",
	"lawyers.html",
	"clients.html",
	"processes.html",
	"settings.html",
	"admin.html",
}

// templates — скомпилированные наборы: имя страницы → layout+страница.
var templates = func() map[string]*template.Template {
	m := make(map[string]*template.Template, len(pageFiles))
	for _, name := range pageFiles {
		m[name] = template.Must(
			template.New("layout.html").Funcs(funcMap).ParseFS(
				templateFS,
				"templates/layout.html",
				"templates/"+name,
			),
		)
	}
	return m
}()

// Component — отложенный рендеринг страницы.
type Component struct {
	name string
	data any
}

// Render выполняет шаблон страницы в w.
func (c Component) Render(_ context.Context, w io.Writer) error {
	tmpl, ok := templates[c.name]
	if !ok {
		return fmt.Errorf("неизвестная страница %q", c.name)
	}
	return tmpl.ExecuteTemplate(w, "layout.html", c.data)
}

// Page — общие данные всех страниц: язык, текущий пользователь,
// активный пункт навигации и flash-сообщения.
type Page struct {
	Lang     string
	LoggedIn bool
	Username string
	Name     string
	IsAdmin  bool
	// Active — ключ активного пункта навигации (dashboard, lawyers, ...).
	Active string
	// Flash — сообщение об успехе (показывается один раз).
	Flash string
	// Error — сообщение об ошибке.
	Error string
}

// Option — элемент выпадающего списка.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// --- Login ---

// LoginData — данные страницы входа.
type LoginData struct {
	Page
	// Identifier — введённый логин/OAB (сохраняется при ошибке).
	Identifier string
}

// Login возвращает страницу входа.
func Login(data LoginData) Component {
	return Component{name: "login.html", data: data}
}

// --- Dashboard ---

// DashboardSummary — сводные показатели.
type DashboardSummary struct {
	TotalProcesses  int
	ActiveProcesses int
	// NearDeadline — процессы с фатальным сроком в ближайшие 7 дней.
	NearDeadline int
	TotalClients  int
	TotalLawyers  int
}

// DeadlineAlert — строка блока алертов по срокам.
type DeadlineAlert struct {
	ProcessNumber string
	ClientName    string
	LawyerName    string
	// FatalDeadline — в формате отображения dd/mm/yyyy.
	FatalDeadline string
	DueToday      bool
}

// DashboardFilters — текущее состояние фильтров dashboard.
type DashboardFilters struct {
	Status   string
	LawyerID string
	ClientID string
	// From/To — диапазон фатального срока (dd/mm/yyyy).
	From string
	To   string
}

// DashboardData — данные страницы Dashboard.
type DashboardData struct {
	Page
	Summary DashboardSummary
	Alerts  []DeadlineAlert
	Rows    []ProcessRow
	Filters DashboardFilters
	Lawyers []Option
	Clients []Option
}

// Dashboard возвращает страницу Dashboard.
func Dashboard(data DashboardData) Component {
	return Component{name: "dashboard.html", data: data}
}

// --- Юристы ---

// LawyerForm — состояние формы юриста (строки — для повторного
// рендеринга введённых значений при ошибке валидации).
type LawyerForm struct {
	ID       int64
	Name     string
	Username string
	OAB      string
	Email    string
	Telegram string
}

// LawyersData — данные страницы юристов.
type LawyersData struct {
	Page
	Lawyers []model.Lawyer
	Form    LawyerForm
	// Editing — форма в режиме редактирования (иначе — создания).
	Editing bool
	// FieldErrors — ошибки валидации по имени поля.
	FieldErrors map[string]string
	// Query — строка живого поиска.
	Query string
}

// Lawyers возвращает страницу юристов.
func Lawyers(data LawyersData) Component {
	return Component{name: "lawyers.html", data: data}
}

// --- Клиенты ---

// ClientForm — состояние формы клиента.
type ClientForm struct {
	ID   int64
	Name string
	Area string
}

// ClientsData — данные страницы клиентов.
type ClientsData struct {
	Page
	Clients     []model.Client
	Areas       []string
	Form        ClientForm
	Editing     bool
	FieldErrors map[string]string
	Query       string
}

// Clients возвращает страницу клиентов.
func Clients(data ClientsData) Component {
	return Component{name: "clients.html", data: data}
}

// --- Процессы ---

// ProcessRow — строка таблицы процессов с разрешёнными именами.
type ProcessRow struct {
	ID            int64
	ProcessNumber string
	LawyerName    string
	ClientName    string
	// Даты — в формате отображения dd/mm/yyyy.
	EntryDate        string
	DeliveryDeadline string
	FatalDeadline    string
	Status           string
	ActionType       string
}

// ProcessForm — состояние формы процесса (все поля — строки).
type ProcessForm struct {
	ID               int64
	ProcessNumber    string
	LawyerID         string
	ClientID         string
	EntryDate        string
	DeliveryDeadline string
	FatalDeadline    string
	Status           string
	ActionType       string
	CompletionDate   string
}

// ProcessListFilters — текущее состояние фильтров списка процессов.
type ProcessListFilters struct {
	Status   string
	LawyerID string
	ClientID string
	From     string
	To       string
}

// ProcessesData — данные страницы процессов.
type ProcessesData struct {
	Page
	Rows        []ProcessRow
	Form        ProcessForm
	Editing     bool
	FieldErrors map[string]string
	// Lawyers/Clients — опции селектов (без системного администратора).
	Lawyers []Option
	Clients []Option
	Filters ProcessListFilters
	// LockedLawyer — селект юриста заблокирован на текущем пользователе
	// (не-администратор создаёт процессы только на себя).
	LockedLawyer bool
	Statuses     []string
}

// Processes возвращает страницу процессов.
func Processes(data ProcessesData) Component {
	return Component{name: "processes.html", data: data}
}

// --- Настройки ---

// ProfileForm — состояние формы профиля.
type ProfileForm struct {
	Name     string
	Email    string
	Telegram string
}

// SettingsData — данные страницы настроек.
type SettingsData struct {
	Page
	Profile     ProfileForm
	FieldErrors map[string]string
	// PasswordError — ошибка формы смены пароля.
	PasswordError string
}

// Settings возвращает страницу настроек.
func Settings(data SettingsData) Component {
	return Component{name: "settings.html", data: data}
}

// --- Администрирование ---

// AdminData — данные админ-панели.
type AdminData struct {
	Page
	Lawyers []model.Lawyer
}

// Admin возвращает страницу администрирования.
func Admin(data AdminData) Component {
	return Component{name: "admin.html", data: data}
}
