package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/arturkryukov/lexoffice/ui-module/internal/apiclient"
	"github.com/arturkryukov/lexoffice/ui-module/internal/repository"
	"github.com/arturkryukov/lexoffice/ui-module/internal/ui/auth"
	"github.com/arturkryukov/lexoffice/ui-module/internal/ui/i18n"
	uimiddleware "github.com/arturkryukov/lexoffice/ui-module/internal/ui/middleware"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// initI18n загружает каталоги переводов (один раз на процесс).
func initI18n(t *testing.T) {
	t.Helper()
	bundle := i18n.Init(testLogger())
	if err := i18n.LoadFromEmbedFS(bundle, testLogger()); err != nil {
		t.Fatalf("ошибка загрузки i18n: %v", err)
	}
}

// newSessionManager создаёт менеджер сессий с фиксированным ключом.
func newSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager("test-secret", false)
	if err != nil {
		t.Fatalf("ошибка создания SessionManager: %v", err)
	}
	return sm
}

// newAPIClient создаёт клиент backend для тестового сервера.
func newAPIClient(t *testing.T, baseURL string) *apiclient.Client {
	t.Helper()
	client, err := apiclient.New(baseURL, "", 5*time.Second, testLogger())
	if err != nil {
		t.Fatalf("ошибка создания клиента API: %v", err)
	}
	return client
}

// testSession возвращает сессию обычного пользователя.
func testSession() *auth.SessionData {
	return &auth.SessionData{
		Token:     "test-token",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
		LawyerID:  7,
		Name:      "Maria Silva",
		Username:  "maria",
		OAB:       "123456SP",
		IsAdmin:   false,
	}
}

// adminSession возвращает сессию системного администратора.
func adminSession() *auth.SessionData {
	s := testSession()
	s.Username = "admin"
	s.OAB = "00001SP"
	s.IsAdmin = true
	return s
}

// withSession помещает сессию в контекст запроса (как SessionAuth middleware).
func withSession(r *http.Request, s *auth.SessionData) *http.Request {
	ctx := context.WithValue(r.Context(), uimiddleware.ContextKeySession, s)
	return r.WithContext(ctx)
}

// withChiParam добавляет URL-параметр chi в контекст запроса.
func withChiParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// signedToken возвращает JWT с заданным сроком действия.
func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "maria",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatalf("ошибка подписи токена: %v", err)
	}
	return signed
}

func TestHandleLogin_Success(t *testing.T) {
	initI18n(t)
	accessToken := signedToken(t, time.Now().Add(30*time.Minute))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/auth/token":
			if ct := r.Header.Get("Content-Type"); !strings.Contains(ct, "application/x-www-form-urlencoded") {
				t.Errorf("Content-Type = %q, ожидается form-encoded", ct)
			}
			json.NewEncoder(w).Encode(map[string]string{
				"access_token": accessToken,
				"token_type":   "bearer",
			})
		case r.Method == http.MethodGet && r.URL.Path == "/auth/users/me":
			json.NewEncoder(w).Encode(map[string]any{
				"id": 7, "name": "Maria Silva", "username": "maria",
				"oab": "123456SP", "email": "maria@adv.br",
			})
		default:
			t.Errorf("неожиданный запрос: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	sm := newSessionManager(t)
	h := NewAuthHandler(newAPIClient(t, server.URL), sm, testLogger())

	form := url.Values{"identifier": {"maria"}, "password": {"secret1"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	h.HandleLogin(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("статус = %d, ожидается 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("Location = %q, ожидается /dashboard", loc)
	}

	// Проверяем содержимое session cookie
	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			sessionCookie = c
		}
	}
	if sessionCookie == nil {
		t.Fatal("session cookie не установлен")
	}
	session, err := sm.Decrypt(sessionCookie.Value)
	if err != nil {
		t.Fatalf("ошибка дешифрования сессии: %v", err)
	}
	if session.Token != accessToken {
		t.Error("токен в сессии не совпадает с выданным backend")
	}
	if session.LawyerID != 7 || session.Username != "maria" {
		t.Errorf("данные сессии: LawyerID=%d Username=%q", session.LawyerID, session.Username)
	}
	if session.IsAdmin {
		t.Error("обычный пользователь помечен администратором")
	}
}

func TestHandleLogin_BadCredentials(t *testing.T) {
	initI18n(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Usuário/OAB ou senha incorretos"})
	}))
	defer server.Close()

	h := NewAuthHandler(newAPIClient(t, server.URL), newSessionManager(t), testLogger())

	form := url.Values{"identifier": {"maria"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	h.HandleLogin(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидается 200 (повторный рендеринг формы)", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Usuário/OAB ou senha incorretos") {
		t.Error("detail backend не показан на странице входа")
	}
	if !strings.Contains(body, `value="maria"`) {
		t.Error("введённый идентификатор не сохранён в форме")
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookieName && c.MaxAge > 0 {
			t.Error("session cookie установлен при неудачном входе")
		}
	}
}

func TestLawyerCreate_ValidationBlocksNetwork(t *testing.T) {
	initI18n(t)

	var backendCalls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backendCalls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sm := newSessionManager(t)
	repo := repository.NewLawyerRepository(newAPIClient(t, server.URL), 100, time.Minute, testLogger())
	h := NewLawyerHandler(repo, sm, testLogger())

	form := url.Values{
		"name":     {"João"},
		"oab":      {"1234567SP"}, // 7 цифр — невалидный формат
		"email":    {"joao@adv.br"},
		"password": {"secret1"},
	}
	req := httptest.NewRequest(http.MethodPost, "/lawyers", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = withSession(req, testSession())
	rec := httptest.NewRecorder()

	h.HandleCreate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидается 200 (форма с ошибками)", rec.Code)
	}
	if got := backendCalls.Load(); got != 0 {
		t.Errorf("backend получил %d запросов, ожидается 0 при ошибке валидации", got)
	}
	if !strings.Contains(rec.Body.String(), "formato de OAB inválido") {
		t.Error("ошибка формата OAB не показана")
	}
}

func TestDeleteSelected_AggregatesResults(t *testing.T) {
	initI18n(t)

	var deletes, gets atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodDelete:
			deletes.Add(1)
			// Процесс 3 не удаляется
			if strings.HasSuffix(r.URL.Path, "/3") {
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(map[string]string{"detail": "Processo não encontrado"})
				return
			}
			w.WriteHeader(http.StatusNoContent)
		case http.MethodGet:
			gets.Add(1)
			json.NewEncoder(w).Encode([]any{})
		}
	}))
	defer server.Close()

	sm := newSessionManager(t)
	api := newAPIClient(t, server.URL)
	h := NewProcessHandler(
		repository.NewProcessRepository(api, testLogger()),
		repository.NewLawyerRepository(api, 100, time.Minute, testLogger()),
		repository.NewClientRepository(api, 100, time.Minute, testLogger()),
		sm,
		testLogger(),
	)

	form := url.Values{"ids": {"1", "2", "3"}}
	req := httptest.NewRequest(http.MethodPost, "/processes/delete-selected", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = withSession(req, testSession())
	rec := httptest.NewRecorder()

	h.HandleDeleteSelected(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("статус = %d, ожидается 303", rec.Code)
	}
	if got := deletes.Load(); got != 3 {
		t.Errorf("backend получил %d DELETE, ожидается 3", got)
	}
	// Список не перечитывается во время POST — единственный повторный
	// GET выполняет страница после redirect
	if got := gets.Load(); got != 0 {
		t.Errorf("backend получил %d GET во время POST, ожидается 0", got)
	}

	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/processes?err=") {
		t.Fatalf("Location = %q, ожидается redirect на /processes с сообщением", loc)
	}
	msg, err := url.QueryUnescape(strings.TrimPrefix(loc, "/processes?err="))
	if err != nil {
		t.Fatalf("ошибка декодирования сообщения: %v", err)
	}
	if !strings.Contains(msg, "2 processo(s)") || !strings.Contains(msg, "1 falha(s)") {
		t.Errorf("сводка = %q, ожидается 2 удалено / 1 ошибка", msg)
	}
	if !strings.Contains(msg, "Processo não encontrado") {
		t.Errorf("сводка = %q, ожидается detail неудавшегося удаления", msg)
	}
}

func TestDeleteSelected_NoIDs(t *testing.T) {
	initI18n(t)

	var backendCalls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		backendCalls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sm := newSessionManager(t)
	api := newAPIClient(t, server.URL)
	h := NewProcessHandler(
		repository.NewProcessRepository(api, testLogger()),
		repository.NewLawyerRepository(api, 100, time.Minute, testLogger()),
		repository.NewClientRepository(api, 100, time.Minute, testLogger()),
		sm,
		testLogger(),
	)

	req := httptest.NewRequest(http.MethodPost, "/processes/delete-selected", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = withSession(req, testSession())
	rec := httptest.NewRecorder()

	h.HandleDeleteSelected(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("статус = %d, ожидается 303", rec.Code)
	}
	if got := backendCalls.Load(); got != 0 {
		t.Errorf("backend получил %d запросов при пустом выборе, ожидается 0", got)
	}
}

func TestProcessCreate_NonAdminLockedToSelf(t *testing.T) {
	initI18n(t)

	var createdLawyerID int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/processes/" {
			var body struct {
				LawyerID int64 `json:"lawyer_id"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			createdLawyerID = body.LawyerID
			json.NewEncoder(w).Encode(map[string]any{"id": 1})
			return
		}
		json.NewEncoder(w).Encode([]any{})
	}))
	defer server.Close()

	sm := newSessionManager(t)
	api := newAPIClient(t, server.URL)
	h := NewProcessHandler(
		repository.NewProcessRepository(api, testLogger()),
		repository.NewLawyerRepository(api, 100, time.Minute, testLogger()),
		repository.NewClientRepository(api, 100, time.Minute, testLogger()),
		sm,
		testLogger(),
	)

	form := url.Values{
		"process_number":    {"0001234-56.2026.8.26.0100"},
		"lawyer_id":         {"99"}, // попытка подменить юриста
		"client_id":         {"2"},
		"action_type":       {"Trabalhista"},
		"entry_date":        {"01/08/2026"},
		"delivery_deadline": {"10/08/2026"},
		"fatal_deadline":    {"20/08/2026"},
		"status":            {"ativo"},
	}
	req := httptest.NewRequest(http.MethodPost, "/processes", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = withSession(req, testSession()) // LawyerID = 7, не админ
	rec := httptest.NewRecorder()

	h.HandleCreate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("статус = %d, ожидается 303", rec.Code)
	}
	if createdLawyerID != 7 {
		t.Errorf("lawyer_id = %d, ожидается 7 (из сессии, не из формы)", createdLawyerID)
	}
}

func TestProcessCreate_DeadlineOrderValidated(t *testing.T) {
	initI18n(t)

	var writes atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writes.Add(1)
		}
		json.NewEncoder(w).Encode([]any{})
	}))
	defer server.Close()

	sm := newSessionManager(t)
	api := newAPIClient(t, server.URL)
	h := NewProcessHandler(
		repository.NewProcessRepository(api, testLogger()),
		repository.NewLawyerRepository(api, 100, time.Minute, testLogger()),
		repository.NewClientRepository(api, 100, time.Minute, testLogger()),
		sm,
		testLogger(),
	)

	form := url.Values{
		"process_number":    {"0001234-56.2026.8.26.0100"},
		"lawyer_id":         {"7"},
		"client_id":         {"2"},
		"action_type":       {"Cível"},
		"entry_date":        {"10/08/2026"},
		"delivery_deadline": {"05/08/2026"}, // раньше даты поступления
		"fatal_deadline":    {"20/08/2026"},
	}
	req := httptest.NewRequest(http.MethodPost, "/processes", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = withSession(req, testSession())
	rec := httptest.NewRecorder()

	h.HandleCreate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидается 200 (форма с ошибками)", rec.Code)
	}
	if got := writes.Load(); got != 0 {
		t.Errorf("backend получил %d запросов записи, ожидается 0", got)
	}
	if !strings.Contains(rec.Body.String(), "não pode ser anterior") {
		t.Error("ошибка порядка дат не показана")
	}
}

func TestAdmin_NonAdminRedirected(t *testing.T) {
	initI18n(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode([]any{})
	}))
	defer server.Close()

	sm := newSessionManager(t)
	api := newAPIClient(t, server.URL)
	h := NewAdminHandler(repository.NewLawyerRepository(api, 100, time.Minute, testLogger()), api, sm, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req = withSession(req, testSession())
	rec := httptest.NewRecorder()

	h.HandleAdmin(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("статус = %d, ожидается 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("Location = %q, ожидается /dashboard", loc)
	}
}

func TestAdmin_ResetPassword(t *testing.T) {
	initI18n(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/admin/lawyers/5/reset-password" {
			json.NewEncoder(w).Encode(map[string]string{"message": "Senha redefinida com sucesso"})
			return
		}
		t.Errorf("неожиданный запрос: %s %s", r.Method, r.URL.Path)
	}))
	defer server.Close()

	sm := newSessionManager(t)
	api := newAPIClient(t, server.URL)
	h := NewAdminHandler(repository.NewLawyerRepository(api, 100, time.Minute, testLogger()), api, sm, testLogger())

	form := url.Values{
		"new_password":     {"newpass1"},
		"confirm_password": {"newpass1"},
	}
	req := httptest.NewRequest(http.MethodPost, "/admin/lawyers/5/reset-password", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = withSession(req, adminSession())
	req = withChiParam(req, "id", "5")
	rec := httptest.NewRecorder()

	h.HandleResetPassword(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("статус = %d, ожидается 303", rec.Code)
	}
	loc := rec.Header().Get("Location")
	msg, _ := url.QueryUnescape(strings.TrimPrefix(loc, "/admin?msg="))
	if msg != "Senha redefinida com sucesso" {
		t.Errorf("flash = %q, ожидается сообщение backend", msg)
	}
}

func TestLawyerDelete_SystemAdminProtected(t *testing.T) {
	initI18n(t)

	var deletes atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/lawyers/1":
			json.NewEncoder(w).Encode(map[string]any{
				"id": 1, "name": "Administrador", "username": "admin",
				"oab": "00001SP", "email": "admin@adv.br",
			})
		case r.Method == http.MethodDelete:
			deletes.Add(1)
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer server.Close()

	sm := newSessionManager(t)
	repo := repository.NewLawyerRepository(newAPIClient(t, server.URL), 100, time.Minute, testLogger())
	h := NewLawyerHandler(repo, sm, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/lawyers/1/delete", nil)
	req = withSession(req, adminSession())
	req = withChiParam(req, "id", "1")
	rec := httptest.NewRecorder()

	h.HandleDelete(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("статус = %d, ожидается 303", rec.Code)
	}
	if got := deletes.Load(); got != 0 {
		t.Errorf("backend получил %d DELETE для системного администратора, ожидается 0", got)
	}
	if !strings.HasPrefix(rec.Header().Get("Location"), "/lawyers?err=") {
		t.Errorf("Location = %q, ожидается redirect с ошибкой", rec.Header().Get("Location"))
	}
}

func TestDashboard_UnauthorizedEndsSession(t *testing.T) {
	initI18n(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Token inválido"})
	}))
	defer server.Close()

	sm := newSessionManager(t)
	api := newAPIClient(t, server.URL)
	h := NewDashboardHandler(
		repository.NewLawyerRepository(api, 100, time.Minute, testLogger()),
		repository.NewClientRepository(api, 100, time.Minute, testLogger()),
		repository.NewProcessRepository(api, testLogger()),
		sm,
		testLogger(),
	)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req = withSession(req, testSession())
	rec := httptest.NewRecorder()

	h.HandleDashboard(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("статус = %d, ожидается 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, ожидается /login", loc)
	}

	// Cookie должен быть очищен
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("session cookie не очищен при ErrUnauthorized")
	}
}

func TestSetLanguage(t *testing.T) {
	form := url.Values{"lang": {"en"}, "redirect": {"/settings"}}
	req := httptest.NewRequest(http.MethodPost, "/language", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	HandleSetLanguage(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("статус = %d, ожидается 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/settings" {
		t.Errorf("Location = %q, ожидается /settings", loc)
	}

	var langCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == i18n.LangCookieName {
			langCookie = c
		}
	}
	if langCookie == nil || langCookie.Value != "en" {
		t.Errorf("cookie lang = %v, ожидается en", langCookie)
	}
}

func TestSetLanguage_InvalidFallsBack(t *testing.T) {
	form := url.Values{"lang": {"de"}}
	req := httptest.NewRequest(http.MethodPost, "/language", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	HandleSetLanguage(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == i18n.LangCookieName && c.Value != "pt" {
			t.Errorf("cookie lang = %q, ожидается pt", c.Value)
		}
	}
}
