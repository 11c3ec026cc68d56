// Пакет apiclient — HTTP-клиент backend API юридической фирмы.
// Единая точка выхода в сеть для всего UI Module: аутентификация
// (POST /auth/token), профиль, CRUD юристов/клиентов/процессов,
// админ-операции и публичный справочник областей права.
//
// Контракт ошибок:
//   - 401/403 — ErrUnauthorized (сессия пользователя подлежит завершению);
//   - прочие не-2xx — *APIError с detail из JSON-тела ответа;
//   - сетевые ошибки оборачиваются через %w.
package apiclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/arturkryukov/lexoffice/ui-module/internal/domain/model"
)

// ErrUnauthorized — backend отклонил учётные данные (401 или 403).
// Обработчики при этой ошибке очищают сессию и перенаправляют на /login.
var ErrUnauthorized = errors.New("доступ запрещён backend API")

// APIError — ошибка backend с кодом статуса и полем detail из JSON-тела.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend API вернул статус %d: %s", e.StatusCode, e.Detail)
}

// errorBody — JSON-тело ошибки backend: {"detail": "..."}.
type errorBody struct {
	Detail string `json:"detail"`
}

// TokenResponse — ответ POST /auth/token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// ResetPasswordResponse — ответ POST /admin/lawyers/{id}/reset-password.
type ResetPasswordResponse struct {
	Message string `json:"message"`
}

// Client — HTTP-клиент backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New создаёт клиент backend API.
// baseURL — адрес backend (trailing slash убирается).
// caCertPath — путь к CA-сертификату для TLS (пустая строка — стандартный пул).
func New(baseURL, caCertPath string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	httpClient := &http.Client{Timeout: timeout}

	if caCertPath != "" {
		tlsConfig, err := buildTLSConfig(caCertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата backend: %w", err)
		}
		httpClient.Transport = &http.Transport{
			TLSClientConfig: tlsConfig,
		}
		logger.Info("CA-сертификат backend добавлен в пул доверия",
			slog.String("ca_cert", caCertPath),
		)
	}

	return &Client{
		baseURL:    normalizeURL(baseURL),
		httpClient: httpClient,
		logger:     logger.With(slog.String("component", "apiclient")),
	}, nil
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	caCertPool.AppendCertsFromPEM(caCert)

	return &tls.Config{
		RootCAs: caCertPool,
	}, nil
}

// do выполняет запрос к backend: сериализует body в JSON, добавляет
// Bearer-токен (если задан), разбирает статус и декодирует ответ в out.
// out == nil — тело ответа игнорируется.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("сериализация тела запроса %s %s: %w", method, path, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("создание запроса %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("запрос %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("декодирование ответа %s %s: %w", method, path, err)
		}
	}
	return nil
}

// checkStatus превращает не-2xx ответ backend в ошибку.
// 401/403 — ErrUnauthorized, прочие — *APIError с detail из тела.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	detail := parseDetail(resp.Body)
	if detail == "" {
		detail = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%s: %w", detail, ErrUnauthorized)
	}

	return &APIError{StatusCode: resp.StatusCode, Detail: detail}
}

// parseDetail извлекает поле detail из JSON-тела ошибки.
// Неразборчивое тело — пустая строка.
func parseDetail(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 64*1024))
	if err != nil {
		return ""
	}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return strings.TrimSpace(string(body))
	}
	return eb.Detail
}

// --- Аутентификация и профиль ---

// Login выполняет вход: POST /auth/token, тело form-encoded
// (username + password, как требует OAuth2 password flow backend).
// В username допускается как логин, так и номер OAB — backend
// проверяет оба варианта.
func (c *Client) Login(ctx context.Context, login, password string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("username", login)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/auth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("создание запроса Login: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("запрос Login: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("декодирование ответа Login: %w", err)
	}
	return &tokenResp, nil
}

// Me возвращает профиль текущего пользователя (GET /auth/users/me).
func (c *Client) Me(ctx context.Context, token string) (*model.Lawyer, error) {
	var lawyer model.Lawyer
	if err := c.do(ctx, http.MethodGet, "/auth/users/me", token, nil, &lawyer); err != nil {
		return nil, err
	}
	return &lawyer, nil
}

// UpdateProfile обновляет имя/email/telegram текущего пользователя
// (PUT /auth/users/me/settings).
func (c *Client) UpdateProfile(ctx context.Context, token string, upd model.ProfileUpdate) (*model.Lawyer, error) {
	var lawyer model.Lawyer
	if err := c.do(ctx, http.MethodPut, "/auth/users/me/settings", token, upd, &lawyer); err != nil {
		return nil, err
	}
	return &lawyer, nil
}

// ChangePassword меняет пароль текущего пользователя
// (PUT /auth/users/me/settings, вариант с current/new password).
func (c *Client) ChangePassword(ctx context.Context, token string, upd model.PasswordUpdate) error {
	return c.do(ctx, http.MethodPut, "/auth/users/me/settings", token, upd, nil)
}

// ResetLawyerPassword сбрасывает пароль юриста от имени администратора
// (POST /admin/lawyers/{id}/reset-password). Возвращает сообщение backend.
func (c *Client) ResetLawyerPassword(ctx context.Context, token string, lawyerID int64, newPassword string) (string, error) {
	body := map[string]string{"new_password": newPassword}
	var resp ResetPasswordResponse
	path := fmt.Sprintf("/admin/lawyers/%d/reset-password", lawyerID)
	if err := c.do(ctx, http.MethodPost, path, token, body, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// --- Юристы ---

// ListLawyers возвращает список юристов (GET /lawyers/).
func (c *Client) ListLawyers(ctx context.Context, token string) ([]model.Lawyer, error) {
	var lawyers []model.Lawyer
	if err := c.do(ctx, http.MethodGet, "/lawyers/", token, nil, &lawyers); err != nil {
		return nil, err
	}
	return lawyers, nil
}

// GetLawyer возвращает юриста по id (GET /lawyers/{id}).
func (c *Client) GetLawyer(ctx context.Context, token string, id int64) (*model.Lawyer, error) {
	var lawyer model.Lawyer
	if err := c.do(ctx, http.MethodGet, "/lawyers/"+strconv.FormatInt(id, 10), token, nil, &lawyer); err != nil {
		return nil, err
	}
	return &lawyer, nil
}

// CreateLawyer создаёт юриста (POST /lawyers/).
func (c *Client) CreateLawyer(ctx context.Context, token string, in model.LawyerInput) (*model.Lawyer, error) {
	var lawyer model.Lawyer
	if err := c.do(ctx, http.MethodPost, "/lawyers/", token, in, &lawyer); err != nil {
		return nil, err
	}
	return &lawyer, nil
}

// UpdateLawyer обновляет юриста (PUT /lawyers/{id}).
func (c *Client) UpdateLawyer(ctx context.Context, token string, id int64, in model.LawyerInput) (*model.Lawyer, error) {
	var lawyer model.Lawyer
	if err := c.do(ctx, http.MethodPut, "/lawyers/"+strconv.FormatInt(id, 10), token, in, &lawyer); err != nil {
		return nil, err
	}
	return &lawyer, nil
}

// DeleteLawyer удаляет юриста (DELETE /lawyers/{id}).
// Backend отклоняет удаление юриста с привязанными процессами — detail
// такой ошибки показывается пользователю без изменений.
func (c *Client) DeleteLawyer(ctx context.Context, token string, id int64) error {
	return c.do(ctx, http.MethodDelete, "/lawyers/"+strconv.FormatInt(id, 10), token, nil, nil)
}

// --- Клиенты ---

// ListClients возвращает список клиентов (GET /clients/).
func (c *Client) ListClients(ctx context.Context, token string) ([]model.Client, error) {
	var clients []model.Client
	if err := c.do(ctx, http.MethodGet, "/clients/", token, nil, &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

// GetClient возвращает клиента по id (GET /clients/{id}).
func (c *Client) GetClient(ctx context.Context, token string, id int64) (*model.Client, error) {
	var client model.Client
	if err := c.do(ctx, http.MethodGet, "/clients/"+strconv.FormatInt(id, 10), token, nil, &client); err != nil {
		return nil, err
	}
	return &client, nil
}

// CreateClient создаёт клиента (POST /clients/).
func (c *Client) CreateClient(ctx context.Context, token string, in model.ClientInput) (*model.Client, error) {
	var client model.Client
	if err := c.do(ctx, http.MethodPost, "/clients/", token, in, &client); err != nil {
		return nil, err
	}
	return &client, nil
}

// UpdateClient обновляет клиента (PUT /clients/{id}).
func (c *Client) UpdateClient(ctx context.Context, token string, id int64, in model.ClientInput) (*model.Client, error) {
	var client model.Client
	if err := c.do(ctx, http.MethodPut, "/clients/"+strconv.FormatInt(id, 10), token, in, &client); err != nil {
		return nil, err
	}
	return &client, nil
}

// DeleteClient удаляет клиента (DELETE /clients/{id}).
func (c *Client) DeleteClient(ctx context.Context, token string, id int64) error {
	return c.do(ctx, http.MethodDelete, "/clients/"+strconv.FormatInt(id, 10), token, nil, nil)
}

// --- Процессы ---

// ListProcesses возвращает список процессов с фильтрами (GET /processes/).
func (c *Client) ListProcesses(ctx context.Context, token string, filters model.ProcessFilters) ([]model.Process, error) {
	path := "/processes/"
	if q := buildProcessQuery(filters); q != "" {
		path += "?" + q
	}

	var processes []model.Process
	if err := c.do(ctx, http.MethodGet, path, token, nil, &processes); err != nil {
		return nil, err
	}
	return processes, nil
}

// GetProcess возвращает процесс по id (GET /processes/{id}).
func (c *Client) GetProcess(ctx context.Context, token string, id int64) (*model.Process, error) {
	var process model.Process
	if err := c.do(ctx, http.MethodGet, "/processes/"+strconv.FormatInt(id, 10), token, nil, &process); err != nil {
		return nil, err
	}
	return &process, nil
}

// CreateProcess создаёт процесс (POST /processes/).
func (c *Client) CreateProcess(ctx context.Context, token string, in model.ProcessInput) (*model.Process, error) {
	var process model.Process
	if err := c.do(ctx, http.MethodPost, "/processes/", token, in, &process); err != nil {
		return nil, err
	}
	return &process, nil
}

// UpdateProcess обновляет процесс (PUT /processes/{id}).
func (c *Client) UpdateProcess(ctx context.Context, token string, id int64, in model.ProcessInput) (*model.Process, error) {
	var process model.Process
	if err := c.do(ctx, http.MethodPut, "/processes/"+strconv.FormatInt(id, 10), token, in, &process); err != nil {
		return nil, err
	}
	return &process, nil
}

// DeleteProcess удаляет процесс (DELETE /processes/{id}).
func (c *Client) DeleteProcess(ctx context.Context, token string, id int64) error {
	return c.do(ctx, http.MethodDelete, "/processes/"+strconv.FormatInt(id, 10), token, nil, nil)
}

// buildProcessQuery собирает query string из заданных фильтров.
func buildProcessQuery(filters model.ProcessFilters) string {
	q := url.Values{}
	if filters.ClientID != nil {
		q.Set("client_id", strconv.FormatInt(*filters.ClientID, 10))
	}
	if filters.LawyerID != nil {
		q.Set("lawyer_id", strconv.FormatInt(*filters.LawyerID, 10))
	}
	if filters.ActionType != nil {
		q.Set("action_type", *filters.ActionType)
	}
	if filters.Status != nil {
		q.Set("status", *filters.Status)
	}
	if filters.FatalDeadlineFrom != nil {
		q.Set("fatal_deadline_de", *filters.FatalDeadlineFrom)
	}
	if filters.FatalDeadlineTo != nil {
		q.Set("fatal_deadline_ate", *filters.FatalDeadlineTo)
	}
	return q.Encode()
}

// --- Справочники ---

// AreasOfExpertise возвращает список областей права
// (GET /areas-of-expertise/ — публичный endpoint, без авторизации).
func (c *Client) AreasOfExpertise(ctx context.Context) ([]string, error) {
	var areas []string
	if err := c.do(ctx, http.MethodGet, "/areas-of-expertise/", "", nil, &areas); err != nil {
		return nil, err
	}
	return areas, nil
}

// normalizeURL убирает trailing slash из URL.
func normalizeURL(rawURL string) string {
	return strings.TrimRight(rawURL, "/")
}
