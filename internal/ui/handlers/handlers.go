// Пакет handlers — HTTP-обработчики UI Module.
// handlers.go — общие помощники: базовые данные страницы, завершение
// сессии при ErrUnauthorized, redirect с flash-сообщением, рендеринг.
package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/arturkryukov/lexoffice/ui-module/internal/domain/model"
	"github.com/arturkryukov/lexoffice/ui-module/internal/ui/auth"
	"github.com/arturkryukov/lexoffice/ui-module/internal/ui/i18n"
	uimiddleware "github.com/arturkryukov/lexoffice/ui-module/internal/ui/middleware"
	"github.com/arturkryukov/lexoffice/ui-module/internal/ui/pages"
)

// basePage собирает общие данные страницы: язык из контекста, данные
// пользователя из сессии, активный пункт навигации и flash-сообщения
// из query string (msg/err после redirect).
func basePage(r *http.Request, active string) pages.Page {
	p := pages.Page{
		Lang:   i18n.LangFromContext(r.Context()),
		Active: active,
		Flash:  r.URL.Query().Get("msg"),
		Error:  r.URL.Query().Get("err"),
	}
	if session := uimiddleware.SessionFromContext(r.Context()); session != nil {
		p.LoggedIn = true
		p.Username = session.Username
		p.Name = session.Name
		p.IsAdmin = session.IsAdmin
	}
	return p
}

// uiSession — сессия текущего запроса (nil вне SessionAuth).
func uiSession(r *http.Request) *auth.SessionData {
	return uimiddleware.SessionFromContext(r.Context())
}

// endSession — реакция на ErrUnauthorized от backend: токен стал
// недействительным, cookie очищается, пользователь входит заново.
func endSession(sm *auth.SessionManager, w http.ResponseWriter, r *http.Request) {
	sm.ClearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

// redirectFlash выполняет redirect (PRG) с flash-сообщением об успехе.
func redirectFlash(w http.ResponseWriter, r *http.Request, path, msg string) {
	http.Redirect(w, r, path+"?msg="+url.QueryEscape(msg), http.StatusSeeOther)
}

// redirectError выполняет redirect (PRG) с сообщением об ошибке.
func redirectError(w http.ResponseWriter, r *http.Request, path, msg string) {
	http.Redirect(w, r, path+"?err="+url.QueryEscape(msg), http.StatusSeeOther)
}

// render выполняет рендеринг страницы, логируя ошибку шаблона.
func render(w http.ResponseWriter, r *http.Request, logger *slog.Logger, c pages.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		logger.Error("Ошибка рендеринга страницы",
			slog.String("error", err.Error()),
			slog.String("path", r.URL.Path),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// pathID извлекает числовой параметр {id} из URL.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// lawyerOptions строит опции селекта юристов. Системный администратор
// исключается: на него нельзя назначать процессы.
func lawyerOptions(lawyers []model.Lawyer, selected string) []pages.Option {
	opts := make([]pages.Option, 0, len(lawyers))
	for i := range lawyers {
		l := &lawyers[i]
		if l.IsSystemAdmin() {
			continue
		}
		value := strconv.FormatInt(l.ID, 10)
		opts = append(opts, pages.Option{
			Value:    value,
			Label:    l.Name,
			Selected: value == selected,
		})
	}
	return opts
}

// clientOptions строит опции селекта клиентов.
func clientOptions(clients []model.Client, selected string) []pages.Option {
	opts := make([]pages.Option, 0, len(clients))
	for _, c := range clients {
		value := strconv.FormatInt(c.ID, 10)
		opts = append(opts, pages.Option{
			Value:    value,
			Label:    c.Name,
			Selected: value == selected,
		})
	}
	return opts
}
