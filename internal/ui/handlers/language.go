// language.go — переключение языка интерфейса.
package handlers

import (
	"net/http"
	"time"

	"github.com/arturkryukov/lexoffice/ui-module/internal/ui/i18n"
)

// HandleSetLanguage обрабатывает POST /language.
// Устанавливает cookie "lang" и перенаправляет обратно.
// Параметр lang: "pt" или "en".
func HandleSetLanguage(w http.ResponseWriter, r *http.Request) {
	lang := r.FormValue("lang")
	if lang != "pt" && lang != "en" {
		lang = i18n.DefaultLang
	}

	// Cookie на 1 год
	http.SetCookie(w, &http.Cookie{
		Name:     i18n.LangCookieName,
		Value:    lang,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(365 * 24 * time.Hour),
	})

	// Redirect обратно: явный redirect из формы, затем Referer
	target := r.FormValue("redirect")
	if target == "" || target[0] != '/' {
		target = r.Header.Get("Referer")
	}
	if target == "" {
		target = "/dashboard"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
