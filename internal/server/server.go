// Пакет server — HTTP-сервер UI Module с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на ingress.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arturkryukov/lexoffice/ui-module/internal/config"
	"github.com/arturkryukov/lexoffice/ui-module/internal/ui/handlers"
	"github.com/arturkryukov/lexoffice/ui-module/internal/ui/i18n"
	uimiddleware "github.com/arturkryukov/lexoffice/ui-module/internal/ui/middleware"
	"github.com/arturkryukov/lexoffice/ui-module/internal/ui/static"
)

// Handlers — набор обработчиков страниц, монтируемых на роутер.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Dashboard *handlers.DashboardHandler
	Lawyers   *handlers.LawyerHandler
	Clients   *handlers.ClientHandler
	Processes *handlers.ProcessHandler
	Settings  *handlers.SettingsHandler
	Admin     *handlers.AdminHandler
}

// Server — HTTP-сервер UI Module.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
// sessionAuth защищает все страницы приложения; публичными остаются
// /login, /logout, /language, /healthz, /metrics и /static/*.
func New(cfg *config.Config, logger *slog.Logger, h Handlers, sessionAuth *uimiddleware.SessionAuth) *Server {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(uimiddleware.MetricsMiddleware())
	router.Use(uimiddleware.RequestLogger(logger))
	router.Use(i18n.Middleware())

	// --- Публичные маршруты ---

	router.Get("/login", h.Auth.HandleLoginPage)
	router.Post("/login", h.Auth.HandleLogin)
	router.Post("/logout", h.Auth.HandleLogout)
	router.Post("/language", handlers.HandleSetLanguage)

	router.Get("/healthz", handleHealthz)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(static.FileSystem())))

	// --- Защищённые маршруты ---

	router.Group(func(r chi.Router) {
		r.Use(sessionAuth.Middleware())

		r.Get("/", handleRoot)
		r.Get("/dashboard", h.Dashboard.HandleDashboard)

		r.Get("/lawyers", h.Lawyers.HandleList)
		r.Post("/lawyers", h.Lawyers.HandleCreate)
		r.Get("/lawyers/{id}/edit", h.Lawyers.HandleEditPage)
		r.Post("/lawyers/{id}", h.Lawyers.HandleUpdate)
		r.Post("/lawyers/{id}/delete", h.Lawyers.HandleDelete)

		r.Get("/clients", h.Clients.HandleList)
		r.Post("/clients", h.Clients.HandleCreate)
		r.Get("/clients/{id}/edit", h.Clients.HandleEditPage)
		r.Post("/clients/{id}", h.Clients.HandleUpdate)
		r.Post("/clients/{id}/delete", h.Clients.HandleDelete)

		r.Get("/processes", h.Processes.HandleList)
		r.Post("/processes", h.Processes.HandleCreate)
		r.Post("/processes/delete-selected", h.Processes.HandleDeleteSelected)
		r.Get("/processes/{id}/edit", h.Processes.HandleEditPage)
		r.Post("/processes/{id}", h.Processes.HandleUpdate)
		r.Post("/processes/{id}/delete", h.Processes.HandleDelete)

		r.Get("/settings", h.Settings.HandleSettings)
		r.Post("/settings/profile", h.Settings.HandleProfileUpdate)
		r.Post("/settings/password", h.Settings.HandlePasswordUpdate)

		r.Get("/admin", h.Admin.HandleAdmin)
		r.Post("/admin/lawyers/{id}/reset-password", h.Admin.HandleResetPassword)
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// handleRoot перенаправляет корень на Dashboard.
func handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// handleHealthz — liveness probe. Состояние backend отражают метрики
// dephealth; сам UI Module жив, пока отвечает HTTP-сервер.
func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
