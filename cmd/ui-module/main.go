// Точка входа UI Module — web-интерфейс системы управления юридической фирмой.
// Загружает конфигурацию, создаёт клиент backend API и репозитории с кэшем
// имён, инициализирует сессии и i18n, запускает topologymetrics и
// HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/arturkryukov/lexoffice/ui-module/internal/apiclient"
	"github.com/arturkryukov/lexoffice/ui-module/internal/config"
	"github.com/arturkryukov/lexoffice/ui-module/internal/repository"
	"github.com/arturkryukov/lexoffice/ui-module/internal/server"
	"github.com/arturkryukov/lexoffice/ui-module/internal/service"
	"github.com/arturkryukov/lexoffice/ui-module/internal/ui/auth"
	"github.com/arturkryukov/lexoffice/ui-module/internal/ui/handlers"
	"github.com/arturkryukov/lexoffice/ui-module/internal/ui/i18n"
	uimiddleware "github.com/arturkryukov/lexoffice/ui-module/internal/ui/middleware"
)

func main() {
	// 1. Переменные окружения из .env (для локальной разработки;
	// отсутствие файла — не ошибка)
	_ = godotenv.Load()

	// 2. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 3. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("UI Module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("api_url", cfg.APIURL),
	)

	if os.Getenv("LO_DEPHEALTH_GROUP") == "" {
		logger.Warn("LO_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 4. Клиент backend API
	api, err := apiclient.New(cfg.APIURL, cfg.APICACertPath, cfg.APITimeout, logger)
	if err != nil {
		logger.Error("Ошибка создания клиента backend API", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Репозитории с кэшем имён
	lawyerRepo := repository.NewLawyerRepository(api, cfg.CacheSize, cfg.CacheTTL, logger)
	clientRepo := repository.NewClientRepository(api, cfg.CacheSize, cfg.CacheTTL, logger)
	processRepo := repository.NewProcessRepository(api, logger)

	// 6. Session Manager — шифрование UI-сессий (AES-256-GCM)
	sessionMgr, err := auth.NewSessionManager(cfg.SessionSecret, cfg.SecureCookie)
	if err != nil {
		logger.Error("Ошибка создания Session Manager", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.SessionSecret == "" {
		logger.Warn("LO_SESSION_SECRET не задан, UI-сессии не сохраняются между рестартами")
	}

	// 7. i18n — каталоги переводов (pt, en)
	bundle := i18n.Init(logger)
	if err := i18n.LoadFromEmbedFS(bundle, logger); err != nil {
		logger.Error("Ошибка загрузки каталогов i18n", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 8. Обработчики страниц
	h := server.Handlers{
		Auth:      handlers.NewAuthHandler(api, sessionMgr, logger),
		Dashboard: handlers.NewDashboardHandler(lawyerRepo, clientRepo, processRepo, sessionMgr, logger),
		Lawyers:   handlers.NewLawyerHandler(lawyerRepo, sessionMgr, logger),
		Clients:   handlers.NewClientHandler(clientRepo, api, sessionMgr, logger),
		Processes: handlers.NewProcessHandler(processRepo, lawyerRepo, clientRepo, sessionMgr, logger),
		Settings:  handlers.NewSettingsHandler(api, sessionMgr, logger),
		Admin:     handlers.NewAdminHandler(lawyerRepo, api, sessionMgr, logger),
	}
	sessionAuth := uimiddleware.NewSessionAuth(sessionMgr, logger)

	// 9. topologymetrics — мониторинг зависимостей (Backend API)
	ctx := context.Background()
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"ui-module",
		cfg.DephealthGroup,
		cfg.APIURL,
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 10. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, h, sessionAuth)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 11. Graceful shutdown фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("UI Module остановлен")
}
