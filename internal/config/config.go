// Пакет config — загрузка и валидация конфигурации UI Module
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации UI Module.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера (диапазон 8000-8009)
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- Backend API ---

	// Базовый URL backend API (например, https://api.lexoffice.lan)
	APIURL string
	// Путь к CA-сертификату для TLS-соединения с backend (опционально)
	APICACertPath string
	// Таймаут HTTP-запросов к backend
	APITimeout time.Duration

	// --- Сессии ---

	// Ключ шифрования session cookie (base64 32 bytes либо произвольная
	// строка; пустой — случайный ключ, сессии не переживают рестарт)
	SessionSecret string
	// Использовать Secure flag для cookies (true при работе за HTTPS)
	SecureCookie bool

	// --- Кэш имён ---

	// Размер LRU-кэша имён (юристы, клиенты)
	CacheSize int
	// TTL записей кэша имён
	CacheTTL time.Duration

	// --- Dephealth ---

	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration
	// Имя группы в метриках topologymetrics
	DephealthGroup string

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// LO_PORT — порт HTTP-сервера (по умолчанию 8000)
	cfg.Port, err = getEnvInt("LO_PORT", 8000)
	if err != nil {
		return nil, fmt.Errorf("LO_PORT: %w", err)
	}
	if cfg.Port < 8000 || cfg.Port > 8009 {
		return nil, fmt.Errorf("LO_PORT: значение %d вне допустимого диапазона 8000-8009", cfg.Port)
	}

	// LO_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("LO_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("LO_LOG_LEVEL: %w", err)
	}

	// LO_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("LO_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("LO_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- Backend API ---

	// LO_API_URL — обязательный
	cfg.APIURL, err = getEnvRequired("LO_API_URL")
	if err != nil {
		return nil, err
	}
	// Убираем trailing slash
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	// LO_API_CA_CERT_PATH — путь к CA-сертификату backend (опционально)
	cfg.APICACertPath = getEnvDefault("LO_API_CA_CERT_PATH", "")

	// LO_API_TIMEOUT — таймаут запросов к backend (по умолчанию 10s)
	cfg.APITimeout, err = getEnvDuration("LO_API_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("LO_API_TIMEOUT: %w", err)
	}

	// --- Сессии ---

	// LO_SESSION_SECRET — ключ шифрования cookie (опционально)
	cfg.SessionSecret = getEnvDefault("LO_SESSION_SECRET", "")

	// LO_SECURE_COOKIE — Secure flag для cookies (по умолчанию false)
	cfg.SecureCookie, err = getEnvBool("LO_SECURE_COOKIE", false)
	if err != nil {
		return nil, fmt.Errorf("LO_SECURE_COOKIE: %w", err)
	}

	// --- Кэш имён ---

	// LO_CACHE_SIZE — размер LRU-кэша имён (по умолчанию 1024)
	cfg.CacheSize, err = getEnvInt("LO_CACHE_SIZE", 1024)
	if err != nil {
		return nil, fmt.Errorf("LO_CACHE_SIZE: %w", err)
	}
	if cfg.CacheSize < 1 {
		return nil, fmt.Errorf("LO_CACHE_SIZE: значение %d должно быть положительным", cfg.CacheSize)
	}

	// LO_CACHE_TTL — TTL кэша имён (по умолчанию 5m)
	cfg.CacheTTL, err = getEnvDuration("LO_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("LO_CACHE_TTL: %w", err)
	}

	// --- Dephealth ---

	// LO_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("LO_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("LO_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// LO_DEPHEALTH_GROUP — имя группы в метриках (по умолчанию lexoffice)
	cfg.DephealthGroup = getEnvDefault("LO_DEPHEALTH_GROUP", "lexoffice")

	// --- Graceful shutdown ---

	// LO_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("LO_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("LO_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
