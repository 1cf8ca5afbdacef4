// Пакет config — загрузка и валидация конфигурации портала
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации портала.
type Config struct {
	// --- Сервер ---

	// Порт локального шлюза
	Port int
	// Адрес, на котором слушает шлюз (по умолчанию только loopback)
	BindAddress string
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- HTTP Server Timeouts ---

	// Таймаут чтения HTTP-сервера (по умолчанию 30s)
	HTTPReadTimeout time.Duration
	// Таймаут записи HTTP-сервера (по умолчанию 60s)
	HTTPWriteTimeout time.Duration
	// Таймаут простоя HTTP-сервера (по умолчанию 120s)
	HTTPIdleTimeout time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown (по умолчанию 5s)
	ShutdownTimeout time.Duration

	// --- Удалённый API ---

	// Базовый URL REST API факультета
	APIBaseURL string
	// Таймаут запроса к API (по умолчанию 30s)
	APITimeout time.Duration
	// Путь к CA-сертификату API (пусто — системный пул)
	APICACertPath string
	// Путь загрузки изображений
	UploadImagePath string
	// Путь загрузки PDF
	UploadPDFPath string

	// --- Кэш запросов ---

	// Максимальное количество закэшированных чтений
	CacheMaxEntries int
	// Сколько чтение считается свежим
	CacheStaleTime time.Duration
	// Время жизни записи в кэше
	CacheGCTime time.Duration

	// --- Списки ---

	// Задержка поиска по вводу
	SearchDebounce time.Duration
	// Размер страницы по умолчанию
	DefaultPageSize int

	// --- Сессия ---

	// Файл зашифрованной сессии
	SessionFile string
	// Ключ шифрования сессии (пусто — случайный на время процесса)
	SessionKey string

	// --- Уведомления ---

	// Язык уведомлений по умолчанию (uz, ru, en)
	Language string
	// Сколько уведомлений хранится до вычитывания
	NotificationCapacity int

	// --- topologymetrics ---

	// Имя группы в метриках зависимостей
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration
	// Добавлять лейбл isentry=yes
	DephealthIsEntry bool
}

// Load загружает конфигурацию из переменных окружения.
// Возвращает ошибку, если обязательные переменные не заданы
// или значения некорректны.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// PORTAL_PORT — порт локального шлюза (по умолчанию 8040)
	cfg.Port, err = getEnvInt("PORTAL_PORT", 8040)
	if err != nil {
		return nil, fmt.Errorf("PORTAL_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("PORTAL_PORT: порт %d вне диапазона 1-65535", cfg.Port)
	}

	// PORTAL_BIND_ADDRESS — адрес шлюза (по умолчанию 127.0.0.1)
	cfg.BindAddress = getEnvDefault("PORTAL_BIND_ADDRESS", "127.0.0.1")

	// PORTAL_LOG_LEVEL — уровень логирования (по умолчанию info)
	logLevel := getEnvDefault("PORTAL_LOG_LEVEL", "info")
	cfg.LogLevel, err = parseLogLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("PORTAL_LOG_LEVEL: %w", err)
	}

	// PORTAL_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("PORTAL_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("PORTAL_LOG_FORMAT: недопустимый формат %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- HTTP Server Timeouts ---

	// PORTAL_HTTP_READ_TIMEOUT — таймаут чтения (по умолчанию 30s)
	cfg.HTTPReadTimeout, err = getEnvDuration("PORTAL_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PORTAL_HTTP_READ_TIMEOUT: %w", err)
	}

	// PORTAL_HTTP_WRITE_TIMEOUT — таймаут записи (по умолчанию 60s)
	cfg.HTTPWriteTimeout, err = getEnvDuration("PORTAL_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PORTAL_HTTP_WRITE_TIMEOUT: %w", err)
	}

	// PORTAL_HTTP_IDLE_TIMEOUT — таймаут простоя (по умолчанию 120s)
	cfg.HTTPIdleTimeout, err = getEnvDuration("PORTAL_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PORTAL_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// --- Graceful shutdown ---

	// PORTAL_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("PORTAL_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PORTAL_SHUTDOWN_TIMEOUT: %w", err)
	}

	// --- Удалённый API ---

	// PORTAL_API_BASE_URL — базовый URL REST API (обязательный)
	cfg.APIBaseURL, err = getEnvRequired("PORTAL_API_BASE_URL")
	if err != nil {
		return nil, err
	}
	parsed, err := url.Parse(cfg.APIBaseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("PORTAL_API_BASE_URL: некорректный URL %q (ожидается http(s)://host[:port])", cfg.APIBaseURL)
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	// PORTAL_API_TIMEOUT — таймаут запроса к API (по умолчанию 30s)
	cfg.APITimeout, err = getEnvDurationPositive("PORTAL_API_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PORTAL_API_TIMEOUT: %w", err)
	}

	// PORTAL_API_CA_CERT — CA-сертификат API (опционально)
	cfg.APICACertPath = os.Getenv("PORTAL_API_CA_CERT")

	// PORTAL_UPLOAD_IMAGE_PATH — путь загрузки изображений (по умолчанию /api/v1/file/upload/image)
	cfg.UploadImagePath = getEnvDefault("PORTAL_UPLOAD_IMAGE_PATH", "/api/v1/file/upload/image")

	// PORTAL_UPLOAD_PDF_PATH — путь загрузки PDF (по умолчанию /api/v1/file/upload/pdf)
	cfg.UploadPDFPath = getEnvDefault("PORTAL_UPLOAD_PDF_PATH", "/api/v1/file/upload/pdf")

	// --- Кэш запросов ---

	// PORTAL_CACHE_MAX_ENTRIES — размер кэша (по умолчанию 500)
	cfg.CacheMaxEntries, err = getEnvInt("PORTAL_CACHE_MAX_ENTRIES", 500)
	if err != nil {
		return nil, fmt.Errorf("PORTAL_CACHE_MAX_ENTRIES: %w", err)
	}
	if cfg.CacheMaxEntries <= 0 {
		return nil, fmt.Errorf("PORTAL_CACHE_MAX_ENTRIES: значение должно быть > 0")
	}

	// PORTAL_CACHE_STALE_TIME — свежесть чтения (по умолчанию 30s)
	cfg.CacheStaleTime, err = getEnvDuration("PORTAL_CACHE_STALE_TIME", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PORTAL_CACHE_STALE_TIME: %w", err)
	}

	// PORTAL_CACHE_GC_TIME — время жизни записи (по умолчанию 5m)
	cfg.CacheGCTime, err = getEnvDurationPositive("PORTAL_CACHE_GC_TIME", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("PORTAL_CACHE_GC_TIME: %w", err)
	}
	if cfg.CacheStaleTime > cfg.CacheGCTime {
		return nil, fmt.Errorf("PORTAL_CACHE_STALE_TIME (%s) не может превышать PORTAL_CACHE_GC_TIME (%s)",
			cfg.CacheStaleTime, cfg.CacheGCTime)
	}

	// --- Списки ---

	// PORTAL_SEARCH_DEBOUNCE — задержка поиска (по умолчанию 400ms)
	cfg.SearchDebounce, err = getEnvDuration("PORTAL_SEARCH_DEBOUNCE", 400*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("PORTAL_SEARCH_DEBOUNCE: %w", err)
	}

	// PORTAL_DEFAULT_PAGE_SIZE — размер страницы (по умолчанию 10)
	cfg.DefaultPageSize, err = getEnvInt("PORTAL_DEFAULT_PAGE_SIZE", 10)
	if err != nil {
		return nil, fmt.Errorf("PORTAL_DEFAULT_PAGE_SIZE: %w", err)
	}
	if cfg.DefaultPageSize < 1 || cfg.DefaultPageSize > 100 {
		return nil, fmt.Errorf("PORTAL_DEFAULT_PAGE_SIZE: значение %d вне диапазона 1-100", cfg.DefaultPageSize)
	}

	// --- Сессия ---

	// PORTAL_SESSION_FILE — файл сессии (по умолчанию <UserConfigDir>/faculty-portal/session.enc)
	cfg.SessionFile = os.Getenv("PORTAL_SESSION_FILE")
	if cfg.SessionFile == "" {
		dir, dirErr := os.UserConfigDir()
		if dirErr != nil {
			return nil, fmt.Errorf("PORTAL_SESSION_FILE: не задан и каталог конфигурации недоступен: %w", dirErr)
		}
		cfg.SessionFile = filepath.Join(dir, "faculty-portal", "session.enc")
	}

	// PORTAL_SESSION_KEY — ключ шифрования сессии (опционально)
	cfg.SessionKey = os.Getenv("PORTAL_SESSION_KEY")

	// --- Уведомления ---

	// PORTAL_LANGUAGE — язык уведомлений (по умолчанию uz)
	cfg.Language = strings.ToLower(getEnvDefault("PORTAL_LANGUAGE", "uz"))
	switch cfg.Language {
	case "uz", "ru", "en":
	default:
		return nil, fmt.Errorf("PORTAL_LANGUAGE: недопустимый язык %q, допустимые: uz, ru, en", cfg.Language)
	}

	// PORTAL_NOTIFICATION_CAPACITY — размер очереди уведомлений (по умолчанию 50)
	cfg.NotificationCapacity, err = getEnvInt("PORTAL_NOTIFICATION_CAPACITY", 50)
	if err != nil {
		return nil, fmt.Errorf("PORTAL_NOTIFICATION_CAPACITY: %w", err)
	}
	if cfg.NotificationCapacity <= 0 {
		return nil, fmt.Errorf("PORTAL_NOTIFICATION_CAPACITY: значение должно быть > 0")
	}

	// --- topologymetrics ---

	// PORTAL_DEPHEALTH_GROUP — группа в метриках зависимостей (по умолчанию faculty-portal)
	cfg.DephealthGroup = getEnvDefault("PORTAL_DEPHEALTH_GROUP", "faculty-portal")

	// PORTAL_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDurationPositive("PORTAL_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PORTAL_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// DEPHEALTH_ISENTRY — лейбл isentry=yes (по умолчанию false)
	cfg.DephealthIsEntry, err = getEnvBool("DEPHEALTH_ISENTRY", false)
	if err != nil {
		return nil, fmt.Errorf("DEPHEALTH_ISENTRY: %w", err)
	}

	return cfg, nil
}

// ListenAddr возвращает адрес для http.Server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.BindAddress, c.Port)
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
	if d < 0 {
		return 0, fmt.Errorf("значение не может быть отрицательным")
	}
	return d, nil
}

// getEnvDurationPositive — как getEnvDuration, но значение должно быть > 0.
func getEnvDurationPositive(key string, defaultVal time.Duration) (time.Duration, error) {
	d, err := getEnvDuration(key, defaultVal)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("значение должно быть > 0")
	}
	return d, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q (допустимые: true, false, 1, 0)", val)
	}
	return b, nil
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
