package config

import (
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// setEnvs устанавливает переменные окружения на время теста.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

// minimalEnvs возвращает минимальный набор обязательных переменных.
func minimalEnvs() map[string]string {
	return map[string]string{
		"PORTAL_API_BASE_URL": "https://api.faculty.uz/",
		"PORTAL_SESSION_FILE": filepath.Join("tmp", "session.enc"),
	}
}

func TestLoad_MinimalConfig(t *testing.T) {
	setEnvs(t, minimalEnvs())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 8040 {
		t.Errorf("Port = %d, ожидается 8040", cfg.Port)
	}
	if cfg.BindAddress != "127.0.0.1" {
		t.Errorf("BindAddress = %q, ожидается 127.0.0.1", cfg.BindAddress)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, ожидается Info", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, ожидается json", cfg.LogFormat)
	}
	if cfg.APIBaseURL != "https://api.faculty.uz" {
		t.Errorf("APIBaseURL = %q, ожидается без завершающего /", cfg.APIBaseURL)
	}
	if cfg.APITimeout != 30*time.Second {
		t.Errorf("APITimeout = %v, ожидается 30s", cfg.APITimeout)
	}
	if cfg.UploadImagePath != "/api/v1/file/upload/image" {
		t.Errorf("UploadImagePath = %q", cfg.UploadImagePath)
	}
	if cfg.UploadPDFPath != "/api/v1/file/upload/pdf" {
		t.Errorf("UploadPDFPath = %q", cfg.UploadPDFPath)
	}
	if cfg.CacheMaxEntries != 500 {
		t.Errorf("CacheMaxEntries = %d, ожидается 500", cfg.CacheMaxEntries)
	}
	if cfg.CacheStaleTime != 30*time.Second {
		t.Errorf("CacheStaleTime = %v, ожидается 30s", cfg.CacheStaleTime)
	}
	if cfg.CacheGCTime != 5*time.Minute {
		t.Errorf("CacheGCTime = %v, ожидается 5m", cfg.CacheGCTime)
	}
	if cfg.SearchDebounce != 400*time.Millisecond {
		t.Errorf("SearchDebounce = %v, ожидается 400ms", cfg.SearchDebounce)
	}
	if cfg.DefaultPageSize != 10 {
		t.Errorf("DefaultPageSize = %d, ожидается 10", cfg.DefaultPageSize)
	}
	if cfg.Language != "uz" {
		t.Errorf("Language = %q, ожидается uz", cfg.Language)
	}
	if cfg.NotificationCapacity != 50 {
		t.Errorf("NotificationCapacity = %d, ожидается 50", cfg.NotificationCapacity)
	}
	if cfg.DephealthGroup != "faculty-portal" {
		t.Errorf("DephealthGroup = %q, ожидается faculty-portal", cfg.DephealthGroup)
	}
	if cfg.DephealthCheckInterval != 15*time.Second {
		t.Errorf("DephealthCheckInterval = %v, ожидается 15s", cfg.DephealthCheckInterval)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 5s", cfg.ShutdownTimeout)
	}
	if cfg.ListenAddr() != "127.0.0.1:8040" {
		t.Errorf("ListenAddr() = %q", cfg.ListenAddr())
	}
}

func TestLoad_CustomValues(t *testing.T) {
	envs := minimalEnvs()
	envs["PORTAL_PORT"] = "9090"
	envs["PORTAL_BIND_ADDRESS"] = "0.0.0.0"
	envs["PORTAL_LOG_LEVEL"] = "debug"
	envs["PORTAL_LOG_FORMAT"] = "text"
	envs["PORTAL_API_TIMEOUT"] = "10s"
	envs["PORTAL_API_CA_CERT"] = "/etc/ssl/faculty-ca.pem"
	envs["PORTAL_UPLOAD_PDF_PATH"] = "/api/v2/files/pdf"
	envs["PORTAL_CACHE_MAX_ENTRIES"] = "100"
	envs["PORTAL_CACHE_STALE_TIME"] = "0s"
	envs["PORTAL_CACHE_GC_TIME"] = "1m"
	envs["PORTAL_SEARCH_DEBOUNCE"] = "250ms"
	envs["PORTAL_DEFAULT_PAGE_SIZE"] = "25"
	envs["PORTAL_SESSION_KEY"] = "secret"
	envs["PORTAL_LANGUAGE"] = "RU"
	envs["PORTAL_NOTIFICATION_CAPACITY"] = "5"
	envs["PORTAL_DEPHEALTH_GROUP"] = "prod"
	envs["PORTAL_DEPHEALTH_CHECK_INTERVAL"] = "1m"
	envs["DEPHEALTH_ISENTRY"] = "true"
	setEnvs(t, envs)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.ListenAddr() != "0.0.0.0:9090" {
		t.Errorf("ListenAddr() = %q", cfg.ListenAddr())
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, ожидается Debug", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, ожидается text", cfg.LogFormat)
	}
	if cfg.APITimeout != 10*time.Second {
		t.Errorf("APITimeout = %v, ожидается 10s", cfg.APITimeout)
	}
	if cfg.APICACertPath != "/etc/ssl/faculty-ca.pem" {
		t.Errorf("APICACertPath = %q", cfg.APICACertPath)
	}
	if cfg.UploadPDFPath != "/api/v2/files/pdf" {
		t.Errorf("UploadPDFPath = %q", cfg.UploadPDFPath)
	}
	if cfg.CacheMaxEntries != 100 || cfg.CacheStaleTime != 0 || cfg.CacheGCTime != time.Minute {
		t.Errorf("кэш: %d %v %v", cfg.CacheMaxEntries, cfg.CacheStaleTime, cfg.CacheGCTime)
	}
	if cfg.SearchDebounce != 250*time.Millisecond {
		t.Errorf("SearchDebounce = %v", cfg.SearchDebounce)
	}
	if cfg.DefaultPageSize != 25 {
		t.Errorf("DefaultPageSize = %d", cfg.DefaultPageSize)
	}
	if cfg.SessionKey != "secret" {
		t.Errorf("SessionKey = %q", cfg.SessionKey)
	}
	if cfg.Language != "ru" {
		t.Errorf("Language = %q, ожидается ru", cfg.Language)
	}
	if cfg.NotificationCapacity != 5 {
		t.Errorf("NotificationCapacity = %d", cfg.NotificationCapacity)
	}
	if cfg.DephealthGroup != "prod" || cfg.DephealthCheckInterval != time.Minute || !cfg.DephealthIsEntry {
		t.Errorf("dephealth: %q %v %v", cfg.DephealthGroup, cfg.DephealthCheckInterval, cfg.DephealthIsEntry)
	}
}

func TestLoad_DefaultSessionFile(t *testing.T) {
	t.Setenv("PORTAL_API_BASE_URL", "http://localhost:8080")
	t.Setenv("PORTAL_SESSION_FILE", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}
	if !strings.HasSuffix(cfg.SessionFile, filepath.Join("faculty-portal", "session.enc")) {
		t.Errorf("SessionFile = %q", cfg.SessionFile)
	}
}

func TestLoad_MissingAPIBaseURL(t *testing.T) {
	t.Setenv("PORTAL_API_BASE_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("ожидалась ошибка при отсутствии PORTAL_API_BASE_URL")
	}
	if !strings.Contains(err.Error(), "PORTAL_API_BASE_URL") {
		t.Errorf("ошибка не упоминает переменную: %v", err)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"порт не число", "PORTAL_PORT", "abc"},
		{"порт вне диапазона", "PORTAL_PORT", "70000"},
		{"уровень логирования", "PORTAL_LOG_LEVEL", "verbose"},
		{"формат логов", "PORTAL_LOG_FORMAT", "xml"},
		{"URL без схемы", "PORTAL_API_BASE_URL", "api.faculty.uz"},
		{"URL ftp", "PORTAL_API_BASE_URL", "ftp://api.faculty.uz"},
		{"нулевой таймаут API", "PORTAL_API_TIMEOUT", "0s"},
		{"отрицательная длительность", "PORTAL_HTTP_READ_TIMEOUT", "-1s"},
		{"размер кэша", "PORTAL_CACHE_MAX_ENTRIES", "0"},
		{"свежесть больше времени жизни", "PORTAL_CACHE_STALE_TIME", "10m"},
		{"размер страницы", "PORTAL_DEFAULT_PAGE_SIZE", "0"},
		{"язык", "PORTAL_LANGUAGE", "de"},
		{"ёмкость уведомлений", "PORTAL_NOTIFICATION_CAPACITY", "-1"},
		{"интервал dephealth", "PORTAL_DEPHEALTH_CHECK_INTERVAL", "15"},
		{"isentry", "DEPHEALTH_ISENTRY", "yes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envs := minimalEnvs()
			envs[tt.key] = tt.value
			setEnvs(t, envs)

			_, err := Load()
			if err == nil {
				t.Fatalf("ожидалась ошибка для %s=%q", tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("ошибка не упоминает %s: %v", tt.key, err)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := parseLogLevel(tt.input)
		if err != nil {
			t.Errorf("parseLogLevel(%q) ошибка: %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, ожидается %v", tt.input, got, tt.want)
		}
	}
}
