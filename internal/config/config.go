// Пакет config — загрузка и валидация конфигурации Document Module
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// DefaultExternalLinksField — поле внешних ссылок материала по умолчанию.
const DefaultExternalLinksField = "field_external_links"

// fieldNamePattern — допустимое машинное имя поля.
var fieldNamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Config содержит все параметры конфигурации Document Module.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера (по умолчанию 8040)
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- HTTP Server Timeouts ---

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	// --- PostgreSQL ---

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	// --- Файловое хранилище ---

	// Директория схемы public:// (отдаётся статикой по /files/)
	PublicDir string
	// Директория схемы private:// (опционально)
	PrivateDir string
	// Директория схемы temporary:// (опционально)
	TemporaryDir string
	// Базовый URL сервиса для абсолютных ссылок на скачивание
	BaseURL string
	// Корень директорий архивов (URI, по умолчанию public://downloads)
	DirectoryRoot string

	// --- Документы ---

	// Поле внешних ссылок материала
	ExternalLinksField string
	// Языки сайта; пустой список — без ограничения
	SiteLanguages []string

	// --- Кэш файлов ---

	// Максимальное количество записей в кэше (по умолчанию 10000)
	CacheMaxSize int
	// Время жизни записи в кэше (по умолчанию 5m)
	CacheTTL time.Duration

	// --- Мониторинг зависимостей ---

	DephealthGroup         string
	DephealthCheckInterval time.Duration
	DephealthIsEntry       bool

	// --- Graceful shutdown ---

	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения.
// Возвращает ошибку, если обязательные переменные не заданы
// или значения некорректны.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// DM_PORT — порт HTTP-сервера (по умолчанию 8040)
	cfg.Port, err = getEnvInt("DM_PORT", 8040)
	if err != nil {
		return nil, fmt.Errorf("DM_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("DM_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// DM_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("DM_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("DM_LOG_LEVEL: %w", err)
	}

	// DM_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("DM_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("DM_LOG_FORMAT: недопустимый формат %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- HTTP Server Timeouts ---

	cfg.HTTPReadTimeout, err = getEnvDuration("DM_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DM_HTTP_READ_TIMEOUT: %w", err)
	}
	// Запись дольше чтения: архив собирается внутри запроса
	cfg.HTTPWriteTimeout, err = getEnvDuration("DM_HTTP_WRITE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DM_HTTP_WRITE_TIMEOUT: %w", err)
	}
	cfg.HTTPIdleTimeout, err = getEnvDuration("DM_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DM_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// --- PostgreSQL ---

	cfg.DBHost = getEnvDefault("DM_DB_HOST", "localhost")
	cfg.DBPort, err = getEnvInt("DM_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("DM_DB_PORT: %w", err)
	}
	cfg.DBName = getEnvDefault("DM_DB_NAME", "documents")
	cfg.DBUser = getEnvDefault("DM_DB_USER", "documents")

	// DM_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("DM_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	cfg.DBSSLMode = getEnvDefault("DM_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("DM_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// --- Файловое хранилище ---

	cfg.PublicDir = getEnvDefault("DM_PUBLIC_DIR", "./data/public")
	cfg.PrivateDir = getEnvDefault("DM_PRIVATE_DIR", "")
	cfg.TemporaryDir = getEnvDefault("DM_TEMPORARY_DIR", "")

	// DM_BASE_URL — базовый URL для ссылок (по умолчанию http://localhost:<port>)
	cfg.BaseURL = getEnvDefault("DM_BASE_URL", fmt.Sprintf("http://localhost:%d", cfg.Port))
	if u, perr := url.Parse(cfg.BaseURL); perr != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("DM_BASE_URL: ожидается абсолютный URL, получено %q", cfg.BaseURL)
	}

	// DM_DIRECTORY_ROOT — корень директорий архивов.
	// Архив должен быть доступен по ссылке: public://, либо private:// при заданном DM_PRIVATE_DIR.
	cfg.DirectoryRoot = getEnvDefault("DM_DIRECTORY_ROOT", "public://downloads")
	scheme, _, ok := strings.Cut(cfg.DirectoryRoot, "://")
	if !ok {
		return nil, fmt.Errorf("DM_DIRECTORY_ROOT: ожидается URI вида scheme://path, получено %q", cfg.DirectoryRoot)
	}
	switch scheme {
	case "public":
	case "private":
		if cfg.PrivateDir == "" {
			return nil, fmt.Errorf("DM_DIRECTORY_ROOT: схема private:// требует DM_PRIVATE_DIR")
		}
	default:
		return nil, fmt.Errorf("DM_DIRECTORY_ROOT: схема %q не отдаётся по ссылке, допустимые: public, private", scheme)
	}

	// --- Документы ---

	cfg.ExternalLinksField = getEnvDefault("DM_EXTERNAL_LINKS_FIELD", DefaultExternalLinksField)
	if !fieldNamePattern.MatchString(cfg.ExternalLinksField) {
		return nil, fmt.Errorf("DM_EXTERNAL_LINKS_FIELD: недопустимое имя поля %q", cfg.ExternalLinksField)
	}

	// DM_SITE_LANGUAGES — языки сайта через запятую (например en,fr,pt-br)
	cfg.SiteLanguages = parseCSV(getEnvDefault("DM_SITE_LANGUAGES", ""))
	for _, lang := range cfg.SiteLanguages {
		if _, err := language.Parse(lang); err != nil {
			return nil, fmt.Errorf("DM_SITE_LANGUAGES: некорректный код языка %q", lang)
		}
	}

	// --- Кэш файлов ---

	cfg.CacheMaxSize, err = getEnvInt("DM_CACHE_MAX_SIZE", 10000)
	if err != nil {
		return nil, fmt.Errorf("DM_CACHE_MAX_SIZE: %w", err)
	}
	if cfg.CacheMaxSize < 1 {
		return nil, fmt.Errorf("DM_CACHE_MAX_SIZE: значение должно быть > 0")
	}
	cfg.CacheTTL, err = getEnvDuration("DM_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("DM_CACHE_TTL: %w", err)
	}

	// --- Мониторинг зависимостей ---

	cfg.DephealthGroup = getEnvDefault("DM_DEPHEALTH_GROUP", "documents")
	cfg.DephealthCheckInterval, err = getEnvDuration("DM_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DM_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}
	cfg.DephealthIsEntry, err = getEnvBool("DM_DEPHEALTH_ISENTRY", false)
	if err != nil {
		return nil, fmt.Errorf("DM_DEPHEALTH_ISENTRY: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("DM_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DM_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// MigrationURL возвращает URL для golang-migrate (драйвер pgx5).
func (c *Config) MigrationURL() string {
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

// DatabaseURL возвращает URL PostgreSQL без пароля (для лейблов topologymetrics).
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:   "/" + c.DBName,
	}
	return u.String()
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

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	if d <= 0 {
		return 0, fmt.Errorf("значение должно быть > 0")
	}
	return d, nil
}

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

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пробелы вокруг элементов убираются, пустые элементы игнорируются.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
