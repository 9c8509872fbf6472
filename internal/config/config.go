package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Lock         LockConfig
	Dispatch     DispatchConfig
	Storage      StorageConfig
	PDF          PDFConfig
	Notification NotificationConfig
	Directory    DirectoryConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	// BodyLimitMB bounds request bodies; intake attachments travel inline.
	BodyLimitMB int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines bearer token parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// LockBackend selects the per-case lock implementation.
type LockBackend string

const (
	LockBackendRedis LockBackend = "redis"
	LockBackendLocal LockBackend = "local"
)

// LockConfig controls per-case serialization.
type LockConfig struct {
	Backend     LockBackend
	TTLSeconds  int
	WaitSeconds int
}

// DispatchConfig bounds calls to external collaborators.
type DispatchConfig struct {
	DocumentTimeoutSeconds int
	NotifyTimeoutSeconds   int
}

// StorageConfig selects where generated documents and attachments are written.
// S3 is used when Bucket is set; otherwise files go to LocalDir.
type StorageConfig struct {
	Endpoint          string
	Region            string
	Bucket            string
	AccessKeyID       string
	SecretAccessKey   string
	PublicURL         string
	PresignTTLMinutes int
	LocalDir          string
	LocalBaseURL      string
}

// PDFConfig configures headless Chrome rendering.
type PDFConfig struct {
	ChromePath     string
	PageSize       string
	TimeoutSeconds int
}

// NotificationConfig configures e-mail delivery.
type NotificationConfig struct {
	EmailFrom     string
	EmailFromName string
	ResendAPIKey  string
	// TestMode logs messages instead of sending them.
	TestMode bool
}

// DirectoryConfig points at the office roster.
type DirectoryConfig struct {
	File string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	backend := LockBackend(strings.ToLower(getEnv("LOCK_BACKEND", string(LockBackendLocal))))
	if backend != LockBackendRedis && backend != LockBackendLocal {
		return nil, fmt.Errorf("invalid LOCK_BACKEND %q", backend)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "case-workflow"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 60),
			BodyLimitMB:           getEnvAsInt("HTTP_BODY_LIMIT_MB", 16),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60*12),
		},
		Lock: LockConfig{
			Backend:     backend,
			TTLSeconds:  getEnvAsInt("LOCK_TTL_SECONDS", 120),
			WaitSeconds: getEnvAsInt("LOCK_WAIT_SECONDS", 5),
		},
		Dispatch: DispatchConfig{
			DocumentTimeoutSeconds: getEnvAsInt("DISPATCH_DOCUMENT_TIMEOUT_SECONDS", 30),
			NotifyTimeoutSeconds:   getEnvAsInt("DISPATCH_NOTIFY_TIMEOUT_SECONDS", 10),
		},
		Storage: StorageConfig{
			Endpoint:          os.Getenv("STORAGE_ENDPOINT"),
			Region:            getEnv("STORAGE_REGION", "us-east-1"),
			Bucket:            os.Getenv("STORAGE_BUCKET"),
			AccessKeyID:       os.Getenv("STORAGE_ACCESS_KEY_ID"),
			SecretAccessKey:   os.Getenv("STORAGE_SECRET_ACCESS_KEY"),
			PublicURL:         os.Getenv("STORAGE_PUBLIC_URL"),
			PresignTTLMinutes: getEnvAsInt("STORAGE_PRESIGN_TTL_MINUTES", 60*24*7),
			LocalDir:          getEnv("STORAGE_LOCAL_DIR", "data/documents"),
			LocalBaseURL:      getEnv("STORAGE_LOCAL_BASE_URL", "/files"),
		},
		PDF: PDFConfig{
			ChromePath:     os.Getenv("CHROME_PATH"),
			PageSize:       strings.ToUpper(getEnv("PDF_PAGE_SIZE", "LETTER")),
			TimeoutSeconds: getEnvAsInt("PDF_TIMEOUT_SECONDS", 25),
		},
		Notification: NotificationConfig{
			EmailFrom:     getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			EmailFromName: getEnv("NOTIFY_EMAIL_FROM_NAME", "Case Workflow"),
			ResendAPIKey:  os.Getenv("RESEND_API_KEY"),
			TestMode:      getEnvAsBool("NOTIFY_TEST_MODE", true),
		},
		Directory: DirectoryConfig{
			File: getEnv("DIRECTORY_FILE", "offices.yaml"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	return seconds(a.RequestTimeoutSeconds)
}

func (l LockConfig) TTL() time.Duration  { return seconds(l.TTLSeconds) }
func (l LockConfig) Wait() time.Duration { return seconds(l.WaitSeconds) }

func (d DispatchConfig) DocumentTimeout() time.Duration { return seconds(d.DocumentTimeoutSeconds) }
func (d DispatchConfig) NotifyTimeout() time.Duration   { return seconds(d.NotifyTimeoutSeconds) }

func (p PDFConfig) Timeout() time.Duration { return seconds(p.TimeoutSeconds) }

// UseS3 reports whether object storage is configured.
// LocalMountPath is the URL path local files are served under, taken from LocalBaseURL
// whether that is a bare path or an absolute URL.
func (s StorageConfig) LocalMountPath() string {
	mount := s.LocalBaseURL
	if u, err := url.Parse(s.LocalBaseURL); err == nil {
		mount = u.Path
	}
	return "/" + strings.Trim(mount, "/")
}

func (s StorageConfig) UseS3() bool {
	return s.Bucket != ""
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
