package config

import (
	"flag"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Бэкенды хранилищ клиента.
const (
	BackendSQLite = "sqlite"
	BackendFS     = "fs"
	BackendGorm   = "gorm"
	BackendMinIO  = "minio"
)

type Config struct {
	// Relay (server-side) settings
	GeminiAPIKey     string `env:"GEMINI_API_KEY"`
	GeminiModel      string `env:"GEMINI_MODEL"`
	GeminiEndpoint   string `env:"GEMINI_ENDPOINT"` // базовый URL API без версии
	GeminiAPIVersion string `env:"GEMINI_API_VERSION"`
	MaxImageMB       int    `env:"MAX_IMAGE_MB"`

	// Shared settings
	BaseURL     string `env:"BASE_URL"`
	EnableHTTPS bool   `env:"ENABLE_HTTPS"`
	LogLevel    string `env:"LOG_LEVEL"`

	// Client-side settings
	ServerURL       string        `env:"-"`
	DataDir         string        `env:"BIZCARD_DATA_DIR"`
	MetadataBackend string        `env:"METADATA_BACKEND"`
	ImageBackend    string        `env:"IMAGE_BACKEND"`
	ImageDSN        string        `env:"IMAGE_DSN"`
	BackupDebounce  time.Duration `env:"BACKUP_DEBOUNCE"`
	BackupMaxAge    time.Duration `env:"BACKUP_MAX_AGE"`
	TimeZone        string        `env:"BIZCARD_TZ"`

	MinIO MinIOConfig

	Version bool `env:"-"` // show version and exit (flag only)
}

// MinIOConfig — подключение к объектному хранилищу картинок.
type MinIOConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET_NAME"`
	UseSSL    bool   `env:"MINIO_USE_SSL"`
}

var hostPortRe = regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	// flags перекрывают env только если переданы явно: значения по умолчанию берутся из env
	// Relay flags
	flag.StringVar(&cfg.GeminiAPIKey, "gemini-key", cfg.GeminiAPIKey, "API key of the extraction model")
	flag.StringVar(&cfg.GeminiModel, "gemini-model", cfg.GeminiModel, "extraction model name")
	flag.IntVar(&cfg.MaxImageMB, "max-image-mb", cfg.MaxImageMB, "max accepted image size in MB")
	// Shared flags
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "address of the relay (host:port)")
	flag.BoolVar(&cfg.EnableHTTPS, "https", cfg.EnableHTTPS, "use https scheme for the relay")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug|info|warn|error)")
	// Client flags
	flag.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory for local card storage")
	flag.StringVar(&cfg.MetadataBackend, "metadata", cfg.MetadataBackend, "metadata backend (sqlite|fs)")
	flag.StringVar(&cfg.ImageBackend, "images", cfg.ImageBackend, "image backend (sqlite|gorm|minio)")
	flag.StringVar(&cfg.ImageDSN, "image-dsn", cfg.ImageDSN, "image DB for the gorm backend (file path or postgres:// DSN)")
	flag.DurationVar(&cfg.BackupDebounce, "backup-debounce", cfg.BackupDebounce, "delay before the auto-backup check")
	flag.StringVar(&cfg.TimeZone, "tz", cfg.TimeZone, "time zone for exported dates")
	flag.BoolVar(&cfg.Version, "version", cfg.Version, "Show version and exit")

	flag.Parse()

	cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() {
	// validate BaseURL: must be in "address:port" (no scheme, no path). Otherwise use default.
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = "localhost:8081"
	}
	if cfg.EnableHTTPS {
		cfg.ServerURL = "https://" + cfg.BaseURL
	} else {
		cfg.ServerURL = "http://" + cfg.BaseURL
	}

	if cfg.GeminiModel == "" {
		cfg.GeminiModel = "gemini-2.5-flash"
	}
	if cfg.GeminiEndpoint == "" {
		cfg.GeminiEndpoint = "https://generativelanguage.googleapis.com/"
	}
	if cfg.GeminiAPIVersion == "" {
		cfg.GeminiAPIVersion = "v1beta"
	}
	if cfg.MaxImageMB <= 0 {
		cfg.MaxImageMB = 10
	}

	if cfg.DataDir == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			cfg.DataDir = filepath.Join(dir, "BizCard")
		} else {
			home, _ := os.UserHomeDir()
			cfg.DataDir = filepath.Join(home, ".bizcard")
		}
	}
	cfg.MetadataBackend = strings.ToLower(strings.TrimSpace(cfg.MetadataBackend))
	if cfg.MetadataBackend == "" {
		cfg.MetadataBackend = BackendSQLite
	}
	cfg.ImageBackend = strings.ToLower(strings.TrimSpace(cfg.ImageBackend))
	if cfg.ImageBackend == "" {
		cfg.ImageBackend = BackendSQLite
	}
	if cfg.ImageDSN == "" {
		cfg.ImageDSN = filepath.Join(cfg.DataDir, "images.db")
	}
	if cfg.BackupDebounce <= 0 {
		cfg.BackupDebounce = 2 * time.Second
	}
	if cfg.BackupMaxAge <= 0 {
		cfg.BackupMaxAge = 24 * time.Hour
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = "Local"
	}

	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = "localhost:9000"
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = "bizcard-images"
	}
}

// DBPath — файл локальной SQLite (слоты и картинки).
func (cfg *Config) DBPath() string {
	return filepath.Join(cfg.DataDir, "bizcard.sqlite")
}

// Location разбирает TimeZone. Неизвестная зона — локальное время.
func (cfg *Config) Location() *time.Location {
	if cfg.TimeZone == "" || strings.EqualFold(cfg.TimeZone, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

// LogLevelOr возвращает уровень логирования или def, если он не задан.
func (cfg *Config) LogLevelOr(def string) string {
	if cfg.LogLevel == "" {
		return def
	}
	return cfg.LogLevel
}
