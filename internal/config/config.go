package config

import (
	"flag"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Варианты хранилища файлов.
const (
	BlobBackendFS     = "fs"
	BlobBackendDB     = "db"
	BlobBackendGridFS = "gridfs"
	BlobBackendS3     = "s3"
)

type Config struct {
	// Server-side settings
	DatabaseDSN   string        `env:"DATABASE_URI"`
	MongoDatabase string        `env:"MONGO_DATABASE" envDefault:"notekeeper"`
	AuthSecret    string        `env:"AUTH_SECRET"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"1h"`
	UploadDir     string        `env:"UPLOAD_DIR" envDefault:"uploads"`
	BlobBackend   string        `env:"BLOB_BACKEND"`
	BlobMaxSizeMB int           `env:"BLOB_MAX_MB" envDefault:"50"`
	CalendarTZ    string        `env:"CALENDAR_TZ"`
	FrontendURL   string        `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	S3Bucket    string `env:"S3_BUCKET"`
	S3Region    string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM"`

	// Shared settings
	BaseURL     string `env:"BASE_URL"`
	EnableHTTPS bool   `env:"ENABLE_HTTPS"`

	// Client-side settings
	ServerURL string `env:"-"`
	TokenFile string `env:"TOKEN_FILE"`
	Version   bool   `env:"-"` // show client version and exit (flag only)
}

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	// flags работают ТОЛЬКО если переменные из env не заданы
	// Server flags
	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "строка подключения к БД (postgres://, mongodb:// или путь к SQLite)")
	flag.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "секрет для подписи JWT")
	flag.StringVar(&cfg.UploadDir, "upload-dir", cfg.UploadDir, "каталог для загруженных файлов")
	flag.StringVar(&cfg.BlobBackend, "blob", cfg.BlobBackend, "хранилище файлов: fs, db, gridfs, s3")
	// Shared/client flags
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "base URL of the NoteKeeper server (host:port)")
	flag.BoolVar(&cfg.EnableHTTPS, "https", cfg.EnableHTTPS, "enable HTTPS (client: prefer https scheme for BaseURL)")
	// Client flags
	flag.StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "path to auth token file (client)")
	flag.BoolVar(&cfg.Version, "version", cfg.Version, "Show client version and exit")

	flag.Parse()

	// Defaults
	if cfg.AuthSecret == "" {
		cfg.AuthSecret = "dev-secret-key"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	if cfg.BlobMaxSizeMB <= 0 {
		cfg.BlobMaxSizeMB = 50
	}
	cfg.BlobBackend = resolveBlobBackend(cfg.BlobBackend, cfg.DatabaseDSN)

	// validate BaseURL: must be in "address:port" (no scheme, no path). Otherwise use default.
	hostPortRe := regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = "localhost:8081"
	}

	if cfg.EnableHTTPS {
		cfg.ServerURL = "https://" + cfg.BaseURL
	} else {
		cfg.ServerURL = "http://" + cfg.BaseURL
	}

	// Fill client defaults if empty
	if cfg.TokenFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir, _ = os.UserHomeDir()
		}
		cfg.TokenFile = filepath.Join(dir, "notekeeper", "token")
	}

	return cfg
}

// BlobMaxBytes: лимит размера загружаемого файла в байтах.
func (c *Config) BlobMaxBytes() int64 {
	return int64(c.BlobMaxSizeMB) << 20
}

// Location: часовой пояс для группировки календаря. При неизвестной зоне берётся локальное время сервера.
func (c *Config) Location() *time.Location {
	if c.CalendarTZ == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.CalendarTZ)
	if err != nil {
		return time.Local
	}
	return loc
}

func resolveBlobBackend(backend, dsn string) string {
	switch backend {
	case BlobBackendFS, BlobBackendDB, BlobBackendGridFS, BlobBackendS3:
		if backend == BlobBackendGridFS && !isMongo(dsn) {
			return BlobBackendFS
		}
		return backend
	}
	if isMongo(dsn) {
		return BlobBackendGridFS
	}
	return BlobBackendFS
}

func isMongo(dsn string) bool {
	return regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(dsn)
}
