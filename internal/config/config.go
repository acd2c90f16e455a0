package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all the configuration for the application.
type Config struct {
	Env          string `yaml:"env" env:"ENV" env-default:"production"`
	HTTPServer   `yaml:"http_server"`
	Database     `yaml:"database"`
	URLShortener `yaml:"url_shortener"`
	Redirect     `yaml:"redirect"`
	Analytics    `yaml:"analytics"`
	Geo          `yaml:"geo"`
	Metadata     `yaml:"metadata"`
	Redis        `yaml:"redis"`
	RateLimit    `yaml:"rate_limit"`
	Auth         `yaml:"auth"`
	Logger       `yaml:"logger"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"30s"`
	AllowedOrigins  []string      `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000,http://127.0.0.1:3000"`
}

// Database driver is one of postgres, sqlite or memory.
type Database struct {
	Driver          string `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`
	Host            string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port            int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User            string `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password        string `yaml:"password" env:"DB_PASSWORD"`
	DBName          string `yaml:"dbname" env:"DB_NAME" env-default:"linklab"`
	SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
	Timezone        string `yaml:"timezone" env:"DB_TIMEZONE" env-default:"UTC"`
	SQLitePath      string `yaml:"sqlite_path" env:"DB_SQLITE_PATH" env-default:"linklab.db"`
	MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"100"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"1h"`
	AutoMigrate     bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"true"`
	LogQueries      bool   `yaml:"log_queries" env:"DB_LOG_QUERIES" env-default:"false"`
}

// URLShortener holds service-specific configuration.
type URLShortener struct {
	BaseURL        string `yaml:"base_url" env:"BASE_URL" env-default:"http://localhost:8080"`
	CodeLength     int    `yaml:"code_length" env:"CODE_LENGTH" env-default:"9"`
	MaxAliasLength int    `yaml:"max_alias_length" env:"MAX_ALIAS_LENGTH" env-default:"50"`
	// DemoDurable writes anonymous links to the database. When false they
	// live only in the process-local demo registry.
	DemoDurable bool `yaml:"demo_durable" env:"DEMO_DURABLE" env-default:"true"`
	QRSize      int  `yaml:"qr_size" env:"QR_SIZE" env-default:"200"`
}

// Redirect holds the static pages denied redirects are sent to.
type Redirect struct {
	NotFoundPath     string `yaml:"not_found_path" env:"REDIRECT_NOT_FOUND_PATH" env-default:"/404"`
	ExpiredPath      string `yaml:"expired_path" env:"REDIRECT_EXPIRED_PATH" env-default:"/expired"`
	LimitReachedPath string `yaml:"limit_reached_path" env:"REDIRECT_LIMIT_REACHED_PATH" env-default:"/limit-reached"`
	ErrorPath        string `yaml:"error_path" env:"REDIRECT_ERROR_PATH" env-default:"/error"`
}

type Analytics struct {
	Workers         int           `yaml:"workers" env:"ANALYTICS_WORKERS" env-default:"3"`
	BufferSize      int           `yaml:"buffer_size" env:"ANALYTICS_BUFFER_SIZE" env-default:"1000"`
	RetryAttempts   int           `yaml:"retry_attempts" env:"ANALYTICS_RETRY_ATTEMPTS" env-default:"3"`
	RetryDelay      time.Duration `yaml:"retry_delay" env:"ANALYTICS_RETRY_DELAY" env-default:"1s"`
	InsertTimeout   time.Duration `yaml:"insert_timeout" env:"ANALYTICS_INSERT_TIMEOUT" env-default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"ANALYTICS_SHUTDOWN_TIMEOUT" env-default:"30s"`
	// RegexesPath points at a uap-core regexes.yaml. Empty uses the built-in set.
	RegexesPath string `yaml:"regexes_path" env:"UA_REGEXES_PATH"`
}

type Geo struct {
	Enabled  bool          `yaml:"enabled" env:"GEO_ENABLED" env-default:"true"`
	Endpoint string        `yaml:"endpoint" env:"GEO_ENDPOINT" env-default:"https://ipapi.co/%s/json/"`
	Timeout  time.Duration `yaml:"timeout" env:"GEO_TIMEOUT" env-default:"2s"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"GEO_CACHE_TTL" env-default:"24h"`
}

type Metadata struct {
	Enabled bool          `yaml:"enabled" env:"METADATA_ENABLED" env-default:"true"`
	Timeout time.Duration `yaml:"timeout" env:"METADATA_TIMEOUT" env-default:"5s"`
}

type Redis struct {
	Enabled  bool          `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Addr     string        `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	TTL      time.Duration `yaml:"ttl" env:"REDIS_TTL" env-default:"10m"`
}

// RateLimit applies per client IP to anonymous link creation.
type RateLimit struct {
	RPS   float64 `yaml:"rps" env:"RATE_LIMIT_RPS" env-default:"1"`
	Burst int     `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"5"`
	// TrustProxy keys buckets on X-Forwarded-For / X-Real-IP. Enable only
	// behind a proxy that overwrites those headers.
	TrustProxy bool `yaml:"trust_proxy" env:"RATE_LIMIT_TRUST_PROXY" env-default:"false"`
}

type Auth struct {
	JWTSecret            string        `yaml:"jwt_secret" env:"JWT_SECRET" env-default:"change-me"`
	AccessTokenDuration  time.Duration `yaml:"access_token_duration" env:"JWT_ACCESS_TOKEN_DURATION" env-default:"15m"`
	RefreshTokenDuration time.Duration `yaml:"refresh_token_duration" env:"JWT_REFRESH_TOKEN_DURATION" env-default:"168h"`
	Issuer               string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"LinkLab-Backend"`
	BcryptCost           int           `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"12"`
}

type Logger struct {
	FilePath   string `yaml:"file_path" env:"LOG_FILE_PATH"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"LOG_MAX_SIZE_MB" env-default:"100"`
	MaxAgeDays int    `yaml:"max_age_days" env:"LOG_MAX_AGE_DAYS" env-default:"7"`
	MaxBackups int    `yaml:"max_backups" env:"LOG_MAX_BACKUPS" env-default:"3"`
}

// MustLoad loads the application configuration.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Load reads CONFIG_PATH (default config/local.yml) when it exists and the
// environment otherwise. Environment variables override file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}

	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/local.yml"
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, err
		}
	} else {
		log.Println("Config file not found, using environment variables only")
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, err
		}
	}

	if cfg.URLShortener.CodeLength < 6 || cfg.URLShortener.CodeLength > 10 {
		log.Printf("code_length %d out of range [6,10], using 9", cfg.URLShortener.CodeLength)
		cfg.URLShortener.CodeLength = 9
	}

	return &cfg, nil
}
