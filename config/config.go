package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Redis     RedisConfig     `yaml:"redis"`
	Storage   StorageConfig   `yaml:"storage"`
	Odoo      OdooConfig      `yaml:"odoo"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"             env:"HOST"             env-default:"0.0.0.0"`
	Port            string        `yaml:"port"             env:"PORT"             env-default:"8080"`
	Mode            string        `yaml:"mode"             env:"GIN_MODE"         env-default:"release"`
	AllowedOrigins  string        `yaml:"allowed_origins"  env:"ALLOWED_ORIGINS"  env-default:"http://localhost:3000"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"WRITE_TIMEOUT"    env-default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
	ExportDir       string        `yaml:"export_dir"       env:"EXPORT_DIR"       env-default:"./exports"`
}

func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// Origins splits the comma separated CORS allow list.
func (s ServerConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(s.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

type DatabaseConfig struct {
	Host     string `yaml:"host"     env:"DB_HOST"     env-default:"localhost"`
	Port     string `yaml:"port"     env:"DB_PORT"     env-default:"5432"`
	User     string `yaml:"user"     env:"DB_USER"     env-default:"postgres"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	Name     string `yaml:"name"     env:"DB_NAME"     env-default:"gforms"`
	SSLMode  string `yaml:"ssl_mode" env:"DB_SSLMODE"  env-default:"disable"`
	TimeZone string `yaml:"timezone" env:"DB_TIMEZONE" env-default:"UTC"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode, d.TimeZone)
}

type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"       env:"JWT_SECRET"`
	TokenTTL       time.Duration `yaml:"token_ttl"        env:"JWT_TTL"          env-default:"24h"`
	GoogleClientID string        `yaml:"google_client_id" env:"GOOGLE_CLIENT_ID"`
}

type RateLimitConfig struct {
	PerMinute int           `yaml:"per_minute" env:"RATE_LIMIT_PER_MINUTE" env-default:"10"`
	Burst     int           `yaml:"burst"      env:"RATE_LIMIT_BURST"      env-default:"5"`
	TTL       time.Duration `yaml:"ttl"        env:"RATE_LIMIT_TTL"        env-default:"5m"`
}

// RedisConfig: an empty Addr disables the report cache.
type RedisConfig struct {
	Addr      string        `yaml:"addr"       env:"REDIS_ADDR"`
	Password  string        `yaml:"password"   env:"REDIS_PASSWORD"`
	DB        int           `yaml:"db"         env:"REDIS_DB"         env-default:"0"`
	ReportTTL time.Duration `yaml:"report_ttl" env:"REDIS_REPORT_TTL" env-default:"5m"`
}

type StorageConfig struct {
	SupabaseURL string `yaml:"supabase_url" env:"SUPABASE_URL"`
	SupabaseKey string `yaml:"supabase_key" env:"SUPABASE_KEY"`
	Bucket      string `yaml:"bucket"       env:"SUPABASE_BUCKET" env-default:"gforms"`
}

func (s StorageConfig) Enabled() bool {
	return s.SupabaseURL != "" && s.SupabaseKey != ""
}

type OdooConfig struct {
	URL      string        `yaml:"url"       env:"ODOO_URL"`
	DB       string        `yaml:"db"        env:"ODOO_DB"`
	Username string        `yaml:"username"  env:"ODOO_USERNAME"`
	Password string        `yaml:"password"  env:"ODOO_PASSWORD"`
	Model    string        `yaml:"model"     env:"ODOO_MODEL"     env-default:"x_gforms_template"`
	TokenTTL time.Duration `yaml:"token_ttl" env:"ODOO_TOKEN_TTL" env-default:"168h"`
}

func (o OdooConfig) Enabled() bool {
	return o.URL != "" && o.DB != ""
}

type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// Load reads .env (if present), then the YAML file named by CONFIG_PATH
// (if set), then the environment. Environment values win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	var cfg Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	if c.RateLimit.PerMinute <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("rate limit values must be positive")
	}
	return nil
}
