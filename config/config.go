package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port     string         `yaml:"port"`
	LogLevel string         `yaml:"log_level"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	RedisURL string         `yaml:"redis_url"`
	R2       R2Config       `yaml:"r2"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	Google   GoogleOAuth    `yaml:"google"`
	Map      MapConfig      `yaml:"map"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Port     string `yaml:"port"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
}

type R2Config struct {
	AccountID       string `yaml:"account_id"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	BucketName      string `yaml:"bucket_name"`
	PublicURL       string `yaml:"public_url"`
	Region          string `yaml:"region"`
}

func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type GoogleOAuth struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// MapConfig holds the viewport used when the viewer's position is unknown.
type MapConfig struct {
	DefaultLatitude  float64 `yaml:"default_latitude"`
	DefaultLongitude float64 `yaml:"default_longitude"`
	DefaultZoom      int     `yaml:"default_zoom"`
	LocatedZoom      int     `yaml:"located_zoom"`
}

func defaults() *Config {
	return &Config{
		Port:     "8080",
		LogLevel: "info",
		R2: R2Config{
			BucketName: "scam-images",
			Region:     "auto",
		},
		Gemini: GeminiConfig{Model: "gemini-2.0-flash"},
		Map: MapConfig{
			DefaultLatitude:  40.0,
			DefaultLongitude: -74.5,
			DefaultZoom:      9,
			LocatedZoom:      13,
		},
	}
}

// Load reads .env (if present), then the optional YAML file named by CONFIG_FILE,
// then applies environment overrides.
func Load() (*Config, error) {
	// A missing .env is normal in production.
	_ = godotenv.Load()

	cfg := defaults()
	if filename := os.Getenv("CONFIG_FILE"); filename != "" {
		f, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", filename, err)
		}
		if err := yaml.Unmarshal(f, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", filename, err)
		}
	}

	override(&cfg.Port, "PORT")
	override(&cfg.LogLevel, "LOG_LEVEL")
	override(&cfg.Database.URL, "DATABASE_URL")
	override(&cfg.Database.Host, "DB_HOST")
	override(&cfg.Database.User, "DB_USER")
	override(&cfg.Database.Password, "DB_PASSWORD")
	override(&cfg.Database.Name, "DB_NAME")
	override(&cfg.Database.Port, "DB_PORT")
	override(&cfg.JWT.Secret, "JWT_SECRET")
	override(&cfg.RedisURL, "REDIS_URL")
	override(&cfg.R2.AccountID, "CLOUDFLARE_ACCOUNT_ID")
	override(&cfg.R2.AccessKeyID, "CLOUDFLARE_ACCESS_KEY_ID")
	override(&cfg.R2.SecretAccessKey, "CLOUDFLARE_SECRET_ACCESS_KEY")
	override(&cfg.R2.BucketName, "CLOUDFLARE_BUCKET_NAME")
	override(&cfg.R2.PublicURL, "CLOUDFLARE_PUBLIC_URL")
	override(&cfg.Gemini.APIKey, "GOOGLE_API_KEY")
	override(&cfg.Gemini.Model, "GEMINI_MODEL")
	override(&cfg.Google.ClientID, "GOOGLE_CLIENT_ID")
	override(&cfg.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	override(&cfg.Google.RedirectURL, "GOOGLE_REDIRECT_URL")
	if err := overrideFloat(&cfg.Map.DefaultLatitude, "MAP_DEFAULT_LATITUDE"); err != nil {
		return nil, err
	}
	if err := overrideFloat(&cfg.Map.DefaultLongitude, "MAP_DEFAULT_LONGITUDE"); err != nil {
		return nil, err
	}

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

// DSN returns the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		d.Host, d.User, d.Password, d.Name, d.Port)
}

func override(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideFloat(dst *float64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}
