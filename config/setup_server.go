package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	DatabaseConfig DatabaseConfig `yaml:"databaseConfig"`
	RedisConfig    RedisConfig    `yaml:"redisConfig"`
	ServerAddr     string         `yaml:"serverAddr"`
	S3Config       S3Config       `yaml:"s3Config"`
	JWT            JWTConfig      `yaml:"jwt"`
	Webhook        WebhookConfig  `yaml:"webhook"`
	Share          ShareConfig    `yaml:"share"`
	Upload         UploadConfig   `yaml:"upload"`
	TTL            TTL            `yaml:"TTL"`
	Log            LogConfig      `yaml:"log"`
}

// envOverrides : переменные окружения, которые перекрывают значения из config.yaml
var envOverrides = map[string]func(cfg *AppConfig, value string){
	"SIGNVAULT_SERVER_ADDR":     func(cfg *AppConfig, v string) { cfg.ServerAddr = v },
	"SIGNVAULT_DATABASE_DSN":    func(cfg *AppConfig, v string) { cfg.DatabaseConfig.DSN = v },
	"SIGNVAULT_REDIS_ADDR":      func(cfg *AppConfig, v string) { cfg.RedisConfig.Addr = v },
	"SIGNVAULT_REDIS_PASSWORD":  func(cfg *AppConfig, v string) { cfg.RedisConfig.Password = v },
	"SIGNVAULT_JWT_SECRET":      func(cfg *AppConfig, v string) { cfg.JWT.SecretKey = v },
	"SIGNVAULT_S3_BUCKET":       func(cfg *AppConfig, v string) { cfg.S3Config.Bucket = v },
	"SIGNVAULT_S3_ENDPOINT":     func(cfg *AppConfig, v string) { cfg.S3Config.Endpoint = v },
	"SIGNVAULT_S3_ACCESS_KEY":   func(cfg *AppConfig, v string) { cfg.S3Config.AccessKey = v },
	"SIGNVAULT_S3_SECRET_KEY":   func(cfg *AppConfig, v string) { cfg.S3Config.SecretKey = v },
	"SIGNVAULT_WEBHOOK_URL":     func(cfg *AppConfig, v string) { cfg.Webhook.URL = v },
	"SIGNVAULT_PUBLIC_BASE_URL": func(cfg *AppConfig, v string) { cfg.Share.PublicBaseURL = v },
	"SIGNVAULT_LOG_LEVEL":       func(cfg *AppConfig, v string) { cfg.Log.Level = v },
}

// LoadConfig : читает config.yaml, подгружает .env (если есть) и применяет переменные окружения
func LoadConfig(path string) (*AppConfig, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения конфигурации %s: %w", path, err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(file, cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("ошибка загрузки .env: %w", err)
	}
	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		ServerAddr: ":8080",
		JWT: JWTConfig{
			AccessTokenTTL:  "15m",
			RefreshTokenTTL: "720h",
		},
		Webhook: WebhookConfig{Timeout: "5s"},
		Share: ShareConfig{
			PublicBaseURL: "http://localhost:5173",
			TokenTTL:      "168h",
		},
		Upload: UploadConfig{MaxSizeBytes: 10 << 20},
		TTL:    TTL{S3AndRedis: 900},
		Log:    LogConfig{Level: "info", Format: "json"},
	}
}

func applyEnv(cfg *AppConfig) {
	for key, apply := range envOverrides {
		if value, ok := os.LookupEnv(key); ok && value != "" {
			apply(cfg, value)
		}
	}
}

func (cfg *AppConfig) validate() error {
	if cfg.JWT.SecretKey == "" {
		return errors.New("jwt.secret_key обязателен")
	}
	for name, value := range map[string]string{
		"jwt.access_token_ttl":  cfg.JWT.AccessTokenTTL,
		"jwt.refresh_token_ttl": cfg.JWT.RefreshTokenTTL,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("неверный формат %s: %w", name, err)
		}
	}
	if cfg.Share.TokenTTL != "" {
		d, err := time.ParseDuration(cfg.Share.TokenTTL)
		if err != nil || d < 0 {
			return fmt.Errorf("неверный формат share.token_ttl: %q", cfg.Share.TokenTTL)
		}
	}
	if cfg.Upload.MaxSizeBytes <= 0 {
		return errors.New("upload.max_size_bytes должен быть больше нуля")
	}
	cfg.Share.PublicBaseURL = strings.TrimRight(cfg.Share.PublicBaseURL, "/")
	return nil
}

func SetupServer(serverAddress string) (*http.Server, *chi.Mux) {
	router := chi.NewRouter()
	server := &http.Server{
		Addr:              serverAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return server, router
}

func SetupDatabase(cfg *DatabaseConfig) (*Database, error) {
	return NewDatabaseConnection("postgres", cfg)
}

func SetupRedis(cfg *RedisConfig) (*RedisClient, error) {
	return NewRedisClient(cfg)
}
