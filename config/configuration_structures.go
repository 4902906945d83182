package config

import "time"

type DatabaseConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	Local     bool   `yaml:"local"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

type JWTConfig struct {
	SecretKey       string `yaml:"secret_key"`
	AccessTokenTTL  string `yaml:"access_token_ttl"`
	RefreshTokenTTL string `yaml:"refresh_token_ttl"`
}

type WebhookConfig struct {
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"`
}

// ShareConfig : параметры ссылок на подписание
type ShareConfig struct {
	PublicBaseURL string `yaml:"public_base_url"`
	// TokenTTL : "0" или пустая строка отключает истечение по времени
	TokenTTL string `yaml:"token_ttl"`
}

type UploadConfig struct {
	MaxSizeBytes int64 `yaml:"max_size_bytes"`
}

// TTL : время жизни кэша Redis и pre-signed ссылок S3 в секундах
type TTL struct {
	S3AndRedis int `yaml:"s3_and_redis"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TokenLifetime : 0 означает отсутствие ограничения по времени
func (c ShareConfig) TokenLifetime() time.Duration {
	if c.TokenTTL == "" {
		return 0
	}
	d, err := time.ParseDuration(c.TokenTTL)
	if err != nil {
		return 0
	}
	return d
}

func (t TTL) Duration() time.Duration {
	return time.Duration(t.S3AndRedis) * time.Second
}

func (c WebhookConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}
