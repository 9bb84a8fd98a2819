// Package config, uygulamanın tüm konfigürasyonunu merkezi olarak yönetir.
// Environment variable'lardan okur, .env dosyasını da destekler.
//
// Alanlar struct tag'leri ile tanımlanır (Netflix/go-env): her alan hangi
// env variable'dan okunacağını ve varsayılan değerini kendisi taşır.
package config

import (
	"fmt"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// Config, uygulamanın tüm konfigürasyon değerlerini taşır.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Upload    UploadConfig
	RateLimit RateLimitConfig
	WS        WSConfig
	Telemetry TelemetryConfig
}

// ServerConfig, HTTP server ayarları.
type ServerConfig struct {
	Host           string `env:"SERVER_HOST,default=0.0.0.0"`
	Port           int    `env:"SERVER_PORT,default=9090"`
	AllowedOrigins string `env:"CORS_ALLOWED_ORIGINS,default=*"` // virgülle ayrılmış liste
}

// DatabaseConfig, SQLite database ayarları.
type DatabaseConfig struct {
	Path string `env:"DATABASE_PATH,default=./data/dmline.db"` // SQLite dosya yolu
}

// JWTConfig, JWT token ayarları.
type JWTConfig struct {
	Secret            string `env:"JWT_SECRET"` // Token imzalama anahtarı, GİZLİ TUTULMALI
	AccessTokenExpiry int    `env:"JWT_ACCESS_EXPIRY_MINUTES,default=60"`
}

// UploadConfig, dosya yükleme ayarları.
type UploadConfig struct {
	Dir     string `env:"UPLOAD_DIR,default=./data/uploads"`
	MaxSize int64  `env:"UPLOAD_MAX_SIZE,default=26214400"` // 25MB
}

// RateLimitConfig, login ve mesaj gönderme limitleri.
type RateLimitConfig struct {
	LoginMaxAttempts int           `env:"LOGIN_MAX_ATTEMPTS,default=5"`
	LoginWindow      time.Duration `env:"LOGIN_WINDOW,default=5m"`
	LoginLockout     time.Duration `env:"LOGIN_LOCKOUT,default=15m"`
	MessagesPerBurst int           `env:"MESSAGE_BURST,default=10"`
	MessageWindow    time.Duration `env:"MESSAGE_WINDOW,default=10s"`
	MessageCooldown  time.Duration `env:"MESSAGE_COOLDOWN,default=5s"`
}

// WSConfig, push kanalı ayarları.
type WSConfig struct {
	SendBuffer int `env:"WS_SEND_BUFFER,default=256"` // client başına bekleyen event sayısı
}

// TelemetryConfig, OTLP trace export ayarları. Endpoint boşsa span'ler hiçbir yere gönderilmez.
type TelemetryConfig struct {
	Endpoint    string `env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"` // ör: http://localhost:4318/v1/traces
	ServiceName string `env:"OTEL_SERVICE_NAME,default=dmline"`
}

// Load, environment variable'lardan Config oluşturur.
// .env dosyası varsa önce onu yükler (development kolaylığı için).
func Load() (*Config, error) {
	// .env yoksa hata vermez; production'da gerçek env variable'lar kullanılır.
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if cfg.WS.SendBuffer <= 0 {
		return nil, fmt.Errorf("WS_SEND_BUFFER must be positive, got %d", cfg.WS.SendBuffer)
	}

	return &cfg, nil
}

// Origins, CORS_ALLOWED_ORIGINS değerini listeye çevirir.
func (c *ServerConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Addr, HTTP server'ın dinleyeceği adresi döner (ör: "0.0.0.0:9090").
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
