package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"Community_Portal/internal/pkg"

	"github.com/joho/godotenv"
)

// 未配置时的 JWT 密钥，只能用于本地 sqlite 开发
const (
	DefaultJWTAccessSecret  = "secret-key"
	DefaultJWTRefreshSecret = "refresh-key"
)

var ErrDefaultSecrets = errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must be set outside sqlite development")

type Config struct {
	Addr             string
	DB               DBConfig
	Redis            RedisConfig
	JWTAccessSecret  string
	JWTRefreshSecret string
	SMTP             pkg.SMTPConfig
	Kafka            pkg.KafkaConfig
	UploadDir        string
	CORSOrigins      []string
	LogLevel         string
	AllowAdminSignup bool
}

type DBConfig struct {
	Driver string // mysql | postgres | sqlite
	DSN    string
}

// RedisConfig Addr 为空时使用内存 session 存储
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load 先读取 .env（不存在则忽略），再从环境变量构建配置
func Load(files ...string) Config {
	_ = godotenv.Load(files...)
	return FromEnv()
}

func FromEnv() Config {
	return Config{
		Addr: getEnv("HTTP_ADDR", ":8080"),
		DB: DBConfig{
			Driver: getEnv("DB_DRIVER", "mysql"),
			DSN:    getEnv("DB_DSN", "user:password@tcp(127.0.0.1:3306)/community?charset=utf8mb4&parseTime=True"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWTAccessSecret:  getEnv("JWT_ACCESS_SECRET", DefaultJWTAccessSecret),
		JWTRefreshSecret: getEnv("JWT_REFRESH_SECRET", DefaultJWTRefreshSecret),
		SMTP: pkg.SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("SMTP_FROM", "NoReply <no-reply@example.com>"),
		},
		Kafka: pkg.KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_TOPIC", "portal.notifications"),
		},
		UploadDir:        getEnv("UPLOAD_DIR", "uploads"),
		CORSOrigins:      splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		AllowAdminSignup: !strings.EqualFold(getEnv("ALLOW_ADMIN_SIGNUP", "true"), "false"),
	}
}

// DefaultSecrets 任一 JWT 密钥仍是默认值
func (c Config) DefaultSecrets() bool {
	return c.JWTAccessSecret == DefaultJWTAccessSecret || c.JWTRefreshSecret == DefaultJWTRefreshSecret
}

// Validate 非 sqlite 部署不允许使用默认密钥启动
func (c Config) Validate() error {
	if c.DefaultSecrets() && c.DB.Driver != "sqlite" {
		return ErrDefaultSecrets
	}
	return nil
}
