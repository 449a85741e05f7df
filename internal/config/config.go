package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr               string
	LogMode            string
	RateLimitPerMinute int

	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	BucketName      string
	PublicURL       string
	ImageMaxWidth   int

	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	ActivityCacheTTL time.Duration
}

// Load reads an optional .env file and then the process environment.
// The second return value reports whether a .env file was loaded.
func Load() (*Config, bool) {
	loaded := godotenv.Load() == nil

	cfg := &Config{
		Addr:               String("ADDR", ":3000"),
		LogMode:            String("LOG_MODE", "development"),
		RateLimitPerMinute: Int("RATE_LIMIT_PER_MINUTE", 60),

		DSN:             os.Getenv("DSN"),
		MaxOpenConns:    Int("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    Int("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: time.Duration(Int("DB_CONN_MAX_LIFETIME_MIN", 30)) * time.Minute,

		AccountID:       os.Getenv("ACCOUNT_ID"),
		AccessKeyID:     os.Getenv("ACCESS_KEY_ID"),
		AccessKeySecret: os.Getenv("ACCESS_KEY_SECRET"),
		BucketName:      os.Getenv("BUCKET_NAME"),
		PublicURL:       os.Getenv("PUBLIC_URL"),
		ImageMaxWidth:   Int("IMAGE_MAX_WIDTH", 1600),

		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          Int("REDIS_DB", 0),
		ActivityCacheTTL: time.Duration(Int("ACTIVITY_CACHE_TTL_MIN", 60)) * time.Minute,
	}
	if cfg.DSN == "" {
		cfg.DSN = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			String("FSTR_DB_HOST", "localhost"),
			String("FSTR_DB_PORT", "5432"),
			String("FSTR_DB_LOGIN", "postgres"),
			String("FSTR_DB_PASS", "password"),
			String("FSTR_DB_NAME", "pereval"),
		)
	}
	return cfg, loaded
}

func (c *Config) StorageEnabled() bool { return c.BucketName != "" }

func (c *Config) CacheEnabled() bool { return c.RedisAddr != "" }

func String(name, def string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	return v
}

func Int(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}
