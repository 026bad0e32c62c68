package redisx

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/memberhub-backend/internal/platform/envutil"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

func ConfigFromEnv() Config {
	return Config{
		Addr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       envutil.Int("REDIS_DB", 0),
		Prefix:   envutil.String("REDIS_KEY_PREFIX", "memberhub"),
	}
}

// New dials and pings redis. An empty Addr returns a nil client, and callers treat that as
// redis being disabled.
func New(log *logger.Logger, cfg Config) (*goredis.Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.Addr == "" {
		log.Warn("REDIS_ADDR not set; rate limiting and webhook dedup disabled")
		return nil, nil
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Info("Redis connected", "addr", cfg.Addr, "db", cfg.DB)
	return rdb, nil
}

func key(prefix string, parts ...string) string {
	all := make([]string, 0, len(parts)+1)
	if prefix != "" {
		all = append(all, prefix)
	}
	all = append(all, parts...)
	return strings.Join(all, ":")
}
