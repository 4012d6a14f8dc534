package config

// Redis backs the HTTP response cache of the public category endpoints. If
// the server cannot be reached at startup, NewRedisClient returns an error
// and callers should degrade gracefully by disabling the cache.

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// RedisConfig holds the connection settings of the cache server.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TLS      bool
}

func setRedisDefaults(v *viper.Viper) {
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_tls", false)
}

// loadRedis reads REDIS_HOST and REDIS_PORT, or the REDIS_ADDR host:port
// shorthand; host/port take precedence when both are set.
func loadRedis(v *viper.Viper) RedisConfig {
	addr := v.GetString("redis_addr")
	host, port := v.GetString("redis_host"), v.GetString("redis_port")
	if host != "" && port != "" {
		addr = host + ":" + port
	}
	if addr == "" {
		addr = "localhost:6379"
	}
	return RedisConfig{
		Addr:     addr,
		Password: v.GetString("redis_password"),
		DB:       v.GetInt("redis_db"),
		TLS:      v.GetBool("redis_tls"),
	}
}

// NewRedisClient connects to Redis and pings it with a short timeout.
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	var tlsConf *tls.Config
	if cfg.TLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      cfg.Addr,
		Password:  cfg.Password,
		DB:        cfg.DB,
		TLSConfig: tlsConf,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("config: redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}
