// Copyright (C) 2024 Christian Rößner
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package rediscli

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/croessner/honeyauth/server/config"
	"github.com/croessner/honeyauth/server/definitions"
	"github.com/croessner/honeyauth/server/log"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

// RedisLogger forwards internal go-redis messages to the application logger.
type RedisLogger struct {
	logger kitlog.Logger
}

// Printf implements the go-redis internal logging interface.
func (r *RedisLogger) Printf(_ context.Context, format string, values ...any) {
	level.Info(log.OrDefault(r.logger)).Log(definitions.LogKeyMsg, fmt.Sprintf(format, values...), "component", "redis")
}

// NewRedisLogger returns a RedisLogger writing to logger.
func NewRedisLogger(logger kitlog.Logger) *RedisLogger {
	return &RedisLogger{logger: logger}
}

// redisTLSOptions returns a TLS configuration if TLS is enabled for the Redis connection.
func redisTLSOptions(redisCfg *config.RedisSection) *tls.Config {
	if redisCfg == nil || !redisCfg.TLS {
		return nil
	}

	return &tls.Config{MinVersion: tls.VersionTLS12}
}

// NewClient creates a Redis client from the redis section. The caller owns the client and must close it.
func NewClient(redisCfg *config.RedisSection) redis.UniversalClient {
	options := &redis.Options{
		Addr:      redisCfg.GetAddress(),
		TLSConfig: redisTLSOptions(redisCfg),
	}

	if redisCfg != nil {
		options.Username = redisCfg.Username
		options.Password = redisCfg.Password
		options.DB = redisCfg.Database
		options.PoolSize = redisCfg.PoolSize
	}

	return redis.NewClient(options)
}

// InstrumentTracing adds OpenTelemetry spans to every command of client. It is a no-op unless tracing is enabled.
func InstrumentTracing(client redis.UniversalClient, tracingCfg *config.TracingSection) error {
	if client == nil || !tracingCfg.IsEnabled() {
		return nil
	}

	return redisotel.InstrumentTracing(client, redisotel.WithDBStatement(false))
}
