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

package audit

import (
	"fmt"

	"github.com/croessner/honeyauth/server/config"
	"github.com/croessner/honeyauth/server/definitions"
	"github.com/croessner/honeyauth/server/errors"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/redis/go-redis/v9"
)

// New builds the sinks listed in audit.sinks. The redis sink requires redisClient.
func New(cfg *config.File, logger kitlog.Logger, redisClient redis.UniversalClient) (*MultiSink, error) {
	multi := NewMultiSink(logger)
	auditCfg := cfg.GetAudit()

	for _, name := range auditCfg.GetSinks() {
		switch name {
		case definitions.SinkLog:
			multi.Add(name, NewLogSink(logger))
		case definitions.SinkJSON:
			if auditCfg.GetJSONFile() == "" {
				_ = multi.Close()

				return nil, fmt.Errorf("%w: audit.json_file is required for the json sink", errors.ErrUnknownSink)
			}

			sink, err := NewJSONSink(auditCfg.GetJSONFile())
			if err != nil {
				_ = multi.Close()

				return nil, err
			}

			multi.Add(name, sink)
		case definitions.SinkRedis:
			if redisClient == nil {
				_ = multi.Close()

				return nil, fmt.Errorf("%w: no redis client for the redis sink", errors.ErrUnknownSink)
			}

			multi.Add(name, NewRedisSink(redisClient, cfg.GetRedis().GetPrefix(), auditCfg.GetRedisChannel()))
		case definitions.SinkMetrics:
			multi.Add(name, MetricsSink{})
		default:
			_ = multi.Close()

			return nil, fmt.Errorf("%w: %s", errors.ErrUnknownSink, name)
		}
	}

	level.Debug(multi.logger).Log(definitions.LogKeyMsg, "audit sinks ready", "sinks", fmt.Sprintf("%v", auditCfg.GetSinks()))

	return multi, nil
}

// NeedsRedis reports whether the configuration needs a Redis client.
func NeedsRedis(cfg *config.File) bool {
	return cfg.GetAudit().HasSink(definitions.SinkRedis) ||
		definitions.ParseBackend(cfg.GetHoneypot().GetAuthClass()) == definitions.BackendRedis
}
