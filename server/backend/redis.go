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

package backend

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/croessner/honeyauth/server/definitions"
	"github.com/croessner/honeyauth/server/errors"
	"github.com/croessner/honeyauth/server/log"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/redis/go-redis/v9"
)

// RedisUserDBKey is appended to the configured prefix. The hash maps usernames to password rules as used in the
// third field of a userdb line.
const RedisUserDBKey = "userdb"

// Redis looks up the password rule of a user in a Redis hash.
type Redis struct {
	client redis.UniversalClient
	key    string
	logger kitlog.Logger
}

// NewRedis is the Factory of the redis backend.
func NewRedis(deps Deps) (Backend, error) {
	if deps.Redis == nil {
		return nil, errors.ErrRedisBackend.WithDetail("no redis client")
	}

	return &Redis{
		client: deps.Redis,
		key:    deps.Cfg.GetRedis().GetPrefix() + RedisUserDBKey,
		logger: log.OrDefault(deps.Logger),
	}, nil
}

// CheckLogin implements Backend.
func (r *Redis) CheckLogin(ctx context.Context, username string, password string, _ string) bool {
	rule, err := r.client.HGet(ctx, r.key, username).Result()
	if err != nil {
		if !stderrors.Is(err, redis.Nil) {
			level.Error(r.logger).Log(
				definitions.LogKeyMsg, "redis lookup failed",
				definitions.LogKeyUsername, username,
				definitions.LogKeyError, errors.ErrRedisBackend.WithDetail(err.Error()),
			)
		}

		return false
	}

	allow := true

	if strings.HasPrefix(rule, "!") {
		allow = false
		rule = strings.TrimPrefix(rule, "!")
	}

	passwordMatcher, err := parseMatcher(rule, true)
	if err != nil {
		level.Warn(r.logger).Log(
			definitions.LogKeyMsg, "invalid password rule in redis",
			definitions.LogKeyUsername, username,
			definitions.LogKeyError, err,
		)

		return false
	}

	return passwordMatcher.match(password) && allow
}
