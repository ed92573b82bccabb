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

package config

import (
	"fmt"
	"time"

	"github.com/croessner/honeyauth/server/definitions"
)

// UserDBSection configures the rule file backend.
type UserDBSection struct {
	Path string `mapstructure:"path" validate:"omitempty,file"`
}

func (u *UserDBSection) String() string {
	if u == nil {
		return "<nil>"
	}

	return fmt.Sprintf("{Path: %s}", u.Path)
}

// GetPath returns the rule file path. An empty path selects the built-in rules.
func (u *UserDBSection) GetPath() string {
	if u == nil {
		return ""
	}

	return u.Path
}

// RandomSection configures the backend that accepts after a random number of attempts.
type RandomSection struct {
	MinTry   int           `mapstructure:"min_try" validate:"omitempty,min=1"`
	MaxTry   int           `mapstructure:"max_try" validate:"omitempty,min=1"`
	MaxCache time.Duration `mapstructure:"max_cache" validate:"omitempty,min=1s"`
}

func (r *RandomSection) String() string {
	if r == nil {
		return "<nil>"
	}

	return fmt.Sprintf("{MinTry: %d, MaxTry: %d, MaxCache: %s}", r.MinTry, r.MaxTry, r.MaxCache)
}

func (r *RandomSection) GetMinTry() int {
	if r == nil || r.MinTry == 0 {
		return definitions.DefaultRandomMinTry
	}

	return r.MinTry
}

func (r *RandomSection) GetMaxTry() int {
	if r == nil || r.MaxTry == 0 {
		return definitions.DefaultRandomMaxTry
	}

	return r.MaxTry
}

func (r *RandomSection) GetMaxCache() time.Duration {
	if r == nil || r.MaxCache == 0 {
		return definitions.DefaultRandomMaxCache
	}

	return r.MaxCache
}

// RedisSection configures the Redis connection shared by the redis backend and the redis audit sink.
type RedisSection struct {
	Address  string `mapstructure:"address" validate:"omitempty,hostname_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database int    `mapstructure:"database" validate:"omitempty,min=0"`
	Prefix   string `mapstructure:"prefix"`
	PoolSize int    `mapstructure:"pool_size" validate:"omitempty,min=1"`
	TLS      bool   `mapstructure:"tls"`
}

func (r *RedisSection) String() string {
	if r == nil {
		return "<nil>"
	}

	return fmt.Sprintf("{Address: %s, Username: %s, Database: %d, Prefix: %s, TLS: %t}",
		r.Address, r.Username, r.Database, r.Prefix, r.TLS)
}

func (r *RedisSection) GetAddress() string {
	if r == nil || r.Address == "" {
		return definitions.DefaultRedisAddress
	}

	return r.Address
}

func (r *RedisSection) GetPrefix() string {
	if r == nil || r.Prefix == "" {
		return definitions.DefaultRedisPrefix
	}

	return r.Prefix
}

// AuditSection selects the audit sinks.
type AuditSection struct {
	Sinks        []string `mapstructure:"sinks" validate:"omitempty,dive,oneof=log json redis metrics"`
	JSONFile     string   `mapstructure:"json_file"`
	RedisChannel string   `mapstructure:"redis_channel"`
}

func (a *AuditSection) String() string {
	if a == nil {
		return "<nil>"
	}

	return fmt.Sprintf("{Sinks: %v, JSONFile: %s, RedisChannel: %s}", a.Sinks, a.JSONFile, a.RedisChannel)
}

// GetSinks returns the configured sinks. Without configuration, records go to the process log and to metrics.
func (a *AuditSection) GetSinks() []string {
	if a == nil || len(a.Sinks) == 0 {
		return []string{definitions.SinkLog, definitions.SinkMetrics}
	}

	return a.Sinks
}

// HasSink reports whether the named sink is enabled.
func (a *AuditSection) HasSink(name string) bool {
	for _, sink := range a.GetSinks() {
		if sink == name {
			return true
		}
	}

	return false
}

func (a *AuditSection) GetJSONFile() string {
	if a == nil {
		return ""
	}

	return a.JSONFile
}

func (a *AuditSection) GetRedisChannel() string {
	if a == nil || a.RedisChannel == "" {
		return definitions.DefaultAuditChannel
	}

	return a.RedisChannel
}
