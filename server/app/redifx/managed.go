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

package redifx

import (
	"context"
	"sync"

	"github.com/croessner/honeyauth/server/app/configfx"
	"github.com/croessner/honeyauth/server/app/reloadfx"
	"github.com/croessner/honeyauth/server/audit"
	"github.com/croessner/honeyauth/server/config"
	"github.com/croessner/honeyauth/server/definitions"
	"github.com/croessner/honeyauth/server/rediscli"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// NewClientFunc builds a Redis client for a redis section.
type NewClientFunc func(redisCfg *config.RedisSection) redis.UniversalClient

// ManagedClient owns the process Redis client. The client only exists while the configuration needs one and is
// rebuilt when the redis section changes.
type ManagedClient struct {
	mu        sync.Mutex
	client    redis.UniversalClient
	section   config.RedisSection
	newClient NewClientFunc
	logger    kitlog.Logger
}

var _ reloadfx.Reloadable = (*ManagedClient)(nil)

// NewManagedClient returns an empty ManagedClient. Call Ensure to build the client.
func NewManagedClient(newClient NewClientFunc, logger kitlog.Logger) *ManagedClient {
	if newClient == nil {
		newClient = rediscli.NewClient
	}

	return &ManagedClient{newClient: newClient, logger: logger}
}

// Client returns the current client or nil.
func (m *ManagedClient) Client() redis.UniversalClient {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.client
}

// Ensure makes the client match cfg.
func (m *ManagedClient) Ensure(cfg *config.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !audit.NeedsRedis(cfg) {
		m.closeLocked()

		return nil
	}

	var section config.RedisSection
	if redisCfg := cfg.GetRedis(); redisCfg != nil {
		section = *redisCfg
	}

	if m.client != nil && section == m.section {
		return nil
	}

	client := m.newClient(&section)

	if err := rediscli.InstrumentTracing(client, cfg.GetTracing()); err != nil {
		_ = client.Close()

		return err
	}

	m.closeLocked()

	m.client = client
	m.section = section

	level.Info(m.logger).Log(definitions.LogKeyMsg, "Redis client ready", definitions.LogKeyAddress, section.GetAddress())

	return nil
}

// Close releases the client.
func (m *ManagedClient) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeLocked()
}

func (m *ManagedClient) closeLocked() {
	if m.client == nil {
		return
	}

	if err := m.client.Close(); err != nil {
		level.Warn(m.logger).Log(definitions.LogKeyMsg, "Closing Redis client failed", definitions.LogKeyError, err)
	}

	m.client = nil
	m.section = config.RedisSection{}
}

// Name returns the name of the reloadable.
func (m *ManagedClient) Name() string {
	return "redis"
}

// Order places the client before the components using it.
func (m *ManagedClient) Order() int {
	return 20
}

// ApplyConfig rebuilds the client if needed.
func (m *ManagedClient) ApplyConfig(_ context.Context, snap configfx.Snapshot) error {
	return m.Ensure(snap.File)
}

// Module provides the ManagedClient and registers it for reloads.
func Module() fx.Option {
	return fx.Module("redifx",
		fx.Provide(
			func(lc fx.Lifecycle, provider configfx.Provider, logger kitlog.Logger) (*ManagedClient, error) {
				managed := NewManagedClient(nil, logger)

				if err := managed.Ensure(provider.Current().File); err != nil {
					return nil, err
				}

				lc.Append(fx.StopHook(managed.Close))

				return managed, nil
			},
			fx.Annotate(
				func(m *ManagedClient) *ManagedClient { return m },
				fx.As(new(reloadfx.Reloadable)),
				fx.ResultTags(`group:"reloadables"`),
			),
		),
	)
}
