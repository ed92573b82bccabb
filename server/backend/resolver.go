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
	"fmt"

	"github.com/croessner/honeyauth/server/definitions"
	"github.com/croessner/honeyauth/server/errors"
	"github.com/croessner/honeyauth/server/log"
	"github.com/croessner/honeyauth/server/stats"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Resolver turns the configured auth_class into a backend instance.
type Resolver struct {
	registry    *Registry
	defaultName string
	logger      kitlog.Logger
}

// NewResolver returns a resolver that falls back to definitions.DefaultBackendName.
func NewResolver(registry *Registry, logger kitlog.Logger) *Resolver {
	return &Resolver{
		registry:    registry,
		defaultName: definitions.DefaultBackendName,
		logger:      log.OrDefault(logger),
	}
}

// Resolve returns the effective backend identifier and its factory. An empty name selects the default. An unknown
// name is logged as a warning and also selects the default; this is never fatal.
func (r *Resolver) Resolve(name string) (string, Factory, error) {
	if name != "" {
		if factory, found := r.registry.Lookup(name); found {
			return normalizeName(name), factory, nil
		}

		stats.BackendResolutionFailures.Inc()

		level.Warn(r.logger).Log(
			definitions.LogKeyMsg, "auth_class not found, using default",
			definitions.LogKeyBackend, name,
			"default", r.defaultName,
			"available", fmt.Sprintf("%v", r.registry.Names()),
			definitions.LogKeyError, errors.ErrBackendNotFound,
		)
	}

	factory, found := r.registry.Lookup(r.defaultName)
	if !found {
		return "", nil, fmt.Errorf("%w: <%s>", errors.ErrNoDefaultBackend, r.defaultName)
	}

	return r.defaultName, factory, nil
}

// NewBackend resolves the auth_class of deps.Cfg and constructs the backend.
func (r *Resolver) NewBackend(deps Deps) (*Resolved, error) {
	name, factory, err := r.Resolve(deps.Cfg.GetHoneypot().GetAuthClass())
	if err != nil {
		return nil, err
	}

	if deps.Logger == nil {
		deps.Logger = r.logger
	}

	instance, err := factory(deps)
	if err != nil {
		return nil, fmt.Errorf("auth_class %s: %w", name, err)
	}

	level.Info(r.logger).Log(definitions.LogKeyMsg, "Password backend ready", definitions.LogKeyBackend, name)

	return &Resolved{Name: name, Backend: instance}, nil
}

// Resolved is a constructed backend together with its identifier. Its CheckLogin records the backend latency.
type Resolved struct {
	Name    string
	Backend Backend
}

func (r *Resolved) CheckLogin(ctx context.Context, username string, password string, sourceAddress string) bool {
	stopTimer := stats.PrometheusTimer(r.Name)

	defer stopTimer()

	return r.Backend.CheckLogin(ctx, username, password, sourceAddress)
}

var _ Backend = (*Resolved)(nil)
