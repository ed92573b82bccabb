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

package reloadfx

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/croessner/honeyauth/server/app/configfx"
	"github.com/croessner/honeyauth/server/definitions"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"go.uber.org/fx"
)

// Manager coordinates a configuration reload. Reloads never overlap.
type Manager struct {
	mu          sync.Mutex
	reloader    configfx.Reloader
	logger      kitlog.Logger
	reloadables []Reloadable
}

// ManagerIn holds the dependencies of a Manager.
type ManagerIn struct {
	fx.In

	Reloader configfx.Reloader
	Logger   kitlog.Logger

	Reloadables []Reloadable `group:"reloadables"`
}

// NewManager constructs a reload Manager.
func NewManager(in ManagerIn) *Manager {
	rls := make([]Reloadable, 0, len(in.Reloadables))
	for _, r := range in.Reloadables {
		if r != nil {
			rls = append(rls, r)
		}
	}

	sort.SliceStable(rls, func(i, j int) bool {
		if rls[i].Order() == rls[j].Order() {
			return rls[i].Name() < rls[j].Name()
		}

		return rls[i].Order() < rls[j].Order()
	})

	return &Manager{
		reloader:    in.Reloader,
		logger:      in.Logger,
		reloadables: rls,
	}
}

// Reload reads the configuration again and hands the new snapshot to every Reloadable. A component error does not
// stop the others; all errors are returned joined. If the configuration cannot be loaded, nothing is applied.
func (m *Manager) Reload(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.reloader.Current()

	snap, err := m.reloader.Reload()
	if err != nil {
		level.Error(m.logger).Log(definitions.LogKeyMsg, "Configuration reload failed, keeping previous configuration", definitions.LogKeyError, err)

		return err
	}

	ctx = WithPreviousSnapshot(ctx, prev)

	var errs []error

	for _, r := range m.reloadables {
		if err = r.ApplyConfig(ctx, snap); err != nil {
			errs = append(errs, fmt.Errorf("reloadable %s apply config failed: %w", r.Name(), err))

			level.Error(m.logger).Log(definitions.LogKeyMsg, "Apply config failed", "component", r.Name(), definitions.LogKeyError, err)
		}
	}

	if len(errs) == 0 {
		level.Info(m.logger).Log(definitions.LogKeyMsg, "Configuration reloaded", "version", snap.Version)
	}

	return errors.Join(errs...)
}
