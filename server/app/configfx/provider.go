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

package configfx

import (
	"sync/atomic"

	"github.com/croessner/honeyauth/server/config"
)

// Snapshot represents an immutable configuration view.
//
// Version is monotonically increasing and changes whenever a new snapshot is swapped in.
type Snapshot struct {
	File    *config.File
	Version uint64
}

// Provider provides the current config snapshot.
type Provider interface {
	Current() Snapshot
}

// Reloader extends Provider with a reload capability.
type Reloader interface {
	Provider

	Reload() (Snapshot, error)
}

// LoadFunc reads, decodes and validates the configuration.
type LoadFunc func() (*config.File, error)

type provider struct {
	snapshot atomic.Pointer[Snapshot]
	load     LoadFunc
}

var _ Reloader = (*provider)(nil)

// NewProvider loads the initial snapshot. A failing load is fatal at startup.
func NewProvider(load LoadFunc) (Reloader, error) {
	file, err := load()
	if err != nil {
		return nil, err
	}

	p := &provider{load: load}
	p.snapshot.Store(&Snapshot{File: file, Version: 1})

	return p, nil
}

func (p *provider) Current() Snapshot {
	snap := p.snapshot.Load()
	if snap == nil {
		return Snapshot{}
	}

	return *snap
}

// Reload loads the configuration again. On error the current snapshot is kept and returned.
func (p *provider) Reload() (Snapshot, error) {
	file, err := p.load()
	if err != nil {
		return p.Current(), err
	}

	cur := p.Current()
	next := &Snapshot{File: file, Version: cur.Version + 1}
	p.snapshot.Store(next)

	return *next, nil
}
