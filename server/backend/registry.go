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
	"fmt"
	"sort"
	"strings"

	"github.com/croessner/honeyauth/server/definitions"
	"github.com/croessner/honeyauth/server/errors"
)

// Registry maps backend identifiers to their factories. It is populated explicitly at startup and read-only afterward.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// NewDefaultRegistry returns a registry holding every built-in backend.
func NewDefaultRegistry() *Registry {
	registry := NewRegistry()

	registry.mustRegister(definitions.BackendUserDBName, NewUserDB)
	registry.mustRegister(definitions.BackendRandomName, NewRandom)
	registry.mustRegister(definitions.BackendLDAPName, NewLDAP)
	registry.mustRegister(definitions.BackendLuaName, NewLua)
	registry.mustRegister(definitions.BackendRedisName, NewRedis)
	registry.mustRegister(definitions.BackendStaticName, NewStatic)

	return registry
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds a factory. Identifiers are case-insensitive.
func (r *Registry) Register(name string, factory Factory) error {
	key := normalizeName(name)

	if key == "" || factory == nil {
		return fmt.Errorf("%w: <%s>", errors.ErrBackendNotFound, name)
	}

	if _, exists := r.factories[key]; exists {
		return fmt.Errorf("%w: <%s>", errors.ErrBackendRegistered, name)
	}

	r.factories[key] = factory

	return nil
}

func (r *Registry) mustRegister(name string, factory Factory) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

// Lookup returns the factory registered for name.
func (r *Registry) Lookup(name string) (Factory, bool) {
	if r == nil {
		return nil, false
	}

	factory, found := r.factories[normalizeName(name)]

	return factory, found
}

// Has reports whether name is registered. It satisfies config.AuthClassLookup.
func (r *Registry) Has(name string) bool {
	_, found := r.Lookup(name)

	return found
}

// Names returns the registered identifiers in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}

	names := make([]string, 0, len(r.factories))

	for name := range r.factories {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
