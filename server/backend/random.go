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
	"math/rand/v2"
	"sync"
	"time"

	"github.com/croessner/honeyauth/server/definitions"
	"github.com/croessner/honeyauth/server/errors"
	"github.com/croessner/honeyauth/server/log"

	"github.com/go-kit/log/level"
	"github.com/patrickmn/go-cache"
)

type credentialPair struct {
	username string
	password string
}

// randomState is kept per source address.
type randomState struct {
	max      int
	tries    int
	tried    map[credentialPair]struct{}
	accepted *credentialPair
}

// Random accepts a login after a random number of distinct attempts from the same source address. Once a pair was
// accepted, only that pair is accepted for the address until the state expires.
type Random struct {
	mu     sync.Mutex
	state  *cache.Cache
	minTry int
	maxTry int
	maxAge time.Duration
	intN   func(n int) int
}

// NewRandom is the Factory of the random backend.
func NewRandom(deps Deps) (Backend, error) {
	randomCfg := deps.Cfg.GetRandom()

	if randomCfg.GetMinTry() > randomCfg.GetMaxTry() {
		return nil, errors.ErrRandomRange
	}

	level.Debug(log.OrDefault(deps.Logger)).Log(
		definitions.LogKeyMsg, "random backend",
		"min_try", randomCfg.GetMinTry(),
		"max_try", randomCfg.GetMaxTry(),
		"max_cache", randomCfg.GetMaxCache(),
	)

	return newRandom(randomCfg.GetMinTry(), randomCfg.GetMaxTry(), randomCfg.GetMaxCache(), rand.IntN), nil
}

func newRandom(minTry int, maxTry int, maxAge time.Duration, intN func(n int) int) *Random {
	return &Random{
		state:  cache.New(maxAge, maxAge),
		minTry: minTry,
		maxTry: maxTry,
		maxAge: maxAge,
		intN:   intN,
	}
}

func (r *Random) threshold() int {
	return r.minTry + r.intN(r.maxTry-r.minTry+1)
}

// CheckLogin implements Backend.
func (r *Random) CheckLogin(_ context.Context, username string, password string, sourceAddress string) bool {
	pair := credentialPair{username: username, password: password}

	r.mu.Lock()
	defer r.mu.Unlock()

	var state *randomState

	if value, found := r.state.Get(sourceAddress); found {
		state = value.(*randomState)
	} else {
		state = &randomState{max: r.threshold(), tried: make(map[credentialPair]struct{})}
	}

	// Every call refreshes the expiry of the address.
	defer r.state.Set(sourceAddress, state, r.maxAge)

	if state.accepted != nil {
		return *state.accepted == pair
	}

	if _, seen := state.tried[pair]; seen {
		return false
	}

	state.tried[pair] = struct{}{}
	state.tries++

	if state.tries < state.max {
		return false
	}

	state.accepted = &pair

	return true
}
