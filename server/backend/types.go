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

	"github.com/croessner/honeyauth/server/config"

	kitlog "github.com/go-kit/log"
	"github.com/redis/go-redis/v9"
)

// Backend is the truth source that answers whether a username/password pair is valid. Implementations must be safe
// for concurrent use and must not fail outward: invalid credentials and internal errors both yield false.
type Backend interface {
	CheckLogin(ctx context.Context, username string, password string, sourceAddress string) bool
}

// Deps carries everything a Factory may need to construct a backend.
type Deps struct {
	Cfg    *config.File
	Logger kitlog.Logger
	Redis  redis.UniversalClient
}

// Factory constructs a backend from the configuration. Errors are configuration errors.
type Factory func(deps Deps) (Backend, error)
