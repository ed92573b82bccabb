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

package health

import (
	"github.com/croessner/honeyauth/server/router"
)

// Handler registers the health endpoints.
type Handler struct {
	deps HealthzDeps
}

func New(deps HealthzDeps) *Handler { return &Handler{deps: deps} }

func (h *Handler) Register(r *router.Router) {
	r.WithHealth(Ping(h.deps.Sensor)).WithHealthz(ReadinessCheck(h.deps))
}
