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
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	healthzStatusUp      = "up"
	healthzStatusDown    = "down"
	healthzStatusSkipped = "skipped"

	redisPingTimeout = 2 * time.Second
)

// HealthzDeps is what the health endpoints inspect.
type HealthzDeps struct {
	Sensor      string
	BackendName func() string
	Redis       func() redis.UniversalClient
}

type HealthzCheck struct {
	Status string         `json:"status"`
	Error  string         `json:"error,omitempty"`
	Meta   map[string]any `json:"meta,omitzero"`
}

type HealthzResult struct {
	Status string                   `json:"status"`
	Checks map[string]*HealthzCheck `json:"checks"`
}

// ReadinessCheck returns a gin handler reporting the password backend and the Redis connection.
func ReadinessCheck(deps HealthzDeps) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result := &HealthzResult{
			Status: healthzStatusUp,
			Checks: map[string]*HealthzCheck{},
		}

		checkBackend(deps, result)
		checkRedis(ctx.Request.Context(), deps, result)

		statusCode := http.StatusOK

		if result.Status == healthzStatusDown {
			statusCode = http.StatusServiceUnavailable
		}

		ctx.JSON(statusCode, result)
	}
}

func checkBackend(deps HealthzDeps, result *HealthzResult) {
	if deps.BackendName == nil || deps.BackendName() == "" {
		result.Checks["backend"] = &HealthzCheck{Status: healthzStatusDown, Error: "no password backend"}
		result.Status = healthzStatusDown

		return
	}

	result.Checks["backend"] = &HealthzCheck{
		Status: healthzStatusUp,
		Meta:   map[string]any{"auth_class": deps.BackendName()},
	}
}

func checkRedis(ctx context.Context, deps HealthzDeps, result *HealthzResult) {
	var client redis.UniversalClient
	if deps.Redis != nil {
		client = deps.Redis()
	}

	if client == nil {
		result.Checks["redis"] = &HealthzCheck{Status: healthzStatusSkipped}

		return
	}

	ctx, cancel := context.WithTimeout(ctx, redisPingTimeout)

	defer cancel()

	start := time.Now()

	if err := client.Ping(ctx).Err(); err != nil {
		result.Checks["redis"] = &HealthzCheck{Status: healthzStatusDown, Error: err.Error()}
		result.Status = healthzStatusDown

		return
	}

	result.Checks["redis"] = &HealthzCheck{
		Status: healthzStatusUp,
		Meta:   map[string]any{"latency_ms": time.Since(start).Milliseconds()},
	}
}
