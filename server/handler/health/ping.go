// Copyright (C) 2025 Christian Rößner
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
	"net/http"

	"github.com/croessner/honeyauth/server/definitions"
	"github.com/croessner/honeyauth/server/log"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/log/level"
)

// SensorHeader names the sensor that answered a liveness probe.
const SensorHeader = "X-Honeyauth-Sensor"

// Ping answers liveness probes with "pong".
func Ping(sensor string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		level.Debug(log.Logger).Log(
			definitions.LogKeyMsg, "Liveness probe",
			definitions.LogKeyClientIP, ctx.ClientIP(),
			definitions.LogKeySensor, sensor,
		)

		if sensor != "" {
			ctx.Header(SensorHeader, sensor)
		}

		ctx.String(http.StatusOK, "pong")
	}
}
