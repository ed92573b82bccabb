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

package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler serves the prometheus registry.
type Handler struct {
	gatherer prometheus.Gatherer
}

// New returns a Handler for the default gatherer.
func New() *Handler {
	return &Handler{gatherer: prometheus.DefaultGatherer}
}

// HandlerFunc returns the gin handler of GET /metrics.
func (h *Handler) HandlerFunc() gin.HandlerFunc {
	promHandler := promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{DisableCompression: true})

	return func(ctx *gin.Context) {
		promHandler.ServeHTTP(ctx.Writer, ctx.Request)
	}
}
