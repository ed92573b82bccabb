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

package router

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Router is a small builder around gin.Engine to assemble middlewares and routes
// without leaking application-specific logic into this package.
type Router struct {
	Engine *gin.Engine
}

// NewRouter creates a new Router builder with a fresh gin.Engine.
func NewRouter() *Router {
	return &Router{Engine: gin.New()}
}

// Build returns the underlying gin.Engine.
func (r *Router) Build() *gin.Engine {
	return r.Engine
}

// WithRecovery adds gin.Recovery middleware to recover from panics.
func (r *Router) WithRecovery() *Router {
	r.Engine.Use(gin.Recovery())

	return r
}

// WithTracing adds the OpenTelemetry gin middleware. Without a configured provider spans are no-ops.
func (r *Router) WithTracing(service string) *Router {
	r.Engine.Use(otelgin.Middleware(service))

	return r
}

// WithMetricsRoute registers the GET /metrics handler provided by the caller.
func (r *Router) WithMetricsRoute(handler gin.HandlerFunc) *Router {
	r.Engine.GET("/metrics", handler)

	return r
}

// WithHealth registers the health endpoint using the given handler.
func (r *Router) WithHealth(handler gin.HandlerFunc) *Router {
	r.Engine.GET("/ping", handler)

	return r
}

// WithHealthz registers the readiness endpoint using the given handler.
func (r *Router) WithHealthz(handler gin.HandlerFunc) *Router {
	r.Engine.GET("/healthz", handler)

	return r
}
