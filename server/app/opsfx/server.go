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

package opsfx

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/croessner/honeyauth/server/app/configfx"
	"github.com/croessner/honeyauth/server/app/honeypotfx"
	"github.com/croessner/honeyauth/server/app/redifx"
	"github.com/croessner/honeyauth/server/definitions"
	"github.com/croessner/honeyauth/server/handler/health"
	"github.com/croessner/honeyauth/server/handler/metrics"
	"github.com/croessner/honeyauth/server/monitoring"
	"github.com/croessner/honeyauth/server/router"

	"github.com/gin-gonic/gin"
	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"go.uber.org/fx"
)

// Version is reported as service.version of traces.
type Version string

// NewEngine assembles the ops routes: /ping, /healthz and /metrics.
func NewEngine(deps health.HealthzDeps, tracing bool, service string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := router.NewRouter().WithRecovery()

	if tracing {
		r.WithTracing(service)
	}

	r.WithMetricsRoute(metrics.New().HandlerFunc())
	health.New(deps).Register(r)

	return r.Build()
}

// HTTPServer serves the ops routes. It is only started if server.http_address is set.
type HTTPServer struct {
	mu     sync.Mutex
	server *http.Server
	addr   net.Addr
	done   chan struct{}
	logger kitlog.Logger
}

// NewHTTPServer returns an HTTPServer for address and handler.
func NewHTTPServer(address string, handler http.Handler, logger kitlog.Logger) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Addr:              address,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start binds the address and serves in the background.
func (h *HTTPServer) Start(_ context.Context) error {
	listener, err := net.Listen("tcp", h.server.Addr)
	if err != nil {
		return err
	}

	done := make(chan struct{})

	h.mu.Lock()
	h.addr = listener.Addr()
	h.done = done
	h.mu.Unlock()

	level.Info(h.logger).Log(definitions.LogKeyMsg, "Ops HTTP server started", definitions.LogKeyAddress, listener.Addr().String())

	go func() {
		defer close(done)

		if err := h.server.Serve(listener); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			level.Error(h.logger).Log(definitions.LogKeyMsg, "Ops HTTP server failed", definitions.LogKeyError, err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully.
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.mu.Lock()
	done := h.done
	h.mu.Unlock()

	if done == nil {
		return nil
	}

	err := h.server.Shutdown(ctx)

	<-done

	return err
}

// Addr returns the bound address once started.
func (h *HTTPServer) Addr() net.Addr {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.addr
}

type opsIn struct {
	fx.In

	Lifecycle fx.Lifecycle
	Ctx       context.Context
	Provider  configfx.Provider
	Runtime   *honeypotfx.Runtime
	Redis     *redifx.ManagedClient
	Logger    kitlog.Logger
	Version   Version
}

func register(in opsIn) {
	cfg := in.Provider.Current().File
	telemetry := monitoring.NewTelemetry(cfg)

	in.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			telemetry.Start(in.Ctx, string(in.Version))

			return nil
		},
		OnStop: func(ctx context.Context) error {
			telemetry.Shutdown(ctx)

			return nil
		},
	})

	address := cfg.GetServer().GetHTTPAddress()
	if address == "" {
		level.Debug(in.Logger).Log(definitions.LogKeyMsg, "Ops HTTP server disabled")

		return
	}

	engine := NewEngine(health.HealthzDeps{
		Sensor:      cfg.GetHoneypot().GetSensorName(),
		BackendName: in.Runtime.BackendName,
		Redis:       in.Redis.Client,
	}, telemetry.IsEnabled(), cfg.GetServer().GetInstanceName())

	server := NewHTTPServer(address, engine, in.Logger)

	in.Lifecycle.Append(fx.Hook{
		OnStart: server.Start,
		OnStop:  server.Stop,
	})
}

// Module registers tracing and the ops HTTP server. Both are read once at startup.
func Module(version string) fx.Option {
	return fx.Module("opsfx",
		fx.Supply(Version(version)),
		fx.Invoke(register),
	)
}
