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

package signalsfx

import (
	"context"
	"os"
	"sync"
	"syscall"

	"github.com/croessner/honeyauth/server/definitions"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"go.uber.org/fx"
)

type ReloadRunner interface {
	// Reload triggers a configuration reload operation.
	Reload(ctx context.Context) error
}

// Controller owns OS signal subscriptions. SIGINT and SIGTERM cancel the root context, SIGHUP reloads the
// configuration.
type Controller struct {
	ctx    context.Context
	cancel context.CancelFunc

	logger   kitlog.Logger
	notifier Notifier
	reload   ReloadRunner

	mu    sync.Mutex
	sigCh chan os.Signal
	wg    sync.WaitGroup
}

// ControllerIn holds the dependencies of a Controller.
type ControllerIn struct {
	fx.In

	Ctx    context.Context
	Cancel context.CancelFunc

	Logger   kitlog.Logger
	Notifier Notifier
	Reload   ReloadRunner
}

// NewController constructs a Controller.
func NewController(in ControllerIn) *Controller {
	return &Controller{
		ctx:      in.Ctx,
		cancel:   in.Cancel,
		logger:   in.Logger,
		notifier: in.Notifier,
		reload:   in.Reload,
	}
}

// Start subscribes to OS signals and starts the routing loop. Start is idempotent.
func (c *Controller) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sigCh != nil {
		return nil
	}

	sigCh := make(chan os.Signal, 8)
	c.sigCh = sigCh
	c.notifier.Subscribe(sigCh)

	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		c.loop(sigCh)
	}()

	return nil
}

// Stop unsubscribes from OS signals and waits for the routing loop to exit.
func (c *Controller) Stop(_ context.Context) error {
	c.mu.Lock()
	sigCh := c.sigCh
	c.sigCh = nil
	c.mu.Unlock()

	if sigCh != nil {
		c.notifier.Unsubscribe(sigCh)
		close(sigCh)
	}

	c.wg.Wait()

	return nil
}

func (c *Controller) loop(sigCh <-chan os.Signal) {
	for {
		select {
		case <-c.ctx.Done():
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}

			switch sig {
			case syscall.SIGINT, syscall.SIGTERM:
				level.Info(c.logger).Log(definitions.LogKeyMsg, "Received termination signal", "signal", sig)
				c.cancel()

				return
			case syscall.SIGHUP:
				level.Info(c.logger).Log(definitions.LogKeyMsg, "Received reload signal", "signal", sig)

				if c.reload != nil {
					_ = c.reload.Reload(c.ctx)
				}
			default:
				level.Debug(c.logger).Log(definitions.LogKeyMsg, "Received unhandled signal", "signal", sig)
			}
		}
	}
}
