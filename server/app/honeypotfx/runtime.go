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

package honeypotfx

import (
	"context"
	"net"
	"sync"

	"github.com/croessner/honeyauth/server/app/configfx"
	"github.com/croessner/honeyauth/server/app/redifx"
	"github.com/croessner/honeyauth/server/app/reloadfx"
	"github.com/croessner/honeyauth/server/audit"
	"github.com/croessner/honeyauth/server/backend"
	"github.com/croessner/honeyauth/server/checker"
	"github.com/croessner/honeyauth/server/config"
	"github.com/croessner/honeyauth/server/definitions"
	"github.com/croessner/honeyauth/server/sshd"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
)

// Stack is one generation of checkers together with the sinks they write to.
type Stack struct {
	Checker  checker.Checker
	Password *checker.PasswordChecker
	Sinks    *audit.MultiSink
}

// Close releases the sinks of the stack.
func (s *Stack) Close() error {
	if s == nil || s.Sinks == nil {
		return nil
	}

	return s.Sinks.Close()
}

// BuildStack creates the audit sinks and the checker chain for cfg. The none checker only answers none
// credentials; those only arrive if ssh.allow_none_auth is set.
func BuildStack(cfg *config.File, registry *backend.Registry, redisClient redis.UniversalClient, logger kitlog.Logger) (*Stack, error) {
	sinks, err := audit.New(cfg, logger, redisClient)
	if err != nil {
		return nil, err
	}

	deps := backend.Deps{Cfg: cfg, Logger: logger, Redis: redisClient}

	password, err := checker.NewPasswordChecker(deps, backend.NewResolver(registry, logger), sinks)
	if err != nil {
		_ = sinks.Close()

		return nil, err
	}

	chain := checker.NewChain(
		checker.NewPublicKeyChecker(cfg, sinks, logger),
		checker.Restrict(checker.NoneChecker{}, checker.IsNone),
		password,
	)

	return &Stack{Checker: chain, Password: password, Sinks: sinks}, nil
}

// Runtime owns the SSH listener and the current checker stack.
type Runtime struct {
	mu       sync.Mutex
	stack    *Stack
	settings sshd.Settings
	hostKey  string

	registry *backend.Registry
	redis    *redifx.ManagedClient
	server   *sshd.Server
	logger   kitlog.Logger

	rootCtx    context.Context
	rootCancel context.CancelFunc
	cancel     context.CancelFunc
	group      *errgroup.Group
	addr       net.Addr
}

// RuntimeIn holds the dependencies of a Runtime.
type RuntimeIn struct {
	fx.In

	Ctx      context.Context
	Cancel   context.CancelFunc
	Provider configfx.Provider
	Redis    *redifx.ManagedClient
	Registry *backend.Registry
	Logger   kitlog.Logger
}

// NewRuntime builds the first checker stack and the SSH server. Host keys are created on first use.
func NewRuntime(in RuntimeIn) (*Runtime, error) {
	cfg := in.Provider.Current().File

	stack, err := BuildStack(cfg, in.Registry, in.Redis.Client(), in.Logger)
	if err != nil {
		return nil, err
	}

	hostKeyFile := cfg.GetSSH().GetHostKeyFile()

	hostKeys, err := sshd.LoadHostKeys(hostKeyFile, in.Logger)
	if err != nil {
		_ = stack.Close()

		return nil, err
	}

	settings := sshd.SettingsFromConfig(cfg)

	return &Runtime{
		stack:      stack,
		settings:   settings,
		hostKey:    hostKeyFile,
		registry:   in.Registry,
		redis:      in.Redis,
		server:     sshd.New(settings, hostKeys, stack.Checker, in.Logger),
		logger:     in.Logger,
		rootCtx:    in.Ctx,
		rootCancel: in.Cancel,
	}, nil
}

// BackendName returns the password backend in use.
func (r *Runtime) BackendName() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stack == nil || r.stack.Password == nil {
		return ""
	}

	return r.stack.Password.BackendName()
}

// Start opens the listener and serves it in the background. A listener that stops on its own ends the process.
func (r *Runtime) Start(_ context.Context) error {
	listener, err := r.server.Listen()
	if err != nil {
		return err
	}

	serveCtx, cancel := context.WithCancel(r.rootCtx)
	group, groupCtx := errgroup.WithContext(serveCtx)

	group.Go(func() error {
		err := r.server.Serve(groupCtx, listener)
		if err != nil {
			level.Error(r.logger).Log(definitions.LogKeyMsg, "SSH listener stopped", definitions.LogKeyError, err)

			if r.rootCancel != nil {
				r.rootCancel()
			}
		}

		return err
	})

	r.mu.Lock()
	r.cancel = cancel
	r.group = group
	r.addr = listener.Addr()
	r.mu.Unlock()

	return nil
}

// Addr returns the address of the SSH listener once started.
func (r *Runtime) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.addr
}

// Stop closes the listener and waits for open connections until ctx is done. The sinks are closed afterwards.
func (r *Runtime) Stop(ctx context.Context) error {
	r.mu.Lock()
	cancel, group := r.cancel, r.group
	r.mu.Unlock()

	var err error

	if cancel != nil {
		cancel()

		done := make(chan error, 1)

		go func() {
			done <- group.Wait()
		}()

		select {
		case err = <-done:
		case <-ctx.Done():
			err = ctx.Err()

			level.Warn(r.logger).Log(definitions.LogKeyMsg, "Open SSH connections did not finish in time", definitions.LogKeyError, err)
		}
	}

	r.mu.Lock()
	stack := r.stack
	r.stack = nil
	r.mu.Unlock()

	if closeErr := stack.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	return err
}

// Name returns the name of the reloadable.
func (r *Runtime) Name() string {
	return "honeypot"
}

// Order places the checker stack after logging and Redis.
func (r *Runtime) Order() int {
	return 30
}

// ApplyConfig builds a new checker stack and swaps it in. Attempts already running finish with the old stack.
// Listener settings and host keys are only read at startup.
func (r *Runtime) ApplyConfig(_ context.Context, snap configfx.Snapshot) error {
	cfg := snap.File

	if sshd.SettingsFromConfig(cfg) != r.settings || cfg.GetSSH().GetHostKeyFile() != r.hostKey {
		level.Warn(r.logger).Log(definitions.LogKeyMsg, "Changes of the ssh section require a restart")
	}

	stack, err := BuildStack(cfg, r.registry, r.redis.Client(), r.logger)
	if err != nil {
		return err
	}

	r.mu.Lock()
	old := r.stack
	r.stack = stack
	r.mu.Unlock()

	r.server.SetChecker(stack.Checker)

	level.Info(r.logger).Log(definitions.LogKeyMsg, "Checker stack replaced", "auth_class", stack.Password.BackendName())

	return old.Close()
}

var _ reloadfx.Reloadable = (*Runtime)(nil)

// Module provides the Runtime and ties it to the fx lifecycle.
func Module() fx.Option {
	return fx.Module("honeypotfx",
		fx.Provide(
			backend.NewDefaultRegistry,
			NewRuntime,
			fx.Annotate(
				func(r *Runtime) *Runtime { return r },
				fx.As(new(reloadfx.Reloadable)),
				fx.ResultTags(`group:"reloadables"`),
			),
		),
		fx.Invoke(func(lc fx.Lifecycle, r *Runtime) {
			lc.Append(fx.Hook{
				OnStart: r.Start,
				OnStop:  r.Stop,
			})
		}),
	)
}
