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

package main

import (
	"context"
	stderrors "errors"
	stdlog "log"
	"os"

	"github.com/croessner/honeyauth/server/app/bootfx"
	"github.com/croessner/honeyauth/server/app/configfx"
	"github.com/croessner/honeyauth/server/app/honeypotfx"
	"github.com/croessner/honeyauth/server/app/logfx"
	"github.com/croessner/honeyauth/server/app/opsfx"
	"github.com/croessner/honeyauth/server/app/redifx"
	"github.com/croessner/honeyauth/server/app/reloadfx"
	"github.com/croessner/honeyauth/server/app/signalsfx"
	"github.com/croessner/honeyauth/server/config"
	"github.com/croessner/honeyauth/server/definitions"
	"github.com/croessner/honeyauth/server/log"
	"github.com/croessner/honeyauth/server/rediscli"

	"github.com/go-kit/log/level"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"go.uber.org/fx"
)

var (
	version   = "dev"
	buildTime = ""
)

func rootContextOption(ctx context.Context, cancel context.CancelFunc) fx.Option {
	return fx.Provide(
		func() context.Context {
			return ctx
		},
		func() context.CancelFunc {
			return cancel
		},
	)
}

func configOption(provider configfx.Reloader) fx.Option {
	return fx.Provide(
		func() configfx.Reloader {
			return provider
		},
		func() configfx.Provider {
			return provider
		},
	)
}

// newApp wires all components. Reloadables are applied in the order log, redis, honeypot.
func newApp(ctx context.Context, cancel context.CancelFunc, provider configfx.Reloader, overrides logfx.Overrides, extra ...fx.Option) *fx.App {
	return fx.New(
		fx.WithLogger(logfx.NewFxEventLogger),
		rootContextOption(ctx, cancel),
		configOption(provider),
		logfx.Module(overrides),
		redifx.Module(),
		honeypotfx.Module(),
		opsfx.Module(version),
		fx.Provide(reloadfx.NewManager),
		signalsfx.Module(),
		fx.Options(extra...),
	)
}

// main parses the command line, runs one-shot commands or starts the honeypot until SIGINT or SIGTERM.
func main() {
	flags, err := bootfx.ParseFlags(os.Args[1:])
	if err != nil {
		if stderrors.Is(err, pflag.ErrHelp) {
			return
		}

		os.Exit(2)
	}

	if handled, err := bootfx.NewCommand(version).Run(flags); handled {
		if err != nil {
			stdlog.Fatalln("Error:", err)
		}

		return
	}

	provider, err := configfx.NewProvider(func() (*config.File, error) {
		return bootfx.LoadConfig(flags)
	})
	if err != nil {
		stdlog.Fatalln("Unable to load the configuration. Error:", err)
	}

	overrides := logfx.Overrides{Level: &flags.Verbosity, JSON: flags.LogJSON}

	if err = logfx.Setup(provider.Current().File, overrides); err != nil {
		stdlog.Fatalln("Unable to setup logging. Error:", err)
	}

	redis.SetLogger(rediscli.NewRedisLogger(log.Logger))

	level.Info(log.Logger).Log(definitions.LogKeyMsg, "Starting honeyauth", "version", version, "build_time", buildTime)
	level.Debug(log.Logger).Log(definitions.LogKeyMsg, "Loaded configuration", "config", provider.Current().File)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fApp := newApp(ctx, cancel, provider, overrides)
	if err = fApp.Err(); err != nil {
		stdlog.Fatalln("Unable to build the application. Error:", err)
	}

	if err = fApp.Start(context.Background()); err != nil {
		stdlog.Fatalln("Unable to start fx app. Error:", err)
	}

	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), definitions.DefaultShutdownTimeout)
	defer stopCancel()

	if err = fApp.Stop(stopCtx); err != nil {
		level.Error(log.Logger).Log(definitions.LogKeyMsg, "Unable to stop fx app", definitions.LogKeyError, err)
	}

	level.Info(log.Logger).Log(definitions.LogKeyMsg, "Stopped honeyauth")
}
