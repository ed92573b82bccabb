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

package logfx

import (
	"context"
	stdlog "log"
	"os"

	"github.com/croessner/honeyauth/server/app/configfx"
	"github.com/croessner/honeyauth/server/app/reloadfx"
	"github.com/croessner/honeyauth/server/config"
	"github.com/croessner/honeyauth/server/log"

	kitlog "github.com/go-kit/log"
	"go.uber.org/fx"
)

// Overrides are command line settings that win over the configuration file.
type Overrides struct {
	Level *config.Verbosity
	JSON  bool
}

// Setup configures the process logger from cfg and the command line overrides.
func Setup(cfg *config.File, overrides Overrides) error {
	logCfg := cfg.GetServer().GetLog()

	verbosity := overrides.Level
	if verbosity == nil || verbosity.Get() == "" {
		verbosity = &config.Verbosity{}

		name := logCfg.Level
		if name == "" {
			name = "info"
		}

		if err := verbosity.Set(name); err != nil {
			return err
		}
	}

	log.SetupLogging(verbosity.Level(), logCfg.JSON || overrides.JSON, logCfg.Color, cfg.GetServer().GetInstanceName())

	return nil
}

// NewLogger provides the process logger.
func NewLogger() kitlog.Logger {
	return log.OrDefault(nil)
}

// BridgeStdLog sends output of the standard library log package to logger.
func BridgeStdLog(lc fx.Lifecycle, logger kitlog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			stdlog.SetFlags(0)
			stdlog.SetOutput(kitlog.NewStdlibAdapter(logger))

			return nil
		},
		OnStop: func(context.Context) error {
			stdlog.SetOutput(os.Stderr)

			return nil
		},
	})
}

// LevelReloader applies the log section of a new snapshot.
type LevelReloader struct {
	overrides Overrides
}

// NewLevelReloader creates a new LevelReloader instance.
func NewLevelReloader(overrides Overrides) *LevelReloader {
	return &LevelReloader{overrides: overrides}
}

// Name returns the name of the reloader for the reload manager.
func (l *LevelReloader) Name() string {
	return "log"
}

// Order defines the execution order during a reload. Logging is applied first.
func (l *LevelReloader) Order() int {
	return 10
}

// ApplyConfig reconfigures the process logger.
func (l *LevelReloader) ApplyConfig(_ context.Context, snap configfx.Snapshot) error {
	return Setup(snap.File, l.overrides)
}

var _ reloadfx.Reloadable = (*LevelReloader)(nil)

// Module provides the logger and registers the level reloader.
func Module(overrides Overrides) fx.Option {
	return fx.Module("logfx",
		fx.Supply(overrides),
		fx.Provide(
			NewLogger,
			fx.Annotate(
				NewLevelReloader,
				fx.As(new(reloadfx.Reloadable)),
				fx.ResultTags(`group:"reloadables"`),
			),
		),
		fx.Invoke(BridgeStdLog),
	)
}
