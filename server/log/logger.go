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

package log

import (
	"io"
	"os"

	"github.com/croessner/honeyauth/server/definitions"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/go-kit/log/term"
)

var (
	swap log.SwapLogger

	// Logger is used for all messages that are printed to stdout. It follows the most recent SetupLogging call, so
	// components holding it pick up a new level or format after a reload.
	Logger log.Logger = log.With(&swap, "caller", log.DefaultCaller)
)

// SetupLogging initializes the global "Logger" object.
func SetupLogging(configLogLevel int, formatJSON bool, useColor bool, instance string) {
	SetupLoggingTo(os.Stdout, configLogLevel, formatJSON, useColor, instance)
}

// SetupLoggingTo initializes the global "Logger" object and writes to w. Color is only honored for terminals.
func SetupLoggingTo(w io.Writer, configLogLevel int, formatJSON bool, useColor bool, instance string) {
	swap.Swap(newLogger(w, configLogLevel, formatJSON, useColor, instance))
}

// NewLogger builds a leveled go-kit logger. It does not touch the global "Logger".
func NewLogger(w io.Writer, configLogLevel int, formatJSON bool, useColor bool, instance string) log.Logger {
	return log.With(newLogger(w, configLogLevel, formatJSON, useColor, instance), "caller", log.DefaultCaller)
}

func newLogger(w io.Writer, configLogLevel int, formatJSON bool, useColor bool, instance string) log.Logger {
	var (
		logLevel level.Option
		logger   log.Logger
	)

	if useColor {
		colorFn := func(keyvals ...any) term.FgBgColor {
			for i := 0; i < len(keyvals)-1; i += 2 {
				if keyvals[i] != level.Key() {
					continue
				}

				switch keyvals[i+1] {
				case level.DebugValue():
					return term.FgBgColor{Fg: term.Gray}
				case level.InfoValue():
					return term.FgBgColor{Fg: term.Default}
				case level.WarnValue():
					return term.FgBgColor{Fg: term.Yellow}
				case level.ErrorValue():
					return term.FgBgColor{Fg: term.Red}
				default:
					return term.FgBgColor{}
				}
			}

			return term.FgBgColor{}
		}

		if formatJSON {
			logger = term.NewLogger(w, log.NewJSONLogger, colorFn)
		} else {
			logger = term.NewLogger(w, log.NewLogfmtLogger, colorFn)
		}
	} else {
		if formatJSON {
			logger = log.NewJSONLogger(log.NewSyncWriter(w))
		} else {
			logger = log.NewLogfmtLogger(log.NewSyncWriter(w))
		}
	}

	switch configLogLevel {
	case definitions.LogLevelNone:
		logLevel = level.AllowNone()
	case definitions.LogLevelError:
		logLevel = level.AllowError()
	case definitions.LogLevelWarn:
		logLevel = level.AllowWarn()
	case definitions.LogLevelInfo:
		logLevel = level.AllowInfo()
	case definitions.LogLevelDebug:
		logLevel = level.AllowDebug()
	default:
		logLevel = level.AllowInfo()
	}

	logger = level.NewFilter(logger, logLevel)

	return log.With(logger, "ts", log.DefaultTimestamp, definitions.LogKeyInstance, instance)
}

// OrDefault returns l, or the global "Logger" when l is nil.
func OrDefault(l log.Logger) log.Logger {
	if l != nil {
		return l
	}

	return Logger
}
