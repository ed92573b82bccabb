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
	"fmt"

	"github.com/croessner/honeyauth/server/definitions"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"go.uber.org/fx/fxevent"
)

// FxEventLogger adapts fx internal events to the process logger.
type FxEventLogger struct {
	logger kitlog.Logger
}

func NewFxEventLogger(logger kitlog.Logger) fxevent.Logger {
	return &FxEventLogger{logger: logger}
}

func (l *FxEventLogger) LogEvent(event fxevent.Event) {
	if l == nil || l.logger == nil {
		return
	}

	switch e := event.(type) {
	case *fxevent.Started:
		if e.Err != nil {
			level.Error(l.logger).Log(definitions.LogKeyMsg, "fx start failed", definitions.LogKeyError, e.Err)

			return
		}

		level.Debug(l.logger).Log(definitions.LogKeyMsg, "fx started")
	case *fxevent.Stopped:
		level.Debug(l.logger).Log(definitions.LogKeyMsg, "fx stopped")
	case *fxevent.RollingBack:
		level.Warn(l.logger).Log(definitions.LogKeyMsg, "fx rolling back", definitions.LogKeyError, e.StartErr)
	case *fxevent.RolledBack:
		level.Warn(l.logger).Log(definitions.LogKeyMsg, "fx rolled back", definitions.LogKeyError, e.Err)
	case *fxevent.OnStartExecuted:
		l.logHookResult("fx OnStart executed", e.FunctionName, e.Err)
	case *fxevent.OnStopExecuted:
		l.logHookResult("fx OnStop executed", e.FunctionName, e.Err)
	case *fxevent.Provided:
		if e.Err != nil {
			level.Error(l.logger).Log(definitions.LogKeyMsg, "fx provide failed", "constructor", e.ConstructorName, definitions.LogKeyError, e.Err)
		}
	case *fxevent.Invoked:
		if e.Err != nil {
			level.Error(l.logger).Log(definitions.LogKeyMsg, "fx invoke failed", "function", e.FunctionName, definitions.LogKeyError, e.Err)
		}
	default:
		level.Debug(l.logger).Log(definitions.LogKeyMsg, "fx event", "type", fmt.Sprintf("%T", event))
	}
}

func (l *FxEventLogger) logHookResult(msg string, callee string, err error) {
	if err != nil {
		level.Error(l.logger).Log(definitions.LogKeyMsg, msg, "callee", callee, definitions.LogKeyError, err)

		return
	}

	level.Debug(l.logger).Log(definitions.LogKeyMsg, msg, "callee", callee)
}
