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

package audit

import (
	"context"

	"github.com/croessner/honeyauth/server/definitions"
	"github.com/croessner/honeyauth/server/log"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// LogSink writes records to the process log.
type LogSink struct {
	logger kitlog.Logger
}

// NewLogSink returns a LogSink. A nil logger selects the process logger.
func NewLogSink(logger kitlog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(_ context.Context, record Record) error {
	logger := log.OrDefault(s.logger)

	return level.Info(logger).Log(append([]any{definitions.LogKeyMsg, messageFor(record.Kind)}, record.KeyVals()...)...)
}

func messageFor(kind definitions.EventKind) string {
	switch kind {
	case definitions.EventLoginSuccess:
		return "login attempt succeeded"
	case definitions.EventLoginFailed:
		return "login attempt failed"
	case definitions.EventFingerprintSeen:
		return "public key presented"
	default:
		return "authentication event"
	}
}
