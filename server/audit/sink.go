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
	"io"
	"sync"

	"github.com/croessner/honeyauth/server/definitions"
	"github.com/croessner/honeyauth/server/log"
	"github.com/croessner/honeyauth/server/stats"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Sink receives audit records. Emit must be safe for concurrent use.
type Sink interface {
	Emit(ctx context.Context, record Record) error
}

type namedSink struct {
	name string
	sink Sink
}

// MultiSink fans a record out to all of its sinks. A failing sink is logged and counted; it never stops the others
// and the error is not returned to the caller.
type MultiSink struct {
	sinks   []namedSink
	closers []io.Closer
	logger  kitlog.Logger
}

// NewMultiSink returns an empty MultiSink.
func NewMultiSink(logger kitlog.Logger) *MultiSink {
	return &MultiSink{logger: log.OrDefault(logger)}
}

// Add appends a sink. If the sink implements io.Closer, Close closes it.
func (m *MultiSink) Add(name string, sink Sink) {
	m.sinks = append(m.sinks, namedSink{name: name, sink: sink})

	if closer, ok := sink.(io.Closer); ok {
		m.closers = append(m.closers, closer)
	}
}

// Len returns the number of sinks.
func (m *MultiSink) Len() int {
	return len(m.sinks)
}

func (m *MultiSink) Emit(ctx context.Context, record Record) error {
	for _, sink := range m.sinks {
		if err := sink.sink.Emit(ctx, record); err != nil {
			stats.AuditSinkErrors.WithLabelValues(sink.name).Inc()

			level.Error(m.logger).Log(
				definitions.LogKeyMsg, "audit sink failed",
				definitions.LogKeySink, sink.name,
				definitions.LogKeyGUID, record.Session,
				definitions.LogKeyError, err,
			)
		}
	}

	return nil
}

// Close closes all sinks that hold resources.
func (m *MultiSink) Close() error {
	var firstErr error

	for _, closer := range m.closers {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// Collector keeps records in memory.
type Collector struct {
	mu      sync.Mutex
	records []Record
}

func (c *Collector) Emit(_ context.Context, record Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.records = append(c.records, record)

	return nil
}

// Records returns a copy of the collected records.
func (c *Collector) Records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]Record(nil), c.records...)
}

var (
	_ Sink = (*MultiSink)(nil)
	_ Sink = (*Collector)(nil)
)
