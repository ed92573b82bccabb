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

package trace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is a narrow facade over OpenTelemetry's trace.Tracer. Without a configured provider all spans are no-ops.
//
// Usage:
//
//	tr := trace.New("honeyauth/checker")
//	ctx, sp := tr.Start(ctx, "checker.evaluate", attribute.String("auth_class", name))
//	defer sp.End()
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span)
}

type tracer struct {
	scope string
}

// New creates a new Tracer tied to the given instrumentation scope. The global provider is looked up on every Start,
// so a provider installed after New is still honored.
func New(scope string) Tracer {
	return &tracer{scope: scope}
}

// Start begins a span with the provided name and attaches optional attributes.
// The span must be ended by the caller.
func (tr *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, sp := otel.Tracer(tr.scope).Start(ctx, name)
	if len(attrs) > 0 {
		sp.SetAttributes(attrs...)
	}

	return ctx, sp
}

// Result records an authentication decision on the span.
func Result(sp trace.Span, accepted bool) {
	sp.SetAttributes(attribute.Bool("accepted", accepted))

	if !accepted {
		sp.SetStatus(codes.Unset, "rejected")
	}
}

// Abandoned marks a span whose attempt was cancelled before a decision was made.
func Abandoned(sp trace.Span, err error) {
	sp.RecordError(err)
	sp.SetStatus(codes.Error, "abandoned")
}
