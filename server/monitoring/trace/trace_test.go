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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracerRecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)

	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
	})

	tr := New("honeyauth/test")

	_, accepted := tr.Start(context.Background(), "accepted", attribute.String("auth_class", "userdb"))
	Result(accepted, true)
	accepted.End()

	_, abandoned := tr.Start(context.Background(), "abandoned")
	Abandoned(abandoned, context.Canceled)
	abandoned.End()

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "accepted", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("auth_class", "userdb"))
	assert.Contains(t, spans[0].Attributes(), attribute.Bool("accepted", true))

	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
