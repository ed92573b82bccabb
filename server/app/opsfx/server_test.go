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

package opsfx

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/croessner/honeyauth/server/handler/health"

	kitlog "github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDeps() health.HealthzDeps {
	return health.HealthzDeps{BackendName: func() string { return "userdb" }}
}

func TestNewEngineRoutes(t *testing.T) {
	for _, tracing := range []bool{false, true} {
		engine := NewEngine(testDeps(), tracing, "honeyauth")

		for path, want := range map[string]int{
			"/ping":    http.StatusOK,
			"/healthz": http.StatusOK,
			"/metrics": http.StatusOK,
			"/login":   http.StatusNotFound,
		} {
			recorder := httptest.NewRecorder()
			engine.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, path, nil))

			assert.Equal(t, want, recorder.Code, "path %s tracing %t", path, tracing)
		}
	}
}

func TestHTTPServerLifecycle(t *testing.T) {
	server := NewHTTPServer("127.0.0.1:0", NewEngine(testDeps(), false, "honeyauth"), kitlog.NewNopLogger())

	require.NoError(t, server.Start(context.Background()))

	resp, err := http.Get("http://" + server.Addr().String() + "/ping")
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()

	require.NoError(t, err)
	assert.Contains(t, string(body), "pong")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, server.Stop(ctx))

	_, err = http.Get("http://" + server.Addr().String() + "/ping")
	assert.Error(t, err)
}

func TestHTTPServerStopWithoutStart(t *testing.T) {
	server := NewHTTPServer("127.0.0.1:0", http.NotFoundHandler(), kitlog.NewNopLogger())

	assert.NoError(t, server.Stop(context.Background()))
}
