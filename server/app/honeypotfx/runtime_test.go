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
	"path/filepath"
	"testing"
	"time"

	"github.com/croessner/honeyauth/server/app/configfx"
	"github.com/croessner/honeyauth/server/app/redifx"
	"github.com/croessner/honeyauth/server/backend"
	"github.com/croessner/honeyauth/server/checker"
	"github.com/croessner/honeyauth/server/config"
	"github.com/croessner/honeyauth/server/definitions"

	kitlog "github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func testConfig(t *testing.T, authClass string) *config.File {
	t.Helper()

	return &config.File{
		Honeypot: &config.HoneypotSection{AuthClass: authClass},
		SSH: &config.SSHSection{
			Address:     "127.0.0.1:0",
			HostKeyFile: filepath.Join(t.TempDir(), "host_key"),
		},
		Audit: &config.AuditSection{Sinks: []string{definitions.SinkLog, definitions.SinkMetrics}},
	}
}

func newTestRuntime(t *testing.T, cfg *config.File) *Runtime {
	t.Helper()

	provider, err := configfx.NewProvider(func() (*config.File, error) { return cfg, nil })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	runtime, err := NewRuntime(RuntimeIn{
		Ctx:      ctx,
		Cancel:   cancel,
		Provider: provider,
		Redis:    redifx.NewManagedClient(nil, kitlog.NewNopLogger()),
		Registry: backend.NewDefaultRegistry(),
		Logger:   kitlog.NewNopLogger(),
	})
	require.NoError(t, err)

	return runtime
}

func login(address string, user string, password string) error {
	client, err := ssh.Dial("tcp", address, &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.Password(password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         5 * time.Second,
	})
	if err != nil {
		return err
	}

	return client.Close()
}

func TestBuildStack(t *testing.T) {
	stack, err := BuildStack(testConfig(t, ""), backend.NewDefaultRegistry(), nil, kitlog.NewNopLogger())
	require.NoError(t, err)

	defer stack.Close()

	assert.Equal(t, definitions.BackendUserDBName, stack.Password.BackendName())

	identity := checker.Identity{Username: "root", SourceAddress: "192.0.2.1", Session: "s1"}

	outcome := stack.Checker.Check(context.Background(), &checker.Password{Identity: identity, Password: "secret"})
	assert.True(t, outcome.IsAccepted())

	outcome = stack.Checker.Check(context.Background(), &checker.Password{Identity: identity, Password: "123456"})
	assert.Equal(t, checker.OutcomeRejected, outcome.Kind)

	outcome = stack.Checker.Check(context.Background(), &checker.None{Identity: identity})
	assert.True(t, outcome.IsAccepted())
}

func TestBuildStackErrors(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Audit.Sinks = []string{definitions.SinkRedis}

	_, err := BuildStack(cfg, backend.NewDefaultRegistry(), nil, kitlog.NewNopLogger())
	assert.Error(t, err)

	cfg = testConfig(t, "")
	cfg.Honeypot.PasswordPublicKey = "not a key"

	_, err = BuildStack(cfg, backend.NewDefaultRegistry(), nil, kitlog.NewNopLogger())
	assert.Error(t, err)
}

func TestRuntimeServeAndReload(t *testing.T) {
	cfg := testConfig(t, "")
	runtime := newTestRuntime(t, cfg)

	require.NoError(t, runtime.Start(context.Background()))

	address := runtime.Addr().String()

	assert.NoError(t, login(address, "root", "secret"))
	assert.Error(t, login(address, "nobody", "secret"))
	assert.Equal(t, definitions.BackendUserDBName, runtime.BackendName())

	next := testConfig(t, definitions.BackendStaticName)
	next.SSH = cfg.SSH

	require.NoError(t, runtime.ApplyConfig(context.Background(), configfx.Snapshot{File: next, Version: 2}))

	assert.Equal(t, definitions.BackendStaticName, runtime.BackendName())
	assert.NoError(t, login(address, "nobody", "secret"))

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, runtime.Stop(stopCtx))

	assert.Error(t, login(address, "root", "secret"))
	assert.Empty(t, runtime.BackendName())
}

func TestRuntimeReloadKeepsStackOnError(t *testing.T) {
	runtime := newTestRuntime(t, testConfig(t, ""))

	broken := testConfig(t, "")
	broken.Audit.Sinks = []string{definitions.SinkRedis}

	assert.Error(t, runtime.ApplyConfig(context.Background(), configfx.Snapshot{File: broken, Version: 2}))
	assert.Equal(t, definitions.BackendUserDBName, runtime.BackendName())
	assert.Equal(t, "honeypot", runtime.Name())

	require.NoError(t, runtime.Stop(context.Background()))
}
