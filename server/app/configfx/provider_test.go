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

package configfx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/croessner/honeyauth/server/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, path string, sensor string) {
	t.Helper()

	content := "honeypot:\n  sensor_name: " + sensor + "\n"

	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestProviderReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "honeyauth.yml")

	writeConfig(t, path, "sensor-a")

	p, err := NewProvider(func() (*config.File, error) {
		return config.NewConfigFile(path, nil)
	})
	require.NoError(t, err)

	first := p.Current()
	assert.Equal(t, uint64(1), first.Version)
	assert.Equal(t, "sensor-a", first.File.GetHoneypot().GetSensorName())

	writeConfig(t, path, "sensor-b")

	next, err := p.Reload()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), next.Version)
	assert.Equal(t, "sensor-b", p.Current().File.GetHoneypot().GetSensorName())

	// The previous snapshot is immutable.
	assert.Equal(t, "sensor-a", first.File.GetHoneypot().GetSensorName())
}

func TestProviderReloadKeepsSnapshotOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "honeyauth.yml")

	writeConfig(t, path, "sensor-a")

	p, err := NewProvider(func() (*config.File, error) {
		return config.NewConfigFile(path, nil)
	})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("ssh:\n  max_auth_tries: -1\n"), 0o600))

	snap, err := p.Reload()
	assert.Error(t, err)
	assert.Equal(t, uint64(1), snap.Version)
	assert.Equal(t, "sensor-a", p.Current().File.GetHoneypot().GetSensorName())
}

func TestNewProviderFails(t *testing.T) {
	_, err := NewProvider(func() (*config.File, error) {
		return config.NewConfigFile(filepath.Join(t.TempDir(), "missing.yml"), nil)
	})

	assert.Error(t, err)
}
