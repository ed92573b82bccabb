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

package backend

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/croessner/honeyauth/server/config"
	"github.com/croessner/honeyauth/server/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// glibc SHA-512 crypt test vector for "Hello world!".
const sha512CryptHash = "$6$saltstring$svn8UoSVapNtMuq1ukKS4tPQd8iKwSMHWjl/O817G3uBnIFNjnQJuesI68u4OTLiBFdcbYEdFCoEOfaS35inz1"

func TestDefaultUserDBRules(t *testing.T) {
	userDB, err := ParseUserDB(strings.NewReader(DefaultUserDBRules))
	require.NoError(t, err)

	ctx := context.Background()

	tests := []struct {
		username string
		password string
		expected bool
	}{
		{"root", "toor", true},
		{"root", "root", false},
		{"root", "123456", false},
		{"root", "MyHoneyPot", false},
		{"root", "", true},
		{"tomcat", "tomcat", true},
		{"oracle", "secret", true},
		{"admin", "admin", false},
		{"Root", "toor", false},
	}

	for _, tt := range tests {
		t.Run(tt.username+"/"+tt.password, func(t *testing.T) {
			assert.Equal(t, tt.expected, userDB.CheckLogin(ctx, tt.username, tt.password, "192.0.2.1"))
		})
	}
}

func TestUserDBMatchers(t *testing.T) {
	rules := strings.Join([]string{
		"# comment",
		"",
		"/^adm.*/:x:/^s3cr3t$/",
		"guest:x:/GUEST/i",
		"hashed:x:" + sha512CryptHash,
		"colon:x:pass:word",
		"*:x:!blocked",
		"*:x:letmein",
	}, "\n")

	userDB, err := ParseUserDB(strings.NewReader(rules))
	require.NoError(t, err)

	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		expected bool
	}{
		{"Regex login and password", "administrator", "s3cr3t", true},
		{"Regex password mismatch", "admin", "s3cr3t!", false},
		{"Case-insensitive regex", "guest", "my-guest-pw", true},
		{"Crypt hash match", "hashed", "Hello world!", true},
		{"Crypt hash mismatch", "hashed", "hello world!", false},
		{"Password containing colon", "colon", "pass:word", true},
		{"Deny rule wins", "anyone", "blocked", false},
		{"Wildcard login", "anyone", "letmein", true},
		{"No rule", "anyone", "nothing", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, userDB.CheckLogin(ctx, tt.username, tt.password, ""))
		})
	}
}

func TestParseUserDBErrors(t *testing.T) {
	for _, input := range []string{"root", "root:x", ":x:pw", "/[/:x:pw", "root:x:/[/", "root:x://i", "//i:x:pw", "root:x:!//i"} {
		_, err := ParseUserDB(strings.NewReader(input))

		assert.True(t, stderrors.Is(err, errors.ErrUserDBSyntax), input)
	}
}

func TestNewUserDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "userdb.txt")

	require.NoError(t, os.WriteFile(path, []byte("phil:x:fout\n"), 0o600))

	backend, err := NewUserDB(Deps{Cfg: &config.File{UserDB: &config.UserDBSection{Path: path}}})
	require.NoError(t, err)

	assert.True(t, backend.CheckLogin(context.Background(), "phil", "fout", ""))
	assert.False(t, backend.CheckLogin(context.Background(), "root", "toor", ""))

	backend, err = NewUserDB(Deps{})
	require.NoError(t, err)

	assert.True(t, backend.CheckLogin(context.Background(), "root", "toor", ""))

	_, err = NewUserDB(Deps{Cfg: &config.File{UserDB: &config.UserDBSection{Path: filepath.Join(t.TempDir(), "missing")}}})
	assert.Error(t, err)
}
