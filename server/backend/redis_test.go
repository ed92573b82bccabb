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
	"testing"

	"github.com/croessner/honeyauth/server/config"
	"github.com/croessner/honeyauth/server/errors"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCheckLogin(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cfg := &config.File{Redis: &config.RedisSection{Prefix: "test:"}}

	backend, err := NewRedis(Deps{Cfg: cfg, Redis: db})
	require.NoError(t, err)

	ctx := context.Background()
	key := "test:" + RedisUserDBKey

	tests := []struct {
		name     string
		username string
		password string
		setup    func()
		expected bool
	}{
		{
			name:     "Literal match",
			username: "root",
			password: "toor",
			setup:    func() { mock.ExpectHGet(key, "root").SetVal("toor") },
			expected: true,
		},
		{
			name:     "Literal mismatch",
			username: "root",
			password: "root",
			setup:    func() { mock.ExpectHGet(key, "root").SetVal("toor") },
		},
		{
			name:     "Wildcard",
			username: "admin",
			password: "anything",
			setup:    func() { mock.ExpectHGet(key, "admin").SetVal("*") },
			expected: true,
		},
		{
			name:     "Deny rule",
			username: "admin",
			password: "admin",
			setup:    func() { mock.ExpectHGet(key, "admin").SetVal("!admin") },
		},
		{
			name:     "Unknown user",
			username: "nobody",
			password: "x",
			setup:    func() { mock.ExpectHGet(key, "nobody").RedisNil() },
		},
		{
			name:     "Redis error",
			username: "root",
			password: "toor",
			setup:    func() { mock.ExpectHGet(key, "root").SetErr(stderrors.New("connection refused")) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()

			assert.Equal(t, tt.expected, backend.CheckLogin(ctx, tt.username, tt.password, "192.0.2.1"))
		})
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewRedisWithoutClient(t *testing.T) {
	_, err := NewRedis(Deps{})

	assert.True(t, stderrors.Is(err, errors.ErrRedisBackend))
}
