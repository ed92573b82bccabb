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

package errors

import (
	"errors"
)

// DetailedError annotates a sentinel error with details. WithDetail returns a copy that wraps the receiver, so
// shared sentinels are never mutated and errors.Is keeps matching.
type DetailedError struct {
	err     error
	details string
}

// Error returns the sentinel text followed by the details, if any.
func (d *DetailedError) Error() string {
	if d.details == "" {
		return d.message()
	}

	return d.message() + ": " + d.details
}

func (d *DetailedError) message() string {
	if parent, ok := d.err.(*DetailedError); ok {
		return parent.message()
	}

	return d.err.Error()
}

func (d *DetailedError) Unwrap() error {
	return d.err
}

func (d *DetailedError) WithDetail(detail string) *DetailedError {
	if d == nil {
		return nil
	}

	return &DetailedError{err: d, details: detail}
}

func (d *DetailedError) GetDetails() string {
	return d.details
}

func NewDetailedError(err string) *DetailedError {
	return &DetailedError{err: errors.New(err)}
}

// checker.

var (
	ErrMalformedKey        = errors.New("malformed public key")
	ErrUnauthorizedLogin   = errors.New("unauthorized login")
	ErrUnhandledCredential = errors.New("unhandled credential")
	ErrConversation        = errors.New("conversation failed")
)

// backend.

var (
	ErrBackendNotFound   = errors.New("auth_class not found")
	ErrBackendRegistered = errors.New("auth_class already registered")
	ErrNoDefaultBackend  = errors.New("default auth_class not registered")
	ErrUserDBSyntax      = errors.New("userdb syntax error")
	ErrRandomRange       = errors.New("random backend: min_try must not exceed max_try")
)

// crypto.

var (
	ErrCryptoConfig = errors.New("invalid pw_pubkey")
	ErrEncryption   = errors.New("password encryption failed")
	ErrDecryption   = errors.New("password decryption failed")
)

// env.

var (
	ErrWrongVerboseLevel = errors.New("wrong verbose level")
	ErrUnknownAuthClass  = errors.New("unknown auth_class")
	ErrUnknownSink       = errors.New("unknown audit sink")
)

// ldap.

var (
	ErrLDAPConnect = NewDetailedError("ldap_servers_connect_error")
	ErrLDAPConfig  = NewDetailedError("ldap_config_error")
)

// lua.

var (
	ErrLuaConfig  = NewDetailedError("lua_config_error")
	ErrBackendLua = NewDetailedError("script_execution_failed")
)

// redis.

var (
	ErrRedisBackend = NewDetailedError("redis_backend_error")
)

// ssh.

var (
	ErrHostKey        = errors.New("unable to load ssh host key")
	ErrSSHTimeouts    = errors.New("ssh.prompt_timeout must be shorter than ssh.handshake_timeout")
	ErrNoSSHBanner    = errors.New("no ssh identification received")
	ErrSSHHealthcheck = errors.New("ssh listener healthcheck failed")
)
