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

package definitions

import "time"

const (
	// LogKeyGUID represents the session identifier used in log entries.
	LogKeyGUID = "session"

	// LogKeyMsg represents the message content in log entries.
	LogKeyMsg = "msg"

	// LogKeyError represents error information in log entries.
	LogKeyError = "error"

	// LogKeyWarning represents warning information in log entries.
	LogKeyWarning = "warn"

	// LogKeyInstance represents instance identification in log entries.
	LogKeyInstance = "instance"

	// LogKeyUsername represents the username being used for authentication during a session.
	LogKeyUsername = "username"

	// LogKeyClientIP represents the IP address of the client.
	LogKeyClientIP = "src_ip"

	// LogKeyClientPort represents the port number of the client.
	LogKeyClientPort = "src_port"

	// LogKeyEventID represents the audit event identifier.
	LogKeyEventID = "eventid"

	// LogKeyPassword represents the captured cleartext password.
	LogKeyPassword = "password"

	// LogKeyEncPassword represents the asymmetrically encrypted password.
	LogKeyEncPassword = "encpassword"

	// LogKeyFingerprint represents a public key fingerprint.
	LogKeyFingerprint = "fingerprint"

	// LogKeyFingerprintSHA256 represents the SHA256 form of a public key fingerprint.
	LogKeyFingerprintSHA256 = "fingerprint_sha256"

	// LogKeyKeyType represents the algorithm of a public key.
	LogKeyKeyType = "key_type"

	// LogKeyBackend represents the name of a password verification backend.
	LogKeyBackend = "auth_class"

	// LogKeySensor represents the configured sensor name.
	LogKeySensor = "sensor"

	// LogKeyTimestamp represents the time an audit record was created.
	LogKeyTimestamp = "timestamp"

	// LogKeyClientVersion represents the SSH version string of a client.
	LogKeyClientVersion = "client_version"

	// LogKeySink represents the name of an audit sink.
	LogKeySink = "sink"

	// LogKeyAddress represents a listen address.
	LogKeyAddress = "address"

	// LogKeyResult represents the result of an authentication attempt.
	LogKeyResult = "result"
)

// Log level.
const (
	// LogLevelNone is the iota constant representing no logs
	LogLevelNone = iota

	// LogLevelError is the iota constant for error logs
	LogLevelError

	// LogLevelWarn is the iota constant for warning logs
	LogLevelWarn

	// LogLevelInfo is the iota constant for info logs
	LogLevelInfo

	// LogLevelDebug is the iota constant for debug logs
	LogLevelDebug
)

// Supported backends.
const (
	// BackendUnknown represents an unknown backend
	BackendUnknown Backend = iota

	// BackendUserDB represents the rule file backend
	BackendUserDB

	// BackendRandom represents the backend that accepts after a random number of attempts
	BackendRandom

	// BackendLDAP represents an LDAP simple bind backend
	BackendLDAP

	// BackendLua represents a Lua script backend
	BackendLua

	// BackendRedis represents a Redis hash backend
	BackendRedis

	// BackendStatic represents a backend that accepts every attempt
	BackendStatic
)

const (
	// BackendUnknownName refers to an unidentified backend
	BackendUnknownName = "unknown"

	// BackendUserDBName refers to the rule file backend
	BackendUserDBName = "userdb"

	// BackendRandomName refers to the random acceptance backend
	BackendRandomName = "random"

	// BackendLDAPName refers to the LDAP backend
	BackendLDAPName = "ldap"

	// BackendLuaName refers to the Lua backend
	BackendLuaName = "lua"

	// BackendRedisName refers to the Redis backend
	BackendRedisName = "redis"

	// BackendStaticName refers to the accept-all backend
	BackendStaticName = "static"

	// DefaultBackendName is used when auth_class is missing or cannot be resolved.
	DefaultBackendName = BackendUserDBName
)

// Audit events.
const (
	EventUnknown EventKind = iota
	EventLoginSuccess
	EventLoginFailed
	EventFingerprintSeen
)

const (
	// EventLoginSuccessID is the event id of an accepted password.
	EventLoginSuccessID = "login.success"

	// EventLoginFailedID is the event id of a rejected password.
	EventLoginFailedID = "login.failed"

	// EventFingerprintID is the event id of an observed public key.
	EventFingerprintID = "client.fingerprint"
)

// Audit sinks.
const (
	SinkLog     = "log"
	SinkJSON    = "json"
	SinkRedis   = "redis"
	SinkMetrics = "metrics"
)

const (
	// PasswordPrompt is the single keyboard-interactive prompt.
	PasswordPrompt = "Password:"

	// ReasonUnauthorized is the generic rejection reason for password based attempts.
	ReasonUnauthorized = "unauthorized"

	// ReasonSignatureRejected is the rejection reason for public key attempts.
	ReasonSignatureRejected = "signature rejected"

	// ReasonMalformedKey is the rejection reason for unparseable public keys.
	ReasonMalformedKey = "malformed key"

	// PasswordPublicKeySize is the size of a Curve25519 public key in bytes.
	PasswordPublicKeySize = 32
)

// Defaults.
const (
	DefaultInstanceName     = "honeyauth"
	DefaultSensorName       = "honeyauth"
	DefaultSSHAddress       = "0.0.0.0:2222"
	DefaultSSHVersion       = "SSH-2.0-OpenSSH_9.6p1 Ubuntu-3ubuntu13.5"
	DefaultHostKeyFile      = "ssh_host_ed25519_key"
	DefaultHTTPAddress      = "127.0.0.1:9195"
	DefaultRedisAddress     = "127.0.0.1:6379"
	DefaultRedisPrefix      = "honeyauth:"
	DefaultAuditChannel     = "events"
	DefaultLDAPBindDN       = "uid=%s,ou=people,dc=example,dc=org"
	DefaultLuaFunction      = "check_login"
	DefaultRandomMinTry     = 2
	DefaultRandomMaxTry     = 5
	DefaultMaxAuthTries     = 6
	DefaultRandomMaxCache   = time.Hour
	DefaultHandshakeTimeout = 120 * time.Second
	DefaultPromptTimeout    = 30 * time.Second
	DefaultLDAPTimeout      = 5 * time.Second
	DefaultShutdownTimeout  = 10 * time.Second
)

// Prometheus labels.
const (
	PromBackend = "backend"
	PromResult  = "result"
	PromAccept  = "accepted"
	PromReject  = "rejected"
)
