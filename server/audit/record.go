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
	"time"

	"github.com/croessner/honeyauth/server/definitions"
)

// Record is the audit evidence of one authentication attempt. For password records at most one of Password and
// EncPassword is non-empty; the secret goes to EncPassword when encryption is configured.
type Record struct {
	Kind          definitions.EventKind
	Session       string
	Username      string
	Password      string
	EncPassword   string
	Fingerprint   string
	KeyType       string
	SourceAddress string
	Timestamp     time.Time
	Sensor        string
}

// event is the serialized form shared by the json and redis sinks.
type event struct {
	EventID     string `json:"eventid"`
	Session     string `json:"session"`
	Username    string `json:"username"`
	Password    *string `json:"password,omitempty"`
	EncPassword *string `json:"encpassword,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	KeyType     string `json:"key_type,omitempty"`
	SourceIP    string `json:"src_ip"`
	Timestamp   string `json:"timestamp"`
	Sensor      string `json:"sensor"`
}

// IsLogin reports whether the record belongs to a password attempt. Login records always carry both password
// fields, even when they are empty.
func (r Record) IsLogin() bool {
	return r.Kind == definitions.EventLoginSuccess || r.Kind == definitions.EventLoginFailed
}

func (r Record) event() event {
	e := event{
		EventID:     r.Kind.String(),
		Session:     r.Session,
		Username:    r.Username,
		Fingerprint: r.Fingerprint,
		KeyType:     r.KeyType,
		SourceIP:    r.SourceAddress,
		Timestamp:   r.Timestamp.UTC().Format(time.RFC3339Nano),
		Sensor:      r.Sensor,
	}

	if r.IsLogin() {
		password, encPassword := r.Password, r.EncPassword
		e.Password, e.EncPassword = &password, &encPassword
	}

	return e
}

// KeyVals returns the record as alternating log keys and values. Fingerprint fields only appear on fingerprint
// records.
func (r Record) KeyVals() []any {
	keyvals := []any{
		definitions.LogKeyEventID, r.Kind.String(),
		definitions.LogKeyGUID, r.Session,
		definitions.LogKeyUsername, r.Username,
	}

	if r.IsLogin() {
		keyvals = append(keyvals, definitions.LogKeyPassword, r.Password, definitions.LogKeyEncPassword, r.EncPassword)
	}

	if r.Fingerprint != "" {
		keyvals = append(keyvals, definitions.LogKeyFingerprint, r.Fingerprint, definitions.LogKeyKeyType, r.KeyType)
	}

	return append(keyvals,
		definitions.LogKeyClientIP, r.SourceAddress,
		definitions.LogKeySensor, r.Sensor,
	)
}
