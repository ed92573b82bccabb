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

import "strings"

// Backend is a numeric identifier for a password verification backend.
type Backend uint8

// EventKind is a numeric identifier for an audit event.
type EventKind uint8

func (b Backend) String() string {
	switch b {
	case BackendUserDB:
		return BackendUserDBName
	case BackendRandom:
		return BackendRandomName
	case BackendLDAP:
		return BackendLDAPName
	case BackendLua:
		return BackendLuaName
	case BackendRedis:
		return BackendRedisName
	case BackendStatic:
		return BackendStaticName
	default:
		return BackendUnknownName
	}
}

// ParseBackend returns the Backend for a configured backend identifier. Unknown identifiers map to BackendUnknown.
func ParseBackend(name string) Backend {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case BackendUserDBName:
		return BackendUserDB
	case BackendRandomName:
		return BackendRandom
	case BackendLDAPName:
		return BackendLDAP
	case BackendLuaName:
		return BackendLua
	case BackendRedisName:
		return BackendRedis
	case BackendStaticName:
		return BackendStatic
	default:
		return BackendUnknown
	}
}

func (e EventKind) String() string {
	switch e {
	case EventLoginSuccess:
		return EventLoginSuccessID
	case EventLoginFailed:
		return EventLoginFailedID
	case EventFingerprintSeen:
		return EventFingerprintID
	default:
		return ""
	}
}
