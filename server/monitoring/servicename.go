// Copyright (C) 2025 Christian Rößner
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

package monitoring

import (
	"net"
	"os"
	"strings"

	"github.com/croessner/honeyauth/server/definitions"
)

// ResolveServiceName returns the first candidate that is set and is not an IP address. The host name and
// definitions.DefaultInstanceName are tried last.
func ResolveServiceName(candidates ...string) string {
	for _, candidate := range candidates {
		if name, ok := serviceName(candidate); ok {
			return name
		}
	}

	if host, err := os.Hostname(); err == nil {
		if name, ok := serviceName(host); ok {
			return name
		}
	}

	return definitions.DefaultInstanceName
}

func serviceName(candidate string) (string, bool) {
	name := strings.TrimSpace(candidate)
	if name == "" {
		return "", false
	}

	host := name
	if h, _, err := net.SplitHostPort(name); err == nil {
		host = h
	}

	if net.ParseIP(strings.Trim(host, "[]")) != nil {
		return "", false
	}

	return name, true
}
