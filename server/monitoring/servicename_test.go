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
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveServiceName(t *testing.T) {
	host, _ := os.Hostname()

	tests := []struct {
		name       string
		candidates []string
		expected   string
	}{
		{name: "tracing name wins", candidates: []string{"collector-name", "sensor-1", "honeyauth"}, expected: "collector-name"},
		{name: "sensor after empty tracing name", candidates: []string{"", "sensor-1", "honeyauth"}, expected: "sensor-1"},
		{name: "ipv4 skipped", candidates: []string{"192.0.2.1", "sensor-1"}, expected: "sensor-1"},
		{name: "ipv4 with port skipped", candidates: []string{"192.0.2.1:2222", "sensor-1"}, expected: "sensor-1"},
		{name: "bracketed ipv6 skipped", candidates: []string{"[2001:db8::1]", "sensor-1"}, expected: "sensor-1"},
		{name: "blank skipped", candidates: []string{"  ", "sensor-1"}, expected: "sensor-1"},
		{name: "trimmed", candidates: []string{" sensor-1 "}, expected: "sensor-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveServiceName(tt.candidates...))
		})
	}

	fallback := ResolveServiceName("", "198.51.100.7")

	if name, ok := serviceName(host); ok {
		assert.Equal(t, name, fallback)
	} else {
		assert.Equal(t, "honeyauth", fallback)
	}
}
