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
	"context"

	"github.com/croessner/honeyauth/server/definitions"
	"github.com/croessner/honeyauth/server/stats"
)

// MetricsSink counts records in the prometheus collectors of package stats.
type MetricsSink struct{}

func (MetricsSink) Emit(_ context.Context, record Record) error {
	switch record.Kind {
	case definitions.EventLoginSuccess:
		stats.LoginsCounter.WithLabelValues(definitions.PromAccept).Inc()
	case definitions.EventLoginFailed:
		stats.LoginsCounter.WithLabelValues(definitions.PromReject).Inc()
	case definitions.EventFingerprintSeen:
		stats.FingerprintsCounter.WithLabelValues(record.KeyType).Inc()
	}

	return nil
}
