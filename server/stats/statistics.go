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

package stats

import (
	"github.com/croessner/honeyauth/server/definitions"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginsCounter counts password and keyboard-interactive evaluations by result.
	LoginsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logins_total",
			Help: "Number of failed and successful login attempts.",
		},
		[]string{definitions.PromResult})

	// FingerprintsCounter counts observed public keys by key type.
	FingerprintsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fingerprints_total",
			Help: "Number of public key authentication attempts.",
		},
		[]string{"key_type"})

	// BackendResolutionFailures counts configured auth_class values that could not be resolved.
	BackendResolutionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backend_resolution_failures_total",
		Help: "Number of times an unknown auth_class fell back to the default backend.",
	})

	// BackendDuration observes the time spent in backend checks.
	BackendDuration = promauto.NewSummaryVec(prometheus.SummaryOpts{
		Name:       "backend_check_duration_seconds",
		Help:       "Time spent in password backend checks.",
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	}, []string{definitions.PromBackend})

	// SSHConnections counts accepted SSH connections.
	SSHConnections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ssh_connections_total",
		Help: "Number of accepted SSH connections.",
	})

	// AuditSinkErrors counts audit records a sink failed to deliver.
	AuditSinkErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_sink_errors_total",
		Help: "Number of audit records that could not be delivered.",
	}, []string{"sink"})
)

// PrometheusTimer starts a timer for the given backend and returns the function that records the observation.
func PrometheusTimer(backendName string) func() {
	timer := prometheus.NewTimer(BackendDuration.WithLabelValues(backendName))

	return func() {
		timer.ObserveDuration()
	}
}
