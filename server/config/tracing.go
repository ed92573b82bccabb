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

package config

import (
	"fmt"
)

// TracingSection configures OpenTelemetry tracing.
type TracingSection struct {
	Enabled          bool     `mapstructure:"enabled"`
	Exporter         string   `mapstructure:"exporter" validate:"omitempty,oneof=otlphttp none"`
	Endpoint         string   `mapstructure:"endpoint" validate:"omitempty,hostname_port"`
	Insecure         bool     `mapstructure:"insecure"`
	SamplerRatio     float64  `mapstructure:"sampler_ratio" validate:"omitempty,min=0,max=1"`
	ServiceName      string   `mapstructure:"service_name" validate:"omitempty,max=255"`
	Propagators      []string `mapstructure:"propagators" validate:"omitempty,dive,oneof=tracecontext baggage b3 b3multi jaeger"`
	LogExportResults bool     `mapstructure:"log_export_results"`
}

func (t *TracingSection) String() string {
	if t == nil {
		return "TracingSection: <nil>"
	}

	return fmt.Sprintf("TracingSection: {Enabled: %t, Exporter: %s, Endpoint: %s, SamplerRatio: %.2f}",
		t.Enabled, t.Exporter, t.Endpoint, t.SamplerRatio)
}

func (t *TracingSection) IsEnabled() bool {
	if t == nil {
		return false
	}

	return t.Enabled
}

func (t *TracingSection) GetExporter() string {
	if t == nil || t.Exporter == "" {
		return "otlphttp"
	}

	return t.Exporter
}

func (t *TracingSection) GetEndpoint() string {
	if t == nil {
		return ""
	}

	return t.Endpoint
}

func (t *TracingSection) IsInsecure() bool {
	if t == nil {
		return true
	}

	return t.Insecure
}

// GetSamplerRatio returns the ratio of sampled root spans.
func (t *TracingSection) GetSamplerRatio() float64 {
	if t == nil {
		return 1
	}

	return t.SamplerRatio
}

func (t *TracingSection) GetServiceName() string {
	if t == nil {
		return ""
	}

	return t.ServiceName
}

func (t *TracingSection) GetPropagators() []string {
	if t == nil {
		return nil
	}

	return t.Propagators
}

func (t *TracingSection) IsLogExportResultsEnabled() bool {
	if t == nil {
		return false
	}

	return t.LogExportResults
}
