package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// NewRegisterer returns the registry application metrics are registered on.
// Go runtime, process and gorm pool metrics stay on the default registry;
// /metrics serves both.
func NewRegisterer() (*prometheus.Registry, prometheus.Registerer, prometheus.Gatherer) {
	reg := prometheus.NewRegistry()
	return reg, reg, reg
}
