// Package metrics holds Prometheus instruments that are used across the
// service.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SettingsResolveTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "settings_resolve_total",
			Help: "Cumulative number of completed settings resolution passes.",
		})

	SettingsResolveErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "settings_resolve_errors_total",
			Help: "Cumulative number of failed settings resolution passes.",
		})

	SettingsCacheHitTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "settings_cache_hit_total",
			Help: "Cumulative number of settings served from the cache.",
		})

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Cumulative HTTP requests by method and status code.",
		},
		[]string{"method", "code"},
	)
)

func init() {
	prometheus.MustRegister(
		SettingsResolveTotal,
		SettingsResolveErrorsTotal,
		SettingsCacheHitTotal,
		HTTPRequestsTotal,
	)
}
