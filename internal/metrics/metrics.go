// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	PresenceHeartbeats = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "presence_heartbeats_total",
		Help: "Presence heartbeats by context.",
	}, []string{"context"})

	PermissionDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "access_denials_total",
		Help: "Requests refused by the access policy, by feature and action.",
	}, []string{"feature", "action"})
)
