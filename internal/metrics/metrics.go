package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TripsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ridepulse", Name: "trips_created_total", Help: "Total number of trips created"})

	AcceptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ridepulse", Name: "accepts_total", Help: "Accept attempts by outcome"},
		[]string{"outcome"}, // won | lost | rejected
	)

	TripsByTerminalStatus = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ridepulse", Name: "trips_terminal_total", Help: "Trips reaching a terminal status"},
		[]string{"status"}, // completed | cancelled
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ridepulse", Name: "notifications_total", Help: "WebSocket notifications by outcome"},
		[]string{"outcome"}, // delivered | dropped
	)

	RatingsSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ridepulse", Name: "ratings_submitted_total", Help: "Total ratings stored"})

	ConnectedParties = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "ridepulse", Name: "connected_parties", Help: "Live WebSocket connections"})

	RoutingLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ridepulse",
		Name:      "routing_latency_seconds",
		Help:      "Route resolution latency distribution",
		Buckets:   prometheus.DefBuckets,
	})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ridepulse", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ridepulse",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
