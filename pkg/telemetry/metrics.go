// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package telemetry exposes the gateway's Prometheus metric set.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the gateway metric set on a dedicated registry, so tests can
// construct isolated instances without default-registry collisions.
type Metrics struct {
	registry *prometheus.Registry

	sessionsActive  prometheus.Gauge
	sessionsCreated prometheus.Counter
	sessionsExpired prometheus.Counter
	toolCalls       *prometheus.CounterVec
}

// NewMetrics creates and registers the metric set.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gateway_sessions_active",
			Help: "Number of live sessions.",
		}),
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gateway_sessions_created_total",
			Help: "Total sessions created.",
		}),
		sessionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gateway_sessions_expired_total",
			Help: "Total sessions removed by the expiry sweep.",
		}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_tool_calls_total",
			Help: "Tool calls executed, by provider namespace and outcome.",
		}, []string{"namespace", "outcome"}),
	}
	registry.MustRegister(m.sessionsActive, m.sessionsCreated, m.sessionsExpired, m.toolCalls)
	return m
}

// Handler serves the metric set in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SessionCreated implements session.Observer.
func (m *Metrics) SessionCreated() {
	m.sessionsCreated.Inc()
	m.sessionsActive.Inc()
}

// SessionsExpired implements session.Observer.
func (m *Metrics) SessionsExpired(n int) {
	m.sessionsExpired.Add(float64(n))
	m.sessionsActive.Sub(float64(n))
}

// ToolCallObserved implements router.Metrics.
func (m *Metrics) ToolCallObserved(namespace string, isError bool) {
	outcome := "success"
	if isError {
		outcome = "error"
	}
	m.toolCalls.WithLabelValues(namespace, outcome).Inc()
}
