/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"github.com/Seednode/fingerpick/games/picker"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry *prometheus.Registry

	surfaces   prometheus.Gauge
	countdowns *prometheus.CounterVec
	aborted    prometheus.Counter
	winners    *prometheus.CounterVec
	violations *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		surfaces: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fingerpick",
			Name:      "surfaces_connected",
			Help:      "Touch surfaces currently attached to a game.",
		}),
		countdowns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fingerpick",
			Name:      "countdowns_started_total",
			Help:      "Countdowns started, split by whether they replaced a running one.",
		}, []string{"kind"}),
		aborted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fingerpick",
			Name:      "countdowns_aborted_total",
			Help:      "Countdowns stopped because fewer than two fingers remained.",
		}),
		winners: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fingerpick",
			Name:      "winners_total",
			Help:      "Completed picks by winning color.",
		}, []string{"color"}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fingerpick",
			Name:      "touch_violations_total",
			Help:      "Touch events referencing an untracked identifier.",
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.surfaces,
		m.countdowns,
		m.aborted,
		m.winners,
		m.violations,
	)

	return m
}

func (m *metrics) CountdownStarted(_ int, restart bool) {
	if restart {
		m.countdowns.WithLabelValues("restart").Inc()
		return
	}
	m.countdowns.WithLabelValues("fresh").Inc()
}

func (m *metrics) CountdownAborted() {
	m.aborted.Inc()
}

func (m *metrics) WinnerChosen(c picker.Color) {
	m.winners.WithLabelValues(c.Name).Inc()
}

func (m *metrics) ProtocolViolation(v picker.Violation) {
	m.violations.WithLabelValues(v.Kind).Inc()
}

func registerMetrics(cfg *Config, m *metrics, mux *httprouter.Router) {
	mux.Handler("GET", cfg.prefix+"/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	logf(cfg, "SERVE: Registered metrics handler at %s/metrics", cfg.prefix)
}
