//
// metrics.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package actor

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the OT pool actors. A nil
// *Metrics records nothing.
type Metrics struct {
	requests       *prometheus.CounterVec
	verifyFailures *prometheus.CounterVec
	consumed       *prometheus.GaugeVec
	total          *prometheus.GaugeVec
	duration       *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them to reg.
// Collectors already registered to reg are reused so that many
// actor pairings can share one registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		requests: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "otpool",
				Name:      "requests_total",
				Help:      "Number of control requests by result class.",
			}, []string{"role", "op", "class"})),
		verifyFailures: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "otpool",
				Name:      "verification_failures_total",
				Help:      "Number of failed committed OT verifications.",
			}, []string{"role"})),
		consumed: register(reg, prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "otpool",
				Name:      "pool_consumed",
				Help:      "Number of consumed pool positions.",
			}, []string{"role", "actor"})),
		total: register(reg, prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "otpool",
				Name:      "pool_total",
				Help:      "Number of provisioned pool positions.",
			}, []string{"role", "actor"})),
		duration: register(reg, prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "otpool",
				Name:      "request_duration_seconds",
				Help:      "Duration of control requests.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
			}, []string{"role", "op"})),
	}
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *Metrics) observe(role, op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(role, op, Classify(err)).Inc()
	m.duration.WithLabelValues(role, op).Observe(time.Since(start).Seconds())
	if errors.Is(err, ErrVerificationFailed) {
		m.verifyFailures.WithLabelValues(role).Inc()
	}
}

func (m *Metrics) setPool(role, actor string, total, consumed int) {
	if m == nil {
		return
	}
	m.total.WithLabelValues(role, actor).Set(float64(total))
	m.consumed.WithLabelValues(role, actor).Set(float64(consumed))
}
