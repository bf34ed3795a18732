// Package metrics collects and exposes Prometheus metrics for the identity flow.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the service layer reports to.
type Recorder interface {
	CodeIssued(channel string)
	DeliveryFailed(channel string)
	CodeVerified(channel string, ok bool)
	RegistrationOutcome(outcome string)
	LoginOutcome(outcome string)
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	codesIssued      *prometheus.CounterVec
	deliveryFailures *prometheus.CounterVec
	verifications    *prometheus.CounterVec
	registrations    *prometheus.CounterVec
	logins           *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		codesIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pesa_verification_codes_issued_total",
			Help: "Verification codes stored, by channel.",
		}, []string{"channel"}),
		deliveryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pesa_verification_delivery_failures_total",
			Help: "Verification code deliveries that failed, by channel.",
		}, []string{"channel"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pesa_verification_attempts_total",
			Help: "Verification attempts, by channel and result.",
		}, []string{"channel", "result"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pesa_registrations_total",
			Help: "Registration orchestrator outcomes.",
		}, []string{"outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pesa_logins_total",
			Help: "Login outcomes.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		c.codesIssued,
		c.deliveryFailures,
		c.verifications,
		c.registrations,
		c.logins,
	)

	return c
}

func (c *Collector) CodeIssued(channel string) {
	c.codesIssued.WithLabelValues(channel).Inc()
}

func (c *Collector) DeliveryFailed(channel string) {
	c.deliveryFailures.WithLabelValues(channel).Inc()
}

func (c *Collector) CodeVerified(channel string, ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	c.verifications.WithLabelValues(channel, result).Inc()
}

func (c *Collector) RegistrationOutcome(outcome string) {
	c.registrations.WithLabelValues(outcome).Inc()
}

func (c *Collector) LoginOutcome(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Nop discards everything. Used when metrics are not wired, e.g. in tests.
type Nop struct{}

func (Nop) CodeIssued(string)          {}
func (Nop) DeliveryFailed(string)      {}
func (Nop) CodeVerified(string, bool)  {}
func (Nop) RegistrationOutcome(string) {}
func (Nop) LoginOutcome(string)        {}
