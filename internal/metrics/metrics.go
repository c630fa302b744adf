// Package metrics provides Prometheus metrics for registration admission.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Labels stay low-cardinality: no event, registration or registrant ids.
var (
	// AdmissionDecisionTotal counts admission decisions by outcome and reason.
	AdmissionDecisionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "semreg_admission_decision_total",
		Help: "Total number of admission decisions, by outcome and reason.",
	}, []string{"outcome", "reason"})

	// SeatsRegisteredTotal counts seats handed out by registration status.
	SeatsRegisteredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "semreg_seats_registered_total",
		Help: "Total number of seats registered, by status (regular/waiting_list).",
	}, []string{"status"})

	// UnregistrationTotal counts soft-deleted registrations by status.
	UnregistrationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "semreg_unregistration_total",
		Help: "Total number of removed registrations, by status.",
	}, []string{"status"})

	// PromotionTotal counts waiting-list promotions.
	PromotionTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "semreg_queue_promotion_total",
		Help: "Total number of waiting-list registrations promoted to regular.",
	})

	// ConcurrencyConflictTotal counts lost counter races.
	ConcurrencyConflictTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "semreg_concurrency_conflict_total",
		Help: "Total number of registration transactions that lost a counter race.",
	})

	// NotificationTotal counts notifications by kind and result.
	NotificationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "semreg_notification_total",
		Help: "Total number of notifications handed to the notifier, by kind and result (sent/failed).",
	}, []string{"kind", "result"})
)

// RecordDecision increments the decision counter.
func RecordDecision(outcome, reason string) {
	if reason == "" {
		reason = "none"
	}
	AdmissionDecisionTotal.WithLabelValues(outcome, reason).Inc()
}

// RecordSeats adds seats to the registered seats counter.
func RecordSeats(status string, seats int) {
	SeatsRegisteredTotal.WithLabelValues(status).Add(float64(seats))
}

// RecordUnregistration increments the unregistration counter.
func RecordUnregistration(status string) {
	UnregistrationTotal.WithLabelValues(status).Inc()
}

// RecordPromotion increments the promotion counter.
func RecordPromotion() {
	PromotionTotal.Inc()
}

// RecordConcurrencyConflict increments the conflict counter.
func RecordConcurrencyConflict() {
	ConcurrencyConflictTotal.Inc()
}

// RecordNotification increments the notification counter.
func RecordNotification(kind string, ok bool) {
	result := "sent"
	if !ok {
		result = "failed"
	}
	NotificationTotal.WithLabelValues(kind, result).Inc()
}
