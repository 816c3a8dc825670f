// Package metrics defines and registers the custom Prometheus metrics of the
// SmartSprint service. It is the single source of truth for metric names, labels,
// and help strings.
//
// All metrics are registered with the default registry at package init via
// promauto; HTTP request metrics come from echoprometheus in the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "smartsprint"

// ── Authentication ───────────────────────────────────────────────────────────

// AuthAttemptsTotal counts register/login outcomes.
// Labels:
//   - operation: "register" or "login"
//   - result: "success", "invalid_credentials", "conflict", "invalid", "throttled", "error"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total register and login attempts, by outcome.",
	},
	[]string{"operation", "result"},
)

// AuthGateRejectionsTotal counts requests the auth gate turned away.
// Label:
//   - reason: "missing_token", "malformed", "expired", "invalid_signature", "unknown_subject", "store_error"
var AuthGateRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_gate_rejections_total",
		Help:      "Total requests rejected by the authentication gate, by reason.",
	},
	[]string{"reason"},
)

// GuardDecisionsTotal counts role guard outcomes.
// Label:
//   - result: "allowed" or "forbidden"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total access policy guard decisions, by result.",
	},
	[]string{"result"},
)

// PasswordHashDuration measures bcrypt work per operation.
// Label:
//   - op: "hash" or "verify"
var PasswordHashDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "password_hash_duration_seconds",
		Help:      "Duration of password hash and verify operations.",
		Buckets:   []float64{.01, .025, .05, .075, .1, .15, .25, .5, 1},
	},
	[]string{"op"},
)

// ── Audit trail ──────────────────────────────────────────────────────────────

// AuditEventsTotal counts audit events by type and outcome.
// Labels:
//   - type: the audit event type (e.g. "login_failed")
//   - result: "persisted", "dropped", or "error"
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total auth audit events, by type and outcome.",
	},
	[]string{"type", "result"},
)

// AuditQueueDepth tracks pending events per dispatcher worker.
// Label:
//   - worker_id: numeric worker index
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
