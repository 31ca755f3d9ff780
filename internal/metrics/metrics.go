// Package metrics holds the Prometheus collectors for the CRM core.
// Collectors register with the default registry on package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "crm"

// MutationsTotal counts audited mutations.
// Label:
//   - action: audit action tag (e.g. "add_customer")
var MutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mutations_total",
		Help:      "Total number of audited mutations, by action.",
	},
	[]string{"action"},
)

// AuditWriteFailuresTotal counts audit entries that could not be written.
// The mutation they describe is kept regardless.
var AuditWriteFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_write_failures_total",
		Help:      "Total number of audit log entries that failed to persist.",
	},
)

// BackupsTotal counts backup attempts.
// Label:
//   - result: "ok", "rejected", "failed" or "timeout"
var BackupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backups_total",
		Help:      "Total number of backup attempts, by result.",
	},
	[]string{"result"},
)

// LoginsTotal counts authentication attempts.
// Label:
//   - result: "ok" or "failed"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of authentication attempts, by result.",
	},
	[]string{"result"},
)

// BackupDuration observes how long each backup attempt took, including
// clone and push.
var BackupDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backup_duration_seconds",
		Help:      "Duration of backup attempts in seconds.",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
	},
)
