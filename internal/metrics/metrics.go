// Package metrics holds Prometheus instruments that are used across the
// core.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ScopeRewritesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scope_rewrites_total",
			Help: "Operations whose filter or payload received the ambient tenant ID.",
		})

	BypassOpsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bypass_ops_total",
			Help: "Tenant-scoped operations executed with isolation bypass set.",
		})

	MissingContextTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "missing_tenant_context_total",
			Help: "Tenant-scoped operations rejected for lack of an ambient context.",
		})

	AuditViolationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_violations_total",
			Help: "Update or delete attempts rejected by the audit append-only guard.",
		})

	TransitionDenialsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "transition_denials_total",
			Help: "State moves refused by a lifecycle transition table.",
		})

	SequenceMintsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sequence_mints_total",
			Help: "Per-tenant sequence numbers minted for human-readable identifiers.",
		})

	ActiveTenantRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_tenant_records",
			Help: "Number of tenant records currently cached in memory.",
		})

	TenantLookupTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_lookup_total",
			Help: "Cumulative number of tenant records successfully loaded.",
		})

	TenantLookupErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_lookup_errors_total",
			Help: "Cumulative number of tenant record lookup errors.",
		})

	TenantEvictTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_evict_total",
			Help: "Cumulative number of tenant records evicted from the cache.",
		})
)

func init() {
	prometheus.MustRegister(
		ScopeRewritesTotal,
		BypassOpsTotal,
		MissingContextTotal,
		AuditViolationsTotal,
		TransitionDenialsTotal,
		SequenceMintsTotal,
		ActiveTenantRecords,
		TenantLookupTotal,
		TenantLookupErrorsTotal,
		TenantEvictTotal,
	)
}
