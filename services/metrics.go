package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Humans never see engine failures (rejections are silent by design), so
// internal observability is the only way to diagnose a stuck pipeline.
var (
	heartbeatTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mindclone_heartbeat_ticks_total",
		Help: "Number of heartbeat ticks processed",
	})

	heartbeatErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mindclone_heartbeat_errors_total",
		Help: "Number of per-unit errors collected across heartbeat ticks",
	})

	conversationsAdvanced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mindclone_conversations_advanced_total",
		Help: "Number of conversation rounds produced",
	})

	conversationsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mindclone_conversations_completed_total",
		Help: "Number of conversations that reached completion",
	})

	matchesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mindclone_matches_created_total",
		Help: "Number of new matches created by the scheduler",
	})

	matchesExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mindclone_matches_expired_total",
		Help: "Number of matches expired past their TTL",
	})

	approvalOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mindclone_approval_outcomes_total",
		Help: "Two-sided approval outcomes by side decision",
	}, []string{"side_a", "side_b"})

	decisionFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mindclone_approval_decision_fallbacks_total",
		Help: "Approval decisions that fell back past the strict JSON parse",
	}, []string{"mode"})
)
