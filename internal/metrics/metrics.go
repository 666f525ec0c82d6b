package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spendguard_requests_enqueued_total",
		Help: "Total number of approval requests placed on the evaluation queue.",
	})

	RequestsEvaluated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spendguard_requests_evaluated_total",
		Help: "Total number of approval requests fully evaluated.",
	})

	RequestsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spendguard_requests_dropped_total",
		Help: "Total number of approval requests rejected due to a full queue.",
	})

	RuleMatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spendguard_rule_matches_total",
		Help: "Total number of decisions per matching rule; unmatched requests use rule_id=\"none\".",
	}, []string{"rule_id"})

	Outcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spendguard_outcomes_total",
		Help: "Total number of decisions, labelled by outcome status.",
	}, []string{"status"})

	PurchaseChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spendguard_purchase_checks_total",
		Help: "Total number of spending-limit checks, labelled by result (allowed, warned, blocked).",
	}, []string{"result"})

	PolicyReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spendguard_policy_reloads_total",
		Help: "Total number of policy reload attempts, labelled by result.",
	}, []string{"result"})

	EvaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "spendguard_evaluation_duration_ms",
		Help:    "Rule evaluation and dispatch latency in milliseconds.",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 25, 50, 100, 250, 1000},
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spendguard_queue_utilization_ratio",
		Help: "Current evaluation queue utilization (0–1).",
	})
)
