package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Chat metrics for monitoring message lifecycle and delivery
var (
	ChatMessageCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_message_created_total",
		Help: "Total number of messages created",
	}, []string{"message_type", "sender_role"})

	ChatMessageDeletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_message_deleted_total",
		Help: "Total number of messages deleted",
	}, []string{"mode"}) // "single", "bulk", "conversation"

	ChatMessagePublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_message_published_total",
		Help: "Total number of message events published to Redis",
	}, []string{"status"})

	ChatMessageSendUnauthorizedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_message_send_unauthorized_total",
		Help: "Total number of messages rejected due to unauthorized access",
	})

	ChatUploadRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_upload_rejected_total",
		Help: "Total number of attachment uploads rejected by validation",
	}, []string{"reason"}) // "size", "extension"
)

// Analytics metrics for monitoring recomputation batches
var (
	AnalyticsRecalculationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_recalculation_total",
		Help: "Total number of analytics recomputations",
	}, []string{"scope", "status"}) // scope: "client", "admin_month"

	AnalyticsRecalculationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "analytics_recalculation_duration_seconds",
		Help:    "Time taken by a full analytics recalculation batch",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})
)
