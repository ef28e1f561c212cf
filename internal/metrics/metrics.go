// Package metrics holds the prometheus collectors for engine outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LikesTotal counts like attempts by result: created, duplicate, forbidden, invalid.
	LikesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "community_likes_total",
		Help: "Like attempts by result",
	}, []string{"result"})

	// MatchesCreated counts matches inserted for the first time.
	MatchesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "community_matches_created_total",
		Help: "Matches created",
	})

	// ConversationsCreated counts conversations inserted for the first time.
	ConversationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "community_conversations_created_total",
		Help: "Conversations created",
	})

	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "community_messages_sent_total",
		Help: "Messages persisted",
	})

	// ModerationActions counts block, unblock and report calls that changed state.
	ModerationActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "community_moderation_actions_total",
		Help: "Moderation actions by type",
	}, []string{"action"})

	// ViewsRecorded counts impressions by outcome: recorded, failed.
	ViewsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "community_views_total",
		Help: "Impressions by outcome",
	}, []string{"outcome"})

	// RequestDuration tracks HTTP latency by route and status class.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "community_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "status"})
)
