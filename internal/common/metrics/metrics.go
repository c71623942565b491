package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TendersCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenders_created_total",
			Help: "Total number of tenders published",
		},
		[]string{"category", "urgency"},
	)

	BidsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bids_submitted_total",
			Help: "Total number of bids admitted",
		},
		[]string{"category"},
	)

	BidConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bid_conflicts_total",
			Help: "Total number of duplicate bid submissions rejected",
		},
	)

	BidsSelected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bids_selected_total",
			Help: "Total number of winning bids selected",
		},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of match notifications by channel and outcome",
		},
		[]string{"channel", "status"},
	)

	DispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "dispatch_duration_seconds",
			Help: "Duration of one notification dispatch run in seconds",
		},
	)

	CandidatesFound = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_candidates_found",
			Help:    "Number of qualified candidates per tender",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)
)
