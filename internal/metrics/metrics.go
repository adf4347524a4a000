package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PurchasesRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bundlehub_purchases_recorded_total",
		Help: "Purchase records written to the unified index.",
	})

	DuplicateFulfillments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bundlehub_duplicate_fulfillments_total",
		Help: "Fulfillment attempts short-circuited by the idempotency check.",
	}, []string{"trigger"}) // webhook | verify | poll | reconciler

	AnonymousRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bundlehub_anonymous_rejections_total",
		Help: "Fulfillment events rejected for missing buyer identity.",
	})

	QuotaSkips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bundlehub_content_quota_skips_total",
		Help: "Candidate content items skipped by tier quota.",
	})

	ReconcilerUpserts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bundlehub_reconciler_upserts_total",
		Help: "Legacy purchases forward-filled into the unified index.",
	})
)
