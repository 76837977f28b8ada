package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "blog"

var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "histogram of http request durations by route and status",
		Buckets:   prometheus.ExponentialBucketsRange(0.001, 10, 15),
	}, []string{"method", "route", "status"})

	StoriesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stories_created_total",
		Help:      "total stories created",
	})

	FeedCompositions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_compositions_total",
		Help:      "total feed compositions by kind and status",
	}, []string{"kind", "status"})

	StoriesPurged = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stories_purged_total",
		Help:      "total expired stories removed by the purger, by status",
	}, []string{"status"})

	FollowCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "follow_cache_lookups_total",
		Help:      "follow-set cache lookups by result",
	}, []string{"result"})
)
