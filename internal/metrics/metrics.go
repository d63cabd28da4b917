package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "chatclient"

var (
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Entity cache lookups by kind and result (hit, miss, disabled, error).",
	}, []string{"kind", "result"})

	CacheWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "writes_total",
		Help:      "Entity cache writes by kind and operation.",
	}, []string{"kind", "op"})

	HubEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "hub",
		Name:      "events_total",
		Help:      "Gateway events handled by the hub by event name and result.",
	}, []string{"event", "result"})

	Commands = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dispatch",
		Name:      "commands_total",
		Help:      "Message commands by operation and result (ok, rejected, failed).",
	}, []string{"op", "result"})

	RestRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rest",
		Name:      "requests_total",
		Help:      "REST requests by bucket and status code.",
	}, []string{"bucket", "status"})

	RestRateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rest",
		Name:      "rate_limited_total",
		Help:      "429 replies by scope (bucket, global).",
	}, []string{"scope"})
)
