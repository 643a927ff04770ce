package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	nodeExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockgraph",
		Name:      "node_executions_total",
		Help:      "Node executions by node name and result.",
	}, []string{"node", "result"})

	nodeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockgraph",
		Name:      "node_duration_seconds",
		Help:      "Wall time spent inside a node.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"node"})

	graphInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockgraph",
		Name:      "graph_invocations_total",
		Help:      "Graph invocations by result.",
	}, []string{"result"})
)

const (
	resultOK    = "ok"
	resultError = "error"
)
