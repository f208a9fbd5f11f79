// Package metrics groups the prometheus collectors each role publishes,
// constructed once at process bootstrap and passed in by reference, the
// way the teacher's paxos.ProposerMetrics is built in goshawkdb's
// proposermanager.go rather than registered through globals.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// AcceptorMetrics counts Distinguished Learner notifications sent by one
// Acceptor.
type AcceptorMetrics struct {
	Notifications prometheus.Counter
}

// NewAcceptorMetrics builds and registers an AcceptorMetrics against reg.
func NewAcceptorMetrics(reg prometheus.Registerer, serverId int) *AcceptorMetrics {
	m := &AcceptorMetrics{
		Notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "paxosledger",
			Subsystem:   "acceptor",
			Name:        "distinguished_learner_notifications_total",
			Help:        "Count of UDP accept notifications sent to distinguished learners.",
			ConstLabels: prometheus.Labels{"server_id": itoa(serverId)},
		}),
	}
	reg.MustRegister(m.Notifications)
	return m
}

// ProposerMetrics tracks one Proposer's round activity: rounds started,
// rounds that succeeded, and the wall-clock duration of each completed
// round.
type ProposerMetrics struct {
	RoundsStarted   prometheus.Counter
	RoundsSucceeded prometheus.Counter
	RoundDuration   prometheus.Histogram
}

// NewProposerMetrics builds and registers a ProposerMetrics against reg.
func NewProposerMetrics(reg prometheus.Registerer, serverId int) *ProposerMetrics {
	labels := prometheus.Labels{"server_id": itoa(serverId)}
	m := &ProposerMetrics{
		RoundsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "paxosledger", Subsystem: "proposer",
			Name: "rounds_started_total", Help: "Count of election rounds started.",
			ConstLabels: labels,
		}),
		RoundsSucceeded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "paxosledger", Subsystem: "proposer",
			Name: "rounds_succeeded_total", Help: "Count of election rounds that reached a majority Accept.",
			ConstLabels: labels,
		}),
		RoundDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "paxosledger", Subsystem: "proposer",
			Name: "round_duration_seconds", Help: "Wall-clock duration of completed election rounds.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.RoundsStarted, m.RoundsSucceeded, m.RoundDuration)
	return m
}

// ServerMetrics tracks leader-change and heartbeat activity observed by
// one Server.
type ServerMetrics struct {
	LeaderChanges   prometheus.Counter
	HeartbeatMisses prometheus.Counter
	LeaderLosses    prometheus.Counter
}

// NewServerMetrics builds and registers a ServerMetrics against reg.
func NewServerMetrics(reg prometheus.Registerer, serverId int) *ServerMetrics {
	labels := prometheus.Labels{"server_id": itoa(serverId)}
	m := &ServerMetrics{
		LeaderChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "paxosledger", Subsystem: "server",
			Name: "leader_changes_total", Help: "Count of ChangeLeader calls observed.",
			ConstLabels: labels,
		}),
		HeartbeatMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "paxosledger", Subsystem: "server",
			Name: "heartbeat_misses_total", Help: "Count of missed or timed-out heartbeats to the leader.",
			ConstLabels: labels,
		}),
		LeaderLosses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "paxosledger", Subsystem: "server",
			Name: "leader_losses_total", Help: "Count of HandleLeaderLoss invocations.",
			ConstLabels: labels,
		}),
	}
	reg.MustRegister(m.LeaderChanges, m.HeartbeatMisses, m.LeaderLosses)
	return m
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
