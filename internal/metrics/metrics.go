// Package metrics holds the prometheus collectors of the relay.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Reasons used as label values.
const (
	ReasonStopped     = "stopped"
	ReasonUnreachable = "unreachable"
	ReasonTransport   = "transport"

	ResultSent   = "sent"
	ResultFailed = "failed"
)

var (
	MatchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "anonmatch_matches_total",
			Help: "Total number of sessions started.",
		},
	)
	MessagesRelayedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "anonmatch_messages_relayed_total",
			Help: "Total number of text messages delivered to a partner.",
		},
	)
	RelayFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anonmatch_relay_failures_total",
			Help: "Relay attempts that were not delivered.",
		},
		[]string{"reason"},
	)
	SessionsEndedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anonmatch_sessions_ended_total",
			Help: "Sessions ended, by reason.",
		},
		[]string{"reason"},
	)
	BroadcastMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anonmatch_broadcast_messages_total",
			Help: "Admin broadcast deliveries, by result.",
		},
		[]string{"result"},
	)
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "anonmatch_active_sessions",
			Help: "Number of currently paired sessions held in memory.",
		},
	)
	WaitingUsers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "anonmatch_waiting_users",
			Help: "Number of users in the waiting set.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		MatchesTotal,
		MessagesRelayedTotal,
		RelayFailuresTotal,
		SessionsEndedTotal,
		BroadcastMessagesTotal,
		ActiveSessions,
		WaitingUsers,
	)
}
