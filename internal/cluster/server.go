// Package cluster implements the Server role: client request dispatch,
// leader forwarding, heartbeat monitoring, and the leader-loss →
// re-election sequence of spec.md §4.5.
package cluster

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/go-kit/kit/log"

	"github.com/hanzhe-sun/paxosledger/internal/ledger"
	"github.com/hanzhe-sun/paxosledger/internal/logutil"
	"github.com/hanzhe-sun/paxosledger/internal/metrics"
	"github.com/hanzhe-sun/paxosledger/internal/netutil"
	"github.com/hanzhe-sun/paxosledger/internal/paxos"
	"github.com/hanzhe-sun/paxosledger/internal/wire"
)

// Timeouts groups the Server's configurable delays from spec.md §4.1.
type Timeouts struct {
	HeartbeatInterval  time.Duration
	HeartbeatLossLimit time.Duration
	PostLossWait       time.Duration
	HeartbeatRoundTrip time.Duration
	ForwardRoundTrip   time.Duration
}

// DefaultTimeouts mirrors the spec's defaults (10s/30s/10s).
func DefaultTimeouts() Timeouts {
	return Timeouts{
		HeartbeatInterval:  10 * time.Second,
		HeartbeatLossLimit: 30 * time.Second,
		PostLossWait:       10 * time.Second,
		HeartbeatRoundTrip: 5 * time.Second,
		ForwardRoundTrip:   5 * time.Second,
	}
}

// Server is one process's client-facing role. It owns the leader/isLeader
// pair (spec.md §3's per-Server state) and coordinates the local
// Acceptor/Proposer/Learner via the LeaderSink interface those accept.
type Server struct {
	logger       log.Logger
	self         wire.Address
	creditWeight int
	acceptor     *paxos.Acceptor
	proposer     *paxos.Proposer
	ledgerSvc    ledger.Service
	timeouts     Timeouts
	metric       *metrics.ServerMetrics

	mu          sync.Mutex
	leader      *wire.Leader
	heartbeatMs time.Duration

	stop chan struct{}
}

// New constructs a Server. acceptor/proposer are the local process's own
// role instances, wired so HandleLeaderLoss and StartRound reach them.
func New(logger log.Logger, self wire.Address, creditWeight int, acceptor *paxos.Acceptor, proposer *paxos.Proposer, ledgerSvc ledger.Service, timeouts Timeouts, m *metrics.ServerMetrics) *Server {
	return &Server{
		logger:       log.With(logger, "component", "server", "serverId", self.ServerId),
		self:         self,
		creditWeight: creditWeight,
		acceptor:     acceptor,
		proposer:     proposer,
		ledgerSvc:    ledgerSvc,
		timeouts:     timeouts,
		metric:       m,
		stop:         make(chan struct{}),
	}
}

// IsLeader reports whether this Server currently owns leadership.
func (s *Server) IsLeader() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leader != nil && s.leader.Address.Equal(s.self)
}

// Leader returns the current leader, or nil if none is known.
func (s *Server) Leader() *wire.Leader {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.leader == nil {
		return nil
	}
	l := *s.leader
	return &l
}

// ChangeLeader implements spec.md §4.5: atomically install the new leader
// and derive isLeader from it. Called by the local Learner/
// DistinguishedLearner, never invented locally (spec.md §3 invariant 4).
func (s *Server) ChangeLeader(l wire.Leader) {
	s.mu.Lock()
	s.leader = &l
	s.heartbeatMs = 0
	s.mu.Unlock()

	if s.metric != nil {
		s.metric.LeaderChanges.Inc()
	}
	s.logger.Log("msg", "leader changed", "leader", l.Address, "isLeader", l.Address.Equal(s.self))
}

// Serve reads one request from conn, dispatches by msg_type, writes one
// reply, then closes conn: spec.md §4.1's one-request-one-response
// pattern.
func (s *Server) Serve(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	req, err := netutil.RecvEnvelope(conn)
	if err != nil {
		logutil.DebugLog(s.logger, "msg", "malformed or empty request, dropping", "error", err)
		return
	}

	switch req.MsgType {
	case wire.Heartbeat:
		reply, _ := wire.NewEnvelope(wire.HeartbeatReply, s.self, nil)
		_ = netutil.SendEnvelope(conn, reply)

	case wire.ClientRequest:
		s.handleClientRequest(ctx, conn, req)

	default:
		logutil.DebugLog(s.logger, "msg", "unexpected msg_type on server port", "msg_type", req.MsgType)
	}
}

func (s *Server) handleClientRequest(ctx context.Context, conn net.Conn, req *wire.Envelope) {
	leader := s.Leader()
	if leader == nil {
		reply, _ := wire.NewEnvelope(wire.ClientResponse, s.self, ledger.Reply{
			Result: ledger.ErrorCodeUnknownMsg,
			Error:  "no leader elected",
		})
		_ = netutil.SendEnvelope(conn, reply)
		return
	}

	if leader.Address.Equal(s.self) {
		var payload ledger.EventPayload
		if err := req.Decode(&payload); err != nil {
			reply, _ := wire.NewEnvelope(wire.ClientResponse, s.self, ledger.Reply{
				Result: ledger.ErrorCodeUnknownMsg,
				Error:  "malformed request",
			})
			_ = netutil.SendEnvelope(conn, reply)
			return
		}
		result := s.ledgerSvc.HandleEvent(ctx, payload)
		reply, _ := wire.NewEnvelope(wire.ClientResponse, s.self, result)
		_ = netutil.SendEnvelope(conn, reply)
		return
	}

	// Not the leader: forward the request verbatim and relay the reply.
	resp, err := netutil.Request(leader.Address, req, s.timeouts.ForwardRoundTrip)
	if err != nil {
		s.logger.Log("msg", "forward to leader failed", "leader", leader.Address, "error", err)
		return
	}
	_ = netutil.SendEnvelope(conn, resp)
}

// HeartbeatLoop implements spec.md §4.5: every HeartbeatInterval, if there
// is a leader and this Server isn't it, send a heartbeat and track misses.
// Reaching HeartbeatLossLimit triggers HandleLeaderLoss.
func (s *Server) HeartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(s.timeouts.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.heartbeatTick(ctx)
		}
	}
}

func (s *Server) heartbeatTick(ctx context.Context) {
	leader := s.Leader()
	if leader == nil || leader.Address.Equal(s.self) {
		return
	}

	env, err := wire.NewEnvelope(wire.Heartbeat, s.self, nil)
	if err != nil {
		return
	}
	_, err = netutil.Request(leader.Address, env, s.timeouts.HeartbeatRoundTrip)

	s.mu.Lock()
	if err != nil {
		s.heartbeatMs += s.timeouts.HeartbeatInterval
	} else {
		s.heartbeatMs = 0
	}
	lost := s.heartbeatMs >= s.timeouts.HeartbeatLossLimit
	s.mu.Unlock()

	if err != nil && s.metric != nil {
		s.metric.HeartbeatMisses.Inc()
	}
	if lost {
		s.HandleLeaderLoss(ctx)
	}
}

// HandleLeaderLoss implements spec.md §4.5: clear leader state, clear the
// local Acceptor's accepted protocol (promisePid stays monotone), wait
// PostLossWait so peers observe the loss too, then start a fresh election.
func (s *Server) HandleLeaderLoss(ctx context.Context) {
	s.mu.Lock()
	s.leader = nil
	s.heartbeatMs = 0
	s.mu.Unlock()

	if s.metric != nil {
		s.metric.LeaderLosses.Inc()
	}
	s.logger.Log("msg", "leader lost, clearing local state")
	s.acceptor.ResetAccepted()

	select {
	case <-time.After(s.timeouts.PostLossWait):
	case <-ctx.Done():
		return
	}

	s.Propose(ctx)
}

// Propose starts a new election round proposing self as leader. Safe to
// call when a round is already active: StartRound rejects it and the
// caller just logs and moves on, since another round will eventually
// resolve leadership.
func (s *Server) Propose(ctx context.Context) {
	if err := s.proposer.StartRound(ctx, s.self, s.creditWeight); err != nil {
		logutil.DebugLog(s.logger, "msg", "election round not started", "error", err)
	}
}

// Stop signals HeartbeatLoop to exit.
func (s *Server) Stop() {
	close(s.stop)
}
