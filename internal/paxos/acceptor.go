// Package paxos implements the Acceptor, Proposer, Learner and
// DistinguishedLearner roles of the single-value (leader identity) Paxos
// round described for this cluster.
package paxos

import (
	"sync"

	"github.com/go-kit/kit/log"

	"github.com/hanzhe-sun/paxosledger/internal/logutil"
	"github.com/hanzhe-sun/paxosledger/internal/metrics"
	"github.com/hanzhe-sun/paxosledger/internal/netutil"
	"github.com/hanzhe-sun/paxosledger/internal/wire"
)

// Acceptor holds the promise/accept state for one server. All access goes
// through OnPrepare/OnAccept, which serialize on mu: per spec.md §5, the
// promise/accept invariants require one-message-at-a-time handling.
type Acceptor struct {
	logger log.Logger
	self   wire.Address
	dlns   []wire.Address
	metric *metrics.AcceptorMetrics

	mu               sync.Mutex
	promisePid       uint64
	acceptedProtocol *wire.Protocol
}

// NewAcceptor constructs an Acceptor for self, with dln as the fixed set of
// Distinguished Learner addresses to notify on every successful Accept.
func NewAcceptor(logger log.Logger, self wire.Address, dln []wire.Address, m *metrics.AcceptorMetrics) *Acceptor {
	return &Acceptor{
		logger: log.With(logger, "component", "acceptor", "serverId", self.ServerId),
		self:   self,
		dlns:   dln,
		metric: m,
	}
}

// OnPrepare implements spec.md §4.2: a strictly greater pid is promised and
// acknowledged with whatever was previously accepted (possibly nil);
// anything else, including a tie, fails.
func (a *Acceptor) OnPrepare(pid uint64) wire.PrepareReplyPayload {
	a.mu.Lock()
	defer a.mu.Unlock()

	if pid > a.promisePid {
		a.promisePid = pid
		reply := wire.PrepareReplyPayload{Result: wire.OK}
		if a.acceptedProtocol != nil {
			p := *a.acceptedProtocol
			reply.Protocol = &p
		}
		logutil.DebugLog(a.logger, "msg", "promised", "pid", pid)
		return reply
	}
	logutil.DebugLog(a.logger, "msg", "prepare rejected", "pid", pid, "promisePid", a.promisePid)
	return wire.PrepareReplyPayload{Result: wire.FAIL}
}

// OnAccept implements spec.md §4.2's acceptance rule: admit if the pid
// honors the current promise, OR the proposal re-affirms the
// already-accepted value at any pid (the recovery clause documented in
// Open Question 1). On success it notifies every Distinguished Learner
// asynchronously, after releasing the lock, so a slow notify can't block
// the next Prepare/Accept.
func (a *Acceptor) OnAccept(p wire.Protocol) wire.AcceptReplyPayload {
	a.mu.Lock()

	sameValueReaccept := a.acceptedProtocol != nil && a.acceptedProtocol.Value.Equal(p.Value)
	if p.Pid < a.promisePid && !sameValueReaccept {
		a.mu.Unlock()
		logutil.DebugLog(a.logger, "msg", "accept rejected", "pid", p.Pid, "promisePid", a.promisePid)
		return wire.AcceptReplyPayload{Result: wire.FAIL}
	}

	if p.Pid > a.promisePid {
		a.promisePid = p.Pid
	}
	a.acceptedProtocol = &wire.Protocol{Value: p.Value, Pid: p.Pid}
	a.mu.Unlock()

	a.logger.Log("msg", "accepted", "value", p.Value, "pid", p.Pid)
	go a.notifyDistinguishedLearners(p)
	return wire.AcceptReplyPayload{Result: wire.OK}
}

func (a *Acceptor) notifyDistinguishedLearners(p wire.Protocol) {
	env, err := wire.NewEnvelope(wire.AcceptorNotify, a.self, wire.AcceptorNotification{
		FromAddress:    a.self,
		AcceptProtocol: p,
	})
	if err != nil {
		a.logger.Log("msg", "build notification failed", "error", err)
		return
	}
	for _, dln := range a.dlns {
		netutil.SendUDP(a.logger, dln, env)
	}
	if a.metric != nil {
		a.metric.Notifications.Inc()
	}
}

// ResetAccepted clears the locally accepted protocol while keeping
// promisePid monotone, per spec.md §4.5's HandleLeaderLoss step.
func (a *Acceptor) ResetAccepted() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acceptedProtocol = nil
}

// Snapshot returns the current promisePid and accepted protocol, mainly
// for tests and status introspection.
func (a *Acceptor) Snapshot() (uint64, *wire.Protocol) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.acceptedProtocol == nil {
		return a.promisePid, nil
	}
	p := *a.acceptedProtocol
	return a.promisePid, &p
}
