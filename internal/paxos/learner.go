package paxos

import (
	"sync"
	"time"

	"github.com/go-kit/kit/log"

	"github.com/hanzhe-sun/paxosledger/internal/logutil"
	"github.com/hanzhe-sun/paxosledger/internal/netutil"
	"github.com/hanzhe-sun/paxosledger/internal/wire"
)

// suppressWindow is the 10s same-pid-prefix window within which a
// re-observed chosen value for the same leader is not re-announced,
// per spec.md §4.4.
const suppressWindow = 10 * time.Second

// LeaderSink is the local Server's leader-install callback, invoked by
// both Learner and DistinguishedLearner whenever a value is learned.
type LeaderSink interface {
	ChangeLeader(wire.Leader)
}

// Learner applies a chosen protocol it received over UDP to the local
// Server. It holds no state of its own beyond the sink.
type Learner struct {
	logger log.Logger
	sink   LeaderSink
}

// NewLearner constructs a Learner that installs chosen leaders into sink.
func NewLearner(logger log.Logger, sink LeaderSink) *Learner {
	return &Learner{logger: log.With(logger, "component", "learner"), sink: sink}
}

// OnChosen handles a ChosenNotification datagram: install the carried
// value as the new leader.
func (l *Learner) OnChosen(n wire.ChosenNotification) {
	l.logger.Log("msg", "learned chosen value", "value", n.ChoosenProtocol.Value, "pid", n.ChoosenProtocol.Pid)
	l.sink.ChangeLeader(wire.Leader{Address: n.ChoosenProtocol.Value})
}

// DistinguishedLearner aggregates per-acceptor accept notifications and
// detects majority (chosen) support, per spec.md §4.4.
type DistinguishedLearner struct {
	logger    log.Logger
	self      wire.Address
	acceptors []wire.Address
	learners  []wire.Address
	sink      LeaderSink

	mu                 sync.Mutex
	acceptedByAcceptor map[int]wire.Protocol
	chosen             *wire.Protocol
	chosenAt           time.Time
}

// NewDistinguishedLearner constructs a DistinguishedLearner for self. The
// acceptors slice is used only to size the majority threshold; learners is
// the fan-out list for ChosenNotification (every ordinary learner in the
// cluster, including other distinguished ones).
func NewDistinguishedLearner(logger log.Logger, self wire.Address, acceptors, learners []wire.Address, sink LeaderSink) *DistinguishedLearner {
	return &DistinguishedLearner{
		logger:             log.With(logger, "component", "distinguished_learner", "serverId", self.ServerId),
		self:               self,
		acceptors:          acceptors,
		learners:           learners,
		sink:               sink,
		acceptedByAcceptor: make(map[int]wire.Protocol),
	}
}

// OnAcceptorNotification records the latest protocol reported by one
// acceptor, checks for newly formed majority support, and if found fans
// out the chosen value — subject to the same-value/same-window
// suppression rule.
func (d *DistinguishedLearner) OnAcceptorNotification(n wire.AcceptorNotification) {
	d.mu.Lock()
	d.acceptedByAcceptor[n.FromAddress.ServerId] = n.AcceptProtocol

	count := 0
	for _, p := range d.acceptedByAcceptor {
		if p.Equal(n.AcceptProtocol) {
			count++
		}
	}
	majority := len(d.acceptors)/2 + 1
	if count <= majority-1 {
		d.mu.Unlock()
		return
	}
	// Majority reached for n.AcceptProtocol.
	suppressed := d.chosen != nil &&
		d.chosen.Value.Equal(n.AcceptProtocol.Value) &&
		absDuration(d.chosenAt, time.Now()) < suppressWindow &&
		millisClose(d.chosen.Pid, n.AcceptProtocol.Pid)

	chosen := n.AcceptProtocol
	d.chosen = &chosen
	d.chosenAt = time.Now()
	d.mu.Unlock()

	if suppressed {
		logutil.DebugLog(d.logger, "msg", "suppressing duplicate chosen announcement", "value", chosen.Value)
		return
	}

	d.logger.Log("msg", "value chosen", "value", chosen.Value, "pid", chosen.Pid)
	d.sink.ChangeLeader(wire.Leader{Address: chosen.Value})
	d.fanOut(chosen)
}

func (d *DistinguishedLearner) fanOut(chosen wire.Protocol) {
	env, err := wire.NewEnvelope(wire.ChosenNotify, d.self, wire.ChosenNotification{
		FromAddress:     d.self,
		ChoosenProtocol: chosen,
	})
	if err != nil {
		d.logger.Log("msg", "build chosen notification failed", "error", err)
		return
	}
	for _, learner := range d.learners {
		if learner.Equal(d.self) {
			continue
		}
		netutil.SendUDP(d.logger, learner, env)
	}
}

func millisClose(a, b uint64) bool {
	ma, mb := wire.PidMillis(a), wire.PidMillis(b)
	diff := ma - mb
	if diff < 0 {
		diff = -diff
	}
	return time.Duration(diff)*time.Millisecond < suppressWindow
}

func absDuration(a, b time.Time) time.Duration {
	d := b.Sub(a)
	if d < 0 {
		return -d
	}
	return d
}
