package paxos

import (
	"context"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"golang.org/x/sync/errgroup"

	"github.com/hanzhe-sun/paxosledger/internal/metrics"
	"github.com/hanzhe-sun/paxosledger/internal/netutil"
	"github.com/hanzhe-sun/paxosledger/internal/wire"
)

// ProposerTimeouts groups the configurable delays from spec.md §4.1 that
// govern one Proposer's round.
type ProposerTimeouts struct {
	PrepareWait           time.Duration
	AcceptWait            time.Duration
	RetryAfterPrepareFail time.Duration
	RetryAfterAcceptFail  time.Duration
}

// DefaultProposerTimeouts mirrors the spec's default values (5s each).
func DefaultProposerTimeouts() ProposerTimeouts {
	return ProposerTimeouts{
		PrepareWait:           5 * time.Second,
		AcceptWait:            5 * time.Second,
		RetryAfterPrepareFail: 5 * time.Second,
		RetryAfterAcceptFail:  5 * time.Second,
	}
}

// Proposer drives single-round Paxos elections for its local Server.
// Exactly one round may be active at a time (spec.md §3, invariant 5).
type Proposer struct {
	logger    log.Logger
	self      wire.Address
	acceptors []wire.Address
	timeouts  ProposerTimeouts
	metric    *metrics.ProposerMetrics

	mu      sync.Mutex
	inRound bool
}

// NewProposer constructs a Proposer for self against the given acceptor set.
func NewProposer(logger log.Logger, self wire.Address, acceptors []wire.Address, timeouts ProposerTimeouts, m *metrics.ProposerMetrics) *Proposer {
	return &Proposer{
		logger:    log.With(logger, "component", "proposer", "serverId", self.ServerId),
		self:      self,
		acceptors: acceptors,
		timeouts:  timeouts,
		metric:    m,
	}
}

// StartRound launches an election round proposing serverAddress as leader,
// retrying internally until an Accept phase succeeds or ctx is cancelled.
// It returns immediately with an error if a round is already in flight.
func (p *Proposer) StartRound(ctx context.Context, serverAddress wire.Address, creditWeight int) error {
	p.mu.Lock()
	if p.inRound {
		p.mu.Unlock()
		return errAlreadyInRound
	}
	p.inRound = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.inRound = false
		p.mu.Unlock()
	}()

	if p.metric != nil {
		p.metric.RoundsStarted.Inc()
	}
	started := time.Now()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		pid := wire.NewPid(time.Now(), serverAddress.ServerId, creditWeight)
		prepareReplies := p.prepare(ctx, pid)

		majority := len(p.acceptors)/2 + 1
		if len(prepareReplies) < majority {
			p.logger.Log("msg", "prepare phase failed to reach majority", "pid", pid, "oks", len(prepareReplies), "need", majority)
			if !sleepCtx(ctx, p.timeouts.RetryAfterPrepareFail) {
				return ctx.Err()
			}
			continue
		}

		value := selectValue(serverAddress, prepareReplies)

		proposal := wire.Protocol{Value: value, Pid: pid}
		acceptOKs := p.accept(ctx, proposal)
		if acceptOKs < majority {
			p.logger.Log("msg", "accept phase failed to reach majority", "pid", pid, "oks", acceptOKs, "need", majority)
			if !sleepCtx(ctx, p.timeouts.RetryAfterAcceptFail) {
				return ctx.Err()
			}
			continue
		}

		p.logger.Log("msg", "round succeeded", "value", value, "pid", pid)
		if p.metric != nil {
			p.metric.RoundsSucceeded.Inc()
			p.metric.RoundDuration.Observe(time.Since(started).Seconds())
		}
		return nil
	}
}

// prepare sends PROPOSER_PREPARE to every acceptor in parallel and returns
// the OK replies observed within PrepareWait. Slow or unreachable acceptors
// simply don't contribute a reply; per spec.md §4.1 that's treated as
// non-reply, not an error.
func (p *Proposer) prepare(ctx context.Context, pid uint64) []wire.PrepareReplyPayload {
	ctx, cancel := context.WithTimeout(ctx, p.timeouts.PrepareWait)
	defer cancel()

	var mu sync.Mutex
	var replies []wire.PrepareReplyPayload

	g, _ := errgroup.WithContext(ctx)
	for _, acc := range p.acceptors {
		acc := acc
		g.Go(func() error {
			payload := wire.PreparePayload{}
			payload.Protocol.Pid = pid
			env, err := wire.NewEnvelope(wire.ProposerPrepare, p.self, payload)
			if err != nil {
				return nil
			}
			reply, err := netutil.Request(acc, env, p.timeouts.PrepareWait)
			if err != nil {
				return nil
			}
			var rp wire.PrepareReplyPayload
			if err := reply.Decode(&rp); err != nil {
				return nil
			}
			if rp.Result == wire.OK {
				mu.Lock()
				replies = append(replies, rp)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return replies
}

// accept sends PROPOSER_ACCEPT to every acceptor in parallel and returns
// the count of OK replies observed within AcceptWait.
func (p *Proposer) accept(ctx context.Context, proposal wire.Protocol) int {
	ctx, cancel := context.WithTimeout(ctx, p.timeouts.AcceptWait)
	defer cancel()

	var mu sync.Mutex
	oks := 0

	g, _ := errgroup.WithContext(ctx)
	for _, acc := range p.acceptors {
		acc := acc
		g.Go(func() error {
			env, err := wire.NewEnvelope(wire.ProposerAccept, p.self, wire.AcceptPayload{Protocol: proposal})
			if err != nil {
				return nil
			}
			reply, err := netutil.Request(acc, env, p.timeouts.AcceptWait)
			if err != nil {
				return nil
			}
			var rp wire.AcceptReplyPayload
			if err := reply.Decode(&rp); err != nil {
				return nil
			}
			if rp.Result == wire.OK {
				mu.Lock()
				oks++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return oks
}

// selectValue implements spec.md §4.3 step 2: among prepare replies that
// carried a previously-accepted protocol, propose the value of the one
// with the largest pid; otherwise propose serverAddress.
func selectValue(serverAddress wire.Address, replies []wire.PrepareReplyPayload) wire.Address {
	var best *wire.Protocol
	for _, r := range replies {
		if r.Protocol == nil {
			continue
		}
		if best == nil || best.Less(*r.Protocol) {
			p := *r.Protocol
			best = &p
		}
	}
	if best == nil {
		return serverAddress
	}
	return best.Value
}

// sleepCtx sleeps for d or returns false early if ctx is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
