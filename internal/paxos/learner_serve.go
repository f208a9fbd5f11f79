package paxos

import (
	"github.com/hanzhe-sun/paxosledger/internal/logutil"
	"github.com/hanzhe-sun/paxosledger/internal/wire"
)

// LearnerDispatcher routes UDP datagrams on one Learner port to the
// Learner and, if this server is distinguished, also to the
// DistinguishedLearner. Acceptors address AcceptorNotify datagrams only
// to distinguished learners, but any learner may receive a fanned-out
// ChosenNotify.
type LearnerDispatcher struct {
	learner       *Learner
	distinguished *DistinguishedLearner // nil if this server isn't distinguished
}

// NewLearnerDispatcher builds a dispatcher for learner and its optional
// distinguished counterpart.
func NewLearnerDispatcher(learner *Learner, distinguished *DistinguishedLearner) *LearnerDispatcher {
	return &LearnerDispatcher{learner: learner, distinguished: distinguished}
}

// Handle decodes env and routes it to the appropriate role method.
func (d *LearnerDispatcher) Handle(env *wire.Envelope) {
	switch env.MsgType {
	case wire.ChosenNotify:
		var n wire.ChosenNotification
		if err := env.Decode(&n); err != nil {
			logutil.DebugLog(d.learner.logger, "msg", "malformed chosen notification", "error", err)
			return
		}
		d.learner.OnChosen(n)

	case wire.AcceptorNotify:
		if d.distinguished == nil {
			return
		}
		var n wire.AcceptorNotification
		if err := env.Decode(&n); err != nil {
			logutil.DebugLog(d.distinguished.logger, "msg", "malformed acceptor notification", "error", err)
			return
		}
		d.distinguished.OnAcceptorNotification(n)

	default:
		logutil.DebugLog(d.learner.logger, "msg", "unexpected msg_type on learner port", "msg_type", env.MsgType)
	}
}
