package paxos

import (
	"net"

	"github.com/hanzhe-sun/paxosledger/internal/logutil"
	"github.com/hanzhe-sun/paxosledger/internal/netutil"
	"github.com/hanzhe-sun/paxosledger/internal/wire"
)

// Serve reads one request from conn, dispatches PROPOSER_PREPARE/
// PROPOSER_ACCEPT to OnPrepare/OnAccept, writes the reply, and returns:
// one connection per message, per spec.md §4.2.
func (a *Acceptor) Serve(conn net.Conn) {
	defer conn.Close()

	req, err := netutil.RecvEnvelope(conn)
	if err != nil {
		logutil.DebugLog(a.logger, "msg", "malformed or empty request, dropping", "error", err)
		return
	}

	switch req.MsgType {
	case wire.ProposerPrepare:
		var payload wire.PreparePayload
		if err := req.Decode(&payload); err != nil {
			logutil.DebugLog(a.logger, "msg", "malformed prepare payload", "error", err)
			return
		}
		reply := a.OnPrepare(payload.Protocol.Pid)
		env, err := wire.NewEnvelope(wire.AcceptorPrepareReply, a.self, reply)
		if err != nil {
			return
		}
		_ = netutil.SendEnvelope(conn, env)

	case wire.ProposerAccept:
		var payload wire.AcceptPayload
		if err := req.Decode(&payload); err != nil {
			logutil.DebugLog(a.logger, "msg", "malformed accept payload", "error", err)
			return
		}
		reply := a.OnAccept(payload.Protocol)
		env, err := wire.NewEnvelope(wire.AcceptorAcceptReply, a.self, reply)
		if err != nil {
			return
		}
		_ = netutil.SendEnvelope(conn, env)

	default:
		logutil.DebugLog(a.logger, "msg", "unexpected msg_type on acceptor port", "msg_type", req.MsgType)
	}
}
