package wire

import "encoding/json"

// MsgType is the closed tag enumeration from spec.md §4.1.
type MsgType int

const (
	ProposerPrepare      MsgType = 0
	ProposerAccept       MsgType = 1
	AcceptorPrepareReply MsgType = 2
	AcceptorAcceptReply  MsgType = 3
	ClientRequest        MsgType = 4
	ClientResponse       MsgType = 5
	Heartbeat            MsgType = 6
	HeartbeatReply       MsgType = 7
	// AcceptorNotify and ChosenNotify are not part of the spec's TCP tag
	// table (§4.1); they tag the two UDP-only datagram shapes so a
	// Learner listener can dispatch without guessing from payload shape.
	AcceptorNotify MsgType = 8
	ChosenNotify   MsgType = 9
)

func (t MsgType) String() string {
	switch t {
	case ProposerPrepare:
		return "PROPOSER_PREPARE"
	case ProposerAccept:
		return "PROPOSER_ACCEPT"
	case AcceptorPrepareReply:
		return "ACCEPTOR_PREPARE_REPLY"
	case AcceptorAcceptReply:
		return "ACCEPTOR_ACCEPT_REPLY"
	case ClientRequest:
		return "CLIENT_REQUEST"
	case ClientResponse:
		return "CLIENT_RESPONSE"
	case Heartbeat:
		return "HEARTBEAT"
	case HeartbeatReply:
		return "HEARTBEAT_REPLY"
	case AcceptorNotify:
		return "ACCEPTOR_NOTIFY"
	case ChosenNotify:
		return "CHOSEN_NOTIFY"
	default:
		return "UNKNOWN"
	}
}

// Result is the OK/FAIL verdict carried by Acceptor replies.
type Result string

const (
	OK   Result = "OK"
	FAIL Result = "FAIL"
)

// Envelope is the message shape carried over every TCP request/response and
// UDP datagram in this system: a tag, the sender's address, and a
// tag-specific payload.
type Envelope struct {
	MsgType     MsgType         `json:"msg_type"`
	FromAddress Address         `json:"from_address"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals payload into Data and returns the finished envelope.
func NewEnvelope(msgType MsgType, from Address, payload interface{}) (*Envelope, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = data
	}
	return &Envelope{MsgType: msgType, FromAddress: from, Data: raw}, nil
}

// Decode unmarshals e.Data into v.
func (e *Envelope) Decode(v interface{}) error {
	if len(e.Data) == 0 {
		return nil
	}
	return json.Unmarshal(e.Data, v)
}

// PreparePayload is the PROPOSER_PREPARE request body: {protocol:{pid}}.
type PreparePayload struct {
	Protocol struct {
		Pid uint64 `json:"pid"`
	} `json:"protocol"`
}

// AcceptPayload is the PROPOSER_ACCEPT request body: {protocol:{value,pid}}.
type AcceptPayload struct {
	Protocol Protocol `json:"protocol"`
}

// PrepareReplyPayload is the ACCEPTOR_PREPARE_REPLY body.
type PrepareReplyPayload struct {
	Protocol *Protocol `json:"protocol"`
	Result   Result    `json:"result"`
}

// AcceptReplyPayload is the ACCEPTOR_ACCEPT_REPLY body.
type AcceptReplyPayload struct {
	Result Result `json:"result"`
}

// AcceptorNotification is the UDP datagram an Acceptor sends every
// Distinguished Learner immediately after accepting a protocol.
type AcceptorNotification struct {
	FromAddress    Address  `json:"from_address"`
	AcceptProtocol Protocol `json:"accept_protocol"`
}

// ChosenNotification is the UDP datagram a Distinguished Learner fans out
// to every ordinary Learner once a protocol has majority support.
type ChosenNotification struct {
	FromAddress     Address  `json:"from_address"`
	ChoosenProtocol Protocol `json:"choosen_protocol"`
}
