package ledger

// User is a registered account: account name and password, stored as-is
// (the original stores plaintext passwords too; this is out of scope per
// spec.md §1 — the core coordination layer does not evaluate ledger
// security properties).
type User struct {
	Account string `json:"account"`
	Pswd    string `json:"pswd"`
}

// Balance is a user's running ledger balance.
type Balance struct {
	Account         string `json:"account"`
	Balance         int64  `json:"balance"`
	UpdateTimestamp int64  `json:"updateTimestamp"`
	CreateTimestamp int64  `json:"createTimestamp"`
}

// RecordItem is a single ledger entry (an income or expense line).
type RecordItem struct {
	Money       int64  `json:"money"`
	RecordType  int    `json:"recordType"`
	Description string `json:"description"`
	DateTime    string `json:"dateTime"`
	Timestamp   int64  `json:"timestamp"`
}

// Session binds a session id to the account that owns it.
type Session struct {
	SessionId       string `json:"sessionId"`
	Account         string `json:"account"`
	CreateTimestamp int64  `json:"createTimestamp"`
	UpdateTimestamp int64  `json:"updateTimestamp"`
}

// EventPayload is the inbound CLIENT_REQUEST body once decoded: the
// eventType discriminator plus every event's union of fields, per
// spec.md §4.6.
type EventPayload struct {
	EventType   string `json:"eventType"`
	Account     string `json:"account,omitempty"`
	Pswd        string `json:"pswd,omitempty"`
	SessionId   string `json:"sessionId,omitempty"`
	Money       int64  `json:"money,omitempty"`
	RecordType  int    `json:"recordType,omitempty"`
	Description string `json:"description,omitempty"`
	DateTime    string `json:"dateTime,omitempty"`
	Timestamp   int64  `json:"timestamp,omitempty"`
}

// Reply is the shared {result, ...} shape every event handler returns.
type Reply struct {
	Result    int          `json:"result"`
	Error     string       `json:"error,omitempty"`
	Info      string       `json:"info,omitempty"`
	SessionId string       `json:"sessionId,omitempty"`
	Account   string       `json:"account,omitempty"`
	Records   []RecordItem `json:"records,omitempty"`
	Balance   *Balance     `json:"balance,omitempty"`
}
