// Package wire defines the data types and envelope format shared by every
// Paxos role and by the client-facing request path: addresses, the Paxos
// (value, pid) pair, the leader record, and the JSON message envelope.
package wire

import "fmt"

// Address identifies a single server process's endpoint for one of its
// roles (Server, Proposer, Acceptor or Learner all have their own port;
// ServerId is shared across all four and is stable for the process's
// lifetime).
type Address struct {
	Host     string `json:"host"`
	Port     uint16 `json:"port"`
	ServerId int    `json:"serverId"`
}

// Equal reports whether a and b name the same endpoint.
func (a Address) Equal(b Address) bool {
	return a.Host == b.Host && a.Port == b.Port && a.ServerId == b.ServerId
}

func (a Address) String() string {
	return fmt.Sprintf("%s:%d#%d", a.Host, a.Port, a.ServerId)
}

// IsZero reports whether a is the unset Address value.
func (a Address) IsZero() bool {
	return a == Address{}
}
