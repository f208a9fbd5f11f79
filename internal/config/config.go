// Package config loads the static cluster-topology file named but left
// out of scope by spec.md §1: one JSON document per process describing
// every role's address for every serverId in the cluster.
package config

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/hanzhe-sun/paxosledger/internal/wire"
)

// ServerEntry is one element of a server_configuration_map array, per
// spec.md §6.
type ServerEntry struct {
	Address              wire.Address `json:"address"`
	IsDistinguishLearner bool         `json:"isDistinguisheLearner,omitempty"`
}

// ServerConfigurationMap groups the four parallel per-role arrays.
type ServerConfigurationMap struct {
	ServerList   []ServerEntry `json:"server_configuration_list"`
	ProposerList []ServerEntry `json:"proposer_configuration_list"`
	AcceptorList []ServerEntry `json:"acceptor_configuration_list"`
	LearnerList  []ServerEntry `json:"learner_configuration_list"`
}

// Topology is the full per-process configuration file.
type Topology struct {
	ServerNum                          int                    `json:"SERVER_NUM"`
	AcceptorSocketServerMaxConnections int                    `json:"ACCEPTOR_SOCKET_SERVER_MAX_CONNECTIONS"`
	ServerConfigurationMap             ServerConfigurationMap `json:"server_configuration_map"`
}

// ClientExport is the sibling file handed to clients: an address to
// connect to plus the cluster size, per spec.md §6.
type ClientExport struct {
	ServerAddressList []wire.Address `json:"server_address_list"`
	ServerNum         int            `json:"SERVER_NUM"`
}

// Load reads and validates a Topology from path. Any failure here is
// fatal at process start per spec.md §6/§7 (non-zero exit on config load
// failure).
func Load(path string) (*Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: read %s", path)
	}
	var t Topology
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, errors.Wrapf(err, "config: parse %s", path)
	}
	if err := t.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config: validate %s", path)
	}
	return &t, nil
}

// Validate checks the invariants spec.md §6 and §9 note 3 require: all
// four lists have SERVER_NUM entries, and the distinguished-learner subset
// is non-empty.
func (t *Topology) Validate() error {
	if t.ServerNum <= 0 {
		return errors.New("SERVER_NUM must be positive")
	}
	m := t.ServerConfigurationMap
	lists := map[string][]ServerEntry{
		"server_configuration_list":   m.ServerList,
		"proposer_configuration_list": m.ProposerList,
		"acceptor_configuration_list": m.AcceptorList,
		"learner_configuration_list":  m.LearnerList,
	}
	for name, list := range lists {
		if len(list) != t.ServerNum {
			return errors.Errorf("%s has %d entries, want %d", name, len(list), t.ServerNum)
		}
	}
	if len(t.DistinguishedLearners()) == 0 {
		return errors.New("at least one distinguished learner is required")
	}
	return nil
}

// DistinguishedLearners returns the addresses of every learner entry
// marked distinguished.
func (t *Topology) DistinguishedLearners() []wire.Address {
	var out []wire.Address
	for _, e := range t.ServerConfigurationMap.LearnerList {
		if e.IsDistinguishLearner {
			out = append(out, e.Address)
		}
	}
	return out
}

// Learners returns the addresses of every learner entry, distinguished or
// not.
func (t *Topology) Learners() []wire.Address {
	out := make([]wire.Address, len(t.ServerConfigurationMap.LearnerList))
	for i, e := range t.ServerConfigurationMap.LearnerList {
		out[i] = e.Address
	}
	return out
}

// Acceptors returns every acceptor's address.
func (t *Topology) Acceptors() []wire.Address {
	out := make([]wire.Address, len(t.ServerConfigurationMap.AcceptorList))
	for i, e := range t.ServerConfigurationMap.AcceptorList {
		out[i] = e.Address
	}
	return out
}

// DistinguishedLearnerCount returns ⌈N/4⌉, the reference placement size
// from spec.md §6.
func DistinguishedLearnerCount(serverNum int) int {
	return (serverNum + 3) / 4
}

// ReferencePort computes the four role ports for serverId i given base
// port B, per spec.md §6: Server=B+10i, Proposer=B+10i+1,
// Acceptor=B+10i+2, Learner=B+10i+3.
func ReferencePort(base uint16, serverId int, roleOffset uint16) uint16 {
	return base + uint16(10*serverId) + roleOffset
}

const (
	RoleOffsetServer   = 0
	RoleOffsetProposer = 1
	RoleOffsetAcceptor = 2
	RoleOffsetLearner  = 3
)

// WriteClientExport writes the client-exported sibling file to path.
func WriteClientExport(path string, export ClientExport) error {
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
