package paxos

import "github.com/pkg/errors"

// errAlreadyInRound is returned by StartRound when the Proposer already
// owns an in-flight round (spec.md §3 invariant 5). This is an expected
// control-flow condition, not a fault, so it stays a plain sentinel
// rather than a wrapped error.
var errAlreadyInRound = errors.New("paxos: proposer already has a round in flight")
