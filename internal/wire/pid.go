package wire

import (
	"fmt"
	"time"
)

const serverIdModulus = 100000

// NewPid builds an 18-digit proposal number: a 13-digit millisecond epoch
// (biased downward by credit weight) followed by the 5-digit zero-padded
// serverId, per spec.md §3. creditWeight must be in [1,100]; a lower weight
// loses same-millisecond ties against a higher one.
func NewPid(now time.Time, serverId int, creditWeight int) uint64 {
	ms := now.UnixMilli() - int64(100*(100-creditWeight))
	return uint64(ms)*serverIdModulus + uint64(serverId%serverIdModulus)
}

// PidMillis extracts the 13-digit millisecond prefix from a pid, used by
// the Distinguished Learner's same-pid-prefix suppression window
// (spec.md §4.4).
func PidMillis(pid uint64) int64 {
	return int64(pid / serverIdModulus)
}

func (p Protocol) String() string {
	return fmt.Sprintf("Protocol{value: %v, pid: %d}", p.Value, p.Pid)
}
