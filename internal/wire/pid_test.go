package wire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewPid_HigherCreditWinsSameMillisecond(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	pidHigh := NewPid(now, 0, 100)
	pidLow := NewPid(now, 1, 50)

	require.Greater(t, pidHigh, pidLow)
}

func TestNewPid_EncodesServerIdInLastFiveDigits(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	pid := NewPid(now, 7, 100)
	require.Equal(t, int64(7), int64(pid%serverIdModulus))
}

func TestPidMillis_ExtractsPrefix(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	pid := NewPid(now, 3, 100)
	require.Equal(t, now.UnixMilli(), PidMillis(pid))
}

func TestProtocol_Less(t *testing.T) {
	p1 := Protocol{Pid: 100}
	p2 := Protocol{Pid: 200}
	require.True(t, p1.Less(p2))
	require.False(t, p2.Less(p1))
}
