package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_RegisterUnderDistinctServerIds(t *testing.T) {
	reg := prometheus.NewRegistry()

	a1 := NewAcceptorMetrics(reg, 1)
	a2 := NewAcceptorMetrics(reg, 2)
	require.NotNil(t, a1)
	require.NotNil(t, a2)

	p := NewProposerMetrics(reg, 1)
	require.NotNil(t, p.RoundsStarted)
	require.NotNil(t, p.RoundsSucceeded)
	require.NotNil(t, p.RoundDuration)

	s := NewServerMetrics(reg, 1)
	require.NotNil(t, s.LeaderChanges)
	require.NotNil(t, s.HeartbeatMisses)
	require.NotNil(t, s.LeaderLosses)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}

func TestNewMetrics_DuplicateServerIdPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewAcceptorMetrics(reg, 1)

	require.Panics(t, func() {
		NewAcceptorMetrics(reg, 1)
	})
}
