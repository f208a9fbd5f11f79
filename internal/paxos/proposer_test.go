package paxos

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanzhe-sun/paxosledger/internal/wire"
)

func TestSelectValue(t *testing.T) {
	self := wire.Address{Host: "127.0.0.1", Port: 9000, ServerId: 1}

	t.Run("no prior accepted protocol proposes self", func(t *testing.T) {
		got := selectValue(self, []wire.PrepareReplyPayload{
			{Result: wire.OK},
			{Result: wire.OK},
		})
		require.True(t, got.Equal(self))
	})

	t.Run("proposes the value of the largest-pid previously-accepted protocol", func(t *testing.T) {
		low := wire.Address{Host: "127.0.0.1", Port: 9001, ServerId: 2}
		high := wire.Address{Host: "127.0.0.1", Port: 9002, ServerId: 3}

		replies := []wire.PrepareReplyPayload{
			{Result: wire.OK, Protocol: &wire.Protocol{Value: low, Pid: 100}},
			{Result: wire.OK, Protocol: &wire.Protocol{Value: high, Pid: 200}},
			{Result: wire.OK},
		}

		got := selectValue(self, replies)
		require.True(t, got.Equal(high))
	})
}

func TestProposer_StartRound_RejectsConcurrentRound(t *testing.T) {
	p := &Proposer{inRound: true}

	err := p.StartRound(nil, wire.Address{}, 100)
	require.ErrorIs(t, err, errAlreadyInRound)
}
