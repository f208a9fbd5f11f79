package cluster

import (
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/require"

	"github.com/hanzhe-sun/paxosledger/internal/wire"
)

func newTestServer(self wire.Address) *Server {
	return New(log.NewNopLogger(), self, 100, nil, nil, nil, DefaultTimeouts(), nil)
}

func TestServer_ChangeLeader_IsLeaderInvariant(t *testing.T) {
	self := wire.Address{Host: "127.0.0.1", Port: 9200, ServerId: 1}
	other := wire.Address{Host: "127.0.0.1", Port: 9201, ServerId: 2}
	s := newTestServer(self)

	require.False(t, s.IsLeader(), "no leader known yet")
	require.Nil(t, s.Leader())

	t.Run("installing self as leader makes IsLeader true", func(t *testing.T) {
		s.ChangeLeader(wire.Leader{Address: self})
		require.True(t, s.IsLeader())
		require.True(t, s.Leader().Address.Equal(self))
	})

	t.Run("installing another server as leader makes IsLeader false", func(t *testing.T) {
		s.ChangeLeader(wire.Leader{Address: other})
		require.False(t, s.IsLeader())
		require.True(t, s.Leader().Address.Equal(other))
	})
}

func TestServer_Leader_ReturnsACopy(t *testing.T) {
	self := wire.Address{Host: "127.0.0.1", Port: 9200, ServerId: 1}
	s := newTestServer(self)
	s.ChangeLeader(wire.Leader{Address: self})

	l := s.Leader()
	l.Address.Port = 0

	require.Equal(t, uint16(9200), s.Leader().Address.Port, "mutating the returned Leader must not affect internal state")
}
