package paxos

import (
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/require"

	"github.com/hanzhe-sun/paxosledger/internal/wire"
)

func newTestAcceptor() *Acceptor {
	self := wire.Address{Host: "127.0.0.1", Port: 9000, ServerId: 1}
	return NewAcceptor(log.NewNopLogger(), self, nil, nil)
}

func TestAcceptor_OnPrepare_DuplicatePid(t *testing.T) {
	a := newTestAcceptor()

	t.Run("first prepare at pid 100 is promised", func(t *testing.T) {
		reply := a.OnPrepare(100)
		require.Equal(t, wire.OK, reply.Result)
		require.Nil(t, reply.Protocol)
	})

	t.Run("duplicate prepare at the same pid 100 is rejected", func(t *testing.T) {
		reply := a.OnPrepare(100)
		require.Equal(t, wire.FAIL, reply.Result)
	})

	t.Run("higher pid 101 is promised", func(t *testing.T) {
		reply := a.OnPrepare(101)
		require.Equal(t, wire.OK, reply.Result)
	})
}

func TestAcceptor_OnAccept_RejectsBelowPromise(t *testing.T) {
	a := newTestAcceptor()
	a.OnPrepare(100)

	reply := a.OnAccept(wire.Protocol{Value: wire.Address{ServerId: 1}, Pid: 50})
	require.Equal(t, wire.FAIL, reply.Result)

	promisePid, accepted := a.Snapshot()
	require.Equal(t, uint64(100), promisePid)
	require.Nil(t, accepted)
}

func TestAcceptor_OnAccept_SameValueReaccept(t *testing.T) {
	a := newTestAcceptor()
	value := wire.Address{Host: "127.0.0.1", Port: 9000, ServerId: 1}

	a.OnPrepare(100)
	require.Equal(t, wire.OK, a.OnAccept(wire.Protocol{Value: value, Pid: 100}).Result)

	t.Run("a later promise at a higher pid does not block a re-accept of the same value at a lower pid", func(t *testing.T) {
		a.OnPrepare(200)

		reply := a.OnAccept(wire.Protocol{Value: value, Pid: 150})
		require.Equal(t, wire.OK, reply.Result)

		_, accepted := a.Snapshot()
		require.NotNil(t, accepted)
		require.True(t, accepted.Value.Equal(value))
	})

	t.Run("a different value below the promise is still rejected", func(t *testing.T) {
		other := wire.Address{Host: "127.0.0.1", Port: 9001, ServerId: 2}
		reply := a.OnAccept(wire.Protocol{Value: other, Pid: 150})
		require.Equal(t, wire.FAIL, reply.Result)
	})
}

func TestAcceptor_ResetAccepted_KeepsPromisePidMonotone(t *testing.T) {
	a := newTestAcceptor()
	a.OnPrepare(100)
	a.OnAccept(wire.Protocol{Value: wire.Address{ServerId: 1}, Pid: 100})

	a.ResetAccepted()

	promisePid, accepted := a.Snapshot()
	require.Equal(t, uint64(100), promisePid)
	require.Nil(t, accepted)
}
