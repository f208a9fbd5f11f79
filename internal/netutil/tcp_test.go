package netutil

import (
	"net"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/require"

	"github.com/hanzhe-sun/paxosledger/internal/wire"
)

func TestSendEnvelope_RecvEnvelope_RoundTrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	from := wire.Address{Host: "127.0.0.1", Port: 9000, ServerId: 1}
	env, err := wire.NewEnvelope(wire.Heartbeat, from, nil)
	require.NoError(t, err)

	done := make(chan *wire.Envelope, 1)
	go func() {
		conn, err := ln.Accept()
		require.NoError(t, err)
		defer conn.Close()
		got, err := RecvEnvelope(conn)
		require.NoError(t, err)
		done <- got
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	require.NoError(t, SendEnvelope(conn, env))
	conn.Close()

	select {
	case got := <-done:
		require.Equal(t, wire.Heartbeat, got.MsgType)
		require.True(t, got.FromAddress.Equal(from))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for envelope")
	}
}

func TestRequest_RoundTrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	tcpAddr := ln.Addr().(*net.TCPAddr)
	target := wire.Address{Host: "127.0.0.1", Port: uint16(tcpAddr.Port), ServerId: 1}

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		req, err := RecvEnvelope(conn)
		if err != nil {
			return
		}
		reply, _ := wire.NewEnvelope(wire.HeartbeatReply, target, nil)
		reply.FromAddress = req.FromAddress
		_ = SendEnvelope(conn, reply)
	}()

	from := wire.Address{Host: "127.0.0.1", Port: 9001, ServerId: 2}
	req, err := wire.NewEnvelope(wire.Heartbeat, from, nil)
	require.NoError(t, err)

	reply, err := Request(target, req, time.Second)
	require.NoError(t, err)
	require.Equal(t, wire.HeartbeatReply, reply.MsgType)
}

func TestRequest_ConnectFailureIsAnError(t *testing.T) {
	target := wire.Address{Host: "127.0.0.1", Port: 1, ServerId: 99}
	env, err := wire.NewEnvelope(wire.Heartbeat, target, nil)
	require.NoError(t, err)

	_, err = Request(target, env, 200*time.Millisecond)
	require.Error(t, err)
}

func TestListenLoop_StopsOnSignal(t *testing.T) {
	addr := wire.Address{Host: "127.0.0.1", Port: 0}
	stop := make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- ListenLoop(log.NewNopLogger(), addr, 10, 50*time.Millisecond, stop, func(net.Conn) {})
	}()

	close(stop)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ListenLoop did not return after stop was closed")
	}
}
