package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnvelope_EncodeDecodeRoundTrip(t *testing.T) {
	from := Address{Host: "127.0.0.1", Port: 9000, ServerId: 1}
	payload := AcceptPayload{Protocol: Protocol{Value: from, Pid: 42}}

	env, err := NewEnvelope(ProposerAccept, from, payload)
	require.NoError(t, err)
	require.Equal(t, ProposerAccept, env.MsgType)

	var got AcceptPayload
	require.NoError(t, env.Decode(&got))
	require.Equal(t, payload, got)
}

func TestEnvelope_NewEnvelope_NilPayload(t *testing.T) {
	from := Address{Host: "127.0.0.1", Port: 9000, ServerId: 1}
	env, err := NewEnvelope(Heartbeat, from, nil)
	require.NoError(t, err)
	require.Empty(t, env.Data)

	var v struct{}
	require.NoError(t, env.Decode(&v))
}

func TestMsgType_String(t *testing.T) {
	require.Equal(t, "PROPOSER_PREPARE", ProposerPrepare.String())
	require.Equal(t, "ACCEPTOR_NOTIFY", AcceptorNotify.String())
	require.Equal(t, "CHOSEN_NOTIFY", ChosenNotify.String())
	require.Equal(t, "UNKNOWN", MsgType(99).String())
}

func TestAddress_EqualAndString(t *testing.T) {
	a := Address{Host: "127.0.0.1", Port: 9000, ServerId: 1}
	b := Address{Host: "127.0.0.1", Port: 9000, ServerId: 1}
	c := Address{Host: "127.0.0.1", Port: 9001, ServerId: 1}

	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
	require.False(t, a.IsZero())
	require.True(t, Address{}.IsZero())
}
