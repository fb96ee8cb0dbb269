package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewCallGeneratesUniqueIDs(t *testing.T) {
	a := NewCall(7, 3, nil)
	b := NewCall(7, 3, nil)
	require.NotEqual(t, a.ID(), b.ID())
}

func TestReplyEchoesCallID(t *testing.T) {
	call := NewCall(7, 3, nil)
	reply := NewReply(call.Service(), call.Function(), call.ID(), nil)
	require.Equal(t, call.ID(), reply.ID())
	require.Equal(t, Reply, reply.Type())
}

func TestMessageAddress(t *testing.T) {
	m := NewCall(7, 3, nil)
	addr := m.Address()
	require.Equal(t, uint32(7), addr.Service)
	require.Equal(t, ObjectMain, addr.Object)
	require.Equal(t, uint32(3), addr.Function)
	require.Equal(t, m.ID(), addr.ID)
}

func TestTypeString(t *testing.T) {
	require.Equal(t, "Call", Call.String())
	require.Equal(t, "Reply", Reply.String())
	require.Equal(t, "Error", Error.String())
	require.Equal(t, "Event", Event.String())
}
