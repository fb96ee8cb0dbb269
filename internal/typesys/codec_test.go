package typesys

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferRoundTripInt(t *testing.T) {
	buf, err := NewBuffer("i", int64(42))
	require.NoError(t, err)

	sig, err := buf.Signature()
	require.NoError(t, err)
	require.Equal(t, "i", sig)

	values, err := buf.Decode("i")
	require.NoError(t, err)
	require.Equal(t, []any{int64(42)}, values)
}

func TestBufferRoundTripErrorString(t *testing.T) {
	buf, err := NewBuffer("s", "boom")
	require.NoError(t, err)

	sig, err := buf.Signature()
	require.NoError(t, err)
	require.Equal(t, "s", sig)

	values, err := buf.Decode("s")
	require.NoError(t, err)
	require.Equal(t, []any{"boom"}, values)
}

func TestBufferSignatureMismatchIsCallerDetectable(t *testing.T) {
	// Malformed-error scenario from spec.md §8 scenario 3: payload
	// encodes an int where a string ("s") signature was expected.
	buf, err := NewBuffer("i", int64(0))
	require.NoError(t, err)

	sig, err := buf.Signature()
	require.NoError(t, err)
	require.NotEqual(t, "s", sig)
}

func TestSignatureInnerArgsAndReturn(t *testing.T) {
	sig := Signature("(ii)s")
	inner, err := sig.InnerArgs()
	require.NoError(t, err)
	require.Equal(t, "ii", inner)

	ret, err := sig.Return()
	require.NoError(t, err)
	require.Equal(t, "s", ret)
}

func TestSignatureInnerArgsSignalNoReturn(t *testing.T) {
	sig := Signature("(i)")
	inner, err := sig.InnerArgs()
	require.NoError(t, err)
	require.Equal(t, "i", inner)

	ret, err := sig.Return()
	require.NoError(t, err)
	require.Equal(t, "", ret)
}

func TestHashIDIsStable(t *testing.T) {
	require.Equal(t, HashID("ping"), HashID("ping"))
	require.NotEqual(t, HashID("ping"), HashID("pong"))
}
