package strbuf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func requireInvariants(t *testing.T, b *Buffer) {
	t.Helper()

	require.GreaterOrEqual(t, b.Total(), b.Len()+1, "room for terminator")
	require.Zero(t, b.Total()%b.Unit(), "capacity is a multiple of unit")
	require.Zero(t, b.mem[b.used], "terminated")
}

func TestBuffer_InvariantsHoldAfterEveryMutation(t *testing.T) {
	b, err := New(7)
	require.NoError(t, err)

	ops := []func() error{
		func() error { return b.SetString("lorem ipsum dolor") },
		func() error { return b.AppendString(" sit amet") },
		func() error { return b.AppendByte('.') },
		func() error { return b.InsertString(0, ">> ") },
		func() error { return b.ReplaceAllString("o", "0000") },
		func() error { return b.ReplaceAllString("0000", "") },
		func() error { return b.ReplaceFirstNString(" ", "_", 2) },
		func() error { return b.ReplaceRangeString(0, 3, "") },
		func() error { return b.Shift(5, 2) },
		func() error { return b.Shift(2, 40) },
		func() error { return b.Shift(3, 3) },
		func() error { return b.SetString("x") },
	}

	for i, op := range ops {
		require.NoError(t, op(), "op %d", i)
		requireInvariants(t, b)
	}
}

func TestRoundUp(t *testing.T) {
	n, ok := roundUp(11, 10)
	require.True(t, ok)
	require.Equal(t, 20, n)

	n, ok = roundUp(20, 10)
	require.True(t, ok)
	require.Equal(t, 20, n)

	_, ok = roundUp(int(^uint(0)>>1), 10)
	require.False(t, ok, "overflow near MaxInt")
}
