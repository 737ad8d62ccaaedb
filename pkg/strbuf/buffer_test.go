package strbuf_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwmacct/251207-go-pkg-strbuf/pkg/strbuf"
)

func newBuffer(t *testing.T, unit int, content string, opts ...strbuf.Option) *strbuf.Buffer {
	t.Helper()

	b, err := strbuf.New(unit, opts...)
	require.NoError(t, err)
	if content != "" {
		require.NoError(t, b.SetString(content))
	}

	return b
}

func TestNew(t *testing.T) {
	b, err := strbuf.New(10)
	require.NoError(t, err)
	assert.Equal(t, 10, b.Unit())
	assert.Equal(t, 10, b.Total())
	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.String())

	_, err = strbuf.New(0)
	require.ErrorIs(t, err, strbuf.ErrInvalidArgument)

	_, err = strbuf.New(64, strbuf.WithLimit(32))
	require.ErrorIs(t, err, strbuf.ErrAllocation)
}

// 与原始实现的回归用例逐步对应。
func TestBuffer_ReferenceScenario(t *testing.T) {
	b := newBuffer(t, 10, "")

	steps := []struct {
		name  string
		op    func() error
		want  string
		total int
	}{
		{"set", func() error { return b.SetString("9876543210") }, "9876543210", 20},
		{"set prefix", func() error { return b.SetString("9876543210"[:9]) }, "987654321", 20},
		{"append", func() error { return b.AppendString("BBBBBBBKLL") }, "987654321BBBBBBBKLL", 20},
		{"append prefix", func() error { return b.AppendString("cat text"[:5]) }, "987654321BBBBBBBKLLcat t", 30},
		{"append byte", func() error { return b.AppendByte('A') }, "987654321BBBBBBBKLLcat tA", 30},
		{"insert", func() error { return b.InsertString(2, "X") }, "98X7654321BBBBBBBKLLcat tA", 30},
		{"replace all deletes", func() error { return b.ReplaceAllString("B", "") }, "98X7654321KLLcat tA", 30},
		{"replace first", func() error { return b.ReplaceFirstNString("L", "B", 1) }, "98X7654321KBLcat tA", 30},
		{"replace range", func() error { return b.ReplaceRangeString(2, 12, "delete") }, "98deleteLcat tA", 30},
		{"insert prefix", func() error { return b.InsertString(12, "YY"[:1]) }, "98deleteLcatY tA", 30},
		{"insert two", func() error { return b.InsertString(12, "ZZ") }, "98deleteLcatZZY tA", 30},
	}

	for _, step := range steps {
		require.NoError(t, step.op(), step.name)
		assert.Equal(t, step.want, b.String(), step.name)
		assert.Equal(t, len(step.want), b.Len(), step.name)
		assert.Equal(t, step.total, b.Total(), step.name)
	}
}

func TestBuffer_EnsureCapacity(t *testing.T) {
	b := newBuffer(t, 8, "abc")

	require.NoError(t, b.EnsureCapacity(4))
	assert.Equal(t, 8, b.Total(), "already large enough")

	require.NoError(t, b.EnsureCapacity(9))
	assert.Equal(t, 16, b.Total(), "rounded up to unit")
	assert.Equal(t, "abc", b.String())

	require.NoError(t, b.EnsureCapacity(32))
	assert.Equal(t, 32, b.Total(), "exact multiple")
}

func TestBuffer_GrowFailurePreservesState(t *testing.T) {
	b := newBuffer(t, 10, "0123456789abcde", strbuf.WithLimit(20))
	require.Equal(t, 20, b.Total())

	err := b.AppendString("0123456789")
	require.ErrorIs(t, err, strbuf.ErrAllocation)
	assert.Equal(t, "0123456789abcde", b.String())
	assert.Equal(t, 20, b.Total())

	err = b.Shift(2, 12)
	require.ErrorIs(t, err, strbuf.ErrAllocation)
	assert.Equal(t, "0123456789abcde", b.String())
	assert.Equal(t, 15, b.Len())
}

func TestBuffer_Shift(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		from, to int
		want     string
	}{
		{name: "right shift overlapping", content: "abcdef", from: 2, to: 3, want: "abccdef"},
		{name: "right shift past end", content: "abc", from: 1, to: 6, want: "abc\x00\x00\x00bc"},
		{name: "left shift by one", content: "abcdefghij", from: 3, to: 2, want: "abdefghij"},
		{name: "left shift small distance long tail", content: "0123456789abcdefghij", from: 5, to: 3, want: "012" + "56789abcdefghij"},
		{name: "left shift to start", content: "abcdef", from: 4, to: 0, want: "ef"},
		{name: "shift empty tail", content: "abc", from: 3, to: 5, want: "abc\x00\x00"},
		{name: "truncate", content: "abc", from: 3, to: 1, want: "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBuffer(t, 4, tt.content)
			require.NoError(t, b.Shift(tt.from, tt.to))
			assert.Equal(t, tt.want, b.String())
			assert.Equal(t, len(tt.want), b.Len())
		})
	}
}

func TestBuffer_ShiftNoop(t *testing.T) {
	b := newBuffer(t, 4, "abcdef")
	total := b.Total()

	for i := 0; i <= b.Len(); i++ {
		require.NoError(t, b.Shift(i, i))
		assert.Equal(t, "abcdef", b.String())
		assert.Equal(t, total, b.Total())
	}
}

func TestBuffer_ShiftInvalid(t *testing.T) {
	b := newBuffer(t, 4, "abc")

	require.ErrorIs(t, b.Shift(4, 5), strbuf.ErrInvalidArgument)
	require.ErrorIs(t, b.Shift(-1, 0), strbuf.ErrInvalidArgument)
	require.ErrorIs(t, b.Shift(1, -1), strbuf.ErrInvalidArgument)
	assert.Equal(t, "abc", b.String())
}

func TestBuffer_ResetAndRelease(t *testing.T) {
	b := newBuffer(t, 4, "abcdef")

	b.Reset()
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 8, b.Total())

	b.Release()
	assert.Equal(t, 0, b.Total())
	assert.Empty(t, b.Bytes())

	require.NoError(t, b.AppendString("xyz"))
	assert.Equal(t, "xyz", b.String())
	assert.Equal(t, 4, b.Total())
}
