package strbuf

import (
	"fmt"
	"math"
)

// Buffer 按 unit 粒度增长的字节缓冲区。
//
// 零值不可用，使用 [New] 创建。
type Buffer struct {
	unit  int
	limit int
	used  int
	mem   []byte // len(mem) 即当前容量
}

// Option 缓冲区选项函数。
type Option func(*Buffer)

// WithLimit 设置容量上限（字节）。
//
// 扩容请求超过上限时返回 [ErrAllocation]，缓冲区保持原状。
// limit <= 0 表示不限制。
func WithLimit(limit int) Option {
	return func(b *Buffer) {
		if limit > 0 {
			b.limit = limit
		}
	}
}

// New 创建缓冲区并预分配 unit 字节。
func New(unit int, opts ...Option) (*Buffer, error) {
	if unit < 1 {
		return nil, fmt.Errorf("strbuf: unit %d: %w", unit, ErrInvalidArgument)
	}

	b := &Buffer{unit: unit, limit: math.MaxInt}
	for _, opt := range opts {
		opt(b)
	}
	if unit > b.limit {
		return nil, fmt.Errorf("strbuf: unit %d exceeds limit %d: %w", unit, b.limit, ErrAllocation)
	}
	b.mem = make([]byte, unit)

	return b, nil
}

// Unit 返回增长粒度。
func (b *Buffer) Unit() int { return b.unit }

// Limit 返回容量上限。
func (b *Buffer) Limit() int { return b.limit }

// Len 返回内容长度，不含终止符。
func (b *Buffer) Len() int { return b.used }

// Total 返回已分配容量。
func (b *Buffer) Total() int { return len(b.mem) }

// Bytes 返回当前内容。
//
// 返回的切片与缓冲区共享存储，下一次修改后即失效。
func (b *Buffer) Bytes() []byte { return b.mem[:b.used:b.used] }

// String 返回内容的字符串拷贝。
func (b *Buffer) String() string { return string(b.mem[:b.used]) }

// Reset 清空内容，保留容量。
func (b *Buffer) Reset() {
	b.used = 0
	if len(b.mem) > 0 {
		b.mem[0] = 0
	}
}

// Release 释放底层存储。
//
// 之后的修改操作会从零重新分配。
func (b *Buffer) Release() {
	b.mem = nil
	b.used = 0
}

// EnsureCapacity 保证容量不小于 required 字节。
//
// 新容量为 required 向上取整到 unit 的整数倍。失败时原有存储、长度与内容均不变。
func (b *Buffer) EnsureCapacity(required int) error {
	if required <= len(b.mem) {
		return nil
	}

	total, ok := roundUp(required, b.unit)
	if !ok || total > b.limit {
		return fmt.Errorf("strbuf: grow to %d bytes (limit %d): %w", required, b.limit, ErrAllocation)
	}

	mem := make([]byte, total)
	copy(mem, b.mem)
	b.mem = mem

	return nil
}

// Shift 把 [from, Len()) 整体搬到以 to 开始的位置，并更新长度与终止符。
//
//   - to > from: 先扩容到 to+(Len()-from)+1，再右移
//   - to < from: 左移压缩
//   - to == from: 不做任何事
//
// 源区间与目标区间可以重叠。搬移后 [from,to) 或 [to,from) 中的字节无意义，
// 由调用方写入新内容。仅扩容会失败，失败时缓冲区保持原状。
func (b *Buffer) Shift(from, to int) error {
	if from < 0 || to < 0 || from > b.used {
		return fmt.Errorf("strbuf: shift %d -> %d (len %d): %w", from, to, b.used, ErrInvalidArgument)
	}

	n := b.used - from
	switch {
	case to > from:
		end, ok := addOverflowSafe(to, n)
		if ok {
			end, ok = addOverflowSafe(end, 1)
		}
		if !ok {
			return fmt.Errorf("strbuf: shift %d -> %d: %w", from, to, ErrAllocation)
		}
		if err := b.EnsureCapacity(end); err != nil {
			return err
		}
	case to == from:
		return nil
	}

	// copy 的语义等同 memmove，两个方向的重叠都安全
	copy(b.mem[to:to+n], b.mem[from:b.used])
	b.used = to + n
	b.mem[b.used] = 0

	return nil
}

// reserve 保证在当前内容之后还能再写入 n 字节及终止符。
func (b *Buffer) reserve(n int) error {
	need, ok := addOverflowSafe(b.used, n)
	if ok {
		need, ok = addOverflowSafe(need, 1)
	}
	if !ok {
		return fmt.Errorf("strbuf: append %d bytes: %w", n, ErrAllocation)
	}

	return b.EnsureCapacity(need)
}
