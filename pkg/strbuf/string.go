package strbuf

import (
	"bytes"
	"fmt"
)

// byteSeq 约束字符串与字节切片两种输入。
type byteSeq interface {
	~string | ~[]byte
}

// ═══════════════════════════════════════════════════════════════════════════
// 覆盖与追加
// ═══════════════════════════════════════════════════════════════════════════

// Set 用 p 替换全部内容。p 为空时返回 [ErrInvalidArgument]。
func (b *Buffer) Set(p []byte) error { return set(b, p) }

// SetString 同 [Buffer.Set]。
func (b *Buffer) SetString(s string) error { return set(b, s) }

func set[T byteSeq](b *Buffer, p T) error {
	if len(p) == 0 {
		return fmt.Errorf("strbuf: set empty content: %w", ErrInvalidArgument)
	}
	need, ok := addOverflowSafe(len(p), 1)
	if !ok {
		return fmt.Errorf("strbuf: set %d bytes: %w", len(p), ErrAllocation)
	}
	if err := b.EnsureCapacity(need); err != nil {
		return err
	}

	copy(b.mem, p)
	b.used = len(p)
	b.mem[b.used] = 0

	return nil
}

// Append 在末尾追加 p。p 为空时返回 [ErrInvalidArgument]。
func (b *Buffer) Append(p []byte) error { return appendTail(b, p) }

// AppendString 同 [Buffer.Append]。
func (b *Buffer) AppendString(s string) error { return appendTail(b, s) }

func appendTail[T byteSeq](b *Buffer, p T) error {
	if len(p) == 0 {
		return fmt.Errorf("strbuf: append empty content: %w", ErrInvalidArgument)
	}
	if err := b.reserve(len(p)); err != nil {
		return err
	}

	copy(b.mem[b.used:], p)
	b.used += len(p)
	b.mem[b.used] = 0

	return nil
}

// AppendByte 在末尾追加单个字节。
func (b *Buffer) AppendByte(c byte) error {
	if err := b.reserve(1); err != nil {
		return err
	}

	b.mem[b.used] = c
	b.used++
	b.mem[b.used] = 0

	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// 插入与替换
// ═══════════════════════════════════════════════════════════════════════════

// Insert 在偏移 at 之前插入 p，要求 0 <= at < Len()。
//
// p 不能与缓冲区自身的内容重叠。
func (b *Buffer) Insert(at int, p []byte) error { return insert(b, at, p) }

// InsertString 同 [Buffer.Insert]。
func (b *Buffer) InsertString(at int, s string) error { return insert(b, at, s) }

func insert[T byteSeq](b *Buffer, at int, p T) error {
	if len(p) == 0 || at < 0 || at >= b.used {
		return fmt.Errorf("strbuf: insert %d bytes at %d (len %d): %w", len(p), at, b.used, ErrInvalidArgument)
	}
	to, ok := addOverflowSafe(at, len(p))
	if !ok {
		return fmt.Errorf("strbuf: insert %d bytes at %d: %w", len(p), at, ErrAllocation)
	}
	if err := b.Shift(at, to); err != nil {
		return err
	}
	copy(b.mem[at:], p)

	return nil
}

// ReplaceAll 从左到右替换所有不重叠的 match。
//
// rep 为空即删除。match 为空时返回 [ErrInvalidArgument]。
// 所需容量在替换前一次性预留，扩容失败时内容保持不变。
func (b *Buffer) ReplaceAll(match, rep []byte) error {
	if len(match) == 0 {
		return fmt.Errorf("strbuf: replace empty match: %w", ErrInvalidArgument)
	}

	return b.replace(match, rep, -1)
}

// ReplaceAllString 同 [Buffer.ReplaceAll]。
func (b *Buffer) ReplaceAllString(match, rep string) error {
	return b.ReplaceAll([]byte(match), []byte(rep))
}

// ReplaceFirstN 与 [Buffer.ReplaceAll] 相同，但最多替换 n 处，要求 n >= 1。
func (b *Buffer) ReplaceFirstN(match, rep []byte, n int) error {
	if len(match) == 0 || n < 1 {
		return fmt.Errorf("strbuf: replace %d of %q: %w", n, match, ErrInvalidArgument)
	}

	return b.replace(match, rep, n)
}

// ReplaceFirstNString 同 [Buffer.ReplaceFirstN]。
func (b *Buffer) ReplaceFirstNString(match, rep string, n int) error {
	return b.ReplaceFirstN([]byte(match), []byte(rep), n)
}

// replace 执行替换，limit < 0 表示不限次数。
//
// 替换后从替换内容之后继续扫描，未改动的尾部与原内容一致，
// 因此预先统计的匹配次数就是实际替换次数。
func (b *Buffer) replace(match, rep []byte, limit int) error {
	count := b.count(match, limit)
	if count == 0 {
		return nil
	}

	delta := len(rep) - len(match)
	if delta > 0 {
		grow, ok := mulOverflowSafe(count, delta)
		if !ok {
			return fmt.Errorf("strbuf: replace %d matches: %w", count, ErrAllocation)
		}
		if err := b.reserve(grow); err != nil {
			return err
		}
	}

	cur := 0
	for range count {
		start := cur + bytes.Index(b.mem[cur:b.used], match)
		end := start + len(match)
		if delta != 0 {
			if err := b.Shift(end, end+delta); err != nil {
				return err
			}
		}
		copy(b.mem[start:], rep)
		cur = start + len(rep)
	}

	return nil
}

// count 统计不重叠的 match 次数，limit >= 0 时最多统计 limit 次。
func (b *Buffer) count(match []byte, limit int) int {
	n := 0
	for cur := 0; limit < 0 || n < limit; n++ {
		i := bytes.Index(b.mem[cur:b.used], match)
		if i < 0 {
			break
		}
		cur += i + len(match)
	}

	return n
}

// ReplaceRange 用 rep 替换 [from, to)，要求 0 <= from < to <= Len()。
//
// rep 为空即删除该区间。
func (b *Buffer) ReplaceRange(from, to int, rep []byte) error {
	return replaceRange(b, from, to, rep)
}

// ReplaceRangeString 同 [Buffer.ReplaceRange]。
func (b *Buffer) ReplaceRangeString(from, to int, rep string) error {
	return replaceRange(b, from, to, rep)
}

func replaceRange[T byteSeq](b *Buffer, from, to int, rep T) error {
	if from < 0 || from >= to || to > b.used {
		return fmt.Errorf("strbuf: replace range [%d,%d) (len %d): %w", from, to, b.used, ErrInvalidArgument)
	}

	end, ok := addOverflowSafe(from, len(rep))
	if !ok {
		return fmt.Errorf("strbuf: replace range with %d bytes: %w", len(rep), ErrAllocation)
	}
	if err := b.Shift(to, end); err != nil {
		return err
	}
	copy(b.mem[from:], rep)

	return nil
}
