package templexp

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/lwmacct/251207-go-pkg-strbuf/pkg/strbuf"
)

// MaxSlot 为 slot id 的上限（8 位计数器）。
const MaxSlot = 255

// defaultUnit 展开输出缓冲区的默认增长粒度。
const defaultUnit = 64

// Segment 记录一次占位符出现。
type Segment struct {
	Slot     uint8 // 1..maxSlot
	Distance int   // 距上一个占位符（或字面量开头）的字面量字节数
}

// Template 编译后的模板：去除占位符的字面量 + 段表。
type Template struct {
	literal  []byte
	maxSlot  int
	segments []Segment
	unit     int
	limit    int
}

// Option 编译选项函数。
type Option func(*Template)

// WithUnit 设置展开输出缓冲区的增长粒度。
func WithUnit(unit int) Option {
	return func(t *Template) {
		if unit > 0 {
			t.unit = unit
		}
	}
}

// WithLimit 设置展开输出缓冲区的容量上限，超出时 [Template.Expand] 返回
// [strbuf.ErrAllocation]。limit <= 0 表示不限制。
func WithLimit(limit int) Option {
	return func(t *Template) {
		t.limit = limit
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// 编译
// ═══════════════════════════════════════════════════════════════════════════

// Compile 编译模板 src，maxSlot 为有效 slot id 的上限（含）。
//
// src 为空或 maxSlot < 1 时返回 [strbuf.ErrInvalidArgument]；
// maxSlot > 255 或占位符数字超出 8 位时返回 [strbuf.ErrRange]。
func Compile(src []byte, maxSlot int, opts ...Option) (*Template, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("templexp: empty template: %w", strbuf.ErrInvalidArgument)
	}
	if maxSlot < 1 {
		return nil, fmt.Errorf("templexp: max slot %d: %w", maxSlot, strbuf.ErrInvalidArgument)
	}
	if maxSlot > MaxSlot {
		return nil, fmt.Errorf("templexp: max slot %d exceeds %d: %w", maxSlot, MaxSlot, strbuf.ErrRange)
	}

	t := &Template{maxSlot: maxSlot, unit: defaultUnit}
	for _, opt := range opts {
		opt(t)
	}

	// 字面量不会比源串长，一次分配即可
	lit, err := strbuf.New(len(src) + 1)
	if err != nil {
		return nil, fmt.Errorf("templexp: %w", err)
	}

	mark, last := 0, 0 // mark: 待拷贝字面量在 src 中的起点；last: 上一段结束时的字面量长度
	for i := 0; i < len(src); i++ {
		if src[i] != '$' || (i > 0 && src[i-1] == '\\') {
			continue
		}

		id, n, err := strbuf.ScanUint(src[i+1:], 10, 8)
		if err != nil {
			return nil, fmt.Errorf("templexp: placeholder at offset %d: %w", i, err)
		}
		if n == 0 || id == 0 || int(id) > maxSlot {
			i += n

			continue
		}

		if i > mark {
			if err := lit.Append(src[mark:i]); err != nil {
				return nil, fmt.Errorf("templexp: %w", err)
			}
		}
		t.segments = append(t.segments, Segment{Slot: uint8(id), Distance: lit.Len() - last}) //nolint:gosec // id <= maxSlot <= 255
		last = lit.Len()
		i += n
		mark = i + 1
	}
	if mark < len(src) {
		if err := lit.Append(src[mark:]); err != nil {
			return nil, fmt.Errorf("templexp: %w", err)
		}
	}
	t.literal = lit.Bytes()

	return t, nil
}

// CompileString 同 [Compile]。
func CompileString(src string, maxSlot int, opts ...Option) (*Template, error) {
	return Compile([]byte(src), maxSlot, opts...)
}

// MustCompile 调用 [CompileString] 并在失败时 panic，适合包级变量初始化。
func MustCompile(src string, maxSlot int, opts ...Option) *Template {
	t, err := CompileString(src, maxSlot, opts...)
	if err != nil {
		panic(fmt.Sprintf("templexp: failed to compile %q: %v", src, err))
	}

	return t
}

// ═══════════════════════════════════════════════════════════════════════════
// 展开
// ═══════════════════════════════════════════════════════════════════════════

// Expand 用 subs 依次填充 slot 1..len(subs)，返回新分配的结果。
//
// 未提供 subs 时结果即字面量。slot 超过 len(subs) 或替换值为空的占位符
// 不输出任何字节。只会因输出超过 [WithLimit] 上限而失败。
func (t *Template) Expand(subs ...[]byte) ([]byte, error) {
	if len(subs) == 0 {
		return bytes.Clone(t.literal), nil
	}

	out, err := strbuf.New(t.unit, strbuf.WithLimit(t.limit))
	if err != nil {
		return nil, fmt.Errorf("templexp: expand: %w", err)
	}

	pos := 0
	for _, seg := range t.segments {
		if seg.Distance > 0 {
			if err := out.Append(t.literal[pos : pos+seg.Distance]); err != nil {
				return nil, fmt.Errorf("templexp: expand: %w", err)
			}
			pos += seg.Distance
		}

		if int(seg.Slot) > len(subs) {
			continue
		}
		if sub := subs[seg.Slot-1]; len(sub) > 0 {
			if err := out.Append(sub); err != nil {
				return nil, fmt.Errorf("templexp: expand slot %d: %w", seg.Slot, err)
			}
		}
	}
	if pos < len(t.literal) {
		if err := out.Append(t.literal[pos:]); err != nil {
			return nil, fmt.Errorf("templexp: expand: %w", err)
		}
	}

	return out.Bytes(), nil
}

// ExpandString 同 [Template.Expand]。
func (t *Template) ExpandString(subs ...string) (string, error) {
	raw := make([][]byte, len(subs))
	for i, s := range subs {
		raw[i] = []byte(s)
	}

	out, err := t.Expand(raw...)
	if err != nil {
		return "", err
	}

	return string(out), nil
}

// Literal 返回去除占位符后的字面量拷贝。
func (t *Template) Literal() []byte { return bytes.Clone(t.literal) }

// String 返回字面量。
func (t *Template) String() string { return string(t.literal) }

// Len 返回字面量长度。
func (t *Template) Len() int { return len(t.literal) }

// MaxSlot 返回编译时指定的 slot 上限。
func (t *Template) MaxSlot() int { return t.maxSlot }

// Segments 返回段表拷贝，顺序与占位符在模板中的出现顺序一致。
func (t *Template) Segments() []Segment { return slices.Clone(t.segments) }
