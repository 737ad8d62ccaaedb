// Package edit 描述并执行一组作用于 [strbuf.Buffer] 的编辑操作，
// 供 sub 命令与 HTTP 服务共用。
package edit

import (
	"fmt"
	"math"
	"strings"

	"github.com/lwmacct/251207-go-pkg-strbuf/pkg/strbuf"
)

// Span 用 Text 替换 [From, To)。
type Span struct {
	From int    `json:"from"`
	To   int    `json:"to"`
	Text string `json:"text"`
}

// Insertion 在 At 之前插入 Text。
type Insertion struct {
	At   int    `json:"at"`
	Text string `json:"text"`
}

// Ops 一次编辑，按 Range → Insert → Match 的顺序执行。
type Ops struct {
	Range       *Span      `json:"range,omitempty"`
	Insert      *Insertion `json:"insert,omitempty"`
	Match       string     `json:"match,omitempty"`
	Replacement string     `json:"replacement"`
	Count       int        `json:"count,omitempty"` // 0 表示全部替换
}

// Empty 报告是否没有任何操作。
func (o Ops) Empty() bool {
	return o.Range == nil && o.Insert == nil && o.Match == ""
}

// Name 返回操作名称，用于日志与指标。
func (o Ops) Name() string {
	var names []string
	if o.Range != nil {
		names = append(names, "range")
	}
	if o.Insert != nil {
		names = append(names, "insert")
	}
	switch {
	case o.Match != "" && o.Count > 0:
		names = append(names, "replace-first-n")
	case o.Match != "":
		names = append(names, "replace-all")
	}
	if len(names) == 0 {
		return "none"
	}

	return strings.Join(names, "+")
}

// Apply 依次执行 ops。失败时返回首个错误，之前已执行的步骤不回滚。
func Apply(b *strbuf.Buffer, ops Ops) error {
	if ops.Count < 0 {
		return fmt.Errorf("count %d: %w", ops.Count, strbuf.ErrInvalidArgument)
	}
	if r := ops.Range; r != nil {
		if err := b.ReplaceRangeString(r.From, r.To, r.Text); err != nil {
			return err
		}
	}
	if ins := ops.Insert; ins != nil {
		if err := b.InsertString(ins.At, ins.Text); err != nil {
			return err
		}
	}
	if ops.Match == "" {
		return nil
	}
	if ops.Count > 0 {
		return b.ReplaceFirstNString(ops.Match, ops.Replacement, ops.Count)
	}

	return b.ReplaceAllString(ops.Match, ops.Replacement)
}

// ParseSpan 解析 "FROM:TO" 或 "FROM:TO:TEXT"。
func ParseSpan(s string) (*Span, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 {
		return nil, fmt.Errorf("range %q: want FROM:TO[:TEXT]: %w", s, strbuf.ErrSyntax)
	}

	from, err := parseOffset(parts[0])
	if err != nil {
		return nil, fmt.Errorf("range %q: %w", s, err)
	}
	to, err := parseOffset(parts[1])
	if err != nil {
		return nil, fmt.Errorf("range %q: %w", s, err)
	}

	span := &Span{From: from, To: to}
	if len(parts) == 3 {
		span.Text = parts[2]
	}

	return span, nil
}

// ParseInsertion 解析 "AT:TEXT"。
func ParseInsertion(s string) (*Insertion, error) {
	at, text, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("insert %q: want AT:TEXT: %w", s, strbuf.ErrSyntax)
	}

	offset, err := parseOffset(at)
	if err != nil {
		return nil, fmt.Errorf("insert %q: %w", s, err)
	}

	return &Insertion{At: offset, Text: text}, nil
}

func parseOffset(s string) (int, error) {
	v, err := strbuf.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if v > math.MaxInt {
		return 0, fmt.Errorf("offset %s: %w", s, strbuf.ErrRange)
	}

	return int(v), nil
}
