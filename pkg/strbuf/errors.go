package strbuf

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument 参数非法：空输入、空匹配串、越界偏移等。
	ErrInvalidArgument = errors.New("strbuf: invalid argument")

	// ErrRange 数值超出目标位宽，或 slot id 超过 255 上限。
	ErrRange = errors.New("strbuf: value out of range")

	// ErrAllocation 底层存储无法扩容（算术溢出或超过 [WithLimit] 上限）。
	ErrAllocation = errors.New("strbuf: allocation failed")

	// ErrSyntax 数字串格式错误（空串或包含非数字字符），属于 ErrInvalidArgument。
	ErrSyntax = fmt.Errorf("%w: invalid syntax", ErrInvalidArgument)
)
