package strbuf

import (
	"fmt"
	"math"
)

// ScanUint 解析 p 开头的连续数字，遇到第一个非数字字节即停止。
//
// base 仅支持 8 与 10，bitSize 为 8/16/32/64。返回解析值与消耗的字节数；
// 没有数字时返回 (0, 0, nil)。结果超出 bitSize 位宽时返回 [ErrRange]。
func ScanUint(p []byte, base, bitSize int) (uint64, int, error) {
	return scanUint(p, base, bitSize)
}

// ParseUint 要求整个 s 都是数字。
//
// 空串或出现非数字字节时返回 [ErrSyntax]，溢出时返回 [ErrRange]。
func ParseUint(s string, base, bitSize int) (uint64, error) {
	v, n, err := scanUint(s, base, bitSize)
	if err != nil {
		return 0, err
	}
	if n == 0 || n != len(s) {
		return 0, fmt.Errorf("strbuf: parse %q: %w", s, ErrSyntax)
	}

	return v, nil
}

// ParseInt 解析带可选正负号的十进制整数，要求整个 s 都是数字。
func ParseInt(s string, bitSize int) (int64, error) {
	if !validBitSize(bitSize) {
		return 0, fmt.Errorf("strbuf: bit size %d: %w", bitSize, ErrInvalidArgument)
	}

	neg := false
	digits := s
	if len(digits) > 0 && (digits[0] == '-' || digits[0] == '+') {
		neg = digits[0] == '-'
		digits = digits[1:]
	}

	v, err := ParseUint(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("strbuf: parse %q: %w", s, err)
	}

	cutoff := uint64(1) << (bitSize - 1)
	switch {
	case neg && v > cutoff, !neg && v >= cutoff:
		return 0, fmt.Errorf("strbuf: parse %q: %d-bit: %w", s, bitSize, ErrRange)
	case neg && v == cutoff:
		return -int64(cutoff-1) - 1, nil //nolint:gosec // cutoff <= 1<<63
	case neg:
		return -int64(v), nil //nolint:gosec // v < 1<<63 checked above
	default:
		return int64(v), nil //nolint:gosec // v < 1<<63 checked above
	}
}

func validBitSize(bitSize int) bool {
	switch bitSize {
	case 8, 16, 32, 64:
		return true
	}

	return false
}

func scanUint[T byteSeq](p T, base, bitSize int) (uint64, int, error) {
	if base != 8 && base != 10 {
		return 0, 0, fmt.Errorf("strbuf: base %d: %w", base, ErrInvalidArgument)
	}
	if !validBitSize(bitSize) {
		return 0, 0, fmt.Errorf("strbuf: bit size %d: %w", bitSize, ErrInvalidArgument)
	}

	maxVal := uint64(math.MaxUint64) >> (64 - bitSize)
	ubase := uint64(base) //nolint:gosec // base is 8 or 10

	var v uint64
	i := 0
	for ; i < len(p); i++ {
		c := p[i]
		if c < '0' || uint64(c-'0') >= ubase {
			break
		}
		d := uint64(c - '0')
		if v > (maxVal-d)/ubase {
			return 0, i, fmt.Errorf("strbuf: %d-bit overflow after %d digits: %w", bitSize, i, ErrRange)
		}
		v = v*ubase + d
	}

	return v, i, nil
}
