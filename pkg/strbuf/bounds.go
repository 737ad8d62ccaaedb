package strbuf

import "math"

// addOverflowSafe 返回 a+b，结果溢出 int 时 ok 为 false。
func addOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// mulOverflowSafe 返回 a*b，仅用于非负操作数（匹配次数 × 长度差）。
func mulOverflowSafe(a, b int) (int, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a < 0 || b < 0 || a > math.MaxInt/b {
		return 0, false
	}

	return a * b, true
}

// roundUp 将 n 向上取整为 unit 的整数倍。
func roundUp(n, unit int) (int, bool) {
	mod := n % unit
	if mod == 0 {
		return n, true
	}

	return addOverflowSafe(n-mod, unit)
}
