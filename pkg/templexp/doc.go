// Package templexp 把含有编号占位符（$1, $2, …）的格式串编译为可反复展开的模板。
//
// 编译只做一次从左到右的扫描：去掉所有有效占位符得到字面量，并记录每个占位符
// 的 slot id 与距上一个占位符的字面量字节数。展开时按段表回放，开销只与段数
// 和输出长度相关，不再重新解析模板。
//
// # 语义说明
//
//  1. 占位符为 "$" 后紧跟的十进制数字，贪婪匹配
//  2. slot id 在 [1, maxSlot] 内才是占位符，否则 "$" 与数字原样保留
//  3. 前一个字节为 "\" 时 "$" 视为字面量，反斜杠同样保留（"\$1" 仍是 "\$1"）
//  4. 数字超出 8 位（> 255）时编译失败
//  5. 替换值原样拷贝，其中的 "$" 不会再次展开
//
// # 快速开始
//
//	tpl, err := templexp.CompileString("GET $1 HTTP/1.1\r\nHost: $2\r\n", 2)
//	out, err := tpl.ExpandString("/index.html", "example.com")
//
// 未提供的 slot 或空替换值在输出中不占字节：
//
//	tpl := templexp.MustCompile("$1-$2", 2)
//	out, _ := tpl.ExpandString("a") // "a-"
//
// Template 编译后不可变，可在多个 goroutine 中并发展开。
//
// 详见 [Compile] 与 [Template.Expand] 文档。
package templexp
