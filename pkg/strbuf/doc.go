// Package strbuf 提供按固定粒度增长的字节缓冲区，以及原地拼接字符串的操作。
//
// 所有修改操作都归结到一个原语 [Buffer.Shift]：把 [from, used) 这段尾部内容
// 整体搬到新的偏移，从而为插入打开空隙或为删除合拢空隙。
//
// # 容量规则
//
//  1. 容量总是 unit 的整数倍（New 时的首次分配除外）
//  2. 始终保留一个字节的 0 终止符：Total() >= Len()+1
//  3. 扩容失败不会破坏原有内容与容量
//  4. 从不隐式缩容
//
// # 快速开始
//
//	b, err := strbuf.New(64)
//	_ = b.SetString("hello world")
//	_ = b.InsertString(6, "big ")
//	_ = b.ReplaceAllString("o", "0")
//	fmt.Println(b.String()) // hell0 big w0rld
//
// 内容按字节处理，允许内嵌 0 字节；终止符仅用于与 C 风格字符串互操作。
//
// Buffer 不是并发安全的，多个 goroutine 共享时需由调用方加锁。
package strbuf
