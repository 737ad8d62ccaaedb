// Package sub 提供基于缓冲区的原地替换命令。
package sub

import (
	"github.com/urfave/cli/v3"

	"github.com/lwmacct/251207-go-pkg-strbuf/internal/command"
)

// Command 替换命令
var Command = NewCommand()

// NewCommand 创建替换命令。
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:      "sub",
		Usage:     "读取输入并执行区间替换、插入与字符串替换",
		ArgsUsage: "[TEXT]",
		Action:    action,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "输入文件，未指定且无 TEXT 参数时读取标准输入",
			},
			&cli.StringFlag{
				Name:  "range",
				Usage: "区间替换 FROM:TO[:TEXT]，最先执行",
			},
			&cli.StringFlag{
				Name:  "insert",
				Usage: "在偏移前插入 AT:TEXT",
			},
			&cli.StringFlag{
				Name:    "match",
				Aliases: []string{"m"},
				Usage:   "要替换的字符串",
			},
			&cli.StringFlag{
				Name:    "replace",
				Aliases: []string{"r"},
				Usage:   "替换内容，为空表示删除",
			},
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Usage:   "最多替换次数，0 表示全部",
			},
			&cli.IntFlag{
				Name:  "buffer-unit",
				Value: command.Defaults.Buffer.Unit,
				Usage: "缓冲区增长粒度 (字节)",
			},
			&cli.IntFlag{
				Name:  "buffer-limit",
				Value: command.Defaults.Buffer.Limit,
				Usage: "缓冲区容量上限 (字节)，0 表示不限制",
			},
		},
	}
}
