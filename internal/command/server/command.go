// Package server 提供模板展开与替换的 HTTP 服务命令。
package server

import (
	"github.com/urfave/cli/v3"

	"github.com/lwmacct/251207-go-pkg-strbuf/internal/command"
	"github.com/lwmacct/251207-go-pkg-strbuf/internal/version"
)

// Command 服务器命令
var Command = NewCommand()

// NewCommand 创建服务器命令。
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:     "server",
		Usage:    "启动 HTTP 服务器",
		Action:   action,
		Commands: []*cli.Command{version.Command},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server-addr",
				Aliases: []string{"a"},
				Value:   command.Defaults.Server.Addr,
				Usage:   "服务器监听地址",
			},
			&cli.DurationFlag{
				Name:  "server-timeout",
				Value: command.Defaults.Server.Timeout,
				Usage: "HTTP 读写超时",
			},
			&cli.DurationFlag{
				Name:  "server-idletime",
				Value: command.Defaults.Server.Idletime,
				Usage: "HTTP 空闲超时",
			},
			&cli.IntFlag{
				Name:  "server-cache-size",
				Value: command.Defaults.Server.CacheSize,
				Usage: "已编译模板缓存条数，0 表示不缓存",
			},
			&cli.BoolFlag{
				Name:  "server-metrics",
				Value: command.Defaults.Server.Metrics,
				Usage: "启用指标采集与 GET /metrics",
			},
			&cli.IntFlag{
				Name:  "template-max-slot",
				Value: command.Defaults.Template.MaxSlot,
				Usage: "请求未指定 max_slot 时使用的 slot id 上限",
			},
		},
	}
}
