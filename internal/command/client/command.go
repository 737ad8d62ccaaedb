// Package client 提供 HTTP 客户端命令。
package client

import (
	"github.com/urfave/cli/v3"

	"github.com/lwmacct/251207-go-pkg-strbuf/internal/command"
	"github.com/lwmacct/251207-go-pkg-strbuf/internal/version"
)

// Command 客户端命令
var Command = NewCommand()

// NewCommand 创建客户端命令。
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:  "client",
		Usage: "HTTP 客户端工具",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "client-url",
				Aliases: []string{"s"},
				Value:   command.Defaults.Client.URL,
				Usage:   "服务器地址",
			},
			&cli.DurationFlag{
				Name:  "client-timeout",
				Value: command.Defaults.Client.Timeout,
				Usage: "请求超时时间",
			},
			&cli.IntFlag{
				Name:  "client-retries",
				Value: command.Defaults.Client.Retries,
				Usage: "重试次数",
			},
		},
		Commands: []*cli.Command{
			version.Command,
			{
				Name:   "health",
				Usage:  "检查服务器健康状态",
				Action: healthAction,
			},
			{
				Name:      "expand",
				Usage:     "请求服务器展开模板",
				ArgsUsage: "TEMPLATE [VALUE...]",
				Action:    expandAction,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "template-max-slot",
						Aliases: []string{"m"},
						Usage:   "slot id 上限，未设置时使用服务器配置",
					},
				},
			},
		},
	}
}
