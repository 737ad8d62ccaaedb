// Command strbuf 提供缓冲区替换、$N 模板展开及其 HTTP 服务。
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/lwmacct/251207-go-pkg-strbuf/internal/command/client"
	"github.com/lwmacct/251207-go-pkg-strbuf/internal/command/expand"
	"github.com/lwmacct/251207-go-pkg-strbuf/internal/command/server"
	"github.com/lwmacct/251207-go-pkg-strbuf/internal/command/sub"
	"github.com/lwmacct/251207-go-pkg-strbuf/internal/version"
)

func main() {
	app := &cli.Command{
		Name:    version.AppRawName,
		Usage:   "可增长字节缓冲区与 $N 模板工具",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径 (YAML/JSON)",
			},
		},
		Commands: []*cli.Command{
			version.Command,
			expand.Command,
			sub.Command,
			server.Command,
			client.Command,
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
