// Package version 提供应用名称、版本信息与 version 子命令。
package version

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/urfave/cli/v3"
)

// AppRawName 应用名称，同时用于默认配置文件路径。
const AppRawName = "strbuf"

// 构建时通过 -ldflags "-X" 注入。
var (
	Version   = ""
	Commit    = ""
	BuildTime = ""
)

// GetVersion 返回版本号；未注入时回退到模块构建信息。
func GetVersion() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}

	return "dev"
}

// Command 打印版本信息
var Command = &cli.Command{
	Name:  "version",
	Usage: "显示版本信息",
	Action: func(_ context.Context, cmd *cli.Command) error {
		w := cmd.Root().Writer
		_, _ = fmt.Fprintf(w, "%s %s\n", AppRawName, GetVersion())
		if Commit != "" {
			_, _ = fmt.Fprintf(w, "commit: %s\n", Commit)
		}
		if BuildTime != "" {
			_, _ = fmt.Fprintf(w, "built: %s\n", BuildTime)
		}
		_, _ = fmt.Fprintf(w, "go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)

		return nil
	},
}
