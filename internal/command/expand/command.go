// Package expand 提供本地模板展开命令。
package expand

import (
	"github.com/urfave/cli/v3"

	"github.com/lwmacct/251207-go-pkg-strbuf/internal/command"
)

// Command 模板展开命令
var Command = NewCommand()

// NewCommand 创建模板展开命令；flag 会保存解析状态，测试中每次运行都需要新实例。
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:      "expand",
		Usage:     "编译模板并用参数展开 $1..$N",
		ArgsUsage: "TEMPLATE [VALUE...]",
		Action:    action,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "template-max-slot",
				Aliases: []string{"m"},
				Value:   command.Defaults.Template.MaxSlot,
				Usage:   "slot id 上限 (1-255)",
			},
			&cli.IntFlag{
				Name:  "template-limit",
				Value: command.Defaults.Template.Limit,
				Usage: "展开输出上限 (字节)，0 表示不限制",
			},
			&cli.BoolFlag{
				Name:  "literal",
				Usage: "只输出编译后的字面量",
			},
			&cli.BoolFlag{
				Name:  "segments",
				Usage: "输出段表 (序号, slot, 距离)",
			},
		},
	}
}
