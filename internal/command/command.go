// Package command 提供各子命令共享的默认配置。
package command

import "github.com/lwmacct/251207-go-pkg-strbuf/internal/config"

// Defaults 为默认配置的单一来源。
var Defaults = config.DefaultConfig()
