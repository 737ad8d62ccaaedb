// Package config 提供应用配置管理。
//
// 配置加载优先级 (从低到高)：
//  1. 默认值 - DefaultConfig() 函数中定义
//  2. 配置文件 - 通过 WithAppName / WithConfigPaths 选项设置
//  3. 环境变量 - 通过 WithEnvPrefix 选项启用
//  4. CLI flags - 通过 WithCommand 选项设置
package config

import (
	"time"
)

// EnvPrefix 环境变量前缀，例如 STRBUF_BUFFER_UNIT → buffer.unit。
const EnvPrefix = "STRBUF_"

// Config 应用配置。
type Config struct {
	Buffer   BufferConfig   `json:"buffer" desc:"缓冲区配置"`
	Template TemplateConfig `json:"template" desc:"模板配置"`
	Server   ServerConfig   `json:"server" desc:"服务端配置"`
	Client   ClientConfig   `json:"client" desc:"客户端配置"`
}

// BufferConfig 缓冲区配置。
type BufferConfig struct {
	Unit  int `json:"unit" desc:"增长粒度 (字节)"`
	Limit int `json:"limit" desc:"容量上限 (字节)，0 表示不限制"`
}

// TemplateConfig 模板配置。
//
//nolint:tagliatelle
type TemplateConfig struct {
	MaxSlot int `json:"max-slot" desc:"slot id 上限 (1-255)"`
	Unit    int `json:"unit" desc:"展开输出增长粒度 (字节)"`
	Limit   int `json:"limit" desc:"展开输出上限 (字节)，0 表示不限制"`
}

// ServerConfig 服务端配置。
//
//nolint:tagliatelle
type ServerConfig struct {
	Addr      string        `json:"addr" desc:"服务器监听地址"`
	Timeout   time.Duration `json:"timeout" desc:"HTTP 读写超时"`
	Idletime  time.Duration `json:"idletime" desc:"HTTP 空闲超时"`
	CacheSize int           `json:"cache-size" desc:"已编译模板缓存条数"`
	MaxBody   int64         `json:"max-body" desc:"请求体上限 (字节)"`
	Metrics   bool          `json:"metrics" desc:"启用指标采集与 GET /metrics"`
}

// ClientConfig 客户端配置。
type ClientConfig struct {
	URL     string        `json:"url" desc:"服务器地址"`
	Timeout time.Duration `json:"timeout" desc:"请求超时时间"`
	Retries int           `json:"retries" desc:"重试次数"`
}

// DefaultConfig 返回默认配置。
// 注意：internal/command/command.go 中的 Defaults 变量引用此函数以实现单一配置来源。
func DefaultConfig() Config {
	return Config{
		Buffer: BufferConfig{
			Unit: 256,
		},
		Template: TemplateConfig{
			MaxSlot: 9,
			Unit:    64,
			Limit:   1 << 20,
		},
		Server: ServerConfig{
			Addr:      ":40118",
			Timeout:   15 * time.Second,
			Idletime:  60 * time.Second,
			CacheSize: 1024,
			MaxBody:   1 << 20,
			Metrics:   true,
		},
		Client: ClientConfig{
			URL:     "http://localhost:40118",
			Timeout: 30 * time.Second,
			Retries: 3,
		},
	}
}
