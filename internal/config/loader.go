package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/urfave/cli/v3"
	yamlv3 "go.yaml.in/yaml/v3"

	"github.com/lwmacct/251207-go-pkg-strbuf/pkg/templexp"
)

// options 配置加载选项。
type options struct {
	appName     string // 应用名称，用于生成默认配置路径
	cmd         *cli.Command
	configPaths []string
	envPrefix   string
}

// Option 配置加载选项函数。
type Option func(*options)

// WithCommand 绑定 CLI 命令，读取显式设置的 flags 以覆盖配置（最高优先级）。
func WithCommand(cmd *cli.Command) Option {
	return func(o *options) {
		o.cmd = cmd
	}
}

// WithAppName 设置应用名称，用于生成默认搜索路径（见 [DefaultPaths]）。
func WithAppName(name string) Option {
	return func(o *options) {
		o.appName = name
	}
}

// WithConfigPaths 设置配置文件搜索路径，按顺序查找，命中首个文件即停止。
func WithConfigPaths(paths ...string) Option {
	return func(o *options) {
		o.configPaths = paths
	}
}

// WithEnvPrefix 启用环境变量覆盖。
//
// 命名规则：前缀 + 大写 key，"." 与 "-" 转为 "_"，
// 例如 template.max-slot → STRBUF_TEMPLATE_MAX_SLOT。
func WithEnvPrefix(prefix string) Option {
	return func(o *options) {
		o.envPrefix = prefix
	}
}

// DefaultPaths 返回默认配置文件的搜索顺序。
//
// 优先级 (从高到低)：
//  1. ./.appname.yaml - 当前目录应用配置
//  2. ~/.appname.yaml - 用户主目录配置
//  3. /etc/appname/config.yaml - 系统级配置
//  4. config.yaml - 当前目录通用配置
func DefaultPaths(appName string) []string {
	var paths []string
	if appName != "" {
		paths = append(paths, "."+appName+".yaml")
		if home, err := os.UserHomeDir(); err == nil {
			paths = append(paths, filepath.Join(home, "."+appName+".yaml"))
		}
		paths = append(paths, "/etc/"+appName+"/config.yaml")
	}

	return append(paths, "config.yaml")
}

// Load 以 defaults 为基础，依次叠加配置文件、环境变量与 CLI flags。
func Load(defaults Config, opts ...Option) (*Config, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if len(o.configPaths) == 0 {
		o.configPaths = DefaultPaths(o.appName)
	}

	configMap, err := toMap(defaults)
	if err != nil {
		return nil, fmt.Errorf("encode defaults: %w", err)
	}
	// key 集合以结构体为准，配置文件中的多余 key 不参与环境变量与 flag 绑定
	keys := leafKeys(configMap, "")

	for _, path := range o.configPaths {
		content, err := os.ReadFile(path) //nolint:gosec // path is from trusted config
		if err != nil {
			continue
		}

		fileMap, err := parseConfigBytes(path, content)
		if err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
		mergeMaps(configMap, fileMap)
		slog.Debug("Loaded config from file", "path", path)

		break
	}

	if o.envPrefix != "" {
		for _, key := range keys {
			env := envName(o.envPrefix, key)
			if val := os.Getenv(env); val != "" {
				setByPath(configMap, key, val)
				slog.Debug("Loaded env binding", "env", env, "path", key)
			}
		}
	}

	if o.cmd != nil {
		for _, key := range keys {
			flag := strings.ReplaceAll(key, ".", "-")
			if o.cmd.IsSet(flag) {
				setByPath(configMap, key, o.cmd.Value(flag))
			}
		}
	}

	var cfg Config
	if err := decodeConfigMap(configMap, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadCmd 是 [Load] 的 CLI 便捷版本：默认值取 [DefaultConfig]，
// 同时启用应用配置文件、[EnvPrefix] 环境变量与 cmd 的 flags。
//
// 显式设置了 --config 时只读取该文件。
func LoadCmd(cmd *cli.Command, appName string) (*Config, error) {
	opts := []Option{
		WithCommand(cmd),
		WithAppName(appName),
		WithEnvPrefix(EnvPrefix),
	}
	if cmd.IsSet("config") {
		opts = append(opts, WithConfigPaths(cmd.String("config")))
	}

	return Load(DefaultConfig(), opts...)
}

// Validate 校验配置取值范围。
func (c *Config) Validate() error {
	var errs []error
	if c.Buffer.Unit < 1 {
		errs = append(errs, fmt.Errorf("buffer.unit must be >= 1, got %d", c.Buffer.Unit))
	}
	if c.Template.MaxSlot < 1 || c.Template.MaxSlot > templexp.MaxSlot {
		errs = append(errs, fmt.Errorf("template.max-slot must be in [1, %d], got %d", templexp.MaxSlot, c.Template.MaxSlot))
	}
	if c.Buffer.Limit > 0 && c.Buffer.Unit > c.Buffer.Limit {
		errs = append(errs, fmt.Errorf("buffer.unit %d exceeds buffer.limit %d", c.Buffer.Unit, c.Buffer.Limit))
	}
	if c.Template.Unit < 1 {
		errs = append(errs, fmt.Errorf("template.unit must be >= 1, got %d", c.Template.Unit))
	}
	if c.Template.Limit > 0 && c.Template.Unit > c.Template.Limit {
		errs = append(errs, fmt.Errorf("template.unit %d exceeds template.limit %d", c.Template.Unit, c.Template.Limit))
	}
	if c.Server.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("server.cache-size must be >= 0, got %d", c.Server.CacheSize))
	}
	if c.Server.MaxBody < 1 {
		errs = append(errs, fmt.Errorf("server.max-body must be >= 1, got %d", c.Server.MaxBody))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// map 辅助函数
// ═══════════════════════════════════════════════════════════════════════════

// toMap 借助 json tag 把结构体转为嵌套 map。
func toMap(cfg Config) (map[string]any, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}

	return out, nil
}

func leafKeys(data map[string]any, prefix string) []string {
	var keys []string
	for key, value := range data {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if child, ok := value.(map[string]any); ok && len(child) > 0 {
			keys = append(keys, leafKeys(child, full)...)

			continue
		}
		keys = append(keys, full)
	}

	return keys
}

func envName(prefix, key string) string {
	return prefix + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

func parseConfigBytes(path string, content []byte) (map[string]any, error) {
	var raw any
	var err error
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(content, &raw)
	} else {
		err = yamlv3.Unmarshal(content, &raw)
	}
	if err != nil {
		return nil, err
	}

	switch typed := normalizeMapKeys(raw).(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return typed, nil
	default:
		return nil, errors.New("config root must be object")
	}
}

func normalizeMapKeys(val any) any {
	switch typed := val.(type) {
	case map[string]any:
		for key, value := range typed {
			typed[key] = normalizeMapKeys(value)
		}

		return typed
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, value := range typed {
			out[fmt.Sprintf("%v", key)] = normalizeMapKeys(value)
		}

		return out
	default:
		return val
	}
}

func mergeMaps(dst, src map[string]any) {
	for key, value := range src {
		if valueMap, ok := value.(map[string]any); ok {
			if dstMap, ok := dst[key].(map[string]any); ok {
				mergeMaps(dstMap, valueMap)

				continue
			}
		}
		dst[key] = value
	}
}

func setByPath(dst map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := dst
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

func decodeConfigMap(data map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.TextUnmarshallerHookFunc(),
		),
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "json",
	})
	if err != nil {
		return err
	}

	return decoder.Decode(data)
}
