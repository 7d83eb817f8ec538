// Package config 定义 dropguard 命令行工具的配置，基于 viper 读取默认值、配置文件与环境变量。
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix 是环境变量前缀，例如 DROPGUARD_POOL_WORKERS 对应 pool.workers。
const EnvPrefix = "DROPGUARD"

// ErrInvalidConfig 表示配置项取值不合法。
var ErrInvalidConfig = errors.New("dropguard.config: invalid config")

// NewErrInvalidConfig 创建一个包含配置键和原因的配置错误。
//
// 返回的错误可以通过 errors.Is(err, ErrInvalidConfig) 进行判断。
func NewErrInvalidConfig(key, reason string) error {
	return fmt.Errorf("config %q %s: %w", key, reason, ErrInvalidConfig)
}

// Config 是命令行工具的全部配置。
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Rainbow RainbowConfig `mapstructure:"rainbow"`
	Thread  ThreadConfig  `mapstructure:"thread"`
	Pool    PoolConfig    `mapstructure:"pool"`
	Drop    DropConfig    `mapstructure:"drop"`
	JSON    JSONConfig    `mapstructure:"json"`
}

// LogConfig 控制日志输出。
type LogConfig struct {
	Level string `mapstructure:"level"` // Level 是 zap 日志级别：debug、info、warn、error
}

// RainbowConfig 是 rainbow 命令的初始值和最终值。
type RainbowConfig struct {
	Initial string `mapstructure:"initial"`
	Final   string `mapstructure:"final"`
}

// ThreadConfig 控制 thread 命令中后台任务的耗时。
type ThreadConfig struct {
	Delay time.Duration `mapstructure:"delay"`
}

// PoolConfig 控制 pool 命令的并发度与任务数。
type PoolConfig struct {
	Workers int `mapstructure:"workers"`
	Tasks   int `mapstructure:"tasks"`
}

// DropConfig 控制 drop 命令创建的 Guard 数量。
type DropConfig struct {
	Count int `mapstructure:"count"`
}

// JSONConfig 是 json 命令的初始文档。
type JSONConfig struct {
	Doc string `mapstructure:"doc"`
}

// SetDefaults 为 v 设置所有配置项的默认值。
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("rainbow.initial", "a commonString")
	v.SetDefault("rainbow.final", "a rainbow")
	v.SetDefault("thread.delay", 2*time.Second)
	v.SetDefault("pool.workers", 4)
	v.SetDefault("pool.tasks", 8)
	v.SetDefault("drop.count", 10)
	v.SetDefault("json.doc", "{}")
}

// New 创建一个已设置默认值并绑定环境变量的 viper 实例。
//
// 如果 file 不为空，会读取该配置文件；文件不存在或格式错误时返回错误。
func New(file string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	// pool.workers -> DROPGUARD_POOL_WORKERS
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %q: %w", file, err)
		}
	}
	return v, nil
}

// Load 把 v 中的配置解码为 Config 并校验。
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置取值。
func (c *Config) Validate() error {
	if c.Thread.Delay < 0 {
		return NewErrInvalidConfig("thread.delay", "must not be negative")
	}
	if c.Pool.Workers < 1 {
		return NewErrInvalidConfig("pool.workers", "must be at least 1")
	}
	if c.Pool.Tasks < 0 {
		return NewErrInvalidConfig("pool.tasks", "must not be negative")
	}
	if c.Drop.Count < 0 {
		return NewErrInvalidConfig("drop.count", "must not be negative")
	}
	return nil
}
