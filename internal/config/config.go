package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"bpfcontain"
)

// Config 描述 BPF 侧对象的位置
type Config struct {
	PinPath string       `yaml:"pin_path"`
	Uprobe  UprobeConfig `yaml:"uprobe"`
	Audit   AuditConfig  `yaml:"audit"`
}

// UprobeConfig 是 containerize 挂载点的位置
type UprobeConfig struct {
	Binary string `yaml:"binary"`
	Symbol string `yaml:"symbol"`
}

// AuditConfig 是审计 ring buffer 的配置
type AuditConfig struct {
	Enabled bool `yaml:"enabled"`
	Buffer  int  `yaml:"buffer"` // channel 缓冲大小
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		PinPath: "/sys/fs/bpf/bpfcontain",
		Uprobe: UprobeConfig{
			Binary: "/proc/self/exe",
			Symbol: bpfcontain.UprobeSymbol,
		},
		Audit: AuditConfig{
			Enabled: true,
			Buffer:  256,
		},
	}
}

// LoadConfig 从 YAML 文件加载配置，并和默认配置合并
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate 检查配置是否可用
func (c Config) Validate() error {
	if !filepath.IsAbs(c.PinPath) {
		return fmt.Errorf("pin_path %q must be absolute", c.PinPath)
	}
	if c.Uprobe.Binary == "" {
		return errors.New("uprobe.binary is required")
	}
	if c.Uprobe.Symbol == "" {
		return errors.New("uprobe.symbol is required")
	}
	if c.Audit.Enabled && c.Audit.Buffer <= 0 {
		return fmt.Errorf("audit.buffer must be positive, got %d", c.Audit.Buffer)
	}
	return nil
}

// MapPath 返回某个 pinned map 的完整路径
func (c Config) MapPath(name string) string {
	return filepath.Join(c.PinPath, name)
}

// String 用于调试输出
func (c Config) String() string {
	return fmt.Sprintf(
		"Config{PinPath: %s, Uprobe: %s@%s, Audit.Enabled: %v}",
		c.PinPath,
		c.Uprobe.Symbol,
		c.Uprobe.Binary,
		c.Audit.Enabled,
	)
}
