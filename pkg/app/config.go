package app

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/lifesim/pkg/config"
	"github.com/spf13/pflag"
)

const (
	// EnvPrefix 环境变量前缀，LIFESIM_STORAGE_DRIVER 覆盖 storage.driver
	EnvPrefix = "LIFESIM"
	// EnvConfigPath 未通过 --config 指定时读取的环境变量
	EnvConfigPath = "LIFESIM_CONFIG"
)

// Flags 公共命令行参数
type Flags struct {
	ConfigPath string
	LogPath    string
}

// BindFlags 在 FlagSet 上注册 --config/-c 与 --log.path
func (f *Flags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&f.ConfigPath, "config", "c", "", "path to config file (default $LIFESIM_CONFIG or ./config.yaml)")
	fs.StringVar(&f.LogPath, "log.path", "", "override log output path and enable file logging")
}

// ResolveConfigPath 优先级：命令行 > 环境变量 > 工作目录 config.yaml > 可执行文件目录 config.yaml
func (f *Flags) ResolveConfigPath() string {
	if f.ConfigPath != "" {
		return f.ConfigPath
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	if dir, err := GetExecDir(); err == nil {
		return filepath.Join(dir, "config.yaml")
	}
	return "config.yaml"
}

// LoadConfig 读取配置文件与环境变量到 target，再执行 validate tag 检查
// 优先级：命令行显式参数 > 环境变量 > 配置文件 > defaults
func LoadConfig(f *Flags, target any, defaults map[string]any) error {
	mgr := config.NewManager(
		config.WithDefaults(defaults),
		config.WithEnvPrefix(EnvPrefix),
	)

	// 未显式指定配置文件时允许只用默认值与环境变量
	if err := mgr.LoadFile(f.ResolveConfigPath()); err != nil {
		if f.ConfigPath != "" || !errors.Is(err, config.ErrConfigFileNotFound) {
			return err
		}
	}
	if err := mgr.Unmarshal(target); err != nil {
		return err
	}

	if err := config.NewValidator().Validate(target); err != nil {
		return err
	}
	return nil
}

// EnsureDir 确保日志等文件的父目录存在
func EnsureDir(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create directory for %s", path)
	}
	return nil
}

// GetExecDir 获取可执行文件所在目录（处理符号链接）
func GetExecDir() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", err
	}
	realPath, err := filepath.EvalSymlinks(execPath)
	if err != nil {
		return filepath.Dir(execPath), nil
	}
	return filepath.Dir(realPath), nil
}
