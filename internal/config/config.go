package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// AppConfig 应用配置
type AppConfig struct {
	Server   ServerConfig   `toml:"server"`
	Data     DataConfig     `toml:"data"`
	Analysis AnalysisConfig `toml:"analysis"`
	Events   EventsConfig   `toml:"events"`
	Log      LogConfig      `toml:"log"`
	Export   ExportConfig   `toml:"export"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
	DBFile  string `toml:"db_file"`
}

// AnalysisConfig 远程分析服务
type AnalysisConfig struct {
	Endpoint string `toml:"endpoint"`
	Timeout  string `toml:"timeout"` // Go duration 格式，如 "60s"
}

// EventsConfig 变更事件发布；nats_url 为空时不发布
type EventsConfig struct {
	NatsURL       string `toml:"nats_url"`
	SubjectPrefix string `toml:"subject_prefix"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// ExportConfig 导出画布配置
type ExportConfig struct {
	PixelRatio    float64 `toml:"pixel_ratio"`
	CanvasWidth   int     `toml:"canvas_width"`
	CanvasHeight  int     `toml:"canvas_height"`
	MaxCanvasSide int     `toml:"max_canvas_side"` // 像素，含像素比
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20262,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
			DBFile:  "chartboard.db",
		},
		Analysis: AnalysisConfig{
			Endpoint: "http://localhost:8000/api/analyze",
			Timeout:  "60s",
		},
		Events: EventsConfig{
			SubjectPrefix: "chartboard",
		},
		Log: LogConfig{
			Level: "info",
		},
		Export: ExportConfig{
			PixelRatio:    2,
			CanvasWidth:   1600,
			CanvasHeight:  1000,
			MaxCanvasSide: 16384,
		},
	}
}

// AnalysisTimeout 解析分析服务超时，格式错误时返回默认值
func (c *AppConfig) AnalysisTimeout() time.Duration {
	d, err := time.ParseDuration(c.Analysis.Timeout)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

// Validate 校验配置
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Analysis.Endpoint == "" {
		return fmt.Errorf("analysis.endpoint is required")
	}
	if _, err := time.ParseDuration(c.Analysis.Timeout); err != nil {
		return fmt.Errorf("invalid analysis.timeout %q: %w", c.Analysis.Timeout, err)
	}
	if c.Export.PixelRatio <= 0 {
		return fmt.Errorf("export.pixel_ratio must be positive")
	}
	return nil
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// DefaultConfigPath 可执行文件同目录下的 config.toml
func DefaultConfigPath() string {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return filepath.Join(exeDir, "config.toml")
}

// LoadConfigWithInfo 加载配置并返回元信息。path 为空时使用 DefaultConfigPath；文件不存在时使用默认配置。
// 环境变量优先于文件。
func LoadConfigWithInfo(path string) (*AppConfig, LoadConfigInfo, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	info := LoadConfigInfo{Path: path}
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, err
	}

	applyEnv(config)
	return config, info, nil
}

// LoadConfig 加载配置
func LoadConfig(path string) (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo(path)
	return config, err
}

// applyEnv 环境变量覆盖（用于容器 / 本地运行）
func applyEnv(config *AppConfig) {
	if v := os.Getenv("CHARTBOARD_ANALYSIS_URL"); v != "" {
		config.Analysis.Endpoint = v
	}
	if v := os.Getenv("CHARTBOARD_NATS_URL"); v != "" {
		config.Events.NatsURL = v
	}
	if v := os.Getenv("CHARTBOARD_DATA_DIR"); v != "" {
		config.Data.DataDir = v
	}
	if v := os.Getenv("CHARTBOARD_LOG_LEVEL"); v != "" {
		config.Log.Level = v
	}
}

// SaveConfig 保存配置
func SaveConfig(config *AppConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// EnsureDataDir 确保数据目录存在。相对路径基于可执行文件所在目录。
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := config.Data.DataDir
	if !filepath.IsAbs(dataDir) {
		exeDir, err := GetExeDir()
		if err != nil {
			exeDir = "."
		}
		dataDir = filepath.Join(exeDir, dataDir)
	}

	if err := os.MkdirAll(filepath.Join(dataDir, "exports"), 0755); err != nil {
		return "", err
	}
	return dataDir, nil
}

// DBPath SQLite 数据库文件路径
func DBPath(dataDir string, config *AppConfig) string {
	return filepath.Join(dataDir, config.Data.DBFile)
}
