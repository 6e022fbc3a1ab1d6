package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/zoeyai/zoeylocator/pkg/devtools"
	"github.com/zoeyai/zoeylocator/pkg/retry"
)

// LocatorConfig 定位器配置
type LocatorConfig struct {
	TimeoutMs    int    `json:"timeout_ms"`    // 定位超时（毫秒）
	IntervalMs   int    `json:"interval_ms"`   // 重试间隔（毫秒）
	DevToolsPort int    `json:"devtools_port"` // 浏览器远程调试端口
	LogLevel     string `json:"log_level"`     // DEBUG/INFO/WARN/ERROR
	LogFile      string `json:"log_file"`      // 日志文件，空表示只输出到控制台
	PythonPath   string `json:"python_path"`   // UIA 使用的 Python，空表示自动检测
}

// DefaultLocatorConfig 默认配置
func DefaultLocatorConfig() *LocatorConfig {
	return &LocatorConfig{
		TimeoutMs:    int(retry.DefaultPolicy.Timeout / time.Millisecond),
		IntervalMs:   int(retry.DefaultPolicy.Interval / time.Millisecond),
		DevToolsPort: devtools.DefaultPort,
		LogLevel:     "INFO",
	}
}

// Timeout 定位超时
func (c *LocatorConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// Interval 重试间隔
func (c *LocatorConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// Policy 对应的重试策略
func (c *LocatorConfig) Policy() retry.Policy {
	return retry.New(retry.WithTimeout(c.Timeout()), retry.WithInterval(c.Interval()))
}

// Validate 校验配置
func (c *LocatorConfig) Validate() error {
	if c.TimeoutMs < 0 {
		return fmt.Errorf("timeout_ms 不能为负数: %d", c.TimeoutMs)
	}
	if c.IntervalMs < 0 {
		return fmt.Errorf("interval_ms 不能为负数: %d", c.IntervalMs)
	}
	if c.DevToolsPort < 0 || c.DevToolsPort > 65535 {
		return fmt.Errorf("devtools_port 无效: %d", c.DevToolsPort)
	}
	return nil
}

// Manager 配置管理器
type Manager struct {
	configDir  string
	configFile string
	mu         sync.RWMutex
}

// NewManager 创建配置管理器
func NewManager() *Manager {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	configDir := filepath.Join(homeDir, ".zoey-locator")
	return &Manager{
		configDir:  configDir,
		configFile: filepath.Join(configDir, "config.json"),
	}
}

// NewManagerWithDir 使用指定目录创建配置管理器
func NewManagerWithDir(configDir string) *Manager {
	return &Manager{
		configDir:  configDir,
		configFile: filepath.Join(configDir, "config.json"),
	}
}

// ensureDir 确保配置目录存在
func (m *Manager) ensureDir() error {
	return os.MkdirAll(m.configDir, 0755)
}

// Load 加载配置
//
// 文件中缺少的字段使用默认值。
func (m *Manager) Load() (*LocatorConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, err := os.Stat(m.configFile); os.IsNotExist(err) {
		return DefaultLocatorConfig(), nil
	}

	data, err := os.ReadFile(m.configFile)
	if err != nil {
		return DefaultLocatorConfig(), fmt.Errorf("读取配置文件失败: %w", err)
	}

	config := DefaultLocatorConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return DefaultLocatorConfig(), fmt.Errorf("解析配置文件失败: %w", err)
	}
	if err := config.Validate(); err != nil {
		return DefaultLocatorConfig(), err
	}

	return config, nil
}

// Save 保存配置
func (m *Manager) Save(config *LocatorConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureDir(); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(m.configFile, data, 0600); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}

	return nil
}

// Clear 清除配置
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := os.Stat(m.configFile); os.IsNotExist(err) {
		return nil
	}

	return os.Remove(m.configFile)
}

// GetConfigDir 获取配置目录
func (m *Manager) GetConfigDir() string {
	return m.configDir
}

// GetConfigFile 获取配置文件路径
func (m *Manager) GetConfigFile() string {
	return m.configFile
}

// Exists 检查配置文件是否存在
func (m *Manager) Exists() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, err := os.Stat(m.configFile)
	return err == nil
}

// 全局配置管理器
var defaultManager = NewManager()

// GetDefaultManager 获取默认配置管理器
func GetDefaultManager() *Manager {
	return defaultManager
}

// Load 使用默认管理器加载配置
func Load() (*LocatorConfig, error) {
	return defaultManager.Load()
}

// Save 使用默认管理器保存配置
func Save(config *LocatorConfig) error {
	return defaultManager.Save(config)
}

// Clear 使用默认管理器清除配置
func Clear() error {
	return defaultManager.Clear()
}
