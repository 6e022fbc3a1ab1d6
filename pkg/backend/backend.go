// Package backend 组装默认的定位引擎：Win32 窗口树为基础，UIA 和网页帧通过 UIType 桥接
package backend

import (
	"sync"

	"github.com/zoeyai/zoeylocator/internal/logger"
	"github.com/zoeyai/zoeylocator/pkg/backend/uia"
	"github.com/zoeyai/zoeylocator/pkg/backend/webframe"
	"github.com/zoeyai/zoeylocator/pkg/backend/win32"
	"github.com/zoeyai/zoeylocator/pkg/config"
	"github.com/zoeyai/zoeylocator/pkg/devtools"
	"github.com/zoeyai/zoeylocator/pkg/locator"
	"github.com/zoeyai/zoeylocator/pkg/python"
	"github.com/zoeyai/zoeylocator/pkg/retry"
)

// UIType 名称
const (
	UITypeUIA = "UIA"
	UITypeWeb = "Web"
)

var (
	// loadConfig 读取用户配置，测试时替换
	loadConfig = config.Load

	configOnce    sync.Once
	defaultConfig *config.LocatorConfig

	engineOnce    sync.Once
	defaultEngine *locator.Engine
)

// DefaultConfig 进程内只加载一次的用户配置，DefaultEngine 和 DefaultPolicy 共用
func DefaultConfig() *config.LocatorConfig {
	configOnce.Do(func() {
		cfg, err := loadConfig()
		if err != nil {
			logger.Warn("加载配置失败，使用默认值: %v", err)
		}
		if cfg == nil {
			cfg = config.DefaultLocatorConfig()
		}
		defaultConfig = cfg
	})
	return defaultConfig
}

// DefaultEngine 按用户配置创建的共享引擎
func DefaultEngine() *locator.Engine {
	engineOnce.Do(func() {
		defaultEngine = NewEngine(DefaultConfig())
	})
	return defaultEngine
}

// DefaultPolicy 用户配置中的定位超时和重试间隔
func DefaultPolicy() retry.Policy {
	return DefaultConfig().Policy()
}

// NewEngine 按配置创建引擎并注册 UIA、Web 两个桥接
func NewEngine(cfg *config.LocatorConfig) *locator.Engine {
	if cfg == nil {
		cfg = config.DefaultLocatorConfig()
	}
	client := uia.Default(python.Detect(cfg.PythonPath))
	if !client.IsSupported() {
		logger.Named("backend").Debug("UIA 不可用，UIType=%q 的路径将没有结果", UITypeUIA)
	}
	browser := webframe.NewBrowser(devtools.Endpoint(cfg.DevToolsPort), webframe.WithPolicy(cfg.Policy()))

	return locator.NewEngine(
		locator.WithBridge(UITypeUIA, client.Bridge),
		locator.WithBridge(UITypeWeb, browser.Bridge),
	)
}

// Desktop 桌面根节点
func Desktop() locator.Node {
	return win32.Desktop()
}
