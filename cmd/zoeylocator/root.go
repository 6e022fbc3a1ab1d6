package main

import (
	"github.com/spf13/cobra"

	"github.com/zoeyai/zoeylocator/internal/logger"
	"github.com/zoeyai/zoeylocator/pkg/config"
)

// 版本信息 (可通过 ldflags 注入)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var rootFlags struct {
	configDir string
	verbose   bool
}

// cfg 当前生效的配置，在 PersistentPreRunE 中加载
var cfg = config.DefaultLocatorConfig()

var rootCmd = &cobra.Command{
	Use:   "zoeylocator",
	Short: "按 QPath 定位 Windows 控件和网页帧",
	Long: "zoeylocator 在 Win32 窗口树、UIA 元素树和浏览器帧树上执行 QPath 查找，\n" +
		"用于编写和调试自动化脚本中的控件定位路径。",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&rootFlags.configDir, "config-dir", "", "配置目录，默认 ~/.zoey-locator")
	f.BoolVarP(&rootFlags.verbose, "verbose", "v", false, "输出调试日志")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(pagesCmd)
	rootCmd.AddCommand(framesCmd)
	rootCmd.AddCommand(launchCmd)
	rootCmd.AddCommand(killCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("zoeylocator {{.Version}} (build " + BuildTime + ", commit " + GitCommit + ")\n")
}

// configManager 按 --config-dir 选择配置管理器
func configManager() *config.Manager {
	if rootFlags.configDir != "" {
		return config.NewManagerWithDir(rootFlags.configDir)
	}
	return config.GetDefaultManager()
}

// loadConfig 加载配置并应用日志设置
func loadConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := configManager().Load()
	if err != nil {
		logger.Warn("加载配置失败，使用默认值: %v", err)
	}
	cfg = loaded

	log := logger.Default()
	log.SetLevel(logger.ParseLevel(cfg.LogLevel))
	if rootFlags.verbose {
		log.SetLevel(logger.DEBUG)
	}
	if cfg.LogFile != "" {
		if err := log.SetFile(true, cfg.LogFile); err != nil {
			logger.Warn("%v", err)
		}
	}
	return nil
}
