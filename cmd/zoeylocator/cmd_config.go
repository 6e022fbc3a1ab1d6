package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var configFlags struct {
	timeout  time.Duration
	interval time.Duration
	port     int
	logLevel string
	logFile  string
	python   string
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "查看或修改配置",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "打印当前生效的配置",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "修改配置并保存",
	Args:  cobra.NoArgs,
	RunE:  runConfigSave,
}

func init() {
	f := configSaveCmd.Flags()
	f.DurationVar(&configFlags.timeout, "timeout", 0, "定位超时")
	f.DurationVar(&configFlags.interval, "interval", 0, "定位重试间隔")
	f.IntVar(&configFlags.port, "port", 0, "浏览器远程调试端口")
	f.StringVar(&configFlags.logLevel, "log-level", "", "日志级别 DEBUG/INFO/WARN/ERROR")
	f.StringVar(&configFlags.logFile, "log-file", "", "日志文件")
	f.StringVar(&configFlags.python, "python", "", "Python 解释器路径")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSaveCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# %s\n%s\n", configManager().GetConfigFile(), data)
	return nil
}

func runConfigSave(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	if f.Changed("timeout") {
		cfg.TimeoutMs = int(configFlags.timeout.Milliseconds())
	}
	if f.Changed("interval") {
		cfg.IntervalMs = int(configFlags.interval.Milliseconds())
	}
	if f.Changed("port") {
		cfg.DevToolsPort = configFlags.port
	}
	if f.Changed("log-level") {
		cfg.LogLevel = configFlags.logLevel
	}
	if f.Changed("log-file") {
		cfg.LogFile = configFlags.logFile
	}
	if f.Changed("python") {
		cfg.PythonPath = configFlags.python
	}

	m := configManager()
	if err := m.Save(cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "配置已保存到 %s\n", m.GetConfigFile())
	return nil
}
