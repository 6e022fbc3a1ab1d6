package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zoeyai/zoeylocator/pkg/browser"
)

var launchFlags struct {
	port        int
	headless    bool
	execPath    string
	userDataDir string
}

var launchCmd = &cobra.Command{
	Use:   "launch <url>",
	Short: "启动开启远程调试的 Chrome，按 Ctrl+C 关闭",
	Args:  cobra.ExactArgs(1),
	RunE:  runLaunch,
}

func init() {
	f := launchCmd.Flags()
	f.IntVar(&launchFlags.port, "port", 0, "远程调试端口，默认取配置")
	f.BoolVar(&launchFlags.headless, "headless", false, "无界面模式")
	f.StringVar(&launchFlags.execPath, "exec", "", "浏览器路径")
	f.StringVar(&launchFlags.userDataDir, "user-data-dir", "", "用户数据目录")
}

func runLaunch(cmd *cobra.Command, args []string) error {
	port := cfg.DevToolsPort
	if launchFlags.port > 0 {
		port = launchFlags.port
	}

	ctx := cmd.Context()
	c, err := browser.Launch(ctx, args[0],
		browser.WithPort(port),
		browser.WithHeadless(launchFlags.headless),
		browser.WithExecPath(launchFlags.execPath),
		browser.WithUserDataDir(launchFlags.userDataDir),
	)
	if err != nil {
		return err
	}
	defer c.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "调试地址: %s\n按 Ctrl+C 关闭浏览器\n", c.Endpoint())
	<-ctx.Done()
	return nil
}
