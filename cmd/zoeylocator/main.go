// zoeylocator 控件定位命令行工具
//
// 用法:
//
//	zoeylocator parse '/ClassName="Notepad"/ClassName="Edit"'
//	zoeylocator find '/ClassName="Notepad"' [--all] [--timeout 5s]
//	zoeylocator tree [--root <qpath>] [--depth 2]
//	zoeylocator pages [--port 9222]
//	zoeylocator frames [--url <regex>] [--title <regex>]
//	zoeylocator launch <url> [--port 9222] [--headless]
//	zoeylocator kill <pid> [--wait 5s]
//	zoeylocator config show|save
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "[ERROR]", err)
		stop()
		os.Exit(1)
	}
}
