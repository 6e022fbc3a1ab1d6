// Package cmdutil 创建不弹出控制台窗口的子进程
package cmdutil

import (
	"context"
	"os/exec"
)

// Command 创建子进程命令，Windows 上不显示控制台窗口
func Command(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	HideWindow(cmd)
	return cmd
}
