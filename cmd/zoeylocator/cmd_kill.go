package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/zoeyai/zoeylocator/pkg/process"
	"github.com/zoeyai/zoeylocator/pkg/retry"
)

var killFlags struct {
	wait time.Duration
	name string
}

var killCmd = &cobra.Command{
	Use:   "kill [pid]",
	Short: "终止进程",
	Long:  "按 PID 终止进程，或用 --name 终止名称包含指定文本的全部进程（不区分大小写）。",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runKill,
}

func init() {
	killCmd.Flags().DurationVar(&killFlags.wait, "wait", 5*time.Second, "等待进程退出的时间，0 表示不等待")
	killCmd.Flags().StringVar(&killFlags.name, "name", "", "按进程名终止")
}

func runKill(cmd *cobra.Command, args []string) error {
	targets, err := killTargets(args)
	if err != nil {
		return err
	}
	for _, info := range targets {
		if err := process.Kill(info.PID); err != nil {
			return err
		}
		if killFlags.wait > 0 {
			p := retry.New(retry.WithTimeout(killFlags.wait), retry.WithInterval(100*time.Millisecond))
			if err := process.WaitForQuit(cmd.Context(), info.PID, p); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "已终止 %d %s\n", info.PID, info.Name)
	}
	return nil
}

// killTargets 按参数或 --name 确定要终止的进程，不包括自身
func killTargets(args []string) ([]process.Info, error) {
	switch {
	case len(args) == 1 && killFlags.name != "":
		return nil, fmt.Errorf("PID 和 --name 只能指定一个")
	case len(args) == 1:
		pid, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, fmt.Errorf("无效的 PID %q: %w", args[0], err)
		}
		info, err := process.ByPID(pid)
		if err != nil {
			return nil, err
		}
		return []process.Info{*info}, nil
	case killFlags.name != "":
		found, err := process.Find(killFlags.name)
		if err != nil {
			return nil, err
		}
		self := os.Getpid()
		targets := found[:0]
		for _, info := range found {
			if info.PID != self {
				targets = append(targets, info)
			}
		}
		if len(targets) == 0 {
			return nil, fmt.Errorf("没有名称包含 %q 的进程", killFlags.name)
		}
		return targets, nil
	default:
		return nil, fmt.Errorf("需要指定 PID 或 --name")
	}
}
