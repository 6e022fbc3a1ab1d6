package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zoeyai/zoeylocator/pkg/backend"
	"github.com/zoeyai/zoeylocator/pkg/control"
	"github.com/zoeyai/zoeylocator/pkg/qpath"
)

var findFlags struct {
	all      bool
	timeout  time.Duration
	interval time.Duration
}

var findCmd = &cobra.Command{
	Use:   "find <qpath>",
	Short: "从桌面开始定位控件",
	Long: "默认按控件对象的方式定位：等待唯一匹配出现，超时或匹配多个时报错。\n" +
		"--all 只查找一次并列出全部匹配。",
	Args: cobra.ExactArgs(1),
	RunE: runFind,
}

func init() {
	f := findCmd.Flags()
	f.BoolVar(&findFlags.all, "all", false, "列出全部匹配，不等待")
	f.DurationVar(&findFlags.timeout, "timeout", 0, "等待超时，默认取配置")
	f.DurationVar(&findFlags.interval, "interval", 0, "重试间隔，默认取配置")
}

func runFind(cmd *cobra.Command, args []string) error {
	p, err := qpath.Parse(args[0])
	if err != nil {
		return err
	}
	engine := backend.NewEngine(cfg)
	out := cmd.OutOrStdout()

	if findFlags.all {
		nodes, err := engine.Search(backend.Desktop(), p)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "找到 %d 个匹配\n", len(nodes))
		printNodes(out, nodes)
		return nil
	}

	policy := cfg.Policy()
	if findFlags.timeout > 0 {
		policy.Timeout = findFlags.timeout
	}
	if findFlags.interval > 0 {
		policy.Interval = findFlags.interval
	}
	c := control.New(nil, p, control.WithEngine(engine), control.WithPolicy(policy))
	n, err := c.ResolveContext(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(out, describeNode(n))
	return nil
}
