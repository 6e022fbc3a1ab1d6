package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zoeyai/zoeylocator/pkg/backend"
	"github.com/zoeyai/zoeylocator/pkg/control"
	"github.com/zoeyai/zoeylocator/pkg/locator"
	"github.com/zoeyai/zoeylocator/pkg/qpath"
)

var treeFlags struct {
	root   string
	depth  int
	filter string
}

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "打印控件树",
	Args:  cobra.NoArgs,
	RunE:  runTree,
}

func init() {
	f := treeCmd.Flags()
	f.StringVar(&treeFlags.root, "root", "", "起点路径，默认为桌面")
	f.IntVar(&treeFlags.depth, "depth", 2, "最大深度，0 表示不限")
	f.StringVar(&treeFlags.filter, "filter", "", `只打印满足条件的节点，例如 'ClassName="Button" && Text~="^确"'`)
}

// parseFilter 解析只含属性条件的单段路径
func parseFilter(s string) ([]qpath.Predicate, error) {
	if s == "" {
		return nil, nil
	}
	p, err := qpath.Parse(s)
	if err != nil {
		return nil, err
	}
	if p.Len() != 1 {
		return nil, errors.New("过滤条件只能有一段")
	}
	seg := p.Segments[0]
	if seg.IsFilter() || seg.MaxDepth > 0 || seg.HasInstance || seg.UIType != "" {
		return nil, errors.New("过滤条件只能包含属性条件")
	}
	return seg.Predicates, nil
}

func runTree(cmd *cobra.Command, _ []string) error {
	filter, err := parseFilter(treeFlags.filter)
	if err != nil {
		return err
	}

	root := backend.Desktop()
	if treeFlags.root != "" {
		c, err := control.Find(nil, treeFlags.root,
			control.WithEngine(backend.NewEngine(cfg)), control.WithPolicy(cfg.Policy()))
		if err != nil {
			return err
		}
		if root, err = c.ResolveContext(cmd.Context()); err != nil {
			return err
		}
	}

	return printTree(cmd.Context(), cmd.OutOrStdout(), root, treeFlags.depth, filter)
}

// printTree 按深度缩进打印节点，filter 非空时只打印满足条件的节点
func printTree(ctx context.Context, out io.Writer, root locator.Node, depth int, filter []qpath.Predicate) error {
	return locator.Walk(root, depth, func(n locator.Node, d int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(filter) > 0 && !locator.Matches(n, filter) {
			return nil
		}
		fmt.Fprintf(out, "%s%s\n", strings.Repeat("  ", d), describeNode(n))
		return nil
	})
}
