package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zoeyai/zoeylocator/pkg/qpath"
)

var parseCmd = &cobra.Command{
	Use:   "parse <qpath>",
	Short: "解析路径并打印规范形式和每一段的条件",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func runParse(cmd *cobra.Command, args []string) error {
	p, err := qpath.Parse(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, p.String())
	for i, seg := range p.Segments {
		fmt.Fprintf(out, "[%d]", i)
		if seg.IsFilter() {
			fmt.Fprint(out, " (过滤)")
		}
		fmt.Fprintln(out)
		if seg.UIType != "" {
			fmt.Fprintf(out, "    UIType   %s\n", seg.UIType)
		}
		for _, pred := range seg.Predicates {
			fmt.Fprintf(out, "    %-8s %s %q\n", pred.Name, pred.Op, pred.Value)
		}
		if seg.MaxDepth > 0 {
			fmt.Fprintf(out, "    MaxDepth %d\n", seg.MaxDepth)
		}
		if seg.HasInstance {
			fmt.Fprintf(out, "    Instance %d\n", seg.Instance)
		}
	}
	return nil
}
