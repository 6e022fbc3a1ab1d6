package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/zoeyai/zoeylocator/pkg/locator"
)

// summaryKeys 打印节点时依次尝试的属性
var summaryKeys = []string{"Text", "Name", "AutomationId", "ControlType", "ProcessId", "ProcessName", "Url"}

// describeNode 节点的一行摘要
func describeNode(n locator.Node) string {
	var b strings.Builder
	b.WriteString(locator.Describe(n))
	for _, key := range summaryKeys {
		if v, ok := n.Property(key); ok && v != "" {
			fmt.Fprintf(&b, " %s=%q", key, v)
		}
	}
	if bn, ok := n.(locator.Bounded); ok {
		if r, err := bn.BoundingRect(); err == nil {
			b.WriteString(" " + r.String())
		}
	}
	return b.String()
}

func printNodes(w io.Writer, nodes []locator.Node) {
	for i, n := range nodes {
		fmt.Fprintf(w, "[%d] %s\n", i, describeNode(n))
	}
}
