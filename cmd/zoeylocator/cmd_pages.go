package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zoeyai/zoeylocator/pkg/backend/webframe"
	"github.com/zoeyai/zoeylocator/pkg/devtools"
	"github.com/zoeyai/zoeylocator/pkg/locator"
)

var pagesFlags struct {
	port  int
	url   string
	title string
}

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "列出浏览器中的页面",
	Args:  cobra.NoArgs,
	RunE:  runPages,
}

var framesCmd = &cobra.Command{
	Use:   "frames",
	Short: "连接页面并打印帧树",
	Args:  cobra.NoArgs,
	RunE:  runFrames,
}

func init() {
	pagesCmd.Flags().IntVar(&pagesFlags.port, "port", 0, "远程调试端口，默认取配置")

	f := framesCmd.Flags()
	f.IntVar(&pagesFlags.port, "port", 0, "远程调试端口，默认取配置")
	f.StringVar(&pagesFlags.url, "url", "", "按 URL 匹配页面（正则）")
	f.StringVar(&pagesFlags.title, "title", "", "按标题匹配页面（正则）")
}

func debugEndpoint() string {
	port := cfg.DevToolsPort
	if pagesFlags.port > 0 {
		port = pagesFlags.port
	}
	return devtools.Endpoint(port)
}

func runPages(cmd *cobra.Command, _ []string) error {
	pages, err := devtools.ListPages(cmd.Context(), debugEndpoint())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, p := range pages {
		fmt.Fprintf(out, "%s  %q  %s\n", p.ID, p.Title, p.URL)
	}
	return nil
}

func runFrames(cmd *cobra.Command, _ []string) error {
	b := webframe.NewBrowser(debugEndpoint(), webframe.WithPolicy(cfg.Policy()))
	defer b.Close()

	page, err := b.Attach(cmd.Context(), devtools.PageFilter{URL: pagesFlags.url, Title: pagesFlags.title})
	if err != nil {
		return err
	}
	top, err := page.Top(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "页面 %s %q\n", page.Info().ID, page.Info().Title)
	return locator.Walk(top, 0, func(n locator.Node, depth int) error {
		name, _ := n.Property("Name")
		url, _ := n.Property("Url")
		fmt.Fprintf(out, "%s%s name=%q %s\n", strings.Repeat("  ", depth+1), n.Handle(), name, url)
		return nil
	})
}
