package devtools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// DefaultPort 默认的远程调试端口
const DefaultPort = 9222

// ErrPageNotFound 没有符合条件的页面
var ErrPageNotFound = errors.New("找不到页面")

// Page /json 接口返回的调试目标
type Page struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	Title                string `json:"title"`
	URL                  string `json:"url"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// Endpoint 本机指定端口的 HTTP 调试地址
func Endpoint(port int) string {
	if port <= 0 {
		port = DefaultPort
	}
	return fmt.Sprintf("http://127.0.0.1:%d", port)
}

// ListPages 列出浏览器中的页面（只返回 type=page 的目标）
func ListPages(ctx context.Context, endpoint string) ([]Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(endpoint, "/")+"/json", nil)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求 %s 失败: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("请求 %s 失败: %s", endpoint, resp.Status)
	}

	var targets []Page
	if err := json.NewDecoder(resp.Body).Decode(&targets); err != nil {
		return nil, fmt.Errorf("解析页面列表失败: %w", err)
	}

	pages := make([]Page, 0, len(targets))
	for _, t := range targets {
		if t.Type == "page" {
			pages = append(pages, t)
		}
	}
	return pages, nil
}

// PageFilter 页面筛选条件，URL 与 Title 都是正则，空表示不限
type PageFilter struct {
	URL   string
	Title string
}

// FindPage 按条件选出唯一的页面
//
// 只有一个页面时直接返回它；多个页面匹配时报错。
func FindPage(pages []Page, f PageFilter) (Page, error) {
	if len(pages) == 0 {
		return Page{}, ErrPageNotFound
	}
	if len(pages) == 1 {
		return pages[0], nil
	}

	urlRe, err := compileOptional(f.URL)
	if err != nil {
		return Page{}, err
	}
	titleRe, err := compileOptional(f.Title)
	if err != nil {
		return Page{}, err
	}

	var found []Page
	for _, p := range pages {
		if urlRe != nil && !urlRe.MatchString(p.URL) {
			continue
		}
		if titleRe != nil && !titleRe.MatchString(p.Title) {
			continue
		}
		found = append(found, p)
	}
	switch len(found) {
	case 0:
		return Page{}, fmt.Errorf("%w: url=%q title=%q", ErrPageNotFound, f.URL, f.Title)
	case 1:
		return found[0], nil
	}
	return Page{}, fmt.Errorf("找到 %d 个页面符合 url=%q title=%q", len(found), f.URL, f.Title)
}

func compileOptional(expr string) (*regexp.Regexp, error) {
	if expr == "" {
		return nil, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("无效的正则 %q: %w", expr, err)
	}
	return re, nil
}
