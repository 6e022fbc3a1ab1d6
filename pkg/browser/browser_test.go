package browser

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/zoeyai/zoeylocator/pkg/devtools"
)

func TestApplyOptions(t *testing.T) {
	o := ApplyOptions()
	if o.Port != devtools.DefaultPort {
		t.Errorf("默认端口 = %d, want %d", o.Port, devtools.DefaultPort)
	}
	if o.Headless {
		t.Error("默认不应是无界面模式")
	}

	o = ApplyOptions(WithPort(9333), WithHeadless(true), WithExecPath("/opt/chrome"), WithUserDataDir("/tmp/u"))
	if o.Port != 9333 || !o.Headless || o.ExecPath != "/opt/chrome" || o.UserDataDir != "/tmp/u" {
		t.Errorf("选项未生效: %+v", o)
	}
	if n := len(o.allocatorOptions()); n < 5 {
		t.Errorf("启动参数过少: %d", n)
	}
}

func findChrome() string {
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "chrome"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return ""
}

func TestLaunch(t *testing.T) {
	if testing.Short() {
		t.Skip("跳过浏览器启动测试")
	}
	path := findChrome()
	if path == "" {
		t.Skip("没有找到 Chrome")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := Launch(ctx, "about:blank", WithPort(9339), WithHeadless(true), WithExecPath(path),
		WithUserDataDir(t.TempDir()))
	if err != nil {
		t.Skipf("浏览器无法启动: %v", err)
	}
	defer c.Close()

	pages, err := devtools.ListPages(ctx, c.Endpoint())
	if err != nil {
		t.Fatalf("列出页面失败: %v", err)
	}
	t.Logf("页面: %+v", pages)
	if len(pages) == 0 {
		t.Error("至少应有一个页面")
	}
}
