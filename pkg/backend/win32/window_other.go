//go:build !windows

package win32

import (
	"fmt"

	"github.com/go-vgo/robotgo"

	"github.com/zoeyai/zoeylocator/pkg/locator"
)

// robotAPI 非 Windows 平台只能看到每个进程的主窗口，句柄即 PID，没有子窗口
type robotAPI struct{}

func newPlatformAPI() api {
	return robotAPI{}
}

func (robotAPI) desktop() uintptr { return 0 }

func (robotAPI) topLevel() ([]uintptr, error) {
	pids, err := robotgo.Pids()
	if err != nil {
		return nil, fmt.Errorf("获取进程列表失败: %w", err)
	}
	var out []uintptr
	for _, pid := range pids {
		if robotgo.GetTitle(pid) != "" {
			out = append(out, uintptr(pid))
		}
	}
	return out, nil
}

func (robotAPI) children(uintptr) ([]uintptr, error) { return nil, nil }

func (robotAPI) parent(uintptr) uintptr { return 0 }

func (robotAPI) isWindow(hwnd uintptr) bool {
	ok, err := robotgo.PidExists(int(hwnd))
	return err == nil && ok
}

func (robotAPI) className(hwnd uintptr) string {
	name, _ := robotgo.FindName(int(hwnd))
	return name
}

func (robotAPI) text(hwnd uintptr) string {
	return robotgo.GetTitle(int(hwnd))
}

func (robotAPI) threadProcessID(hwnd uintptr) (int, int) { return 0, int(hwnd) }

func (robotAPI) controlID(uintptr) int { return 0 }

func (robotAPI) style(uintptr) (uint32, uint32) { return 0, 0 }

func (robotAPI) visible(uintptr) bool { return true }

func (robotAPI) enabled(uintptr) bool { return true }

func (robotAPI) rect(hwnd uintptr) (locator.Rect, bool) {
	x, y, w, h := robotgo.GetBounds(int(hwnd))
	if w == 0 && h == 0 {
		return locator.Rect{}, false
	}
	return locator.Rect{Left: x, Top: y, Width: w, Height: h}, true
}

func (robotAPI) activate(hwnd uintptr) error {
	if err := robotgo.ActivePid(int(hwnd)); err != nil {
		return fmt.Errorf("激活窗口 %d 失败: %w", hwnd, err)
	}
	return nil
}

func (a robotAPI) focus(hwnd uintptr) error {
	return a.activate(hwnd)
}
