//go:build windows

package win32

import (
	"fmt"
	"slices"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/zoeyai/zoeylocator/pkg/locator"
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procEnumWindows              = user32.NewProc("EnumWindows")
	procEnumChildWindows         = user32.NewProc("EnumChildWindows")
	procGetAncestor              = user32.NewProc("GetAncestor")
	procGetDesktopWindow         = user32.NewProc("GetDesktopWindow")
	procIsWindow                 = user32.NewProc("IsWindow")
	procIsWindowVisible          = user32.NewProc("IsWindowVisible")
	procIsWindowEnabled          = user32.NewProc("IsWindowEnabled")
	procGetClassNameW            = user32.NewProc("GetClassNameW")
	procSendMessageTimeoutW      = user32.NewProc("SendMessageTimeoutW")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procGetDlgCtrlID             = user32.NewProc("GetDlgCtrlID")
	procGetWindowLongW           = user32.NewProc("GetWindowLongW")
	procGetWindowRect            = user32.NewProc("GetWindowRect")
	procGetForegroundWindow      = user32.NewProc("GetForegroundWindow")
	procSetForegroundWindow      = user32.NewProc("SetForegroundWindow")
	procShowWindow               = user32.NewProc("ShowWindow")
	procIsIconic                 = user32.NewProc("IsIconic")
	procBringWindowToTop         = user32.NewProc("BringWindowToTop")
	procAttachThreadInput        = user32.NewProc("AttachThreadInput")
	procSetFocus                 = user32.NewProc("SetFocus")
	procGetCurrentThreadId       = kernel32.NewProc("GetCurrentThreadId")
)

const (
	gwlStyle        = -16
	gwlExStyle      = -20
	gaParent        = 1
	swRestore       = 9
	wmGetText       = 0x000D
	wmGetTextLength = 0x000E
	smtoAbortIfHung = 0x0002
	msgTimeoutMs    = 500
	maxClassName    = 256
)

// enumProc 所有枚举共用一个回调，lParam 指向结果切片
var enumProc = windows.NewCallback(func(hwnd uintptr, lparam uintptr) uintptr {
	list := (*[]uintptr)(unsafe.Pointer(lparam))
	*list = append(*list, hwnd)
	return 1
})

type winAPI struct{}

func newPlatformAPI() api {
	return winAPI{}
}

func (winAPI) desktop() uintptr {
	h, _, _ := procGetDesktopWindow.Call()
	return h
}

func (winAPI) topLevel() ([]uintptr, error) {
	list := make([]uintptr, 0, 128)
	ret, _, err := procEnumWindows.Call(enumProc, uintptr(unsafe.Pointer(&list)))
	if ret == 0 && err != windows.ERROR_SUCCESS {
		return nil, fmt.Errorf("EnumWindows: %w", err)
	}
	return list, nil
}

func (a winAPI) children(hwnd uintptr) ([]uintptr, error) {
	all := make([]uintptr, 0, 32)
	procEnumChildWindows.Call(hwnd, enumProc, uintptr(unsafe.Pointer(&all)))

	// EnumChildWindows 会返回所有后代，只保留直接子窗口
	direct := all[:0]
	for _, h := range all {
		if a.parent(h) == hwnd {
			direct = append(direct, h)
		}
	}
	return direct, nil
}

func (winAPI) parent(hwnd uintptr) uintptr {
	p, _, _ := procGetAncestor.Call(hwnd, gaParent)
	return p
}

func (winAPI) isWindow(hwnd uintptr) bool {
	ret, _, _ := procIsWindow.Call(hwnd)
	return ret != 0
}

func (winAPI) className(hwnd uintptr) string {
	buf := make([]uint16, maxClassName)
	n, _, _ := procGetClassNameW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return windows.UTF16ToString(buf[:n])
}

// text 用 WM_GETTEXT 读取文本，对编辑框等子控件同样有效，挂起的窗口会超时返回
func (winAPI) text(hwnd uintptr) string {
	var length uintptr
	ret, _, _ := procSendMessageTimeoutW.Call(hwnd, wmGetTextLength, 0, 0,
		smtoAbortIfHung, msgTimeoutMs, uintptr(unsafe.Pointer(&length)))
	if ret == 0 || length == 0 {
		return ""
	}

	buf := make([]uint16, length+1)
	var copied uintptr
	ret, _, _ = procSendMessageTimeoutW.Call(hwnd, wmGetText, length+1, uintptr(unsafe.Pointer(&buf[0])),
		smtoAbortIfHung, msgTimeoutMs, uintptr(unsafe.Pointer(&copied)))
	if ret == 0 {
		return ""
	}
	return windows.UTF16ToString(buf)
}

func (winAPI) threadProcessID(hwnd uintptr) (int, int) {
	var pid uint32
	tid, _, _ := procGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
	return int(tid), int(pid)
}

func (winAPI) controlID(hwnd uintptr) int {
	id, _, _ := procGetDlgCtrlID.Call(hwnd)
	return int(int32(id))
}

func windowLong(hwnd uintptr, index int32) uint32 {
	v, _, _ := procGetWindowLongW.Call(hwnd, uintptr(index))
	return uint32(v)
}

func (winAPI) style(hwnd uintptr) (uint32, uint32) {
	return windowLong(hwnd, gwlStyle), windowLong(hwnd, gwlExStyle)
}

func (winAPI) visible(hwnd uintptr) bool {
	ret, _, _ := procIsWindowVisible.Call(hwnd)
	return ret != 0
}

func (winAPI) enabled(hwnd uintptr) bool {
	ret, _, _ := procIsWindowEnabled.Call(hwnd)
	return ret != 0
}

type rect struct {
	Left, Top, Right, Bottom int32
}

func (winAPI) rect(hwnd uintptr) (locator.Rect, bool) {
	var r rect
	ret, _, _ := procGetWindowRect.Call(hwnd, uintptr(unsafe.Pointer(&r)))
	if ret == 0 {
		return locator.Rect{}, false
	}
	return locator.Rect{
		Left:   int(r.Left),
		Top:    int(r.Top),
		Width:  int(r.Right - r.Left),
		Height: int(r.Bottom - r.Top),
	}, true
}

// attachInput 把当前线程的输入状态挂到前台窗口线程和目标线程上，返回解除函数
func attachInput(hwnd uintptr) func() {
	current, _, _ := procGetCurrentThreadId.Call()
	var detach []uintptr

	fg, _, _ := procGetForegroundWindow.Call()
	for _, h := range []uintptr{fg, hwnd} {
		if h == 0 {
			continue
		}
		tid, _, _ := procGetWindowThreadProcessId.Call(h, 0)
		if tid == 0 || tid == current || slices.Contains(detach, tid) {
			continue
		}
		procAttachThreadInput.Call(current, tid, 1)
		detach = append(detach, tid)
	}

	return func() {
		for _, tid := range detach {
			procAttachThreadInput.Call(current, tid, 0)
		}
	}
}

func (winAPI) activate(hwnd uintptr) error {
	defer attachInput(hwnd)()

	if iconic, _, _ := procIsIconic.Call(hwnd); iconic != 0 {
		procShowWindow.Call(hwnd, swRestore)
	}
	procBringWindowToTop.Call(hwnd)

	ret, _, _ := procSetForegroundWindow.Call(hwnd)
	if ret == 0 {
		return fmt.Errorf("SetForegroundWindow 0x%X 失败", hwnd)
	}
	return nil
}

func (winAPI) focus(hwnd uintptr) error {
	defer attachInput(hwnd)()

	prev, _, err := procSetFocus.Call(hwnd)
	if prev == 0 && err != windows.ERROR_SUCCESS {
		return fmt.Errorf("SetFocus 0x%X 失败: %w", hwnd, err)
	}
	return nil
}
