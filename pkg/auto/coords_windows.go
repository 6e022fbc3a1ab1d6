//go:build windows

package auto

import (
	"math"
	"sync"

	"github.com/go-vgo/robotgo"
	"golang.org/x/sys/windows"

	"github.com/zoeyai/zoeylocator/internal/logger"
)

// 控件位置来自 GetWindowRect 等 Win32 接口，使用的是本进程 DPI 感知模式下的坐标；
// robotgo.Move 期望的坐标空间随版本和 manifest 而变。
// 初始化时比较 GetSystemMetrics 与 robotgo.GetScreenSize 得到两者的比例。
//
// coordScale = Win32 坐标 / robotgo 坐标

var (
	user32DPI            = windows.NewLazySystemDLL("user32.dll")
	gdi32DPI             = windows.NewLazySystemDLL("gdi32.dll")
	procGetDpiForWindow  = user32DPI.NewProc("GetDpiForWindow")
	procGetDeviceCaps    = gdi32DPI.NewProc("GetDeviceCaps")
	procGetDC            = user32DPI.NewProc("GetDC")
	procReleaseDC        = user32DPI.NewProc("ReleaseDC")
	procGetDesktopWindow = user32DPI.NewProc("GetDesktopWindow")
	procGetSystemMetrics = user32DPI.NewProc("GetSystemMetrics")
)

var (
	coordinateScaleMu sync.Mutex
	cachedScaleX      float64
	cachedScaleY      float64
	coordsDetected    bool
	cachedDPIScale    float64
)

const (
	logpixelsX = 88
	smCxScreen = 0
	smCyScreen = 1
)

// GetDPIScale 获取 Windows DPI 缩放比例
// 1.0 = 100%, 1.25 = 125%, 1.5 = 150%, 2.0 = 200%
func GetDPIScale() float64 {
	coordinateScaleMu.Lock()
	defer coordinateScaleMu.Unlock()
	if cachedDPIScale > 0 {
		return cachedDPIScale
	}

	var dpi int
	if procGetDpiForWindow.Find() == nil {
		if hwnd, _, _ := procGetDesktopWindow.Call(); hwnd != 0 {
			if d, _, _ := procGetDpiForWindow.Call(hwnd); d > 0 {
				dpi = int(d)
			}
		}
	}
	if dpi == 0 && procGetDC.Find() == nil && procGetDeviceCaps.Find() == nil {
		if dc, _, _ := procGetDC.Call(0); dc != 0 {
			if d, _, _ := procGetDeviceCaps.Call(dc, uintptr(logpixelsX)); d > 0 {
				dpi = int(d)
			}
			procReleaseDC.Call(0, dc)
		}
	}
	if dpi <= 0 {
		dpi = 96
	}

	cachedDPIScale = normalizeScale(float64(dpi) / 96.0)
	return cachedDPIScale
}

func getCoordinateScale() (float64, float64) {
	coordinateScaleMu.Lock()
	defer coordinateScaleMu.Unlock()

	if coordsDetected {
		return cachedScaleX, cachedScaleY
	}

	cachedScaleX, cachedScaleY = detectCoordinateScale()
	coordsDetected = true
	logger.Named("auto").Debug("coordScale=%.3f,%.3f", cachedScaleX, cachedScaleY)
	return cachedScaleX, cachedScaleY
}

func detectCoordinateScale() (float64, float64) {
	reportedW, reportedH := robotgo.GetScreenSize()
	if reportedW <= 0 || reportedH <= 0 {
		return 1.0, 1.0
	}
	w, _, _ := procGetSystemMetrics.Call(smCxScreen)
	h, _, _ := procGetSystemMetrics.Call(smCyScreen)
	if w == 0 || h == 0 {
		return 1.0, 1.0
	}
	return normalizeScale(float64(w) / float64(reportedW)), normalizeScale(float64(h) / float64(reportedH))
}

func normalizeScale(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0.5 || v > 4.0 {
		return 1.0
	}
	if math.Abs(v-1.0) < 0.05 {
		return 1.0
	}
	return v
}

// ResetCoordinateScaleCache 重置坐标缩放缓存（切换显示器或 DPI 后调用）
func ResetCoordinateScaleCache() {
	coordinateScaleMu.Lock()
	defer coordinateScaleMu.Unlock()
	cachedScaleX, cachedScaleY = 0, 0
	coordsDetected = false
	cachedDPIScale = 0
}

// NormalizePointForInput 将 Win32 坐标转换为 robotgo 输入坐标
func NormalizePointForInput(x, y int) (int, int) {
	scaleX, scaleY := getCoordinateScale()
	return ScaleInt(x, 1.0/scaleX), ScaleInt(y, 1.0/scaleY)
}

// NormalizePointForScreen 将 robotgo 坐标转换为 Win32 坐标
func NormalizePointForScreen(x, y int) (int, int) {
	scaleX, scaleY := getCoordinateScale()
	return ScaleInt(x, scaleX), ScaleInt(y, scaleY)
}
