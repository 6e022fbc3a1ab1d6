// Package process 提供被测进程的查询、等待和终止
package process

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-vgo/robotgo"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/zoeyai/zoeylocator/pkg/retry"
)

// Info 进程信息
type Info struct {
	PID  int    `json:"pid"`
	Name string `json:"name"`
	Path string `json:"path"`
}

func infoOf(proc *process.Process) Info {
	name, _ := proc.Name()
	exe, _ := proc.Exe()
	return Info{PID: int(proc.Pid), Name: name, Path: exe}
}

// List 获取所有进程
func List() ([]Info, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("获取进程列表失败: %w", err)
	}

	out := make([]Info, 0, len(procs))
	for _, proc := range procs {
		out = append(out, infoOf(proc))
	}
	return out, nil
}

// Find 按名称查找进程（不区分大小写，支持部分匹配）
func Find(name string) ([]Info, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("获取进程列表失败: %w", err)
	}

	name = strings.ToLower(name)
	var matches []Info
	for _, proc := range procs {
		procName, err := proc.Name()
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(procName), name) {
			matches = append(matches, infoOf(proc))
		}
	}
	return matches, nil
}

// ByPID 按 PID 获取进程信息
func ByPID(pid int) (*Info, error) {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil, fmt.Errorf("进程不存在: PID=%d: %w", pid, err)
	}
	info := infoOf(proc)
	return &info, nil
}

// IsRunning 检查进程是否正在运行
func IsRunning(pid int) bool {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return false
	}
	running, err := proc.IsRunning()
	return err == nil && running
}

// Kill 终止进程
func Kill(pid int) error {
	if err := robotgo.Kill(pid); err != nil {
		return fmt.Errorf("终止进程 %d 失败: %w", pid, err)
	}
	return nil
}

// WaitForQuit 等待进程退出，超时返回 *retry.TimeoutError
func WaitForQuit(ctx context.Context, pid int, p retry.Policy) error {
	return retry.Until(ctx, fmt.Sprintf("wait quit %d", pid), p, func() (bool, error) {
		return !IsRunning(pid), nil
	})
}

var (
	nameMu    sync.Mutex
	nameCache = map[int]string{}
)

// Name 返回进程名（去掉 .exe 后缀），结果按 PID 缓存
//
// 窗口属性 ProcessName 会频繁查询同一批进程。
func Name(pid int) (string, bool) {
	nameMu.Lock()
	if name, ok := nameCache[pid]; ok {
		nameMu.Unlock()
		return name, true
	}
	nameMu.Unlock()

	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return "", false
	}
	name, err := proc.Name()
	if err != nil || name == "" {
		return "", false
	}
	if strings.HasSuffix(strings.ToLower(name), ".exe") {
		name = name[:len(name)-4]
	}

	nameMu.Lock()
	nameCache[pid] = name
	nameMu.Unlock()
	return name, true
}

// ForgetName 清除进程名缓存（PID 被复用后调用）
func ForgetName(pid int) {
	nameMu.Lock()
	defer nameMu.Unlock()
	delete(nameCache, pid)
}
