// Package python 检测 Python 环境并执行脚本
package python

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/zoeyai/zoeylocator/pkg/cmdutil"
)

// Info Python 环境信息
type Info struct {
	Available bool   // Python 是否可用
	Version   string // 版本号，如 "3.11.5"
	Path      string // 可执行文件路径
}

var (
	detectOnce sync.Once
	detected   *Info
)

// Detect 检测 Python 环境，preferred 非空时优先使用（通常来自配置）
//
// 不指定 preferred 时结果会被缓存。
func Detect(preferred string) *Info {
	if preferred != "" {
		if info := inspect(preferred); info.Available {
			return info
		}
	}
	detectOnce.Do(func() {
		detected = &Info{}
		for _, name := range []string{"python3", "python"} {
			if info := inspect(name); info.Available {
				detected = info
				return
			}
		}
	})
	return detected
}

func inspect(name string) *Info {
	path, err := exec.LookPath(name)
	if err != nil {
		return &Info{}
	}
	version, err := getVersion(path)
	if err != nil || strings.HasPrefix(version, "2.") {
		return &Info{}
	}
	return &Info{Available: true, Version: version, Path: path}
}

// getVersion 执行 python --version 获取版本号
func getVersion(pythonPath string) (string, error) {
	output, err := cmdutil.Command(context.Background(), pythonPath, "--version").CombinedOutput()
	if err != nil {
		return "", err
	}
	return ParseVersion(string(output)), nil
}

// ParseVersion 解析 "Python 3.11.5" 形式的输出
func ParseVersion(output string) string {
	line := strings.TrimSpace(output)
	if _, v, ok := strings.Cut(line, " "); ok {
		return strings.TrimSpace(v)
	}
	return line
}

// Run 执行脚本，返回标准输出
func (i *Info) Run(ctx context.Context, script string) ([]byte, error) {
	if i == nil || !i.Available {
		return nil, fmt.Errorf("python 不可用")
	}
	cmd := cmdutil.Command(ctx, i.Path, "-c", script)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("python 执行失败: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return bytes.TrimSpace(stdout.Bytes()), nil
}
