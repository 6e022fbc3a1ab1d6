package logger

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", DEBUG},
		{"DEBUG", DEBUG},
		{" info ", INFO},
		{"warning", WARN},
		{"WARN", WARN},
		{"error", ERROR},
		{"bogus", INFO},
		{"", INFO},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNamedSharesSink(t *testing.T) {
	var buf bytes.Buffer
	root := NewWriter(&buf, DEBUG)
	child := root.Named("locator").Named("engine")

	if child.Name() != "locator/engine" {
		t.Errorf("子 logger 名称错误: %s", child.Name())
	}

	child.Info("hello %d", 1)
	root.SetLevel(WARN)
	child.Info("should be dropped")
	child.Warn("kept")

	out := buf.String()
	if !strings.Contains(out, "| locator/engine | hello 1") {
		t.Errorf("缺少带前缀的日志行: %q", out)
	}
	if strings.Contains(out, "dropped") {
		t.Errorf("级别过滤失效: %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("WARN 日志丢失: %q", out)
	}
}

func TestLogSearch(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, INFO)

	l.LogSearch(`/ClassName="Edit"`, true, 12*time.Millisecond, 1)
	l.LogSearch(`/ClassName="Nope"`, false, 5*time.Second, 0)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("期望 2 行日志, 实际 %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "INFO") || !strings.Contains(lines[0], "OK") {
		t.Errorf("成功查找应输出 INFO/OK: %s", lines[0])
	}
	if !strings.Contains(lines[1], "WARN") || !strings.Contains(lines[1], "NG") {
		t.Errorf("失败查找应输出 WARN/NG: %s", lines[1])
	}
	t.Logf("日志输出:\n%s", buf.String())
}

func TestSetEnabled(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, DEBUG)
	l.SetEnabled(false)
	l.Error("silent")
	if buf.Len() != 0 {
		t.Errorf("禁用后不应输出: %q", buf.String())
	}
	if l.Enabled(ERROR) {
		t.Error("禁用后 Enabled 应返回 false")
	}
}
