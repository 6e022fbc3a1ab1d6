// Package logger 提供统一的日志工具
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Level 日志级别
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel 解析日志级别字符串，无法识别时返回 INFO
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// sink 多个 Logger 共享的输出端
type sink struct {
	mu      sync.Mutex
	level   Level
	enabled bool
	console io.Writer
	fileOut *os.File
	out     *log.Logger
}

func (s *sink) rebuild() {
	var writers []io.Writer
	if s.console != nil {
		writers = append(writers, s.console)
	}
	if s.fileOut != nil {
		writers = append(writers, s.fileOut)
	}

	switch len(writers) {
	case 0:
		s.out.SetOutput(io.Discard)
	case 1:
		s.out.SetOutput(writers[0])
	default:
		s.out.SetOutput(io.MultiWriter(writers...))
	}
}

// Logger 日志记录器，Named 派生的子记录器共享同一输出端
type Logger struct {
	name string
	s    *sink
}

var defaultLogger = New()

// New 创建新的 Logger 实例（默认输出到 stdout，级别 INFO）
func New() *Logger {
	return &Logger{
		s: &sink{
			level:   INFO,
			enabled: true,
			console: os.Stdout,
			out:     log.New(os.Stdout, "", 0),
		},
	}
}

// NewWriter 创建输出到指定 writer 的 Logger，主要用于测试
func NewWriter(w io.Writer, level Level) *Logger {
	return &Logger{
		s: &sink{
			level:   level,
			enabled: true,
			console: w,
			out:     log.New(w, "", 0),
		},
	}
}

// Default 获取默认 logger
func Default() *Logger {
	return defaultLogger
}

// Named 派生带模块名前缀的子 logger
func (l *Logger) Named(name string) *Logger {
	if l.name != "" {
		name = l.name + "/" + name
	}
	return &Logger{name: name, s: l.s}
}

// Name 返回模块名
func (l *Logger) Name() string {
	return l.name
}

// SetLevel 设置日志级别
func (l *Logger) SetLevel(level Level) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	l.s.level = level
}

// Enabled 判断指定级别是否会输出
func (l *Logger) Enabled(level Level) bool {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return l.s.enabled && level >= l.s.level
}

// SetEnabled 设置是否启用日志
func (l *Logger) SetEnabled(enabled bool) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	l.s.enabled = enabled
}

// SetConsole 设置是否输出到控制台
func (l *Logger) SetConsole(enabled bool) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if enabled {
		l.s.console = os.Stdout
	} else {
		l.s.console = nil
	}
	l.s.rebuild()
}

// SetFile 设置是否输出到文件
func (l *Logger) SetFile(enabled bool, path string) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	if l.s.fileOut != nil {
		l.s.fileOut.Close()
		l.s.fileOut = nil
	}

	if enabled && path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("无法打开日志文件: %w", err)
		}
		l.s.fileOut = f
	}

	l.s.rebuild()
	return nil
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	if !l.s.enabled || level < l.s.level {
		return
	}

	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format("15:04:05.000")
	if l.name != "" {
		l.s.out.Printf("%s | %-5s | %s | %s", timestamp, level.String(), l.name, msg)
		return
	}
	l.s.out.Printf("%s | %-5s | %s", timestamp, level.String(), msg)
}

// Debug 输出 DEBUG 级别日志
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DEBUG, format, args...)
}

// Info 输出 INFO 级别日志
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(INFO, format, args...)
}

// Warn 输出 WARN 级别日志
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(WARN, format, args...)
}

// Error 输出 ERROR 级别日志
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ERROR, format, args...)
}

// LogSearch 记录一次控件查找的结果
// count 为最终命中的数量，ok=false 时以 WARN 输出
func (l *Logger) LogSearch(path string, ok bool, elapsed time.Duration, count int) {
	status := "OK"
	if !ok {
		status = "NG"
	}

	ms := float64(elapsed.Microseconds()) / 1000
	if ok {
		l.Info("find | %s | %8.1fms | n=%d | %s", status, ms, count, path)
	} else {
		l.Warn("find | %s | %8.1fms | n=%d | %s", status, ms, count, path)
	}
}

// Close 关闭 logger，释放文件句柄
func (l *Logger) Close() error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	if l.s.fileOut != nil {
		err := l.s.fileOut.Close()
		l.s.fileOut = nil
		l.s.rebuild()
		return err
	}
	return nil
}

// 包级别便捷函数
func Debug(format string, args ...interface{}) { defaultLogger.Debug(format, args...) }
func Info(format string, args ...interface{})  { defaultLogger.Info(format, args...) }
func Warn(format string, args ...interface{})  { defaultLogger.Warn(format, args...) }
func Error(format string, args ...interface{}) { defaultLogger.Error(format, args...) }
func Named(name string) *Logger                { return defaultLogger.Named(name) }
