// Package logger 提供统一的日志工具
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
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

func (l Level) slogLevel() slog.Level {
	switch l {
	case DEBUG:
		return slog.LevelDebug
	case WARN:
		return slog.LevelWarn
	case ERROR:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel 解析日志级别字符串
func ParseLevel(s string) Level {
	switch s {
	case "DEBUG", "debug":
		return DEBUG
	case "INFO", "info":
		return INFO
	case "WARN", "warn", "WARNING", "warning":
		return WARN
	case "ERROR", "error":
		return ERROR
	default:
		return INFO
	}
}

// sink 所有子 logger 共享的输出配置
type sink struct {
	mu       sync.RWMutex
	level    slog.LevelVar
	enabled  bool
	console  io.Writer
	stdout   bool
	file     bool
	filePath string
	fileOut  *os.File
	handler  slog.Handler
}

// Logger 日志记录器
type Logger struct {
	sink  *sink
	attrs []any
}

// 全局默认 logger
var defaultLogger = New()

// New 创建新的 Logger 实例
func New() *Logger {
	s := &sink{
		enabled: true,
		console: consoleWriter(),
		stdout:  true,
	}
	s.level.Set(slog.LevelInfo)
	s.rebuild()
	return &Logger{sink: s}
}

// consoleWriter 控制台输出，Windows 控制台需要转换 ANSI 颜色
func consoleWriter() io.Writer {
	if runtime.GOOS == "windows" {
		return colorable.NewColorableStdout()
	}
	return os.Stdout
}

// Default 获取默认 logger
func Default() *Logger {
	return defaultLogger
}

// With 返回附带结构化字段的子 logger
func (l *Logger) With(args ...any) *Logger {
	attrs := make([]any, 0, len(l.attrs)+len(args))
	attrs = append(attrs, l.attrs...)
	attrs = append(attrs, args...)
	return &Logger{sink: l.sink, attrs: attrs}
}

// SetLevel 设置日志级别
func (l *Logger) SetLevel(level Level) {
	l.sink.level.Set(level.slogLevel())
}

// SetEnabled 设置是否启用日志
func (l *Logger) SetEnabled(enabled bool) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.enabled = enabled
}

// SetConsole 设置是否输出到控制台
func (l *Logger) SetConsole(enabled bool) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.console = nil
	l.sink.stdout = enabled
	if enabled {
		l.sink.console = consoleWriter()
	}
	l.sink.rebuild()
}

// SetOutput 将控制台输出重定向到 w（测试时使用）
func (l *Logger) SetOutput(w io.Writer) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.console = w
	l.sink.stdout = false
	l.sink.rebuild()
}

// SetFile 设置是否输出到文件
func (l *Logger) SetFile(enabled bool, path string) error {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	// 关闭旧文件
	if l.sink.fileOut != nil {
		l.sink.fileOut.Close()
		l.sink.fileOut = nil
	}

	l.sink.file = enabled
	l.sink.filePath = path

	if enabled && path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("无法打开日志文件: %w", err)
		}
		l.sink.fileOut = f
	}

	l.sink.rebuild()
	return nil
}

// rebuild 根据当前配置重建 handler，调用方持有写锁
func (s *sink) rebuild() {
	var handlers []slog.Handler

	if s.console != nil {
		noColor := true
		if s.stdout {
			fd := os.Stdout.Fd()
			noColor = !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
		}
		handlers = append(handlers, tint.NewHandler(s.console, &tint.Options{
			Level:      &s.level,
			TimeFormat: time.TimeOnly,
			NoColor:    noColor,
		}))
	}
	if s.file && s.fileOut != nil {
		handlers = append(handlers, slog.NewTextHandler(s.fileOut, &slog.HandlerOptions{Level: &s.level}))
	}

	switch len(handlers) {
	case 0:
		s.handler = slog.NewTextHandler(io.Discard, nil)
	case 1:
		s.handler = handlers[0]
	default:
		s.handler = fanout(handlers)
	}
}

// log 内部日志方法
func (l *Logger) log(level Level, format string, args ...interface{}) {
	l.sink.mu.RLock()
	enabled := l.sink.enabled
	handler := l.sink.handler
	l.sink.mu.RUnlock()

	lvl := level.slogLevel()
	if !enabled || !handler.Enabled(context.Background(), lvl) {
		return
	}

	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	slog.New(handler).Log(context.Background(), lvl, msg, l.attrs...)
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

// LogEvent 记录带分类的事件日志
func (l *Logger) LogEvent(category string, ok bool, elapsedMs float64, detail string) {
	status := "OK"
	if !ok {
		status = "NG"
	}

	if ok {
		l.Info("%-4s | %s | %6.1fms | %s", category, status, elapsedMs, detail)
	} else {
		l.Error("%-4s | %s | %6.1fms | %s", category, status, elapsedMs, detail)
	}
}

// Close 关闭 logger，释放资源
func (l *Logger) Close() error {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if l.sink.fileOut != nil {
		err := l.sink.fileOut.Close()
		l.sink.fileOut = nil
		l.sink.rebuild()
		return err
	}
	return nil
}

// fanout 将一条记录分发给多个 handler
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

// 包级别便捷函数
func Debug(format string, args ...interface{}) { defaultLogger.Debug(format, args...) }
func Info(format string, args ...interface{})  { defaultLogger.Info(format, args...) }
func Warn(format string, args ...interface{})  { defaultLogger.Warn(format, args...) }
func Error(format string, args ...interface{}) { defaultLogger.Error(format, args...) }
func With(args ...any) *Logger                 { return defaultLogger.With(args...) }
func LogEvent(category string, ok bool, elapsedMs float64, detail string) {
	defaultLogger.LogEvent(category, ok, elapsedMs, detail)
}
