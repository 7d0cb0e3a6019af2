package uia

import (
	"errors"
	"fmt"
)

// ErrorKind 错误分类
type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindTimeout
	KindInvalidSelector
	KindPlatformNotSupported
	KindInitialization
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindTimeout:
		return "Timeout"
	case KindInvalidSelector:
		return "InvalidSelector"
	case KindPlatformNotSupported:
		return "PlatformNotSupported"
	case KindInitialization:
		return "InitializationError"
	case KindInternal:
		return "InternalError"
	default:
		return "Unknown"
	}
}

// 分类哨兵错误，配合 errors.Is 使用
var (
	ErrNotFound             = &AutomationError{Kind: KindNotFound, Message: "未找到"}
	ErrTimeout              = &AutomationError{Kind: KindTimeout, Message: "超时"}
	ErrInvalidSelector      = &AutomationError{Kind: KindInvalidSelector, Message: "无效的选择器"}
	ErrPlatformNotSupported = &AutomationError{Kind: KindPlatformNotSupported, Message: "当前平台不支持"}
	ErrInitialization       = &AutomationError{Kind: KindInitialization, Message: "初始化失败"}
	ErrInternal             = &AutomationError{Kind: KindInternal, Message: "内部错误"}
)

// AutomationError 自动化错误
type AutomationError struct {
	Kind     ErrorKind
	Message  string
	Selector string
	Err      error
}

func (e *AutomationError) Error() string {
	msg := e.Message
	if e.Selector != "" {
		msg = fmt.Sprintf("%s [selector: %s]", msg, e.Selector)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *AutomationError) Unwrap() error {
	return e.Err
}

// Is 同类错误视为相等
func (e *AutomationError) Is(target error) bool {
	var t *AutomationError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind ErrorKind, err error, format string, args ...any) *AutomationError {
	return &AutomationError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// NotFoundf 创建 NotFound 错误
func NotFoundf(format string, args ...any) error {
	return newError(KindNotFound, nil, format, args...)
}

// Timeoutf 创建 Timeout 错误
func Timeoutf(selector string, format string, args ...any) error {
	e := newError(KindTimeout, nil, format, args...)
	e.Selector = selector
	return e
}

// InvalidSelectorf 创建 InvalidSelector 错误
func InvalidSelectorf(selector string, format string, args ...any) error {
	e := newError(KindInvalidSelector, nil, format, args...)
	e.Selector = selector
	return e
}

// PlatformNotSupportedf 创建 PlatformNotSupported 错误
func PlatformNotSupportedf(format string, args ...any) error {
	return newError(KindPlatformNotSupported, nil, format, args...)
}

// InitializationError 包装初始化失败
func InitializationError(err error, format string, args ...any) error {
	return newError(KindInitialization, err, format, args...)
}

// InternalError 包装系统调用失败
func InternalError(err error, format string, args ...any) error {
	return newError(KindInternal, err, format, args...)
}

// KindOf 返回错误分类，非 AutomationError 返回 0
func KindOf(err error) ErrorKind {
	var ae *AutomationError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}
