package recorder

import "github.com/zoeyai/uiauto/internal/logger"

// RawKey 平台钩子解码后的键盘输入
type RawKey struct {
	Code uint32
	Down bool
	Mods Modifiers
}

// RawMouse 平台钩子解码后的鼠标输入
type RawMouse struct {
	Kind   MouseKind
	Button MouseButton
	X, Y   int
	Delta  int
}

// Sink 钩子回调的投递目标
//
// 方法在系统钩子线程上同步调用，实现必须快速返回且不能阻塞。
type Sink interface {
	Key(RawKey)
	Mouse(RawMouse)
}

// HookSource 系统级键盘/鼠标钩子，每个平台一个实现
//
// Install 只安装请求的钩子；任一钩子安装失败时必须撤销已安装的部分并返回错误。
// Uninstall 可重复调用，移除失败只记录日志。
type HookSource interface {
	Install(sink Sink, keyboard, mouse bool) error
	Uninstall() error
}

// NewHookSource 当前平台的钩子实现
func NewHookSource() HookSource {
	return newPlatformHookSource()
}

// hookRegistration 安装时写入的回调上下文，钩子生命周期内不变
type hookRegistration struct {
	sink     Sink
	keyboard bool
	mouse    bool
}

// recoverHook 回调运行在系统线程上，panic 不能传出
func recoverHook(kind string) {
	if r := recover(); r != nil {
		logger.Error("%s钩子回调异常: %v", kind, r)
	}
}
