package recorder

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/zoeyai/uiauto/internal/logger"
	"github.com/zoeyai/uiauto/pkg/uia"
)

// ErrAlreadyStarted 重复启动
var ErrAlreadyStarted = errors.New("录制已启动")

// Option 录制器选项
type Option func(*Recorder)

// WithHookSource 指定钩子实现
func WithHookSource(src HookSource) Option {
	return func(r *Recorder) {
		r.source = src
	}
}

// WithEngine 指定用于元素关联的无障碍引擎
func WithEngine(engine *uia.Engine) Option {
	return func(r *Recorder) {
		r.engine = engine
	}
}

// Recorder 工作流录制器
//
// 钩子回调只做解码并写入无界队列；转发 goroutine 把队列中的事件按顺序送到 Events()。
type Recorder struct {
	cfg     Config
	engine  *uia.Engine
	source  HookSource
	session string

	mu        sync.Mutex
	started   bool
	stopped   bool
	ownEngine bool
	queue     *Queue[WorkflowEvent]
	windows   *windowTracker
	events    chan WorkflowEvent
	done      chan struct{}
}

// New 创建录制器，尚未安装钩子
func New(cfg Config, opts ...Option) *Recorder {
	r := &Recorder{
		cfg:     cfg.normalize(),
		session: uuid.NewString(),
		events:  make(chan WorkflowEvent),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.source == nil {
		r.source = NewHookSource()
	}
	return r
}

// Session 本次录制的会话 ID
func (r *Recorder) Session() string { return r.session }

// Config 录制配置
func (r *Recorder) Config() Config { return r.cfg }

// Events 事件流，Stop 后取完剩余事件时关闭
func (r *Recorder) Events() <-chan WorkflowEvent { return r.events }

// Done 转发结束时关闭
func (r *Recorder) Done() <-chan struct{} { return r.done }

// Start 按配置安装钩子
// 开启元素捕获但未指定引擎时创建当前平台引擎；安装失败返回 InitializationError，不支持的平台返回 PlatformNotSupported
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return ErrAlreadyStarted
	}

	if r.cfg.CaptureUIElements && r.engine == nil {
		engine, err := uia.New(uia.DefaultConfig())
		if err != nil {
			return uia.InitializationError(err, "创建无障碍引擎失败")
		}
		r.engine = engine
		r.ownEngine = true
	}

	r.queue = NewQueue[WorkflowEvent]()
	dispatcher := NewDispatcher(r.cfg, r.engine, r.queue, r.session)
	r.windows = newWindowTracker(r.cfg, r.engine, r.session)

	if r.cfg.RecordKeyboard || r.cfg.RecordMouse {
		if err := r.source.Install(dispatcher, r.cfg.RecordKeyboard, r.cfg.RecordMouse); err != nil {
			r.releaseEngine()
			if uia.KindOf(err) != 0 {
				return err
			}
			return uia.InitializationError(err, "安装输入钩子失败")
		}
	}

	r.started = true
	go r.forward(ctx)
	logger.Info("开始录制: session=%s keyboard=%t mouse=%t capture=%t",
		r.session, r.cfg.RecordKeyboard, r.cfg.RecordMouse, r.cfg.CaptureUIElements)
	return nil
}

// forward 把队列中的事件送给消费者；ctx 结束时停止转发
// 前台窗口检测也在这里进行，窗口事件排在触发它的按下事件之前
func (r *Recorder) forward(ctx context.Context) {
	defer close(r.done)
	defer close(r.events)
	for {
		ev, ok := r.queue.Pop(ctx)
		if !ok {
			return
		}
		if win, changed := r.windows.observe(ev); changed && !r.send(ctx, win) {
			return
		}
		if !r.send(ctx, ev) {
			return
		}
	}
}

func (r *Recorder) send(ctx context.Context, ev WorkflowEvent) bool {
	select {
	case r.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// Stop 移除钩子并关闭队列，可重复调用
// Stop 返回后 Events() 仍会送出队列中剩余的事件，之后到达的回调事件被丢弃
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started || r.stopped {
		return nil
	}
	r.stopped = true

	if err := r.source.Uninstall(); err != nil {
		logger.Warn("移除输入钩子失败: %v", err)
	}
	r.queue.Close()
	r.releaseEngine()
	logger.Info("停止录制: session=%s", r.session)
	return nil
}

func (r *Recorder) releaseEngine() {
	if r.ownEngine && r.engine != nil {
		if err := r.engine.Close(); err != nil {
			logger.Warn("关闭无障碍引擎失败: %v", err)
		}
		r.engine = nil
		r.ownEngine = false
	}
}

// Pending 队列中尚未送出的事件数
func (r *Recorder) Pending() int {
	r.mu.Lock()
	q := r.queue
	r.mu.Unlock()
	if q == nil {
		return 0
	}
	return q.Len()
}
