package stream

import (
	"context"
	"sync"

	"github.com/zoeyai/uiauto/internal/logger"
	"github.com/zoeyai/uiauto/pkg/recorder"
)

// Hub 把一个录制事件流分发给多个订阅者
//
// 每个订阅者有自己的无界队列，慢订阅者不会阻塞录制器或其它订阅者。
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

// Subscription 一个订阅
type Subscription struct {
	hub    *Hub
	filter Filter
	queue  *recorder.Queue[recorder.WorkflowEvent]
}

// NewHub 创建分发器
func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{})}
}

// Subscribe 新增订阅，Hub 已关闭时返回的订阅立即结束
func (h *Hub) Subscribe(filter Filter) *Subscription {
	sub := &Subscription{hub: h, filter: filter, queue: recorder.NewQueue[recorder.WorkflowEvent]()}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		sub.queue.Close()
		return sub
	}
	h.subs[sub] = struct{}{}
	return sub
}

// Publish 分发一个事件
func (h *Hub) Publish(ev recorder.WorkflowEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		if sub.filter.Match(ev) {
			sub.queue.Push(ev)
		}
	}
}

// Run 转发 events 直到通道关闭或 ctx 结束，然后关闭 Hub
func (h *Hub) Run(ctx context.Context, events <-chan recorder.WorkflowEvent) {
	defer h.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			h.Publish(ev)
		}
	}
}

// Subscribers 当前订阅数
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close 结束所有订阅，订阅者仍能取完已排队的事件
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for sub := range h.subs {
		sub.queue.Close()
	}
	logger.Debug("事件分发结束，订阅数 %d", len(h.subs))
}

// Next 等待下一个事件；订阅结束且队列为空或 ctx 结束时返回 false
func (s *Subscription) Next(ctx context.Context) (recorder.WorkflowEvent, bool) {
	return s.queue.Pop(ctx)
}

// Pending 尚未取出的事件数
func (s *Subscription) Pending() int {
	return s.queue.Len()
}

// Cancel 取消订阅
func (s *Subscription) Cancel() {
	s.hub.mu.Lock()
	delete(s.hub.subs, s)
	s.hub.mu.Unlock()
	s.queue.Close()
}
