package recorder

import (
	"context"
	"sync"

	"github.com/emirpasic/gods/queues/linkedlistqueue"
)

// Queue 无界 FIFO 队列
//
// Push 永不阻塞，供系统钩子回调线程使用；消费者较慢时队列增长而不是阻塞系统输入。
// 关闭后 Push 丢弃新元素，Pop 取完剩余元素后返回 false。
type Queue[T any] struct {
	mu     sync.Mutex
	items  *linkedlistqueue.Queue
	signal chan struct{}
	closed bool
}

// NewQueue 创建队列
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{
		items:  linkedlistqueue.New(),
		signal: make(chan struct{}, 1),
	}
}

// Push 入队，队列已关闭时返回 false
func (q *Queue[T]) Push(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items.Enqueue(v)
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// Pop 出队，队列为空时等待；队列关闭且为空或 ctx 结束时返回 false
func (q *Queue[T]) Pop(ctx context.Context) (T, bool) {
	var zero T
	for {
		q.mu.Lock()
		if v, ok := q.items.Dequeue(); ok {
			q.mu.Unlock()
			return v.(T), true
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return zero, false
		}

		select {
		case <-q.signal:
		case <-ctx.Done():
			return zero, false
		}
	}
}

// Len 当前排队数量
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Size()
}

// Close 关闭队列，可重复调用
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
