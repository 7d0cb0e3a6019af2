package recorder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue[int]()
	for i := 0; i < 1000; i++ {
		require.True(t, q.Push(i))
	}
	assert.Equal(t, 1000, q.Len())

	for i := 0; i < 1000; i++ {
		v, ok := q.Pop(context.Background())
		require.True(t, ok)
		require.Equal(t, i, v)
	}
	assert.Equal(t, 0, q.Len())
}

func TestQueuePopWaits(t *testing.T) {
	q := NewQueue[string]()
	got := make(chan string, 1)
	go func() {
		v, _ := q.Pop(context.Background())
		got <- v
	}()

	time.Sleep(20 * time.Millisecond)
	q.Push("a")
	select {
	case v := <-got:
		assert.Equal(t, "a", v)
	case <-time.After(time.Second):
		t.Fatal("Pop 未被唤醒")
	}
}

func TestQueueCloseDrains(t *testing.T) {
	q := NewQueue[int]()
	q.Push(1)
	q.Push(2)
	q.Close()
	q.Close()

	assert.False(t, q.Push(3), "关闭后拒绝写入")

	v, ok := q.Pop(context.Background())
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = q.Pop(context.Background())
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	_, ok = q.Pop(context.Background())
	assert.False(t, ok)
}

func TestQueuePopContext(t *testing.T) {
	q := NewQueue[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, ok := q.Pop(ctx)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second)
}
