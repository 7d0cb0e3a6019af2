package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoeyai/uiauto/pkg/config"
)

// collector 测试用收集端，记录收到的消息
type collector struct {
	t        *testing.T
	upgrader websocket.Upgrader
	messages chan Message
	conns    atomic.Int32
	// reject 握手时拒绝
	reject bool
	// dropAfter 每个连接收到第 n 个事件后断开，0 表示不断开
	dropAfter int
	// ping 握手后发送的探活
	ping bool
}

func newCollector(t *testing.T) *collector {
	return &collector{t: t, messages: make(chan Message, 64)}
}

func (c *collector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != wsPath {
		http.NotFound(w, r)
		return
	}
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	n := c.conns.Add(1)

	var hello Message
	if err := conn.ReadJSON(&hello); err != nil || hello.Hello == nil {
		return
	}
	c.record(hello)
	if c.reject {
		conn.WriteJSON(HelloResponse{Success: false, Message: "会话无效"})
		return
	}
	conn.WriteJSON(HelloResponse{Success: true})
	if c.ping {
		conn.WriteJSON(ServerMessage{MessageID: "ping-1", Ping: &Ping{Timestamp: 42}})
	}

	events := 0
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		c.record(msg)
		if msg.Event != nil {
			events++
			if c.dropAfter > 0 && events >= c.dropAfter && n == 1 {
				return
			}
		}
	}
}

func (c *collector) record(m Message) {
	select {
	case c.messages <- m:
	default:
	}
}

func (c *collector) next() Message {
	c.t.Helper()
	select {
	case m := <-c.messages:
		return m
	case <-time.After(3 * time.Second):
		c.t.Fatal("等待收集端消息超时")
		return Message{}
	}
}

// nextEvent 跳过握手与心跳，返回下一个事件消息
func (c *collector) nextEvent() Message {
	c.t.Helper()
	for {
		if m := c.next(); m.Event != nil {
			return m
		}
	}
}

func startCollector(t *testing.T, c *collector) string {
	srv := httptest.NewServer(c)
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestBuildWsURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"localhost:3001", "ws://localhost:3001/ws/recorder"},
		{"127.0.0.1:8080", "ws://127.0.0.1:8080/ws/recorder"},
		{"collector.example.com", "wss://collector.example.com/ws/recorder"},
		{"http://10.0.0.5:3001/", "ws://10.0.0.5:3001/ws/recorder"},
		{"https://example.com", "wss://example.com/ws/recorder"},
		{"ws://localhost:3001", "ws://localhost:3001/ws/recorder"},
		{"wss://example.com/custom", "wss://example.com/custom"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, buildWsURL(tt.addr), "地址 %s", tt.addr)
	}
}

func TestPublisherConfigFrom(t *testing.T) {
	cfg := PublisherConfigFrom(config.DefaultConfig().Stream)
	assert.Equal(t, 30*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 5 * time.Second, 10 * time.Second, 30 * time.Second}, cfg.ReconnectDelays)
}

func TestPublisherSendsEvents(t *testing.T) {
	c := newCollector(t)
	url := startCollector(t, c)

	p := NewPublisher(PublisherConfig{URL: url}, "session-1")
	require.NoError(t, p.Connect(context.Background()))
	assert.Equal(t, StatusConnected, p.Status())

	hello := c.next()
	require.NotNil(t, hello.Hello)
	assert.Equal(t, "session-1", hello.Hello.Session)

	assert.True(t, p.Publish(keyEvent("k1", 65)))
	assert.True(t, p.Publish(mouseEvent("m1", 5, 6)))

	first := c.nextEvent()
	assert.Equal(t, "k1", first.Event.ID)
	assert.Equal(t, "session-1", first.Session)
	assert.NotEmpty(t, first.MessageID)
	second := c.nextEvent()
	assert.Equal(t, "m1", second.Event.ID)

	require.NoError(t, p.Close())
	assert.Equal(t, uint64(2), p.Sent())
	assert.Equal(t, StatusDisconnected, p.Status())
	assert.False(t, p.Publish(keyEvent("k2", 66)), "关闭后不应再接受事件")
}

func TestPublisherHandshakeRejected(t *testing.T) {
	c := newCollector(t)
	c.reject = true
	url := startCollector(t, c)

	p := NewPublisher(PublisherConfig{URL: url}, "")
	defer p.Close()
	err := p.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "会话无效")
	assert.Equal(t, StatusDisconnected, p.Status())
}

func TestPublisherReconnects(t *testing.T) {
	c := newCollector(t)
	c.dropAfter = 1
	url := startCollector(t, c)

	p := NewPublisher(PublisherConfig{
		URL:             url,
		ReconnectDelays: []time.Duration{10 * time.Millisecond, 10 * time.Millisecond, 50 * time.Millisecond},
	}, "session-2")
	defer p.Close()
	require.NoError(t, p.Connect(context.Background()))

	p.Publish(keyEvent("k1", 65))
	assert.Equal(t, "k1", c.nextEvent().Event.ID)

	require.Eventually(t, func() bool { return c.conns.Load() == 2 && p.Status() == StatusConnected },
		3*time.Second, 10*time.Millisecond, "断线后应自动重连")

	p.Publish(keyEvent("k2", 66))
	p.Publish(keyEvent("k3", 67))
	assert.Equal(t, "k2", c.nextEvent().Event.ID)
	assert.Equal(t, "k3", c.nextEvent().Event.ID)
}

func TestPublisherAnswersPing(t *testing.T) {
	c := newCollector(t)
	c.ping = true
	url := startCollector(t, c)

	p := NewPublisher(PublisherConfig{URL: url}, "")
	defer p.Close()
	require.NoError(t, p.Connect(context.Background()))

	c.next()
	var pong Message
	for pong.Pong == nil {
		pong = c.next()
	}
	assert.Equal(t, "ping-1", pong.MessageID)
	assert.Equal(t, int64(42), pong.Pong.ServerTimestamp)
}

func TestPublisherHeartbeat(t *testing.T) {
	c := newCollector(t)
	url := startCollector(t, c)

	p := NewPublisher(PublisherConfig{URL: url, HeartbeatInterval: 20 * time.Millisecond}, "")
	defer p.Close()
	require.NoError(t, p.Connect(context.Background()))

	c.next()
	hb := c.next()
	require.NotNil(t, hb.Heartbeat, "应定期发送心跳")
}

func TestMessageJSON(t *testing.T) {
	msg := Message{MessageID: "id", Timestamp: 1, Session: "s", Event: ptr(keyEvent("k1", 65))}
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	s := string(data)
	assert.True(t, strings.Contains(s, `"messageId":"id"`))
	assert.False(t, strings.Contains(s, "heartbeat"), "空负载不应序列化")
}

func ptr[T any](v T) *T { return &v }
