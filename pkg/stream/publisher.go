package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"github.com/zoeyai/uiauto/internal/logger"
	"github.com/zoeyai/uiauto/pkg/config"
	"github.com/zoeyai/uiauto/pkg/recorder"
)

// Status 连接状态
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusReconnecting Status = "reconnecting"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultFlushTimeout     = 2 * time.Second
	wsPath                  = "/ws/recorder"
)

// Hello 握手消息
type Hello struct {
	Session  string `json:"session"`
	Hostname string `json:"hostname,omitempty"`
	Platform string `json:"platform,omitempty"`
}

// HelloResponse 握手响应
type HelloResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Heartbeat 心跳
type Heartbeat struct {
	Pending int    `json:"pending"`
	Sent    uint64 `json:"sent"`
}

// Ping 服务端探活
type Ping struct {
	Timestamp int64 `json:"timestamp"`
}

// Pong 探活响应
type Pong struct {
	ClientTimestamp int64 `json:"clientTimestamp"`
	ServerTimestamp int64 `json:"serverTimestamp"`
}

// Message 发往收集端的消息，只有一个负载非空
type Message struct {
	MessageID string                  `json:"messageId"`
	Timestamp int64                   `json:"timestamp"`
	Session   string                  `json:"session"`
	Hello     *Hello                  `json:"hello,omitempty"`
	Event     *recorder.WorkflowEvent `json:"event,omitempty"`
	Heartbeat *Heartbeat              `json:"heartbeat,omitempty"`
	Pong      *Pong                   `json:"pong,omitempty"`
}

// ServerMessage 收集端消息
type ServerMessage struct {
	MessageID string `json:"messageId"`
	Ping      *Ping  `json:"ping,omitempty"`
}

// PublisherConfig 推送配置
type PublisherConfig struct {
	// URL 收集端地址，支持 host:port、http(s):// 和 ws(s)://
	URL               string
	HeartbeatInterval time.Duration
	// ReconnectDelays 每次重连前的等待时间，用完后放弃
	ReconnectDelays  []time.Duration
	HandshakeTimeout time.Duration
}

// PublisherConfigFrom 由配置文件的 stream 段构造
func PublisherConfigFrom(c config.StreamConfig) PublisherConfig {
	return PublisherConfig{
		URL:               c.PublishURL,
		HeartbeatInterval: c.HeartbeatInterval.Std(),
		ReconnectDelays:   lo.Map(c.ReconnectDelays, func(d config.Duration, _ int) time.Duration { return d.Std() }),
		HandshakeTimeout:  defaultHandshakeTimeout,
	}
}

// buildWsURL 根据地址构建 WebSocket URL
//   - localhost:3001 → ws://localhost:3001/ws/recorder
//   - https://example.com → wss://example.com/ws/recorder
//   - example.com → wss://example.com/ws/recorder（域名默认 wss）
func buildWsURL(addr string) string {
	switch {
	case strings.HasPrefix(addr, "ws://"), strings.HasPrefix(addr, "wss://"):
		u, err := url.Parse(addr)
		if err != nil {
			return addr
		}
		if u.Path == "" || u.Path == "/" {
			u.Path = wsPath
		}
		return u.String()
	case strings.HasPrefix(addr, "http://"):
		return "ws://" + strings.TrimSuffix(strings.TrimPrefix(addr, "http://"), "/") + wsPath
	case strings.HasPrefix(addr, "https://"):
		return "wss://" + strings.TrimSuffix(strings.TrimPrefix(addr, "https://"), "/") + wsPath
	}
	if isLocalAddress(addr) {
		return "ws://" + addr + wsPath
	}
	return "wss://" + addr + wsPath
}

// isLocalAddress 去掉端口后判断是否为本地地址
func isLocalAddress(addr string) bool {
	host := addr
	if i := strings.LastIndex(host, ":"); i >= 0 {
		host = host[:i]
	}
	host = strings.Trim(host, "[]")
	return host == "localhost" || host == "127.0.0.1" || host == "0.0.0.0" || host == "::1" || host == ""
}

// connection 一次 WebSocket 连接及其收发 goroutine
type connection struct {
	conn     *websocket.Conn
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	sendDone chan struct{}
}

// Publisher 通过 WebSocket 把录制事件推送到远端收集端
//
// 事件先进入无界队列，断线期间排队，重连后按顺序继续发送。
type Publisher struct {
	cfg     PublisherConfig
	session string
	queue   *recorder.Queue[*Message]

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	current *connection
	status  Status
	retry   *Message
	closed  bool

	sent atomic.Uint64
}

// NewPublisher 创建推送器，session 为空时生成新的会话 ID
func NewPublisher(cfg PublisherConfig, session string) *Publisher {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = defaultHandshakeTimeout
	}
	if session == "" {
		session = uuid.NewString()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Publisher{
		cfg:     cfg,
		session: session,
		queue:   recorder.NewQueue[*Message](),
		ctx:     ctx,
		cancel:  cancel,
		status:  StatusDisconnected,
	}
}

// Status 当前连接状态
func (p *Publisher) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// Sent 已发送的事件数
func (p *Publisher) Sent() uint64 { return p.sent.Load() }

// Pending 排队中的消息数
func (p *Publisher) Pending() int { return p.queue.Len() }

func (p *Publisher) setStatus(s Status) {
	p.mu.Lock()
	p.status = s
	p.mu.Unlock()
}

func (p *Publisher) newMessage() *Message {
	return &Message{
		MessageID: uuid.NewString(),
		Timestamp: time.Now().UnixMilli(),
		Session:   p.session,
	}
}

// Connect 建立连接并完成握手
func (p *Publisher) Connect(ctx context.Context) error {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return errors.New("推送器已关闭")
	}
	return p.connect(ctx)
}

func (p *Publisher) connect(ctx context.Context) error {
	wsURL := buildWsURL(p.cfg.URL)
	logger.Info("连接事件收集端 %s...", wsURL)
	p.setStatus(StatusConnecting)

	dialer := websocket.Dialer{HandshakeTimeout: p.cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		p.setStatus(StatusDisconnected)
		return fmt.Errorf("连接失败: %w", err)
	}
	if err := p.handshake(conn); err != nil {
		conn.Close()
		p.setStatus(StatusDisconnected)
		return err
	}

	connCtx, cancel := context.WithCancel(p.ctx)
	c := &connection{conn: conn, cancel: cancel, sendDone: make(chan struct{})}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		cancel()
		conn.Close()
		return errors.New("推送器已关闭")
	}
	p.current = c
	p.status = StatusConnected
	p.mu.Unlock()
	logger.Info("已连接事件收集端: session=%s", p.session)

	c.wg.Add(2)
	go p.sendLoop(connCtx, c)
	go p.receiveLoop(connCtx, c)
	if p.cfg.HeartbeatInterval > 0 {
		c.wg.Add(1)
		go p.heartbeatLoop(connCtx, c)
	}
	return nil
}

func (p *Publisher) handshake(conn *websocket.Conn) error {
	hostname, _ := os.Hostname()
	hello := p.newMessage()
	hello.Hello = &Hello{Session: p.session, Hostname: hostname, Platform: runtime.GOOS}

	data, err := json.Marshal(hello)
	if err != nil {
		return fmt.Errorf("序列化握手消息失败: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("发送握手消息失败: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(p.cfg.HandshakeTimeout))
	_, respData, err := conn.ReadMessage()
	conn.SetReadDeadline(time.Time{})
	if err != nil {
		return fmt.Errorf("读取握手响应失败: %w", err)
	}

	var resp HelloResponse
	if err := json.Unmarshal(respData, &resp); err != nil {
		return fmt.Errorf("解析握手响应失败: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("握手被拒绝: %s", resp.Message)
	}
	return nil
}

// Publish 排队一个事件，推送器关闭后返回 false
func (p *Publisher) Publish(ev recorder.WorkflowEvent) bool {
	msg := p.newMessage()
	msg.Event = &ev
	return p.queue.Push(msg)
}

// Run 推送 events 直到通道关闭或 ctx 结束
func (p *Publisher) Run(ctx context.Context, events <-chan recorder.WorkflowEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			p.Publish(ev)
		}
	}
}

func (p *Publisher) takeRetry() *Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	m := p.retry
	p.retry = nil
	return m
}

// sendLoop 发送失败的消息保留到下一次连接重发
func (p *Publisher) sendLoop(ctx context.Context, c *connection) {
	defer c.wg.Done()
	defer close(c.sendDone)

	for {
		msg := p.takeRetry()
		if msg == nil {
			var ok bool
			if msg, ok = p.queue.Pop(ctx); !ok {
				return
			}
		}

		data, err := json.Marshal(msg)
		if err != nil {
			logger.Warn("序列化消息失败: %v", err)
			continue
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			p.mu.Lock()
			p.retry = msg
			p.mu.Unlock()
			if ctx.Err() == nil {
				p.lost(c, err)
			}
			return
		}
		if msg.Event != nil {
			p.sent.Add(1)
		}
	}
}

func (p *Publisher) receiveLoop(ctx context.Context, c *connection) {
	defer c.wg.Done()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				p.lost(c, err)
			}
			return
		}

		var msg ServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warn("解析收集端消息失败: %v", err)
			continue
		}
		if msg.Ping != nil {
			pong := p.newMessage()
			pong.MessageID = msg.MessageID
			pong.Pong = &Pong{ClientTimestamp: time.Now().UnixMilli(), ServerTimestamp: msg.Ping.Timestamp}
			p.queue.Push(pong)
		}
	}
}

func (p *Publisher) heartbeatLoop(ctx context.Context, c *connection) {
	defer c.wg.Done()
	ticker := time.NewTicker(p.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hb := p.newMessage()
			hb.Heartbeat = &Heartbeat{Pending: p.queue.Len(), Sent: p.sent.Load()}
			p.queue.Push(hb)
			logger.Debug("心跳已排队")
		}
	}
}

// lost 连接断开，收发两个 goroutine 都可能调用，只处理一次
func (p *Publisher) lost(c *connection, cause error) {
	p.mu.Lock()
	if p.current != c {
		p.mu.Unlock()
		return
	}
	p.current = nil
	closed := p.closed
	p.mu.Unlock()

	c.cancel()
	c.conn.Close()
	if closed {
		return
	}
	logger.Warn("与事件收集端的连接断开: %v", cause)
	go p.reconnect()
}

func (p *Publisher) reconnect() {
	p.setStatus(StatusReconnecting)
	for i, delay := range p.cfg.ReconnectDelays {
		logger.Info("第 %d/%d 次重连，%v 后开始", i+1, len(p.cfg.ReconnectDelays), delay)
		select {
		case <-p.ctx.Done():
			return
		case <-time.After(delay):
		}
		err := p.connect(p.ctx)
		if err == nil {
			logger.Info("重连成功")
			return
		}
		logger.Warn("重连失败: %v", err)
	}
	logger.Error("重连 %d 次后放弃", len(p.cfg.ReconnectDelays))
	p.setStatus(StatusDisconnected)
}

// Close 停止接收新事件，在 2 秒内尽量发完排队的消息后断开
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	c := p.current
	p.current = nil
	p.mu.Unlock()

	p.queue.Close()
	if c != nil {
		select {
		case <-c.sendDone:
		case <-time.After(defaultFlushTimeout):
			logger.Warn("关闭时仍有 %d 条消息未发送", p.queue.Len())
		}
	}
	p.cancel()

	if c != nil {
		c.cancel()
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.conn.Close()
		c.wg.Wait()
	}
	p.setStatus(StatusDisconnected)
	logger.Info("事件推送已关闭: session=%s sent=%d", p.session, p.sent.Load())
	return nil
}
