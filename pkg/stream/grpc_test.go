package stream

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/zoeyai/uiauto/pkg/recorder"
)

func startBufServer(t *testing.T, hub *Hub) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewServer(hub)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	client, err := Dial("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func waitSubscribers(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Subscribers() == n },
		2*time.Second, 10*time.Millisecond, "订阅未在服务端注册")
}

func TestGRPCSubscribe(t *testing.T) {
	hub := NewHub()
	client := startBufServer(t, hub)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stream, err := client.Subscribe(ctx, Filter{})
	require.NoError(t, err)
	waitSubscribers(t, hub, 1)

	hub.Publish(keyEvent("k1", 65))
	hub.Publish(mouseEvent("m1", 10, 20))

	ev, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "k1", ev.ID)
	assert.Equal(t, uint32(65), ev.Keyboard.KeyCode)
	assert.True(t, ev.Keyboard.Ctrl)

	ev, err = stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "m1", ev.ID)
	assert.Equal(t, 10, ev.Mouse.Position.X)

	hub.Close()
	_, err = stream.Recv()
	assert.ErrorIs(t, err, io.EOF, "Hub 关闭后流应正常结束")
}

func TestGRPCSubscribeFilter(t *testing.T) {
	hub := NewHub()
	client := startBufServer(t, hub)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stream, err := client.Subscribe(ctx, Filter{Types: []recorder.EventType{recorder.EventMouse}})
	require.NoError(t, err)
	waitSubscribers(t, hub, 1)

	hub.Publish(keyEvent("k1", 65))
	hub.Publish(mouseEvent("m1", 1, 1))

	ev, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "m1", ev.ID, "键盘事件应被过滤")
}

func TestGRPCClientCancel(t *testing.T) {
	hub := NewHub()
	client := startBufServer(t, hub)

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := client.Subscribe(ctx, Filter{})
	require.NoError(t, err)
	waitSubscribers(t, hub, 1)

	cancel()
	_, err = stream.Recv()
	assert.ErrorIs(t, err, context.Canceled)
	waitSubscribers(t, hub, 0)
}
