package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/zoeyai/uiauto/internal/logger"
	"github.com/zoeyai/uiauto/pkg/recorder"
)

const (
	serviceName         = "uiauto.Recorder"
	subscribeMethodName = "/" + serviceName + "/Subscribe"
)

// RecorderServer 录制事件服务
// Subscribe 的请求是过滤条件 {"types": [...]}，每个响应是一个事件
type RecorderServer interface {
	Subscribe(*structpb.Struct, RecorderSubscribeServer) error
}

// RecorderSubscribeServer 服务端流
type RecorderSubscribeServer interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

type subscribeServer struct {
	grpc.ServerStream
}

func (s *subscribeServer) Send(m *structpb.Struct) error {
	return s.ServerStream.SendMsg(m)
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	req := new(structpb.Struct)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(RecorderServer).Subscribe(req, &subscribeServer{stream})
}

// ServiceDesc uiauto.Recorder 服务描述
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*RecorderServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			Handler:       subscribeHandler,
			ServerStreams: true,
		},
	},
	Metadata: "uiauto/recorder.proto",
}

// Server 通过 gRPC 提供录制事件流
type Server struct {
	hub *Hub
	srv *grpc.Server
}

// NewServer 创建服务
func NewServer(hub *Hub, opts ...grpc.ServerOption) *Server {
	s := &Server{hub: hub, srv: grpc.NewServer(opts...)}
	s.srv.RegisterService(&ServiceDesc, s)
	return s
}

// Subscribe 把订阅到的事件逐个发送，直到客户端断开或 Hub 关闭
func (s *Server) Subscribe(req *structpb.Struct, stream RecorderSubscribeServer) error {
	filter := filterFromStruct(req)
	sub := s.hub.Subscribe(filter)
	defer sub.Cancel()
	logger.Info("新的事件订阅: types=%v", filter.Types)

	ctx := stream.Context()
	for {
		ev, ok := sub.Next(ctx)
		if !ok {
			if err := ctx.Err(); err != nil {
				return status.FromContextError(err).Err()
			}
			return nil
		}
		msg, err := EncodeEvent(ev)
		if err != nil {
			logger.Warn("跳过无法编码的事件 %s: %v", ev.ID, err)
			continue
		}
		if err := stream.Send(msg); err != nil {
			return err
		}
	}
}

// Serve 在 lis 上提供服务，阻塞到 Stop
func (s *Server) Serve(lis net.Listener) error {
	logger.Info("事件流服务监听 %s", lis.Addr())
	if err := s.srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("事件流服务异常退出: %w", err)
	}
	return nil
}

// Stop 等待进行中的订阅结束后停止
func (s *Server) Stop() {
	s.srv.GracefulStop()
}

// Client gRPC 事件流客户端
type Client struct {
	conn *grpc.ClientConn
}

// Dial 连接事件流服务，未指定选项时使用明文连接
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("连接事件流服务失败: %w", err)
	}
	return &Client{conn: conn}, nil
}

// EventStream 客户端事件流
type EventStream struct {
	stream grpc.ClientStream
}

// Subscribe 订阅事件
func (c *Client) Subscribe(ctx context.Context, filter Filter) (*EventStream, error) {
	stream, err := c.conn.NewStream(ctx, &ServiceDesc.Streams[0], subscribeMethodName)
	if err != nil {
		return nil, fmt.Errorf("创建订阅失败: %w", err)
	}
	if err := stream.SendMsg(filter.toStruct()); err != nil {
		return nil, fmt.Errorf("发送订阅请求失败: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return nil, fmt.Errorf("发送订阅请求失败: %w", err)
	}
	return &EventStream{stream: stream}, nil
}

// Recv 接收下一个事件，服务端结束时返回 io.EOF
func (s *EventStream) Recv() (recorder.WorkflowEvent, error) {
	msg := new(structpb.Struct)
	if err := s.stream.RecvMsg(msg); err != nil {
		if errors.Is(err, io.EOF) {
			return recorder.WorkflowEvent{}, io.EOF
		}
		if status.Code(err) == codes.Canceled {
			return recorder.WorkflowEvent{}, context.Canceled
		}
		return recorder.WorkflowEvent{}, err
	}
	return DecodeEvent(msg)
}

// Close 关闭连接
func (c *Client) Close() error {
	return c.conn.Close()
}
