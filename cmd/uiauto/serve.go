package main

import (
	"context"
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/zoeyai/uiauto/internal/logger"
	"github.com/zoeyai/uiauto/pkg/recorder"
	"github.com/zoeyai/uiauto/pkg/stream"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "录制并通过 gRPC 提供事件订阅",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if listen == "" {
				listen = opts.cfg.Stream.ListenAddr
			}
			lis, err := net.Listen("tcp", listen)
			if err != nil {
				return fmt.Errorf("监听 %s 失败: %w", listen, err)
			}

			rec := recorder.New(recorder.FromConfig(opts.cfg.Recorder))
			if err := rec.Start(context.WithoutCancel(ctx)); err != nil {
				lis.Close()
				return err
			}

			hub := stream.NewHub()
			go hub.Run(context.WithoutCancel(ctx), rec.Events())

			srv := stream.NewServer(hub)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Serve(lis) }()
			fmt.Fprintf(cmd.ErrOrStderr(), "事件订阅服务已启动: %s (session %s)\n", lis.Addr(), rec.Session())

			select {
			case <-ctx.Done():
			case err = <-errCh:
			}

			logger.Info("正在停止...")
			rec.Stop()
			// 录制器停止后 Hub 随事件通道关闭，订阅流在发完剩余事件后结束
			srv.Stop()
			return err
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "监听地址 (默认读取配置 stream.listen_addr)")
	return cmd
}
