package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/zoeyai/uiauto/internal/logger"
	"github.com/zoeyai/uiauto/pkg/permissions"
	"github.com/zoeyai/uiauto/pkg/recorder"
	"github.com/zoeyai/uiauto/pkg/stream"
)

// recordFlags 覆盖配置文件中的 recorder 段
type recordFlags struct {
	duration   time.Duration
	output     string
	publish    string
	noKeyboard bool
	noMouse    bool
	noElements bool
	sampleRate int
}

func newRecordCommand(opts *rootOptions) *cobra.Command {
	f := &recordFlags{}

	cmd := &cobra.Command{
		Use:   "record",
		Short: "录制键盘、鼠标与窗口切换事件",
		Long: `录制全局键盘鼠标输入，按下/抬起时关联鼠标下的界面元素。

按 Ctrl+C 结束录制。事件写到标准输出，也可以写入 JSON Lines 文件或推送到收集端。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(cmd, opts, f)
		},
	}
	cmd.Flags().DurationVarP(&f.duration, "duration", "d", 0, "录制时长，0 表示直到中断")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "事件写入的 JSON Lines 文件")
	cmd.Flags().StringVar(&f.publish, "publish", "", "事件收集端地址 (默认读取配置 stream.publish_url)")
	cmd.Flags().BoolVar(&f.noKeyboard, "no-keyboard", false, "不录制键盘")
	cmd.Flags().BoolVar(&f.noMouse, "no-mouse", false, "不录制鼠标")
	cmd.Flags().BoolVar(&f.noElements, "no-elements", false, "不关联界面元素")
	cmd.Flags().IntVar(&f.sampleRate, "sample-rate", 0, "每 N 个鼠标移动事件记录一个")
	return cmd
}

func (f *recordFlags) config(opts *rootOptions) recorder.Config {
	c := opts.cfg.Recorder
	if f.noKeyboard {
		c.RecordKeyboard = false
	}
	if f.noMouse {
		c.RecordMouse = false
	}
	if f.noElements {
		c.CaptureUIElements = false
	}
	if f.sampleRate > 0 {
		c.MouseMoveSampleRate = f.sampleRate
	}
	return recorder.FromConfig(c)
}

func runRecord(cmd *cobra.Command, opts *rootOptions, f *recordFlags) error {
	ctx := cmd.Context()
	rcfg := f.config(opts)

	if status := permissions.Check(); !status.Granted(permissions.InputMonitoring | permissions.Accessibility) {
		logger.Warn("%s", status.Instructions(permissions.InputMonitoring|permissions.Accessibility))
	}

	rec := recorder.New(rcfg)
	// 录制器不随 ctx 结束，中断后由 Stop 收尾，剩余事件照常写出
	if err := rec.Start(context.WithoutCancel(ctx)); err != nil {
		return err
	}

	sinks := []func(recorder.WorkflowEvent) error{printer(cmd.OutOrStdout(), opts.format)}

	if f.output != "" {
		file, err := os.OpenFile(f.output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			rec.Stop()
			return fmt.Errorf("打开输出文件失败: %w", err)
		}
		defer file.Close()
		enc := json.NewEncoder(file)
		sinks = append(sinks, func(ev recorder.WorkflowEvent) error { return enc.Encode(ev) })
	}

	publishURL := f.publish
	if publishURL == "" {
		publishURL = opts.cfg.Stream.PublishURL
	}
	if publishURL != "" {
		pcfg := stream.PublisherConfigFrom(opts.cfg.Stream)
		pcfg.URL = publishURL
		pub := stream.NewPublisher(pcfg, rec.Session())
		if err := pub.Connect(ctx); err != nil {
			rec.Stop()
			return err
		}
		defer pub.Close()
		sinks = append(sinks, func(ev recorder.WorkflowEvent) error {
			pub.Publish(ev)
			return nil
		})
	}

	go func() {
		var deadline <-chan time.Time
		if f.duration > 0 {
			timer := time.NewTimer(f.duration)
			defer timer.Stop()
			deadline = timer.C
		}
		select {
		case <-ctx.Done():
		case <-deadline:
		}
		rec.Stop()
	}()

	fmt.Fprintf(cmd.ErrOrStderr(), "开始录制 (session %s)，按 Ctrl+C 结束\n", rec.Session())
	count := 0
	for ev := range rec.Events() {
		count++
		for _, sink := range sinks {
			if err := sink(ev); err != nil {
				logger.Warn("写出事件失败: %v", err)
			}
		}
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "录制结束，共 %d 个事件\n", count)
	return nil
}

// printer 按输出格式打印事件，json 格式为每行一个对象
func printer(w io.Writer, format string) func(recorder.WorkflowEvent) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		return func(ev recorder.WorkflowEvent) error { return enc.Encode(ev) }
	}
	return func(ev recorder.WorkflowEvent) error {
		_, err := fmt.Fprintf(w, "%s %s\n", ev.Time.Format("15:04:05.000"), ev)
		return err
	}
}
