package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zoeyai/uiauto/pkg/permissions"
)

const allPermissions = permissions.Accessibility | permissions.ScreenRecording | permissions.InputMonitoring

func newPermissionsCommand(opts *rootOptions) *cobra.Command {
	var request, open bool

	cmd := &cobra.Command{
		Use:   "permissions",
		Short: "检查系统隐私权限",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status := permissions.Check()
			if request {
				status = permissions.Request(allPermissions)
			}
			if open && !status.Granted(allPermissions) {
				permissions.OpenSettings(allPermissions)
			}

			return opts.emit(cmd.OutOrStdout(), status, func(w io.Writer) {
				fmt.Fprintf(w, "辅助功能: %s\n", mark(status.Accessibility))
				fmt.Fprintf(w, "屏幕录制: %s\n", mark(status.ScreenRecording))
				fmt.Fprintf(w, "输入监控: %s\n", mark(status.InputMonitoring))
				if text := status.Instructions(allPermissions); text != "" {
					fmt.Fprintln(w)
					fmt.Fprintln(w, text)
				}
			})
		},
	}
	cmd.Flags().BoolVar(&request, "request", false, "向系统请求缺少的权限")
	cmd.Flags().BoolVar(&open, "open", false, "打开系统设置中的隐私面板")
	return cmd
}

func mark(granted bool) string {
	if granted {
		return "已授权"
	}
	return "未授权"
}
