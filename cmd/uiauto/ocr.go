package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newOCRCommand(opts *rootOptions) *cobra.Command {
	var monitor, selector string

	cmd := &cobra.Command{
		Use:   "ocr [image]",
		Short: "识别图片、屏幕或元素中的文字",
		Long: `识别文字。指定图片路径时识别图片，否则截取整个屏幕；
--monitor 截取指定显示器 (如 display-1)，--element 只识别选择器找到的元素区域。`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := opts.openDesktop()
			if err != nil {
				return err
			}
			defer d.Close()

			var text string
			switch {
			case len(args) == 1:
				text, err = d.OCRImagePath(ctx, args[0])
			case selector != "":
				el, ferr := d.Locator(selector).First()
				if ferr != nil {
					return ferr
				}
				defer el.Release()
				text, err = d.OCRElement(ctx, el)
			case monitor != "":
				shot, serr := d.CaptureMonitorByName(ctx, monitor)
				if serr != nil {
					return serr
				}
				text, err = d.OCRScreenshot(ctx, shot)
			default:
				shot, serr := d.CaptureScreen(ctx)
				if serr != nil {
					return serr
				}
				text, err = d.OCRScreenshot(ctx, shot)
			}
			if err != nil {
				return err
			}
			return opts.emit(cmd.OutOrStdout(), map[string]string{"text": text}, func(w io.Writer) {
				fmt.Fprintln(w, text)
			})
		},
	}
	cmd.Flags().StringVarP(&monitor, "monitor", "m", "", "显示器名称")
	cmd.Flags().StringVarP(&selector, "element", "e", "", "元素选择器")
	return cmd
}
