package main

import (
	"fmt"
	"image"
	"io"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/image/draw"

	"github.com/zoeyai/uiauto/pkg/desktop"
	"github.com/zoeyai/uiauto/pkg/overlay"
	"github.com/zoeyai/uiauto/pkg/uia"
)

// locatedElement locate 命令的输出
type locatedElement struct {
	uia.Attributes
	Path string `json:"hierarchy_path"`
}

func newLocateCommand(opts *rootOptions) *cobra.Command {
	var (
		all        bool
		timeout    time.Duration
		depth      int
		screenshot string
	)

	cmd := &cobra.Command{
		Use:   "locate <selector>",
		Short: "按选择器查找元素",
		Long: `按选择器查找元素并输出属性与层级路径。

选择器示例:
  role=button AND name=OK
  role=window AND name="Untitled - Notepad" >> role=edit
  automation_id=btnSave`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := opts.openDesktop()
			if err != nil {
				return err
			}
			defer d.Close()

			var locOpts []uia.Option
			if cmd.Flags().Changed("timeout") {
				locOpts = append(locOpts, uia.WithTimeout(timeout))
			}
			loc := d.Locator(args[0])

			var elements []*uia.Element
			if all {
				elements, err = loc.All(locOpts...)
			} else {
				var el *uia.Element
				el, err = loc.First(locOpts...)
				if el != nil {
					elements = []*uia.Element{el}
				}
			}
			if err != nil {
				return err
			}
			defer func() {
				for _, el := range elements {
					el.Release()
				}
			}()

			out := make([]locatedElement, len(elements))
			for i, el := range elements {
				out[i] = locatedElement{Attributes: el.Attributes(), Path: el.HierarchyPath(depth)}
			}

			if screenshot != "" {
				if err := saveHighlighted(cmd, d, elements, screenshot); err != nil {
					return err
				}
			}

			return opts.emit(cmd.OutOrStdout(), out, func(w io.Writer) {
				if len(out) == 0 {
					fmt.Fprintln(w, "未找到匹配的元素")
					return
				}
				for _, e := range out {
					fmt.Fprintf(w, "%s %q", e.Role, e.Name)
					if e.Bounds != nil {
						fmt.Fprintf(w, " (%d,%d %dx%d)", e.Bounds.X, e.Bounds.Y, e.Bounds.Width, e.Bounds.Height)
					}
					fmt.Fprintf(w, "\n  %s\n", e.Path)
				}
			})
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "返回全部匹配")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "等待元素出现的超时时间")
	cmd.Flags().IntVar(&depth, "depth", 32, "层级路径最多向上查询的层数")
	cmd.Flags().StringVar(&screenshot, "screenshot", "", "截屏并标出找到的元素，保存为 PNG")
	return cmd
}

// saveHighlighted 截屏后把高亮叠加层合成到截图上
func saveHighlighted(cmd *cobra.Command, d *desktop.Desktop, elements []*uia.Element, path string) error {
	shot, err := d.CaptureScreen(cmd.Context())
	if err != nil {
		return err
	}
	img, err := shot.Image()
	if err != nil {
		return err
	}

	canvas, err := overlay.NewCanvasRenderer(shot.Width, shot.Height)
	if err != nil {
		return err
	}
	ov := overlay.New(canvas)
	defer ov.Close()
	if err := ov.Start(); err != nil {
		return err
	}

	style := overlay.DefaultHighlightStyle()
	style.Fill = &overlay.Fill{Color: overlay.Red, Opacity: 0.15}
	n, err := ov.HighlightElements(elements, &style, nil)
	if err != nil {
		return err
	}
	draw.Draw(img, img.Bounds(), canvas.Snapshot(), image.Point{}, draw.Over)

	if err := uia.NewScreenshotResult(img).SavePNG(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "已标出 %d 个元素: %s\n", n, path)
	return nil
}
