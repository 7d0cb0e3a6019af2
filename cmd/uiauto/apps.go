package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/zoeyai/uiauto/pkg/uia"
)

func newAppsCommand(opts *rootOptions) *cobra.Command {
	var background bool

	cmd := &cobra.Command{
		Use:   "apps",
		Short: "列出正在运行的应用",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if background {
				opts.cfg.Desktop.UseBackgroundApps = true
			}
			d, err := opts.openDesktop()
			if err != nil {
				return err
			}
			defer d.Close()

			apps, err := d.Applications()
			if err != nil {
				return err
			}
			attrs := lo.Map(apps, func(el *uia.Element, _ int) uia.Attributes {
				defer el.Release()
				return el.Attributes()
			})
			return opts.emit(cmd.OutOrStdout(), attrs, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "PID\tNAME")
				for _, a := range attrs {
					fmt.Fprintf(tw, "%d\t%s\n", a.ProcessID, a.Name)
				}
				tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&background, "background", false, "包含没有窗口的后台应用")
	return cmd
}
