package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/zoeyai/uiauto/internal/logger"
	"github.com/zoeyai/uiauto/pkg/config"
	"github.com/zoeyai/uiauto/pkg/desktop"
)

var validFormats = []string{"text", "json"}

// rootOptions 全局参数
type rootOptions struct {
	configFile string
	verbose    bool
	format     string

	cfg *config.Config
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "uiauto",
		Short:        "桌面 UI 自动化与操作录制",
		Version:      fmt.Sprintf("%s (build %s, commit %s)", Version, BuildTime, GitCommit),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(validFormats, opts.format) {
				return fmt.Errorf("无效的输出格式 %q，可选 %v", opts.format, validFormats)
			}
			return opts.load()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "配置文件路径 (默认使用用户配置目录)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "输出调试日志")
	cmd.PersistentFlags().StringVar(&opts.format, "format", "text", "输出格式 (text|json)")

	cmd.AddCommand(newAppsCommand(opts))
	cmd.AddCommand(newLocateCommand(opts))
	cmd.AddCommand(newOCRCommand(opts))
	cmd.AddCommand(newRecordCommand(opts))
	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newPermissionsCommand(opts))
	return cmd
}

// load 加载配置并据此设置日志
func (o *rootOptions) load() error {
	m := config.GetDefaultManager()
	if o.configFile != "" {
		m = config.NewManagerWithFile(o.configFile)
	}
	cfg, err := m.Load()
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	o.cfg = cfg

	log := logger.Default()
	log.SetLevel(logger.ParseLevel(cfg.Log.Level))
	if o.verbose {
		log.SetLevel(logger.DEBUG)
	}
	if cfg.Log.File != "" {
		if err := log.SetFile(true, cfg.Log.File); err != nil {
			logger.Warn("打开日志文件失败: %v", err)
		}
	}
	logger.Debug("配置文件: %s", m.GetConfigFile())
	return nil
}

func (o *rootOptions) openDesktop(extra ...desktop.Option) (*desktop.Desktop, error) {
	return desktop.New(desktop.EngineConfig(o.cfg), extra...)
}

// emit json 格式时输出 v，否则调用 text
func (o *rootOptions) emit(w io.Writer, v any, text func(io.Writer)) error {
	if o.format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}
