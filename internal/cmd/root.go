// Package cmd 实现 dropguard 命令行工具，每个子命令演示一种 Guard 的用法。
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/qq1060656096/dropguard/internal/config"
	"github.com/qq1060656096/dropguard/internal/logging"
)

// app 保存子命令共享的运行时状态。
type app struct {
	out    io.Writer
	errOut io.Writer
	v      *viper.Viper
	cfg    *config.Config
	log    *zap.Logger
}

// Execute 使用标准输出运行根命令。
func Execute(ctx context.Context) error {
	return NewRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
}

// NewRootCmd 创建根命令，out 接收命令输出，errOut 接收日志。
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "dropguard",
		Short: "Attach a finalizer to a value and watch it run at scope exit",
		Long: `dropguard runs small scenarios built on guard.Guard: a value paired with
a callback that runs exactly once, with the value's final state, when the
guard is closed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringP("config", "c", "", "config file (YAML)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newRainbowCmd(a),
		newThreadCmd(a),
		newPoolCmd(a),
		newDropCmd(a),
		newJSONCmd(a),
	)
	return root
}

// setup 读取配置并创建日志器。
func (a *app) setup(cmd *cobra.Command) error {
	file, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	v, err := config.New(file)
	if err != nil {
		return err
	}
	if err := v.BindPFlag("log.level", cmd.Flags().Lookup("log-level")); err != nil {
		return err
	}
	a.v = v
	return nil
}

// load 把子命令的 flag 绑定到配置键，然后解码配置并创建日志器。
//
// flags 的 key 为配置键，value 为 flag 名。
func (a *app) load(cmd *cobra.Command, flags map[string]string) error {
	for key, name := range flags {
		if err := a.v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %q: %w", name, err)
		}
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Log.Level, a.errOut)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log.With(zap.String("command", cmd.Name()))
	return nil
}
