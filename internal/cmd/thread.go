package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/qq1060656096/dropguard/guard"
)

func newThreadCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thread",
		Short: "Guard a background goroutine; closing the guard joins it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(cmd, map[string]string{"thread.delay": "delay"}); err != nil {
				return err
			}
			return a.runThread(cmd.Context())
		},
	}
	cmd.Flags().Duration("delay", 0, "how long the background goroutine sleeps")
	return cmd
}

// task 是后台 goroutine 的句柄，Wait 之后 elapsed 才可读。
type task struct {
	eg      *errgroup.Group
	elapsed time.Duration
}

func (a *app) runThread(ctx context.Context) (err error) {
	eg, ctx := errgroup.WithContext(ctx)
	t := &task{eg: eg}

	start := time.Now()
	eg.Go(func() error {
		select {
		case <-time.After(a.cfg.Thread.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		t.elapsed = time.Since(start)
		return nil
	})

	// 作用域结束时等待后台 goroutine 完成
	g := guard.New(t, func(t *task) {
		if werr := t.eg.Wait(); werr != nil {
			err = fmt.Errorf("background goroutine: %w", werr)
			return
		}
		a.log.Debug("background goroutine joined", zap.Duration("elapsed", t.elapsed))
		fmt.Fprintf(a.out, "goroutine finished after %s\n", t.elapsed.Round(time.Millisecond))
	})
	defer g.Close()

	fmt.Fprintln(a.out, "Waiting for goroutine ...")
	return nil
}
