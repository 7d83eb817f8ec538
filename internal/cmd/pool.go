package cmd

import (
	"fmt"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/qq1060656096/dropguard/guard"
)

func newPoolCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Guard a worker pool; closing the guard waits for every task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(cmd, map[string]string{
				"pool.workers": "workers",
				"pool.tasks":   "tasks",
			}); err != nil {
				return err
			}
			return a.runPool()
		},
	}
	cmd.Flags().Int("workers", 0, "maximum number of concurrent workers")
	cmd.Flags().Int("tasks", 0, "number of tasks to submit")
	return cmd
}

func (a *app) runPool() error {
	results := make([]int, a.cfg.Pool.Tasks)

	p := guard.New(pool.New().WithMaxGoroutines(a.cfg.Pool.Workers), func(p *pool.Pool) {
		p.Wait()
		a.log.Debug("pool joined", zap.Int("tasks", len(results)))

		parts := make([]string, len(results))
		for i, r := range results {
			parts[i] = fmt.Sprint(r)
		}
		fmt.Fprintln(a.out, strings.Join(parts, " "))
	})
	defer p.Close()

	for i := range results {
		p.Value().Go(func() {
			results[i] = i
		})
	}

	fmt.Fprintln(a.out, "Waiting for workers ...")
	return nil
}
