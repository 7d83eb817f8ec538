package cmd

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/qq1060656096/dropguard/guard"
)

func newDropCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Create many guards, close half of them early and count finalizers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(cmd, map[string]string{"drop.count": "count"}); err != nil {
				return err
			}
			return a.runDrop()
		},
	}
	cmd.Flags().Int("count", 0, "number of guarded strings")
	return cmd
}

// finalized 记录一次回调执行。
type finalized struct {
	value string
	early bool
}

func (a *app) runDrop() error {
	var (
		records []finalized
		early   = true
	)

	func() {
		guards := make([]*guard.Guard[string], 0, a.cfg.Drop.Count)
		for i := 0; i < a.cfg.Drop.Count; i++ {
			guards = append(guards, guard.New(strconv.Itoa(i), func(s string) {
				records = append(records, finalized{value: s, early: early})
				if len(s) < 5 {
					fmt.Fprintf(a.out, "> still %s\n", s)
				} else {
					fmt.Fprintf(a.out, "> this String became %s at last\n", s)
				}
			}))
		}
		defer func() {
			for _, g := range guards {
				_ = g.Close()
			}
		}()

		if len(guards) > 4 {
			guards[4].Set("a rainbow")
		}

		// 提前结束后一半
		back := guards[len(guards)/2:]
		for _, g := range back {
			_ = g.Close()
		}
		early = false

		fmt.Fprintf(a.out, "\n%d Objects dropped already\n\n", len(records))
	}()

	table := tablewriter.NewWriter(a.out)
	table.Header("Value", "Dropped")
	for _, r := range records {
		when := "scope end"
		if r.early {
			when = "early"
		}
		if err := table.Append([]string{r.value, when}); err != nil {
			return err
		}
	}
	return table.Render()
}
