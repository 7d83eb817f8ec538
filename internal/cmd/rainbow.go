package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/qq1060656096/dropguard/guard"
)

func newRainbowCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rainbow",
		Short: "Mutate a guarded string; the finalizer prints what it became",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(cmd, map[string]string{
				"rainbow.initial": "initial",
				"rainbow.final":   "final",
			}); err != nil {
				return err
			}
			return a.runRainbow()
		},
	}
	cmd.Flags().String("initial", "", "value the string starts with")
	cmd.Flags().String("final", "", "value the string is changed to")
	return cmd
}

func (a *app) runRainbow() error {
	s := guard.New(a.cfg.Rainbow.Initial, func(s string) {
		a.log.Debug("string finalized", zap.String("value", s))
		fmt.Fprintf(a.out, "s became %s at last\n", s)
	})
	defer s.Close()

	// much code and time passes by ...
	s.Set(a.cfg.Rainbow.Final)
	return nil
}
