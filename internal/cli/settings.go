package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"focusmate/internal/timer"
)

func newSettingsCmd(a *app) *cobra.Command {
	var focus, brk int
	var sound bool
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change timer defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := timer.LoadSettings(a.store)

			flags := cmd.Flags()
			if flags.Changed("focus") || flags.Changed("break") || flags.Changed("sound") {
				if flags.Changed("focus") {
					s.FocusDefault = focus
				}
				if flags.Changed("break") {
					s.BreakDefault = brk
				}
				if flags.Changed("sound") {
					s.EnableSound = sound
				}
				if err := timer.SaveSettings(a.store, s); err != nil {
					return fmt.Errorf("%w (focus: %v, break: %v)", err, timer.FocusPresets, timer.BreakPresets)
				}
				a.log.Info("settings updated",
					zap.Int("focus", s.FocusDefault),
					zap.Int("break", s.BreakDefault),
					zap.Bool("sound", s.EnableSound))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Focus default: %dm\n", s.FocusDefault)
			fmt.Fprintf(out, "Break default: %dm\n", s.BreakDefault)
			fmt.Fprintf(out, "Sound:         %t\n", s.EnableSound)
			return nil
		},
	}
	cmd.Flags().IntVar(&focus, "focus", timer.DefaultFocusMinutes, "default focus minutes (25, 30, 45 or 60)")
	cmd.Flags().IntVar(&brk, "break", timer.DefaultBreakMinutes, "default break minutes (5, 10 or 15)")
	cmd.Flags().BoolVar(&sound, "sound", true, "ring the terminal bell when a period ends")
	return cmd
}
