package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"focusmate/internal/timer"
	"focusmate/internal/tui"
)

func newTimerCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Run the interactive focus timer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := timer.LoadSettings(a.store)
			store := timer.NewStore(a.store, a.clock, a.log)
			snap, tr := store.Load(settings.Snapshot())

			feed := tui.NewTimerFeed()
			record := a.recordSessions()
			machine := timer.NewMachine(snap,
				timer.WithClock(a.clock),
				timer.WithOnChange(func(s timer.Snapshot) {
					store.Save(s)
					feed.OnChange(s)
				}),
				timer.WithNotifier(func(t timer.Transition) {
					feed.Notify(t)
					record(t)
				}),
			)

			model := tui.NewTimerModel(machine, feed, settings)
			if tr != nil {
				store.Save(machine.Snapshot())
				record(*tr)
				model = model.Notice(expiredNotice(*tr))
			}

			runner := timer.NewRunner(a.clock, machine.Tick)
			runner.Start(cmd.Context())
			defer runner.Stop()

			return tui.RunTimer(model)
		},
	}
	cmd.AddCommand(newTimerStatusCmd(a))
	return cmd
}

func newTimerStatusCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the saved timer state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := timer.NewStore(a.store, a.clock, a.log)
			snap, tr := store.Load(timer.LoadSettings(a.store).Snapshot())
			if tr != nil {
				store.Save(snap)
				a.recordSessions()(*tr)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}
			if tr != nil {
				fmt.Fprintln(out, expiredNotice(*tr))
			}
			printSnapshot(out, snap)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the snapshot as JSON")
	return cmd
}

func printSnapshot(w io.Writer, s timer.Snapshot) {
	state := "paused"
	if s.IsRunning {
		state = "running"
	}
	fmt.Fprintf(w, "Mode:           %s (%s)\n", s.Mode, state)
	fmt.Fprintf(w, "Time left:      %s\n", timer.FormatClock(s.TimeLeft))
	fmt.Fprintf(w, "Presets:        focus %dm, break %dm\n", s.FocusMinutes, s.BreakMinutes)
	fmt.Fprintf(w, "Sessions today: %d\n", s.SessionsToday)
	fmt.Fprintf(w, "Focus time:     %s\n", tui.FormatMinutes(s.TotalFocusTime))
	fmt.Fprintf(w, "Streak:         %d\n", s.CurrentStreak)
}

func expiredNotice(t timer.Transition) string {
	if t.From == timer.ModeFocus {
		return fmt.Sprintf("Your %d minute focus session finished while you were away.", t.FocusMinutes)
	}
	return "Your break finished while you were away."
}
