package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/rota/app"
	"github.com/kilianp07/rota/config"
	"github.com/kilianp07/rota/core/calendar"
	"github.com/kilianp07/rota/core/model"
)

var generateCmd = &cobra.Command{
	Use:   "generate [DD.MM.YYYY...]",
	Short: "Generate the sessions of the given dates, or of the configured term",
	RunE:  runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	return withService(func(svc *app.Service) error {
		dates, err := requestedDates(args)
		if err != nil {
			return err
		}
		res, err := svc.Planner.Plan(context.Background(), dates)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(res.Entries) == 0 {
			_, err = fmt.Fprintln(out, "No new days to generate.")
			return err
		}
		if _, err := fmt.Fprintf(out, "run %s: %d sessions, %d skipped, %d forced repeats, cursor %d -> %d\n",
			res.RunID, len(res.Entries), len(res.Skipped), res.Stats.Forced, res.Start, res.Cursor); err != nil {
			return err
		}
		return printSchedule(out, res.Entries)
	})
}

// requestedDates parses positional dates, falling back to the calendar
// section of the configuration.
func requestedDates(args []string) ([]model.SessionDate, error) {
	if len(args) > 0 {
		dates := make([]model.SessionDate, len(args))
		for i, a := range args {
			dates[i] = model.SessionDate{Date: a}
		}
		return dates, nil
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if cfg.Calendar.Empty() {
		return nil, fmt.Errorf("no dates given and no calendar configured")
	}
	return calendar.Expand(cfg.Calendar)
}
