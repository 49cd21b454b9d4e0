package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/rota/app"
	"github.com/kilianp07/rota/core/model"
	"github.com/kilianp07/rota/pkg/export"
)

var exportFormat string

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Schedule related commands",
}

var scheduleLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the stored sessions",
	RunE:  runScheduleLs,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the fairness report of the stored schedule",
	RunE:  runStats,
}

func init() {
	scheduleLsCmd.Flags().StringVarP(&exportFormat, "format", "f", "table", "output format: table, json or csv")
	scheduleCmd.AddCommand(scheduleLsCmd)
	rootCmd.AddCommand(scheduleCmd, statsCmd)
}

func runScheduleLs(cmd *cobra.Command, args []string) error {
	return withService(func(svc *app.Service) error {
		entries, err := svc.Planner.Schedule(context.Background())
		if err != nil {
			return err
		}
		if exportFormat == "table" {
			return printSchedule(cmd.OutOrStdout(), entries)
		}
		return export.Write(cmd.OutOrStdout(), exportFormat, entries)
	})
}

func printSchedule(w io.Writer, entries []model.AssignmentEntry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Date, e.Day, e.Theme)
		for _, r := range e.Roles {
			fmt.Fprintf(tw, "\t%s\t%s (%s)\n", r.Role, r.Participant.Name, r.Participant.ID)
		}
	}
	return tw.Flush()
}

func runStats(cmd *cobra.Command, args []string) error {
	return withService(func(svc *app.Service) error {
		rep, err := svc.Planner.Report(context.Background())
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "sessions %d\tmean %.2f\tstddev %.2f\tmain coverage %.0f%%\n",
			rep.Sessions, rep.MeanTotal, rep.StdDevTotal, rep.MainCoverage*100)
		fmt.Fprintln(tw, "ROLL NO\tNAME\tTOTAL\tDISTINCT\tREPEATS")
		for _, p := range rep.Participants {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\n", p.ID, p.Name, p.Total, p.Distinct, p.Repeats)
		}
		return tw.Flush()
	})
}
