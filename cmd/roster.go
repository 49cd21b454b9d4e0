package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/rota/app"
	"github.com/kilianp07/rota/infra/rosterfile"
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Roster related commands",
}

var rosterImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import participants from a YAML or JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRosterImport,
}

var rosterLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List participants in rotation order",
	RunE:  runRosterLs,
}

func init() {
	rosterCmd.AddCommand(rosterImportCmd, rosterLsCmd)
	rootCmd.AddCommand(rosterCmd)
}

func runRosterImport(cmd *cobra.Command, args []string) error {
	ps, err := rosterfile.Load(args[0])
	if err != nil {
		return err
	}
	return withService(func(svc *app.Service) error {
		n, err := svc.Planner.Import(context.Background(), ps)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d participants\n", n)
		return err
	})
}

func runRosterLs(cmd *cobra.Command, args []string) error {
	return withService(func(svc *app.Service) error {
		ps, err := svc.Planner.Participants(context.Background())
		if err != nil {
			return err
		}
		for _, p := range ps {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.ID, p.Name); err != nil {
				return err
			}
		}
		return nil
	})
}
