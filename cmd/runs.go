/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/texproof/internal/store"
)

var runsDBPath string

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect the run journal",
	Long:  `List, show, and clear the SQLite journal of past proofreading runs.`,
}

func openRunsJournal() (*store.Store, error) {
	path := runsDBPath
	if path == "" {
		path = cfg.Journal.Path
	}
	journal, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return journal, nil
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		journal, err := openRunsJournal()
		if err != nil {
			return err
		}
		defer journal.Close()

		runs, err := journal.ListRuns(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tSTATUS\tINPUT\tUNITS\tCORRECTED\tFAILED")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
				r.ID, r.StartedAt.Format("2006-01-02 15:04"), r.Status,
				truncate(r.InputFile, 40), r.UnitCount, r.CorrectedCount, r.FailedCount)
		}
		return w.Flush()
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one run with its per-unit outcomes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		journal, err := openRunsJournal()
		if err != nil {
			return err
		}
		defer journal.Close()

		ctx := context.Background()
		run, err := journal.GetRun(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Run:       %s\n", run.ID)
		fmt.Printf("Input:     %s\n", run.InputFile)
		fmt.Printf("Output:    %s\n", run.OutputFile)
		fmt.Printf("Service:   %s", run.Service)
		if run.Model != "" {
			fmt.Printf(" (%s)", run.Model)
		}
		fmt.Println()
		fmt.Printf("Status:    %s\n", run.Status)
		fmt.Printf("Started:   %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
		if !run.FinishedAt.IsZero() {
			fmt.Printf("Finished:  %s\n", run.FinishedAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Printf("Units:     %d (%d corrected, %d failed)\n\n",
			run.UnitCount, run.CorrectedCount, run.FailedCount)

		records, err := journal.GetUnitResults(ctx, run.ID)
		if err != nil {
			return fmt.Errorf("failed to load unit results: %w", err)
		}
		if len(records) == 0 {
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tKIND\tSPAN\tSTATE\tATTEMPTS\tDIST\tPREVIEW\tERROR")
		for _, rec := range records {
			fmt.Fprintf(w, "%d\t%s\t%d-%d\t%s\t%d\t%d\t%s\t%s\n",
				rec.Index, rec.Kind, rec.Start, rec.End, rec.State,
				rec.Attempts, rec.Distance, truncate(rec.Preview, 40), truncate(rec.Error, 40))
		}
		return w.Flush()
	},
}

var runsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		journal, err := openRunsJournal()
		if err != nil {
			return err
		}
		defer journal.Close()

		n, err := journal.Clear(context.Background())
		if err != nil {
			return fmt.Errorf("failed to clear journal: %w", err)
		}
		fmt.Printf("Cleared %d runs from the journal.\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.PersistentFlags().StringVar(&runsDBPath, "journal-path", "", "Journal database path (default from config)")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsClearCmd)
}
