package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Noofbiz/lickset/manifest"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var manifestPath string
	var runID string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded loader runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := strings.TrimSpace(manifestPath)
			if path == "" {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				path = cfg.Output.ManifestPath
			}
			if path == "" {
				return fmt.Errorf("no manifest configured (use --manifest or output.manifest_path)")
			}

			store, err := manifest.Open(path)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if runID != "" {
				exps, err := store.Experiments(cmd.Context(), runID)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(exps))
				for _, e := range exps {
					rows = append(rows, summaryRow(e))
				}
				fmt.Fprintln(out, renderTable(summaryHeaders, rows, nil))
				return nil
			}

			runs, err := store.Runs(cmd.Context())
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				root := r.Root
				if r.RootError != "" {
					root += " (" + r.RootError + ")"
				}
				rows = append(rows, []string{
					r.ID,
					r.CreatedAt.Local().Format(time.DateTime),
					root,
					fmt.Sprintf("%d/%d", r.Loaded, r.Experiments),
					strconv.Itoa(r.Samples),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Created", "Root", "Loaded", "Samples"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&manifestPath, "manifest", "", "SQLite manifest to read")
	cmd.Flags().StringVar(&runID, "run", "", "Show the experiments of one run")
	return cmd
}
