package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/Noofbiz/lickset/config"
	"github.com/Noofbiz/lickset/datasets"
	"github.com/Noofbiz/lickset/manifest"
	"github.com/Noofbiz/lickset/preview"
)

type buildOptions struct {
	width      int
	height     int
	allFrames  bool
	header     bool
	delimiter  string
	cache      string
	manifest   string
	plots      string
	summaryCSV string
	noProgress bool
}

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var opts buildOptions

	cmd := &cobra.Command{
		Use:   "build <root>",
		Short: "Load every experiment under root and report what was found",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			merged := *cfg
			opts.apply(cmd, &merged)
			return runBuild(cmd, strings.TrimSpace(args[0]), &merged, opts.noProgress)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.width, "width", 0, "Target width in pixels")
	flags.IntVar(&opts.height, "height", 0, "Target height in pixels")
	flags.BoolVar(&opts.allFrames, "all-frames", true, "Emit every image frame, padding missing labels")
	flags.BoolVar(&opts.header, "header", true, "Keypoint tables start with a header line")
	flags.StringVar(&opts.delimiter, "delimiter", "", "Fallback keypoint delimiter (character, comma, space or tab)")
	flags.StringVar(&opts.cache, "cache", "", "Write the loaded dataset to this gob cache")
	flags.StringVar(&opts.manifest, "manifest", "", "Record the run in this SQLite manifest")
	flags.StringVar(&opts.plots, "plots", "", "Write preview plots to this directory")
	flags.StringVar(&opts.summaryCSV, "summary-csv", "", "Write the per-experiment report as CSV")
	flags.BoolVar(&opts.noProgress, "no-progress", false, "Disable the progress bar")
	return cmd
}

// apply overrides cfg with the flags given on the command line.
func (o *buildOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("width") {
		cfg.Dataset.Target.Width = o.width
	}
	if flags.Changed("height") {
		cfg.Dataset.Target.Height = o.height
	}
	if flags.Changed("all-frames") {
		cfg.Dataset.LoadAllImages = o.allFrames
	}
	if flags.Changed("header") {
		cfg.Dataset.HasHeader = o.header
	}
	if flags.Changed("delimiter") {
		cfg.Dataset.Delimiter = o.delimiter
	}
	if flags.Changed("cache") {
		cfg.Output.CachePath = o.cache
	}
	if flags.Changed("manifest") {
		cfg.Output.ManifestPath = o.manifest
	}
	if flags.Changed("plots") {
		cfg.Output.PlotsDir = o.plots
	}
	if flags.Changed("summary-csv") {
		cfg.Output.SummaryCSV = o.summaryCSV
	}
}

func runBuild(cmd *cobra.Command, root string, cfg *config.Config, noProgress bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	loader := newLoader(cfg)
	if !noProgress && isTerminal(cmd.ErrOrStderr()) {
		if names, err := datasets.ExperimentDirs(root); err == nil && len(names) > 0 {
			bar := progressbar.NewOptions(len(names),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetDescription("loading"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
			defer func() { _ = bar.Finish() }()
			loader.Progress = bar
		}
	}

	ds, err := loader.Load(cmd.Context(), root)
	if err != nil {
		return err
	}
	if ds.Report.RootError != "" {
		return fmt.Errorf("read dataset root %s: %s", root, ds.Report.RootError)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderReport(ds.Report))
	fmt.Fprintf(out, "Loaded %d samples at %s\n", ds.Len(), ds.Resolution)

	if path := cfg.Output.SummaryCSV; path != "" {
		if err := writeSummaryCSV(path, ds.Report); err != nil {
			return err
		}
		fmt.Fprintf(out, "Summary written to %s\n", path)
	}
	if path := cfg.Output.CachePath; path != "" {
		if err := datasets.SaveCache(path, ds); err != nil {
			return err
		}
		size := ""
		if info, err := os.Stat(path); err == nil {
			size = " (" + humanize.Bytes(uint64(info.Size())) + ")"
		}
		fmt.Fprintf(out, "Dataset cached to %s%s\n", path, size)
	}
	if dir := cfg.Output.PlotsDir; dir != "" {
		if err := preview.WriteAll(ds, dir); err != nil {
			return err
		}
		fmt.Fprintf(out, "Plots written to %s\n", dir)
	}
	if path := cfg.Output.ManifestPath; path != "" {
		store, err := manifest.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()
		runID, err := store.RecordRun(cmd.Context(), ds.Report)
		if err != nil {
			return err
		}
		klog.V(1).Infof("Recorded run %s in %s", runID, path)
		fmt.Fprintf(out, "Recorded run %s\n", runID)
	}
	return nil
}

// newLoader returns the loader used by build. Nothing in build reads the
// stacked batch, so it is never assembled.
func newLoader(cfg *config.Config) *datasets.Loader {
	l := &datasets.Loader{Config: cfg.Dataset}
	l.Config.ReturnDense = false
	return l
}

// isTerminal reports whether w is an interactive terminal. The progress bar
// is only drawn there.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
