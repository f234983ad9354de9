package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/trackprop/internal/config"
	"github.com/san-kum/trackprop/internal/experiment"
	"github.com/san-kum/trackprop/internal/optim"
	"github.com/san-kum/trackprop/internal/propagator"
	"github.com/san-kum/trackprop/internal/storage"
	"github.com/san-kum/trackprop/internal/tui"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	preset     string
	tracks     int
	seed       uint64
	direction  string
	stepSize   float64
	pathLimit  float64
	seriesName []string

	scanAxes     []string
	scanMetric   string
	scanMaximize bool

	svgOut        string
	svgProjection string
	svgBraille    bool
	svgWidth      int
	svgHeight     int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "trackprop",
		Short:         "straight-line track propagation with covariance transport",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".trackprop", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "propagate a track through the configured layout",
		Args:  cobra.NoArgs,
		RunE:  runPropagation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().IntVar(&tracks, "tracks", 1, "number of smeared tracks")
	runCmd.Flags().Uint64Var(&seed, "seed", 0, "random seed for smearing and digitization")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "propagate and replay the track in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run]",
		Short: "plot quantities of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&seriesName, "series", []string{"x", "sigma_loc0"}, "series to plot: "+strings.Join(tui.SeriesNames(), ", "))

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(args[0], cmd.OutOrStdout())
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "presets:")
			for _, p := range config.ListPresets() {
				fmt.Fprintf(out, "  %s\n", p)
			}
			return nil
		},
	}

	layoutsCmd := &cobra.Command{
		Use:   "layouts",
		Short: "list detector layouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range experiment.NewRegistry().ListLayouts() {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
			}
			return nil
		},
	}

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "scan a metric over a grid of parameters",
		Args:  cobra.NoArgs,
		RunE:  runScan,
	}
	addConfigFlags(scanCmd)
	scanCmd.Flags().IntVar(&tracks, "tracks", 1, "number of smeared tracks per grid point")
	scanCmd.Flags().StringArrayVar(&scanAxes, "param", nil, "grid axis as name=min:max:n or name=v1,v2 ("+strings.Join(experiment.OverrideNames(), ", ")+")")
	scanCmd.Flags().StringVar(&scanMetric, "metric", optim.MetricHits, "metric to optimize")
	scanCmd.Flags().BoolVar(&scanMaximize, "max", false, "maximize instead of minimize")
	_ = scanCmd.MarkFlagRequired("param")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario]",
		Short: "run a YAML scenario of propagations",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run]",
		Short: "export the trajectory of a run to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&svgOut, "out", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().StringVar(&svgProjection, "projection", "", "axis pair such as xy or zx (default widest spread)")
	exportSVGCmd.Flags().BoolVar(&svgBraille, "braille", false, "render the braille canvas instead of a path")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "width in pixels, or cells with --braille")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 400, "height in pixels, or cells with --braille")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportJSONCmd, exportSVGCmd, scanCmd, batchCmd, presetsCmd, layoutsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&direction, "direction", "forward", "navigation direction (forward, backward)")
	cmd.Flags().Float64Var(&stepSize, "step", config.DefaultStepSize, "maximum step size in mm")
	cmd.Flags().Float64Var(&pathLimit, "path-limit", config.DefaultPathLimit, "path limit in mm")
}

func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return nil
}

// loadConfig starts from the defaults, applies a preset, then a config
// file, then explicitly set flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("direction") {
		cfg.Propagation.Direction = direction
	}
	if flags.Changed("step") {
		cfg.Propagation.StepSize = stepSize
	}
	if flags.Changed("path-limit") {
		cfg.Propagation.PathLimit = pathLimit
	}
	if flags.Changed("tracks") {
		cfg.Ensemble.Tracks = tracks
	}
	if flags.Changed("seed") {
		cfg.Ensemble.Seed = seed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runPropagation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	exp, err := experiment.New(cfg, slog.Default())
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "propagating %s (%s layout, %d track(s))...\n", cfg.Name, cfg.Layout.Name, cfg.Ensemble.Tracks)
	start := time.Now()

	if cfg.Ensemble.Tracks > 1 {
		results, err := exp.RunEnsemble(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "completed in %v\n", time.Since(start))
		return printEnsemble(cmd, exp, results)
	}

	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runDir, err := st.Save(cfg, result)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "completed in %v\n", elapsed)
	fmt.Fprintf(out, "run: %s\n", runDir)
	fmt.Fprintf(out, "steps: %d  path: %.3f mm  stop: %s\n", result.StepsTaken, result.PathLength, result.AbortReason)
	if result.Final != nil {
		fmt.Fprintf(out, "final: %s\n", result.Final)
	}

	if err := printHits(cmd, exp, result); err != nil {
		return err
	}

	fmt.Fprintln(out, "\nmetrics:")
	for _, name := range sortedKeys(result.Metrics) {
		fmt.Fprintf(out, "  %s: %.6g\n", name, result.Metrics[name])
	}
	return nil
}

func printHits(cmd *cobra.Command, exp *experiment.Experiment, result *propagator.Result) error {
	if len(result.Hits) == 0 {
		return nil
	}
	measurements, err := exp.Digitize(result)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nTARGET\tSURFACE\tPATH\tLOC0\tLOC1\tPULL0\tPULL1")
	for i, hit := range result.Hits {
		pulls, err := experiment.Pulls(measurements[i], hit)
		if err != nil {
			return err
		}
		v := hit.Parameters.BoundVector()
		fmt.Fprintf(w, "%d\t%d\t%.3f\t%.4f\t%.4f\t%+.3f\t%+.3f\n",
			hit.Target, hit.Surface, hit.Path, v[0], v[1], pulls[0], pulls[1])
	}
	return w.Flush()
}

func printEnsemble(cmd *cobra.Command, exp *experiment.Experiment, results []*propagator.Result) error {
	out := cmd.OutOrStdout()

	hits := make(map[int]int)
	var path float64
	reasons := make(map[propagator.AbortReason]int)
	for _, r := range results {
		path += r.PathLength
		reasons[r.AbortReason]++
		for _, h := range r.Hits {
			hits[h.Target]++
		}
	}

	fmt.Fprintf(out, "tracks: %d  mean path: %.3f mm\n", len(results), path/float64(len(results)))
	for reason, n := range reasons {
		fmt.Fprintf(out, "  stop %s: %d\n", reason, n)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nTARGET\tHITS\tEFFICIENCY")
	for target := 0; target < len(exp.Setup().Options.Targets); target++ {
		fmt.Fprintf(w, "%d\t%d\t%.3f\n", target, hits[target], float64(hits[target])/float64(len(results)))
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg, slog.Default())
	if err != nil {
		return err
	}
	result, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}
	return tui.Run(cfg.Name, result)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tNAME\tLAYOUT\tTIME\tDIR\tSTEPS\tPATH\tHITS\tSTOP")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%.2f\t%d\t%s\n",
			run.Dir,
			run.Name,
			run.Layout,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Direction,
			run.Steps,
			run.PathLength,
			len(run.Hits),
			run.AbortReason,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runDir := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runDir)
	if err != nil {
		return err
	}

	samples, err := st.LoadTrajectory(runDir)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", meta.Dir)
	fmt.Fprintf(out, "name: %s\n", meta.Name)
	fmt.Fprintf(out, "samples: %d\n\n", len(samples))

	for _, name := range seriesName {
		graph, err := tui.Plot(samples, name, 80, 10)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, graph)
		fmt.Fprintln(out)
	}
	return nil
}
