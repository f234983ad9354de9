package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/trackprop/internal/automation"
	"github.com/san-kum/trackprop/internal/export"
	"github.com/san-kum/trackprop/internal/optim"
	"github.com/san-kum/trackprop/internal/storage"
	"github.com/san-kum/trackprop/internal/tui"
)

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(scanAxes))
	ranges := make([][]float64, 0, len(scanAxes))
	for _, a := range scanAxes {
		name, values, err := optim.ParseAxis(a)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	g, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}
	if scanMaximize {
		g.Maximize()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "scanning %s over %d point(s)...\n", scanMetric, g.Size())

	report, err := g.Search(ctx, optim.MetricObjective(cfg, scanMetric, slog.Default()))
	if report != nil {
		if perr := printScan(out, names, report); perr != nil {
			return perr
		}
	}
	return err
}

func printScan(out io.Writer, names []string, report *optim.Report) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, n := range names {
		fmt.Fprintf(w, "%s\t", n)
	}
	fmt.Fprintln(w, "VALUE")
	for _, p := range report.Points {
		for _, n := range names {
			fmt.Fprintf(w, "%.6g\t", p.Params[n])
		}
		if p.Err != nil {
			fmt.Fprintf(w, "error: %v\n", p.Err)
			continue
		}
		fmt.Fprintf(w, "%.6g\n", p.Value)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if report.Best != nil {
		fmt.Fprint(out, "\nbest:")
		for _, n := range names {
			fmt.Fprintf(out, " %s=%.6g", n, report.Best[n])
		}
		fmt.Fprintf(out, " -> %.6g\n", report.BestValue)
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	outcomes, err := automation.RunScenario(ctx, scenario, st, slog.Default())

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tNAME\tTRACKS\tHITS\tPATH\tSTOP\tRUN")
	for _, o := range outcomes {
		n := max(len(o.Ensemble), 1)
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%.3f\t%s\t%s\n",
			o.Index+1, o.Name, n, len(o.Result.Hits), o.Result.PathLength, o.Result.AbortReason, o.RunDir)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	return err
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	if len(samples) < 2 {
		return fmt.Errorf("run %s has too few samples to draw", meta.Dir)
	}

	positions := export.Positions(samples)
	proj := export.FitProjection(positions)
	if svgProjection != "" {
		if proj, err = export.ParseProjection(svgProjection); err != nil {
			return err
		}
	}

	var svg string
	if svgBraille {
		c := tui.NewCanvas(max(svgWidth/10, 1), max(svgHeight/20, 1))
		export.Rasterize(proj.ApplyAll(positions), c)
		svg = export.CanvasToSVG(c, 5)
	} else {
		hits := make([]r3.Vec, len(meta.Hits))
		for i, h := range meta.Hits {
			hits[i] = h.Global
		}
		svg = export.TrajectoryToSVG(proj.ApplyAll(positions), proj.ApplyAll(hits), svgWidth, svgHeight, "#00d7af")
	}

	if svgOut == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), svg)
		return err
	}
	if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s projection)\n", svgOut, proj)
	return nil
}
