package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/rdsim/internal/coarsegrain"
	"github.com/san-kum/rdsim/internal/config"
	"github.com/san-kum/rdsim/internal/experiment"
	"github.com/san-kum/rdsim/internal/metrics"
	"github.com/san-kum/rdsim/internal/rdsys"
	"github.com/san-kum/rdsim/internal/simulate"
	"github.com/san-kum/rdsim/internal/storage"
	"github.com/san-kum/rdsim/internal/viz"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	f, name, err := loadFile(args[0])
	if err != nil {
		return err
	}
	script, indexMap, err := f.Build()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	eng := f.Engine
	if flags.Changed("engine") {
		eng = engineName
	}
	if flags.Changed("seed") {
		script.Seed = seed
	}
	if flags.Changed("t-max") {
		script.TMax = tMax
	}
	if flags.Changed("dt") {
		script.TimeStep = timeStep
	}
	if noCoarsegrain {
		indexMap = nil
	}
	if err := script.Validate(); err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	exp := experiment.New(script, experiment.Config{Engine: eng, Replicas: replicas, IndexMap: indexMap}, registry)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	opts := simulate.Options{Budget: budget, Logger: newLogger()}
	var trs []*rdsys.Trajectory
	if live {
		opts.Logger = nil
		title := fmt.Sprintf("%s on %s", filepath.Base(name), displayEngine(eng))
		trs, err = viz.RunLive(ctx, title, func(ctx context.Context, progress func(float64)) ([]*rdsys.Trajectory, error) {
			o := opts
			o.Progress = progress
			return exp.Run(ctx, o)
		})
	} else {
		trs, err = exp.Run(ctx, opts)
	}
	if err != nil {
		return err
	}

	var st storage.Store
	if !noSave {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		st = s
	}

	runName := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	for i, tr := range trs {
		values := metrics.Evaluate(tr, metrics.Default(tr.System)...)
		rows := [][2]string{
			{"engine", displayEngine(eng)},
			{"seed", strconv.FormatUint(tr.Script.Seed, 10)},
			{"samples", strconv.Itoa(tr.NSamples())},
			{"cells", strconv.Itoa(tr.System.CellCount())},
		}
		if tr.Incomplete {
			rows = append(rows, [2]string{"status", "failed, partial output"})
		}
		if st != nil {
			id, err := st.Save(runName, tr, values)
			if err != nil {
				return err
			}
			rows = append(rows, [2]string{"run id", id})
		}
		for _, k := range sortedKeys(values) {
			rows = append(rows, [2]string{k, viz.FormatFloat(values[k])})
		}

		title := runName
		if len(trs) > 1 {
			title = fmt.Sprintf("%s #%d", runName, i)
		}
		fmt.Println(viz.Summary(title, rows))

		if showPlot {
			series, err := viz.TrajectorySeries(tr, nil, -1)
			if err != nil {
				return err
			}
			fmt.Println(viz.Plot(series, "species totals vs time", 80, 12))
		}
	}
	return nil
}

func displayEngine(name string) string {
	if name == "" {
		return experiment.DefaultEngine
	}
	return name
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tENGINE\tSPECIES\tCELLS\tSAMPLES\tSEED\tSTATUS\tTIME")
	for _, run := range runs {
		status := "complete"
		if run.Incomplete {
			status = "failed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			run.ID, run.Engine, strings.Join(run.Species, ","), run.Cells, run.Samples, run.Seed, status,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	if len(samples.T) == 0 {
		return fmt.Errorf("run %s has no samples", meta.ID)
	}

	series, err := viz.SampleSeries(samples, species, cell)
	if err != nil {
		return err
	}
	caption := "species totals vs time"
	if cell >= 0 {
		caption = fmt.Sprintf("cell %d vs time", cell)
	}
	fmt.Printf("run: %s\nengine: %s\nsamples: %d (t = %g .. %g %s)\n\n",
		meta.ID, meta.Engine, len(samples.T), samples.T[0], samples.T[len(samples.T)-1], meta.Units.Time)
	fmt.Println(viz.Plot(series, caption, plotWidth, plotHeight))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}

	switch exportFmt {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Metadata any         `json:"metadata"`
			Columns  []string    `json:"columns"`
			T        []float64   `json:"t"`
			Rows     [][]float64 `json:"rows"`
		}{meta, samples.Columns, samples.T, samples.Rows})
	case "csv":
		w := csv.NewWriter(os.Stdout)
		if err := w.Write(append([]string{"time"}, samples.Columns...)); err != nil {
			return err
		}
		for k, row := range samples.Rows {
			record := []string{strconv.FormatFloat(samples.T[k], 'g', -1, 64)}
			for _, v := range row {
				record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	default:
		return fmt.Errorf("unknown export format %q", exportFmt)
	}
}

func listPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		f := config.GetPreset(args[0])
		if f == nil {
			return fmt.Errorf("unknown preset %q", args[0])
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(f)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tENGINE\tSPECIES\tCOARSE-GRAINED")
	for _, name := range config.ListPresets() {
		f := config.GetPreset(name)
		labels := make([]string, len(f.Species))
		for i, s := range f.Species {
			labels[i] = s.Label
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", name, f.Engine, strings.Join(labels, ","), len(f.IndexMap) > 0)
	}
	return w.Flush()
}

func listEngines(cmd *cobra.Command, args []string) error {
	registry := experiment.NewRegistry()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range registry.Names() {
		marker := ""
		if name == experiment.DefaultEngine {
			marker = " (default)"
		}
		fmt.Fprintf(w, "%s%s\t%s\n", name, marker, registry.Description(name))
	}
	return w.Flush()
}

func validateScript(cmd *cobra.Command, args []string) error {
	f, _, err := loadFile(args[0])
	if err != nil {
		return err
	}
	script, indexMap, err := f.Build()
	if err != nil {
		return err
	}
	if indexMap != nil {
		if err := coarsegrain.ValidateIndexMap(indexMap, script.System.Space); err != nil {
			return err
		}
	}
	if _, err := experiment.NewRegistry().New(f.Engine); err != nil {
		return err
	}

	fmt.Println(viz.Summary("valid", [][2]string{
		{"engine", displayEngine(f.Engine)},
		{"species", strings.Join(script.System.Network.SpeciesLabels(), ",")},
		{"reactions", strconv.Itoa(script.System.Network.NReactions())},
		{"cells", strconv.Itoa(script.System.CellCount())},
		{"samples", strconv.Itoa(len(script.TSample))},
		{"t max", fmt.Sprintf("%g %s", script.TMax, script.Units.Time)},
		{"coarse-grained", strconv.FormatBool(indexMap != nil)},
	}))
	return nil
}

func showCoarsegrain(cmd *cobra.Command, args []string) error {
	f, _, err := loadFile(args[0])
	if err != nil {
		return err
	}
	script, indexMap, err := f.Build()
	if err != nil {
		return err
	}
	if indexMap == nil {
		return fmt.Errorf("%s has no index map", args[0])
	}
	graph, err := coarsegrain.CoarsegrainTopology(script.System.Space, indexMap)
	if err != nil {
		return err
	}

	u := script.System.Units
	fmt.Printf("%d cells -> %d nodes\n\n", script.System.CellCount(), graph.Size())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "NODE\tVOLUME (%s^3)\tENV\n", u.Space)
	for i, n := range graph.Nodes() {
		fmt.Fprintf(w, "%d\t%g\t%s\n", i, n.Volume, script.System.Network.Environment(n.Env))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "EDGE\tSURFACE (%s^2)\tDISTANCE (%s)\n", u.Space, u.Space)
	for _, e := range graph.Edges() {
		fmt.Fprintf(w, "%d-%d\t%g\t%g\n", e.I, e.J, e.Surface, e.Distance)
	}
	return w.Flush()
}
