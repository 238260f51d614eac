package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/rdsim/internal/config"
	"github.com/san-kum/rdsim/internal/logging"
	"github.com/san-kum/rdsim/internal/storage"
)

var (
	dataDir   string
	storeKind string
	logLevel  string
	budget    time.Duration

	engineName    string
	replicas      int
	seed          uint64
	tMax          float64
	timeStep      float64
	noCoarsegrain bool
	live          bool
	noSave        bool
	showPlot      bool

	species    []string
	cell       int
	plotWidth  int
	plotHeight int
	exportFmt  string
)

// main registers the commands and executes the root command, exiting with
// status 1 on error.
func main() {
	env, err := config.ParseEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:           "rdsim",
		Short:         "reaction-diffusion simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", env.DataDir, "data directory (RDSIM_DATA)")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", env.Store, "run store: file or sqlite (RDSIM_STORE)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", env.LogLevel, "trace, debug, info, warn or error (RDSIM_LOG_LEVEL)")

	runCmd := &cobra.Command{
		Use:   "run [preset|script.yaml]",
		Short: "run a simulation",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&engineName, "engine", "", "engine (see 'rdsim engines'); overrides the script")
	runCmd.Flags().IntVar(&replicas, "replicas", 1, "independent runs with consecutive seeds")
	runCmd.Flags().Uint64Var(&seed, "seed", 0, "random seed; overrides the script")
	runCmd.Flags().Float64Var(&tMax, "t-max", 0, "termination time; overrides the script")
	runCmd.Flags().Float64Var(&timeStep, "dt", 0, "time step; overrides the script")
	runCmd.Flags().BoolVar(&noCoarsegrain, "no-coarsegrain", false, "ignore the script index map")
	runCmd.Flags().BoolVar(&live, "live", false, "show live progress")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the trajectories")
	runCmd.Flags().BoolVar(&showPlot, "plot", false, "plot species totals after the run")
	runCmd.Flags().DurationVar(&budget, "budget", env.RunBudget, "length of one cooperative run slice (RDSIM_RUN_BUDGET)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&species, "species", nil, "species to plot (default all)")
	plotCmd.Flags().IntVar(&cell, "cell", -1, "cell to plot; negative sums over cells")
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "plot width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 12, "plot height")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&exportFmt, "format", "json", "json or csv")

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets, or print one as a script file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	enginesCmd := &cobra.Command{
		Use:   "engines",
		Short: "list engines",
		Args:  cobra.NoArgs,
		RunE:  listEngines,
	}

	validateCmd := &cobra.Command{
		Use:   "validate [preset|script.yaml]",
		Short: "check a script without running it",
		Args:  cobra.ExactArgs(1),
		RunE:  validateScript,
	}

	coarsegrainCmd := &cobra.Command{
		Use:   "coarsegrain [preset|script.yaml]",
		Short: "show the coarse-grained topology of a script",
		Args:  cobra.ExactArgs(1),
		RunE:  showCoarsegrain,
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, presetsCmd, enginesCmd, validateCmd, coarsegrainCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	return logging.NewLogger(logLevel, os.Stderr)
}

func openStore() (storage.Store, error) {
	return storage.Open(storeKind, dataDir)
}

// loadFile reads a script file, or falls back to a preset of that name.
func loadFile(arg string) (*config.File, string, error) {
	if _, err := os.Stat(arg); err == nil {
		f, err := config.Load(arg)
		return f, arg, err
	}
	if f := config.GetPreset(arg); f != nil {
		return f, arg, nil
	}
	return nil, "", fmt.Errorf("%q is neither a script file nor a preset (see 'rdsim presets')", arg)
}
