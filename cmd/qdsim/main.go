package main

import (
	"context"
	"fmt"
	"math/cmplx"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/san-kum/qdsim/internal/analysis"
	"github.com/san-kum/qdsim/internal/config"
	"github.com/san-kum/qdsim/internal/experiment"
	"github.com/san-kum/qdsim/internal/lme"
	"github.com/san-kum/qdsim/internal/logger"
	"github.com/san-kum/qdsim/internal/optim"
	"github.com/san-kum/qdsim/internal/signal"
	"github.com/san-kum/qdsim/internal/storage"
	"github.com/san-kum/qdsim/internal/viz"
)

var (
	dataDir  string
	logLevel string
	pretty   bool

	equation   string
	method     string
	tstep      float64
	tf         float64
	configFile string
	metricList []string
	progress   bool
	live       bool
	noSave     bool

	outFile  string
	svgFile  string
	maxPlots int
	parallel int

	kpGrid     []float64
	kiGrid     []float64
	kdGrid     []float64
	tuneMetric string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "qdsim",
		Short:        "open quantum system master equation integrator",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".qdsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", true, "human readable log output")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "integrate a preset or a config file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().BoolVar(&progress, "progress", true, "report progress on long runs")
	runCmd.Flags().BoolVar(&live, "live", false, "show populations and the bloch vector while integrating")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().StringSliceVar(&metricList, "metrics", nil, "metrics to record (default trace_drift,hermiticity_drift,purity)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the upper triangle of a stored trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&maxPlots, "max", 6, "maximum number of charts")
	plotCmd.Flags().StringVar(&svgFile, "svg", "", "also write the diagonal entries to an SVG file")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency and Bloch vector analysis of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	generatorCmd := &cobra.Command{
		Use:   "generator [preset]",
		Short: "print the Hermitian subspace generator and its spectrum",
		Args:  cobra.MaximumNArgs(1),
		RunE:  printGenerator,
	}
	generatorCmd.Flags().StringVar(&equation, "equation", config.EquationLME, "preset family (lme, fme)")
	generatorCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")

	compareCmd := &cobra.Command{
		Use:   "compare [preset]",
		Short: "compare integration methods on a preset",
		Args:  cobra.ExactArgs(1),
		RunE:  compareMethods,
	}
	addRunFlags(compareCmd)

	batchCmd := &cobra.Command{
		Use:   "batch [config...]",
		Short: "run several config files concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runBatch,
	}
	batchCmd.Flags().IntVar(&parallel, "parallel", 0, "maximum concurrent runs (0 = unlimited)")

	tuneCmd := &cobra.Command{
		Use:   "tune [preset]",
		Short: "grid search the feedback gains of a controlled preset",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneGains,
	}
	addRunFlags(tuneCmd)
	tuneCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	tuneCmd.Flags().Float64SliceVar(&kpGrid, "kp", []float64{0.5, 1, 2, 4}, "proportional gains")
	tuneCmd.Flags().Float64SliceVar(&kiGrid, "ki", []float64{0}, "integral gains")
	tuneCmd.Flags().Float64SliceVar(&kdGrid, "kd", []float64{0}, "derivative gains")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "tracking_error", "metric to minimise")

	presetsCmd := &cobra.Command{
		Use:   "presets [equation]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			equations := config.Equations()
			if len(args) == 1 {
				equations = args
			}
			for _, eq := range equations {
				presets := config.ListPresets(eq)
				if len(presets) == 0 {
					fmt.Printf("no presets for equation: %s\n", eq)
					continue
				}
				fmt.Printf("presets for %s:\n", viz.Title.Render(eq))
				for _, p := range presets {
					fmt.Printf("  %s\n", p)
				}
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, analyzeCmd, exportJSONCmd, generatorCmd, compareCmd, batchCmd, tuneCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&equation, "equation", config.EquationLME, "preset family (lme, fme)")
	cmd.Flags().StringVar(&method, "method", config.DefaultMethod, "integration method (euler, rk4)")
	cmd.Flags().Float64Var(&tstep, "tstep", config.DefaultTStep, "time step")
	cmd.Flags().Float64Var(&tf, "tf", config.DefaultTF, "final time")
}

func newLogger() zerolog.Logger {
	return logger.New(logger.Config{Level: logLevel, Pretty: pretty})
}

// loadConfig resolves the preset or config file, then applies the flags
// the user set explicitly.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	case len(args) == 1:
		cfg = config.GetPreset(equation, args[0])
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets(equation))
		}
	default:
		cfg = config.DefaultConfig()
	}

	flags := cmd.Flags()
	if flags.Lookup("method") != nil && flags.Changed("method") {
		cfg.Method = method
	}
	if flags.Lookup("tstep") != nil && flags.Changed("tstep") {
		cfg.TStep = tstep
	}
	if flags.Lookup("tf") != nil && flags.Changed("tf") {
		cfg.TF = tf
	}
	return cfg, nil
}

func metricFactories() ([]func() lme.Metric, error) {
	registry := experiment.NewRegistry()
	if len(metricList) == 0 {
		return registry.DefaultMetrics(), nil
	}
	out := make([]func() lme.Metric, 0, len(metricList))
	for _, name := range metricList {
		fn, err := registry.GetMetric(strings.TrimSpace(name))
		if err != nil {
			return nil, fmt.Errorf("%w (available: %v)", err, registry.ListMetrics())
		}
		out = append(out, fn)
	}
	return out, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	log := newLogger()

	opts := []lme.Option{lme.WithLogger(log)}
	var program *tea.Program
	switch {
	case live:
		program = tea.NewProgram(viz.NewLiveModel(cfg.Name, cfg.TF))
		opts = append(opts, lme.WithObserver(viz.NewLiveObserver(program, time.Second/30)))
	case progress:
		opts = append(opts, lme.WithObserver(viz.NewProgressReporter(os.Stderr)))
	default:
		opts = append(opts, lme.WithProgressInterval(0))
	}

	exp, err := experiment.New(cfg, opts...)
	if err != nil {
		return err
	}
	metrics, err := metricFactories()
	if err != nil {
		return err
	}
	exp.Setup(metrics...)

	fmt.Printf("running %s (%s, %s, tstep=%g, tf=%g)...\n", cfg.Name, cfg.Equation, cfg.Method, cfg.TStep, cfg.TF)
	var result *lme.Result
	var runErr error
	if program != nil {
		result, runErr = runLive(exp, program)
	} else {
		result, runErr = exp.Run(context.Background())
	}
	if result == nil {
		return runErr
	}

	if err := viz.Summary(os.Stdout, result); err != nil {
		return err
	}
	if entries, err := result.Trajectory.UpperTriangleTrajectories(); err == nil && len(entries) > 0 {
		pop := make([]float64, len(entries[0]))
		for i, v := range entries[0] {
			pop[i] = real(v)
		}
		fmt.Printf("\n%s %s\n", viz.MetricLabel.Render("rho[0,0]:"), viz.Sparkline(pop, 60))
	}

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(cfg.Name, cfg.Equation, cfg.TStep, cfg.TF, result)
		if err != nil {
			return err
		}
		log.Info().Str("run_id", runID).Str("dir", dataDir).Msg("run stored")
		fmt.Printf("run id: %s\n", runID)
	}
	return runErr
}

// runLive integrates on a separate goroutine while program renders the
// observer's messages. Closing the view early does not stop the run.
func runLive(exp *experiment.Experiment, program *tea.Program) (*lme.Result, error) {
	type outcome struct {
		result *lme.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := exp.Run(context.Background())
		program.Send(viz.DoneMsg{Err: err})
		done <- outcome{res, err}
	}()

	if _, err := program.Run(); err != nil {
		return nil, err
	}
	out := <-done
	return out.result, out.err
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEQUATION\tMETHOD\tTIME\tTF\tTSTEP\tSAMPLES\tSTATUS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g\t%g\t%d\t%s\n",
			run.ID,
			run.Equation,
			run.Method,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.TF,
			run.TStep,
			run.Samples,
			run.Status,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("equation: %s (%s)\n", meta.Equation, meta.Method)
	fmt.Printf("samples: %d\n\n", traj.Len())

	opts := viz.DefaultPlotOptions()
	opts.MaxPlots = maxPlots
	if err := viz.PlotTrajectory(os.Stdout, traj, opts); err != nil {
		return err
	}

	if svgFile == "" {
		return nil
	}
	entries, err := traj.UpperTriangleTrajectories()
	if err != nil {
		return err
	}
	var diagonal [][]float64
	for i, series := range entries {
		if row, col := signal.UpperTriangleIndex(meta.Order, i); row != col {
			continue
		}
		re := make([]float64, len(series))
		for k, v := range series {
			re[k] = real(v)
		}
		diagonal = append(diagonal, re)
	}
	svg := viz.SeriesSVG(traj.Timeline(), diagonal, 800, 400)
	if svg == "" {
		return fmt.Errorf("not enough samples for an svg plot")
	}
	if err := os.WriteFile(svgFile, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", svgFile)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	entries, err := traj.UpperTriangleTrajectories()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no data")
	}

	fmt.Printf("frequency analysis: %s\n\n", meta.ID)

	pop := make([]float64, len(entries[0]))
	for i, v := range entries[0] {
		pop[i] = real(v)
	}
	ps := analysis.PowerSpectrum(pop)
	if err := viz.PlotSpectrum(os.Stdout, ps, "power spectrum (rho[0,0])", viz.DefaultPlotOptions()); err != nil {
		return err
	}

	freq := analysis.DominantFrequency(pop, meta.TStep)
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f\n", 1.0/freq)
	}

	if meta.Order == 2 {
		_, last, err := traj.Last()
		if err != nil {
			return err
		}
		b, err := analysis.BlochOf(last)
		if err != nil {
			return err
		}
		fmt.Printf("final bloch vector: (%.4f, %.4f, %.4f) |r| = %.4f\n", b.X, b.Y, b.Z, b.Norm())
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if outFile == "" {
		return st.ExportJSON(args[0], os.Stdout)
	}

	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	if err := st.ExportJSON(args[0], f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printGenerator(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg)
	if err != nil {
		return err
	}
	gen, err := exp.Generator()
	if err != nil {
		return err
	}

	fmt.Println(viz.HeaderStyle.Render(fmt.Sprintf("generator of %s", cfg.Name)))
	r, c := gen.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			fmt.Printf("%10.4f", gen.At(i, j))
		}
		fmt.Println()
	}

	spectrum, err := analysis.Spectrum(gen)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(viz.HeaderStyle.Render("spectrum"))
	for _, v := range spectrum {
		fmt.Printf("  %10.4f %+10.4fi  |%.4f|\n", real(v), imag(v), cmplx.Abs(v))
	}

	const tol = 1e-9
	stable, err := analysis.IsStable(gen, tol)
	if err != nil {
		return err
	}
	rate, err := analysis.SlowestDecayRate(gen, tol)
	if err != nil {
		return err
	}
	status := viz.StatusOK.Render("stable")
	if !stable {
		status = viz.StatusFail.Render("unstable")
	}
	fmt.Printf("\n%s, slowest decay rate %.4f\n", status, rate)
	return nil
}

func compareMethods(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	log := newLogger()

	fmt.Printf("comparing methods for %s (tstep=%g, tf=%g)\n\n", cfg.Name, cfg.TStep, cfg.TF)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tSAMPLES\tMAX_DELTA\tTRACE_DRIFT\tFINAL_RHO00\tTIME")

	for _, m := range lme.Methods() {
		run := *cfg
		run.Method = string(m)

		exp, err := experiment.New(&run, lme.WithLogger(log), lme.WithProgressInterval(0))
		if err != nil {
			return err
		}
		registry := experiment.NewRegistry()
		drift, _ := registry.GetMetric("trace_drift")
		exp.Setup(drift)

		start := time.Now()
		result, err := exp.Run(context.Background())
		elapsed := time.Since(start)
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", m, err)
			continue
		}

		_, last, _ := result.Trajectory.Last()
		fmt.Fprintf(w, "%s\t%d\t%.3e\t%.3e\t%.6f\t%v\n",
			m, result.Trajectory.Len(), result.MaxDelta, result.Metrics["trace_drift"],
			real(last.At(0, 0)), elapsed.Round(time.Microsecond))
	}

	return w.Flush()
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfgs := make([]*config.Config, 0, len(args))
	for _, path := range args {
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		cfgs = append(cfgs, cfg)
	}

	log := newLogger()
	metrics, err := metricFactories()
	if err != nil {
		return err
	}

	start := time.Now()
	results, err := experiment.RunBatch(context.Background(), cfgs, parallel,
		func(e *experiment.Experiment) { e.Setup(metrics...) },
		lme.WithLogger(log), lme.WithProgressInterval(0))
	if err != nil {
		return err
	}
	log.Info().Int("runs", len(results)).Dur("elapsed", time.Since(start)).Msg("batch completed")

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CONFIG\tRUN ID\tSAMPLES\tMAX_DELTA\tDRIFT")
	for i, res := range results {
		cfg := cfgs[i]
		runID, err := st.Save(cfg.Name, cfg.Equation, cfg.TStep, cfg.TF, res)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.3e\t%v\n", args[i], runID, res.Trajectory.Len(), res.MaxDelta, res.DriftExceeded)
	}
	return w.Flush()
}

func tuneGains(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && configFile == "" {
		args = []string{"controlled"}
	}
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	log := newLogger()

	grid, err := optim.NewGridSearch([]string{"kp", "ki", "kd"}, [][]float64{kpGrid, kiGrid, kdGrid})
	if err != nil {
		return err
	}

	points := len(kpGrid) * len(kiGrid) * len(kdGrid)
	log.Info().Int("points", points).Str("metric", tuneMetric).Msg("grid search started")
	start := time.Now()

	build := optim.ControlGains(cfg, nil)
	best, value, err := grid.Search(context.Background(), build, tuneMetric)
	if err != nil {
		return err
	}

	fmt.Printf("searched %d points in %v\n", points, time.Since(start).Round(time.Millisecond))
	fmt.Printf("%s kp=%g ki=%g kd=%g\n", viz.Title.Render("best gains:"), best["kp"], best["ki"], best["kd"])
	fmt.Printf("%s %s\n", viz.MetricLabel.Render(tuneMetric+":"), viz.MetricValue.Render(fmt.Sprintf("%.6g", value)))
	return nil
}
