package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/cradle/internal/analysis"
	"github.com/san-kum/cradle/internal/audio"
	"github.com/san-kum/cradle/internal/automation"
	"github.com/san-kum/cradle/internal/config"
	"github.com/san-kum/cradle/internal/export"
	"github.com/san-kum/cradle/internal/gui"
	"github.com/san-kum/cradle/internal/logger"
	"github.com/san-kum/cradle/internal/sim"
	"github.com/san-kum/cradle/internal/trace"
	"github.com/san-kum/cradle/internal/viz"
)

var (
	configFile string
	preset     string

	dt         float64
	duration   float64
	balls      int
	degree     float64
	leftCount  int
	rightCount int

	plot        bool
	csvOut      string
	jsonOut     string
	body        int
	svgOut      string
	snapshot    int
	snapshotOut string
	noAudio     bool
	theme       string

	sweepMin   float64
	sweepMax   float64
	sweepSteps int

	soundOut string
)

var log = logger.New("cradle")

// main registers the commands and runs the live terminal view when no
// subcommand is given. It exits with status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:          "cradle",
		Short:        "newton's cradle simulator",
		SilenceUsage: true,
		RunE:         runLive,
	}

	addSetupFlags(rootCmd)
	rootCmd.Flags().StringVar(&theme, "theme", "steel", fmt.Sprintf("color theme %v", viz.ThemeNames()))

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSetupFlags(runCmd)
	runCmd.Flags().BoolVar(&plot, "plot", false, "plot energy and swing angles")
	runCmd.Flags().StringVar(&csvOut, "csv", "", "write the trace as CSV to this path")
	runCmd.Flags().StringVar(&jsonOut, "json", "", "write the trace as JSON to this path")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the cradle in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSetupFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", "steel", fmt.Sprintf("color theme %v", viz.ThemeNames()))

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "run the cradle in a window",
		Args:  cobra.NoArgs,
		RunE:  runGUI,
	}
	addSetupFlags(guiCmd)
	guiCmd.Flags().BoolVar(&noAudio, "no-audio", false, "disable collision sounds")

	plotCmd := &cobra.Command{
		Use:   "plot [trace.csv|-]",
		Short: "plot an exported trace",
		Args:  cobra.ExactArgs(1),
		RunE:  plotTrace,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [trace.csv|-]",
		Short: "frequency analysis of a ball's swing",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&body, "body", 0, "ball index, negative counts from the right")

	phaseCmd := &cobra.Command{
		Use:   "phase [trace.csv|-]",
		Short: "phase portrait of a ball's swing",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&body, "body", 0, "ball index, negative counts from the right")
	phaseCmd.Flags().StringVar(&svgOut, "svg", "", "also write the portrait as SVG")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [trace.csv|-]",
		Short: "convert a CSV trace to JSON on stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "render one frame as SVG",
		Args:  cobra.NoArgs,
		RunE:  snapshotFrame,
	}
	addSetupFlags(snapshotCmd)
	snapshotCmd.Flags().IntVar(&snapshot, "frame", 0, "frame to render")
	snapshotCmd.Flags().StringVar(&snapshotOut, "out", "cradle.svg", "output path")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "compare starting angles",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addSetupFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&sweepMin, "min", sim.MinStartingDegree, "smallest starting angle")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", sim.MaxStartingDegree, "largest starting angle")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 6, "number of angles")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file.yaml]",
		Short: "run a scripted scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark frame time per ball count",
		Args:  cobra.NoArgs,
		RunE:  benchCradle,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tBALLS\tDEGREE\tLEFT\tRIGHT\tDURATION")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%.0f\t%s\t%s\t%.0fs\n", name, p.Balls, p.StartingDegree,
					sideLabel(p.UseLeft, p.LeftCount), sideLabel(p.UseRight, p.RightCount), p.Duration)
			}
			return w.Flush()
		},
	}

	soundCmd := &cobra.Command{
		Use:   "sound",
		Short: "render the collision clicks of a run to WAV",
		Args:  cobra.NoArgs,
		RunE:  renderSound,
	}
	addSetupFlags(soundCmd)
	soundCmd.Flags().StringVar(&soundOut, "out", "clicks.wav", "output path")

	rootCmd.AddCommand(runCmd, liveCmd, guiCmd, plotCmd, analyzeCmd, phaseCmd, exportJSONCmd,
		snapshotCmd, sweepCmd, scenarioCmd, benchCmd, presetsCmd, soundCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSetupFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration in seconds")
	cmd.Flags().IntVar(&balls, "balls", config.DefaultBalls, "number of balls")
	cmd.Flags().Float64Var(&degree, "degree", config.DefaultStartingDegree, "starting angle in degrees")
	cmd.Flags().IntVar(&leftCount, "left", config.DefaultLeftCount, "balls raised on the left, 0 for none")
	cmd.Flags().IntVar(&rightCount, "right", 0, "balls raised on the right, 0 for none")
}

func sideLabel(use bool, n int) string {
	if !use || n == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", n)
}

// loadConfig layers the preset, the config file and explicitly set flags, in
// that order.
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
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("balls") {
		cfg.Balls = balls
	}
	if flags.Changed("degree") {
		cfg.StartingDegree = degree
	}
	if flags.Changed("left") {
		cfg.UseLeft, cfg.LeftCount = leftCount > 0, leftCount
	}
	if flags.Changed("right") {
		cfg.UseRight, cfg.RightCount = rightCount > 0, rightCount
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	c, err := sim.New(cfg.Settings())
	if err != nil {
		return err
	}
	rec := trace.NewRecorder()
	c.AddObserver(rec)

	runner := sim.NewRunner(c)
	for _, m := range automation.DefaultMetrics() {
		runner.AddMetric(m)
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %d balls at %.0f degrees for %d frames...\n", cfg.Balls, cfg.StartingDegree, cfg.Frames())
	start := time.Now()
	result, err := runner.Run(ctx, cfg.Frames(), cfg.Dt)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if err != nil {
		log.Printf("interrupted after %d frames", result.Frames)
	}
	fmt.Printf("completed in %v\n", time.Since(start))
	printResult(result)

	if csvOut != "" {
		if err := writeFile(csvOut, rec.WriteCSV); err != nil {
			return err
		}
	}
	if jsonOut != "" {
		err := writeFile(jsonOut, func(w io.Writer) error {
			return rec.WriteJSON(w, cfg.Dt, result)
		})
		if err != nil {
			return err
		}
	}

	if plot && rec.Len() > 1 {
		plotSamples(rec.Samples(), cfg.Dt)
	}
	return nil
}

func printResult(result *sim.Result) {
	fmt.Printf("frames: %d (%.2fs)\n", result.Frames, result.Time)
	fmt.Printf("max impact: %.6f\n", result.MaxImpact)
	fmt.Println("metrics:")
	for _, name := range []string{"energy", "energy_drift", "stability", "collisions", "transfer_frame"} {
		if v, ok := result.Metrics[name]; ok {
			fmt.Printf("  %s: %.6f\n", name, v)
		}
	}
	for _, err := range result.Errors {
		fmt.Printf("error: %v\n", err)
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	c, err := sim.New(cfg.Settings())
	if err != nil {
		return err
	}

	m := viz.NewModel(c, cfg.Dt).WithTheme(viz.GetTheme(theme))
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func runGUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	c, err := sim.New(cfg.Settings())
	if err != nil {
		return err
	}

	var proc *audio.Processor
	if cfg.Audio.Enabled && !noAudio {
		proc = audio.NewProcessor(cfg.Audio.Volume)
		if err := proc.Start(); err != nil {
			log.Printf("audio disabled: %v", err)
			proc = nil
		} else {
			defer proc.Stop()
		}
	}

	gui.Run(c, cfg.Dt, proc, log)
	return nil
}

func plotTrace(cmd *cobra.Command, args []string) error {
	samples, sdt, err := loadSamples(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("trace: %s\n", args[0])
	fmt.Printf("balls: %d\n", len(samples[0].Bodies))
	fmt.Printf("samples: %d\n\n", len(samples))
	plotSamples(samples, sdt)
	return nil
}

func plotSamples(samples []trace.Sample, dt float64) {
	energy := make([]float64, len(samples))
	for i, s := range samples {
		energy[i] = s.Energy
	}
	fmt.Println(asciigraph.Plot(downsample(energy, 80), asciigraph.Height(10), asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("total energy (J), %.2fs", float64(len(samples))*dt))))
	fmt.Println()

	n := len(samples[0].Bodies)
	first := downsample(degrees(trace.Series(samples, 0)), 80)
	last := downsample(degrees(trace.Series(samples, n-1)), 80)
	fmt.Println(asciigraph.PlotMany([][]float64{first, last}, asciigraph.Height(10), asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Yellow, asciigraph.Green),
		asciigraph.Caption(fmt.Sprintf("swing (deg): ball 0 yellow, ball %d green", n-1))))
}

func degrees(rad []float64) []float64 {
	out := make([]float64, len(rad))
	for i, v := range rad {
		out[i] = v * 180 / math.Pi
	}
	return out
}

// downsample keeps at most n evenly spaced points.
func downsample(data []float64, n int) []float64 {
	if len(data) <= n {
		return data
	}
	out := make([]float64, n)
	step := float64(len(data)-1) / float64(n-1)
	for i := range out {
		out[i] = data[int(float64(i)*step+0.5)]
	}
	return out
}

// loadSamples reads a CSV trace from a path, or from stdin for "-".
func loadSamples(arg string) ([]trace.Sample, float64, error) {
	var rd io.Reader = os.Stdin
	if arg != "-" {
		f, err := os.Open(arg)
		if err != nil {
			return nil, 0, err
		}
		defer f.Close()
		rd = f
	}
	samples, err := trace.ReadCSV(rd)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", arg, err)
	}
	return samples, sampleDt(samples), nil
}

func sampleDt(samples []trace.Sample) float64 {
	if len(samples) < 2 {
		return config.DefaultDt
	}
	return (samples[len(samples)-1].Time - samples[0].Time) / float64(len(samples)-1)
}

func bodyIndex(samples []trace.Sample) (int, error) {
	n := len(samples[0].Bodies)
	i := body
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("body %d out of range for %d balls", body, n)
	}
	return i, nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	samples, sdt, err := loadSamples(args[0])
	if err != nil {
		return err
	}
	idx, err := bodyIndex(samples)
	if err != nil {
		return err
	}
	swing := trace.Series(samples, idx)

	fmt.Printf("frequency analysis: %s, ball %d\n", args[0], idx)
	fmt.Printf("samples: %d, dt: %.4fs\n\n", len(swing), sdt)

	freq := analysis.DominantFrequency(swing, sdt)
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period (spectrum): %.3f s\n", 1.0/freq)
	}
	if p := analysis.Period(swing, sdt); p > 0 {
		fmt.Printf("period (crossings): %.3f s\n", p)
	}

	ps := analysis.PowerSpectrum(swing)
	if len(ps) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(downsample(ps[1:], 80), asciigraph.Height(8), asciigraph.Width(80),
			asciigraph.Caption("power spectrum")))
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	samples, sdt, err := loadSamples(args[0])
	if err != nil {
		return err
	}
	idx, err := bodyIndex(samples)
	if err != nil {
		return err
	}

	swing := trace.Series(samples, idx)
	portrait := analysis.NewPhasePortrait(swing, analysis.Derivative(swing, sdt))

	fmt.Printf("phase portrait: %s, ball %d\n", args[0], idx)
	fmt.Println("x: swing (rad), y: swing rate (rad/s)")
	fmt.Println()
	fmt.Print(analysis.PhasePortraitToASCII(portrait, 72, 24))

	if svgOut != "" {
		svg := export.TrajectoryToSVG(portrait.Points, 800, 600, "#00ccff")
		if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("\nwrote %s\n", svgOut)
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	samples, sdt, err := loadSamples(args[0])
	if err != nil {
		return err
	}

	data := trace.Export{
		Balls:   len(samples[0].Bodies),
		Dt:      sdt,
		Frames:  len(samples),
		Samples: samples,
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func snapshotFrame(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	c, err := sim.New(cfg.Settings())
	if err != nil {
		return err
	}

	if snapshot > 0 {
		ctx, cancel := signalContext()
		defer cancel()
		if _, err := sim.NewRunner(c).Run(ctx, snapshot, cfg.Dt); err != nil {
			return err
		}
	}

	canvas := viz.NewCanvas(80, 24)
	viz.DrawCradle(canvas, c.Settings(), c.Transforms())
	svg := export.CanvasToSVG(canvas, 4, string(viz.ThemeSteel.Balls))
	if err := os.WriteFile(snapshotOut, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote frame %d to %s\n", c.FrameIndex(), snapshotOut)
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("sweeping %d balls from %.0f to %.0f degrees (%.1fs each)\n\n", cfg.Balls, sweepMin, sweepMax, cfg.Duration)
	results, err := automation.RunSweep(ctx, &automation.DegreeSweep{
		Base:     cfg,
		MinAngle: sweepMin,
		MaxAngle: sweepMax,
		NumSteps: sweepSteps,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DEGREE\tTRANSFER\tCOLLISIONS\tDRIFT\tMAX_IMPACT\tERRORS")
	for _, r := range results {
		fmt.Fprintf(w, "%.1f\t%d\t%d\t%.4f\t%.6f\t%d\n", r.Degree, r.TransferFrame, r.Collisions, r.EnergyDrift, r.MaxImpact, r.Errors)
	}
	return w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("scenario: %s\n", sc.Name)
	if sc.Description != "" {
		fmt.Printf("%s\n", sc.Description)
	}
	results, err := automation.RunScenario(ctx, sc, log)
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Printf("\nstep %d", r.Step)
		if r.Trace != "" {
			fmt.Printf(" (trace %s)", r.Trace)
		}
		fmt.Println()
		printResult(r.Result)
	}
	return nil
}

func benchCradle(cmd *cobra.Command, args []string) error {
	const frames = 10000
	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("benchmarking %d frames per ball count\n\n", frames)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BALLS\tTOTAL\tPER_FRAME")
	for n := sim.MinBalls; n <= sim.MaxBalls; n++ {
		cfg := config.DefaultConfig()
		cfg.Balls = n
		c, err := sim.New(cfg.Settings())
		if err != nil {
			return err
		}

		start := time.Now()
		if _, err := sim.NewRunner(c).Run(ctx, frames, cfg.Dt); err != nil {
			return err
		}
		elapsed := time.Since(start)
		fmt.Fprintf(w, "%d\t%v\t%v\n", n, elapsed, elapsed/frames)
	}
	return w.Flush()
}

func renderSound(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	c, err := sim.New(cfg.Settings())
	if err != nil {
		return err
	}
	rec := audio.NewRecorder()
	c.AddObserver(rec)

	ctx, cancel := signalContext()
	defer cancel()

	result, err := sim.NewRunner(c).Run(ctx, cfg.Frames(), cfg.Dt)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	length := time.Duration(result.Time * float64(time.Second))
	track := audio.NewTrack(cfg.Audio.Volume, rec.Events(), length)

	f, err := os.Create(soundOut)
	if err != nil {
		return err
	}
	if err := audio.WriteWAV(f, track); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("wrote %d clicks over %.2fs to %s\n", len(rec.Events()), result.Time, soundOut)
	return nil
}
