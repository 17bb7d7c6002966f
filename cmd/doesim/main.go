package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/doesim/internal/config"
	"github.com/san-kum/doesim/internal/dynamo"
	"github.com/san-kum/doesim/internal/experiment"
	"github.com/san-kum/doesim/internal/export"
	"github.com/san-kum/doesim/internal/factorial"
	"github.com/san-kum/doesim/internal/metrics"
	"github.com/san-kum/doesim/internal/models"
	"github.com/san-kum/doesim/internal/storage"
	"github.com/san-kum/doesim/internal/viz"
)

var (
	verbose bool
	// Design and integration
	configFile string
	preset     string
	levels     int
	factors    int
	dt         float64
	seed       int64
	strict     bool
	// Workbook target
	workbook  string
	sheet     string
	cellRange string
	dryRun    bool
	// Trajectory
	placement string
	channels  string
	outFile   string
	csvFile   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "doesim",
		Short:         "full-factorial experiments on a pitch autopilot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "development logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the factorial design and write results to the workbook",
		Args:  cobra.NoArgs,
		RunE:  runExperiment,
	}
	addDesignFlags(runCmd)
	runCmd.Flags().StringVar(&workbook, "workbook", config.DefaultWorkbook, "workbook path")
	runCmd.Flags().StringVar(&sheet, "sheet", config.DefaultSheet, "target sheet")
	runCmd.Flags().StringVar(&cellRange, "range", config.DefaultRange, "target range")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "skip the workbook write")

	placementsCmd := &cobra.Command{
		Use:   "placements",
		Short: "list design placements in generation order",
		Args:  cobra.NoArgs,
		RunE:  listPlacements,
	}
	placementsCmd.Flags().IntVar(&levels, "levels", experiment.DefaultLevels, "levels per factor")
	placementsCmd.Flags().IntVar(&factors, "factors", experiment.DefaultFactors, "number of factors")

	trajectoryCmd := &cobra.Command{
		Use:   "trajectory",
		Short: "integrate one parameter set and plot it",
		Args:  cobra.NoArgs,
		RunE:  showTrajectory,
	}
	addDesignFlags(trajectoryCmd)
	trajectoryCmd.Flags().StringVar(&placement, "placement", "", "design point, e.g. 0,1,1,0 (default baseline)")
	trajectoryCmd.Flags().StringVar(&channels, "channels", "2,3", "state channels to plot")
	trajectoryCmd.Flags().StringVar(&outFile, "out", "", "save a figure (.png, .svg, .pdf)")
	trajectoryCmd.Flags().StringVar(&csvFile, "csv", "", "save the trajectory as csv")

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "create an empty workbook",
		Args:  cobra.MaximumNArgs(1),
		RunE:  initWorkbook,
	}
	initCmd.Flags().StringVar(&sheet, "sheet", config.DefaultSheet, "sheet name")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
		},
	}

	rootCmd.AddCommand(runCmd, placementsCmd, trajectoryCmd, initCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, viz.Warning.Render("error:"), err)
		os.Exit(1)
	}
}

func addDesignFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().IntVar(&levels, "levels", experiment.DefaultLevels, "levels per factor")
	cmd.Flags().IntVar(&factors, "factors", experiment.DefaultFactors, "number of factors")
	cmd.Flags().Float64Var(&dt, "dt", experiment.DefaultStep, "integration step")
	cmd.Flags().Int64Var(&seed, "seed", 0, "shuffle seed (0 uses the clock)")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on non-finite state")
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// loadConfig layers defaults, preset, config file and explicit flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("levels") {
		cfg.Levels = levels
	}
	if flags.Changed("factors") {
		cfg.Factors = factors
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("strict") {
		cfg.Strict = strict
	}
	if flags.Changed("workbook") {
		cfg.Workbook.Path = workbook
	}
	if flags.Changed("sheet") {
		cfg.Workbook.Sheet = sheet
	}
	if flags.Changed("range") {
		cfg.Workbook.Range = cellRange
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runExperiment(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// The workbook must exist before any run starts.
	var (
		wb  *storage.Workbook
		rng *storage.Range
	)
	if !dryRun {
		path, err := cfg.WorkbookPath()
		if err != nil {
			return err
		}
		wb, err = storage.Open(path)
		if err != nil {
			return err
		}
		defer wb.Close()

		rng, err = wb.Range(cfg.Workbook.Sheet, cfg.Workbook.Range)
		if err != nil {
			return err
		}
	}

	exp := experiment.New(cfg.Experiment(), experiment.WithLogger(log))
	batch, err := exp.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Println(viz.Title.Render(fmt.Sprintf("%d runs, %d levels x %d factors", len(batch.Items), cfg.Levels, cfg.Factors)))
	fmt.Println(viz.Metric("batch", batch.ID.String()))
	fmt.Println(viz.Metric("completed in", batch.Elapsed.String()))
	fmt.Println()

	if err := viz.WriteItems(os.Stdout, batch.Items, batch.Factors); err != nil {
		return err
	}

	if batch.Regression != nil {
		fmt.Println()
		fmt.Println(viz.HeaderStyle.Render("regression"))
		if err := viz.WriteRegression(os.Stdout, batch.Regression, cfg.Design); err != nil {
			return err
		}
	}

	if dryRun {
		fmt.Println()
		fmt.Println(viz.Subtle.Render("dry run: workbook not written"))
		return nil
	}

	if err := storage.WriteRows(rng, batch.Rows()); err != nil {
		return err
	}
	if err := wb.Save(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("wrote %d rows to %s (%s)\n", len(batch.Items), wb.Path(), rng)
	return nil
}

func listPlacements(cmd *cobra.Command, args []string) error {
	placements, err := factorial.Generate(levels, factors)
	if err != nil {
		return err
	}
	return viz.WritePlacements(os.Stdout, placements)
}

func showTrajectory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	params := cfg.Params
	label := "baseline"
	if placement != "" {
		p, err := parseInts(placement)
		if err != nil {
			return fmt.Errorf("invalid placement: %w", err)
		}
		params, err = experiment.New(cfg.Experiment()).Params(factorial.Placement(p))
		if err != nil {
			return err
		}
		label = "placement " + placement
	}

	plotChannels, err := parseInts(channels)
	if err != nil {
		return fmt.Errorf("invalid channels: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := models.Simulate(ctx, params,
		dynamo.Config{Dt: cfg.Dt, ValidateState: cfg.Strict},
		metrics.NewTrapezoidArea(cfg.Channel),
		metrics.NewSaturation(models.Elevator, params.DeltaMax),
		metrics.NewEffort(models.Elevator),
	)
	if err != nil {
		return err
	}
	log.Debug("trajectory complete",
		zap.String("label", label),
		zap.Int("points", res.Len()),
		zap.Float64("s", res.Metrics["area"]),
	)

	fmt.Println(viz.Title.Render(label))
	fmt.Println(viz.Metric("points", strconv.Itoa(res.Len())))
	for _, name := range []string{"area", "saturation", "effort"} {
		fmt.Println(viz.Metric(name, fmt.Sprintf("%.6f", res.Metrics[name])))
	}
	fmt.Println()

	if err := viz.WriteSummary(os.Stdout, viz.Summarize(res, models.ChannelNames)); err != nil {
		return err
	}
	fmt.Println()

	for _, graph := range viz.PlotChannels(res, plotChannels, models.ChannelNames) {
		fmt.Println(graph)
		fmt.Println()
	}

	if outFile != "" {
		if err := export.Plot(outFile, label, res, plotChannels, models.ChannelNames); err != nil {
			return err
		}
		fmt.Printf("saved figure to %s\n", outFile)
	}

	if csvFile != "" {
		f, err := os.Create(csvFile)
		if err != nil {
			return err
		}
		if err := export.WriteCSV(f, res, models.ChannelNames); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("saved trajectory to %s\n", csvFile)
	}

	return nil
}

func initWorkbook(cmd *cobra.Command, args []string) error {
	path := config.DefaultWorkbook
	if len(args) > 0 {
		path = args[0]
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	wb, err := storage.Create(path, sheet)
	if err != nil {
		return err
	}
	defer wb.Close()

	fmt.Printf("created %s with sheet %s\n", wb.Path(), sheet)
	return nil
}

func parseInts(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
