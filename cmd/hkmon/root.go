package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hkmon/hkmon/internal/collector"
	"github.com/hkmon/hkmon/internal/config"
	"github.com/hkmon/hkmon/internal/models"
	"github.com/hkmon/hkmon/internal/render"
	"github.com/hkmon/hkmon/internal/sampler"
	"github.com/hkmon/hkmon/internal/state"
)

// version is set at build time via -ldflags.
var version = "dev"

// usageError marks errors caused by how the tool was invoked rather than by
// a runtime failure; main maps it to exit code 1.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usageErrorf(format string, args ...interface{}) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// selection is the set of metric sources the user asked for.
type selection struct {
	cpu       bool
	memory    bool
	diskSpace bool
	diskIO    bool
	network   bool
	temp      bool

	// networkInterface restricts NET to one interface (empty = all).
	networkInterface string
}

func (s selection) none() bool {
	return !s.cpu && !s.memory && !s.diskSpace && !s.diskIO && !s.network && !s.temp
}

type flags struct {
	format     string
	continuous bool
	interval   float64
	singleLine bool
	netUnits   string
	iface      string
	configPath string
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "hkmon [METRICS...] [INTERFACE]",
		Short: "Sample hardware counters and report instantaneous and rate-based metrics",
		Long: `hkmon samples hardware counters exposed by the host OS and reports
instantaneous and rate-based metrics, as a single shot or continuously.

Metrics (case-insensitive):
  CPU    CPU usage and frequency
  RAM    Memory (physical and swap)
  DISK   Disk space (capacity, used, free)
  IO     Disk I/O (read/write rates, busy %)
  NET    Network traffic
  TEMP   Temperature sensors
  LINE   Shorthand for --line

Rates (network and disk I/O) are derived from cumulative counters. Between
single-shot invocations the previous counters are carried in a per-user state
file, so the first run reports rates of 0 and later runs report the average
rate since the previous run.`,
		Example: `  hkmon CPU RAM                 # single sample of CPU and memory
  hkmon NET Ethernet            # network stats for one interface
  hkmon CPU RAM -c -i 5         # continuous monitoring, 5 second interval
  hkmon CPU TEMP --format json  # JSON output
  hkmon CPU RAM LINE            # single-line output for status bars`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f, args)
		},
	}

	cmd.Flags().StringVarP(&f.format, "format", "f", "", "Output format: text, json, csv")
	cmd.Flags().BoolVarP(&f.continuous, "continuous", "c", false, "Continuous monitoring until interrupted")
	cmd.Flags().Float64VarP(&f.interval, "interval", "i", 0, "Update interval in seconds (0.1-3600)")
	cmd.Flags().BoolVarP(&f.singleLine, "line", "l", false, "Single-line compact output")
	cmd.Flags().StringVar(&f.netUnits, "net-units", "", "Network units: bits or bytes")
	cmd.Flags().StringVar(&f.iface, "interface", "", "Specific network interface")
	cmd.Flags().StringVar(&f.configPath, "config", "", "Path to configuration file")

	return cmd
}

// parseSelection interprets positional arguments: metric keywords, the LINE
// shorthand, and at most one free-form interface name.
func parseSelection(args []string, f *flags) (selection, error) {
	sel := selection{networkInterface: f.iface}
	for _, arg := range args {
		switch strings.ToUpper(arg) {
		case "CPU":
			sel.cpu = true
		case "RAM":
			sel.memory = true
		case "DISK":
			sel.diskSpace = true
		case "IO":
			sel.diskIO = true
		case "NET":
			sel.network = true
		case "TEMP":
			sel.temp = true
		case "LINE":
			f.singleLine = true
		default:
			if sel.networkInterface != "" && sel.networkInterface != arg {
				return sel, usageErrorf("unknown metric or duplicate interface: %q", arg)
			}
			sel.networkInterface = arg
		}
	}
	if sel.none() {
		return sel, usageErrorf("no metrics specified")
	}
	if sel.networkInterface != "" && !sel.network {
		return sel, usageErrorf("interface %q given without the NET metric", sel.networkInterface)
	}
	return sel, nil
}

func run(cmd *cobra.Command, f *flags, args []string) error {
	sel, err := parseSelection(args, f)
	if err != nil {
		return err
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return &usageError{msg: err.Error()}
	}
	applyFlagOverrides(cfg, f, cmd)
	if err := cfg.Validate(); err != nil {
		return &usageError{msg: err.Error()}
	}

	logger := initLogger(cfg)
	defer logger.Sync()

	opts := render.Options{
		Format:        render.Format(cfg.Output.Format),
		SingleLine:    f.singleLine,
		NetUnits:      render.NetUnit(cfg.Output.NetUnits),
		ShowDiskSpace: sel.diskSpace,
		ShowDiskIO:    sel.diskIO,
	}

	smp, err := newSampler(sel, cfg, logger)
	if err != nil {
		logger.Error("Sampler setup failed", zap.Error(err))
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := smp.Init(ctx); err != nil {
		logger.Error("Source initialization failed", zap.Error(err))
		return err
	}
	defer smp.Close()

	if f.continuous {
		return runContinuous(ctx, smp, cfg.Sampling.Interval.Duration, opts, logger)
	}
	return runSingleShot(ctx, smp, opts, logger)
}

// newSampler wires the requested collectors, in a stable report order, into
// a sampler backed by the configured state file.
func newSampler(sel selection, cfg *config.Config, logger *zap.Logger) (*sampler.Sampler, error) {
	var collectors []collector.Collector
	if sel.cpu {
		collectors = append(collectors, collector.NewCPUCollector())
	}
	if sel.memory {
		collectors = append(collectors, collector.NewMemoryCollector())
	}
	if sel.diskSpace || sel.diskIO {
		collectors = append(collectors, collector.NewDiskCollector(logger))
	}
	if sel.network {
		iface := sel.networkInterface
		if iface == "" {
			iface = cfg.Sampling.Interface
		}
		collectors = append(collectors, collector.NewNetworkCollector(iface, logger))
	}
	if sel.temp {
		collectors = append(collectors, collector.NewTemperatureCollector(logger))
	}

	store := state.New(cfg.State.AppName, logger)
	return sampler.New(store, logger, collectors...)
}

func runSingleShot(ctx context.Context, smp *sampler.Sampler, opts render.Options, logger *zap.Logger) error {
	snap, err := smp.Collect(ctx)
	if err != nil {
		logger.Error("Sampling failed", zap.Error(err))
		return err
	}
	if snap.Empty() {
		return errors.New("no metrics could be collected")
	}
	return printSnapshot(snap, opts, true)
}

func runContinuous(ctx context.Context, smp *sampler.Sampler, interval time.Duration, opts render.Options, logger *zap.Logger) error {
	logger.Info("Continuous monitoring started",
		zap.Duration("interval", interval),
		zap.String("format", string(opts.Format)))

	first := true
	var renderErr error
	err := smp.Run(ctx, interval, func(snap *models.Snapshot) {
		if renderErr != nil {
			return
		}
		renderErr = printSnapshot(snap, opts, first)
		first = false
	})
	if err != nil {
		logger.Error("Sampling failed", zap.Error(err))
		return err
	}
	return renderErr
}

func printSnapshot(snap *models.Snapshot, opts render.Options, includeHeader bool) error {
	out, err := render.Render(snap, opts, includeHeader)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

// applyFlagOverrides layers explicit CLI flags on top of the loaded config.
func applyFlagOverrides(cfg *config.Config, f *flags, cmd *cobra.Command) {
	if f.format != "" {
		cfg.Output.Format = f.format
	}
	if f.netUnits != "" {
		cfg.Output.NetUnits = f.netUnits
	}
	if cmd.Flags().Changed("interval") {
		cfg.Sampling.Interval = config.Duration{
			Duration: time.Duration(f.interval * float64(time.Second)),
		}
	}
}

// initLogger creates a zap logger for diagnostics. Logs go to stderr so the
// metric report on stdout stays parseable; an optional JSON file sink can be
// configured.
func initLogger(cfg *config.Config) *zap.Logger {
	var level zapcore.Level
	switch cfg.Logging.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stderr),
		level,
	)

	cores := []zapcore.Core{consoleCore}

	if cfg.Logging.File != "" {
		file, err := os.OpenFile(cfg.Logging.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
		if err == nil {
			cores = append(cores, zapcore.NewCore(
				zapcore.NewJSONEncoder(encoderConfig),
				zapcore.AddSync(file),
				level,
			))
		}
	}

	return zap.New(zapcore.NewTee(cores...))
}
