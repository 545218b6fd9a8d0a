package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/AxelElaldi/fast-equivariant-deconv/internal/config"
	"github.com/AxelElaldi/fast-equivariant-deconv/internal/rundir"
)

const defaultConfigPath = "configs/config.yml"

// overrideFlags collects repeated -override flags in order
type overrideFlags []string

func (o *overrideFlags) String() string {
	return strings.Join(*o, ",")
}

func (o *overrideFlags) Set(value string) error {
	*o = append(*o, value)
	return nil
}

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to the base configuration file")
	var overrides overrideFlags
	flag.Var(&overrides, "override", "Experiment override file merged onto the base config (repeatable)")
	checkOnly := flag.Bool("check", false, "Validate the configuration without preparing the run directory")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "text", "Log format (text, json)")
	flag.Parse()

	cfg, err := config.LoadFiles(*configPath, overrides...)
	if err != nil {
		reportLoadError(err)
		os.Exit(1)
	}

	logger := initLogger(*logLevel, *logFormat)
	logger.Info("Configuration loaded",
		slog.String("config_path", *configPath),
		slog.Int("overrides", len(overrides)),
		slog.String("expname", cfg.Training.Expname),
		slog.String("data_path", cfg.Data.DataPath),
		slog.Bool("has_validation", cfg.Data.HasValidation()),
		slog.String("loading_method", cfg.Data.LoadingMethod),
		slog.String("conv_name", cfg.Model.ConvName),
		slog.Int("n_side", cfg.Model.NSide),
		slog.Int("sh_degree", cfg.Model.SHDegree),
		slog.Int("depth", cfg.Model.Depth),
		slog.Int("sh_coefficients", cfg.Model.NumSHCoefficients()),
		slog.Int("grid_vertices", cfg.Model.NumVertices()),
		slog.Bool("wm", cfg.Model.Tissues.WM),
		slog.Bool("gm", cfg.Model.Tissues.GM),
		slog.Bool("csf", cfg.Model.Tissues.CSF),
		slog.Float64("lr", cfg.Training.LR),
		slog.Int("n_epoch", cfg.Training.NEpoch),
		slog.Int("batch_size", cfg.Training.BatchSize),
	)

	if *checkOnly {
		logger.Info("Configuration is valid")
		return
	}

	workspace := rundir.New(cfg)
	if err := workspace.Prepare(); err != nil {
		logger.Error("Failed to prepare run directory", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := workspace.WriteResolved(cfg); err != nil {
		logger.Error("Failed to write resolved config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	args := map[string]any{
		"config":    *configPath,
		"overrides": []string(overrides),
	}
	if err := workspace.WriteArgs(args); err != nil {
		logger.Error("Failed to write args record", slog.String("error", err.Error()))
		os.Exit(1)
	}

	epoch, checkpoint, err := workspace.LatestCheckpoint()
	if err != nil {
		logger.Error("Failed to scan checkpoints", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if epoch >= 0 {
		logger.Info("Existing run detected",
			slog.Int("last_epoch", epoch),
			slog.String("checkpoint", checkpoint),
		)
	}

	logger.Info("Run directory prepared",
		slog.String("root", workspace.Root),
		slog.String("resolved_config", workspace.ConfigPath()),
	)
}

// reportLoadError prints one line per violation so a broken document can be
// fixed in a single pass
func reportLoadError(err error) {
	var cerr *config.Error
	if errors.As(err, &cerr) {
		fmt.Fprintf(os.Stderr, "Invalid configuration (%d problem(s)):\n", len(cerr.Violations))
		for _, v := range cerr.Violations {
			fmt.Fprintf(os.Stderr, "  %s\n", v.Error())
		}
		return
	}
	fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
}

// initLogger creates the structured logger for the preflight output
func initLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
