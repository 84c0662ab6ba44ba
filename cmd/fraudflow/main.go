// Command fraudflow trains the Ethereum fraud detection model.
//
// Usage:
//
//	fraudflow run -config configs/pipeline.yaml
//	fraudflow validate -config configs/pipeline.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YuminosukeSato/fraudflow/internal/config"
	"github.com/YuminosukeSato/fraudflow/internal/telemetry"
	"github.com/YuminosukeSato/fraudflow/pipeline"
	"github.com/YuminosukeSato/fraudflow/pkg/log"
	"github.com/YuminosukeSato/fraudflow/report"
	"github.com/YuminosukeSato/fraudflow/steps"
	"gopkg.in/yaml.v3"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := runWithArgs(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func runWithArgs(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return exitUsage
	}
	switch args[0] {
	case "run":
		return runCmd(ctx, args[1:], stdout, stderr)
	case "validate":
		return validateCmd(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		usage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "error: unknown command %q\n", args[0])
		usage(stderr)
		return exitUsage
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: fraudflow <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run       run the training pipeline")
	fmt.Fprintln(w, "  validate  print the resolved configuration and check it")
}

type commonFlags struct {
	config string
}

func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	cf := &commonFlags{}
	fs.StringVar(&cf.config, "config", "configs/pipeline.yaml", "path to the pipeline YAML file")
	return fs, cf
}

func loadConfig(path string, stderr io.Writer) (config.Config, bool) {
	cfg, err := config.Load(path)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: config: %v\n", err)
		return cfg, false
	}
	return cfg, true
}

func validateCmd(args []string, stdout, stderr io.Writer) int {
	fs, cf := newFlagSet("validate", stderr)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	cfg, ok := loadConfig(cf.config, stderr)
	if !ok {
		return exitFail
	}
	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFail
	}
	if err := enc.Close(); err != nil {
		return exitFail
	}
	return exitOK
}

func runCmd(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs, cf := newFlagSet("run", stderr)
	outputDir := fs.String("output", "", "override output.dir")
	logLevel := fs.String("log-level", "", "override log.level")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	cfg, ok := loadConfig(cf.config, stderr)
	if !ok {
		return exitFail
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	if err := log.SetupLogger(stderr, cfg.Log.Level); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	log.EnableZerologWarnings(stderr)
	defer log.DisableZerologWarnings()
	logger := log.GetLoggerWithName("cmd")

	metrics := telemetry.New()
	if cfg.Output.MetricsAddr != "" {
		if err := metrics.Serve(ctx, cfg.Output.MetricsAddr); err != nil {
			logger.Error("Metrics endpoint unavailable", err)
			return exitFail
		}
	}

	stepList, err := steps.FromConfig(cfg)
	if err != nil {
		logger.Error("Pipeline setup failed", err)
		return exitFail
	}
	p := pipeline.New(cfg.Name, stepList, pipeline.WithRecorder(metrics))
	res, runErr := p.Run(ctx, &pipeline.Artifacts{Target: cfg.Target})

	code := exitOK
	if runErr != nil {
		logger.Error("Pipeline failed", runErr)
		code = exitFail
	}
	if res.Artifacts.Evaluation != nil {
		e := res.Artifacts.Evaluation
		metrics.SetScores(map[string]float64{
			"accuracy":  e.Accuracy,
			"precision": e.Precision,
			"recall":    e.Recall,
			"f1":        e.F1,
			"auc":       e.AUC,
			"log_loss":  e.LogLoss,
		})
	}

	paths, err := report.Write(cfg.Output.Dir, cfg.Name, res, report.Options{Plots: cfg.Output.Plots && runErr == nil})
	if err != nil {
		logger.Error("Report failed", err)
		code = exitFail
	}
	if cfg.Output.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.Output.MetricsFile); err != nil {
			logger.Error("Metrics export failed", err)
			code = exitFail
		}
	}

	for _, path := range paths {
		fmt.Fprintln(stdout, path)
	}
	if e := res.Artifacts.Evaluation; e != nil {
		fmt.Fprintf(stdout, "accuracy=%.4f auc=%.4f f1=%.4f log_loss=%.4f (%s)\n",
			e.Accuracy, e.AUC, e.F1, e.LogLoss, totalDuration(res.Steps))
	}
	return code
}

func totalDuration(results []pipeline.StepResult) time.Duration {
	var d time.Duration
	for _, r := range results {
		d += r.Duration
	}
	return d.Round(time.Millisecond)
}
