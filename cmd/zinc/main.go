package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"zinc-compiler/internal/pkg/config"
	"zinc-compiler/internal/pkg/loader"
	"zinc-compiler/internal/pkg/thir"
	"zinc-compiler/internal/pkg/transform"
)

var (
	rootCmd = &cobra.Command{
		Use:           "zinc",
		Short:         "Lower typed constraint models into solver-ready form",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	configPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultFileName, "path to the configuration file")

	lowerCmd.Flags().String("until", "", "last stage to run ("+strings.Join(transform.StageNames(), ", ")+")")
	lowerCmd.Flags().Bool("decapture", true, "pass captured top-level declarations as parameters")
	lowerCmd.Flags().CountP("verbose", "v", "log verbosity, repeat for more detail")
	lowerCmd.Flags().String("output", config.OutputPretty, "what to print: pretty or summary")
	lowerCmd.Flags().Bool("builtins", false, "also print bodyless builtin declarations")

	rootCmd.AddCommand(lowerCmd)
	rootCmd.AddCommand(passesCmd)
}

// settings reads the configuration file and applies the flags given on the
// command line on top of it.
func settings(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("until") {
		cfg.Until, _ = flags.GetString("until")
	}
	if flags.Changed("decapture") {
		cfg.Decapture, _ = flags.GetBool("decapture")
	}
	if flags.Changed("verbose") {
		cfg.Verbosity, _ = flags.GetCount("verbose")
	}
	if flags.Changed("output") {
		cfg.Output, _ = flags.GetString("output")
	}
	if flags.Changed("builtins") {
		cfg.Builtins, _ = flags.GetBool("builtins")
	}
	return cfg, cfg.Validate()
}

// newLogger writes human readable logs to stderr. logr verbosity n maps to
// zap level -n.
func newLogger(verbosity int) (logr.Logger, func()) {
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.Level(-verbosity))
	zc.DisableStacktrace = true
	zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	zl, err := zc.Build()
	if err != nil {
		return logr.Discard(), func() {}
	}
	return zapr.NewLogger(zl), func() { _ = zl.Sync() }
}

var lowerCmd = &cobra.Command{
	Use:   "lower [files...]",
	Short: "Run the lowering pipeline on model files and print the result",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := settings(cmd)
		if err != nil {
			return err
		}
		log, sync := newLogger(cfg.Verbosity)
		defer sync()

		results, err := lowerAll(cmd.Context(), log, cfg, args)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for i, result := range results {
			if len(results) > 1 {
				fmt.Fprintf(out, "%% %s (%s)\n", args[i], result.Stage())
			}
			switch cfg.Output {
			case config.OutputSummary:
				fmt.Fprint(out, result.Summary())
			default:
				fmt.Fprint(out, result.Pretty(cfg.Builtins))
			}
		}
		return nil
	},
}

// lowerAll lowers every file concurrently. Results are returned in the order
// of paths; the first failure cancels the files not started yet.
func lowerAll(ctx context.Context, log logr.Logger, cfg *config.Config, paths []string) ([]transform.Output, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]transform.Output, len(paths))
	group, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := lowerFile(log.WithValues("file", path), cfg, path)
			if err != nil {
				return errors.Wrapf(err, "lowering %s", path)
			}
			results[i] = out
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func lowerFile(log logr.Logger, cfg *config.Config, path string) (transform.Output, error) {
	registry := thir.NewIdentifierRegistry()
	m, err := loader.New(registry, log.WithName("loader")).LoadFile(path)
	if err != nil {
		return nil, err
	}
	pipeline, err := transform.NewPipeline(registry, log.WithName("pipeline")).Until(cfg.Until)
	if err != nil {
		return nil, err
	}
	return pipeline.WithDecapture(cfg.Decapture).Run(m)
}

var passesCmd = &cobra.Command{
	Use:   "passes",
	Short: "List the stages of the lowering pipeline in order",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		for i, stage := range transform.Stages {
			fmt.Fprintf(out, "%d. %-11s %s\n", i+1, stage.Name, stage.Description)
		}
	},
}
