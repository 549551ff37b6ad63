package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"dcmanon/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// newLogger returns the production JSON logger on stderr. Only warnings and
// errors are shown unless verbose, so the progress bar sharing stderr is not
// interleaved with routine messages.
func newLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}

func newRootCmd() *cobra.Command {
	return newCommand(newLogger)
}

// newCommand builds the command. Every flag can also be set through the
// environment as DCMANON_<FLAG>, e.g. DCMANON_WORKERS=4.
func newCommand(buildLogger func(verbose bool) (*zap.Logger, error)) *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "dcmanon <input> <output>",
		Short: "Remove patient-identifying information from DICOM files",
		Long: `dcmanon replaces patient, physician and institution fields with fixed
values and regenerates StudyInstanceUID and SeriesInstanceUID, keeping images
of the same study and series together.

` + cli.Usage,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected 2 arguments, got %d\n\nusage:\n%s", len(args), cli.Usage)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := buildLogger(v.GetBool("verbose"))
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			opts := cli.Options{
				Input:      args[0],
				Output:     args[1],
				Workers:    v.GetInt("workers"),
				DryRun:     v.GetBool("dry-run"),
				ErrorLog:   v.GetString("error-log"),
				NoProgress: v.GetBool("no-progress"),
			}
			return cli.Run(cmd.Context(), opts, logger, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.IntP("workers", "w", 1, "Files to process in parallel (directory mode)")
	flags.BoolP("verbose", "v", false, "Log every replaced element")
	flags.BoolP("dry-run", "n", false, "Anonymize in memory only, write nothing")
	flags.String("error-log", "", "Write skipped files to this log file")
	flags.Bool("no-progress", false, "Do not draw a progress bar")

	v.SetEnvPrefix("DCMANON")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(flags)

	return cmd
}
