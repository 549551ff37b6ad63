package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"dcmanon/internal/anonymizer"
	"dcmanon/internal/identity"
	"dcmanon/internal/progress"
)

// Options holds CLI configuration options
type Options struct {
	Input      string
	Output     string
	Workers    int
	DryRun     bool
	ErrorLog   string
	NoProgress bool
}

// Usage describes the two invocation forms.
const Usage = `to anonymize a file:
    dcmanon path/to/input_dicom_file path/to/output_dicom_file
to anonymize all DICOM files in a folder recursively:
    dcmanon input_dir output_dir`

// Run executes one anonymization run. Input/output conflicts are detected
// before anything is read. In file mode every failure is returned; in tree
// mode files that are not DICOM or cannot be scrubbed are reported and
// skipped, and only I/O failures end the run early.
func Run(ctx context.Context, opts Options, logger *zap.Logger, out io.Writer) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	mode, err := anonymizer.Plan(opts.Input, opts.Output)
	if err != nil {
		return err
	}

	engine, err := anonymizer.NewEngine(anonymizer.DefaultRules(), logger)
	if err != nil {
		return fmt.Errorf("invalid rule table: %w", err)
	}
	sess := identity.NewSession()

	printHeader(out, opts, mode)

	if mode == anonymizer.ModeFile {
		return runFile(engine, sess, opts, out)
	}
	return runTree(ctx, engine, sess, opts, logger, out)
}

func runFile(engine *anonymizer.Engine, sess *identity.Session, opts Options, out io.Writer) error {
	err := anonymizer.ProcessFile(engine, sess, opts.Input, opts.Output, opts.DryRun)
	if anonymizer.KindOf(err) == anonymizer.KindNotADicomFile {
		return fmt.Errorf("%s is not a valid DICOM file: %w", opts.Input, err)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 50))
	if opts.DryRun {
		fmt.Fprintf(out, "Complete! %s would be anonymized\n", opts.Input)
		return nil
	}
	fmt.Fprintf(out, "Complete! Output: %s\n", opts.Output)
	return nil
}

func runTree(ctx context.Context, engine *anonymizer.Engine, sess *identity.Session,
	opts Options, logger *zap.Logger, out io.Writer) error {
	errorLogger, err := progress.NewErrorLogger(opts.ErrorLog)
	if err != nil {
		return fmt.Errorf("could not create error logger: %w", err)
	}
	defer errorLogger.Close()

	cfg := anonymizer.Config{
		InputFolder:  opts.Input,
		OutputFolder: opts.Output,
		Workers:      opts.Workers,
		DryRun:       opts.DryRun,
		Logger:       logger,
		ErrorLogger:  errorLogger,
	}

	var pb *progress.Bar
	if !opts.NoProgress {
		pb = progress.NewBar(os.Stderr)
		cfg.OnProgress = pb.Update
	}

	stats, err := anonymizer.ProcessTree(ctx, engine, sess, cfg)
	if pb != nil {
		pb.Finish()
	}
	if err != nil {
		return fmt.Errorf("processing failed: %w", err)
	}

	printSummary(out, stats, errorLogger, opts)
	return nil
}

// printHeader prints the CLI header with configuration
func printHeader(out io.Writer, opts Options, mode anonymizer.Mode) {
	fmt.Fprintln(out, "DICOM Anonymizer")
	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintf(out, "Input:     %s\n", opts.Input)
	fmt.Fprintf(out, "Output:    %s\n", opts.Output)
	fmt.Fprintf(out, "Mode:      %s\n", mode)

	var options []string
	if mode == anonymizer.ModeTree && opts.Workers > 1 {
		options = append(options, fmt.Sprintf("%d workers", opts.Workers))
	}
	if opts.DryRun {
		options = append(options, "Dry run")
	}
	if opts.ErrorLog != "" {
		options = append(options, "Error log "+opts.ErrorLog)
	}
	if len(options) > 0 {
		fmt.Fprintf(out, "Options:   %s\n", strings.Join(options, ", "))
	}
}

// printSummary prints the processing summary
func printSummary(out io.Writer, stats *anonymizer.Stats, errorLogger *progress.ErrorLogger, opts Options) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintf(out, "Complete! %d succeeded, %d failed, %d total\n",
		stats.Success, stats.Failed, stats.Total)
	fmt.Fprintf(out, "Identity:  %d studies, %d series remapped\n", stats.Studies, stats.Series)
	for _, e := range errorLogger.Entries() {
		fmt.Fprintf(out, "  Skipped: %s\n", e.Error)
	}
	fmt.Fprintf(out, "  %s\n", errorLogger.Summary())
	if !opts.DryRun {
		fmt.Fprintf(out, "Output:    %s\n", opts.Output)
	}
}
