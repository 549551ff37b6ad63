package anonymizer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	dcm "dcmanon/internal/dicom"
	"dcmanon/internal/identity"
	"dcmanon/internal/progress"
)

// Mode is the kind of run implied by the input path.
type Mode int

const (
	ModeFile Mode = iota + 1 // one input file to one output file
	ModeTree                 // input directory mirrored into an output directory
)

func (m Mode) String() string {
	switch m {
	case ModeFile:
		return "file"
	case ModeTree:
		return "tree"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Plan decides the run mode and rejects input/output combinations that
// cannot work. It touches nothing on disk, so a conflict is reported before
// any file is read or any UID is assigned.
func Plan(input, output string) (Mode, error) {
	in, err := os.Stat(input)
	if err != nil {
		return 0, &Error{Kind: KindIO, Path: input, Err: err}
	}

	out, err := os.Stat(output)
	outExists := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, &Error{Kind: KindIO, Path: output, Err: err}
	}

	if !in.IsDir() {
		if outExists && out.IsDir() {
			return 0, &Error{Kind: KindOutputPathConflict, Path: output,
				Err: fmt.Errorf("%s is a file, but %s is a directory", input, output)}
		}
		return ModeFile, nil
	}

	if outExists {
		if !out.IsDir() {
			return 0, &Error{Kind: KindOutputPathConflict, Path: output,
				Err: fmt.Errorf("%s is a directory, but %s is a file", input, output)}
		}
		if os.SameFile(in, out) {
			return 0, &Error{Kind: KindOutputPathConflict, Path: output,
				Err: fmt.Errorf("output directory is the input directory")}
		}
	}
	return ModeTree, nil
}

// ProcessFile reads in, anonymizes it and writes the result to out. Nothing
// is written unless anonymization succeeds; with dryRun nothing is written
// at all.
func ProcessFile(e *Engine, sess *identity.Session, in, out string, dryRun bool) error {
	ds, err := dcm.ReadDicom(in)
	if err != nil {
		return classify(in, err)
	}

	if err := e.Anonymize(sess, ds); err != nil {
		return classify(in, err)
	}

	if dryRun {
		return nil
	}

	if err := ds.Save(out); err != nil {
		return &Error{Kind: KindIO, Path: out, Err: err}
	}
	return nil
}

// Progress statuses passed to a ProgressCallback.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// ProgressCallback is called once per finished file.
type ProgressCallback func(current, total int, filename, status string)

// Config holds the tree anonymization configuration
type Config struct {
	InputFolder  string
	OutputFolder string
	Workers      int
	DryRun       bool
	Logger       *zap.Logger
	ErrorLogger  *progress.ErrorLogger
	OnProgress   ProgressCallback
}

// Stats holds processing statistics
type Stats struct {
	Total   int
	Success int
	Failed  int
	Studies int
	Series  int
}

// ProcessTree anonymizes every file below cfg.InputFolder into the mirrored
// location below cfg.OutputFolder. All output directories are created before
// any file is written. Files that are not DICOM, or whose values cannot be
// replaced, are reported and skipped; any other error aborts the run.
//
// Workers share sess, so files of one study or series get the same UIDs
// whatever order they finish in.
func ProcessTree(ctx context.Context, e *Engine, sess *identity.Session, cfg Config) (*Stats, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	tree, err := dcm.FindFiles(cfg.InputFolder, cfg.OutputFolder)
	if err != nil {
		return nil, &Error{Kind: KindIO, Path: cfg.InputFolder, Err: err}
	}

	if !cfg.DryRun {
		if err := mirrorDirs(cfg.OutputFolder, tree.Dirs); err != nil {
			return nil, err
		}
	}

	stats := &Stats{Total: len(tree.Files)}
	logger.Info("found files",
		zap.String("input", cfg.InputFolder),
		zap.Int("files", len(tree.Files)),
		zap.Int("dirs", len(tree.Dirs)))

	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, rel := range tree.Files {
		if gctx.Err() != nil {
			break
		}

		in := filepath.Join(cfg.InputFolder, rel)
		out := filepath.Join(cfg.OutputFolder, rel)

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			processErr := ProcessFile(e, sess, in, out, cfg.DryRun)

			mu.Lock()
			defer mu.Unlock()
			done++

			status := StatusSuccess
			switch {
			case processErr == nil:
				stats.Success++
			case KindOf(processErr).Skippable():
				status = StatusFailed
				stats.Failed++
				logger.Warn("skipping file",
					zap.String("file", in),
					zap.Stringer("kind", KindOf(processErr)),
					zap.Error(processErr))
				cfg.ErrorLogger.Log(in, processErr.Error())
			default:
				return processErr
			}

			if cfg.OnProgress != nil {
				cfg.OnProgress(done, stats.Total, filepath.Base(in), status)
			}
			return nil
		})
	}

	waitErr := g.Wait()

	ids := sess.GetStats()
	stats.Studies = ids.Studies
	stats.Series = ids.Series

	if waitErr != nil {
		return stats, waitErr
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	return stats, nil
}

// mirrorDirs creates root and every relative directory below it.
func mirrorDirs(root string, dirs []string) error {
	if err := os.MkdirAll(root, 0755); err != nil {
		return &Error{Kind: KindIO, Path: root, Err: err}
	}
	for _, dir := range dirs {
		path := filepath.Join(root, dir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return &Error{Kind: KindIO, Path: path, Err: err}
		}
	}
	return nil
}
