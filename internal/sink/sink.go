package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nao1215/docmask/internal/document"
)

// ErrOutputExists is returned when an output is already present and
// overwriting was not enabled.
var ErrOutputExists = errors.New("masked output already exists")

// OutputSink receives the final text of one document.
type OutputSink interface {
	Write(ctx context.Context, documentID, finalText string) error
}

// FileSink writes masked output files to the local filesystem.
type FileSink struct {
	dir       string
	overwrite bool
	logger    *slog.Logger
}

// FileOption configures a FileSink.
type FileOption func(*FileSink)

// WithFileLogger sets the logger.
func WithFileLogger(logger *slog.Logger) FileOption {
	return func(s *FileSink) {
		s.logger = logger
	}
}

// WithFileOverwrite allows replacing existing output files.
func WithFileOverwrite(overwrite bool) FileOption {
	return func(s *FileSink) {
		s.overwrite = overwrite
	}
}

// NewFileSink creates a FileSink writing into dir.
// An empty dir writes each output next to its source document.
func NewFileSink(dir string, opts ...FileOption) *FileSink {
	s := &FileSink{
		dir:    dir,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns where the output for documentID is written.
func (s *FileSink) Path(documentID string) string {
	dir := s.dir
	if dir == "" {
		dir = filepath.Dir(documentID)
	}
	return filepath.Join(dir, document.OutputName(documentID))
}

// Write implements OutputSink.
// The file is written to a temporary name and renamed so a reader never
// sees a partial output.
func (s *FileSink) Write(ctx context.Context, documentID, finalText string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.Path(documentID)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if !s.overwrite {
		if _, err := os.Lstat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrOutputExists, path)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".docmask-*")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if _, err := tmp.WriteString(finalText); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write output file: %w", err)
	}

	s.logger.Debug("output written", "document", documentID, "path", path)
	return nil
}

// multiSink writes to several sinks in order.
type multiSink []OutputSink

// Multi returns a sink that writes to every sink in order.
// All sinks are attempted; their errors are joined.
func Multi(sinks ...OutputSink) OutputSink {
	if len(sinks) == 1 {
		return sinks[0]
	}
	return multiSink(sinks)
}

func (m multiSink) Write(ctx context.Context, documentID, finalText string) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, documentID, finalText); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
