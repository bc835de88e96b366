package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/docmask/internal/config"
	"github.com/nao1215/docmask/internal/database"
	"github.com/nao1215/docmask/internal/document"
	"github.com/nao1215/docmask/internal/masking"
	"github.com/nao1215/docmask/internal/model"
	"github.com/nao1215/docmask/internal/pipeline"
	"github.com/nao1215/docmask/internal/report"
	"github.com/nao1215/docmask/internal/sink"
)

// NewMaskCmd creates the mask command.
func NewMaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mask [document|directory]...",
		Short: "Mask documents through the masking service",
		Long: `Mask reads each document, masks it chunk by chunk through the masking
service and writes <name>.<ext>_masked_output.txt. An existing output is not
replaced unless --overwrite is given.

Directories are expanded to the .docx, .html, .htm, .txt, .text and .md files
they contain (not recursive). Documents are processed one after another.

After a document is written, its source is moved to --archive-dir, or deleted
when no archive directory is set. Use --keep-source to leave sources alone.

Examples:
  # Mask every supported document in a directory
  docmask mask ./inbox

  # Mask one file and keep it
  docmask mask --keep-source contract.docx

  # Smaller chunks, more parallelism, Markdown report to a file
  docmask mask -w 200 -n 8 --markdown -o report.md ./inbox`,
		Args: cobra.ArbitraryArgs,
		RunE: runMaskCmd,
	}

	serviceFlags(cmd)

	cmd.Flags().IntP("word-limit", "w", config.DefaultWordLimit, "Maximum words per chunk")
	cmd.Flags().IntP("concurrency", "n", config.DefaultMaxConcurrency, "Concurrent requests to the masking service")
	cmd.Flags().Duration("poll-interval", config.DefaultPollInterval, "Initial delay between poll rounds")
	cmd.Flags().Float64("poll-backoff", config.DefaultPollBackoff, "Growth factor of the poll delay per round")
	cmd.Flags().Duration("max-poll-interval", config.DefaultMaxPollInterval, "Upper bound of the poll delay")
	cmd.Flags().DurationP("timeout", "t", config.DefaultGlobalTimeout, "Polling deadline per document")
	cmd.Flags().Duration("max-wait", 0, "Maximum time one chunk may stay pending (default: --timeout)")

	cmd.Flags().StringP("output-dir", "d", "", "Directory for masked output (default: next to each document)")
	cmd.Flags().String("archive-dir", "", "Move processed sources here instead of deleting them")
	cmd.Flags().BoolP("keep-source", "k", false, "Leave processed sources in place")
	cmd.Flags().Bool("overwrite", false, "Replace masked outputs left by an earlier run")
	cmd.Flags().Bool("no-db", false, "Do not record jobs in the audit database")
	cmd.Flags().Bool("skip-validate", false, "Skip the masking service check before processing")

	cmd.Flags().BoolP("json", "j", false, "Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false, "Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "", "Write report to specified file path (creates directories if needed)")

	return cmd
}

// runMaskCmd executes the mask command.
func runMaskCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildMaskConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := newMaskingClient(cfg, logger)
	if err != nil {
		return err
	}

	skipValidate, err := cmd.Flags().GetBool("skip-validate")
	if err != nil {
		return err
	}
	if !skipValidate {
		if err := client.Validate(ctx); err != nil {
			return fmt.Errorf("masking service check failed: %w", err)
		}
	}

	return runMask(ctx, cfg, client, cmd.OutOrStdout(), logger)
}

// buildMaskConfig creates a Config from the file, environment and flags.
func buildMaskConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := loadConfig(cmd, lookupEnv)
	if err != nil {
		return nil, err
	}
	if err := applyServiceFlags(cmd, cfg); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	var errs []error
	if flags.Changed("word-limit") {
		cfg.WordLimit, err = flags.GetInt("word-limit")
		errs = append(errs, err)
	}
	if flags.Changed("concurrency") {
		cfg.MaxConcurrency, err = flags.GetInt("concurrency")
		errs = append(errs, err)
	}
	if flags.Changed("poll-interval") {
		cfg.PollInterval, err = flags.GetDuration("poll-interval")
		errs = append(errs, err)
	}
	if flags.Changed("poll-backoff") {
		cfg.PollBackoff, err = flags.GetFloat64("poll-backoff")
		errs = append(errs, err)
	}
	if flags.Changed("max-poll-interval") {
		cfg.MaxPollInterval, err = flags.GetDuration("max-poll-interval")
		errs = append(errs, err)
	}
	if flags.Changed("timeout") {
		cfg.GlobalTimeout, err = flags.GetDuration("timeout")
		errs = append(errs, err)
	}
	if flags.Changed("max-wait") {
		cfg.MaxWait, err = flags.GetDuration("max-wait")
		errs = append(errs, err)
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir, err = flags.GetString("output-dir")
		errs = append(errs, err)
	}
	if flags.Changed("archive-dir") {
		cfg.ArchiveDir, err = flags.GetString("archive-dir")
		errs = append(errs, err)
	}
	if flags.Changed("keep-source") {
		cfg.KeepSource, err = flags.GetBool("keep-source")
		errs = append(errs, err)
	}
	if flags.Changed("overwrite") {
		cfg.Overwrite, err = flags.GetBool("overwrite")
		errs = append(errs, err)
	}
	if flags.Changed("no-db") {
		var noDB bool
		noDB, err = flags.GetBool("no-db")
		cfg.SaveToDB = !noDB
		errs = append(errs, err)
	}

	cfg.JSONReport, err = flags.GetBool("json")
	errs = append(errs, err)
	cfg.MarkdownReport, err = flags.GetBool("markdown")
	errs = append(errs, err)
	cfg.ReportFile, err = flags.GetString("output")
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	cfg.Targets = args
	return cfg, nil
}

// newMaskingClient creates the HTTP masking client described by cfg.
func newMaskingClient(cfg *config.Config, logger *slog.Logger) (*masking.HTTPClient, error) {
	client, err := masking.NewHTTPClient(cfg.BaseURL, cfg.AuthKey,
		masking.WithLogger(logger),
		masking.WithProxy(cfg.ProxyAddress),
		masking.WithHeaders(cfg.Headers),
		masking.WithUserAgent(cfg.UserAgent),
		masking.WithTimeout(cfg.RequestTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create masking client: %w", err)
	}
	return client, nil
}

// masker processes documents one at a time.
type masker struct {
	cfg      *config.Config
	source   document.Source
	pipeline *pipeline.Pipeline
	sink     sink.OutputSink
	db       *database.AuditDB
	reporter report.Writer
	logger   *slog.Logger
	out      io.Writer
}

// runMask masks every target document with client.
// A failing document is reported and skipped; the run fails at the end if
// any document failed. Cancellation stops the run immediately.
func runMask(ctx context.Context, cfg *config.Config, client masking.Client, out io.Writer, logger *slog.Logger, opts ...pipeline.Option) error {
	documents, err := expandTargets(cfg.Targets)
	if err != nil {
		return err
	}
	if len(documents) == 0 {
		return errors.New("no supported documents found in the given targets")
	}
	if err := checkOutputCollisions(cfg, documents); err != nil {
		return err
	}

	m := &masker{
		cfg:      cfg,
		source:   document.NewAutoSource(),
		pipeline: pipeline.DefaultPipeline(client, cfg, append([]pipeline.Option{pipeline.WithLogger(logger)}, opts...)...),
		logger:   logger,
		out:      out,
	}

	m.sink, err = newSink(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if cfg.SaveToDB {
		m.db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer m.db.Close()
		logger.Debug("database opened", "path", m.db.Path())
	}

	m.reporter = newReportWriter(cfg, out)
	if cfg.ReportFile != "" {
		f, err := createReportFile(cfg.ReportFile)
		if err != nil {
			return err
		}
		defer f.Close()
		// The console keeps the plain summary when the report goes to a file.
		m.reporter = report.NewMultiWriter(
			newReportWriter(cfg, f),
			report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose)),
		)
	}

	logger.Info("starting masking run",
		"documents", len(documents),
		"word_limit", cfg.WordLimit,
		"concurrency", cfg.MaxConcurrency,
		"save_to_db", cfg.SaveToDB,
	)

	var failed int
	for i, doc := range documents {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprintf(out, "[%d/%d] Masking %s...\n", i+1, len(documents), doc)
		start := time.Now()

		if err := m.process(ctx, doc); err != nil {
			if ctx.Err() != nil {
				return err
			}
			failed++
			logger.Error("document failed", "document", doc, "error", err)
			fmt.Fprintf(out, "Error: %v\n\n", err)
			continue
		}
		fmt.Fprintf(out, "Done in %s\n\n", time.Since(start).Round(time.Millisecond))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(documents))
	}
	return nil
}

// process masks one document end to end.
// The job is recorded and reported even when the pipeline fails; the
// source is only disposed of after its output was written.
func (m *masker) process(ctx context.Context, doc string) error {
	paragraphs, err := m.source.ListParagraphs(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", doc, err)
	}

	job, runErr := m.pipeline.Process(ctx, doc, paragraphs)

	// Recording uses a fresh context so a cancelled run still leaves an audit row.
	m.record(context.WithoutCancel(ctx), job)
	if _, err := m.reporter.Write(job); err != nil {
		m.logger.Error("report failed", "document", doc, "error", err)
	}
	if runErr != nil {
		return runErr
	}

	if err := m.sink.Write(ctx, doc, job.Output); err != nil {
		return fmt.Errorf("failed to write output for %s: %w", doc, err)
	}

	if m.cfg.KeepSource {
		return nil
	}
	dest, err := document.Dispose(doc, m.cfg.ArchiveDir)
	if err != nil {
		return err
	}
	if dest != "" {
		m.logger.Info("source archived", "document", doc, "path", dest)
	} else {
		m.logger.Info("source deleted", "document", doc)
	}
	return nil
}

// record saves the job to the audit database if enabled.
func (m *masker) record(ctx context.Context, job *model.MaskJob) {
	if m.db == nil {
		return
	}
	if err := m.db.SaveJob(ctx, job); err != nil {
		m.logger.Error("failed to save job", "document", job.DocumentID, "job", job.ID, "error", err)
		return
	}
	m.logger.Debug("job saved to database", "document", job.DocumentID, "job", job.ID)
}

// expandTargets resolves targets to document paths.
// Directories contribute their supported documents; files are taken as given.
func expandTargets(targets []string) ([]string, error) {
	var documents []string
	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, fmt.Errorf("invalid target %q: %w", target, err)
		}
		if !info.IsDir() {
			documents = append(documents, target)
			continue
		}
		found, err := document.Enumerate(target)
		if err != nil {
			return nil, err
		}
		documents = append(documents, found...)
	}
	return documents, nil
}

// checkOutputCollisions fails when two documents would write the same
// output, before any document is processed. Outputs share a namespace when
// they go to one output directory or bucket; otherwise each lands next to
// its source.
func checkOutputCollisions(cfg *config.Config, documents []string) error {
	shared := cfg.OutputDir != "" || cfg.Minio.Enabled()
	seen := make(map[string]string, len(documents))
	for _, doc := range documents {
		key := document.OutputName(doc)
		if !shared {
			key = filepath.Join(filepath.Dir(doc), key)
		}
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("%s and %s would both be written to %s", prev, doc, key)
		}
		seen[key] = doc
	}
	return nil
}

// newSink creates the output sink selected by cfg.
// With MinIO enabled, output is uploaded and additionally written to
// OutputDir only when one is configured.
func newSink(ctx context.Context, cfg *config.Config, logger *slog.Logger) (sink.OutputSink, error) {
	files := sink.NewFileSink(cfg.OutputDir, sink.WithFileLogger(logger), sink.WithFileOverwrite(cfg.Overwrite))
	if !cfg.Minio.Enabled() {
		return files, nil
	}

	bucket, err := sink.NewMinioSink(cfg.Minio,
		sink.WithMinioLogger(logger),
		sink.WithPrefix(cfg.Minio.Prefix),
		sink.WithMinioOverwrite(cfg.Overwrite),
	)
	if err != nil {
		return nil, err
	}
	if err := bucket.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	if cfg.OutputDir == "" {
		return bucket, nil
	}
	return sink.Multi(bucket, files), nil
}

// createReportFile creates the report file and its parent directories.
// Reports name documents and failure reasons, so the file is owner-only.
func createReportFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided report path
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// newReportWriter selects the report format.
func newReportWriter(cfg *config.Config, out io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(out, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(out)
	default:
		opts := []report.SimpleWriterOption{report.WithVerbose(cfg.Verbose)}
		if cfg.ReportFile != "" {
			opts = append(opts, report.WithColor(false))
		}
		return report.NewSimpleWriter(out, opts...)
	}
}
