package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/docmask/internal/config"
	"github.com/nao1215/docmask/internal/database"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [document]",
		Short: "Show past masking jobs from the audit database",
		Long: `History lists masking jobs recorded in the audit database, newest first.

With a document argument only jobs for that document are listed. With --job
the full report of one job is shown, including every chunk that kept its
original text.

Examples:
  # List recent jobs
  docmask history

  # Jobs for one document
  docmask history ./inbox/contract.docx

  # Report of one job, as Markdown
  docmask history --job 01J9Z3K8Q6V0W2X4Y6Z8A0B2C4 --markdown`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "l", 20, "Maximum number of jobs to list (0 for all)")
	cmd.Flags().String("job", "", "Show the report of one job")
	cmd.Flags().Bool("documents", false, "List documents with recorded jobs")
	cmd.Flags().String("db-dir", "", "Audit database directory (default: XDG data directory)")
	cmd.Flags().BoolP("json", "j", false, "Output the job report as JSON")
	cmd.Flags().BoolP("markdown", "m", false, "Output the job report as Markdown")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, lookupEnv)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	var errs []error
	if flags.Changed("db-dir") {
		cfg.DBDir, err = flags.GetString("db-dir")
		errs = append(errs, err)
	}
	limit, err := flags.GetInt("limit")
	errs = append(errs, err)
	jobID, err := flags.GetString("job")
	errs = append(errs, err)
	listDocuments, err := flags.GetBool("documents")
	errs = append(errs, err)
	cfg.JSONReport, err = flags.GetBool("json")
	errs = append(errs, err)
	cfg.MarkdownReport, err = flags.GetBool("markdown")
	errs = append(errs, err)
	if err := errors.Join(errs...); err != nil {
		return err
	}
	if cfg.JSONReport && cfg.MarkdownReport {
		return config.ErrConflictingReportFormats
	}

	db, err := database.Open(cfg.DBDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case jobID != "":
		summary, err := db.GetJob(ctx, jobID)
		if err != nil {
			return err
		}
		if summary == nil {
			return fmt.Errorf("job not found: %s", jobID)
		}
		_, err = newReportWriter(cfg, out).WriteSummary(summary)
		return err

	case listDocuments:
		documents, err := db.ListDocuments(ctx)
		if err != nil {
			return err
		}
		for _, d := range documents {
			fmt.Fprintln(out, d)
		}
		return nil

	default:
		var documentID string
		if len(args) == 1 {
			documentID = args[0]
		}
		jobs, err := db.ListJobs(ctx, documentID, limit)
		if err != nil {
			return err
		}
		return writeJobTable(out, jobs)
	}
}

// writeJobTable prints job metadata as an aligned table.
func writeJobTable(out io.Writer, jobs []database.JobMetadata) error {
	if len(jobs) == 0 {
		_, err := fmt.Fprintln(out, "No jobs recorded.")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "JOB ID\tSTARTED\tDURATION\tCHUNKS\tCOMPLETED\tFAILED\tTIMED OUT\tDOCUMENT")
	for _, j := range jobs {
		status := ""
		if j.Error != "" {
			status = " (error: " + j.Error + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s%s\n",
			j.JobID,
			j.StartedAt.Local().Format("2006-01-02 15:04:05"),
			j.Duration.Round(time.Millisecond),
			j.Chunks,
			j.Completed,
			j.Failed,
			j.TimedOut,
			j.DocumentID,
			status,
		)
	}
	return tw.Flush()
}
