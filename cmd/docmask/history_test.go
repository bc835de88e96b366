package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/docmask/internal/database"
	"github.com/nao1215/docmask/internal/masking/maskingtest"
)

func TestWriteJobTable(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := writeJobTable(&buf, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No jobs recorded.") {
			t.Errorf("unexpected output: %q", buf.String())
		}
	})

	t.Run("rows", func(t *testing.T) {
		t.Parallel()

		jobs := []database.JobMetadata{
			{
				JobID:      "01J9Z3K8Q6V0W2X4Y6Z8A0B2C4",
				DocumentID: "inbox/contract.docx",
				StartedAt:  time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
				Duration:   1500 * time.Millisecond,
				Chunks:     4,
				Completed:  3,
				TimedOut:   1,
			},
			{
				JobID:      "01J9Z3K8Q6V0W2X4Y6Z8A0B2C5",
				DocumentID: "inbox/broken.docx",
				Error:      "chunk: invalid word limit",
			},
		}

		var buf bytes.Buffer
		if err := writeJobTable(&buf, jobs); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{
			"JOB ID", "TIMED OUT",
			"01J9Z3K8Q6V0W2X4Y6Z8A0B2C4", "inbox/contract.docx", "1.5s",
			"inbox/broken.docx (error: chunk: invalid word limit)",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
	})
}

func TestHistoryCommand(t *testing.T) {
	t.Parallel()

	t.Run("missing database", func(t *testing.T) {
		t.Parallel()

		cfgPath := writeConfig(t, "")
		root := NewRootCmd()
		root.SetOut(io.Discard)
		root.SetErr(io.Discard)
		root.SetArgs([]string{"history", "--config", cfgPath, "--db-dir", filepath.Join(t.TempDir(), "none")})
		if err := root.Execute(); err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("job report and documents", func(t *testing.T) {
		t.Parallel()

		doc := writeDocument(t, t.TempDir(), "memo.txt", "Mallory\nOscar\n")
		cfg := testMaskConfig(t, doc)
		cfg.SaveToDB = true
		cfg.DBDir = t.TempDir()
		cfg.KeepSource = true
		client := maskingtest.NewService().On("Oscar", maskingtest.Behavior{Fail: true, FailReason: "rejected"})
		if err := runMask(context.Background(), cfg, client, io.Discard, discardLogger()); err != nil {
			t.Fatalf("runMask failed: %v", err)
		}

		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		jobs, err := db.ListJobs(context.Background(), "", 0)
		db.Close()
		if err != nil || len(jobs) != 1 {
			t.Fatalf("expected 1 job, got %d (%v)", len(jobs), err)
		}

		cfgPath := writeConfig(t, "")
		run := func(args ...string) string {
			t.Helper()

			var out bytes.Buffer
			root := NewRootCmd()
			root.SetOut(&out)
			root.SetErr(io.Discard)
			root.SetArgs(append([]string{"history", "--config", cfgPath, "--db-dir", cfg.DBDir}, args...))
			if err := root.Execute(); err != nil {
				t.Fatalf("history %v failed: %v", args, err)
			}
			return out.String()
		}

		if got := run("--documents"); !strings.Contains(got, doc) {
			t.Errorf("expected document list to contain %s, got %q", doc, got)
		}
		if got := run(doc); !strings.Contains(got, jobs[0].JobID) {
			t.Errorf("expected job table to contain %s, got %q", jobs[0].JobID, got)
		}
		report := run("--job", jobs[0].JobID, "--markdown")
		for _, want := range []string{"# docmask Report", "## Fallbacks", "rejected"} {
			if !strings.Contains(report, want) {
				t.Errorf("expected report to contain %q:\n%s", want, report)
			}
		}
	})

	t.Run("unknown job", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		db, err := database.Open(dbDir, database.DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		db.Close()

		root := NewRootCmd()
		root.SetOut(io.Discard)
		root.SetErr(io.Discard)
		root.SetArgs([]string{"history", "--config", writeConfig(t, ""), "--db-dir", dbDir, "--job", "nope"})
		err = root.Execute()
		if err == nil || !strings.Contains(err.Error(), "job not found") {
			t.Errorf("expected job not found, got %v", err)
		}
	})
}
