package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/docmask/internal/model"
)

// FileName is the name of the database file inside the database directory.
const FileName = "docmask.db"

// AuditDB provides SQLite-based storage for mask job outcomes.
type AuditDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures AuditDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates an AuditDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*AuditDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run docmask mask first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	adb := &AuditDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := adb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return adb, nil
}

// Path returns the database file path.
func (adb *AuditDB) Path() string {
	return adb.dbPath
}

// Close closes the database connection.
func (adb *AuditDB) Close() error {
	return adb.db.Close()
}

func (adb *AuditDB) createTables() error {
	schema := `
	-- One row per processed document run
	CREATE TABLE IF NOT EXISTS mask_jobs (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		started_at TEXT NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		paragraphs INTEGER NOT NULL DEFAULT 0,
		chunks INTEGER NOT NULL DEFAULT 0,
		completed INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		timed_out INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		summary_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_document ON mask_jobs(document_id);
	CREATE INDEX IF NOT EXISTS idx_jobs_started ON mask_jobs(started_at);

	-- Terminal outcome of every chunk; text is stored as a digest only
	CREATE TABLE IF NOT EXISTS chunk_outcomes (
		job_id TEXT NOT NULL REFERENCES mask_jobs(id) ON DELETE CASCADE,
		sequence INTEGER NOT NULL,
		paragraph_index INTEGER NOT NULL,
		words INTEGER NOT NULL,
		text_digest TEXT,
		state TEXT NOT NULL,
		tracking_id TEXT,
		polls INTEGER NOT NULL DEFAULT 0,
		reason TEXT,
		PRIMARY KEY (job_id, sequence)
	);

	CREATE INDEX IF NOT EXISTS idx_outcomes_state ON chunk_outcomes(state);
	`

	_, err := adb.db.ExecContext(context.Background(), schema)
	return err
}

// ChunkOutcome is the stored terminal outcome of one chunk.
type ChunkOutcome struct {
	JobID          string
	Sequence       int
	ParagraphIndex int
	Words          int
	TextDigest     string
	State          model.State
	TrackingID     string
	Polls          int
	Reason         string
}

// JobMetadata contains summary information about a stored job.
// It is used for listing history without decoding the full summary.
type JobMetadata struct {
	JobID      string
	DocumentID string
	StartedAt  time.Time
	Duration   time.Duration
	Chunks     int
	Completed  int
	Failed     int
	TimedOut   int
	Error      string
}

// Digest returns the hex SHA3-256 digest of text, or "" for empty text.
func Digest(text string) string {
	if text == "" {
		return ""
	}
	sum := sha3.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// SaveJob stores a finished job and the outcome of each of its chunks.
// A job without a summary is summarized first.
func (adb *AuditDB) SaveJob(ctx context.Context, job *model.MaskJob) (err error) {
	summary := job.Summary
	if summary == nil {
		summary = model.NewJobSummary(job)
	}

	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to serialize job summary: %w", err)
	}

	tx, err := adb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO mask_jobs (id, document_id, started_at, duration_ms, paragraphs, chunks, completed, failed, timed_out, error, summary_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		job.ID,
		job.DocumentID,
		job.StartedAt.UTC().Format(time.RFC3339Nano),
		summary.Duration.Milliseconds(),
		summary.Paragraphs,
		summary.Chunks,
		summary.Completed,
		summary.Failed,
		summary.TimedOut,
		summary.Error,
		string(summaryJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save job %s: %w", job.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO chunk_outcomes (job_id, sequence, paragraph_index, words, text_digest, state, tracking_id, polls, reason)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare outcome insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range job.Chunks {
		outcome := outcomeFor(job, c)
		if _, err = stmt.ExecContext(ctx,
			job.ID,
			outcome.Sequence,
			outcome.ParagraphIndex,
			outcome.Words,
			outcome.TextDigest,
			outcome.State.String(),
			outcome.TrackingID,
			outcome.Polls,
			outcome.Reason,
		); err != nil {
			return fmt.Errorf("failed to save outcome of chunk %d: %w", c.Sequence, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit job %s: %w", job.ID, err)
	}
	return nil
}

// outcomeFor merges what the job knows about one chunk.
// Jobs that stopped before polling have no results; their chunks are
// stored with the record state, or Submitted when nothing was sent.
func outcomeFor(job *model.MaskJob, c model.Chunk) ChunkOutcome {
	outcome := ChunkOutcome{
		JobID:          job.ID,
		Sequence:       c.Sequence,
		ParagraphIndex: c.ParagraphIndex,
		Words:          c.Words,
		TextDigest:     Digest(c.Text),
		State:          model.StateSubmitted,
	}
	if c.Sequence < len(job.Records) && job.Records[c.Sequence] != nil {
		r := job.Records[c.Sequence]
		outcome.State = r.State
		outcome.TrackingID = r.TrackingID
		outcome.Polls = r.Polls
		outcome.Reason = r.Reason
	}
	if c.Sequence < len(job.Results) {
		r := job.Results[c.Sequence]
		outcome.State = r.State
		if r.Reason != "" {
			outcome.Reason = r.Reason
		}
	}
	return outcome
}

// GetJob retrieves the summary of a job by ID.
// It returns nil without error if the job does not exist.
func (adb *AuditDB) GetJob(ctx context.Context, id string) (*model.JobSummary, error) {
	var summaryJSON string
	err := adb.db.QueryRowContext(ctx, `SELECT summary_json FROM mask_jobs WHERE id = ?`, id).Scan(&summaryJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	var summary model.JobSummary
	if err := json.Unmarshal([]byte(summaryJSON), &summary); err != nil {
		return nil, fmt.Errorf("failed to parse job summary: %w", err)
	}
	return &summary, nil
}

// ListJobs returns job metadata, newest first.
// An empty documentID lists every document; limit <= 0 means no limit.
func (adb *AuditDB) ListJobs(ctx context.Context, documentID string, limit int) ([]JobMetadata, error) {
	query := `
	SELECT id, document_id, started_at, duration_ms, chunks, completed, failed, timed_out, error
	FROM mask_jobs
	WHERE 1=1
	`
	args := make([]any, 0, 2)

	if documentID != "" {
		query += " AND document_id = ?"
		args = append(args, documentID)
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := adb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var results []JobMetadata
	for rows.Next() {
		var (
			meta       JobMetadata
			startedAt  string
			durationMS int64
			errMsg     sql.NullString
		)
		if err := rows.Scan(
			&meta.JobID,
			&meta.DocumentID,
			&startedAt,
			&durationMS,
			&meta.Chunks,
			&meta.Completed,
			&meta.Failed,
			&meta.TimedOut,
			&errMsg,
		); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		meta.StartedAt = parseTimestamp(startedAt)
		meta.Duration = time.Duration(durationMS) * time.Millisecond
		meta.Error = errMsg.String
		results = append(results, meta)
	}

	return results, rows.Err()
}

// ListDocuments returns the distinct document IDs with stored jobs.
func (adb *AuditDB) ListDocuments(ctx context.Context) ([]string, error) {
	rows, err := adb.db.QueryContext(ctx, `SELECT DISTINCT document_id FROM mask_jobs ORDER BY document_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var documents []string
	for rows.Next() {
		var document string
		if err := rows.Scan(&document); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		documents = append(documents, document)
	}

	return documents, rows.Err()
}

// ChunkOutcomes returns the stored chunk outcomes of a job in sequence order.
// A non-empty state filter restricts the result to that state.
func (adb *AuditDB) ChunkOutcomes(ctx context.Context, jobID string, states ...model.State) ([]ChunkOutcome, error) {
	query := `
	SELECT job_id, sequence, paragraph_index, words, text_digest, state, tracking_id, polls, reason
	FROM chunk_outcomes
	WHERE job_id = ?
	`
	args := []any{jobID}
	if len(states) > 0 {
		query += " AND state IN (?" + strings.Repeat(",?", len(states)-1) + ")"
		for _, s := range states {
			args = append(args, s.String())
		}
	}
	query += " ORDER BY sequence"

	rows, err := adb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []ChunkOutcome
	for rows.Next() {
		var (
			o                          ChunkOutcome
			state                      string
			digest, trackingID, reason sql.NullString
		)
		if err := rows.Scan(&o.JobID, &o.Sequence, &o.ParagraphIndex, &o.Words, &digest, &state, &trackingID, &o.Polls, &reason); err != nil {
			return nil, fmt.Errorf("failed to scan chunk outcome: %w", err)
		}
		parsed, err := model.ParseState(state)
		if err != nil {
			return nil, fmt.Errorf("chunk %d of job %s: %w", o.Sequence, jobID, err)
		}
		o.State = parsed
		o.TextDigest = digest.String
		o.TrackingID = trackingID.String
		o.Reason = reason.String
		outcomes = append(outcomes, o)
	}

	return outcomes, rows.Err()
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05", // SQLite default datetime format
	"2006-01-02T15:04:05",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
