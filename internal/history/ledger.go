package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const maxErrorBytes = 16 * 1024

// timestampLayout is fixed width so started_at sorts lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Ledger persists host runs in SQLite.
type Ledger struct {
	db *sql.DB
}

func New(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// Begin inserts a running record and returns its id.
func (l *Ledger) Begin(ctx context.Context, req BeginRequest) (string, error) {
	if req.Binary == "" {
		return "", fmt.Errorf("binary is empty")
	}
	if req.CacheMode == "" {
		return "", fmt.Errorf("cache mode is empty")
	}

	args, err := json.Marshal(req.Request.Args())
	if err != nil {
		return "", fmt.Errorf("marshal args: %w", err)
	}

	id := uuid.NewString()
	now := time.Now().UTC().Format(timestampLayout)
	_, err = l.db.ExecContext(ctx, `
INSERT INTO host_runs(
  id, binary_name, l2_chain_id, l2_block_number, l2_claim, data_dir, args, cache_mode, status, started_at
)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`, id, req.Binary, req.Request.L2ChainID, req.Request.L2BlockNumber, req.Request.L2Claim.Hex(),
		nullString(req.Request.DataDir), string(args), req.CacheMode, string(StatusRunning), now)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// Finish records the terminal outcome of a run.
func (l *Ledger) Finish(ctx context.Context, id string, out Outcome) error {
	if id == "" {
		return fmt.Errorf("run id is empty")
	}
	if !out.Status.Terminal() {
		return fmt.Errorf("invalid terminal status: %q", out.Status)
	}

	var lastError any
	if out.Err != nil {
		msg := out.Err.Error()
		if len(msg) > maxErrorBytes {
			msg = msg[:maxErrorBytes]
		}
		lastError = msg
	}
	var pid any
	if out.PID != 0 {
		pid = out.PID
	}
	var elapsed any
	if out.Elapsed > 0 {
		elapsed = out.Elapsed.Milliseconds()
	}

	res, err := l.db.ExecContext(ctx, `
UPDATE host_runs
SET status = ?, pid = ?, exit_code = ?, signal = ?, elapsed_ms = ?, preimage_count = ?,
    fingerprint = ?, last_error = ?, completed_at = ?
WHERE id = ?;
`, string(out.Status), pid, nullInt(out.ExitCode), nullString(out.Signal), elapsed, nullInt(out.PreimageCount),
		nullString(out.Fingerprint), lastError, time.Now().UTC().Format(timestampLayout), id)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}

const selectRun = `
SELECT id, binary_name, l2_chain_id, l2_block_number, l2_claim, data_dir, args, cache_mode, status,
       pid, exit_code, signal, elapsed_ms, preimage_count, fingerprint, last_error, started_at, completed_at
FROM host_runs`

// Get returns a single run by id.
func (l *Ledger) Get(ctx context.Context, id string) (*Run, error) {
	row := l.db.QueryRowContext(ctx, selectRun+" WHERE id = ?;", id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// List returns up to limit runs, newest first.
func (l *Ledger) List(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx, selectRun+" ORDER BY started_at DESC, rowid DESC LIMIT ?;", limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var (
		r           Run
		dataDir     sql.NullString
		args        string
		pid         sql.NullInt64
		exitCode    sql.NullInt64
		signal      sql.NullString
		elapsedMS   sql.NullInt64
		count       sql.NullInt64
		fingerprint sql.NullString
		lastError   sql.NullString
		startedAt   string
		completedAt sql.NullString
	)
	if err := s.Scan(&r.ID, &r.Binary, &r.L2ChainID, &r.L2BlockNumber, &r.L2Claim, &dataDir, &args,
		&r.CacheMode, &r.Status, &pid, &exitCode, &signal, &elapsedMS, &count, &fingerprint,
		&lastError, &startedAt, &completedAt); err != nil {
		return nil, err
	}

	r.DataDir = dataDir.String
	if err := json.Unmarshal([]byte(args), &r.Args); err != nil {
		return nil, fmt.Errorf("decode args: %w", err)
	}
	r.PID = intPtr(pid)
	r.ExitCode = intPtr(exitCode)
	r.PreimageCount = intPtr(count)
	r.Signal = stringPtr(signal)
	r.Fingerprint = stringPtr(fingerprint)
	r.LastError = stringPtr(lastError)
	if elapsedMS.Valid {
		d := time.Duration(elapsedMS.Int64) * time.Millisecond
		r.Elapsed = &d
	}

	t, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	r.StartedAt = t
	if completedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
		r.CompletedAt = &t
	}
	return &r, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}
