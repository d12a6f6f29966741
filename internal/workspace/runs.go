package workspace

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of a ledger entry.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Run is one entry in the run ledger.
type Run struct {
	ID         string          `json:"run_id"`
	Params     json.RawMessage `json:"params"`
	Status     RunStatus       `json:"status"`
	Error      string          `json:"error,omitempty"`
	StartedAt  string          `json:"started_at"`
	FinishedAt string          `json:"finished_at,omitempty"`
}

// StartRun records a new running entry with params serialised as JSON and
// returns its id.
func (w *Workspace) StartRun(ctx context.Context, params any) (string, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("marshal run params: %w", err)
	}
	id := uuid.NewString()
	_, err = w.db.ExecContext(ctx, `
		INSERT INTO flexure_runs (run_id, params_json, status, started_at)
		VALUES (?, ?, ?, ?)`, id, string(data), RunRunning, w.timestamp())
	if err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}
	return id, nil
}

// FinishRun closes a running entry. A nil runErr marks it succeeded.
func (w *Workspace) FinishRun(ctx context.Context, id string, runErr error) error {
	status, msg := RunSucceeded, sql.NullString{}
	if runErr != nil {
		status = RunFailed
		msg = sql.NullString{String: runErr.Error(), Valid: true}
	}
	res, err := w.db.ExecContext(ctx, `
		UPDATE flexure_runs SET status = ?, error_message = ?, finished_at = ?
		 WHERE run_id = ? AND status = ?`, status, msg, w.timestamp(), id, RunRunning)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	return requireOne(res, "running run "+id)
}

const runColumns = `run_id, params_json, status, COALESCE(error_message, ''), started_at, COALESCE(finished_at, '')`

func scanRun(s rowScanner) (Run, error) {
	var (
		r      Run
		params string
	)
	if err := s.Scan(&r.ID, &params, &r.Status, &r.Error, &r.StartedAt, &r.FinishedAt); err != nil {
		return Run{}, err
	}
	r.Params = json.RawMessage(params)
	return r, nil
}

// GetRun returns a single ledger entry.
func (w *Workspace) GetRun(ctx context.Context, id string) (Run, error) {
	r, err := scanRun(w.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM flexure_runs WHERE run_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return r, nil
}

// ListRuns returns up to limit ledger entries, newest first. A limit of zero
// or less returns all of them.
func (w *Workspace) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := w.db.QueryContext(ctx, `SELECT `+runColumns+` FROM flexure_runs
		ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
