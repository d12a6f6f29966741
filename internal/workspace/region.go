package workspace

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/banshee-data/flexure/internal/monitoring"
	"github.com/banshee-data/flexure/internal/region"
)

// Region returns the active region. ErrNotFound means none has been set.
func (w *Workspace) Region(ctx context.Context) (region.Region, error) {
	var r region.Region
	err := w.db.QueryRowContext(ctx, `
		SELECT north, south, east, west, ns_res, ew_res, n_rows, n_cols, proj
		  FROM active_region WHERE id = 1`).
		Scan(&r.North, &r.South, &r.East, &r.West, &r.NSRes, &r.EWRes, &r.Rows, &r.Cols, &r.Proj)
	if errors.Is(err, sql.ErrNoRows) {
		return region.Region{}, fmt.Errorf("active region: %w", ErrNotFound)
	}
	if err != nil {
		return region.Region{}, fmt.Errorf("read active region: %w", err)
	}
	return r, nil
}

// SetRegion validates r and makes it the active region.
func (w *Workspace) SetRegion(ctx context.Context, r region.Region) error {
	if err := r.Validate(); err != nil {
		return err
	}
	_, err := w.db.ExecContext(ctx, `
		INSERT INTO active_region (id, north, south, east, west, ns_res, ew_res, n_rows, n_cols, proj, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			north = excluded.north, south = excluded.south,
			east = excluded.east, west = excluded.west,
			ns_res = excluded.ns_res, ew_res = excluded.ew_res,
			n_rows = excluded.n_rows, n_cols = excluded.n_cols,
			proj = excluded.proj, updated_at = excluded.updated_at`,
		r.North, r.South, r.East, r.West, r.NSRes, r.EWRes, r.Rows, r.Cols, r.Proj, w.timestamp())
	if err != nil {
		return fmt.Errorf("set active region: %w", err)
	}
	monitoring.Debugf("region set to %s", r)
	return nil
}

// WithRegion makes r the active region for the duration of fn and then puts
// the previous active region back on every exit path, including a panic in
// fn. A failure to restore is joined to fn's error.
func (w *Workspace) WithRegion(ctx context.Context, r region.Region, fn func(ctx context.Context) error) (err error) {
	saved, err := w.Region(ctx)
	if err != nil {
		return err
	}
	if err := w.SetRegion(ctx, r); err != nil {
		return err
	}
	defer func() {
		// Restoration ignores cancellation of ctx.
		if rerr := w.SetRegion(context.WithoutCancel(ctx), saved); rerr != nil {
			err = errors.Join(err, fmt.Errorf("restore region: %w", rerr))
		}
	}()
	return fn(ctx)
}
