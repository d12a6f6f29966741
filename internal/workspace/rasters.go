package workspace

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/banshee-data/flexure/internal/monitoring"
	"github.com/banshee-data/flexure/internal/raster"
	"github.com/banshee-data/flexure/internal/region"
)

// DefaultColors is the ramp reported for layers that have none attached.
const DefaultColors = raster.RampGrey

// LayerInfo describes a stored raster layer without its cell data.
type LayerInfo struct {
	Name      string        `json:"name"`
	Region    region.Region `json:"region"`
	Min       float64       `json:"min"`
	Max       float64       `json:"max"`
	Colors    string        `json:"colors"`
	UpdatedAt string        `json:"updated_at"`
}

const layerColumns = `name, north, south, east, west, ns_res, ew_res, n_rows, n_cols, proj,
	COALESCE(min_value, 0), COALESCE(max_value, 0), COALESCE(color_ramp, ''), updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLayer(s rowScanner) (LayerInfo, error) {
	var li LayerInfo
	r := &li.Region
	err := s.Scan(&li.Name, &r.North, &r.South, &r.East, &r.West, &r.NSRes, &r.EWRes, &r.Rows, &r.Cols, &r.Proj,
		&li.Min, &li.Max, &li.Colors, &li.UpdatedAt)
	if li.Colors == "" {
		li.Colors = DefaultColors
	}
	return li, err
}

func checkName(name string) error {
	if !ValidLayerName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// WriteRaster stores g under name on the lattice reg, replacing any layer of
// that name. Replacing a layer drops its colour ramp.
func (w *Workspace) WriteRaster(ctx context.Context, name string, reg region.Region, g *raster.Grid) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := reg.Validate(); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if g.Rows != reg.Rows || g.Cols != reg.Cols {
		return fmt.Errorf("write %s: %w: %dx%d grid on %dx%d region", name, raster.ErrShape, g.Rows, g.Cols, reg.Rows, reg.Cols)
	}
	if err := g.Validate(); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	blob, err := raster.EncodeBlob(g)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	st := g.Summary()
	_, err = w.db.ExecContext(ctx, `
		INSERT INTO raster_layers (name, north, south, east, west, ns_res, ew_res, n_rows, n_cols, proj,
		                           data, min_value, max_value, color_ramp, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?)
		ON CONFLICT(name) DO UPDATE SET
			north = excluded.north, south = excluded.south,
			east = excluded.east, west = excluded.west,
			ns_res = excluded.ns_res, ew_res = excluded.ew_res,
			n_rows = excluded.n_rows, n_cols = excluded.n_cols, proj = excluded.proj,
			data = excluded.data, min_value = excluded.min_value, max_value = excluded.max_value,
			color_ramp = NULL, updated_at = excluded.updated_at`,
		name, reg.North, reg.South, reg.East, reg.West, reg.NSRes, reg.EWRes, reg.Rows, reg.Cols, reg.Proj,
		blob, st.Min, st.Max, w.timestamp())
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	monitoring.Debugf("wrote raster %s (%dx%d, min=%g max=%g)", name, reg.Rows, reg.Cols, st.Min, st.Max)
	return nil
}

// LoadRaster returns a layer on its own stored lattice.
func (w *Workspace) LoadRaster(ctx context.Context, name string) (*raster.Grid, region.Region, error) {
	var (
		reg  region.Region
		blob []byte
	)
	err := w.db.QueryRowContext(ctx, `
		SELECT north, south, east, west, ns_res, ew_res, n_rows, n_cols, proj, data
		  FROM raster_layers WHERE name = ?`, name).
		Scan(&reg.North, &reg.South, &reg.East, &reg.West, &reg.NSRes, &reg.EWRes, &reg.Rows, &reg.Cols, &reg.Proj, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, region.Region{}, fmt.Errorf("raster %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, region.Region{}, fmt.Errorf("read %s: %w", name, err)
	}
	g, err := raster.DecodeBlob(blob)
	if err != nil {
		return nil, region.Region{}, fmt.Errorf("decode %s: %w", name, err)
	}
	if g.Rows != reg.Rows || g.Cols != reg.Cols {
		return nil, region.Region{}, fmt.Errorf("decode %s: %w: %dx%d blob on %dx%d region", name, raster.ErrShape, g.Rows, g.Cols, reg.Rows, reg.Cols)
	}
	return g, reg, nil
}

// ReadRaster returns a layer sampled onto reg. Layers stored on a different
// lattice are resampled by nearest neighbour, the way a GIS reads a map in
// the current region.
func (w *Workspace) ReadRaster(ctx context.Context, name string, reg region.Region) (*raster.Grid, error) {
	g, stored, err := w.LoadRaster(ctx, name)
	if err != nil {
		return nil, err
	}
	if stored.Matches(reg) {
		return g, nil
	}
	monitoring.Debugf("reading %s from %s into %s", name, stored, reg)
	return raster.Resample(g, stored, reg, raster.Nearest)
}

// RasterRegion returns the lattice a layer was written on.
func (w *Workspace) RasterRegion(ctx context.Context, name string) (region.Region, error) {
	li, err := w.layerInfo(ctx, name)
	return li.Region, err
}

func (w *Workspace) layerInfo(ctx context.Context, name string) (LayerInfo, error) {
	li, err := scanLayer(w.db.QueryRowContext(ctx, `SELECT `+layerColumns+` FROM raster_layers WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return LayerInfo{}, fmt.Errorf("raster %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return LayerInfo{}, fmt.Errorf("read %s: %w", name, err)
	}
	return li, nil
}

// ListRasters returns every layer ordered by name.
func (w *Workspace) ListRasters(ctx context.Context) ([]LayerInfo, error) {
	rows, err := w.db.QueryContext(ctx, `SELECT `+layerColumns+` FROM raster_layers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list rasters: %w", err)
	}
	defer rows.Close()

	var out []LayerInfo
	for rows.Next() {
		li, err := scanLayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan raster: %w", err)
		}
		out = append(out, li)
	}
	return out, rows.Err()
}

// RemoveRaster deletes a layer.
func (w *Workspace) RemoveRaster(ctx context.Context, name string) error {
	res, err := w.db.ExecContext(ctx, `DELETE FROM raster_layers WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return requireOne(res, "raster "+name)
}

// SetColors attaches a colour ramp to a layer.
func (w *Workspace) SetColors(ctx context.Context, name, ramp string) error {
	if err := raster.ValidateRamp(ramp); err != nil {
		return err
	}
	res, err := w.db.ExecContext(ctx, `UPDATE raster_layers SET color_ramp = ? WHERE name = ?`, ramp, name)
	if err != nil {
		return fmt.Errorf("set colors on %s: %w", name, err)
	}
	return requireOne(res, "raster "+name)
}

// Colors returns the ramp attached to a layer, or DefaultColors.
func (w *Workspace) Colors(ctx context.Context, name string) (string, error) {
	li, err := w.layerInfo(ctx, name)
	return li.Colors, err
}

// Resample writes layer in, resampled from its stored lattice onto target,
// as layer out.
func (w *Workspace) Resample(ctx context.Context, in, out string, target region.Region, m raster.Method) error {
	src, from, err := w.LoadRaster(ctx, in)
	if err != nil {
		return err
	}
	g, err := raster.Resample(src, from, target, m)
	if err != nil {
		return fmt.Errorf("resample %s: %w", in, err)
	}
	return w.WriteRaster(ctx, out, target, g)
}

func requireOne(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
