// Package workspace persists the state a flexure computation works against:
// the active processing region, named raster layers with their colour ramps,
// and a ledger of driver runs. Everything lives in a single SQLite database.
package workspace

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/flexure/internal/monitoring"
	"github.com/banshee-data/flexure/internal/timeutil"
)

// ErrNotFound is returned when a layer, run or the active region does not
// exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidName is returned for layer names that cannot be stored.
var ErrInvalidName = errors.New("invalid layer name")

var layerName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// ValidLayerName reports whether s is a legal raster layer name: a letter or
// underscore followed by letters, digits, underscores or dots.
func ValidLayerName(s string) bool {
	return len(s) <= 255 && layerName.MatchString(s)
}

// Workspace is an open workspace database.
type Workspace struct {
	db    *sql.DB
	path  string
	clock timeutil.Clock
}

var pragmas = []string{
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA temp_store = MEMORY",
}

// Open opens (creating if needed) the workspace database at path and applies
// any pending migrations.
func Open(ctx context.Context, path string) (*Workspace, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open workspace %s: %w", path, err)
	}
	// One connection keeps PRAGMAs and transactions on the same handle.
	db.SetMaxOpenConns(1)

	stmts := pragmas
	if path != ":memory:" {
		stmts = append([]string{"PRAGMA journal_mode = WAL"}, pragmas...)
	}
	for _, p := range stmts {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", p, err)
		}
	}

	ws := &Workspace{db: db, path: path, clock: timeutil.RealClock{}}
	if err := ws.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	monitoring.Debugf("workspace %s opened", path)
	return ws, nil
}

// Close closes the underlying database.
func (w *Workspace) Close() error {
	return w.db.Close()
}

// Path returns the database path the workspace was opened with.
func (w *Workspace) Path() string { return w.path }

// SetClock replaces the clock used for ledger and layer timestamps.
func (w *Workspace) SetClock(c timeutil.Clock) { w.clock = c }

func (w *Workspace) timestamp() string {
	return w.clock.Now().UTC().Format(time.RFC3339Nano)
}
