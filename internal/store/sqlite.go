package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/roamlabs/roam/internal/action"
	"github.com/roamlabs/roam/internal/config"
	"github.com/roamlabs/roam/internal/errors"
	"github.com/roamlabs/roam/internal/fact"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 2

// SQLite is the durable Store backed by a local SQLite file.
type SQLite struct {
	db *sql.DB
}

// Open initializes the SQLite store at baseDir/roam.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.roam.
// Open is idempotent: re-opening an existing file re-runs only the
// migrations the file has not seen yet.
func Open(baseDir string, cfg *config.Config) (*SQLite, error) {
	// Create base directory with restricted permissions
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	// Explicit chmod (best-effort, may not work on all platforms)
	_ = os.Chmod(baseDir, 0700)

	// Open database with pragmas in connection string (applies to all connections)
	dbPath := filepath.Join(baseDir, "roam.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify WAL mode is active
	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	// Run migrations (this creates the file if it doesn't exist)
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	// Set file permissions after file exists (best-effort)
	_ = os.Chmod(dbPath, 0600)

	configurePool(db, cfg)

	return &SQLite{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// configurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func configurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: pending_actions
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS pending_actions (
		  id              INTEGER PRIMARY KEY AUTOINCREMENT,
		  type            TEXT NOT NULL,
		  data            TEXT,
		  idempotency_key TEXT NOT NULL,
		  created_at      INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_pending_actions_created
		ON pending_actions(created_at);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Migration 1 -> 2: cached_facts with the (latitude, longitude)
	// compound index for radius queries
	if version < 2 {
		schema := `
		CREATE TABLE IF NOT EXISTS cached_facts (
		  id            TEXT PRIMARY KEY,
		  latitude      REAL,
		  longitude     REAL,
		  title         TEXT NOT NULL,
		  description   TEXT,
		  location_name TEXT,
		  category_id   TEXT,
		  vote_count_up INTEGER NOT NULL DEFAULT 0,
		  created_at    INTEGER NOT NULL DEFAULT 0,
		  cached_at     INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_cached_facts_lat_lon
		ON cached_facts(latitude, longitude)
		WHERE latitude IS NOT NULL AND longitude IS NOT NULL;

		CREATE INDEX IF NOT EXISTS idx_cached_facts_votes
		ON cached_facts(vote_count_up DESC);

		CREATE INDEX IF NOT EXISTS idx_cached_facts_created
		ON cached_facts(created_at DESC);

		CREATE INDEX IF NOT EXISTS idx_cached_facts_cached
		ON cached_facts(cached_at);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 2 failed: %w", err)
		}
		if err := SetUserVersion(db, 2); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 3 { ... }

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}

// PutAction persists a pending action and returns the rowid the store
// assigned. Insertion order is the sync order.
func (s *SQLite) PutAction(ctx context.Context, a *action.PendingAction) (int64, error) {
	var data sql.NullString
	if len(a.Data) > 0 {
		data = sql.NullString{String: string(a.Data), Valid: true}
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO pending_actions (type, data, idempotency_key, created_at)
		VALUES (?, ?, ?, ?)
	`, string(a.Type), data, a.IdempotencyKey, a.Timestamp)
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return id, nil
}

// ListActions returns all pending actions in insertion (rowid) order.
func (s *SQLite) ListActions(ctx context.Context) ([]action.PendingAction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, data, idempotency_key, created_at
		FROM pending_actions
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var actions []action.PendingAction
	for rows.Next() {
		var a action.PendingAction
		var typ string
		var data sql.NullString
		if err := rows.Scan(&a.ID, &typ, &data, &a.IdempotencyKey, &a.Timestamp); err != nil {
			return nil, errors.NewInternal(err)
		}
		a.Type = action.Type(typ)
		if data.Valid {
			a.Data = []byte(data.String)
		}
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return actions, nil
}

// DeleteAction removes a pending action by id.
func (s *SQLite) DeleteAction(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pending_actions WHERE id = ?`, id); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// PutFact upserts a cached fact by id.
func (s *SQLite) PutFact(ctx context.Context, f *fact.CachedFact) error {
	lat := toNullFloat(f.Latitude)
	lon := toNullFloat(f.Longitude)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cached_facts (
			id, latitude, longitude, title, description, location_name,
			category_id, vote_count_up, created_at, cached_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			title = excluded.title,
			description = excluded.description,
			location_name = excluded.location_name,
			category_id = excluded.category_id,
			vote_count_up = excluded.vote_count_up,
			created_at = excluded.created_at,
			cached_at = excluded.cached_at
	`, f.ID, lat, lon, f.Title, f.Description, f.LocationName,
		f.CategoryID, f.VoteCountUp, f.CreatedAt, f.CachedAt)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetFact returns a cached fact by id.
func (s *SQLite) GetFact(ctx context.Context, id string) (*fact.CachedFact, error) {
	row := s.db.QueryRowContext(ctx, factSelect+` WHERE id = ?`, id)
	f, err := scanFact(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return f, nil
}

// ListFacts returns all cached facts.
func (s *SQLite) ListFacts(ctx context.Context) ([]fact.CachedFact, error) {
	return s.queryFacts(ctx, factSelect+` ORDER BY cached_at DESC, id ASC`)
}

// TopFactsByVotes returns up to limit facts ordered by vote count.
func (s *SQLite) TopFactsByVotes(ctx context.Context, limit int) ([]fact.CachedFact, error) {
	return s.queryFacts(ctx, factSelect+` ORDER BY vote_count_up DESC, id ASC LIMIT ?`, limit)
}

// TopFactsByCreated returns up to limit facts ordered by creation time.
func (s *SQLite) TopFactsByCreated(ctx context.Context, limit int) ([]fact.CachedFact, error) {
	return s.queryFacts(ctx, factSelect+` ORDER BY created_at DESC, id ASC LIMIT ?`, limit)
}

// PruneFacts deletes the oldest facts by cached_at beyond max entries.
func (s *SQLite) PruneFacts(ctx context.Context, max int) (int, error) {
	if max <= 0 {
		return 0, nil
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM cached_facts
		WHERE id IN (
			SELECT id FROM cached_facts
			ORDER BY cached_at DESC, id ASC
			LIMIT -1 OFFSET ?
		)
	`, max)
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

const factSelect = `
	SELECT id, latitude, longitude, title, description, location_name,
	       category_id, vote_count_up, created_at, cached_at
	FROM cached_facts`

func (s *SQLite) queryFacts(ctx context.Context, query string, args ...any) ([]fact.CachedFact, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var facts []fact.CachedFact
	for rows.Next() {
		f, err := scanFactRow(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		facts = append(facts, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return facts, nil
}

// rowScanner abstracts sql.Row and sql.Rows for scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanFact(row rowScanner) (*fact.CachedFact, error) {
	return scanFactRow(row)
}

func scanFactRow(row rowScanner) (*fact.CachedFact, error) {
	f := &fact.CachedFact{}
	var lat, lon sql.NullFloat64
	var description, locationName, categoryID sql.NullString

	err := row.Scan(&f.ID, &lat, &lon, &f.Title, &description, &locationName,
		&categoryID, &f.VoteCountUp, &f.CreatedAt, &f.CachedAt)
	if err != nil {
		return nil, err
	}

	f.Latitude = fromNullFloat(lat)
	f.Longitude = fromNullFloat(lon)
	f.Description = description.String
	f.LocationName = locationName.String
	f.CategoryID = categoryID.String

	return f, nil
}

func toNullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
