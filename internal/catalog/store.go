// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog is the study record store: a SQL table of bioscience
// studies searched by exact filters, case-insensitive substring matches and
// year. SQLite is the default backend; Postgres is supported for catalogs
// hosted alongside the dashboard database.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/pdiddy/mission-copilot/pkg/types"
)

// ErrNotFound is returned by Get when no study has the requested ID.
var ErrNotFound = errors.New("study not found")

const studiesTable = "studies"

// sqliteDriver is go-sqlite3 with a fold(text) function registered on every
// connection. SQLite's built-in lower() and LIKE only fold ASCII.
const sqliteDriver = "sqlite3_catalog"

func init() {
	sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("fold", strings.ToLower, true)
		},
	})
}

// studyColumns is the projection read by every query, in scan order.
var studyColumns = []string{
	"id", "title", "year", "type", "mission", "keyword",
	"outcome", "summary", "abstract", "tags",
}

// searchFields are matched by StudyQuery.Contains.
var searchFields = []string{"title", "summary", "abstract", "keyword"}

// Store manages the catalog database.
type Store struct {
	db          *sql.DB
	driver      types.CatalogDriver
	placeholder sq.PlaceholderFormat
}

// NewStore opens the catalog described by cfg and creates the schema if it
// does not exist. For SQLite the parent directory of cfg.Path is created.
func NewStore(cfg types.CatalogConfig) (*Store, error) {
	var (
		db  *sql.DB
		err error
		ph  sq.PlaceholderFormat = sq.Question
	)

	switch cfg.Driver {
	case types.DriverSQLite, "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("catalog path is empty")
		}
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating catalog directory: %w", err)
			}
		}
		db, err = sql.Open(sqliteDriver, cfg.Path+"?_journal_mode=WAL&_busy_timeout=5000")
		cfg.Driver = types.DriverSQLite
	case types.DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("catalog DSN is empty")
		}
		db, err = sql.Open("postgres", cfg.DSN)
		ph = sq.Dollar
	default:
		return nil, fmt.Errorf("unsupported catalog driver %q: use sqlite3 or postgres", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, driver: cfg.Driver, placeholder: ph}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS studies (
			id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			year INTEGER NOT NULL,
			type TEXT NOT NULL DEFAULT '',
			mission TEXT NOT NULL DEFAULT '',
			keyword TEXT NOT NULL DEFAULT '',
			outcome TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			abstract TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '[]'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_studies_year ON studies(year)`,
		`CREATE INDEX IF NOT EXISTS idx_studies_mission ON studies(mission)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Count returns the number of studies in the catalog.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM studies`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting studies: %w", err)
	}
	return n, nil
}

// Get returns the study with the given ID.
func (s *Store) Get(ctx context.Context, id int64) (types.Study, error) {
	query, args, err := sq.Select(studyColumns...).
		From(studiesTable).
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(s.placeholder).
		ToSql()
	if err != nil {
		return types.Study{}, fmt.Errorf("building query: %w", err)
	}

	study, err := scanStudy(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Study{}, fmt.Errorf("study %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return types.Study{}, fmt.Errorf("looking up study %d: %w", id, err)
	}
	return study, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStudy(row scanner) (types.Study, error) {
	var (
		st       types.Study
		studyTyp string
		outcome  string
		tagsJSON sql.NullString
	)
	if err := row.Scan(
		&st.ID, &st.Title, &st.Year, &studyTyp, &st.Mission, &st.Keyword,
		&outcome, &st.Summary, &st.Abstract, &tagsJSON,
	); err != nil {
		return types.Study{}, err
	}
	st.Type = types.StudyType(studyTyp)
	st.Outcome = types.Outcome(outcome)
	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &st.Tags); err != nil {
			return types.Study{}, fmt.Errorf("decoding tags for study %d: %w", st.ID, err)
		}
	}
	return st, nil
}
