// Package store persists dashboards in SQLite, one row per dashboard with the
// widget list and layouts kept as JSON documents.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/matthewjablack/dynamicdashboard/internal/model"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a dashboard does not exist for the user.
var ErrNotFound = errors.New("dashboard not found")

// Store provides database operations.
type Store struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// New opens (or creates) the SQLite database and runs migrations.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite single-writer
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	s := newWithDB(db)
	s.dbPath = dbPath
	return s, nil
}

func newWithDB(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// DBPath returns the database file path.
func (s *Store) DBPath() string { return s.dbPath }

// SchemaVersion returns the number of applied migrations.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	return schemaVersion(ctx, s.db)
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

const dashboardColumns = "id, name, components, layouts, updated"

type scanner interface {
	Scan(dest ...any) error
}

func scanDashboard(row scanner) (model.Dashboard, error) {
	var (
		d          model.Dashboard
		id         int64
		components string
		layouts    string
	)
	if err := row.Scan(&id, &d.Name, &components, &layouts, &d.Updated); err != nil {
		return model.Dashboard{}, err
	}
	d.ID = &id
	if err := json.Unmarshal([]byte(components), &d.Components); err != nil {
		return model.Dashboard{}, fmt.Errorf("dashboard %d components: %w", id, err)
	}
	if err := json.Unmarshal([]byte(layouts), &d.Layouts); err != nil {
		return model.Dashboard{}, fmt.Errorf("dashboard %d layouts: %w", id, err)
	}
	if d.Components == nil {
		d.Components = []model.WidgetInstance{}
	}
	if d.Layouts == nil {
		d.Layouts = model.Layouts{}
	}
	return d, nil
}

func encodeDashboard(d model.Dashboard) (components, layouts string, err error) {
	if d.Components == nil {
		d.Components = []model.WidgetInstance{}
	}
	if d.Layouts == nil {
		d.Layouts = model.Layouts{}
	}
	c, err := json.Marshal(d.Components)
	if err != nil {
		return "", "", fmt.Errorf("encode components: %w", err)
	}
	l, err := json.Marshal(d.Layouts)
	if err != nil {
		return "", "", fmt.Errorf("encode layouts: %w", err)
	}
	return string(c), string(l), nil
}

// --- Dashboards ---

// ListDashboards returns the user's dashboards, most recently updated first.
func (s *Store) ListDashboards(ctx context.Context, userID string) ([]model.Dashboard, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+dashboardColumns+" FROM dashboards WHERE user_id = ? ORDER BY updated DESC, id DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []model.Dashboard{}
	for rows.Next() {
		d, err := scanDashboard(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// GetDashboard returns one of the user's dashboards.
func (s *Store) GetDashboard(ctx context.Context, userID string, id int64) (model.Dashboard, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+dashboardColumns+" FROM dashboards WHERE user_id = ? AND id = ?", userID, id)
	d, err := scanDashboard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Dashboard{}, ErrNotFound
	}
	return d, err
}

// CreateDashboard inserts d for the user, ignoring any id it carries, and returns
// it with the assigned id.
func (s *Store) CreateDashboard(ctx context.Context, userID string, d model.Dashboard) (model.Dashboard, error) {
	components, layouts, err := encodeDashboard(d)
	if err != nil {
		return model.Dashboard{}, err
	}
	now := s.now().UnixMilli()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO dashboards (user_id, name, components, layouts, created, updated) VALUES (?, ?, ?, ?, ?, ?)",
		userID, d.Name, components, layouts, now, now)
	if err != nil {
		return model.Dashboard{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Dashboard{}, err
	}
	out := d.Clone()
	out.ID = &id
	out.Updated = now
	return out, nil
}

// UpdateDashboard overwrites the name, widgets and layouts of one of the user's
// dashboards.
func (s *Store) UpdateDashboard(ctx context.Context, userID string, id int64, d model.Dashboard) error {
	components, layouts, err := encodeDashboard(d)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE dashboards SET name = ?, components = ?, layouts = ?, updated = ? WHERE id = ? AND user_id = ?",
		d.Name, components, layouts, s.now().UnixMilli(), id, userID)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// DeleteDashboard deletes one of the user's dashboards.
func (s *Store) DeleteDashboard(ctx context.Context, userID string, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM dashboards WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
