package models

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	gonanoid "github.com/matoous/go-nanoid/v2"

	h "github.com/microcosm-cc/itemcache/helpers"
)

const createItemsTable = `
CREATE TABLE IF NOT EXISTS items (
    item_id     TEXT PRIMARY KEY
   ,name        TEXT NOT NULL
   ,description TEXT NOT NULL
   ,created     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS items_created_idx ON items (created DESC)`

// PostgresStore keeps items in the items table
type PostgresStore struct {
	db        *sql.DB
	connected atomic.Bool
}

// NewPostgresStore wraps an opened pool. The store is not connected until
// Connect or Check succeeds.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Connect blocks until the database answers and the schema exists, or ctx is
// done
func (s *PostgresStore) Connect(ctx context.Context, b h.Backoff) error {
	err := h.Retry(ctx, b, "postgres", s.prepare)
	if err != nil {
		return err
	}

	s.connected.Store(true)
	glog.Info("Connected to postgres")
	return nil
}

// prepare checks the database answers and that the schema exists
func (s *PostgresStore) prepare(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, createItemsTable)
	return err
}

// Check prepares the database and updates the connected state, logging when
// it changes
func (s *PostgresStore) Check(ctx context.Context) bool {
	err := s.prepare(ctx)
	now := err == nil
	was := s.connected.Swap(now)

	switch {
	case was && !now:
		glog.Warningf("postgres went away: %+v", err)
	case !was && now:
		glog.Info("postgres is back")
	}

	return now
}

// Connected reports whether the store is usable
func (s *PostgresStore) Connected() bool {
	return s.connected.Load()
}

// Ping checks the database
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the pool
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// ListItems returns every item, newest first
func (s *PostgresStore) ListItems(ctx context.Context) ([]ItemType, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT item_id
      ,name
      ,description
      ,created
  FROM items
 ORDER BY created DESC, item_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("get items query failed: %v", err.Error())
	}
	defer rows.Close()

	ems := []ItemType{}
	for rows.Next() {
		m := ItemType{}
		err = rows.Scan(
			&m.ID,
			&m.Name,
			&m.Description,
			&m.Created,
		)
		if err != nil {
			return nil, fmt.Errorf("row parsing error: %v", err.Error())
		}
		ems = append(ems, m)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error fetching rows: %v", err.Error())
	}

	return ems, nil
}

// InsertItem stores m, assigning its ID and Created time
func (s *PostgresStore) InsertItem(ctx context.Context, m *ItemType) error {
	id, err := gonanoid.New()
	if err != nil {
		return fmt.Errorf("could not generate item id: %v", err.Error())
	}

	var created time.Time
	err = s.db.QueryRowContext(ctx, `
INSERT INTO items (
    item_id
   ,name
   ,description
) VALUES (
    $1,
    $2,
    $3
) RETURNING created`,
		id,
		m.Name,
		m.Description,
	).Scan(
		&created,
	)
	if err != nil {
		return fmt.Errorf("error inserting data and returning created: %+v", err)
	}

	m.ID = id
	m.Created = created.UTC()

	return nil
}

// DeleteItem removes the item with the given ID
func (s *PostgresStore) DeleteItem(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
DELETE
  FROM items
 WHERE item_id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("delete failed: %v", err.Error())
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete failed: %v", err.Error())
	}

	return n > 0, nil
}
