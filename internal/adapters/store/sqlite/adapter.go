package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	domainErrors "github.com/sentryview/sentryview/internal/domain/errors"

	"github.com/sentryview/sentryview/internal/application/ports"
)

// Adapter implements the BlobStorePort interface for SQLite.
type Adapter struct {
	conn *Connection
}

var _ ports.BlobStorePort = (*Adapter)(nil)

// NewAdapter opens the SQLite blob store at dbPath.
func NewAdapter(dbPath string) (*Adapter, error) {
	conn, err := NewConnection(dbPath)
	if err != nil {
		return nil, err
	}

	return &Adapter{
		conn: conn,
	}, nil
}

// Close closes the adapter and underlying database connection.
func (a *Adapter) Close() error {
	return a.conn.Close()
}

// Path returns the database file path.
func (a *Adapter) Path() string {
	return a.conn.Path()
}

// Save upserts the payload under the given key.
func (a *Adapter) Save(ctx context.Context, key string, payload []byte) error {
	db, err := a.conn.DB()
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sync_state (key, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at`

	if _, err := db.ExecContext(ctx, query, key, payload, time.Now().UTC()); err != nil {
		return fmt.Errorf("could not save blob %s: %w", key, err)
	}
	return nil
}

// Load returns the payload stored under the given key, or
// ErrStateNotFound when nothing has been persisted yet.
func (a *Adapter) Load(ctx context.Context, key string) ([]byte, error) {
	db, err := a.conn.DB()
	if err != nil {
		return nil, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, "SELECT payload FROM sync_state WHERE key = ?", key).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, domainErrors.ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not load blob %s: %w", key, err)
	}
	return payload, nil
}

// Delete removes the payload stored under the given key.
// Deleting a missing key is not an error.
func (a *Adapter) Delete(ctx context.Context, key string) error {
	db, err := a.conn.DB()
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, "DELETE FROM sync_state WHERE key = ?", key); err != nil {
		return fmt.Errorf("could not delete blob %s: %w", key, err)
	}
	return nil
}
