package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

const lastRunKey = "last_reconcile_run"

// RunRecord summarizes a committed reconciliation run.
type RunRecord struct {
	RunID         string    `json:"run_id"`
	Target        string    `json:"target"`
	FinishedAt    time.Time `json:"finished_at"`
	DirsAdded     int       `json:"dirs_added"`
	DirsRemoved   int       `json:"dirs_removed"`
	PhotosAdded   int       `json:"photos_added"`
	PhotosRemoved int       `json:"photos_removed"`
	Skipped       int       `json:"skipped"`
}

// GetMetadata retrieves a metadata value by key.
// Returns sql.ErrNoRows if the key doesn't exist.
func (d *Database) GetMetadata(ctx context.Context, key string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var value sql.NullString
	err := d.db.QueryRowContext(ctx, "SELECT meta_value FROM index_metadata WHERE meta_key = ?", key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value.String, nil
}

// SetMetadata sets a metadata key-value pair.
func (d *Database) SetMetadata(ctx context.Context, key, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, "REPLACE INTO index_metadata (meta_key, meta_value) VALUES (?, ?)", key, value)
	return err
}

// GetLastRun returns the record of the last committed run, or nil if none.
func (d *Database) GetLastRun(ctx context.Context) (*RunRecord, error) {
	value, err := d.GetMetadata(ctx, lastRunKey)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && value == "") {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec RunRecord
	if err := json.Unmarshal([]byte(value), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// SetLastRun stores rec as the last committed run.
func (d *Database) SetLastRun(ctx context.Context, rec RunRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return d.SetMetadata(ctx, lastRunKey, string(data))
}
