package snapshot

import (
	"context"
	"fmt"

	"github.com/daniloab/relay/internal/store"
	"github.com/daniloab/relay/internal/value"
)

// Save persists a record source as a new snapshot and returns its id.
// Records serialize to canonical JSON text; tombstones persist as SQL
// NULL. The snapshot row and all record rows commit atomically.
//
// Uses ON CONFLICT(id) DO NOTHING so replaying a save under a fixed id
// generator is idempotent: if the snapshot already exists, its records are
// left untouched and the existing id is returned.
func (s *Store) Save(ctx context.Context, label string, src store.RecordSource) (string, error) {
	id := s.ids.Generate()
	ids := src.RecordIDs()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("save snapshot: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, label, record_count)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, label, len(ids))
	if err != nil {
		return "", fmt.Errorf("save snapshot: insert snapshot: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("save snapshot: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Snapshot already saved under this id; nothing more to do.
		if err := tx.Commit(); err != nil {
			return "", fmt.Errorf("save snapshot: commit (existing): %w", err)
		}
		return id, nil
	}

	for _, dataID := range ids {
		rec, _ := src.Get(dataID)
		var recordJSON any
		if rec != nil {
			data, err := value.MarshalCanonical(rec.ToObject())
			if err != nil {
				return "", fmt.Errorf("save snapshot: marshal record %q: %w", dataID, err)
			}
			recordJSON = string(data)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO snapshot_records (snapshot_id, data_id, record)
			VALUES (?, ?, ?)
		`, id, string(dataID), recordJSON)
		if err != nil {
			return "", fmt.Errorf("save snapshot: insert record %q: %w", dataID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("save snapshot: commit: %w", err)
	}

	return id, nil
}
