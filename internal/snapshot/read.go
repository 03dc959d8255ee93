package snapshot

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/daniloab/relay/internal/store"
	"github.com/daniloab/relay/internal/value"
)

// Info describes one saved snapshot.
type Info struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	CreatedAt   string `json:"created_at"`
	RecordCount int    `json:"record_count"`
}

// ErrNotFound is returned by Load for an unknown snapshot id.
var ErrNotFound = fmt.Errorf("snapshot not found")

// Load rebuilds the record source saved under id. NULL record rows come
// back as tombstones.
func (s *Store) Load(ctx context.Context, id string) (*store.MapRecordSource, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM snapshots WHERE id = ?
	`, id).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("load snapshot %q: %w", id, ErrNotFound)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT data_id, record FROM snapshot_records
		WHERE snapshot_id = ?
		ORDER BY data_id ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: query records: %w", err)
	}
	defer rows.Close()

	src := store.NewMapRecordSource()
	for rows.Next() {
		var dataID string
		var record sql.NullString
		if err := rows.Scan(&dataID, &record); err != nil {
			return nil, fmt.Errorf("load snapshot: scan record: %w", err)
		}

		if !record.Valid {
			src.Delete(store.DataID(dataID))
			continue
		}

		parsed, err := value.Unmarshal([]byte(record.String))
		if err != nil {
			return nil, fmt.Errorf("load snapshot: parse record %q: %w", dataID, err)
		}
		obj, ok := parsed.(value.Object)
		if !ok {
			return nil, fmt.Errorf("load snapshot: record %q is not an object", dataID)
		}
		rec, err := store.RecordFromObject(obj)
		if err != nil {
			return nil, fmt.Errorf("load snapshot: record %q: %w", dataID, err)
		}
		src.Set(store.DataID(dataID), rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load snapshot: iterate records: %w", err)
	}

	return src, nil
}

// List returns every saved snapshot ordered by creation (UUIDv7 ids sort
// chronologically, so id order is creation order).
func (s *Store) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, created_at, record_count FROM snapshots
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var info Info
		if err := rows.Scan(&info.ID, &info.Label, &info.CreatedAt, &info.RecordCount); err != nil {
			return nil, fmt.Errorf("list snapshots: scan: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: iterate: %w", err)
	}

	return infos, nil
}
