package store

import (
	"context"
	"os"
	"time"
)

// Stats holds local state database statistics. Values are never included.
type Stats struct {
	DBPath      string      `json:"db_path"`
	DBSizeBytes int64       `json:"db_size_bytes"`
	Keys        int         `json:"keys"`
	Entries     []EntryStat `json:"entries"`
}

// EntryStat describes one stored key.
type EntryStat struct {
	Key       string    `json:"key"`
	Bytes     int       `json:"bytes"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath, Entries: []EntryStat{}}

	// DB file size
	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT key, LENGTH(value), updated_at FROM kv ORDER BY key`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var e EntryStat
		var updatedAt string
		if err := rows.Scan(&e.Key, &e.Bytes, &updatedAt); err != nil {
			return st, err
		}
		e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		st.Entries = append(st.Entries, e)
	}
	st.Keys = len(st.Entries)

	return st, rows.Err()
}
