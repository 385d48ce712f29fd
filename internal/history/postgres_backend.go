package history

import (
	"context"
	"encoding/json"
)

func (s *Store) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS analysis_history (
  id TEXT PRIMARY KEY,
  data JSONB NOT NULL,
  preview_url TEXT NOT NULL DEFAULT '',
  file_type TEXT NOT NULL DEFAULT '',
  result_ts BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_analysis_history_ts ON analysis_history (result_ts DESC);
`)
	})
	return s.schemaErr
}

func (s *Store) appendDB(ctx context.Context, item Item) ([]Item, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	data, err := json.Marshal(item.Data)
	if err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
INSERT INTO analysis_history (id, data, preview_url, file_type, result_ts)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id)
DO UPDATE SET data=EXCLUDED.data, preview_url=EXCLUDED.preview_url,
  file_type=EXCLUDED.file_type, result_ts=EXCLUDED.result_ts`,
		item.ID, data, item.PreviewURL, item.FileType, item.Data.Timestamp)
	if err != nil {
		return nil, err
	}
	// Enforce the capacity bound at write time.
	_, err = tx.ExecContext(ctx, `
DELETE FROM analysis_history
WHERE id NOT IN (SELECT id FROM analysis_history ORDER BY result_ts DESC LIMIT $1)`, s.cap)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.loadAllDB(ctx)
}

func (s *Store) loadAllDB(ctx context.Context) ([]Item, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, data, preview_url, file_type FROM analysis_history
ORDER BY result_ts DESC LIMIT $1`, s.cap)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Item, 0, s.cap)
	for rows.Next() {
		var item Item
		var data []byte
		if err := rows.Scan(&item.ID, &data, &item.PreviewURL, &item.FileType); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &item.Data); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *Store) replaceAllDB(ctx context.Context, items []Item) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM analysis_history`); err != nil {
		return err
	}
	for _, item := range items {
		data, err := json.Marshal(item.Data)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO analysis_history (id, data, preview_url, file_type, result_ts)
VALUES ($1, $2, $3, $4, $5)`,
			item.ID, data, item.PreviewURL, item.FileType, item.Data.Timestamp)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}
