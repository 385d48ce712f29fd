package history

import (
	"encoding/json"
	"os"
	"path/filepath"
)

func (s *Store) ensureLoadedFile() {
	s.loadOnce.Do(func() {
		if s.path == "" {
			return
		}
		b, err := os.ReadFile(s.path)
		if err != nil {
			return
		}
		var rows []Item
		if err := json.Unmarshal(b, &rows); err != nil {
			return
		}
		if len(rows) > s.cap {
			rows = rows[:s.cap]
		}
		s.mu.Lock()
		s.items = rows
		s.mu.Unlock()
	})
}

func (s *Store) saveFile(rows []Item) error {
	if s.path == "" {
		return nil
	}
	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o644)
}
