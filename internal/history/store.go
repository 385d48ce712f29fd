// Package history keeps a capacity-bounded, most-recent-first record of
// past analyses. One session owns the store at a time; writes are whole-list
// replacements with last-write-wins semantics.
package history

import (
	"context"
	"database/sql"
	"os"
	"sort"
	"strings"
	"sync"

	"medidecode/internal/analysis"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DefaultCap bounds stored items unless overridden by deployment policy.
const DefaultCap = 5

// Item is one persisted analysis together with its originating document
// reference.
type Item struct {
	ID         string          `json:"id"`
	Data       analysis.Result `json:"data"`
	PreviewURL string          `json:"previewUrl"`
	FileType   string          `json:"fileType"`
}

// Store fronts a JSON-file or postgres backend. With an empty path and no
// DSN it is purely in-memory, which the tests rely on.
type Store struct {
	path string
	db   *sql.DB
	cap  int

	loadOnce sync.Once
	mu       sync.RWMutex
	items    []Item

	schemaOnce sync.Once
	schemaErr  error
}

func New(path string, capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	return &Store{path: path, cap: capacity}
}

func NewPostgres(dsn string, capacity int) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if capacity <= 0 {
		capacity = DefaultCap
	}
	return &Store{db: db, cap: capacity}, nil
}

// NewFromEnv prefers HISTORY_PG_DSN and falls back to the file backend.
func NewFromEnv(path string, capacity int) *Store {
	dsn := strings.TrimSpace(os.Getenv("HISTORY_PG_DSN"))
	if dsn == "" {
		return New(path, capacity)
	}
	s, err := NewPostgres(dsn, capacity)
	if err != nil {
		return New(path, capacity)
	}
	return s
}

// Cap returns the capacity bound.
func (s *Store) Cap() int { return s.cap }

// Append prepends the item, truncates to the capacity bound and persists.
// The returned slice reflects the in-memory state even when persistence
// fails, so callers can keep operating and retry persistence later.
func (s *Store) Append(ctx context.Context, item Item) ([]Item, error) {
	if s.db != nil {
		return s.appendDB(ctx, item)
	}
	s.ensureLoadedFile()
	s.mu.Lock()
	s.items = append([]Item{item}, s.items...)
	if len(s.items) > s.cap {
		s.items = s.items[:s.cap]
	}
	snapshot := snapshotLocked(s.items)
	s.mu.Unlock()
	return snapshot, s.saveFile(snapshot)
}

// LoadAll returns items most-recent-first by the result timestamp,
// regardless of physical insertion order in the backing store.
func (s *Store) LoadAll(ctx context.Context) ([]Item, error) {
	if s.db != nil {
		return s.loadAllDB(ctx)
	}
	s.ensureLoadedFile()
	s.mu.RLock()
	snapshot := snapshotLocked(s.items)
	s.mu.RUnlock()
	sortByTimestamp(snapshot)
	return snapshot, nil
}

// ReplaceAll overwrites persisted state with the given list. Used when a
// translation updates one entry in place.
func (s *Store) ReplaceAll(ctx context.Context, items []Item) error {
	if len(items) > s.cap {
		items = items[:s.cap]
	}
	if s.db != nil {
		return s.replaceAllDB(ctx, items)
	}
	s.ensureLoadedFile()
	s.mu.Lock()
	s.items = snapshotLocked(items)
	snapshot := snapshotLocked(s.items)
	s.mu.Unlock()
	return s.saveFile(snapshot)
}

func snapshotLocked(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

func sortByTimestamp(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Data.Timestamp > items[j].Data.Timestamp
	})
}
