// Package session owns the analysis lifecycle: one current result, a
// bounded history, and the transitions between submitting, ready,
// translating and failed states.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"medidecode/internal/analysis"
	"medidecode/internal/document"
	"medidecode/internal/history"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

type State string

const (
	StateIdle        State = "idle"
	StateSubmitting  State = "submitting"
	StateReady       State = "ready"
	StateTranslating State = "translating"
	StateFailed      State = "failed"
)

var (
	// ErrBusy rejects a second submit while one is in flight. Calls are
	// rejected, not queued; the caller disables triggers meanwhile.
	ErrBusy = errors.New("session: a submission is already in flight")
	// ErrNotReady rejects a language change without a current result.
	ErrNotReady = errors.New("session: no analysis to translate")
	// ErrNoSuchItem is returned when a history id does not resolve.
	ErrNoSuchItem = errors.New("session: history item not found")
)

const translationCacheSize = 32

// Config wires a session. Everything is injected; the session holds no
// ambient singletons.
type Config struct {
	Extractor   *analysis.Extractor
	Translator  *analysis.Translator
	History     *history.Store
	Documents   document.Store
	CallTimeout time.Duration
	Logger      *logrus.Entry
}

// Snapshot is the caller-facing view of the session after an operation.
type Snapshot struct {
	State      State            `json:"state"`
	Result     *analysis.Result `json:"result,omitempty"`
	PreviewURL string           `json:"previewUrl,omitempty"`
	History    []history.Item   `json:"history"`
	Error      string           `json:"error,omitempty"`
	Notice     string           `json:"notice,omitempty"`
}

// Session serializes all state transitions. Remote calls run outside the
// lock; completions are tagged with a generation counter and discarded if
// the session has moved on.
type Session struct {
	mu         sync.Mutex
	state      State
	current    *analysis.Result
	previewURL string
	items      []history.Item
	generation uint64
	errorMsg   string
	notice     string
	dirty      bool // history persistence pending retry

	extractor   *analysis.Extractor
	translator  *analysis.Translator
	store       *history.Store
	docs        document.Store
	cache       *lru.Cache[string, *analysis.Result]
	callTimeout time.Duration
	log         *logrus.Entry
}

func New(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Extractor == nil || cfg.Translator == nil || cfg.History == nil {
		return nil, errors.New("session: extractor, translator and history are required")
	}
	if cfg.Documents == nil {
		cfg.Documents = document.NewMemoryStore()
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 60 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	cache, err := lru.New[string, *analysis.Result](translationCacheSize)
	if err != nil {
		return nil, err
	}

	s := &Session{
		state:       StateIdle,
		extractor:   cfg.Extractor,
		translator:  cfg.Translator,
		store:       cfg.History,
		docs:        cfg.Documents,
		cache:       cache,
		callTimeout: cfg.CallTimeout,
		log:         cfg.Logger,
	}
	items, err := cfg.History.LoadAll(ctx)
	if err != nil {
		// A broken backing store must not prevent new analyses.
		cfg.Logger.WithError(err).Warn("history load failed; starting empty")
		items = nil
	}
	s.items = items
	return s, nil
}

// Submit runs extraction for a new document. Valid from idle, ready or
// failed, and allowed to supersede a pending translation (the stale
// translation result is then discarded). A second submit while one is in
// flight is rejected with ErrBusy.
func (s *Session) Submit(ctx context.Context, doc analysis.Document, language string, profile *analysis.PatientProfile) (Snapshot, error) {
	s.mu.Lock()
	if s.state == StateSubmitting {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, ErrBusy
	}
	s.generation++
	gen := s.generation
	s.state = StateSubmitting
	s.current = nil
	s.previewURL = ""
	s.errorMsg = ""
	s.notice = ""
	s.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	res, err := s.extractor.Analyze(callCtx, doc, language, profile)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		// Superseded while in flight; drop the late response.
		return s.snapshotLocked(), nil
	}
	if err != nil {
		s.state = StateFailed
		s.current = nil
		s.previewURL = ""
		s.errorMsg = submitMessage(err)
		return s.snapshotLocked(), err
	}

	preview := s.storeDocument(ctx, res.ID, doc)
	item := history.Item{ID: res.ID, Data: *res, PreviewURL: preview, FileType: doc.MIMEType}
	s.appendHistoryLocked(ctx, item)

	s.cache.Purge()
	s.cache.Add(cacheKey(res.ID, res.Language), res)
	s.state = StateReady
	s.current = res
	s.previewURL = preview
	return s.snapshotLocked(), nil
}

// ChangeLanguage re-translates the current result. Valid only from ready;
// a same-language request is a no-op with no remote call. On failure the
// previous result stays fully visible and a dismissible notice is set.
func (s *Session) ChangeLanguage(ctx context.Context, language string) (Snapshot, error) {
	s.mu.Lock()
	if s.state != StateReady || s.current == nil {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, ErrNotReady
	}
	if s.current.Language == language {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	if cached, ok := s.cache.Get(cacheKey(s.current.ID, language)); ok {
		s.applyTranslationLocked(ctx, cached)
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	gen := s.generation
	cur := s.current
	s.state = StateTranslating
	s.notice = ""
	s.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	translated, err := s.translator.Translate(callCtx, cur, language)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		// The session moved on (new submission or history selection)
		// while translating. Stale response: discard silently.
		return s.snapshotLocked(), nil
	}
	if err != nil {
		s.state = StateReady
		s.notice = translateMessage(err)
		return s.snapshotLocked(), err
	}
	s.applyTranslationLocked(ctx, translated)
	return s.snapshotLocked(), nil
}

// SelectFromHistory restores a past analysis. No remote calls; valid from
// any state, and supersedes whatever was pending.
func (s *Session) SelectFromHistory(id string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.generation++
			data := s.items[i].Data
			s.current = &data
			s.previewURL = s.items[i].PreviewURL
			s.state = StateReady
			s.errorMsg = ""
			s.notice = ""
			return s.snapshotLocked(), nil
		}
	}
	return s.snapshotLocked(), ErrNoSuchItem
}

// Acknowledge dismisses a failure, returning the session to idle.
func (s *Session) Acknowledge() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateFailed {
		s.state = StateIdle
		s.errorMsg = ""
	}
	return s.snapshotLocked()
}

// DismissNotice clears a non-fatal notice.
func (s *Session) DismissNotice() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = ""
	return s.snapshotLocked()
}

// Snapshot returns the current view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// ---------------------------------------------------------------------------
// internals (all require s.mu held unless noted)
// ---------------------------------------------------------------------------

func (s *Session) snapshotLocked() Snapshot {
	items := make([]history.Item, len(s.items))
	copy(items, s.items)
	return Snapshot{
		State:      s.state,
		Result:     s.current,
		PreviewURL: s.previewURL,
		History:    items,
		Error:      s.errorMsg,
		Notice:     s.notice,
	}
}

// storeDocument persists the upload for previews. Failures are non-fatal:
// the analysis proceeds with an opaque reference. Runs without s.mu held.
func (s *Session) storeDocument(ctx context.Context, id string, doc analysis.Document) string {
	if err := s.docs.Put(ctx, id, doc.MIMEType, doc.Bytes); err != nil {
		s.log.WithError(err).Warn("document store put failed")
		return "doc://" + id
	}
	url, err := s.docs.GetURL(ctx, id)
	if err != nil || url == "" {
		return "doc://" + id
	}
	return url
}

func (s *Session) appendHistoryLocked(ctx context.Context, item history.Item) {
	if s.dirty {
		// A previous persistence attempt failed; resync the whole list.
		s.items = prependTruncate(item, s.items, s.store.Cap())
		err := s.store.ReplaceAll(ctx, s.items)
		s.dirty = err != nil
		if err != nil {
			s.log.WithError(err).Warn("history resync failed")
		}
		return
	}
	items, err := s.store.Append(ctx, item)
	if err != nil {
		s.log.WithError(err).Warn("history append failed")
		s.items = prependTruncate(item, s.items, s.store.Cap())
		s.dirty = true
		return
	}
	s.items = items
}

func (s *Session) applyTranslationLocked(ctx context.Context, translated *analysis.Result) {
	s.current = translated
	s.state = StateReady
	s.cache.Add(cacheKey(translated.ID, translated.Language), translated)
	// Substitute the matching history entry in place; the list length
	// never changes here.
	for i := range s.items {
		if s.items[i].ID == translated.ID || s.items[i].Data.Timestamp == translated.Timestamp {
			s.items[i].Data = *translated
			break
		}
	}
	if err := s.store.ReplaceAll(ctx, s.items); err != nil {
		s.log.WithError(err).Warn("history update failed")
		s.dirty = true
	} else {
		s.dirty = false
	}
}

func prependTruncate(item history.Item, items []history.Item, capacity int) []history.Item {
	out := append([]history.Item{item}, items...)
	if len(out) > capacity {
		out = out[:capacity]
	}
	return out
}

func cacheKey(id, language string) string { return id + "|" + language }
