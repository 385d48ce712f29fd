package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"medidecode/internal/analysis"
	"medidecode/internal/history"
	"medidecode/internal/llmclient"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func payload(summary string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(
		`{"summary":%q,"medicines":[],"keyRecommendations":["Rest well"],"confidenceScore":90}`, summary))
}

func testDoc() analysis.Document {
	return analysis.Document{Bytes: []byte("fake-image-bytes"), MIMEType: "image/png"}
}

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newTestSession(t *testing.T, cli llmclient.Client, store *history.Store) *Session {
	t.Helper()
	if store == nil {
		store = history.New("", 5)
	}
	s, err := New(context.Background(), Config{
		Extractor:  analysis.NewExtractor(cli),
		Translator: analysis.NewTranslator(cli),
		History:    store,
		Logger:     quietLogger(),
	})
	require.NoError(t, err)
	return s
}

// hookClient routes every structured call through a per-call hook so tests
// can block or fail specific calls.
type hookClient struct {
	llmclient.FakeClient
	mu    sync.Mutex
	calls int
	fn    func(call int) (json.RawMessage, error)
}

func (h *hookClient) GenerateJSON(ctx context.Context, req llmclient.JSONRequest) (json.RawMessage, error) {
	h.mu.Lock()
	h.calls++
	call := h.calls
	h.mu.Unlock()
	return h.fn(call)
}

func TestSubmitProducesReadyResult(t *testing.T) {
	cli := &llmclient.FakeClient{JSONScript: []llmclient.FakeJSON{{Raw: payload("Take with food")}}}
	s := newTestSession(t, cli, nil)

	snap, err := s.Submit(context.Background(), testDoc(), "English", nil)
	require.NoError(t, err)
	require.Equal(t, StateReady, snap.State)
	require.NotNil(t, snap.Result)
	require.Equal(t, "Take with food", snap.Result.Summary)
	require.Equal(t, "English", snap.Result.Language)
	require.NotEmpty(t, snap.Result.ID)
	require.Len(t, snap.History, 1)
	require.Equal(t, snap.Result.ID, snap.History[0].ID)
	require.True(t, strings.HasPrefix(snap.PreviewURL, "doc://"))
}

func TestSubmitFailureEntersFailedWithStableMessage(t *testing.T) {
	cli := &llmclient.FakeClient{JSONScript: []llmclient.FakeJSON{
		{Err: llmclient.NewFault(llmclient.KindBlocked, "safety stop")},
	}}
	s := newTestSession(t, cli, nil)

	snap, err := s.Submit(context.Background(), testDoc(), "English", nil)
	require.Error(t, err)
	require.Equal(t, StateFailed, snap.State)
	require.Nil(t, snap.Result)
	require.Empty(t, snap.History)
	// Copy keyed off the fault kind, never the raw provider text.
	require.NotContains(t, snap.Error, "safety stop")
	require.Contains(t, snap.Error, "could not be processed")

	snap = s.Acknowledge()
	require.Equal(t, StateIdle, snap.State)
	require.Empty(t, snap.Error)
}

func TestSubmitWhileSubmittingIsRejected(t *testing.T) {
	release := make(chan struct{})
	cli := &hookClient{fn: func(call int) (json.RawMessage, error) {
		if call == 1 {
			<-release
		}
		return payload("first"), nil
	}}
	s := newTestSession(t, cli, nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), testDoc(), "English", nil)
		done <- err
	}()
	require.Eventually(t, func() bool {
		return s.Snapshot().State == StateSubmitting
	}, time.Second, 5*time.Millisecond)

	_, err := s.Submit(context.Background(), testDoc(), "English", nil)
	require.ErrorIs(t, err, ErrBusy)

	close(release)
	require.NoError(t, <-done)
	require.Equal(t, StateReady, s.Snapshot().State)
}

func TestChangeLanguageRequiresResult(t *testing.T) {
	s := newTestSession(t, &llmclient.FakeClient{}, nil)
	_, err := s.ChangeLanguage(context.Background(), "Hindi")
	require.ErrorIs(t, err, ErrNotReady)
}

func TestChangeLanguageSameLanguageSkipsRemoteCall(t *testing.T) {
	cli := &llmclient.FakeClient{JSONScript: []llmclient.FakeJSON{{Raw: payload("summary")}}}
	s := newTestSession(t, cli, nil)

	_, err := s.Submit(context.Background(), testDoc(), "English", nil)
	require.NoError(t, err)
	require.Equal(t, 1, cli.JSONCalls)

	snap, err := s.ChangeLanguage(context.Background(), "English")
	require.NoError(t, err)
	require.Equal(t, StateReady, snap.State)
	require.Equal(t, 1, cli.JSONCalls)
}

func TestChangeLanguageUpdatesHistoryInPlace(t *testing.T) {
	cli := &llmclient.FakeClient{JSONScript: []llmclient.FakeJSON{
		{Raw: payload("Take with food")},
		{Raw: payload("भोजन के साथ लें")},
	}}
	s := newTestSession(t, cli, nil)

	first, err := s.Submit(context.Background(), testDoc(), "English", nil)
	require.NoError(t, err)

	snap, err := s.ChangeLanguage(context.Background(), "Hindi")
	require.NoError(t, err)
	require.Equal(t, StateReady, snap.State)
	require.Equal(t, "Hindi", snap.Result.Language)
	require.Equal(t, "भोजन के साथ लें", snap.Result.Summary)
	// Identity survives translation; history is substituted, not grown.
	require.Equal(t, first.Result.ID, snap.Result.ID)
	require.Equal(t, first.Result.Timestamp, snap.Result.Timestamp)
	require.Len(t, snap.History, 1)
	require.Equal(t, "Hindi", snap.History[0].Data.Language)
}

func TestChangeLanguageFailureKeepsCurrentResult(t *testing.T) {
	cli := &llmclient.FakeClient{JSONScript: []llmclient.FakeJSON{
		{Raw: payload("Take with food")},
		{Err: llmclient.NewFault(llmclient.KindNetwork, "conn reset")},
	}}
	s := newTestSession(t, cli, nil)

	_, err := s.Submit(context.Background(), testDoc(), "English", nil)
	require.NoError(t, err)

	snap, err := s.ChangeLanguage(context.Background(), "Hindi")
	require.Error(t, err)
	require.Equal(t, StateReady, snap.State)
	require.Equal(t, "English", snap.Result.Language)
	require.Equal(t, "Take with food", snap.Result.Summary)
	require.NotEmpty(t, snap.Notice)
	require.NotContains(t, snap.Notice, "conn reset")

	snap = s.DismissNotice()
	require.Empty(t, snap.Notice)
}

func TestTranslationCacheAvoidsRepeatCalls(t *testing.T) {
	cli := &llmclient.FakeClient{JSONScript: []llmclient.FakeJSON{
		{Raw: payload("Take with food")},
		{Raw: payload("भोजन के साथ लें")},
	}}
	s := newTestSession(t, cli, nil)

	_, err := s.Submit(context.Background(), testDoc(), "English", nil)
	require.NoError(t, err)
	_, err = s.ChangeLanguage(context.Background(), "Hindi")
	require.NoError(t, err)
	require.Equal(t, 2, cli.JSONCalls)

	// Both directions are now cached.
	snap, err := s.ChangeLanguage(context.Background(), "English")
	require.NoError(t, err)
	require.Equal(t, "English", snap.Result.Language)
	snap, err = s.ChangeLanguage(context.Background(), "Hindi")
	require.NoError(t, err)
	require.Equal(t, "Hindi", snap.Result.Language)
	require.Equal(t, 2, cli.JSONCalls)
}

func TestStaleTranslationDiscardedAfterNewSubmit(t *testing.T) {
	release := make(chan struct{})
	cli := &hookClient{fn: func(call int) (json.RawMessage, error) {
		switch call {
		case 1:
			return payload("first report"), nil
		case 2: // translation of the first report, held open
			<-release
			return payload("पहली रिपोर्ट"), nil
		default:
			return payload("second report"), nil
		}
	}}
	s := newTestSession(t, cli, nil)

	_, err := s.Submit(context.Background(), testDoc(), "English", nil)
	require.NoError(t, err)

	transDone := make(chan Snapshot, 1)
	go func() {
		snap, _ := s.ChangeLanguage(context.Background(), "Hindi")
		transDone <- snap
	}()
	require.Eventually(t, func() bool {
		return s.Snapshot().State == StateTranslating
	}, time.Second, 5*time.Millisecond)

	// A new submission supersedes the pending translation.
	snap, err := s.Submit(context.Background(), testDoc(), "English", nil)
	require.NoError(t, err)
	require.Equal(t, "second report", snap.Result.Summary)

	close(release)
	late := <-transDone
	require.Equal(t, StateReady, late.State)
	require.Equal(t, "second report", late.Result.Summary)
	require.Equal(t, "English", late.Result.Language)
	require.Empty(t, late.Notice)

	final := s.Snapshot()
	require.Equal(t, "second report", final.Result.Summary)
	require.Equal(t, "English", final.Result.Language)
}

func TestSelectFromHistoryRestoresPastAnalysis(t *testing.T) {
	cli := &llmclient.FakeClient{JSONScript: []llmclient.FakeJSON{
		{Raw: payload("first report")},
		{Raw: payload("second report")},
	}}
	s := newTestSession(t, cli, nil)

	first, err := s.Submit(context.Background(), testDoc(), "English", nil)
	require.NoError(t, err)
	_, err = s.Submit(context.Background(), testDoc(), "English", nil)
	require.NoError(t, err)

	snap, err := s.SelectFromHistory(first.Result.ID)
	require.NoError(t, err)
	require.Equal(t, StateReady, snap.State)
	require.Equal(t, "first report", snap.Result.Summary)
	require.Len(t, snap.History, 2)

	_, err = s.SelectFromHistory("no-such-id")
	require.ErrorIs(t, err, ErrNoSuchItem)
}

func TestHistoryPersistenceFailureIsNonFatal(t *testing.T) {
	// A file where a directory should be makes every save fail.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	store := history.New(filepath.Join(blocker, "sub", "items.json"), 5)

	cli := &llmclient.FakeClient{JSONScript: []llmclient.FakeJSON{
		{Raw: payload("first report")},
		{Raw: payload("second report")},
	}}
	s := newTestSession(t, cli, store)

	snap, err := s.Submit(context.Background(), testDoc(), "English", nil)
	require.NoError(t, err)
	require.Equal(t, StateReady, snap.State)
	require.Len(t, snap.History, 1)

	snap, err = s.Submit(context.Background(), testDoc(), "English", nil)
	require.NoError(t, err)
	require.Len(t, snap.History, 2)
	require.Equal(t, "second report", snap.History[0].Data.Summary)
}
