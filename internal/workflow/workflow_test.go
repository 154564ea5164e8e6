package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/codelens-ai/codelens/internal/analysis"
	"github.com/codelens-ai/codelens/internal/gateway"
	"github.com/codelens-ai/codelens/internal/session"
)

// fixedCompleter returns the same payload for every aspect call.
type fixedCompleter struct {
	payload string
	err     error
}

func (f *fixedCompleter) Complete(context.Context, gateway.CompleteRequest) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.payload, nil
}

// recordingNotifier captures every attempt and fails the first failUntil of
// them. It also snapshots the session history length at notify time, which
// proves persist ran first.
type recordingNotifier struct {
	mu             sync.Mutex
	store          *session.Store
	failUntil      int
	attempts       int
	historyAtFirst int
}

func (n *recordingNotifier) Notify(_ context.Context, sessionID string, _ *analysis.AnalysisResult) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.attempts++
	if n.attempts == 1 && n.store != nil {
		n.historyAtFirst = len(n.store.GetHistory(sessionID, 100))
	}
	if n.attempts <= n.failUntil {
		return errors.New("notify endpoint down")
	}
	return nil
}

func newTestPipeline(t *testing.T, store *session.Store, notifier Notifier) *Pipeline {
	t.Helper()
	dispatcher := analysis.New(analysis.Config{
		Completer: &fixedCompleter{payload: `{"score": 80, "findings": []}`},
	})
	return New(Config{
		Dispatcher:  dispatcher,
		Store:       store,
		Notifier:    notifier,
		NotifyRetry: RetryPolicy{MaxRetries: 2, Delay: time.Millisecond, Multiplier: 1},
	})
}

func TestRunPersistsBeforeNotify(t *testing.T) {
	store := session.Open(session.NewMemorySnapshot())
	defer store.Close()
	notifier := &recordingNotifier{store: store}
	pipeline := newTestPipeline(t, store, notifier)

	result, err := pipeline.Run(t.Context(), "sess-1", "func main() {}", analysis.AllAspects)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.OverallScore != 80 {
		t.Errorf("OverallScore = %d, want 80", result.OverallScore)
	}
	if notifier.attempts != 1 {
		t.Errorf("notify attempts = %d, want 1", notifier.attempts)
	}
	if notifier.historyAtFirst != 1 {
		t.Errorf("history length at notify time = %d, want 1 (persist must run first)", notifier.historyAtFirst)
	}
	if got := store.GetStats("sess-1").TotalAnalyses; got != 1 {
		t.Errorf("TotalAnalyses = %d, want 1", got)
	}
}

func TestRunFailsOnInvalidInput(t *testing.T) {
	store := session.Open(session.NewMemorySnapshot())
	defer store.Close()
	pipeline := newTestPipeline(t, store, &recordingNotifier{})

	if _, err := pipeline.Run(t.Context(), "sess-1", "", analysis.AllAspects); !errors.Is(err, analysis.ErrInvalidInput) {
		t.Errorf("got %v, want ErrInvalidInput", err)
	}
}

func TestRunSurvivesPersistFailure(t *testing.T) {
	store := session.Open(brokenPutSnapshot{})
	defer store.Close()
	notifier := &recordingNotifier{}
	pipeline := newTestPipeline(t, store, notifier)

	result, err := pipeline.Run(t.Context(), "sess-1", "func main() {}", analysis.AllAspects)
	if err != nil {
		t.Fatalf("Run must not fail on a persist error, got: %v", err)
	}
	if result == nil {
		t.Fatal("expected a result despite the persist failure")
	}
	if notifier.attempts != 1 {
		t.Errorf("notify attempts = %d, want 1 (notify still runs after a persist failure)", notifier.attempts)
	}
}

func TestRunNotifyRetriesThenSucceeds(t *testing.T) {
	store := session.Open(session.NewMemorySnapshot())
	defer store.Close()
	notifier := &recordingNotifier{failUntil: 2}
	pipeline := newTestPipeline(t, store, notifier)

	if _, err := pipeline.Run(t.Context(), "sess-1", "func main() {}", analysis.AllAspects); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if notifier.attempts != 3 {
		t.Errorf("notify attempts = %d, want 3 (two failures then success)", notifier.attempts)
	}
}

func TestRunNotifyGivesUpWithoutFailing(t *testing.T) {
	store := session.Open(session.NewMemorySnapshot())
	defer store.Close()
	notifier := &recordingNotifier{failUntil: 10}
	pipeline := newTestPipeline(t, store, notifier)

	if _, err := pipeline.Run(t.Context(), "sess-1", "func main() {}", analysis.AllAspects); err != nil {
		t.Fatalf("Run must not fail when notify exhausts retries, got: %v", err)
	}
	if notifier.attempts != 3 {
		t.Errorf("notify attempts = %d, want 3 (initial try plus two retries)", notifier.attempts)
	}
}

// brokenPutSnapshot fails every write but loads cleanly, so the persist step
// fails while the in-memory store keeps working.
type brokenPutSnapshot struct{}

func (brokenPutSnapshot) LoadAll() (map[string]*session.Session, error) { return nil, nil }
func (brokenPutSnapshot) Put(*session.Session) error                    { return errors.New("disk full") }
func (brokenPutSnapshot) Delete([]string) error                         { return nil }
func (brokenPutSnapshot) Close() error                                  { return nil }
