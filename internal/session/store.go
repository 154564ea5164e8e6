package session

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/codelens-ai/codelens/internal/analysis"
)

// History query limits.
const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)

// neutralScore replaces an out-of-range overall score on save. Malformed
// scores are normalized rather than rejected.
const neutralScore = 50

// ErrInvalidInput indicates a missing session id or result.
var ErrInvalidInput = errors.New("invalid session input")

// StorageError surfaces a snapshot persistence failure to direct callers of
// SaveAnalysis. The in-memory mutation has already happened when this is
// returned.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("session storage failed during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Store owns the id→Session map. All mutation goes through the store under
// its mutex, reproducing the one-writer-at-a-time guarantee of the source
// runtime on a genuinely multi-threaded one.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	snapshot Snapshot
	now      func() time.Time
}

// Open activates a store over the given snapshot. If loading the snapshot
// fails the store logs and starts empty: serving with amnesia beats
// refusing to serve.
func Open(snapshot Snapshot) *Store {
	sessions, err := snapshot.LoadAll()
	if err != nil {
		log.Printf("⚠️  failed to load session snapshot, starting empty: %v", err)
		sessions = nil
	}
	// A nil mapping is a legal "nothing stored" answer from LoadAll.
	if sessions == nil {
		sessions = make(map[string]*Session)
	}

	return &Store{
		sessions: sessions,
		snapshot: snapshot,
		now:      time.Now,
	}
}

// Close releases the snapshot.
func (s *Store) Close() error {
	return s.snapshot.Close()
}

// GetOrCreateSession returns a copy of the session for id, creating it
// lazily on first access. Existing sessions get their LastActivity bumped.
// Persistence of the touch is best-effort.
func (s *Store) GetOrCreateSession(id, userID string) (*Session, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}

	s.mu.Lock()
	sess := s.getOrCreateLocked(id, userID)
	sess.LastActivity = s.now()
	if err := s.snapshot.Put(sess); err != nil {
		log.Printf("⚠️  failed to persist session %s: %v", id, err)
	}
	out := sess.clone()
	s.mu.Unlock()

	return out, nil
}

// SaveAnalysis appends a result to the session's history, evicting the
// oldest entry past the cap, and recomputes the derived statistics. The
// overall score is normalized into [0,100] first: anything outside the
// range is replaced with the neutral 50.
//
// Unlike the dispatcher's write-through, a persistence failure here is
// surfaced: a direct caller is responsible for knowing its save did not
// stick.
func (s *Store) SaveAnalysis(id string, result *analysis.AnalysisResult) error {
	if id == "" {
		return fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}
	if result == nil {
		return fmt.Errorf("%w: analysis result is required", ErrInvalidInput)
	}

	stored := *result
	if stored.OverallScore < 0 || stored.OverallScore > 100 {
		stored.OverallScore = neutralScore
	}
	if stored.Security == nil {
		stored.Security = []analysis.Finding{}
	}
	if stored.Performance == nil {
		stored.Performance = []analysis.Finding{}
	}
	if stored.Quality == nil {
		stored.Quality = []analysis.Finding{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getOrCreateLocked(id, "")
	sess.LastActivity = s.now()

	sess.History = append(sess.History, stored)
	if len(sess.History) > HistoryCap {
		sess.History = sess.History[len(sess.History)-HistoryCap:]
	}

	sess.TotalAnalyses++
	sess.ScoreTotal += stored.OverallScore
	sess.AverageScore = int(math.Round(float64(sess.ScoreTotal) / float64(sess.TotalAnalyses)))

	if err := s.snapshot.Put(sess); err != nil {
		return &StorageError{Op: "saveAnalysis", Err: err}
	}
	return nil
}

// GetHistory returns the most recent limit results in append order
// (most-recent last). limit defaults to DefaultHistoryLimit and is clamped
// to [1, MaxHistoryLimit]. An unknown id yields an empty slice, never an
// error.
func (s *Store) GetHistory(id string, limit int) []analysis.AnalysisResult {
	if limit == 0 {
		limit = DefaultHistoryLimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return []analysis.AnalysisResult{}
	}

	history := sess.History
	if len(history) > limit {
		history = history[len(history)-limit:]
	}

	out := make([]analysis.AnalysisResult, len(history))
	copy(out, history)
	return out
}

// GetStats returns the derived view for a session, zero-valued for an
// unknown id. The issue counts cover only the retained history window; see
// Stats.
func (s *Store) GetStats(id string) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Stats{}
	}

	stats := Stats{
		TotalAnalyses: sess.TotalAnalyses,
		AverageScore:  sess.AverageScore,
		LastActivity:  sess.LastActivity,
		CreatedAt:     sess.CreatedAt,
	}
	for _, result := range sess.History {
		stats.SecurityIssuesFound += len(result.FindingsFor(analysis.AspectSecurity))
		stats.PerformanceIssuesFound += len(result.FindingsFor(analysis.AspectPerformance))
		stats.QualityIssuesFound += len(result.FindingsFor(analysis.AspectQuality))
	}
	return stats
}

// Cleanup removes every session idle for longer than maxAge and returns
// how many were removed. An empty store is a no-op. Deleted ids that fail
// to persist stay deleted in memory; the error reports the persistence
// problem.
func (s *Store) Cleanup(maxAge time.Duration) (int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	for id, sess := range s.sessions {
		if now.Sub(sess.LastActivity) > maxAge {
			removed = append(removed, id)
		}
	}
	for _, id := range removed {
		delete(s.sessions, id)
	}

	if len(removed) > 0 {
		if err := s.snapshot.Delete(removed); err != nil {
			return len(removed), &StorageError{Op: "cleanup", Err: err}
		}
	}
	return len(removed), nil
}

// SessionCount reports how many sessions are live. Used by the retention
// worker's logging.
func (s *Store) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// getOrCreateLocked returns the live session for id, creating it if
// needed. Caller holds the write lock.
func (s *Store) getOrCreateLocked(id, userID string) *Session {
	if sess, ok := s.sessions[id]; ok {
		return sess
	}

	now := s.now()
	sess := &Session{
		ID:           id,
		UserID:       userID,
		CreatedAt:    now,
		LastActivity: now,
		History:      []analysis.AnalysisResult{},
	}
	s.sessions[id] = sess
	return sess
}
