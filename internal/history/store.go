// Package history keeps the in-memory log of past classification
// decisions: newest-first, capped, with feedback mutation done as
// copy-on-write so concurrent readers always see a consistent list.
package history

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"docketbot/internal/domain"
)

// DefaultLimit caps the store at ten thousand records; the oldest record
// is evicted first.
const DefaultLimit = 10000

// Store is the single shared classification log. One writer at a time;
// reads run concurrently against the current immutable slice.
type Store struct {
	mu      sync.RWMutex
	records []domain.ClassificationRecord // newest first
	limit   int
}

// New returns a Store capped at limit records. limit <= 0 means
// DefaultLimit.
func New(limit int) *Store {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Store{limit: limit}
}

// Record appends rec at the head, fills in ID/ClassifiedAt when unset, and
// evicts from the tail past the cap. The stored record is returned.
func (s *Store) Record(rec domain.ClassificationRecord) domain.ClassificationRecord {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.ClassifiedAt.IsZero() {
		rec.ClassifiedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.records) + 1
	if n > s.limit {
		n = s.limit
	}
	next := make([]domain.ClassificationRecord, 0, n)
	next = append(next, rec)
	next = append(next, s.records...)
	if len(next) > s.limit {
		next = next[:s.limit]
	}
	s.records = next
	return rec
}

// AddFeedback attaches feedback to the record whose ID or EmailID matches
// idOrEmailID. A record carries at most one feedback value; a later call
// overwrites the earlier one. Returns false when no record matches.
func (s *Store) AddFeedback(idOrEmailID string, rating int, wasCorrect bool, correction string) bool {
	fb := &domain.ClassificationFeedback{
		Rating:     rating,
		WasCorrect: wasCorrect,
		Correction: correction,
		FeedbackAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, rec := range s.records {
		if rec.ID == idOrEmailID || rec.EmailID == idOrEmailID {
			next := make([]domain.ClassificationRecord, len(s.records))
			copy(next, s.records)
			next[i].Feedback = fb
			s.records = next
			return true
		}
	}
	return false
}

// Len reports the current record count.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Snapshot returns a copy of the full list, newest first. Analyzer runs
// work over a snapshot so they never block or observe concurrent writes.
func (s *Store) Snapshot() []domain.ClassificationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ClassificationRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Recent returns up to limit records, newest first. limit <= 0 means all.
func (s *Store) Recent(limit int) []domain.ClassificationRecord {
	return s.filter(limit, func(domain.ClassificationRecord) bool { return true })
}

// InRange returns records classified in [from, to), newest first.
func (s *Store) InRange(from, to time.Time, limit int) []domain.ClassificationRecord {
	return s.filter(limit, func(r domain.ClassificationRecord) bool {
		return !r.ClassifiedAt.Before(from) && r.ClassifiedAt.Before(to)
	})
}

// BelowConfidence returns records under the threshold, newest first. These
// are the "flagged for review" candidates.
func (s *Store) BelowConfidence(threshold float64, limit int) []domain.ClassificationRecord {
	return s.filter(limit, func(r domain.ClassificationRecord) bool {
		return r.Confidence < threshold
	})
}

// MissingFeedback returns records nobody has rated yet, newest first.
func (s *Store) MissingFeedback(limit int) []domain.ClassificationRecord {
	return s.filter(limit, func(r domain.ClassificationRecord) bool {
		return r.Feedback == nil
	})
}

func (s *Store) filter(limit int, keep func(domain.ClassificationRecord) bool) []domain.ClassificationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ClassificationRecord
	for _, rec := range s.records {
		if !keep(rec) {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// SimilarTo ranks records by TF-IDF cosine similarity of their subjects to
// the query and returns the top limit matches.
func (s *Store) SimilarTo(subject string, limit int) []domain.ClassificationRecord {
	snapshot := s.Snapshot()
	if len(snapshot) == 0 || limit <= 0 {
		return nil
	}
	idx := buildSubjectIndex(snapshot)
	return idx.topK(subject, limit)
}
