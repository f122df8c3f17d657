package sqlite

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"docketbot/internal/domain"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "docketbot-test.db")
	db, err := InitDB(dbPath)
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleRecord(id string, at time.Time) domain.ClassificationRecord {
	return domain.ClassificationRecord{
		ID:                 id,
		EmailID:            "email-" + id,
		ThreadID:           "thread-1",
		Subject:            "New Docket 25493 - Acme Rebrand",
		FromEmail:          "producer@agency.example",
		ClassifiedAt:       at,
		ClassificationType: domain.TypeNewDocket,
		Result: &domain.ClassificationResult{
			DocketNumber: "25493",
			JobName:      "Acme Rebrand",
		},
		Confidence:   0.9,
		DocketNumber: "25493",
		JobName:      "Acme Rebrand",
		WasVerified:  true,
	}
}

func TestInsertAndLoadRoundTrip(t *testing.T) {
	db := newTestDB(t)
	base := time.Now().UTC().Truncate(time.Second)

	if err := InsertClassification(db, sampleRecord("r1", base)); err != nil {
		t.Fatalf("InsertClassification failed: %v", err)
	}
	if err := InsertClassification(db, sampleRecord("r2", base.Add(time.Minute))); err != nil {
		t.Fatalf("InsertClassification failed: %v", err)
	}

	got, err := LoadRecent(db, 10)
	if err != nil {
		t.Fatalf("LoadRecent failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].ID != "r2" || got[1].ID != "r1" {
		t.Fatalf("expected newest first, got %s then %s", got[0].ID, got[1].ID)
	}

	rec := got[1]
	if rec.ClassificationType != domain.TypeNewDocket || rec.DocketNumber != "25493" {
		t.Fatalf("fields lost in round trip: %+v", rec)
	}
	if rec.Result == nil || rec.Result.JobName != "Acme Rebrand" {
		t.Fatalf("result payload lost: %+v", rec.Result)
	}
	if !rec.WasVerified {
		t.Fatal("was_verified lost in round trip")
	}
	if rec.Feedback != nil {
		t.Fatalf("expected no feedback yet, got %+v", rec.Feedback)
	}
}

func TestUpdateFeedback(t *testing.T) {
	db := newTestDB(t)
	base := time.Now().UTC().Truncate(time.Second)
	if err := InsertClassification(db, sampleRecord("r1", base)); err != nil {
		t.Fatalf("InsertClassification failed: %v", err)
	}

	fb := domain.ClassificationFeedback{
		Rating:     2,
		WasCorrect: false,
		Correction: "actually fileDelivery",
		FeedbackAt: base.Add(time.Hour),
	}
	// Matching by email_id works the same as by id.
	if err := UpdateFeedback(db, "email-r1", fb); err != nil {
		t.Fatalf("UpdateFeedback failed: %v", err)
	}

	got, err := LoadRecent(db, 1)
	if err != nil {
		t.Fatalf("LoadRecent failed: %v", err)
	}
	if got[0].Feedback == nil {
		t.Fatal("expected feedback after update")
	}
	if got[0].Feedback.Rating != 2 || got[0].Feedback.WasCorrect || got[0].Feedback.Correction != "actually fileDelivery" {
		t.Fatalf("feedback mismatch: %+v", got[0].Feedback)
	}
}

func TestUpdateFeedbackTouchesOnlyNewestDuplicate(t *testing.T) {
	db := newTestDB(t)
	base := time.Now().UTC().Truncate(time.Second)

	// Two classifications of the same email, re-fed at different times.
	older := sampleRecord("r1", base)
	newer := sampleRecord("r2", base.Add(time.Hour))
	newer.EmailID = older.EmailID
	for _, rec := range []domain.ClassificationRecord{older, newer} {
		if err := InsertClassification(db, rec); err != nil {
			t.Fatalf("InsertClassification failed: %v", err)
		}
	}

	if err := UpdateFeedback(db, older.EmailID, domain.ClassificationFeedback{Rating: 4, WasCorrect: true}); err != nil {
		t.Fatalf("UpdateFeedback failed: %v", err)
	}

	got, err := LoadRecent(db, 10)
	if err != nil {
		t.Fatalf("LoadRecent failed: %v", err)
	}
	if got[0].ID != "r2" || got[0].Feedback == nil {
		t.Fatalf("expected feedback on the newest row, got %+v", got[0])
	}
	if got[1].ID != "r1" || got[1].Feedback != nil {
		t.Fatalf("expected the older duplicate untouched, got %+v", got[1])
	}
}

func TestUpdateFeedbackUnknownID(t *testing.T) {
	db := newTestDB(t)
	err := UpdateFeedback(db, "missing", domain.ClassificationFeedback{Rating: 1})
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestPruneOlderThan(t *testing.T) {
	db := newTestDB(t)
	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"r1", "r2", "r3"} {
		if err := InsertClassification(db, sampleRecord(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("InsertClassification failed: %v", err)
		}
	}

	n, err := PruneOlderThan(db, base.Add(90*time.Minute))
	if err != nil {
		t.Fatalf("PruneOlderThan failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 pruned rows, got %d", n)
	}
	got, err := LoadRecent(db, 10)
	if err != nil {
		t.Fatalf("LoadRecent failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "r3" {
		t.Fatalf("expected only r3 to survive, got %+v", got)
	}
}
