// Package sqlite mirrors the in-memory classification history to disk. The
// core never touches it; the app hydrates the store from here at startup
// and appends through it as decisions are made. Durability lives with the
// caller, not the engine.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"docketbot/internal/domain"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS classifications (
		id                  TEXT PRIMARY KEY,
		email_id            TEXT NOT NULL,
		thread_id           TEXT DEFAULT '',
		subject             TEXT DEFAULT '',
		from_email          TEXT DEFAULT '',
		classified_at       DATETIME NOT NULL,
		classification_type TEXT NOT NULL,
		result_json         TEXT DEFAULT '',
		confidence          REAL NOT NULL,
		docket_number       TEXT DEFAULT '',
		job_name            TEXT DEFAULT '',
		was_verified        INTEGER DEFAULT 0,
		feedback_rating     INTEGER,
		feedback_correct    INTEGER,
		feedback_correction TEXT,
		feedback_at         DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_classifications_date ON classifications(classified_at);
	CREATE INDEX IF NOT EXISTS idx_classifications_email ON classifications(email_id);
	`
	if _, err = db.Exec(schema); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return db, nil
}

func InsertClassification(db *sql.DB, rec domain.ClassificationRecord) error {
	resultJSON := ""
	if rec.Result != nil {
		data, err := json.Marshal(rec.Result)
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		resultJSON = string(data)
	}
	_, err := db.Exec(
		`INSERT INTO classifications
		 (id, email_id, thread_id, subject, from_email, classified_at, classification_type,
		  result_json, confidence, docket_number, job_name, was_verified)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.EmailID, rec.ThreadID, rec.Subject, rec.FromEmail, rec.ClassifiedAt,
		string(rec.ClassificationType), resultJSON, rec.Confidence,
		rec.DocketNumber, rec.JobName, rec.WasVerified,
	)
	return err
}

// UpdateFeedback writes feedback onto the newest row whose id or email_id
// matches, the same row the in-memory store picks when an email_id repeats.
// Last write wins.
func UpdateFeedback(db *sql.DB, idOrEmailID string, fb domain.ClassificationFeedback) error {
	res, err := db.Exec(
		`UPDATE classifications
		 SET feedback_rating = ?, feedback_correct = ?, feedback_correction = ?, feedback_at = ?
		 WHERE rowid = (
			SELECT rowid FROM classifications
			WHERE id = ? OR email_id = ?
			ORDER BY classified_at DESC, id DESC
			LIMIT 1)`,
		fb.Rating, fb.WasCorrect, fb.Correction, fb.FeedbackAt,
		idOrEmailID, idOrEmailID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// LoadRecent returns up to limit records, newest first, for hydrating the
// in-memory store at startup.
func LoadRecent(db *sql.DB, limit int) ([]domain.ClassificationRecord, error) {
	rows, err := db.Query(
		`SELECT id, email_id, thread_id, subject, from_email, classified_at, classification_type,
		        result_json, confidence, docket_number, job_name, was_verified,
		        feedback_rating, feedback_correct, feedback_correction, feedback_at
		 FROM classifications
		 ORDER BY classified_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ClassificationRecord
	for rows.Next() {
		var rec domain.ClassificationRecord
		var ctype, resultJSON string
		var rating sql.NullInt64
		var correct sql.NullBool
		var correction sql.NullString
		var feedbackAt sql.NullTime
		if err := rows.Scan(
			&rec.ID, &rec.EmailID, &rec.ThreadID, &rec.Subject, &rec.FromEmail,
			&rec.ClassifiedAt, &ctype, &resultJSON, &rec.Confidence,
			&rec.DocketNumber, &rec.JobName, &rec.WasVerified,
			&rating, &correct, &correction, &feedbackAt,
		); err != nil {
			return nil, err
		}
		rec.ClassificationType = domain.ClassificationType(ctype)
		if resultJSON != "" {
			var result domain.ClassificationResult
			if err := json.Unmarshal([]byte(resultJSON), &result); err == nil {
				rec.Result = &result
			}
		}
		if rating.Valid {
			rec.Feedback = &domain.ClassificationFeedback{
				Rating:     int(rating.Int64),
				WasCorrect: correct.Bool,
				Correction: correction.String,
			}
			if feedbackAt.Valid {
				rec.Feedback.FeedbackAt = feedbackAt.Time
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// PruneOlderThan deletes rows classified before cutoff, keeping the file
// from growing past the retention the in-memory cap implies.
func PruneOlderThan(db *sql.DB, cutoff time.Time) (int64, error) {
	res, err := db.Exec(`DELETE FROM classifications WHERE classified_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
