// Package app wires the engine together and runs the line-oriented
// classify loop: one JSON envelope per stdin line, one JSON decision per
// stdout line. Whatever mail client feeds the mailbox produces the
// envelopes; this process never talks to a mail server itself.
package app

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"os"
	"time"

	"docketbot/internal/analyze"
	"docketbot/internal/classify"
	"docketbot/internal/config"
	"docketbot/internal/docket"
	"docketbot/internal/domain"
	"docketbot/internal/history"
	"docketbot/internal/notify"
	"docketbot/internal/storage/sqlite"
)

// request is one stdin line. Kind "email" (default) classifies; kind
// "feedback" attaches a human correction to an earlier decision.
type request struct {
	Kind string `json:"kind,omitempty"`

	classify.Email

	ID         string `json:"id,omitempty"` // record or email id, for feedback
	Rating     int    `json:"rating,omitempty"`
	WasCorrect bool   `json:"wasCorrect,omitempty"`
	Correction string `json:"correction,omitempty"`
}

type response struct {
	OK     bool                         `json:"ok"`
	Error  string                       `json:"error,omitempty"`
	Record *domain.ClassificationRecord `json:"record,omitempty"`
}

// loop holds everything one classify session needs.
type loop struct {
	engine   *classify.Engine
	db       *sql.DB
	notifier *notify.Notifier
	cfg      config.Config
}

func Main() {
	cfg := config.LoadConfig()
	log.Printf("Config loaded. %s", cfg)

	db, err := sqlite.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	defer db.Close()

	store := history.New(cfg.HistoryLimit)
	persisted, err := sqlite.LoadRecent(db, cfg.HistoryLimit)
	if err != nil {
		log.Fatalf("Failed to load classification history: %v", err)
	}
	// LoadRecent is newest-first; replay oldest-first so the store ends up
	// in the same order.
	for i := len(persisted) - 1; i >= 0; i-- {
		store.Record(persisted[i])
	}
	log.Printf("History hydrated records=%d limit=%d", store.Len(), cfg.HistoryLimit)

	notifier := notify.New(cfg.SlackBotToken, cfg.SlackChannelID)

	engine := &classify.Engine{
		Pipeline:  &docket.Pipeline{ValidYearSuffixes: cfg.ValidYearSuffixes},
		Qualifier: cfg.Qualifier,
		Store:     store,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := &analyze.Runner{
		Store:               store,
		Notifier:            notifier,
		ConfidenceThreshold: cfg.ConfidenceThreshold,
	}
	runner.StartScheduler(ctx, cfg.AnalyzeSchedule)

	log.Println("Starting docket classification loop...")
	l := &loop{engine: engine, db: db, notifier: notifier, cfg: cfg}
	l.run(os.Stdin, os.Stdout)
}

func (l *loop) run(in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 1024*1024), 4*1024*1024)
	enc := json.NewEncoder(out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req request
		if err := json.Unmarshal(line, &req); err != nil {
			_ = enc.Encode(response{Error: "bad request: " + err.Error()})
			continue
		}
		_ = enc.Encode(l.handle(req))
	}
	if err := scanner.Err(); err != nil {
		log.Printf("stdin error: %v", err)
	}
}

func (l *loop) handle(req request) response {
	if req.Kind == "feedback" {
		return l.handleFeedback(req)
	}

	rec := l.engine.Classify(req.Email)
	if err := sqlite.InsertClassification(l.db, rec); err != nil {
		log.Printf("persist classification error id=%s: %v", rec.ID, err)
	}
	if rec.Confidence < l.cfg.ReviewConfidenceThreshold {
		l.notifier.PostReviewAlert(rec)
	}
	return response{OK: true, Record: &rec}
}

func (l *loop) handleFeedback(req request) response {
	id := req.ID
	if id == "" {
		id = req.EmailID
	}
	if !l.engine.Store.AddFeedback(id, req.Rating, req.WasCorrect, req.Correction) {
		return response{Error: "no record matches " + id}
	}
	fb := domain.ClassificationFeedback{
		Rating:     req.Rating,
		WasCorrect: req.WasCorrect,
		Correction: req.Correction,
		FeedbackAt: time.Now(),
	}
	if err := sqlite.UpdateFeedback(l.db, id, fb); err != nil {
		log.Printf("persist feedback error id=%s: %v", id, err)
	}
	return response{OK: true}
}
