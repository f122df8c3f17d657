// Package classify orchestrates a single email's journey through the
// extraction pipeline and the thread qualifier, assigns a confidence to the
// decision, and records it in the history store.
package classify

import (
	"log"
	"strings"

	"docketbot/internal/docket"
	"docketbot/internal/domain"
	"docketbot/internal/history"
	"docketbot/internal/links"
	"docketbot/internal/qualify"
)

// Email is one inbound message as the surrounding application hands it to
// the engine. How it was fetched (IMAP, REST, ...) is not this package's
// concern.
type Email struct {
	EmailID     string   `json:"emailId"`
	ThreadID    string   `json:"threadId,omitempty"`
	Subject     string   `json:"subject"`
	Body        string   `json:"body"`
	From        string   `json:"from"`
	Attachments []string `json:"attachments,omitempty"`
	Labels      []string `json:"labels,omitempty"`
}

// Engine ties the pipeline, qualifier and history store together.
type Engine struct {
	Pipeline  *docket.Pipeline
	Qualifier domain.QualifierConfig
	Store     *history.Store
}

// patternConfidence maps the pipeline's matched pattern to a decision
// confidence. Earlier, more specific tiers score higher.
var patternConfidence = map[string]float64{
	"first_line":          0.95,
	"labeled_pair":        0.90,
	"new_docket":          0.90,
	"new_docket_reversed": 0.85,
	"labeled_number":      0.85,
	"bracketed":           0.80,
	"underscored":         0.80,
	"number_near_text":    0.65,
	"bare_number":         0.50,
	"fallback_scan":       0.50,
	"fallback_scan_long":  0.40,
}

// Classify decides which category email falls into and appends the
// decision to the history store.
func (e *Engine) Classify(email Email) domain.ClassificationRecord {
	rec := domain.ClassificationRecord{
		EmailID:   email.EmailID,
		ThreadID:  email.ThreadID,
		Subject:   email.Subject,
		FromEmail: email.From,
	}

	if parsed := e.Pipeline.Parse(email.Subject, email.Body, email.From); parsed != nil {
		rec.ClassificationType = domain.TypeNewDocket
		rec.DocketNumber = parsed.DocketNumber
		rec.JobName = parsed.JobName
		rec.Confidence = docketConfidence(parsed)
		rec.WasVerified, _ = parsed.RawData["docketExists"].(bool)
		rec.Result = &domain.ClassificationResult{
			DocketNumber: parsed.DocketNumber,
			JobName:      parsed.JobName,
		}
	} else if ok, linkOnly := e.qualifiesAsDelivery(email); ok {
		rec.ClassificationType = domain.TypeFileDelivery
		rec.Result = &domain.ClassificationResult{
			FileLinks: links.ExtractFileHostingLinks(email.Body),
		}
		rec.Confidence = 0.85
		if linkOnly {
			// Only the generic detector fired; weaker signal.
			rec.Confidence = 0.70
		}
	} else {
		rec.ClassificationType = domain.TypeUnknown
		rec.Confidence = 0.30
	}

	rec = e.Store.Record(rec)
	log.Printf("classify decision type=%s confidence=%.2f docket=%s email=%s from=%s",
		rec.ClassificationType, rec.Confidence, rec.DocketNumber, rec.EmailID, rec.FromEmail)
	return rec
}

// qualifiesAsDelivery reports whether the email counts as a file delivery,
// and whether that came via the zero-axes link fallback rather than a
// configured inclusion axis.
func (e *Engine) qualifiesAsDelivery(email Email) (ok, linkOnly bool) {
	msg := qualify.Message{
		Subject:     email.Subject,
		Body:        email.Body,
		Attachments: email.Attachments,
		Labels:      email.Labels,
		From:        email.From,
	}
	if qualify.Excluded(msg, e.Qualifier) {
		return false, false
	}
	if qualify.Qualifies(msg, e.Qualifier) {
		return true, false
	}
	// With no rule set configured the link detector is the only delivery
	// signal left.
	if e.Qualifier.InclusionAxesConfigured() == 0 {
		return qualify.QualifiesByFileHostingLinks(email.Body, e.Qualifier), true
	}
	return false, false
}

func docketConfidence(parsed *domain.ParsedDocket) float64 {
	pattern, _ := parsed.RawData["pattern"].(string)
	conf, ok := patternConfidence[pattern]
	if !ok {
		conf = 0.50
	}
	if src, _ := parsed.RawData["jobNameSource"].(string); src == "metadata" {
		conf += 0.05
	}
	if strings.EqualFold(parsed.DocketNumber, domain.DocketTBD) {
		conf -= 0.10
	}
	if conf > 0.99 {
		conf = 0.99
	}
	return conf
}
