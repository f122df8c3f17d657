// Package notify posts analysis summaries and review alerts to Slack. It is
// the user-facing collaborator surface: the engine itself never talks to
// anything outside the process.
package notify

import (
	"fmt"
	"log"
	"strings"

	"github.com/slack-go/slack"

	"docketbot/internal/domain"
)

type Notifier struct {
	api       *slack.Client
	channelID string
}

// New returns a Notifier, or nil when token/channel are unset. A nil
// Notifier is safe to call; every method no-ops.
func New(botToken, channelID string) *Notifier {
	if botToken == "" || channelID == "" {
		return nil
	}
	return &Notifier{api: slack.New(botToken), channelID: channelID}
}

// PostAnalysisSummary reports one scheduled analysis run: top suggestions
// and any patterns flagged for improvement.
func (n *Notifier) PostAnalysisSummary(suggestions []domain.PatternSuggestion, effectiveness []domain.PatternEffectiveness) {
	if n == nil {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Pattern analysis: %d suggestions\n", len(suggestions))
	for i, s := range suggestions {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&b, "• [%s] %q — %d examples, confidence %.2f\n",
			s.PatternType, s.Pattern, s.SupportingExamples, s.Confidence)
	}

	var flagged []domain.PatternEffectiveness
	for _, e := range effectiveness {
		if e.NeedsImprovement() {
			flagged = append(flagged, e)
		}
	}
	if len(flagged) > 0 {
		fmt.Fprintf(&b, "Needs improvement:\n")
		for _, e := range flagged {
			fmt.Fprintf(&b, "• [%s] %q — success %.0f%% over %d uses\n",
				e.PatternType, e.Pattern, e.SuccessRate()*100, e.TotalUses)
		}
	}

	n.post(b.String())
}

// PostReviewAlert flags a low-confidence classification for human review.
func (n *Notifier) PostReviewAlert(rec domain.ClassificationRecord) {
	if n == nil {
		return
	}
	msg := fmt.Sprintf("Low-confidence classification (%.2f): %s %q from %s — flagged for review",
		rec.Confidence, rec.ClassificationType, rec.Subject, rec.FromEmail)
	n.post(msg)
}

func (n *Notifier) post(msg string) {
	if _, _, err := n.api.PostMessage(n.channelID, slack.MsgOptionText(msg, false)); err != nil {
		log.Printf("notify slack error: %v", err)
	}
}
