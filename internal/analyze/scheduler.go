// Package analyze runs the pattern suggester and effectiveness analyzer on
// a cron schedule, over a snapshot of the history store so classification
// of incoming mail is never blocked behind a running pass.
package analyze

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"docketbot/internal/domain"
	"docketbot/internal/history"
	"docketbot/internal/notify"
	"docketbot/internal/patterns"
)

type Runner struct {
	Store               *history.Store
	Notifier            *notify.Notifier
	ConfidenceThreshold float64
}

// RunOnce executes one analysis pass and returns its outputs. ctx cancels
// a pass mid-scan.
func (r *Runner) RunOnce(ctx context.Context) ([]domain.PatternSuggestion, []domain.PatternEffectiveness, error) {
	snapshot := r.Store.Snapshot()

	suggestions, err := patterns.ExtractPatterns(ctx, snapshot, r.ConfidenceThreshold)
	if err != nil {
		return nil, nil, err
	}
	effectiveness, err := patterns.AnalyzeEffectiveness(ctx, snapshot)
	if err != nil {
		return suggestions, nil, err
	}

	flagged := 0
	for _, e := range effectiveness {
		if e.NeedsImprovement() {
			flagged++
		}
	}
	log.Printf("analyze complete records=%d suggestions=%d patterns=%d flagged=%d",
		len(snapshot), len(suggestions), len(effectiveness), flagged)
	return suggestions, effectiveness, nil
}

// StartScheduler runs RunOnce on a cron schedule until ctx is cancelled.
// The schedule is a standard 5-field cron expression (minute hour
// day-of-month month day-of-week); empty disables the scheduler.
func (r *Runner) StartScheduler(ctx context.Context, schedule string) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		log.Println("Analysis runs disabled (analyze_schedule not set)")
		return
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Printf("Invalid analyze_schedule '%s': %v; analysis runs disabled", schedule, err)
		return
	}
	log.Printf("Analysis runs scheduled (cron: %s)", schedule)

	go func() {
		for {
			now := time.Now()
			next := sched.Next(now)
			log.Printf("Next analysis at %s (in %s)", next.Format("Mon Jan 2 15:04"), next.Sub(now).Round(time.Minute))

			select {
			case <-ctx.Done():
				return
			case <-time.After(next.Sub(now)):
			}

			suggestions, effectiveness, err := r.RunOnce(ctx)
			if err != nil {
				log.Printf("Analysis run error: %v", err)
				continue
			}
			r.Notifier.PostAnalysisSummary(suggestions, effectiveness)
		}
	}()
}
