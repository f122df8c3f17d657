package patterns

import (
	"context"
	"sort"

	"docketbot/internal/domain"
)

// AnalyzeEffectiveness re-walks the whole history snapshot, buckets records
// by the same derived shapes the suggester uses (docket format and sender
// domain), and scores each bucket. A record counts as correct when a human
// confirmed it, or, absent feedback, when the docket was verified against
// the external system; it counts as incorrect only on negative feedback.
// Patterns scoring under 0.7 across three or more uses are flagged via
// NeedsImprovement for retirement or revision.
func AnalyzeEffectiveness(ctx context.Context, records []domain.ClassificationRecord) ([]domain.PatternEffectiveness, error) {
	type bucket struct {
		total, correct, incorrect int
		confidenceSum             float64
	}
	buckets := make(map[string]*bucket)
	types := make(map[string]domain.PatternType)

	tally := func(key string, ptype domain.PatternType, rec domain.ClassificationRecord) {
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
			types[key] = ptype
		}
		b.total++
		b.confidenceSum += rec.Confidence
		switch {
		case rec.Feedback != nil && rec.Feedback.WasCorrect:
			b.correct++
		case rec.Feedback != nil:
			b.incorrect++
		case rec.WasVerified:
			b.correct++
		}
	}

	for i, rec := range records {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if shape := ShapeOf(rec.DocketNumber); shape != "" {
			tally("format:"+shape, domain.PatternDocketFormat, rec)
		}
		if dom := senderDomain(rec.FromEmail); dom != "" {
			tally("domain:"+dom, domain.PatternSenderDomain, rec)
		}
	}

	out := make([]domain.PatternEffectiveness, 0, len(buckets))
	for key, b := range buckets {
		ptype := types[key]
		pattern := key[len("format:"):]
		if ptype == domain.PatternSenderDomain {
			pattern = key[len("domain:"):]
		}
		out = append(out, domain.PatternEffectiveness{
			Pattern:                  pattern,
			PatternType:              ptype,
			TotalUses:                b.total,
			CorrectClassifications:   b.correct,
			IncorrectClassifications: b.incorrect,
			AverageConfidence:        b.confidenceSum / float64(b.total),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalUses != out[j].TotalUses {
			return out[i].TotalUses > out[j].TotalUses
		}
		return out[i].Pattern < out[j].Pattern
	})
	return out, ctx.Err()
}
