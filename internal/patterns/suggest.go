// Package patterns mines classification history for candidate extraction
// rules and scores how well the derived patterns have performed. Both
// entry points are read-only batch scans, cancellable via context.
package patterns

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"docketbot/internal/domain"
)

// DefaultConfidenceThreshold filters which records are trusted enough to
// mine patterns from.
const DefaultConfidenceThreshold = 0.8

// minSupport is the minimum number of distinct records a candidate pattern
// must appear in.
const minSupport = 3

// minTokenLen drops short subject tokens before counting.
const minTokenLen = 4

var stopWords = map[string]bool{
	"this": true, "that": true, "with": true, "from": true, "have": true,
	"your": true, "please": true, "attached": true, "thanks": true,
	"hello": true, "there": true, "will": true, "been": true, "about": true,
	"docket": true, "email": true, "mail": true,
}

// checkEvery bounds how many records are scanned between context checks.
const checkEvery = 256

// ExtractPatterns mines the given history snapshot for new rule candidates:
// subject keywords, sender domains and docket-number shapes. Records below
// the confidence threshold or with negative feedback are ignored. Results
// are ranked by confidence x support.
func ExtractPatterns(ctx context.Context, records []domain.ClassificationRecord, confidenceThreshold float64) ([]domain.PatternSuggestion, error) {
	if confidenceThreshold <= 0 {
		confidenceThreshold = DefaultConfidenceThreshold
	}

	var trusted []domain.ClassificationRecord
	for i, rec := range records {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if rec.Confidence >= confidenceThreshold && !rec.HasNegativeFeedback() {
			trusted = append(trusted, rec)
		}
	}
	if len(trusted) == 0 {
		return nil, nil
	}

	now := time.Now()
	var out []domain.PatternSuggestion
	out = append(out, subjectKeywordSuggestions(trusted, now)...)
	out = append(out, senderDomainSuggestions(trusted, now)...)
	out = append(out, docketFormatSuggestions(trusted, now)...)

	sort.SliceStable(out, func(i, j int) bool {
		return rank(out[i]) > rank(out[j])
	})
	return out, ctx.Err()
}

func rank(s domain.PatternSuggestion) float64 {
	return s.Confidence * float64(s.SupportingExamples)
}

type supportBucket struct {
	count         int
	confidenceSum float64
}

func (b *supportBucket) add(conf float64) {
	b.count++
	b.confidenceSum += conf
}

func (b supportBucket) meanConfidence() float64 {
	if b.count == 0 {
		return 0
	}
	return b.confidenceSum / float64(b.count)
}

func subjectKeywordSuggestions(records []domain.ClassificationRecord, now time.Time) []domain.PatternSuggestion {
	buckets := make(map[string]*supportBucket)
	for _, rec := range records {
		seen := make(map[string]bool)
		for _, tok := range tokenizeWords(rec.Subject) {
			if len(tok) < minTokenLen || stopWords[tok] || seen[tok] {
				continue
			}
			seen[tok] = true // count each word once per record
			bucket, ok := buckets[tok]
			if !ok {
				bucket = &supportBucket{}
				buckets[tok] = bucket
			}
			bucket.add(rec.Confidence)
		}
	}
	return collect(buckets, domain.PatternSubjectKeyword, now, func(word string, b supportBucket) string {
		return fmt.Sprintf("subject word %q appeared in %d confident classifications", word, b.count)
	})
}

func senderDomainSuggestions(records []domain.ClassificationRecord, now time.Time) []domain.PatternSuggestion {
	buckets := make(map[string]*supportBucket)
	for _, rec := range records {
		dom := senderDomain(rec.FromEmail)
		if dom == "" {
			continue
		}
		bucket, ok := buckets[dom]
		if !ok {
			bucket = &supportBucket{}
			buckets[dom] = bucket
		}
		bucket.add(rec.Confidence)
	}
	return collect(buckets, domain.PatternSenderDomain, now, func(dom string, b supportBucket) string {
		return fmt.Sprintf("sender domain %s produced %d confident classifications", dom, b.count)
	})
}

func docketFormatSuggestions(records []domain.ClassificationRecord, now time.Time) []domain.PatternSuggestion {
	buckets := make(map[string]*supportBucket)
	for _, rec := range records {
		shape := ShapeOf(rec.DocketNumber)
		if shape == "" {
			continue
		}
		bucket, ok := buckets[shape]
		if !ok {
			bucket = &supportBucket{}
			buckets[shape] = bucket
		}
		bucket.add(rec.Confidence)
	}
	return collect(buckets, domain.PatternDocketFormat, now, func(shape string, b supportBucket) string {
		return fmt.Sprintf("docket format %s extracted %d times", shape, b.count)
	})
}

func collect(buckets map[string]*supportBucket, ptype domain.PatternType, now time.Time, describe func(string, supportBucket) string) []domain.PatternSuggestion {
	var out []domain.PatternSuggestion
	for pattern, b := range buckets {
		if b.count < minSupport {
			continue
		}
		out = append(out, domain.PatternSuggestion{
			Pattern:            pattern,
			PatternType:        ptype,
			Confidence:         b.meanConfidence(),
			SupportingExamples: b.count,
			Description:        describe(pattern, *b),
			GeneratedAt:        now,
		})
	}
	return out
}

// ShapeOf collapses a docket number's digit runs into #/#{n} tokens, so
// "25493-AU" groups with every other five-digit suffixed number as
// "#{5}-AU".
func ShapeOf(number string) string {
	if number == "" || number == domain.DocketTBD {
		return ""
	}
	var b strings.Builder
	run := 0
	flush := func() {
		if run == 0 {
			return
		}
		if run == 1 {
			b.WriteByte('#')
		} else {
			fmt.Fprintf(&b, "#{%d}", run)
		}
		run = 0
	}
	for _, r := range number {
		if unicode.IsDigit(r) {
			run++
			continue
		}
		flush()
		b.WriteRune(r)
	}
	flush()
	return b.String()
}

func tokenizeWords(s string) []string {
	s = strings.ToLower(s)
	var tokens []string
	var cur strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(r)
		} else {
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

func senderDomain(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	i := strings.LastIndexByte(email, '@')
	if i < 0 || i == len(email)-1 {
		return ""
	}
	return strings.Trim(email[i+1:], ">. ")
}
