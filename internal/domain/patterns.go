package domain

import "time"

type PatternType string

const (
	PatternSubjectKeyword        PatternType = "subjectKeyword"
	PatternSenderDomain          PatternType = "senderDomain"
	PatternDocketFormat          PatternType = "docketFormat"
	PatternJobName               PatternType = "jobNamePattern"
	PatternFileDeliveryIndicator PatternType = "fileDeliveryIndicator"
)

// PatternSuggestion is a candidate extraction/qualification rule mined from
// history. Ephemeral: regenerated on every analysis run.
type PatternSuggestion struct {
	Pattern            string      `json:"pattern"`
	PatternType        PatternType `json:"patternType"`
	Confidence         float64     `json:"confidence"` // mean of supporting records
	SupportingExamples int         `json:"supportingExamples"`
	Description        string      `json:"description"`
	GeneratedAt        time.Time   `json:"generatedAt"`
}

// PatternEffectiveness is a retrospective score for a derived pattern.
type PatternEffectiveness struct {
	Pattern                  string      `json:"pattern"`
	PatternType              PatternType `json:"patternType"`
	TotalUses                int         `json:"totalUses"`
	CorrectClassifications   int         `json:"correctClassifications"`
	IncorrectClassifications int         `json:"incorrectClassifications"`
	AverageConfidence        float64     `json:"averageConfidence"`
}

func (p PatternEffectiveness) SuccessRate() float64 {
	if p.TotalUses == 0 {
		return 0
	}
	return float64(p.CorrectClassifications) / float64(p.TotalUses)
}

func (p PatternEffectiveness) NeedsImprovement() bool {
	return p.TotalUses >= 3 && p.SuccessRate() < 0.7
}
