package domain

import "time"

type ClassificationType string

const (
	TypeNewDocket    ClassificationType = "newDocket"
	TypeFileDelivery ClassificationType = "fileDelivery"
	TypeUnknown      ClassificationType = "unknown"
)

// ClassificationResult is the nested outcome payload of a record. Which
// fields are set depends on the classification type.
type ClassificationResult struct {
	DocketNumber string   `json:"docketNumber,omitempty"`
	JobName      string   `json:"jobName,omitempty"`
	FileLinks    []string `json:"fileLinks,omitempty"`
}

// ClassificationFeedback is a human correction attached to a record after
// the fact. At most one per record; a later call overwrites.
type ClassificationFeedback struct {
	Rating     int       `json:"rating"` // 1-5
	WasCorrect bool      `json:"wasCorrect"`
	Correction string    `json:"correction,omitempty"`
	FeedbackAt time.Time `json:"feedbackAt"`
}

// ClassificationRecord is one classified email. Feedback is the only field
// ever changed after creation, and the store does that by replacing the
// whole record value.
type ClassificationRecord struct {
	ID                 string                  `json:"id"`
	EmailID            string                  `json:"emailId"`
	ThreadID           string                  `json:"threadId,omitempty"`
	Subject            string                  `json:"subject"`
	FromEmail          string                  `json:"fromEmail"`
	ClassifiedAt       time.Time               `json:"classifiedAt"`
	ClassificationType ClassificationType      `json:"classificationType"`
	Result             *ClassificationResult   `json:"result,omitempty"`
	Confidence         float64                 `json:"confidence"`
	DocketNumber       string                  `json:"docketNumber,omitempty"`
	JobName            string                  `json:"jobName,omitempty"`
	WasVerified        bool                    `json:"wasVerified"`
	Feedback           *ClassificationFeedback `json:"feedback,omitempty"`
}

// HasNegativeFeedback reports whether a human marked this record wrong.
func (r ClassificationRecord) HasNegativeFeedback() bool {
	return r.Feedback != nil && !r.Feedback.WasCorrect
}
