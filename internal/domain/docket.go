package domain

// DocketTBD is the sentinel docket number for emails that announce a job
// before a number has been assigned ("Docket: TBD").
const DocketTBD = "TBD"

// ParsedDocket is the pipeline's output. Immutable once returned.
type ParsedDocket struct {
	DocketNumber string         `json:"docketNumber"` // digits + optional -XX country suffix, or "TBD"
	JobName      string         `json:"jobName"`
	SourceEmail  string         `json:"sourceEmail"` // sender, or "unknown"
	RawData      map[string]any `json:"rawData,omitempty"`
}

// JobMetadata is what the authoritative metadata lookup returns for a
// docket number. The lookup itself lives outside this core.
type JobMetadata struct {
	DocketNumber string `json:"docketNumber"`
	JobName      string `json:"jobName"`
	Client       string `json:"client,omitempty"`
}

// CompanyMatch is a fuzzy company-name match with its score (0-1).
type CompanyMatch struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}
