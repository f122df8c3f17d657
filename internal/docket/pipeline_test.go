package docket

import (
	"testing"
	"time"

	"docketbot/internal/domain"
)

func testPipeline() *Pipeline {
	return &Pipeline{ValidYearSuffixes: []string{"25", "26"}}
}

type stubMetadata struct{ md *domain.JobMetadata }

func (s stubMetadata) Find(docketNumber, jobNameHint string) *domain.JobMetadata { return s.md }

type stubExistence struct{ exists bool }

func (s stubExistence) Exists(docketNumber string) bool { return s.exists }

type stubFuzzy struct{ match *domain.CompanyMatch }

func (s stubFuzzy) BestMatch(text string) *domain.CompanyMatch { return s.match }

func TestParseNewDocketSubject(t *testing.T) {
	p := testPipeline()
	parsed := p.Parse("New Docket 25493 - Nike Spring Campaign", "", "producer@agency.example")
	if parsed == nil {
		t.Fatal("expected a parse result")
	}
	if parsed.DocketNumber != "25493" {
		t.Fatalf("expected docket 25493, got %q", parsed.DocketNumber)
	}
	if parsed.JobName != "Nike Spring Campaign" {
		t.Fatalf("expected job name from pattern, got %q", parsed.JobName)
	}
	if parsed.SourceEmail != "producer@agency.example" {
		t.Fatalf("unexpected source email %q", parsed.SourceEmail)
	}
	if parsed.RawData["pattern"] != "new_docket" {
		t.Fatalf("expected new_docket pattern, got %v", parsed.RawData["pattern"])
	}
}

func TestParseReversedNameAndNumber(t *testing.T) {
	p := testPipeline()
	parsed := p.Parse("New Docket Nike Spring Campaign 25493", "", "")
	if parsed == nil {
		t.Fatal("expected a parse result")
	}
	if parsed.DocketNumber != "25493" || parsed.JobName != "Nike Spring Campaign" {
		t.Fatalf("expected fields unswapped, got number=%q name=%q", parsed.DocketNumber, parsed.JobName)
	}
	if parsed.RawData["pattern"] != "new_docket_reversed" {
		t.Fatalf("expected new_docket_reversed, got %v", parsed.RawData["pattern"])
	}
}

func TestParseFirstLineTier(t *testing.T) {
	p := testPipeline()
	body := "25493-AU Nike Spring Campaign\nDeliverables attached below."
	parsed := p.Parse("production update", body, "")
	if parsed == nil {
		t.Fatal("expected a parse result")
	}
	if parsed.DocketNumber != "25493-AU" {
		t.Fatalf("expected suffix preserved and upcased, got %q", parsed.DocketNumber)
	}
	if parsed.JobName != "Nike Spring Campaign" {
		t.Fatalf("unexpected job name %q", parsed.JobName)
	}
	if parsed.RawData["tier"] != "first_line" {
		t.Fatalf("expected first_line tier, got %v", parsed.RawData["tier"])
	}
}

func TestParseSuffixCaseNormalized(t *testing.T) {
	p := testPipeline()
	parsed := p.Parse("New Docket 25493-au - Acme Rebrand", "", "")
	if parsed == nil {
		t.Fatal("expected a parse result")
	}
	if parsed.DocketNumber != "25493-AU" {
		t.Fatalf("expected upcased suffix, got %q", parsed.DocketNumber)
	}
}

func TestParseTBDLabeledPair(t *testing.T) {
	p := testPipeline()
	parsed := p.Parse("New docket: TBD, job name is Acme Rebrand", "", "")
	if parsed == nil {
		t.Fatal("expected a parse result")
	}
	if parsed.DocketNumber != domain.DocketTBD {
		t.Fatalf("expected TBD docket, got %q", parsed.DocketNumber)
	}
	if parsed.JobName != "Acme Rebrand" {
		t.Fatalf("unexpected job name %q", parsed.JobName)
	}
}

func TestParseRejectsInvalidYearPrefix(t *testing.T) {
	p := testPipeline()
	if parsed := p.Parse("New Docket 19722 - Old Job", "", ""); parsed != nil {
		t.Fatalf("expected year-invalid number to be rejected, got %+v", parsed)
	}
}

func TestParseYearWindowFromClock(t *testing.T) {
	p := &Pipeline{Now: func() time.Time {
		return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	}}
	if parsed := p.Parse("New Docket 26001 - Next Year Job", "", ""); parsed == nil {
		t.Fatal("expected next-year prefix to be accepted")
	}
	if parsed := p.Parse("New Docket 27001 - Far Future", "", ""); parsed != nil {
		t.Fatalf("expected out-of-window prefix to be rejected, got %+v", parsed)
	}
}

func TestParseIntentGateBlocksBareNumbers(t *testing.T) {
	p := testPipeline()
	if parsed := p.Parse("Totals", "Amount due 25999 by Friday", ""); parsed != nil {
		t.Fatalf("expected gate to block without docket intent, got %+v", parsed)
	}
}

func TestParseBackfillFromBodyLine(t *testing.T) {
	p := testPipeline()
	body := "Please open 25493\nNike Spring Campaign\nThanks"
	parsed := p.Parse("New Docket", body, "")
	if parsed == nil {
		t.Fatal("expected a parse result")
	}
	if parsed.DocketNumber != "25493" {
		t.Fatalf("unexpected docket %q", parsed.DocketNumber)
	}
	if parsed.JobName != "Nike Spring Campaign" {
		t.Fatalf("expected body-line backfill, got %q", parsed.JobName)
	}
	if parsed.RawData["jobNameSource"] != "body_line" {
		t.Fatalf("expected body_line source, got %v", parsed.RawData["jobNameSource"])
	}
}

func TestParseJobNameFallsBackToTBD(t *testing.T) {
	p := testPipeline()
	parsed := p.Parse("New Docket", "25493", "")
	if parsed == nil {
		t.Fatal("expected a parse result")
	}
	if parsed.JobName != domain.DocketTBD {
		t.Fatalf("expected TBD job name, got %q", parsed.JobName)
	}
	if parsed.RawData["jobNameSource"] != "missing" {
		t.Fatalf("expected missing source, got %v", parsed.RawData["jobNameSource"])
	}
	if parsed.SourceEmail != "unknown" {
		t.Fatalf("expected unknown source email, got %q", parsed.SourceEmail)
	}
}

func TestParseMetadataEnrichmentWins(t *testing.T) {
	p := testPipeline()
	p.Metadata = stubMetadata{md: &domain.JobMetadata{
		DocketNumber: "25493",
		JobName:      "Nike Spring Campaign 2025",
	}}
	p.Existence = stubExistence{exists: true}

	parsed := p.Parse("New Docket 25493 - Nike Spring", "", "")
	if parsed == nil {
		t.Fatal("expected a parse result")
	}
	if parsed.JobName != "Nike Spring Campaign 2025" {
		t.Fatalf("expected metadata job name, got %q", parsed.JobName)
	}
	if parsed.RawData["jobNameSource"] != "metadata" {
		t.Fatalf("expected metadata source, got %v", parsed.RawData["jobNameSource"])
	}
	if parsed.RawData["docketExists"] != true {
		t.Fatalf("expected existence annotation, got %v", parsed.RawData["docketExists"])
	}
}

func TestParseFuzzyMatchThreshold(t *testing.T) {
	p := testPipeline()
	p.Fuzzy = stubFuzzy{match: &domain.CompanyMatch{Name: "Nike Inc", Score: 0.9}}
	parsed := p.Parse("New Docket 25493 - nike spring", "", "")
	if parsed == nil {
		t.Fatal("expected a parse result")
	}
	if parsed.JobName != "Nike Inc" || parsed.RawData["jobNameSource"] != "fuzzy" {
		t.Fatalf("expected fuzzy refinement, got name=%q source=%v", parsed.JobName, parsed.RawData["jobNameSource"])
	}

	p.Fuzzy = stubFuzzy{match: &domain.CompanyMatch{Name: "Nike Inc", Score: 0.5}}
	parsed = p.Parse("New Docket 25493 - nike spring", "", "")
	if parsed == nil {
		t.Fatal("expected a parse result")
	}
	if parsed.JobName != "nike spring" {
		t.Fatalf("expected low-score match discarded, got %q", parsed.JobName)
	}
}

func TestParseHTMLTableBody(t *testing.T) {
	p := testPipeline()
	body := "<table><tr><td>25493</td><td>Nike&nbsp;Spring</td></tr></table>"
	parsed := p.Parse("production update", body, "")
	if parsed == nil {
		t.Fatal("expected a parse result")
	}
	if parsed.DocketNumber != "25493" || parsed.JobName != "Nike Spring" {
		t.Fatalf("expected table cells recombined, got number=%q name=%q", parsed.DocketNumber, parsed.JobName)
	}
}

func TestPreprocessBodyKeepsLineStructure(t *testing.T) {
	got := preprocessBody("<div>25493</div><div>Nike   Spring</div>\r\n\r\n\r\nThanks")
	want := "25493\nNike Spring\nThanks"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestBackfillJobNameSubjectSource(t *testing.T) {
	name, source := backfillJobName("25493", "Fwd: New Docket 25493 Acme Rebrand", nil)
	if name != "Acme Rebrand" || source != "subject" {
		t.Fatalf("expected subject backfill, got name=%q source=%q", name, source)
	}
}

func TestBackfillJobNameLabeledField(t *testing.T) {
	lines := []string{"details follow", "Client: Acme Corp"}
	name, source := backfillJobName("25493", "", lines)
	if name != "Acme Corp" || source != "labeled_field" {
		t.Fatalf("expected labeled backfill, got name=%q source=%q", name, source)
	}
}
