// Package docket implements the multi-tier docket extraction pipeline:
// preprocessing, intent gating, ordered pattern tiers, job-name backfill,
// year validation and collaborator enrichment.
package docket

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"docketbot/internal/domain"
)

// MetadataLookup is the authoritative job-name source, preferred over any
// heuristic extraction.
type MetadataLookup interface {
	Find(docketNumber, jobNameHint string) *domain.JobMetadata
}

// ExistenceCheck reports whether a docket exists in the external tracking
// system. Used only for diagnostic annotation, never to alter the outcome.
type ExistenceCheck interface {
	Exists(docketNumber string) bool
}

// FuzzyCompanyMatcher is the secondary job-name refinement source.
type FuzzyCompanyMatcher interface {
	BestMatch(text string) *domain.CompanyMatch
}

// fuzzyAcceptScore is the minimum match score before a fuzzy company name
// replaces a heuristically extracted one.
const fuzzyAcceptScore = 0.8

// Pipeline extracts docket numbers and job names from raw email text. All
// collaborator fields are optional; a zero Pipeline works on text alone.
type Pipeline struct {
	Metadata  MetadataLookup
	Existence ExistenceCheck
	Fuzzy     FuzzyCompanyMatcher

	// ValidYearSuffixes overrides the accepted two-digit year prefixes.
	// Empty means current and next calendar year at evaluation time.
	ValidYearSuffixes []string

	// Now is the clock used for year validation; nil means time.Now.
	Now func() time.Time
}

var (
	blockTagRe   = regexp.MustCompile(`(?i)</(?:tr|p|div|table|h[1-6]|li)\s*>|<br\s*/?>`)
	tagRe        = regexp.MustCompile(`<[^>]+>`)
	hspaceRe     = regexp.MustCompile(`[ \t\x{00a0}]+`)
	blankRunRe   = regexp.MustCompile(`\n{2,}`)
	firstLineRe  = regexp.MustCompile(`^(\d{5}(?:-[A-Za-z]{2,3})?)\s+(.{3,99})$`)
	lineShapeRe  = regexp.MustCompile(`^\d{5}(?:-[A-Za-z]{2,3})?\s+\S`)
	docketNearRe = regexp.MustCompile(`(?is)docket.{0,20}?\d{5}`)
	fallbackRe   = regexp.MustCompile(`\b(\d{4,}(?:-[A-Za-z]{2,3})?)\b`)
	numberPartRe = regexp.MustCompile(`^(\d+)(?:-([A-Za-z]{2,3}))?$`)
)

type candidate struct {
	number  string
	name    string
	pattern string
	tier    string
}

// Parse runs the full pipeline over one email. It returns nil when nothing
// extractable is present; that is an expected outcome, not an error.
func (p *Pipeline) Parse(subject, body, from string) *domain.ParsedDocket {
	cleanBody := preprocessBody(body)
	lines := nonEmptyLines(cleanBody)
	combined := strings.ToLower(subject + "\n" + cleanBody)

	// Intent gating: without at least one signal the permissive tiers are
	// never allowed to run, whatever numeric content is present.
	if !p.intentGatePasses(combined, lines) {
		return nil
	}

	raw := map[string]any{}

	cand := p.tierFirstLine(lines, subject, body)
	if cand == nil {
		cand = p.tierPatternList(subject, cleanBody, body)
	}
	if cand == nil {
		cand = p.tierFallbackScan(subject, cleanBody, body)
	}
	if cand == nil {
		return nil
	}

	raw["tier"] = cand.tier
	raw["pattern"] = cand.pattern
	raw["yearValid"] = true

	name, nameSource := cand.name, "pattern"
	if name == "" {
		name, nameSource = backfillJobName(cand.number, subject, lines)
	}
	if name == "" {
		name, nameSource = domain.DocketTBD, "missing"
	}

	name, nameSource = p.enrichJobName(cand.number, name, nameSource)
	raw["jobNameSource"] = nameSource

	if p.Existence != nil && cand.number != domain.DocketTBD {
		raw["docketExists"] = p.Existence.Exists(cand.number)
	}

	source := strings.TrimSpace(from)
	if source == "" {
		source = "unknown"
	}

	return &domain.ParsedDocket{
		DocketNumber: cand.number,
		JobName:      name,
		SourceEmail:  source,
		RawData:      raw,
	}
}

func (p *Pipeline) intentGatePasses(combined string, lines []string) bool {
	if strings.Contains(combined, "new") && strings.Contains(combined, "docket") {
		return true
	}
	for i, line := range lines {
		if i >= 8 {
			break
		}
		if lineShapeRe.MatchString(line) {
			return true
		}
	}
	return docketNearRe.MatchString(combined)
}

func (p *Pipeline) tierFirstLine(lines []string, rawSubject, rawBody string) *candidate {
	if len(lines) == 0 {
		return nil
	}
	m := firstLineRe.FindStringSubmatch(lines[0])
	if m == nil {
		return nil
	}
	number := normalizeNumber(m[1])
	if !p.numberValid(number) || !literallyPresent(number, rawSubject, rawBody) {
		return nil
	}
	name := cleanJobName(m[2])
	return &candidate{number: number, name: name, pattern: "first_line", tier: "first_line"}
}

func (p *Pipeline) tierPatternList(subject, cleanBody, rawBody string) *candidate {
	searchText := subject + "\n" + cleanBody
	for _, rule := range extractionRules {
		for _, m := range rule.re.FindAllStringSubmatch(searchText, -1) {
			number := normalizeNumber(m[rule.numberGroup])
			if !p.numberValid(number) {
				continue
			}
			if (rule.requireLiteral || number != domain.DocketTBD) && !literallyPresent(number, subject, rawBody) {
				continue
			}
			name := ""
			if rule.nameGroup > 0 {
				name = cleanJobName(m[rule.nameGroup])
			}
			return &candidate{number: number, name: name, pattern: rule.name, tier: "pattern_list"}
		}
	}
	return nil
}

// tierFallbackScan is the last tier: any 4+-digit number, preferring values
// that are exactly five digits and year-valid over longer IDs.
func (p *Pipeline) tierFallbackScan(subject, cleanBody, rawBody string) *candidate {
	var all []string
	for _, text := range []string{subject, cleanBody} {
		for _, m := range fallbackRe.FindAllStringSubmatch(text, -1) {
			all = append(all, normalizeNumber(m[1]))
		}
	}
	for _, number := range all {
		if len(digitsOf(number)) == 5 && p.numberValid(number) && literallyPresent(number, subject, rawBody) {
			return &candidate{number: number, pattern: "fallback_scan", tier: "fallback_scan"}
		}
	}
	for _, number := range all {
		if p.numberValid(number) && literallyPresent(number, subject, rawBody) {
			return &candidate{number: number, pattern: "fallback_scan_long", tier: "fallback_scan"}
		}
	}
	return nil
}

func (p *Pipeline) enrichJobName(number, name, source string) (string, string) {
	if p.Metadata != nil && number != domain.DocketTBD {
		if md := p.Metadata.Find(number, name); md != nil && strings.TrimSpace(md.JobName) != "" {
			return strings.TrimSpace(md.JobName), "metadata"
		}
	}
	if p.Fuzzy != nil && name != domain.DocketTBD {
		if m := p.Fuzzy.BestMatch(name); m != nil && m.Score >= fuzzyAcceptScore && strings.TrimSpace(m.Name) != "" {
			return strings.TrimSpace(m.Name), "fuzzy"
		}
	}
	return name, source
}

// numberValid applies the year-prefix rule. "TBD" is always valid; it can
// only be produced by the explicit labeled rules.
func (p *Pipeline) numberValid(number string) bool {
	if number == domain.DocketTBD {
		return true
	}
	m := numberPartRe.FindStringSubmatch(number)
	if m == nil || len(m[1]) < 5 {
		return false
	}
	prefix := m[1][:2]
	for _, yy := range p.validYearSuffixes() {
		if prefix == yy {
			return true
		}
	}
	return false
}

func (p *Pipeline) validYearSuffixes() []string {
	if len(p.ValidYearSuffixes) > 0 {
		return p.ValidYearSuffixes
	}
	now := time.Now()
	if p.Now != nil {
		now = p.Now()
	}
	y := now.Year()
	return []string{
		fmt.Sprintf("%02d", y%100),
		fmt.Sprintf("%02d", (y+1)%100),
	}
}

// literallyPresent requires the candidate's digits to occur verbatim in the
// original subject or body. A number assembled from cleaned/derivative text
// is never accepted.
func literallyPresent(number, rawSubject, rawBody string) bool {
	digits := digitsOf(number)
	if digits == "" {
		return number == domain.DocketTBD
	}
	return strings.Contains(rawSubject, digits) || strings.Contains(rawBody, digits)
}

func digitsOf(number string) string {
	if m := numberPartRe.FindStringSubmatch(number); m != nil {
		return m[1]
	}
	return ""
}

// normalizeNumber upcases the country suffix and the TBD sentinel.
func normalizeNumber(number string) string {
	number = strings.TrimSpace(number)
	if strings.EqualFold(number, domain.DocketTBD) {
		return domain.DocketTBD
	}
	if m := numberPartRe.FindStringSubmatch(number); m != nil && m[2] != "" {
		return m[1] + "-" + strings.ToUpper(m[2])
	}
	return number
}

// preprocessBody strips HTML/table markup and collapses whitespace while
// preserving single newlines; the line structure matters for "number on
// line 1, job name on line 2" emails.
func preprocessBody(body string) string {
	s := strings.ReplaceAll(body, "\r\n", "\n")
	s = blockTagRe.ReplaceAllString(s, "\n")
	s = tagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = hspaceRe.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	s = strings.Join(lines, "\n")
	s = blankRunRe.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
