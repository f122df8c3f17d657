package docket

import "regexp"

// extractionRule is one Tier B strategy. Rules run in slice order, most
// specific first. Field assignment goes through the explicit group indices,
// so a rule whose capture groups are swapped (job name before number) is
// just data, not a special case.
type extractionRule struct {
	name           string
	re             *regexp.Regexp
	numberGroup    int
	nameGroup      int // 0 = rule extracts no job name
	requireLiteral bool
}

// docketNum matches a docket number with its optional country suffix, or
// the TBD sentinel used before a number is assigned.
const docketNum = `(\d{5}(?:-[A-Za-z]{2,3})?|TBD)`

var extractionRules = []extractionRule{
	{
		// "Docket: 25493 Job: Acme Rebrand" and close variants.
		name:        "labeled_pair",
		re:          regexp.MustCompile(`(?i)docket\s*(?:number|no\.?|#)?\s*[:#]?\s*` + docketNum + `[\s,;:-]+job(?:\s*name)?\s*(?:is\s+|[:#]\s*)?([^\n]{3,99})`),
		numberGroup: 1,
		nameGroup:   2,
	},
	{
		// "New Docket 25493 - Acme Rebrand".
		name:        "new_docket",
		re:          regexp.MustCompile(`(?i)new\s+docket\s*[:#]?\s*(\d{5}(?:-[A-Za-z]{2,3})?)\s*[-–—:]\s*([^\n]{3,99})`),
		numberGroup: 1,
		nameGroup:   2,
	},
	{
		// "New Docket Acme Rebrand 25493", name and number swapped. Same
		// line only; across lines this would swallow arbitrary body text.
		name:        "new_docket_reversed",
		re:          regexp.MustCompile(`(?i)new[ \t]+docket[ \t]*[:#]?[ \t]+([A-Za-z][^\n0-9]{2,98}?)[ \t]*[-–—:]?[ \t]+(\d{5}(?:-[A-Za-z]{2,3})?)\b`),
		numberGroup: 2,
		nameGroup:   1,
	},
	{
		// "Docket #25493" / "docket no: TBD" with no job name attached.
		name:        "labeled_number",
		re:          regexp.MustCompile(`(?i)docket\s*(?:number|no\.?)?\s*[:#]\s*` + docketNum + `\b`),
		numberGroup: 1,
	},
	{
		// "[25493] Acme Rebrand" or "(25493-AU) Acme".
		name:        "bracketed",
		re:          regexp.MustCompile(`[\[(](\d{5}(?:-[A-Za-z]{2,3})?)[\])]\s*[-_\s]*([^\n]{3,99})?`),
		numberGroup: 1,
		nameGroup:   2,
	},
	{
		// "25493_Acme_Rebrand" file-name style.
		name:        "underscored",
		re:          regexp.MustCompile(`\b(\d{5}(?:-[A-Za-z]{2,3})?)_+([A-Za-z][\w &'-]{2,98})`),
		numberGroup: 1,
		nameGroup:   2,
	},
	{
		// A line that is just a number followed by text.
		name:        "number_near_text",
		re:          regexp.MustCompile(`(?m)^(\d{5}(?:-[A-Za-z]{2,3})?)\s+([A-Za-z][^\n]{2,98})$`),
		numberGroup: 1,
		nameGroup:   2,
	},
	{
		// Last resort: any 5-digit number. Only trusted when the digits
		// appear verbatim in the un-stripped subject or body, so numbers
		// synthesized by whitespace collapsing can never match.
		name:           "bare_number",
		re:             regexp.MustCompile(`\b(\d{5})\b`),
		numberGroup:    1,
		requireLiteral: true,
	},
}
