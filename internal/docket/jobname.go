package docket

import (
	"regexp"
	"strings"
)

var (
	fwdPrefixRe    = regexp.MustCompile(`(?i)^\s*(fwd?|re)\s*:\s*`)
	newDocketRe    = regexp.MustCompile(`(?i)\bnew\s+docket\b|\bdocket\b`)
	labeledNameRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)job\s*name\s*(?:is|[:#])\s*([^\n]{3,99})`),
		regexp.MustCompile(`(?i)\b(?:client|project|job)\s*[:#]\s*([^\n]{3,99})`),
	}
	purelyNumericRe = regexp.MustCompile(`^[\d\s.,#-]*$`)
)

var signatureMarkers = []string{
	"--", "__", "regards", "kind regards", "best", "thanks", "thank you",
	"cheers", "sent from", "www.", "tel:", "mob:",
}

// backfillJobName finds a job name for an already-extracted docket number,
// searching in priority order: the rest of the number's own line, the
// cleaned subject, labeled fields, then the first plausible body line.
func backfillJobName(number, subject string, lines []string) (string, string) {
	digits := digitsOf(number)

	// (a) remainder of the line the number appears on.
	for _, line := range lines {
		i := strings.Index(line, digits)
		if digits == "" || i < 0 {
			continue
		}
		rest := line[i+len(digits):]
		// Skip past the country suffix when present.
		if j := strings.IndexAny(rest, " \t"); j >= 0 && strings.HasPrefix(rest, "-") {
			rest = rest[j:]
		}
		if name := cleanJobName(rest); len(name) >= 3 {
			return name, "number_line"
		}
		break
	}

	// (b) the subject with forward prefixes, docket wording and the number
	// itself stripped out.
	if name := cleanJobName(strippedSubject(subject, digits)); len(name) >= 3 {
		return name, "subject"
	}

	// (c) labeled fields anywhere in the message.
	joined := subject + "\n" + strings.Join(lines, "\n")
	for _, re := range labeledNameRes {
		if m := re.FindStringSubmatch(joined); m != nil {
			if name := cleanJobName(m[1]); len(name) >= 3 {
				return name, "labeled_field"
			}
		}
	}

	// (d) first body line that could plausibly be a job name.
	for _, line := range lines {
		if digits != "" && strings.Contains(line, digits) {
			continue
		}
		if purelyNumericRe.MatchString(line) || isSignatureLine(line) {
			continue
		}
		if name := cleanJobName(line); len(name) >= 5 && len(name) <= 99 {
			return name, "body_line"
		}
	}

	return "", ""
}

func strippedSubject(subject, digits string) string {
	s := subject
	for {
		stripped := fwdPrefixRe.ReplaceAllString(s, "")
		if stripped == s {
			break
		}
		s = stripped
	}
	s = newDocketRe.ReplaceAllString(s, " ")
	if digits != "" {
		s = strings.ReplaceAll(s, digits, " ")
	}
	return s
}

func isSignatureLine(line string) bool {
	lower := strings.ToLower(strings.TrimSpace(line))
	for _, marker := range signatureMarkers {
		if strings.HasPrefix(lower, marker) {
			return true
		}
	}
	return false
}

// cleanJobName trims separators and noise from a raw capture. Anything
// shorter than three characters comes back empty so callers fall through to
// the next backfill source.
func cleanJobName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.Trim(name, "-–—_:;,.| \t")
	name = strings.Join(strings.Fields(name), " ")
	if len(name) > 200 {
		name = strings.TrimSpace(name[:200])
	}
	if len(name) < 3 {
		return ""
	}
	return name
}
