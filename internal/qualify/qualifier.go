// Package qualify decides whether a mail thread represents a file-delivery
// event, using the caller-supplied whitelist/blacklist rule set.
package qualify

import (
	"regexp"
	"strings"

	"docketbot/internal/domain"
	"docketbot/internal/links"
)

// Message is the slice of an email thread the qualifier looks at.
type Message struct {
	Subject     string
	Body        string
	Attachments []string
	Labels      []string
	From        string
}

var forwardPrefixRe = regexp.MustCompile(`(?i)^\s*(fwd?|re)\s*:\s*`)

// automatedSenderMarkers short-circuit qualification: these senders are
// vendors or machines, never a production file delivery.
var automatedSenderMarkers = []string{"noreply", "no-reply", "invoice"}

// automatedLabels are mailbox labels that mark a thread as bulk/spam.
var automatedLabels = []string{"spam", "junk", "category_promotions"}

// NormalizeSubject strips Fwd:/Re:/FW: prefixes, repeatedly, so forwarded
// threads qualify on their original subject.
func NormalizeSubject(subject string) string {
	s := strings.TrimSpace(subject)
	for {
		stripped := forwardPrefixRe.ReplaceAllString(s, "")
		if stripped == s {
			return s
		}
		s = strings.TrimSpace(stripped)
	}
}

// Excluded reports whether any blacklist rule fires for msg: an excluded
// subject or body phrase, an automated/vendor sender, or a bulk label.
// Exclusions always win over inclusions.
func Excluded(msg Message, cfg domain.QualifierConfig) bool {
	subject := strings.ToLower(NormalizeSubject(msg.Subject))
	body := strings.ToLower(msg.Body)
	from := strings.ToLower(strings.TrimSpace(msg.From))

	for _, phrase := range cfg.SubjectExclusions {
		if p := strings.ToLower(strings.TrimSpace(phrase)); p != "" && strings.Contains(subject, p) {
			return true
		}
	}
	for _, phrase := range cfg.BodyExclusions {
		if p := strings.ToLower(strings.TrimSpace(phrase)); p != "" && strings.Contains(body, p) {
			return true
		}
	}
	if isAutomatedSender(from, cfg.SalesAllowedDomain) {
		return true
	}
	for _, label := range msg.Labels {
		l := strings.ToLower(strings.TrimSpace(label))
		for _, auto := range automatedLabels {
			if l == auto {
				return true
			}
		}
	}
	return false
}

// Qualifies reports whether msg belongs to the file-delivery category under
// cfg. Exclusions are evaluated first and short-circuit to false; otherwise
// at least one configured inclusion axis must match. With zero inclusion
// axes configured the answer is always false.
func Qualifies(msg Message, cfg domain.QualifierConfig) bool {
	if Excluded(msg, cfg) {
		return false
	}
	if cfg.InclusionAxesConfigured() == 0 {
		return false
	}

	subject := strings.ToLower(NormalizeSubject(msg.Subject))
	body := strings.ToLower(msg.Body)
	from := strings.ToLower(strings.TrimSpace(msg.From))

	for _, pattern := range cfg.SubjectPatterns {
		if p := strings.ToLower(strings.TrimSpace(pattern)); p != "" && strings.Contains(subject, p) {
			return true
		}
	}
	for _, att := range msg.Attachments {
		name := strings.ToLower(att)
		for _, ext := range cfg.AttachmentExtensions {
			e := strings.ToLower(strings.TrimSpace(ext))
			if e == "" {
				continue
			}
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			if strings.HasSuffix(name, e) {
				return true
			}
		}
	}
	for _, d := range cfg.HostingDomains {
		if dom := strings.ToLower(strings.TrimSpace(d)); dom != "" && strings.Contains(body, dom) {
			return true
		}
	}
	for _, sender := range cfg.SenderWhitelist {
		s := strings.ToLower(strings.TrimSpace(sender))
		if s == "" {
			continue
		}
		if from == s || strings.HasSuffix(from, "@"+strings.TrimPrefix(s, "@")) {
			return true
		}
	}
	return false
}

// QualifiesByFileHostingLinks is the link-specific entry point. Review
// platform links are a distinct, excluded category and reject the body
// outright even when the domain also hosts file transfers.
func QualifiesByFileHostingLinks(body string, cfg domain.QualifierConfig) bool {
	if links.ContainsReviewPlatformLink(body) {
		return false
	}
	if len(cfg.HostingDomains) == 0 {
		return links.ContainsFileHostingLink(body)
	}
	lower := strings.ToLower(body)
	for _, d := range cfg.HostingDomains {
		if dom := strings.ToLower(strings.TrimSpace(d)); dom != "" && strings.Contains(lower, dom) {
			return true
		}
	}
	return false
}

func isAutomatedSender(from, salesAllowedDomain string) bool {
	for _, marker := range automatedSenderMarkers {
		if strings.Contains(from, marker) {
			return true
		}
	}
	if strings.HasPrefix(from, "sales@") {
		allowed := strings.ToLower(strings.TrimSpace(salesAllowedDomain))
		if allowed == "" || !strings.HasSuffix(from, "@"+allowed) {
			return true
		}
	}
	return false
}
