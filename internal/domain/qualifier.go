package domain

// QualifierConfig is the Thread Qualifier's rule set. It is supplied by the
// caller per invocation; the core does not own or mutate it. An axis with no
// entries is treated as not configured.
type QualifierConfig struct {
	SubjectPatterns      []string `yaml:"subject_patterns"`
	SubjectExclusions    []string `yaml:"subject_exclusions"`
	AttachmentExtensions []string `yaml:"attachment_extensions"`
	HostingDomains       []string `yaml:"hosting_domains"`
	SenderWhitelist      []string `yaml:"sender_whitelist"`
	BodyExclusions       []string `yaml:"body_exclusions"`

	// SalesAllowedDomain exempts sales@ senders from the automated-sender
	// exclusion when they come from this domain.
	SalesAllowedDomain string `yaml:"sales_allowed_domain"`
}

// InclusionAxesConfigured counts how many inclusion axes carry at least one
// rule. Zero means the qualifier must fail closed.
func (c QualifierConfig) InclusionAxesConfigured() int {
	n := 0
	if len(c.SubjectPatterns) > 0 {
		n++
	}
	if len(c.AttachmentExtensions) > 0 {
		n++
	}
	if len(c.HostingDomains) > 0 {
		n++
	}
	if len(c.SenderWhitelist) > 0 {
		n++
	}
	return n
}
