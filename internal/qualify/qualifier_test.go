package qualify

import (
	"testing"

	"docketbot/internal/domain"
)

func deliveryConfig() domain.QualifierConfig {
	return domain.QualifierConfig{
		SubjectPatterns:      []string{"final delivery", "masters"},
		SubjectExclusions:    []string{"newsletter", "unsubscribe"},
		AttachmentExtensions: []string{".mov", "mxf"},
		HostingDomains:       []string{"wetransfer.com", "dropbox.com"},
		SenderWhitelist:      []string{"post@studio.example", "@trustedlab.example"},
		BodyExclusions:       []string{"this is a test message"},
		SalesAllowedDomain:   "studio.example",
	}
}

func TestNormalizeSubjectStripsNestedPrefixes(t *testing.T) {
	got := NormalizeSubject("  Fwd: RE: fw: Final Delivery 25493")
	if got != "Final Delivery 25493" {
		t.Fatalf("expected nested prefixes stripped, got %q", got)
	}
	if NormalizeSubject("Reminder: meeting") != "Reminder: meeting" {
		t.Fatal("Reminder: is not a forward prefix")
	}
}

func TestQualifiesSubjectPattern(t *testing.T) {
	msg := Message{
		Subject: "Fwd: FINAL DELIVERY - Spring Campaign",
		From:    "producer@agency.example",
	}
	if !Qualifies(msg, deliveryConfig()) {
		t.Fatal("expected forwarded final-delivery subject to qualify")
	}
}

func TestQualifiesAttachmentExtension(t *testing.T) {
	cfg := deliveryConfig()
	msg := Message{
		Subject:     "files attached",
		Attachments: []string{"Spot_30s_FINAL.MXF"},
		From:        "editor@somewhere.example",
	}
	// "mxf" is configured without a leading dot; matching normalizes it.
	if !Qualifies(msg, cfg) {
		t.Fatal("expected .MXF attachment to qualify")
	}

	msg.Attachments = []string{"notes.pdf"}
	if Qualifies(msg, cfg) {
		t.Fatal("expected .pdf attachment not to qualify")
	}
}

func TestQualifiesHostingDomainInBody(t *testing.T) {
	msg := Message{
		Subject: "here you go",
		Body:    "Download: https://wetransfer.com/downloads/abc",
		From:    "editor@somewhere.example",
	}
	if !Qualifies(msg, deliveryConfig()) {
		t.Fatal("expected hosting domain in body to qualify")
	}
}

func TestQualifiesSenderWhitelist(t *testing.T) {
	cfg := deliveryConfig()
	if !Qualifies(Message{Subject: "x", From: "post@studio.example"}, cfg) {
		t.Fatal("expected exact whitelisted sender to qualify")
	}
	if !Qualifies(Message{Subject: "x", From: "anyone@trustedlab.example"}, cfg) {
		t.Fatal("expected whitelisted domain sender to qualify")
	}
	if Qualifies(Message{Subject: "x", From: "anyone@other.example"}, cfg) {
		t.Fatal("expected unrelated sender not to qualify")
	}
}

func TestExclusionsWinOverInclusions(t *testing.T) {
	cfg := deliveryConfig()

	// Subject matches an inclusion pattern and an exclusion phrase.
	msg := Message{
		Subject: "Final Delivery newsletter",
		From:    "post@studio.example",
	}
	if Qualifies(msg, cfg) {
		t.Fatal("expected subject exclusion to win over inclusion")
	}

	msg = Message{
		Subject: "Final Delivery",
		Body:    "This is a TEST message, please ignore",
		From:    "post@studio.example",
	}
	if Qualifies(msg, cfg) {
		t.Fatal("expected body exclusion to win over inclusion")
	}
}

func TestAutomatedSendersExcluded(t *testing.T) {
	cfg := deliveryConfig()
	for _, from := range []string{
		"noreply@wetransfer.com",
		"no-reply@files.example",
		"invoice@vendor.example",
		"sales@vendor.example",
	} {
		msg := Message{Subject: "Final Delivery", From: from}
		if Qualifies(msg, cfg) {
			t.Fatalf("expected automated sender %q to be excluded", from)
		}
	}

	// sales@ on the allowed domain is not automated.
	msg := Message{Subject: "Final Delivery", From: "sales@studio.example"}
	if !Qualifies(msg, cfg) {
		t.Fatal("expected sales@ on the allowed domain to qualify")
	}
}

func TestBulkLabelsExcluded(t *testing.T) {
	msg := Message{
		Subject: "Final Delivery",
		From:    "post@studio.example",
		Labels:  []string{"INBOX", "SPAM"},
	}
	if Qualifies(msg, deliveryConfig()) {
		t.Fatal("expected spam label to exclude the thread")
	}
}

func TestZeroInclusionAxesFailsClosed(t *testing.T) {
	cfg := domain.QualifierConfig{
		SubjectExclusions: []string{"newsletter"},
	}
	msg := Message{
		Subject: "Final Delivery",
		Body:    "https://wetransfer.com/downloads/abc",
		From:    "post@studio.example",
	}
	if Qualifies(msg, cfg) {
		t.Fatal("expected zero configured inclusion axes to fail closed")
	}
}

func TestQualifiesByFileHostingLinks(t *testing.T) {
	cfg := deliveryConfig()
	if !QualifiesByFileHostingLinks("get it at https://dropbox.com/s/abc", cfg) {
		t.Fatal("expected whitelisted hosting domain to qualify")
	}
	if QualifiesByFileHostingLinks("please review https://app.frame.io/reviews/xyz", cfg) {
		t.Fatal("expected review platform link to disqualify")
	}

	// No configured whitelist falls back to the generic detector.
	var empty domain.QualifierConfig
	if !QualifiesByFileHostingLinks("https://mega.nz/file/abc", empty) {
		t.Fatal("expected generic detector fallback with no whitelist")
	}
	if QualifiesByFileHostingLinks("no links here", empty) {
		t.Fatal("expected plain text not to qualify")
	}
}
