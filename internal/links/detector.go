// Package links extracts file-hosting URLs from raw email text.
//
// Detection runs three passes (href attributes, protocol-qualified URLs,
// bare domain mentions), filters out image and social-platform links, and
// deduplicates by a protocol-insensitive key where the https variant always
// wins over its http twin.
package links

import (
	"regexp"
	"sort"
	"strings"
)

// hostingDomains are the known file-delivery hosts. Matching is by host
// suffix, so subdomains qualify.
var hostingDomains = []string{
	"wetransfer.com",
	"we.tl",
	"drive.google.com",
	"dropbox.com",
	"box.com",
	"hightail.com",
	"sendspace.com",
	"mega.nz",
	"onedrive.live.com",
	"1drv.ms",
	"sharepoint.com",
	"frame.io",
	"mediafire.com",
	"filemail.com",
	"swisstransfer.com",
	"masv.io",
}

// excludedDomains are social/image platforms whose links never count as file
// delivery, even when a host also matches an allowed entry.
var excludedDomains = []string{
	"facebook.com",
	"twitter.com",
	"x.com",
	"instagram.com",
	"linkedin.com",
	"youtube.com",
	"tiktok.com",
	"pinterest.com",
	"giphy.com",
	"imgur.com",
	"gravatar.com",
	"googleusercontent.com",
	"doubleclick.net",
}

// reviewPlatformMarkers identify review/approval links. These are a distinct
// category from file delivery even when they share a domain with an allowed
// host (frame.io serves both).
var reviewPlatformMarkers = []string{
	"frame.io/reviews",
	"frame.io/presentations",
	"vimeo.com/review",
	"wipster.io",
	"reviewstudio.com",
}

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".svg": true,
	".webp": true, ".ico": true,
}

var (
	hrefRe   = regexp.MustCompile(`(?i)href\s*=\s*["']([^"']+)["']`)
	urlRe    = regexp.MustCompile(`(?i)https?://[^\s<>"']+`)
	imgTagRe = regexp.MustCompile(`(?is)<img[^>]*>`)
)

// ContainsFileHostingLink reports whether text carries at least one link to
// a known file-hosting service.
func ContainsFileHostingLink(text string) bool {
	return len(ExtractFileHostingLinks(text)) > 0
}

// ContainsReviewPlatformLink reports whether text carries a review-platform
// link. Review links disqualify a thread from the file-delivery category.
func ContainsReviewPlatformLink(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range reviewPlatformMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

type candidate struct {
	pos int
	url string
}

// ExtractFileHostingLinks returns the deduplicated file-hosting links in
// text, in first-seen order. For http/https variants of the same URL the
// https form survives, replacing an earlier http form in place.
func ExtractFileHostingLinks(text string) []string {
	if text == "" {
		return nil
	}

	imgRanges := imgTagRe.FindAllStringIndex(text, -1)

	var candidates []candidate

	// Pass 1: href attributes.
	for _, m := range hrefRe.FindAllStringSubmatchIndex(text, -1) {
		raw := text[m[2]:m[3]]
		candidates = append(candidates, candidate{pos: m[2], url: ensureScheme(raw)})
	}

	// Pass 2: protocol-qualified URLs anywhere in the text.
	for _, m := range urlRe.FindAllStringIndex(text, -1) {
		candidates = append(candidates, candidate{pos: m[0], url: text[m[0]:m[1]]})
	}

	// Pass 3: bare domain mentions with no protocol.
	candidates = append(candidates, bareMentions(text)...)

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].pos < candidates[j].pos })

	var out []string
	index := make(map[string]int) // normalized key -> position in out
	for _, c := range candidates {
		url := trimTrailingPunct(c.url)
		if !acceptable(url, c.pos, imgRanges) {
			continue
		}
		key := normalizeKey(url)
		if i, seen := index[key]; seen {
			// https always wins over a previously recorded http variant.
			if strings.HasPrefix(strings.ToLower(url), "https://") &&
				strings.HasPrefix(strings.ToLower(out[i]), "http://") {
				out[i] = url
			}
			continue
		}
		index[key] = len(out)
		out = append(out, url)
	}
	return out
}

// bareMentions finds hosting domains written without a protocol and infers
// the URL by following to the next whitespace or control character. A
// mention preceded by subdomain labels ("www.") extends back to cover them.
func bareMentions(text string) []candidate {
	lower := strings.ToLower(text)
	var out []candidate
	for _, domain := range hostingDomains {
		from := 0
		for {
			i := strings.Index(lower[from:], domain)
			if i < 0 {
				break
			}
			start := from + i
			from = start + len(domain)

			// Walk back over any subdomain labels.
			hostStart := start
			for hostStart > 0 && isHostByte(lower[hostStart-1]) {
				hostStart--
			}
			if hostStart > 0 && (lower[hostStart-1] == '/' || lower[hostStart-1] == '@' || lower[hostStart-1] == '=') {
				continue // already part of a URL, an email address, or a query value
			}
			end := start + len(domain)
			for end < len(text) && !isURLBoundary(text[end]) {
				end++
			}
			out = append(out, candidate{pos: hostStart, url: "https://" + text[hostStart:end]})
		}
	}
	return out
}

func isHostByte(b byte) bool {
	return b == '.' || b == '-' ||
		(b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

func isURLBoundary(b byte) bool {
	return b <= ' ' || b == '<' || b == '>' || b == '"' || b == '\'' || b == 0x7f
}

func acceptable(url string, pos int, imgRanges [][]int) bool {
	lower := strings.ToLower(url)
	if strings.HasPrefix(lower, "data:image/") {
		return false
	}
	for _, r := range imgRanges {
		if pos >= r[0] && pos < r[1] {
			return false
		}
	}

	host := hostOf(lower)
	if host == "" {
		return false
	}
	// Exclusion wins even when the host also matches an allowed domain.
	for _, d := range excludedDomains {
		if hostMatches(host, d) {
			return false
		}
	}
	allowed := false
	for _, d := range hostingDomains {
		if hostMatches(host, d) {
			allowed = true
			break
		}
	}
	if !allowed {
		return false
	}

	if ext := pathExtension(lower); imageExtensions[ext] {
		return false
	}
	return true
}

func hostMatches(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func hostOf(lower string) string {
	s := strings.TrimPrefix(strings.TrimPrefix(lower, "https://"), "http://")
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '/', ':', '?', '#':
			return s[:i]
		}
	}
	return s
}

func pathExtension(lower string) string {
	// Drop query and fragment before looking at the extension.
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}
	slash := strings.LastIndexByte(lower, '/')
	dot := strings.LastIndexByte(lower, '.')
	if dot < 0 || dot < slash {
		return ""
	}
	return lower[dot:]
}

func ensureScheme(url string) string {
	lower := strings.ToLower(url)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "data:") {
		return url
	}
	return "https://" + url
}

func trimTrailingPunct(url string) string {
	return strings.TrimRight(url, ".,;:!?)]}")
}

// normalizeKey strips the protocol and any trailing slash so http/https
// variants of one URL collapse to the same dedup key.
func normalizeKey(url string) string {
	lower := strings.ToLower(url)
	lower = strings.TrimPrefix(strings.TrimPrefix(lower, "https://"), "http://")
	return strings.TrimSuffix(lower, "/")
}
