package discover

import (
	"net/url"
	"strings"
)

var excludedDomains = []string{
	"facebook.com", "twitter.com", "linkedin.com", "instagram.com",
	"youtube.com", "google.com", "bing.com", "yahoo.com", "duckduckgo.com",
	"wikipedia.org", "reddit.com", "pinterest.com", "amazon.com", "ebay.com",
	"crunchbase.com", "glassdoor.com", "indeed.com", "github.com",
}

// allowedHosts carves product sites back out of the portal denylist; the
// aws and cloud subdomains are company offerings, not the retail or search
// properties the denylist targets.
var allowedHosts = map[string]struct{}{
	"aws.amazon.com":   {},
	"cloud.google.com": {},
}

var excludedPathSegments = []string{"/jobs", "/careers", "/news", "/blog", "/forum"}

var excludedExtensions = []string{".pdf", ".doc", ".docx"}

var publishingPlatforms = []string{"blogspot", "wordpress.com", "medium.com", "substack.com"}

// normalizeURL lowercases the scheme and host and requires an absolute
// http(s) URL. The `www.` prefix is kept: it matters for dedup identity,
// only domain comparisons ignore it.
func normalizeURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	return u.String(), true
}

// bareDomain strips the www. prefix for domain comparisons.
func bareDomain(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}

// keepURL decides whether a normalized URL looks like a company website.
func keepURL(normalized string) bool {
	u, err := url.Parse(normalized)
	if err != nil {
		return false
	}
	domain := bareDomain(u.Hostname())
	if len(strings.Split(domain, ".")) < 2 {
		return false
	}

	if _, allowed := allowedHosts[domain]; !allowed {
		for _, excluded := range excludedDomains {
			if domain == excluded || strings.HasSuffix(domain, "."+excluded) {
				return false
			}
		}
		for _, platform := range publishingPlatforms {
			if strings.Contains(domain, platform) {
				return false
			}
		}
	}

	path := strings.ToLower(u.Path)
	for _, segment := range excludedPathSegments {
		if strings.Contains(path, segment) {
			return false
		}
	}
	for _, ext := range excludedExtensions {
		if strings.HasSuffix(path, ext) {
			return false
		}
	}
	return true
}

// FilterURLs normalizes and filters candidate URLs, deduplicating within the
// input. It is pure: filtering an already-filtered list returns it unchanged.
func FilterURLs(urls []string) []string {
	filtered := make([]string, 0, len(urls))
	seen := make(map[string]struct{}, len(urls))
	for _, raw := range urls {
		normalized, ok := normalizeURL(raw)
		if !ok || !keepURL(normalized) {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		filtered = append(filtered, normalized)
	}
	return filtered
}
