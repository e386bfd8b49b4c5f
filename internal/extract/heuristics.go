package extract

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/nyaruka/phonenumbers"
)

// nameStrategy is one step in the company-name fallback chain.
type nameStrategy func(doc *goquery.Document, pageURL string) string

var companyNameChain = []nameStrategy{
	nameFromTitle,
	nameFromHeading,
	nameFromSiteNameMeta,
	nameFromApplicationNameMeta,
	nameFromDomain,
}

func companyName(doc *goquery.Document, pageURL string) string {
	for _, strategy := range companyNameChain {
		if name := strings.TrimSpace(strategy(doc, pageURL)); name != "" {
			return name
		}
	}
	return hostWithoutWWW(pageURL)
}

func nameFromTitle(doc *goquery.Document, _ string) string {
	title := doc.Find("title").First().Text()
	segment, _, _ := strings.Cut(title, "|")
	return segment
}

func nameFromHeading(doc *goquery.Document, _ string) string {
	return doc.Find("h1").First().Text()
}

func nameFromSiteNameMeta(doc *goquery.Document, _ string) string {
	content, _ := doc.Find(`meta[property="og:site_name"]`).First().Attr("content")
	return content
}

func nameFromApplicationNameMeta(doc *goquery.Document, _ string) string {
	content, _ := doc.Find(`meta[name="application-name"]`).First().Attr("content")
	return content
}

func nameFromDomain(_ *goquery.Document, pageURL string) string {
	host := hostWithoutWWW(pageURL)
	label, _, _ := strings.Cut(host, ".")
	if label == "" {
		return ""
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

func hostWithoutWWW(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// extractEmails unions mailto targets with addresses matched in page text,
// dropping asset filenames that only look like addresses.
func extractEmails(doc *goquery.Document) []string {
	seen := make(map[string]struct{})

	doc.Find(`a[href^="mailto:"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		email := strings.TrimPrefix(href, "mailto:")
		email, _, _ = strings.Cut(email, "?")
		if validEmail(email) {
			seen[strings.TrimSpace(email)] = struct{}{}
		}
	})

	for _, email := range emailRe.FindAllString(doc.Text(), -1) {
		if validEmail(email) {
			seen[email] = struct{}{}
		}
	}

	return sortedKeys(seen)
}

func validEmail(email string) bool {
	email = strings.TrimSpace(email)
	return emailRe.MatchString(email) && !assetSuffixRe.MatchString(email)
}

// extractPhones unions tel-link targets with digit patterns matched in page
// text. The original display string is preserved; candidates are deduplicated
// by normalized form and kept only when they carry at least 10 digits.
func extractPhones(doc *goquery.Document) []string {
	byKey := make(map[string]string)

	add := func(display string) {
		display = strings.TrimSpace(display)
		digits := nonPhoneRuneRe.ReplaceAllString(display, "")
		if len(strings.TrimPrefix(digits, "+")) < 10 {
			return
		}
		key := phoneKey(display, digits)
		if _, ok := byKey[key]; !ok {
			byKey[key] = display
		}
	}

	doc.Find(`a[href^="tel:"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		add(strings.TrimPrefix(href, "tel:"))
	})

	text := doc.Text()
	for _, match := range usPhoneRe.FindAllString(text, -1) {
		add(match)
	}
	for _, match := range intlPhoneRe.FindAllString(text, -1) {
		add(match)
	}

	displays := make([]string, 0, len(byKey))
	for _, display := range byKey {
		displays = append(displays, display)
	}
	sort.Strings(displays)
	return displays
}

// phoneKey prefers the E.164 form so formatting variants of one number
// collapse together. Parsing is best-effort; a failure falls back to the
// stripped digit string and never rejects the candidate.
func phoneKey(display, digits string) string {
	if num, err := phonenumbers.Parse(display, "US"); err == nil && phonenumbers.IsPossibleNumber(num) {
		return phonenumbers.Format(num, phonenumbers.E164)
	}
	return digits
}

// extractSocialLinks keeps the first link found per known platform.
func extractSocialLinks(doc *goquery.Document) map[string]string {
	social := make(map[string]string)
	for platform, selector := range socialSelectors {
		if href, ok := doc.Find(selector).First().Attr("href"); ok {
			social[platform] = href
		}
	}
	return social
}

func extractAddress(doc *goquery.Document) string {
	for _, selector := range addressSelectors {
		if text := strings.TrimSpace(doc.Find(selector).First().Text()); text != "" {
			return text
		}
	}

	text := doc.Text()
	if match := streetAddressRe.FindString(text); match != "" {
		return strings.TrimSpace(match)
	}
	if match := cityStateZipRe.FindString(text); match != "" {
		return strings.TrimSpace(match)
	}
	return ""
}

func extractDescription(doc *goquery.Document) string {
	if content, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok && content != "" {
		return content
	}
	for _, selector := range descriptionSelectors {
		if text := strings.TrimSpace(doc.Find(selector).First().Text()); text != "" {
			return text
		}
	}

	// Fallback: first paragraph long enough to read as a description.
	var description string
	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if len(text) > 50 {
			description = text
			return false
		}
		return true
	})
	return description
}

func extractFoundedYear(doc *goquery.Document) int {
	text := doc.Text()
	currentYear := time.Now().Year()
	for _, re := range foundedYearRes {
		for _, match := range re.FindAllStringSubmatch(text, -1) {
			year, err := strconv.Atoi(match[1])
			if err != nil {
				continue
			}
			if year >= 1900 && year <= currentYear {
				return year
			}
		}
	}
	return 0
}

func extractIndustry(doc *goquery.Document) string {
	text := strings.ToLower(doc.Text())
	for _, keyword := range industryKeywords {
		if strings.Contains(text, keyword) {
			return titleCase(keyword)
		}
	}
	return ""
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func extractServices(doc *goquery.Document) []string {
	var services []string
	seen := make(map[string]struct{})
	for _, selector := range serviceSelectors {
		doc.Find(selector).EachWithBreak(func(i int, s *goquery.Selection) bool {
			if i >= 5 {
				return false
			}
			text := strings.TrimSpace(s.Text())
			if len(text) <= 20 || len(text) >= 100 {
				return true
			}
			if _, ok := seen[text]; !ok {
				seen[text] = struct{}{}
				services = append(services, text)
			}
			return true
		})
	}
	if len(services) > 10 {
		services = services[:10]
	}
	return services
}

// findContactPages resolves contact/about/team links against the base URL.
func findContactPages(doc *goquery.Document, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	var pages []string
	seen := make(map[string]struct{})
	for _, selector := range contactPageSelectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			href, ok := s.Attr("href")
			if !ok {
				return
			}
			ref, err := url.Parse(href)
			if err != nil {
				return
			}
			resolved := base.ResolveReference(ref).String()
			if resolved == baseURL {
				return
			}
			if _, ok := seen[resolved]; !ok {
				seen[resolved] = struct{}{}
				pages = append(pages, resolved)
			}
		})
	}
	return pages
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// unionSorted merges two string sets into a sorted slice.
func unionSorted(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, v := range a {
		seen[v] = struct{}{}
	}
	for _, v := range b {
		seen[v] = struct{}{}
	}
	return sortedKeys(seen)
}
