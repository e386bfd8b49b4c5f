package extract

import "regexp"

// Selector tables and keyword vocabularies driving the heuristic chains.
// Tiers extend by appending entries here, not by new control flow.

var socialSelectors = map[string]string{
	"linkedin":  `a[href*="linkedin.com"]`,
	"twitter":   `a[href*="twitter.com"]`,
	"facebook":  `a[href*="facebook.com"]`,
	"instagram": `a[href*="instagram.com"]`,
}

var addressSelectors = []string{".address", ".contact-address", ".location"}

var descriptionSelectors = []string{".description", ".about", ".company-info"}

var contactPageSelectors = []string{
	`a[href*="contact"]`,
	`a[href*="about"]`,
	`a[href*="team"]`,
}

var serviceSelectors = []string{"ul li", "ol li", ".service", ".product", ".offering"}

var projectSelectors = []string{".project", ".case-study", ".portfolio", ".news", ".blog-post"}

var newsSelectors = []string{".news", ".press", ".media", ".article", ".blog"}

var industryKeywords = []string{
	"technology", "software", "healthcare", "finance", "education",
	"retail", "manufacturing", "consulting", "marketing", "design",
	"development", "services", "solutions", "platform", "cloud",
	"ai", "machine learning", "blockchain", "fintech", "saas",
}

var techStackVocab = map[string][]string{
	"javascript": {"react", "angular", "vue", "node.js", "javascript", "js"},
	"python":     {"django", "flask", "python", "fastapi", "pyramid"},
	"java":       {"spring", "hibernate", "java", "jsp", "struts"},
	"php":        {"laravel", "symfony", "php", "wordpress", "drupal"},
	"ruby":       {"rails", "ruby", "sinatra"},
	"css":        {"bootstrap", "tailwind", "sass", "less", "css"},
	"databases":  {"mysql", "postgresql", "mongodb", "redis", "sqlite"},
	"cloud":      {"aws", "azure", "gcp", "digital ocean", "heroku"},
	"analytics":  {"google analytics", "mixpanel", "amplitude", "hotjar"},
}

var frontendFrameworks = []string{"react", "angular", "vue", "jquery"}

var marketPositionVocab = []struct {
	Label    string
	Keywords []string
}{
	{"leader", []string{"market leader", "industry leader", "leading", "leader"}},
	{"challenger", []string{"challenger", "innovative", "disruptive", "game changer"}},
	{"niche", []string{"specialized", "niche", "boutique", "focused"}},
	{"startup", []string{"startup", "emerging", "founded recently"}},
}

var (
	emailRe        = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)
	assetSuffixRe  = regexp.MustCompile(`(?i)\.(png|jpe?g|gif|svg|webp|ico)$`)
	usPhoneRe      = regexp.MustCompile(`\+?1?[-.\s]?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	intlPhoneRe    = regexp.MustCompile(`\+?[\d\s\-()]{10,}`)
	nonPhoneRuneRe = regexp.MustCompile(`[^\d+]`)

	streetAddressRe = regexp.MustCompile(`(?i)\d+\s+[A-Za-z\s]+(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Drive|Dr|Lane|Ln|Way|Place|Pl)\b`)
	cityStateZipRe  = regexp.MustCompile(`\d+\s+[A-Za-z\s]+,\s*[A-Za-z\s]+,\s*[A-Za-z]{2}\s+\d{5}`)

	foundedYearRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)founded\s+in\s+(\d{4})`),
		regexp.MustCompile(`(?i)since\s+(\d{4})`),
		regexp.MustCompile(`(?i)established\s+in\s+(\d{4})`),
		regexp.MustCompile(`©\s*(\d{4})`),
		regexp.MustCompile(`(?i)copyright\s+(\d{4})`),
	}

	competitorRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)competitors?[:\s]+([^.]+)`),
		regexp.MustCompile(`(?i)vs\.?\s+([A-Za-z][a-z]+)`),
		regexp.MustCompile(`(?i)alternative to\s+([A-Za-z][a-z]+)`),
	}

	companySizeRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d+)\s*(?:to|[-–])\s*(\d+)\s*employees`),
		regexp.MustCompile(`(?i)(\d+)\+?\s*employees`),
		regexp.MustCompile(`(?i)team\s+of\s+(\d+)`),
		regexp.MustCompile(`(?i)(\d+)\s*people`),
	}

	fundingRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)raised\s+\$([0-9,.]+\s*(?:million|m|billion|b|thousand|k))`),
		regexp.MustCompile(`(?i)funding\s+of\s+\$([0-9,.]+\s*(?:million|m|billion|b|thousand|k))`),
		regexp.MustCompile(`(?i)series\s+[a-z]\s+\$([0-9,.]+\s*(?:million|m|billion|b|thousand|k))`),
	}
)
