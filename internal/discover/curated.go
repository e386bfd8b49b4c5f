package discover

import "strings"

// curatedCompanies maps topical categories to known company sites. The
// curated strategy keeps discovery useful for demos and degraded networks
// where every search backend is blocked or unreachable.
var curatedCompanies = map[string][]string{
	"cloud computing": {
		"https://aws.amazon.com",
		"https://cloud.google.com",
		"https://azure.microsoft.com",
		"https://www.digitalocean.com",
		"https://www.linode.com",
		"https://vultr.com",
		"https://www.scaleway.com",
		"https://www.hetzner.com",
	},
	"ai": {
		"https://openai.com",
		"https://www.anthropic.com",
		"https://stability.ai",
		"https://www.midjourney.com",
		"https://huggingface.co",
		"https://replicate.com",
		"https://www.perplexity.ai",
		"https://claude.ai",
	},
	"fintech": {
		"https://stripe.com",
		"https://square.com",
		"https://www.paypal.com",
		"https://www.coinbase.com",
		"https://plaid.com",
		"https://www.affirm.com",
		"https://www.klarna.com",
		"https://www.robinhood.com",
	},
	"saas": {
		"https://slack.com",
		"https://zoom.us",
		"https://www.salesforce.com",
		"https://www.hubspot.com",
		"https://www.zendesk.com",
		"https://www.atlassian.com",
		"https://monday.com",
		"https://www.notion.so",
	},
}

// curatedFor returns category URLs whose keywords overlap the query, or a
// small sample across all categories when nothing matches.
func curatedFor(query string) []string {
	queryLower := strings.ToLower(query)

	var urls []string
	for category, companies := range curatedCompanies {
		for _, keyword := range strings.Fields(category) {
			if strings.Contains(queryLower, keyword) {
				urls = append(urls, companies[:4]...)
				break
			}
		}
	}

	if len(urls) == 0 {
		for _, companies := range curatedCompanies {
			urls = append(urls, companies[:2]...)
		}
	}
	return urls
}

var techQueryKeywords = []string{"tech", "software", "app", "platform", "cloud", "ai"}

// isTechQuery gates the source-hosting organization strategy.
func isTechQuery(query string) bool {
	queryLower := strings.ToLower(query)
	for _, keyword := range techQueryKeywords {
		if strings.Contains(queryLower, keyword) {
			return true
		}
	}
	return false
}
