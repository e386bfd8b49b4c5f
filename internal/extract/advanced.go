package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractTechStack matches category vocabularies against page text and
// inspects inline script content for frontend framework names.
func extractTechStack(doc *goquery.Document) map[string][]string {
	text := strings.ToLower(doc.Text())

	stack := make(map[string][]string)
	for category, technologies := range techStackVocab {
		var found []string
		for _, tech := range technologies {
			if strings.Contains(text, strings.ToLower(tech)) {
				found = append(found, tech)
			}
		}
		if len(found) > 0 {
			stack[category] = found
		}
	}

	var frameworks []string
	seen := make(map[string]struct{})
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		script := strings.ToLower(s.Text())
		if script == "" {
			return
		}
		for _, framework := range frontendFrameworks {
			if !strings.Contains(script, framework) {
				continue
			}
			if _, ok := seen[framework]; !ok {
				seen[framework] = struct{}{}
				frameworks = append(frameworks, framework)
			}
		}
	})
	if len(frameworks) > 0 {
		stack["frontend_frameworks"] = frameworks
	}

	if len(stack) == 0 {
		return nil
	}
	return stack
}

// headingTexts collects the first heading inside each container matched by
// the selectors, capped at limit.
func headingTexts(doc *goquery.Document, selectors []string, limit int) []string {
	var titles []string
	for _, selector := range selectors {
		doc.Find(selector).EachWithBreak(func(i int, s *goquery.Selection) bool {
			if i >= limit {
				return false
			}
			title := strings.TrimSpace(s.Find("h1, h2, h3, h4").First().Text())
			if title != "" {
				titles = append(titles, title)
			}
			return true
		})
	}
	if len(titles) > limit {
		titles = titles[:limit]
	}
	return titles
}

func extractCurrentProjects(doc *goquery.Document) []string {
	return headingTexts(doc, projectSelectors, 3)
}

func extractNewsMentions(doc *goquery.Document) []string {
	return headingTexts(doc, newsSelectors, 3)
}

func extractCompetitors(doc *goquery.Document) []string {
	text := doc.Text()

	var competitors []string
	seen := make(map[string]struct{})
	for _, re := range competitorRes {
		for _, match := range re.FindAllStringSubmatch(text, -1) {
			name := strings.TrimSpace(match[1])
			if name == "" {
				continue
			}
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				competitors = append(competitors, name)
			}
		}
	}
	if len(competitors) > 5 {
		competitors = competitors[:5]
	}
	return competitors
}

func extractMarketPosition(doc *goquery.Document) string {
	text := strings.ToLower(doc.Text())
	for _, position := range marketPositionVocab {
		for _, keyword := range position.Keywords {
			if strings.Contains(text, keyword) {
				return position.Label
			}
		}
	}
	return ""
}

func extractCompanySize(doc *goquery.Document) string {
	text := doc.Text()
	for _, re := range companySizeRes {
		match := re.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		if len(match) > 2 && match[2] != "" {
			return fmt.Sprintf("%s-%s employees", match[1], match[2])
		}
		return fmt.Sprintf("%s employees", match[1])
	}
	return ""
}

func extractFundingInfo(doc *goquery.Document) string {
	text := doc.Text()
	for _, re := range fundingRes {
		if match := re.FindStringSubmatch(text); match != nil {
			return "$" + strings.TrimSpace(match[1])
		}
	}
	return ""
}
