package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/NAVEENKUMARKR777/UnicraftTech-Web-Scraping-Tool-Assignment/internal/domain"
)

// stubFetcher serves canned HTML per URL. failAfter > 0 makes every call past
// that count fail; renderFails makes only rendered fetches fail.
type stubFetcher struct {
	pages       map[string]string
	calls       int
	failAfter   int
	renderFails bool
}

func (f *stubFetcher) Fetch(_ context.Context, url string, render bool) *goquery.Document {
	f.calls++
	if f.failAfter > 0 && f.calls > f.failAfter {
		return nil
	}
	if render && f.renderFails {
		return nil
	}
	html, ok := f.pages[url]
	if !ok {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	return doc
}

const homePage = `<html>
<head>
	<title>Acme Corp | Industrial Widgets</title>
	<meta name="description" content="Acme builds industrial widgets.">
</head>
<body>
	<h1>Acme Corp</h1>
	<a href="mailto:info@acme.test">Email</a>
	<a href="tel:+1-555-123-4567">Call</a>
	<a href="https://linkedin.com/company/acme">LinkedIn</a>
	<a href="/contact">Contact</a>
	<p>Founded in 2012. We are the industry leader in widget software.</p>
	<p>Our stack: React, PostgreSQL, AWS. Team of 80 people. We raised $5 million.</p>
</body>
</html>`

const contactPage = `<html><body>
	<a href="mailto:sales@acme.test">Sales</a>
	<div class="address">1 Main Street, Springfield</div>
</body></html>`

func newTestExtractor(f *stubFetcher) *Extractor {
	return New(f, zap.NewNop())
}

func TestExtractBasic(t *testing.T) {
	x := newTestExtractor(&stubFetcher{pages: map[string]string{"https://acme.test": homePage}})

	record, err := x.Extract(context.Background(), "https://acme.test", domain.TierBasic)
	if err != nil {
		t.Fatal(err)
	}
	if record.ExtractionLevel != domain.TierBasic {
		t.Errorf("level = %s, want basic", record.ExtractionLevel)
	}
	if record.CompanyName != "Acme Corp" {
		t.Errorf("company name = %q", record.CompanyName)
	}
	if len(record.Emails) != 1 || record.Emails[0] != "info@acme.test" {
		t.Errorf("emails = %v", record.Emails)
	}
	if len(record.Phones) == 0 {
		t.Error("expected a phone number")
	}
	if record.ScrapedAt.IsZero() {
		t.Error("scraped_at not set")
	}

	// Basic records never carry higher-tier fields.
	if record.Description != "" || record.SocialMedia != nil || record.TechStack != nil {
		t.Errorf("basic record has higher-tier fields: %+v", record)
	}
}

func TestExtractBasicFetchFailure(t *testing.T) {
	x := newTestExtractor(&stubFetcher{pages: map[string]string{}})
	_, err := x.Extract(context.Background(), "https://down.test", domain.TierBasic)
	if err == nil {
		t.Fatal("expected error when the page cannot be fetched")
	}
	if !strings.Contains(err.Error(), "failed to fetch page content") {
		t.Errorf("err = %v", err)
	}
}

func TestExtractMediumMergesContactPage(t *testing.T) {
	x := newTestExtractor(&stubFetcher{pages: map[string]string{
		"https://acme.test":         homePage,
		"https://acme.test/contact": contactPage,
	}})

	record, err := x.Extract(context.Background(), "https://acme.test", domain.TierMedium)
	if err != nil {
		t.Fatal(err)
	}
	if record.ExtractionLevel != domain.TierMedium {
		t.Errorf("level = %s, want medium", record.ExtractionLevel)
	}
	if record.Description != "Acme builds industrial widgets." {
		t.Errorf("description = %q", record.Description)
	}
	if record.YearFounded != 2012 {
		t.Errorf("year founded = %d", record.YearFounded)
	}
	if record.SocialMedia["linkedin"] == "" {
		t.Error("linkedin link missing")
	}

	// The contact page contributed a second email and the address.
	if len(record.Emails) != 2 {
		t.Errorf("emails = %v, want union of home and contact pages", record.Emails)
	}
	if record.Address != "1 Main Street, Springfield" {
		t.Errorf("address = %q", record.Address)
	}

	// Medium records never carry advanced fields.
	if record.TechStack != nil || record.CompanySize != "" || record.FundingInfo != "" {
		t.Errorf("medium record has advanced fields: %+v", record)
	}
}

func TestExtractMediumAddressRegexFallback(t *testing.T) {
	page := `<html><head><title>Sparse Co</title></head>
		<body><p>123 Main Street</p></body></html>`
	x := newTestExtractor(&stubFetcher{pages: map[string]string{"https://sparse.test": page}})

	record, err := x.Extract(context.Background(), "https://sparse.test", domain.TierMedium)
	if err != nil {
		t.Fatal(err)
	}
	if record.Address != "123 Main Street" {
		t.Errorf("address = %q, want the regex fallback match", record.Address)
	}
	if record.Description != "" {
		t.Errorf("description = %q, want empty", record.Description)
	}
}

func TestExtractMediumDegradesToBasic(t *testing.T) {
	// Only the first fetch succeeds, so the medium pass loses its document
	// and the record keeps the basic level.
	x := newTestExtractor(&stubFetcher{
		pages:     map[string]string{"https://acme.test": homePage},
		failAfter: 1,
	})

	record, err := x.Extract(context.Background(), "https://acme.test", domain.TierMedium)
	if err != nil {
		t.Fatal(err)
	}
	if record.ExtractionLevel != domain.TierBasic {
		t.Errorf("level = %s, want degraded basic", record.ExtractionLevel)
	}
	if len(record.Emails) == 0 {
		t.Error("basic fields should survive degradation")
	}
}

func TestExtractAdvanced(t *testing.T) {
	x := newTestExtractor(&stubFetcher{pages: map[string]string{
		"https://acme.test":         homePage,
		"https://acme.test/contact": contactPage,
	}})

	record, err := x.Extract(context.Background(), "https://acme.test", domain.TierAdvanced)
	if err != nil {
		t.Fatal(err)
	}
	if record.ExtractionLevel != domain.TierAdvanced {
		t.Errorf("level = %s, want advanced", record.ExtractionLevel)
	}
	if len(record.TechStack["databases"]) == 0 {
		t.Errorf("tech stack = %v", record.TechStack)
	}
	if record.MarketPosition != "leader" {
		t.Errorf("market position = %q", record.MarketPosition)
	}
	if record.CompanySize != "80 employees" {
		t.Errorf("company size = %q", record.CompanySize)
	}
	if record.FundingInfo != "$5 million" {
		t.Errorf("funding = %q", record.FundingInfo)
	}
	// Medium fields remain present: tiers are cumulative.
	if record.YearFounded != 2012 {
		t.Errorf("year founded = %d", record.YearFounded)
	}
}

func TestExtractAdvancedDegradesToMedium(t *testing.T) {
	x := newTestExtractor(&stubFetcher{
		pages:       map[string]string{"https://acme.test": homePage},
		renderFails: true,
	})

	record, err := x.Extract(context.Background(), "https://acme.test", domain.TierAdvanced)
	if err != nil {
		t.Fatal(err)
	}
	if record.ExtractionLevel != domain.TierMedium {
		t.Errorf("level = %s, want degraded medium", record.ExtractionLevel)
	}
	if record.TechStack != nil {
		t.Errorf("degraded record has advanced fields: %v", record.TechStack)
	}
}

func TestExtractInvalidTier(t *testing.T) {
	x := newTestExtractor(&stubFetcher{})
	if _, err := x.Extract(context.Background(), "https://acme.test", domain.Tier("extreme")); err == nil {
		t.Error("expected error for unknown tier")
	}
}
