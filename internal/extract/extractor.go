package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/NAVEENKUMARKR777/UnicraftTech-Web-Scraping-Tool-Assignment/internal/domain"
)

// PageFetcher retrieves parsed page content. A nil document signals any
// fetch failure; the extractor degrades instead of erroring.
type PageFetcher interface {
	Fetch(ctx context.Context, url string, render bool) *goquery.Document
}

// Extractor produces CompanyRecords at a requested fidelity tier. Each tier
// re-runs the one below it and augments the record, so a record's
// ExtractionLevel always reflects the highest tier that actually completed.
type Extractor struct {
	fetcher PageFetcher
	logger  *zap.Logger
}

func New(fetcher PageFetcher, logger *zap.Logger) *Extractor {
	return &Extractor{fetcher: fetcher, logger: logger}
}

// Extract scrapes one URL at the given tier. Only a basic-tier fetch
// failure returns an error; higher tiers degrade to the best record already
// produced.
func (x *Extractor) Extract(ctx context.Context, url string, tier domain.Tier) (*domain.CompanyRecord, error) {
	switch tier {
	case domain.TierBasic:
		return x.extractBasic(ctx, url)
	case domain.TierMedium:
		return x.extractMedium(ctx, url)
	case domain.TierAdvanced:
		return x.extractAdvanced(ctx, url)
	}
	return nil, fmt.Errorf("invalid extraction level: %q", tier)
}

func (x *Extractor) extractBasic(ctx context.Context, url string) (*domain.CompanyRecord, error) {
	x.logger.Info("extracting basic data", zap.String("url", url))

	doc := x.fetcher.Fetch(ctx, url, false)
	if doc == nil {
		return nil, fmt.Errorf("failed to fetch page content")
	}

	return &domain.CompanyRecord{
		URL:             url,
		CompanyName:     companyName(doc, url),
		WebsiteURL:      url,
		Emails:          extractEmails(doc),
		Phones:          extractPhones(doc),
		ExtractionLevel: domain.TierBasic,
		ScrapedAt:       time.Now(),
	}, nil
}

func (x *Extractor) extractMedium(ctx context.Context, url string) (*domain.CompanyRecord, error) {
	record, err := x.extractBasic(ctx, url)
	if err != nil {
		return nil, err
	}

	x.logger.Info("extracting medium data", zap.String("url", url))

	doc := x.fetcher.Fetch(ctx, url, false)
	if doc == nil {
		// Degraded: the record keeps its basic level.
		return record, nil
	}

	record.SocialMedia = extractSocialLinks(doc)
	record.Address = extractAddress(doc)
	record.Description = extractDescription(doc)
	record.YearFounded = extractFoundedYear(doc)
	record.Industry = extractIndustry(doc)
	record.Services = extractServices(doc)
	record.ExtractionLevel = domain.TierMedium

	contactPages := findContactPages(doc, url)
	if len(contactPages) > 2 {
		contactPages = contactPages[:2]
	}
	for _, contactURL := range contactPages {
		x.mergeContactPage(ctx, contactURL, record)
	}

	return record, nil
}

func (x *Extractor) extractAdvanced(ctx context.Context, url string) (*domain.CompanyRecord, error) {
	record, err := x.extractMedium(ctx, url)
	if err != nil {
		return nil, err
	}

	x.logger.Info("extracting advanced data", zap.String("url", url))

	doc := x.fetcher.Fetch(ctx, url, true)
	if doc == nil {
		return record, nil
	}

	record.TechStack = extractTechStack(doc)
	record.CurrentProjects = extractCurrentProjects(doc)
	record.Competitors = extractCompetitors(doc)
	record.MarketPosition = extractMarketPosition(doc)
	record.CompanySize = extractCompanySize(doc)
	record.FundingInfo = extractFundingInfo(doc)
	record.NewsMentions = extractNewsMentions(doc)
	record.ExtractionLevel = domain.TierAdvanced

	return record, nil
}

// mergeContactPage unions emails, phones, and a missing address found on a
// contact or about page into the record. Existing values are never replaced.
func (x *Extractor) mergeContactPage(ctx context.Context, url string, record *domain.CompanyRecord) {
	doc := x.fetcher.Fetch(ctx, url, false)
	if doc == nil {
		return
	}

	record.Emails = unionSorted(record.Emails, extractEmails(doc))
	record.Phones = unionSorted(record.Phones, extractPhones(doc))

	if record.Address == "" {
		record.Address = extractAddress(doc)
	}
}
