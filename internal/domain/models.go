package domain

import (
	"fmt"
	"time"
)

// Tier is the fidelity level of an extraction run. Tiers are cumulative:
// each one re-runs the previous tier before adding its own fields.
type Tier string

const (
	TierBasic    Tier = "basic"
	TierMedium   Tier = "medium"
	TierAdvanced Tier = "advanced"
)

// ParseTier validates a tier name supplied by the CLI or API.
func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierBasic, TierMedium, TierAdvanced:
		return Tier(s), nil
	}
	return "", fmt.Errorf("invalid extraction level: %q", s)
}

// Rank orders tiers so callers can compare achieved vs requested fidelity.
func (t Tier) Rank() int {
	switch t {
	case TierBasic:
		return 1
	case TierMedium:
		return 2
	case TierAdvanced:
		return 3
	}
	return 0
}

// CompanyRecord holds everything extracted from one company website.
// Fields past the basic set are only populated when the record's
// ExtractionLevel owns them; a record never carries fields from a higher
// tier than it declares.
type CompanyRecord struct {
	URL             string   `json:"url"`
	CompanyName     string   `json:"company_name"`
	WebsiteURL      string   `json:"website_url"`
	Emails          []string `json:"email"`
	Phones          []string `json:"phone"`
	ExtractionLevel Tier     `json:"extraction_level"`

	// Medium tier
	SocialMedia map[string]string `json:"social_media,omitempty"`
	Address     string            `json:"address,omitempty"`
	Description string            `json:"description,omitempty"`
	YearFounded int               `json:"year_founded,omitempty"`
	Industry    string            `json:"industry,omitempty"`
	Services    []string          `json:"services,omitempty"`

	// Advanced tier
	TechStack       map[string][]string `json:"tech_stack,omitempty"`
	CurrentProjects []string            `json:"current_projects,omitempty"`
	Competitors     []string            `json:"competitors,omitempty"`
	MarketPosition  string              `json:"market_position,omitempty"`
	CompanySize     string              `json:"company_size,omitempty"`
	FundingInfo     string              `json:"funding_info,omitempty"`
	NewsMentions    []string            `json:"news_mentions,omitempty"`

	ScrapedAt time.Time `json:"scraped_at,omitempty"`
}

// FailedItem records one input URL the batch could not process.
type FailedItem struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// BatchResult is the outcome of one orchestrator run.
type BatchResult struct {
	Query     string           `json:"query,omitempty"`
	Level     Tier             `json:"extraction_level"`
	Succeeded []*CompanyRecord `json:"succeeded"`
	Failed    []FailedItem     `json:"failed"`
	StartedAt time.Time        `json:"started_at"`
	Duration  time.Duration    `json:"duration"`
}

// ScrapeRequest is the payload accepted by the scrape API endpoint.
type ScrapeRequest struct {
	URLs       []string `json:"urls,omitempty"`
	Query      string   `json:"query,omitempty"`
	Level      string   `json:"level"`
	MaxResults int      `json:"max_results,omitempty"`
	Format     string   `json:"format,omitempty"`
}

// DiscoverRequest is the payload accepted by the discover API endpoint.
type DiscoverRequest struct {
	Query      string   `json:"query"`
	MaxResults int      `json:"max_results,omitempty"`
	Engines    []string `json:"engines,omitempty"`
}

// Progress is emitted after each processed batch item.
type Progress struct {
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
	URL       string `json:"url"`
	OK        bool   `json:"ok"`
}
