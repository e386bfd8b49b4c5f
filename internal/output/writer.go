package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/NAVEENKUMARKR777/UnicraftTech-Web-Scraping-Tool-Assignment/internal/domain"
)

// Format is a supported export format.
type Format string

const (
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
)

// ParseFormat validates a format name supplied by the CLI or API.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatCSV, FormatExcel:
		return f, nil
	case "xlsx":
		return FormatExcel, nil
	}
	return "", fmt.Errorf("unsupported output format: %q", s)
}

// Writer exports company records to files under a single output directory.
type Writer struct {
	dir    string
	logger *zap.Logger
}

func NewWriter(dir string, logger *zap.Logger) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Writer{dir: dir, logger: logger}, nil
}

// Save writes records in the requested format and returns the file path.
func (w *Writer) Save(records []*domain.CompanyRecord, format Format, baseName string) (string, error) {
	if baseName == "" {
		baseName = "companies_data"
	}
	var (
		path string
		err  error
	)
	switch format {
	case FormatJSON:
		path, err = w.SaveJSON(records, baseName)
	case FormatCSV:
		path, err = w.SaveCSV(records, baseName)
	case FormatExcel:
		path, err = w.SaveExcel(records, baseName)
	default:
		return "", fmt.Errorf("unsupported output format: %q", format)
	}
	if err != nil {
		return "", err
	}
	w.logger.Info("saved records",
		zap.Int("count", len(records)),
		zap.String("format", string(format)),
		zap.String("path", path))
	return path, nil
}

// timestampedPath keeps repeated runs from overwriting each other.
func (w *Writer) timestampedPath(baseName, ext string) string {
	stamp := time.Now().Format("20060102_150405")
	return filepath.Join(w.dir, fmt.Sprintf("%s_%s.%s", baseName, stamp, ext))
}

// SaveJSON writes the records as a pretty-printed JSON array.
func (w *Writer) SaveJSON(records []*domain.CompanyRecord, baseName string) (string, error) {
	path := w.timestampedPath(baseName, "json")
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write JSON output: %w", err)
	}
	return path, nil
}

// LoadJSON reads back a file produced by SaveJSON.
func LoadJSON(path string) ([]*domain.CompanyRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []*domain.CompanyRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}

// csvHeader is the fixed column order for tabular exports. Multi-valued
// fields are joined so each record stays on one row.
var csvHeader = []string{
	"url", "company_name", "website_url", "email", "phone", "extraction_level",
	"social_media", "address", "description", "year_founded", "industry", "services",
	"tech_stack", "current_projects", "competitors", "market_position",
	"company_size", "funding_info", "news_mentions", "scraped_at",
}

func flattenRecord(r *domain.CompanyRecord) []string {
	year := ""
	if r.YearFounded > 0 {
		year = strconv.Itoa(r.YearFounded)
	}
	scraped := ""
	if !r.ScrapedAt.IsZero() {
		scraped = r.ScrapedAt.Format(time.RFC3339)
	}
	return []string{
		r.URL,
		r.CompanyName,
		r.WebsiteURL,
		strings.Join(r.Emails, "; "),
		strings.Join(r.Phones, "; "),
		string(r.ExtractionLevel),
		joinMap(r.SocialMedia),
		r.Address,
		r.Description,
		year,
		r.Industry,
		strings.Join(r.Services, "; "),
		joinTechStack(r.TechStack),
		strings.Join(r.CurrentProjects, "; "),
		strings.Join(r.Competitors, "; "),
		r.MarketPosition,
		r.CompanySize,
		r.FundingInfo,
		strings.Join(r.NewsMentions, "; "),
		scraped,
	}
}

func joinMap(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, m[k]))
	}
	return strings.Join(parts, "; ")
}

func joinTechStack(m map[string][]string) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(m[k], ", ")))
	}
	return strings.Join(parts, "; ")
}

// SaveCSV writes the records as a flat CSV with one row per company.
func (w *Writer) SaveCSV(records []*domain.CompanyRecord, baseName string) (string, error) {
	path := w.timestampedPath(baseName, "csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create CSV output: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(csvHeader); err != nil {
		return "", err
	}
	for _, r := range records {
		if err := cw.Write(flattenRecord(r)); err != nil {
			return "", err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", err
	}
	return path, nil
}

// Stats summarizes an exported data set, mirroring what the summary sheet
// of the Excel export shows.
type Stats struct {
	TotalCompanies int            `json:"total_companies"`
	WithEmail      int            `json:"with_email"`
	WithPhone      int            `json:"with_phone"`
	ByLevel        map[string]int `json:"by_level"`
	ByIndustry     map[string]int `json:"by_industry"`
}

// Summarize computes export statistics over a record set.
func Summarize(records []*domain.CompanyRecord) Stats {
	stats := Stats{
		TotalCompanies: len(records),
		ByLevel:        map[string]int{},
		ByIndustry:     map[string]int{},
	}
	for _, r := range records {
		if len(r.Emails) > 0 {
			stats.WithEmail++
		}
		if len(r.Phones) > 0 {
			stats.WithPhone++
		}
		stats.ByLevel[string(r.ExtractionLevel)]++
		if r.Industry != "" {
			stats.ByIndustry[r.Industry]++
		}
	}
	return stats
}
