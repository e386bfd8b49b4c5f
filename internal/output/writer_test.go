package output

import (
	"encoding/csv"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/NAVEENKUMARKR777/UnicraftTech-Web-Scraping-Tool-Assignment/internal/domain"
)

func sampleRecords() []*domain.CompanyRecord {
	return []*domain.CompanyRecord{
		{
			URL:             "https://acme.test",
			CompanyName:     "Acme Corp",
			WebsiteURL:      "https://acme.test",
			Emails:          []string{"info@acme.test", "sales@acme.test"},
			Phones:          []string{"+1-555-123-4567"},
			ExtractionLevel: domain.TierMedium,
			SocialMedia:     map[string]string{"linkedin": "https://linkedin.com/company/acme"},
			Address:         "1 Main Street, Springfield",
			Description:     "Acme builds industrial widgets.",
			YearFounded:     2012,
			Industry:        "Software",
			Services:        []string{"Widget consulting"},
			ScrapedAt:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			URL:             "https://beta.test",
			CompanyName:     "Beta Inc",
			WebsiteURL:      "https://beta.test",
			ExtractionLevel: domain.TierBasic,
		},
	}
}

func newTestWriter(t *testing.T) *Writer {
	t.Helper()
	w, err := NewWriter(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"CSV", FormatCSV, false},
		{"excel", FormatExcel, false},
		{"xlsx", FormatExcel, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestJSONRoundTrip(t *testing.T) {
	w := newTestWriter(t)
	records := sampleRecords()

	path, err := w.SaveJSON(records, "test")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(path, ".json") {
		t.Errorf("path = %q", path)
	}

	loaded, err := LoadJSON(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != len(records) {
		t.Fatalf("loaded %d records, want %d", len(loaded), len(records))
	}
	got, want := loaded[0], records[0]
	if got.CompanyName != want.CompanyName || got.ExtractionLevel != want.ExtractionLevel {
		t.Errorf("round trip changed record: got %+v, want %+v", got, want)
	}
	if !reflect.DeepEqual(got.Emails, want.Emails) || !reflect.DeepEqual(got.SocialMedia, want.SocialMedia) {
		t.Errorf("round trip changed contacts: %+v", got)
	}
	if !got.ScrapedAt.Equal(want.ScrapedAt) {
		t.Errorf("scraped_at = %v, want %v", got.ScrapedAt, want.ScrapedAt)
	}
	if loaded[1].YearFounded != 0 || len(loaded[1].Services) != 0 {
		t.Errorf("empty fields grew values: %+v", loaded[1])
	}
}

func TestSaveCSV(t *testing.T) {
	w := newTestWriter(t)

	path, err := w.SaveCSV(sampleRecords(), "test")
	if err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header plus 2 records", len(rows))
	}
	if !reflect.DeepEqual(rows[0], csvHeader) {
		t.Errorf("header = %v", rows[0])
	}

	acme := rows[1]
	if acme[0] != "https://acme.test" || acme[1] != "Acme Corp" {
		t.Errorf("first row = %v", acme)
	}
	if acme[3] != "info@acme.test; sales@acme.test" {
		t.Errorf("emails column = %q", acme[3])
	}
	if acme[6] != "linkedin: https://linkedin.com/company/acme" {
		t.Errorf("social column = %q", acme[6])
	}
	if acme[9] != "2012" {
		t.Errorf("year column = %q", acme[9])
	}

	// Empty optional fields flatten to empty strings, not "0" or "<nil>".
	beta := rows[2]
	if beta[9] != "" || beta[19] != "" {
		t.Errorf("empty fields = year %q, scraped %q", beta[9], beta[19])
	}
}

func TestSaveExcel(t *testing.T) {
	w := newTestWriter(t)

	path, err := w.SaveExcel(sampleRecords(), "test")
	if err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	name, err := f.GetCellValue("Companies", "B2")
	if err != nil {
		t.Fatal(err)
	}
	if name != "Acme Corp" {
		t.Errorf("B2 = %q, want company name", name)
	}

	rows, err := f.GetRows("Summary")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) < 4 {
		t.Fatalf("summary rows = %d", len(rows))
	}
	if rows[1][0] != "Total companies" || rows[1][1] != "2" {
		t.Errorf("summary total row = %v", rows[1])
	}
}

func TestSaveDispatchesOnFormat(t *testing.T) {
	w := newTestWriter(t)
	path, err := w.Save(sampleRecords(), FormatCSV, "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(path, ".csv") || !strings.Contains(path, "companies_data") {
		t.Errorf("path = %q", path)
	}

	if _, err := w.Save(sampleRecords(), Format("yaml"), ""); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestSummarize(t *testing.T) {
	stats := Summarize(sampleRecords())
	if stats.TotalCompanies != 2 || stats.WithEmail != 1 || stats.WithPhone != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.ByLevel["medium"] != 1 || stats.ByLevel["basic"] != 1 {
		t.Errorf("by level = %v", stats.ByLevel)
	}
	if stats.ByIndustry["Software"] != 1 {
		t.Errorf("by industry = %v", stats.ByIndustry)
	}
}
