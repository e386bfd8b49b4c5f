package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/NAVEENKUMARKR777/UnicraftTech-Web-Scraping-Tool-Assignment/internal/domain"
)

type stubDiscoverer struct {
	results   map[string][]string
	related   []string
	calls     []string
	seedCalls int
}

func (d *stubDiscoverer) Discover(_ context.Context, query string, _ int) ([]string, error) {
	d.calls = append(d.calls, query)
	return d.results[query], nil
}

func (d *stubDiscoverer) SeedDiscovery(_ context.Context, _ []string, _ int) []string {
	d.seedCalls++
	return d.related
}

type stubExtractor struct {
	calls   []string
	failOn  map[string]bool
	degrade bool
}

func (x *stubExtractor) Extract(_ context.Context, url string, tier domain.Tier) (*domain.CompanyRecord, error) {
	x.calls = append(x.calls, url)
	if x.failOn[url] {
		return nil, fmt.Errorf("failed to fetch page content")
	}
	level := tier
	if x.degrade && tier != domain.TierBasic {
		level = domain.TierBasic
	}
	return &domain.CompanyRecord{
		URL:             url,
		CompanyName:     "Test Co",
		WebsiteURL:      url,
		ExtractionLevel: level,
		ScrapedAt:       time.Now(),
	}, nil
}

type memoryDedup struct {
	seen map[string]bool
}

func (m *memoryDedup) IsRecentlyScraped(_ context.Context, url string) (bool, error) {
	return m.seen[url], nil
}

func (m *memoryDedup) MarkScraped(_ context.Context, url string, _ time.Duration) error {
	m.seen[url] = true
	return nil
}

type countingDedup struct {
	memoryDedup
	retries map[string]int64
}

func (c *countingDedup) IncrementRetryCount(_ context.Context, url string) (int64, error) {
	c.retries[url]++
	return c.retries[url], nil
}

func newTestOrchestrator(d Discoverer, x Extractor) *Orchestrator {
	return New(d, x, nil, zap.NewNop())
}

func TestRunURLsRejectsInvalidInputWithoutFetching(t *testing.T) {
	extractor := &stubExtractor{}
	o := newTestOrchestrator(&stubDiscoverer{}, extractor)

	result, err := o.RunURLs(context.Background(), []string{"not a url", "acme.test"}, domain.TierBasic)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Failed) != 2 || len(result.Succeeded) != 0 {
		t.Fatalf("result = %d ok / %d failed, want 0/2", len(result.Succeeded), len(result.Failed))
	}
	if len(extractor.calls) != 0 {
		t.Errorf("extractor was called %d times for invalid input", len(extractor.calls))
	}
	for _, item := range result.Failed {
		if item.Error == "" {
			t.Errorf("failed item %q has no error message", item.URL)
		}
	}
}

func TestRunURLsPreservesOrderAndCollectsFailures(t *testing.T) {
	extractor := &stubExtractor{failOn: map[string]bool{"https://down.test": true}}
	o := newTestOrchestrator(&stubDiscoverer{}, extractor)

	urls := []string{"https://a.test", "https://down.test", "https://b.test"}
	result, err := o.RunURLs(context.Background(), urls, domain.TierMedium)
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Succeeded) != 2 {
		t.Fatalf("succeeded = %d, want 2", len(result.Succeeded))
	}
	if result.Succeeded[0].URL != "https://a.test" || result.Succeeded[1].URL != "https://b.test" {
		t.Errorf("order not preserved: %s, %s", result.Succeeded[0].URL, result.Succeeded[1].URL)
	}
	if len(result.Failed) != 1 || result.Failed[0].URL != "https://down.test" {
		t.Errorf("failed = %v", result.Failed)
	}
	if result.Duration <= 0 {
		t.Error("duration not recorded")
	}
}

func TestRunURLsEmitsProgress(t *testing.T) {
	o := newTestOrchestrator(&stubDiscoverer{}, &stubExtractor{})
	var events []domain.Progress
	o.OnProgress(func(p domain.Progress) { events = append(events, p) })

	if _, err := o.RunURLs(context.Background(), []string{"https://a.test", "https://b.test"}, domain.TierBasic); err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("progress events = %d, want 2", len(events))
	}
	if events[1].Processed != 2 || events[1].Total != 2 || !events[1].OK {
		t.Errorf("last event = %+v", events[1])
	}
}

func TestRunURLsStopsOnCanceledContext(t *testing.T) {
	extractor := &stubExtractor{}
	o := newTestOrchestrator(&stubDiscoverer{}, extractor)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := o.RunURLs(ctx, []string{"https://a.test"}, domain.TierBasic)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if result == nil {
		t.Fatal("partial result should still be returned")
	}
	if len(extractor.calls) != 0 {
		t.Error("no extraction should run after cancellation")
	}
}

func TestRunQueryFallsBackToBroadenedQuery(t *testing.T) {
	discoverer := &stubDiscoverer{results: map[string][]string{
		"widget makers companies": {"https://acme.test"},
	}}
	o := newTestOrchestrator(discoverer, &stubExtractor{})

	result, err := o.RunQuery(context.Background(), "widget makers", domain.TierBasic, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(discoverer.calls) != 2 {
		t.Errorf("discover calls = %v, want primary then broadened", discoverer.calls)
	}
	if result.Query != "widget makers" {
		t.Errorf("result query = %q", result.Query)
	}
	if len(result.Succeeded) != 1 {
		t.Errorf("succeeded = %d, want 1", len(result.Succeeded))
	}
}

func TestRunQueryExpandsShortResultsViaSeeds(t *testing.T) {
	discoverer := &stubDiscoverer{
		results: map[string][]string{"widget makers": {"https://acme.test"}},
		related: []string{"https://partnerco.test"},
	}
	o := newTestOrchestrator(discoverer, &stubExtractor{})

	result, err := o.RunQuery(context.Background(), "widget makers", domain.TierBasic, 5)
	if err != nil {
		t.Fatal(err)
	}
	if discoverer.seedCalls != 1 {
		t.Errorf("seed discovery calls = %d, want 1", discoverer.seedCalls)
	}
	if len(result.Succeeded) != 2 {
		t.Errorf("succeeded = %d, want discovered plus seed result", len(result.Succeeded))
	}
}

func TestRunQueryNoCandidates(t *testing.T) {
	o := newTestOrchestrator(&stubDiscoverer{}, &stubExtractor{})
	_, err := o.RunQuery(context.Background(), "nothing findable", domain.TierBasic, 10)
	if !errors.Is(err, ErrNoCandidates) {
		t.Errorf("err = %v, want ErrNoCandidates", err)
	}
}

func TestDegradedRecordsStillSucceed(t *testing.T) {
	o := newTestOrchestrator(&stubDiscoverer{}, &stubExtractor{degrade: true})

	result, err := o.RunURLs(context.Background(), []string{"https://a.test"}, domain.TierAdvanced)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Succeeded) != 1 {
		t.Fatalf("succeeded = %d, want 1", len(result.Succeeded))
	}
	if got := result.Succeeded[0].ExtractionLevel; got != domain.TierBasic {
		t.Errorf("achieved level = %s, want the degraded basic", got)
	}
}

func TestFailedExtractionBumpsRetryCounter(t *testing.T) {
	extractor := &stubExtractor{failOn: map[string]bool{"https://down.test": true}}
	o := newTestOrchestrator(&stubDiscoverer{}, extractor)
	dedup := &countingDedup{
		memoryDedup: memoryDedup{seen: map[string]bool{}},
		retries:     map[string]int64{},
	}
	o.WithStores(nil, dedup, time.Hour)

	if _, err := o.RunURLs(context.Background(), []string{"https://down.test", "https://ok.test"}, domain.TierBasic); err != nil {
		t.Fatal(err)
	}
	if dedup.retries["https://down.test"] != 1 {
		t.Errorf("retry count = %d, want 1", dedup.retries["https://down.test"])
	}
	if dedup.retries["https://ok.test"] != 0 {
		t.Errorf("successful URL got a retry bump: %v", dedup.retries)
	}
}

func TestDedupStoreSkipsRecentURLs(t *testing.T) {
	extractor := &stubExtractor{}
	o := newTestOrchestrator(&stubDiscoverer{}, extractor)
	o.WithStores(nil, &memoryDedup{seen: map[string]bool{}}, time.Hour)

	ctx := context.Background()
	first, err := o.RunURLs(ctx, []string{"https://a.test"}, domain.TierBasic)
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Succeeded) != 1 {
		t.Fatalf("first run succeeded = %d", len(first.Succeeded))
	}

	second, err := o.RunURLs(ctx, []string{"https://a.test"}, domain.TierBasic)
	if err != nil {
		t.Fatal(err)
	}
	if len(second.Succeeded) != 0 || len(second.Failed) != 1 {
		t.Errorf("second run = %d ok / %d failed, want the URL skipped", len(second.Succeeded), len(second.Failed))
	}
	if len(extractor.calls) != 1 {
		t.Errorf("extractor calls = %d, want 1", len(extractor.calls))
	}
}
