package discover

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// newOfflineEngine points every backend at the given server so no test ever
// reaches the real search endpoints.
func newOfflineEngine(srv *httptest.Server, fetcher PageFetcher) *Engine {
	return NewEngine(Options{
		DelayMin:           time.Millisecond,
		DelayMax:           2 * time.Millisecond,
		SearchEngines:      []string{"duckduckgo"},
		Fetcher:            fetcher,
		DuckDuckGoAPIBase:  srv.URL,
		DuckDuckGoHTMLBase: srv.URL,
		BingBase:           srv.URL,
		BuiltInBase:        srv.URL,
		ProductHuntBase:    srv.URL,
		GitHubAPIBase:      srv.URL,
	}, zap.NewNop())
}

func deadServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
}

func TestDiscoverFallsBackToCuratedWhenBackendsFail(t *testing.T) {
	srv := deadServer()
	defer srv.Close()

	e := newOfflineEngine(srv, nil)
	got, err := e.Discover(context.Background(), "fintech companies", 10)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		"https://stripe.com",
		"https://square.com",
		"https://www.paypal.com",
		"https://www.coinbase.com",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Discover() = %v, want curated fintech sites %v", got, want)
	}
}

func TestDiscoverSessionDedup(t *testing.T) {
	srv := deadServer()
	defer srv.Close()

	e := newOfflineEngine(srv, nil)
	ctx := context.Background()

	first, err := e.Discover(ctx, "fintech companies", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) == 0 {
		t.Fatal("first discovery returned nothing")
	}

	second, err := e.Discover(ctx, "fintech companies", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != 0 {
		t.Errorf("second discovery re-returned %v", second)
	}
}

func TestDiscoverUsesSearchBackendResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"Results":[{"FirstURL":"https://bakerysoft.example"}],"RelatedTopics":[]}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	e := newOfflineEngine(srv, nil)
	got, err := e.Discover(context.Background(), "organic bakeries", 12)
	if err != nil {
		t.Fatal(err)
	}

	found := false
	for _, u := range got {
		if u == "https://bakerysoft.example" {
			found = true
		}
	}
	if !found {
		t.Errorf("Discover() = %v, want to include the search backend result", got)
	}
}

func TestDiscoverRespectsMaxResults(t *testing.T) {
	srv := deadServer()
	defer srv.Close()

	e := newOfflineEngine(srv, nil)
	got, err := e.Discover(context.Background(), "fintech companies", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("Discover() returned %d urls, want at most 2", len(got))
	}
}

func TestDiscoverCanceledContext(t *testing.T) {
	srv := deadServer()
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := newOfflineEngine(srv, nil)
	if _, err := e.Discover(ctx, "fintech companies", 10); err == nil {
		t.Error("expected error from canceled context")
	}
}

type seedFetcher struct {
	pages map[string]string
}

func (f *seedFetcher) Fetch(_ context.Context, url string, _ bool) *goquery.Document {
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

func TestSeedDiscovery(t *testing.T) {
	srv := deadServer()
	defer srv.Close()

	seedPage := `<html><body>
		<p>Our partners: <a href="https://partnerco.example">PartnerCo</a></p>
		<a href="https://acme.test/internal">Internal</a>
		<a href="https://www.linkedin.com/company/acme">LinkedIn</a>
	</body></html>`
	fetcher := &seedFetcher{pages: map[string]string{"https://acme.test": seedPage}}

	e := newOfflineEngine(srv, fetcher)
	got := e.SeedDiscovery(context.Background(), []string{"https://acme.test"}, 10)

	want := []string{"https://partnerco.example"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SeedDiscovery() = %v, want %v", got, want)
	}
}

func TestSeedDiscoveryWithoutFetcher(t *testing.T) {
	srv := deadServer()
	defer srv.Close()

	e := newOfflineEngine(srv, nil)
	if got := e.SeedDiscovery(context.Background(), []string{"https://acme.test"}, 10); got != nil {
		t.Errorf("SeedDiscovery() without a fetcher = %v, want nil", got)
	}
}

func TestPauseHonorsCancellation(t *testing.T) {
	e := NewEngine(Options{DelayMin: 10 * time.Second, DelayMax: 20 * time.Second}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	e.pause(ctx)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("pause blocked %v after cancellation", elapsed)
	}
}
