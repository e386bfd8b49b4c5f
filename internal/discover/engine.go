package discover

import (
	"context"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// PageFetcher retrieves parsed page content for seed discovery hops.
type PageFetcher interface {
	Fetch(ctx context.Context, url string, render bool) *goquery.Document
}

// Options tune the discovery engine. Backend base URLs are overridable so
// tests can point them at local servers.
type Options struct {
	DelayMin time.Duration
	DelayMax time.Duration

	SearchEngines []string // subset of "duckduckgo", "bing"
	Client        *http.Client
	Fetcher       PageFetcher // enables seed discovery when set

	DuckDuckGoAPIBase  string
	DuckDuckGoHTMLBase string
	BingBase           string
	BuiltInBase        string
	ProductHuntBase    string
	GitHubAPIBase      string
}

// Engine turns a free-text query into a filtered, deduplicated list of
// candidate company URLs. One engine instance owns the discovered-URL set
// for its session; it is not shared global state.
type Engine struct {
	client  *http.Client
	fetcher PageFetcher
	logger  *zap.Logger

	delayMin time.Duration
	delayMax time.Duration
	engines  []string
	rng      *rand.Rand

	session map[string]struct{}

	ddgAPIBase  string
	ddgHTMLBase string
	bingBase    string
	builtInBase string
	phBase      string
	githubBase  string
}

func NewEngine(opts Options, logger *zap.Logger) *Engine {
	if opts.DelayMin <= 0 {
		opts.DelayMin = time.Second
	}
	if opts.DelayMax < opts.DelayMin {
		opts.DelayMax = 4 * time.Second
	}
	if len(opts.SearchEngines) == 0 {
		opts.SearchEngines = []string{"duckduckgo", "bing"}
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 15 * time.Second}
	}
	defaultBase := func(v, def string) string {
		if v == "" {
			return def
		}
		return v
	}
	return &Engine{
		client:      opts.Client,
		fetcher:     opts.Fetcher,
		logger:      logger,
		delayMin:    opts.DelayMin,
		delayMax:    opts.DelayMax,
		engines:     opts.SearchEngines,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		session:     make(map[string]struct{}),
		ddgAPIBase:  defaultBase(opts.DuckDuckGoAPIBase, "https://api.duckduckgo.com"),
		ddgHTMLBase: defaultBase(opts.DuckDuckGoHTMLBase, "https://duckduckgo.com"),
		bingBase:    defaultBase(opts.BingBase, "https://www.bing.com"),
		builtInBase: defaultBase(opts.BuiltInBase, "https://builtin.com"),
		phBase:      defaultBase(opts.ProductHuntBase, "https://www.producthunt.com"),
		githubBase:  defaultBase(opts.GitHubAPIBase, "https://api.github.com"),
	}
}

// Discover runs the strategy chain in priority order, accumulating raw
// candidates and stopping early once the budget is met, then applies the
// filter pass and session dedup.
func (e *Engine) Discover(ctx context.Context, query string, maxResults int) ([]string, error) {
	if maxResults <= 0 {
		maxResults = 20
	}
	e.logger.Info("discovering companies", zap.String("query", query), zap.Int("max", maxResults))

	strategies := []struct {
		name    string
		enabled bool
		run     func(ctx context.Context, query string, budget int) []string
	}{
		{"curated", true, func(_ context.Context, q string, _ int) []string { return curatedFor(q) }},
		{"search_engines", true, e.searchEngines},
		{"directories", true, e.searchDirectories},
		{"github_orgs", isTechQuery(query), e.searchGitHubOrgs},
	}

	var accumulated []string
	for _, strategy := range strategies {
		if !strategy.enabled {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(FilterURLs(accumulated)) >= maxResults {
			break
		}
		urls := strategy.run(ctx, query, maxResults)
		accumulated = append(accumulated, urls...)
		e.logger.Debug("discovery strategy finished",
			zap.String("strategy", strategy.name), zap.Int("candidates", len(urls)))
	}

	results := e.filterSession(accumulated)
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	e.logger.Info("discovery complete",
		zap.String("query", query), zap.Int("urls", len(results)))
	return results, nil
}

// filterSession applies the filter pass and drops URLs already discovered
// this session, recording the survivors.
func (e *Engine) filterSession(urls []string) []string {
	results := make([]string, 0, len(urls))
	for _, u := range FilterURLs(urls) {
		if _, seen := e.session[u]; seen {
			continue
		}
		e.session[u] = struct{}{}
		results = append(results, u)
	}
	return results
}

// pause sleeps a randomized interval between outbound search requests. The
// bounds are configuration, never hardcoded zero: skipping the pause
// materially raises the block rate on search backends.
func (e *Engine) pause(ctx context.Context) {
	span := int64(e.delayMax - e.delayMin)
	delay := e.delayMin
	if span > 0 {
		delay += time.Duration(e.rng.Int63n(span + 1))
	}
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}

var queryVariants = []string{
	"%s company website",
	"%s startup",
	"%s business",
	`"%s" company`,
	"%s site:com",
}

// searchEngines queries the configured web search backends with a couple of
// query variants each.
func (e *Engine) searchEngines(ctx context.Context, query string, budget int) []string {
	var urls []string
	for _, variant := range queryVariants[:2] {
		formatted := strings.ReplaceAll(variant, "%s", query)
		for _, engine := range e.engines {
			if err := ctx.Err(); err != nil {
				return urls
			}
			var found []string
			switch engine {
			case "duckduckgo":
				found = e.searchDuckDuckGo(ctx, formatted, budget/4)
			case "bing":
				found = e.searchBing(ctx, formatted, budget/4)
			default:
				e.logger.Warn("unsupported search engine", zap.String("engine", engine))
				continue
			}
			urls = append(urls, found...)
			e.pause(ctx)
		}
	}
	return urls
}

// SeedDiscovery crawls a few already-discovered pages one hop deep and runs
// likely-related external links through the same filter before returning
// them. Requires a page fetcher.
func (e *Engine) SeedDiscovery(ctx context.Context, seeds []string, maxResults int) []string {
	if e.fetcher == nil {
		return nil
	}
	if len(seeds) > 5 {
		seeds = seeds[:5]
	}

	var candidates []string
	for _, seed := range seeds {
		if err := ctx.Err(); err != nil {
			break
		}
		doc := e.fetcher.Fetch(ctx, seed, false)
		if doc == nil {
			continue
		}
		candidates = append(candidates, relatedExternalLinks(doc, seed)...)
		e.pause(ctx)
	}

	results := e.filterSession(candidates)
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

var relatedLinkKeywords = []string{
	"partner", "client", "customer", "competitor", "similar", "related", "alternative",
}

// relatedExternalLinks collects external links from a seed page: any link
// whose anchor text sits near a partner/client/competitor keyword, plus a
// bounded number of plain external links.
func relatedExternalLinks(doc *goquery.Document, seedURL string) []string {
	seedHost := ""
	if u, err := url.Parse(seedURL); err == nil {
		seedHost = bareDomain(u.Hostname())
	}

	var links []string
	external := 0
	doc.Find(`a[href^="http"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok {
			return true
		}
		u, err := url.Parse(href)
		if err != nil || bareDomain(u.Hostname()) == seedHost {
			return true
		}

		context := strings.ToLower(s.Text() + " " + s.Parent().Text())
		for _, keyword := range relatedLinkKeywords {
			if strings.Contains(context, keyword) {
				links = append(links, href)
				return true
			}
		}

		if external < 20 {
			external++
			links = append(links, href)
		}
		return true
	})
	return links
}
