package fetch

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
}

// rendersPerSession bounds how many pages one browser context serves before
// it is recycled with a fresh user agent.
const rendersPerSession = 10

// Options tune fetcher behavior.
type Options struct {
	RequestTimeout time.Duration // static HTTP path
	RenderTimeout  time.Duration // browser navigation
	SettleDelay    time.Duration // wait after body is visible
	RatePerSec     float64       // politeness limit on the static path
	UserAgents     []string
}

// Fetcher retrieves parsed documents, via a plain HTTP GET or a headless
// browser session when client-side rendering is required. It owns one
// persistent browser session across calls; Close releases it.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger

	userAgents []string
	uaIndex    int

	renderTimeout time.Duration
	settleDelay   time.Duration

	mu               sync.Mutex
	allocCtx         context.Context
	allocCancel      context.CancelFunc
	browserCtx       context.Context
	browserCancel    context.CancelFunc
	rendersInSession int
	renderDisabled   bool
}

func New(opts Options, logger *zap.Logger) *Fetcher {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.RenderTimeout <= 0 {
		opts.RenderTimeout = 30 * time.Second
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = 2 * time.Second
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 0.5
	}
	if len(opts.UserAgents) == 0 {
		opts.UserAgents = defaultUserAgents
	}
	return &Fetcher{
		client:        &http.Client{Timeout: opts.RequestTimeout},
		limiter:       rate.NewLimiter(rate.Limit(opts.RatePerSec), 1),
		logger:        logger,
		userAgents:    opts.UserAgents,
		renderTimeout: opts.RenderTimeout,
		settleDelay:   opts.SettleDelay,
	}
}

func (f *Fetcher) nextUserAgent() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ua := f.userAgents[f.uaIndex%len(f.userAgents)]
	f.uaIndex++
	return ua
}

// Fetch retrieves the URL and parses it into a document. Any transport
// error, non-2xx status, or timeout is logged and yields nil.
func (f *Fetcher) Fetch(ctx context.Context, url string, render bool) *goquery.Document {
	if render && f.RenderingEnabled() {
		if doc := f.fetchRendered(ctx, url); doc != nil {
			return doc
		}
		// Browser failures fall back to the static path.
	}
	return f.fetchStatic(ctx, url)
}

func (f *Fetcher) fetchStatic(ctx context.Context, url string) *goquery.Document {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		f.logger.Warn("invalid fetch request", zap.String("url", url), zap.Error(err))
		return nil
	}
	req.Header.Set("User-Agent", f.nextUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("fetch failed", zap.String("url", url), zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.logger.Warn("fetch returned non-2xx status",
			zap.String("url", url), zap.Int("status", resp.StatusCode))
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		f.logger.Warn("failed to parse response body", zap.String("url", url), zap.Error(err))
		return nil
	}
	return doc
}

func (f *Fetcher) fetchRendered(ctx context.Context, url string) *goquery.Document {
	browserCtx := f.browserSession()
	if browserCtx == nil {
		return nil
	}

	taskCtx, cancel := context.WithTimeout(browserCtx, f.renderTimeout)
	defer cancel()

	var htmlContent string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.Sleep(f.settleDelay),
		chromedp.OuterHTML("html", &htmlContent),
	)
	if err != nil {
		f.logger.Warn("rendered fetch failed", zap.String("url", url), zap.Error(err))
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		f.logger.Warn("failed to parse rendered page", zap.String("url", url), zap.Error(err))
		return nil
	}
	return doc
}

// browserSession returns the shared browser context, starting or recycling
// the session as needed. A session that cannot start disables rendering for
// the rest of the fetcher's lifetime.
func (f *Fetcher) browserSession() context.Context {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.renderDisabled {
		return nil
	}

	if f.browserCtx != nil && f.rendersInSession >= rendersPerSession {
		f.browserCancel()
		f.allocCancel()
		f.browserCtx = nil
	}

	if f.browserCtx == nil {
		ua := f.userAgents[f.uaIndex%len(f.userAgents)]
		f.uaIndex++
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(ua),
		)
		f.allocCtx, f.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
		f.browserCtx, f.browserCancel = chromedp.NewContext(f.allocCtx)
		f.rendersInSession = 0

		// Start the browser once so a missing Chrome binary is detected here
		// instead of on every render attempt.
		startCtx, cancel := context.WithTimeout(f.browserCtx, f.renderTimeout)
		err := chromedp.Run(startCtx)
		cancel()
		if err != nil {
			f.logger.Error("browser session unavailable, disabling rendering", zap.Error(err))
			f.browserCancel()
			f.allocCancel()
			f.browserCtx = nil
			f.renderDisabled = true
			return nil
		}
	}

	f.rendersInSession++
	return f.browserCtx
}

// RenderingEnabled reports whether the browser path is still usable.
func (f *Fetcher) RenderingEnabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.renderDisabled
}

// Close releases the browser session and idle connections.
func (f *Fetcher) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.browserCtx != nil {
		f.browserCancel()
		f.allocCancel()
		f.browserCtx = nil
	}
	f.client.CloseIdleConnections()
}
