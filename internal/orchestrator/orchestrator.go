package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/NAVEENKUMARKR777/UnicraftTech-Web-Scraping-Tool-Assignment/internal/domain"
	"github.com/NAVEENKUMARKR777/UnicraftTech-Web-Scraping-Tool-Assignment/internal/monitoring"
)

// ErrNoCandidates is the batch-level failure returned when every discovery
// strategy comes back empty. It is distinct from per-item errors.
var ErrNoCandidates = errors.New("no company candidates found for query")

// Discoverer resolves a free-text query into candidate company URLs.
type Discoverer interface {
	Discover(ctx context.Context, query string, maxResults int) ([]string, error)
	SeedDiscovery(ctx context.Context, seeds []string, maxResults int) []string
}

// Extractor produces a company record for one URL at the requested tier.
type Extractor interface {
	Extract(ctx context.Context, url string, tier domain.Tier) (*domain.CompanyRecord, error)
}

// DedupStore marks URLs as recently scraped so repeated jobs skip them.
// Implemented by storage.RedisStore; nil disables deduplication.
type DedupStore interface {
	IsRecentlyScraped(ctx context.Context, url string) (bool, error)
	MarkScraped(ctx context.Context, url string, ttl time.Duration) error
}

// RetryCounter tracks per-URL failure counts. Dedup stores that also
// implement it get a counter bump on every failed extraction.
type RetryCounter interface {
	IncrementRetryCount(ctx context.Context, url string) (int64, error)
}

// RecordStore persists records and batch summaries. Implemented by
// storage.PostgresStore; nil disables persistence.
type RecordStore interface {
	SaveRecord(ctx context.Context, record *domain.CompanyRecord) error
	SaveBatch(ctx context.Context, result *domain.BatchResult) error
}

// Orchestrator sequences discovery, extraction, and bookkeeping for a batch
// of inputs. Items are processed sequentially and in input order; one item's
// failure never aborts the batch.
type Orchestrator struct {
	discovery  Discoverer
	extractor  Extractor
	dedup      DedupStore
	store      RecordStore
	metrics    *monitoring.Metrics
	logger     *zap.Logger
	dedupTTL   time.Duration
	onProgress func(domain.Progress)
}

func New(discovery Discoverer, extractor Extractor, metrics *monitoring.Metrics, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		discovery: discovery,
		extractor: extractor,
		metrics:   metrics,
		logger:    logger,
		dedupTTL:  48 * time.Hour,
	}
}

// WithStores attaches optional persistence backends.
func (o *Orchestrator) WithStores(store RecordStore, dedup DedupStore, dedupTTL time.Duration) *Orchestrator {
	o.store = store
	o.dedup = dedup
	if dedupTTL > 0 {
		o.dedupTTL = dedupTTL
	}
	return o
}

// OnProgress registers a callback invoked after each processed item.
func (o *Orchestrator) OnProgress(fn func(domain.Progress)) {
	o.onProgress = fn
}

// RunQuery discovers candidate URLs for the query and scrapes them. An empty
// primary pass retries with a broadened query; a short result set is padded
// by one seed-discovery hop over what was found. Both passes empty means
// ErrNoCandidates.
func (o *Orchestrator) RunQuery(ctx context.Context, query string, tier domain.Tier, maxResults int) (*domain.BatchResult, error) {
	urls, err := o.discovery.Discover(ctx, query, maxResults)
	if err != nil {
		return nil, fmt.Errorf("discovery failed: %w", err)
	}

	if len(urls) == 0 {
		o.logger.Warn("primary discovery returned nothing, trying broadened query",
			zap.String("query", query))
		urls, err = o.discovery.Discover(ctx, query+" companies", maxResults)
		if err != nil {
			return nil, fmt.Errorf("discovery failed: %w", err)
		}
	}
	if len(urls) == 0 {
		return nil, ErrNoCandidates
	}

	if len(urls) < maxResults {
		if related := o.discovery.SeedDiscovery(ctx, urls, maxResults-len(urls)); len(related) > 0 {
			o.logger.Info("seed discovery expanded results", zap.Int("added", len(related)))
			urls = append(urls, related...)
		}
	}

	if o.metrics != nil {
		o.metrics.AddDiscovered(len(urls))
	}

	result, err := o.RunURLs(ctx, urls, tier)
	if result != nil {
		result.Query = query
	}
	return result, err
}

// RunURLs scrapes each input URL at the requested tier. Results are appended
// in input order. The batch can be interrupted between items via the
// context; partially processed results are still returned.
func (o *Orchestrator) RunURLs(ctx context.Context, urls []string, tier domain.Tier) (*domain.BatchResult, error) {
	result := &domain.BatchResult{
		Level:     tier,
		Succeeded: []*domain.CompanyRecord{},
		Failed:    []domain.FailedItem{},
		StartedAt: time.Now(),
	}

	for i, rawURL := range urls {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(result.StartedAt)
			return result, err
		}

		ok := o.processItem(ctx, rawURL, tier, result)

		if o.onProgress != nil {
			o.onProgress(domain.Progress{
				Processed: i + 1,
				Total:     len(urls),
				URL:       rawURL,
				OK:        ok,
			})
		}
	}

	result.Duration = time.Since(result.StartedAt)
	if o.metrics != nil {
		o.metrics.BatchDuration.Observe(result.Duration.Seconds())
	}

	if o.store != nil {
		if err := o.store.SaveBatch(ctx, result); err != nil {
			o.logger.Error("failed to save batch summary", zap.Error(err))
			if o.metrics != nil {
				o.metrics.IncErrors("db_save_failed")
			}
		}
	}

	o.logger.Info("batch complete",
		zap.Int("succeeded", len(result.Succeeded)),
		zap.Int("failed", len(result.Failed)),
		zap.Duration("duration", result.Duration))
	return result, nil
}

func (o *Orchestrator) processItem(ctx context.Context, rawURL string, tier domain.Tier, result *domain.BatchResult) bool {
	// Malformed input is rejected before any network call.
	if err := validateURL(rawURL); err != nil {
		result.Failed = append(result.Failed, domain.FailedItem{URL: rawURL, Error: err.Error()})
		if o.metrics != nil {
			o.metrics.IncErrors("invalid_url")
		}
		return false
	}

	if o.dedup != nil {
		recent, err := o.dedup.IsRecentlyScraped(ctx, rawURL)
		if err != nil {
			o.logger.Error("failed to check dedup store", zap.String("url", rawURL), zap.Error(err))
		}
		if recent {
			o.logger.Info("skipping recently scraped URL", zap.String("url", rawURL))
			result.Failed = append(result.Failed, domain.FailedItem{URL: rawURL, Error: "recently scraped"})
			return false
		}
	}

	record, err := o.extractor.Extract(ctx, rawURL, tier)
	if err != nil {
		o.logger.Warn("failed to scrape", zap.String("url", rawURL), zap.Error(err))
		result.Failed = append(result.Failed, domain.FailedItem{URL: rawURL, Error: err.Error()})
		if o.metrics != nil {
			o.metrics.IncErrors("fetch_failed")
		}
		if rc, ok := o.dedup.(RetryCounter); ok {
			if _, err := rc.IncrementRetryCount(ctx, rawURL); err != nil {
				o.logger.Error("failed to bump retry counter", zap.String("url", rawURL), zap.Error(err))
			}
		}
		return false
	}

	if record.ExtractionLevel != tier {
		// Degraded item: observable through the record's achieved level.
		o.logger.Warn("extraction degraded",
			zap.String("url", rawURL),
			zap.String("requested", string(tier)),
			zap.String("achieved", string(record.ExtractionLevel)))
	}

	result.Succeeded = append(result.Succeeded, record)
	if o.metrics != nil {
		o.metrics.IncScraped(string(record.ExtractionLevel))
	}

	if o.store != nil {
		if err := o.store.SaveRecord(ctx, record); err != nil {
			o.logger.Error("failed to save record", zap.String("url", rawURL), zap.Error(err))
			if o.metrics != nil {
				o.metrics.IncErrors("db_save_failed")
			}
		}
	}
	if o.dedup != nil {
		if err := o.dedup.MarkScraped(ctx, rawURL, o.dedupTTL); err != nil {
			o.logger.Error("failed to mark URL as scraped", zap.String("url", rawURL), zap.Error(err))
		}
	}
	return true
}

func validateURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %q", raw)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid URL: %q", raw)
	}
	return nil
}
