package worker

import (
	"context"
	stderrors "errors"
	"time"

	"golang.org/x/time/rate"

	"sjsage522/pricewatch/internal/history"
	"sjsage522/pricewatch/internal/pricing"
	"sjsage522/pricewatch/internal/scraper"
	"sjsage522/pricewatch/logger"
	"sjsage522/pricewatch/pkg/errors"
	"sjsage522/pricewatch/services/lease"
	"sjsage522/pricewatch/services/publisher"
)

// Defaults used when no option overrides them
const (
	DefaultRequestDelay  = 500 * time.Millisecond
	DefaultCrawlInterval = 60 * time.Minute
)

// URLSource supplies the tracked URLs for a run
type URLSource interface {
	List() ([]string, error)
}

// History is the append side of the history log plus the change query used for events
type History interface {
	Append(e history.Entry) error
	Change(url string) (pricing.Change, bool, error)
	Now() time.Time
}

// Archiver snapshots the history log after a run
type Archiver interface {
	Snapshot(ctx context.Context) error
}

// RunSummary tallies one tracking run
type RunSummary struct {
	Started  time.Time
	Elapsed  time.Duration
	Total    int
	Recorded int
	Failed   int
	// Failures maps each failed URL to its reason
	Failures map[string]string
}

func (s *RunSummary) fail(url, reason string) {
	s.Failed++
	s.Failures[url] = reason
}

// Reasons counts failures per reason
func (s RunSummary) Reasons() map[string]int {
	counts := make(map[string]int, len(s.Failures))
	for _, r := range s.Failures {
		counts[r]++
	}
	return counts
}

// Worker runs the tracking loop: scrape every tracked URL and record the outcome
type Worker struct {
	source        URLSource
	scraper       scraper.Scraper
	history       History
	publisher     publisher.Publisher
	archiver      Archiver
	lease         lease.Lease
	leaseOpts     lease.AcquireOptions
	requestDelay  time.Duration
	crawlInterval time.Duration
	log           *logger.Logger
}

// Option configures a Worker
type Option func(*Worker)

// WithPublisher publishes a price event after every recorded attempt
func WithPublisher(p publisher.Publisher) Option {
	return func(w *Worker) { w.publisher = p }
}

// WithArchiver snapshots the history after every locked run
func WithArchiver(a Archiver) Option {
	return func(w *Worker) { w.archiver = a }
}

// WithLease excludes concurrent runs
func WithLease(l lease.Lease, opts lease.AcquireOptions) Option {
	return func(w *Worker) {
		w.lease = l
		w.leaseOpts = opts
	}
}

// WithRequestDelay sets the pause between products
func WithRequestDelay(d time.Duration) Option {
	return func(w *Worker) { w.requestDelay = d }
}

// WithCrawlInterval sets the period used by Start
func WithCrawlInterval(d time.Duration) Option {
	return func(w *Worker) { w.crawlInterval = d }
}

// NewWorker creates a new worker
func NewWorker(source URLSource, s scraper.Scraper, h History, opts ...Option) *Worker {
	w := &Worker{
		source:        source,
		scraper:       s,
		history:       h,
		leaseOpts:     lease.DefaultAcquireOptions(),
		requestDelay:  DefaultRequestDelay,
		crawlInterval: DefaultCrawlInterval,
		log:           logger.ForWorker(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// RunOnce scrapes every tracked URL in order and appends one entry per URL.
// Product failures are recorded and counted; only an unreadable URL list, an
// unwritable history log or cancellation ends the run early.
func (w *Worker) RunOnce(ctx context.Context) (summary RunSummary, err error) {
	summary = RunSummary{Started: time.Now(), Failures: make(map[string]string)}
	defer func() { summary.Elapsed = time.Since(summary.Started) }()

	urls, err := w.source.List()
	if err != nil {
		return summary, err
	}
	summary.Total = len(urls)
	w.log.Info().Int("products", len(urls)).Msg("Starting tracking run")

	// one product per requestDelay; the first goes immediately
	limiter := rate.NewLimiter(rate.Every(w.requestDelay), 1)
	for _, url := range urls {
		if err := limiter.Wait(ctx); err != nil {
			return summary, err
		}

		if err := w.track(ctx, url, &summary); err != nil {
			return summary, err
		}
	}

	w.log.Info().
		Int("total", summary.Total).
		Int("recorded", summary.Recorded).
		Int("failed", summary.Failed).
		Dur("elapsed", time.Since(summary.Started)).
		Msg("Tracking run finished")
	return summary, nil
}

// track handles one URL; the returned error aborts the run
func (w *Worker) track(ctx context.Context, url string, summary *RunSummary) error {
	record, scrapeErr := w.scraper.ScrapeProduct(ctx, url)
	if scrapeErr != nil && ctx.Err() != nil {
		// interrupted mid-request, not a product failure
		return ctx.Err()
	}
	if scrapeErr != nil && errors.IsFatal(scrapeErr) {
		return scrapeErr
	}

	ts := w.history.Now()
	var entry history.Entry
	reason := ""
	if scrapeErr != nil {
		reason = errors.ReasonOf(scrapeErr)
		entry = history.Failure(ts, url)
		w.log.Warn().Str("url", url).Str("reason", reason).Err(scrapeErr).Msg("Product scrape failed")
	} else {
		entry = history.Observation(ts, url, record.Title, record.Price, record.DisplayPrice, record.ImageURL)
		w.log.Info().Str("url", url).Str("price", record.DisplayPrice).Msg("Product recorded")
	}

	if err := w.history.Append(entry); err != nil {
		return err
	}
	if scrapeErr != nil {
		summary.fail(url, reason)
	} else {
		summary.Recorded++
	}

	w.publish(entry, reason)
	return nil
}

// publish sends the event for entry; failures are logged and never end the run
func (w *Worker) publish(entry history.Entry, reason string) {
	if w.publisher == nil {
		return
	}

	event := publisher.PriceEvent{
		URL:       entry.ProductURL,
		Status:    publisher.StatusFailed,
		Reason:    reason,
		CheckedAt: entry.Timestamp,
	}
	if entry.Succeeded() {
		event.Status = publisher.StatusRecorded
		event.Title = entry.Title
		event.Price = entry.Price.Decimal.StringFixed(2)
		event.DisplayPrice = entry.DisplayPrice
		event.ImageURL = entry.ImageURL

		change, ok, err := w.history.Change(entry.ProductURL)
		if err != nil {
			logger.LogError("worker", err, "change lookup for %s", entry.ProductURL)
		} else if ok {
			event.Previous = change.Previous.StringFixed(2)
			event.Delta = change.Delta.StringFixed(2)
			event.Percent = change.Percent.StringFixed(1)
			event.Direction = string(change.Direction)
		}
	}

	payload, err := event.Encode()
	if err != nil {
		logger.LogError("worker", err, "encode event for %s", entry.ProductURL)
		return
	}
	if err := w.publisher.Publish(entry.ProductURL, payload); err != nil {
		logger.LogError("worker", err, "publish event for %s", entry.ProductURL)
	}
}

// RunLocked runs once while holding the lease, then trims the event streams
// and archives the history. A busy lease returns an error wrapping lease.ErrHeld.
func (w *Worker) RunLocked(ctx context.Context) (RunSummary, error) {
	if w.lease != nil {
		if err := lease.Acquire(ctx, w.lease, w.leaseOpts); err != nil {
			return RunSummary{}, err
		}
		defer func() {
			if err := w.lease.Release(); err != nil {
				logger.LogError("worker", err, "release lease")
			}
		}()
	}

	summary, err := w.RunOnce(ctx)
	if err != nil {
		return summary, err
	}

	if w.publisher != nil {
		if err := w.publisher.TrimStreams(); err != nil {
			logger.LogError("worker", err, "stream trimming")
		}
	}
	if w.archiver != nil {
		if err := w.archiver.Snapshot(ctx); err != nil {
			logger.LogError("worker", err, "history archive")
		}
	}
	return summary, nil
}

// Start runs RunLocked every crawl interval until ctx is done
func (w *Worker) Start(ctx context.Context) error {
	for {
		summary, err := w.RunLocked(ctx)
		switch {
		case err == nil:
			if logger.IsDebugEnabled() {
				w.log.Debug().Interface("reasons", summary.Reasons()).Msg("Failure reasons")
			}
		case stderrors.Is(err, lease.ErrHeld):
			w.log.Info().Msg("Another run holds the lease, skipping")
		case ctx.Err() != nil:
			return nil
		default:
			logger.LogError("worker", err, "tracking run")
		}

		t := time.NewTimer(w.crawlInterval)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}
