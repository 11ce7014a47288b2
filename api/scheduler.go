/*
scheduler.go - Periodic portfolio digest

PURPOSE:
  Periodically evaluates the whole portfolio and logs the statistics as a
  single structured log line, so log-based dashboards and alerts can track
  pending rent and total due over time without polling the API.

DESIGN:
  - Runs a background goroutine with a configurable interval
  - Reads the clock once per run and uses that date for every tenant
  - Logs only; nothing is stored, the next run recomputes from scratch

CONFIGURATION:
  - Interval: How often to run (DIGEST_INTERVAL, default 1h, 0 disables)

USAGE:
  scheduler := NewDigestScheduler(store, classifier, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: GetStatistics (same numbers on demand)
  - rent/classify.go: Statistics
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warp/rent-status/generic"
	"github.com/warp/rent-status/rent"
)

// DigestScheduler logs portfolio statistics on a fixed interval.
type DigestScheduler struct {
	Source     rent.Source
	Classifier *rent.Classifier
	Logger     logrus.FieldLogger
	Interval   time.Duration

	// Today supplies the as-of date of each run.
	Today func() generic.TimePoint

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	// Separate from mu: Stop holds mu while waiting for an in-flight run.
	runMu   sync.Mutex
	lastRun time.Time
}

// NewDigestScheduler creates a scheduler with a one hour interval.
func NewDigestScheduler(source rent.Source, classifier *rent.Classifier, logger logrus.FieldLogger) *DigestScheduler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if classifier == nil {
		classifier = rent.NewClassifier(nil, logger)
	}
	return &DigestScheduler{
		Source:     source,
		Classifier: classifier,
		Logger:     logger,
		Interval:   time.Hour,
		Today:      generic.Today,
	}
}

// Start begins the scheduler. A non-positive interval disables it.
func (ds *DigestScheduler) Start() {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.Interval <= 0 {
		ds.Logger.Info("digest scheduler disabled")
		return
	}
	if ds.ticker != nil {
		return
	}

	ds.ticker = time.NewTicker(ds.Interval)
	ds.stop = make(chan struct{})
	ds.wg.Add(1)

	go ds.run(ds.ticker, ds.stop)

	ds.Logger.WithField("interval", ds.Interval.String()).Info("digest scheduler started")
}

// Stop stops the scheduler and waits for an in-flight run to finish.
func (ds *DigestScheduler) Stop() {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.ticker == nil {
		return
	}
	ds.ticker.Stop()
	close(ds.stop)
	ds.wg.Wait()
	ds.ticker = nil
	ds.Logger.Info("digest scheduler stopped")
}

func (ds *DigestScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer ds.wg.Done()

	// Run immediately on start
	ds.RunNow(context.Background())

	for {
		select {
		case <-ticker.C:
			ds.RunNow(context.Background())
		case <-stop:
			return
		}
	}
}

// RunNow evaluates the portfolio once and logs the digest.
func (ds *DigestScheduler) RunNow(ctx context.Context) (rent.Statistics, error) {
	asOf := generic.Today()
	if ds.Today != nil {
		asOf = ds.Today()
	}

	snapshots, err := ds.Source.ListSnapshots(ctx)
	if err != nil {
		ds.Logger.WithError(err).Error("portfolio digest failed")
		return rent.Statistics{}, err
	}

	stats := ds.Classifier.Statistics(snapshots, asOf)
	ds.Logger.WithFields(logrus.Fields{
		"as_of":             asOf.String(),
		"total":             stats.Total,
		"active":            stats.Active,
		"with_pending_rent": stats.WithPendingRent,
		"with_partial_rent": stats.WithPartialRent,
		"with_paid_rent":    stats.WithPaidRent,
		"without_advance":   stats.WithoutAdvance,
		"total_due_amount":  stats.TotalDueAmount.String(),
	}).Info("portfolio digest")

	ds.markRun()
	return stats, nil
}

func (ds *DigestScheduler) markRun() {
	ds.runMu.Lock()
	defer ds.runMu.Unlock()
	ds.lastRun = time.Now()
}

// GetNextRunTime returns when the next run is due, or the zero time when
// the scheduler is not running.
func (ds *DigestScheduler) GetNextRunTime() time.Time {
	ds.mu.Lock()
	running := ds.ticker != nil
	ds.mu.Unlock()

	ds.runMu.Lock()
	defer ds.runMu.Unlock()
	if !running || ds.lastRun.IsZero() {
		return time.Time{}
	}
	return ds.lastRun.Add(ds.Interval)
}
