// Package crawler contains the batch runner and the resilience layer that
// keep a multi-hundred-shop run alive despite individual page failures. The
// runner owns the one live browser session and the result collection; inner
// step functions only ever see the session they are handed.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tnpds-watch/shopcrawl/config"
	"github.com/tnpds-watch/shopcrawl/models"
	"github.com/tnpds-watch/shopcrawl/session"
)

const recordCacheSize = 512

// Navigator reaches a shop's detail page.
type Navigator interface {
	OpenShop(ctx context.Context, s session.Session, q models.ShopQuery) error
}

// StatusReader classifies the open detail page and captures its label/value
// details.
type StatusReader interface {
	Classify(s session.Session) (models.Status, error)
	ReadDetails(s session.Session) map[string]string
}

// Extractor pulls the last transaction and its bill items from the open
// detail page.
type Extractor interface {
	Extract(ctx context.Context, s session.Session, q models.ShopQuery) (*models.TransactionSummary, []models.BillItem, error)
}

// Runner iterates the shop registry sequentially, wrapping every per-shop
// pipeline invocation in the retry policy. One browser session is reused
// across shops and replaced only when lost.
type Runner struct {
	cfg       *config.Config
	factory   session.Factory
	nav       Navigator
	status    StatusReader
	extractor Extractor
	artifacts *ArtifactStore
	Metrics   *Metrics

	cache *lru.Cache[string, models.ShopRecord]
	sess  session.Session

	retryCount    int
	sessionResets int
}

// NewRunner wires a runner from its collaborators.
func NewRunner(cfg *config.Config, factory session.Factory, nav Navigator, status StatusReader, extractor Extractor) (*Runner, error) {
	cache, err := lru.New[string, models.ShopRecord](recordCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create record cache: %w", err)
	}
	return &Runner{
		cfg:       cfg,
		factory:   factory,
		nav:       nav,
		status:    status,
		extractor: extractor,
		artifacts: NewArtifactStore(cfg.ArtifactsDir),
		Metrics:   NewMetrics(),
		cache:     cache,
	}, nil
}

// Run processes every shop in registry order and returns the report. The
// report always has one record per input shop, in input order; shops not
// reached before ctx expires get a NotAttempted record. Run fails outright
// only when no browser session can be opened at all.
func (r *Runner) Run(ctx context.Context, shops []models.ShopQuery) (*models.CrawlReport, error) {
	start := time.Now()

	sess, err := r.factory.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("open browser session: %w", err)
	}
	r.sess = sess
	defer func() {
		if r.sess != nil {
			if err := r.sess.Close(); err != nil {
				slog.Warn("close session", slog.Any("error", err))
			}
		}
	}()

	report := &models.CrawlReport{
		GeneratedAt: start.UTC(),
		Shops:       make([]*models.ShopRecord, 0, len(shops)),
	}

	for i, q := range shops {
		if ctx.Err() != nil {
			report.Shops = append(report.Shops, notAttemptedRecord(q))
			continue
		}

		if cached, ok := r.cache.Get(q.ID); ok {
			r.Metrics.IncCacheHit()
			rec := cached
			report.Shops = append(report.Shops, &rec)
			continue
		}

		slog.Info("processing shop",
			slog.Int("index", i+1),
			slog.Int("total", len(shops)),
			slog.String("shop", q.ID),
			slog.String("district", q.District),
			slog.String("taluk", q.Taluk),
		)

		shopStart := time.Now()
		rec := r.crawlShop(ctx, q)
		r.Metrics.ObserveShopDuration(time.Since(shopStart))

		r.cache.Add(q.ID, *rec)
		report.Shops = append(report.Shops, rec)
	}

	report.Summary = r.summarize(report.Shops, time.Since(start))
	return report, nil
}

// crawlShop runs the navigate-classify-extract pipeline for one shop with
// bounded retries. It always returns a record; terminal failure fills the
// record's error and captures debug artifacts.
func (r *Runner) crawlShop(ctx context.Context, q models.ShopQuery) *models.ShopRecord {
	b := newRecordBuilder(q)

	var lastErr error
	var lastStage stage

	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		r.Metrics.IncAttempt()

		st, err := r.attempt(ctx, q, b)
		if err == nil {
			rec := b.Build()
			r.Metrics.IncShop(string(rec.Status))
			return rec
		}

		lastErr, lastStage = err, st
		_, cause := classifyFailure(st, err)
		r.Metrics.IncFailure(cause)
		slog.Warn("shop attempt failed",
			slog.String("shop", q.ID),
			slog.Int("attempt", attempt),
			slog.String("cause", cause),
			slog.Any("error", err),
		)

		if session.IsSessionLost(err) {
			r.replaceSession(ctx)
		}

		if attempt == r.cfg.MaxAttempts {
			r.artifacts.Capture(r.sess, q.ID, attempt)
			break
		}

		r.retryCount++
		r.Metrics.IncRetry()
		pause(ctx, r.cfg.RetryPause)
		if ctx.Err() != nil {
			break
		}
	}

	kind, cause := classifyFailure(lastStage, lastErr)
	b.Fail(kind, cause, lastErr.Error())
	rec := b.Build()
	r.Metrics.IncShop(string(rec.Status))
	return rec
}

// attempt is one pass through the pipeline. Partial captures land in b as
// they happen so that a later failure still leaves them on the record.
func (r *Runner) attempt(ctx context.Context, q models.ShopQuery, b *recordBuilder) (stage, error) {
	if r.sess == nil || !r.sess.Alive() {
		return stageNavigate, session.ErrSessionLost{Err: fmt.Errorf("no usable session")}
	}

	if err := r.nav.OpenShop(ctx, r.sess, q); err != nil {
		return stageNavigate, err
	}

	status, err := r.status.Classify(r.sess)
	if err != nil {
		return stageClassify, err
	}
	b.SetStatus(status)

	if !r.cfg.IncludeDetails {
		return 0, nil
	}
	b.SetDetails(r.status.ReadDetails(r.sess))

	// Offline and unknown shops have no transaction to fetch.
	if status != models.StatusOnline {
		return 0, nil
	}

	summary, items, err := r.extractor.Extract(ctx, r.sess, q)
	if err != nil {
		return stageExtract, err
	}
	b.SetTransaction(summary, items)
	return 0, nil
}

// replaceSession discards the lost session and requests a fresh one. If the
// factory cannot deliver, the next attempt fails fast and the batch moves
// on; session failure must not abort the batch.
func (r *Runner) replaceSession(ctx context.Context) {
	if r.sess != nil {
		if err := r.sess.Close(); err != nil {
			slog.Debug("close lost session", slog.Any("error", err))
		}
		r.sess = nil
	}

	sess, err := r.factory.New(ctx)
	if err != nil {
		slog.Error("session replacement failed", slog.Any("error", err))
		return
	}
	r.sess = sess
	r.sessionResets++
	r.Metrics.IncSessionReset()
	slog.Info("browser session replaced")
}

func (r *Runner) summarize(records []*models.ShopRecord, elapsed time.Duration) models.RunSummary {
	summary := models.RunSummary{
		TotalShops:    len(records),
		RetryCount:    r.retryCount,
		SessionResets: r.sessionResets,
		Duration:      elapsed,
		DurationSecs:  elapsed.Seconds(),
	}
	for _, rec := range records {
		switch rec.Status {
		case models.StatusOnline:
			summary.OnlineShops++
		case models.StatusOffline:
			summary.OfflineShops++
		default:
			summary.UnknownShops++
		}
		if rec.Error != nil {
			if rec.Error.Kind == models.FailureNotAttempted {
				summary.NotAttempted++
			} else {
				summary.FailedShops++
			}
		}
	}
	return summary
}
