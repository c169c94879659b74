package corpcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"opendart/internal/archive"
	"opendart/internal/dart"
	"opendart/internal/platform/metrics"
)

const (
	DefaultAttempts       = 3
	DefaultAttemptTimeout = 60 * time.Second
	DefaultRetryDelay     = 3 * time.Second
)

// Downloader fetches the bulk dataset. *dart.Client implements it.
type Downloader interface {
	HasCredential() bool
	Download(ctx context.Context, endpoint string, timeout time.Duration) ([]byte, error)
}

// Outcome is the result of Ensure.
type Outcome int

const (
	OutcomeExisting Outcome = iota
	OutcomeSkipped
	OutcomeFailed
	OutcomeBuilt
)

func (o Outcome) String() string {
	switch o {
	case OutcomeExisting:
		return "existing"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	case OutcomeBuilt:
		return "built"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

type AcquirerConfig struct {
	Store          *Store
	Downloader     Downloader
	Attempts       int
	AttemptTimeout time.Duration
	Delay          time.Duration
	Logger         logrus.FieldLogger
	Metrics        *metrics.Metrics
}

// Acquirer downloads the bulk dataset and writes the directory file.
type Acquirer struct {
	store      *Store
	downloader Downloader
	attempts   int
	timeout    time.Duration
	delay      time.Duration
	log        logrus.FieldLogger
	metrics    *metrics.Metrics
}

func NewAcquirer(cfg AcquirerConfig) *Acquirer {
	a := &Acquirer{
		store:      cfg.Store,
		downloader: cfg.Downloader,
		attempts:   cfg.Attempts,
		timeout:    cfg.AttemptTimeout,
		delay:      cfg.Delay,
		log:        cfg.Logger,
		metrics:    cfg.Metrics,
	}
	if a.attempts <= 0 {
		a.attempts = DefaultAttempts
	}
	if a.timeout <= 0 {
		a.timeout = DefaultAttemptTimeout
	}
	if a.delay <= 0 {
		a.delay = DefaultRetryDelay
	}
	if a.log == nil {
		a.log = logrus.StandardLogger()
	}
	a.log = a.log.WithField("component", "corpcode")
	return a
}

// Ensure makes sure a directory file exists. It never returns an error: a
// failed or skipped acquisition leaves the directory unavailable and the
// resolver reports it on first use.
func (a *Acquirer) Ensure(ctx context.Context) Outcome {
	if path, ok := a.store.Locate(); ok {
		a.log.WithField("path", path).Debug("company directory present")
		return OutcomeExisting
	}
	if !a.downloader.HasCredential() {
		a.log.Warn("DART_API_KEY is not set; skipping company directory download")
		return OutcomeSkipped
	}
	a.log.Info("downloading company directory (first run)")
	stats, err := a.Refresh(ctx)
	if err != nil {
		a.log.WithError(err).Error("company directory download failed")
		return OutcomeFailed
	}
	a.log.WithFields(logrus.Fields{"companies": stats.Total, "listed": stats.Listed}).Info("company directory ready")
	return OutcomeBuilt
}

// Refresh downloads, builds and saves the directory regardless of any
// existing file. Provider rejections are not retried; every other failure is
// retried up to the attempt budget with a constant delay.
func (a *Acquirer) Refresh(ctx context.Context) (BuildStats, error) {
	if !a.downloader.HasCredential() {
		return BuildStats{}, dart.ErrMissingAPIKey
	}

	var (
		stats   BuildStats
		lastErr error
	)
	attempt := 0
	op := func() error {
		attempt++
		st, err := a.attempt(ctx)
		if err != nil {
			lastErr = err
			a.metrics.ObserveDownloadAttempt(dart.Outcome(err))
			var se *dart.APIStatusError
			if errors.As(err, &se) || errors.Is(err, dart.ErrMissingAPIKey) {
				return backoff.Permanent(err)
			}
			return err
		}
		a.metrics.ObserveDownloadAttempt("ok")
		stats = st
		return nil
	}
	notify := func(err error, wait time.Duration) {
		a.log.WithError(err).WithFields(logrus.Fields{
			"attempt": attempt,
			"of":      a.attempts,
			"retryIn": wait,
		}).Warn("company directory download failed; retrying")
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(a.delay), uint64(a.attempts-1)), ctx)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		// Cancellation during the retry delay surfaces as ctx.Err() alone.
		if lastErr != nil && !errors.Is(err, lastErr) {
			return BuildStats{}, fmt.Errorf("corpcode: download failed after %d attempt(s): %w (last error: %w)", attempt, err, lastErr)
		}
		return BuildStats{}, fmt.Errorf("corpcode: download failed after %d attempt(s): %w", attempt, err)
	}
	return stats, nil
}

func (a *Acquirer) attempt(ctx context.Context) (BuildStats, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := a.downloader.Download(ctx, dart.EndpointCorpCode, a.timeout)
	if err != nil {
		return BuildStats{}, err
	}
	payload, err := archive.Extract(raw)
	if err != nil {
		return BuildStats{}, err
	}
	records, err := ParseRecords(bytes.NewReader(payload))
	if err != nil {
		return BuildStats{}, err
	}
	dir, stats := Build(records)
	if stats.Total == 0 {
		return BuildStats{}, fmt.Errorf("%w (%d records in %d bytes)", ErrEmptyDataset, stats.Records, len(payload))
	}
	path, err := a.store.Save(dir)
	if err != nil {
		return BuildStats{}, err
	}
	a.log.WithFields(logrus.Fields{
		"path":      path,
		"records":   stats.Records,
		"companies": stats.Total,
		"listed":    stats.Listed,
		"skipped":   stats.Skipped,
	}).Info("company directory saved")
	return stats, nil
}
