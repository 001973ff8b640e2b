package contest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Fetcher is the single capability a platform has to provide. Load performs
// one bounded retrieval of the platform's current listing and maps every
// parseable record into the canonical Contest shape. The int result counts
// records dropped for per-record reasons (malformed timestamps and the
// like); those never fail the batch.
type Fetcher interface {
	Platform() string
	Load(ctx context.Context) (Contests, int, error)
}

// ErrTimeout marks a fetch that exceeded its per-platform deadline.
var ErrTimeout = errors.New("fetch timed out")

// ErrAllPlatformsFailed is returned when no registered fetcher produced a
// result; reconciling against nothing would only propagate staleness.
var ErrAllPlatformsFailed = errors.New("all platforms failed to fetch")

// FetchError wraps a whole-platform failure: a non-success response or an
// unparseable payload.
type FetchError struct {
	Platform string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %s", e.Platform, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Outcome is the per-platform entry of a fetch report.
type Outcome struct {
	Platform string
	Fetched  int
	Skipped  int
	Err      error
}

func (o Outcome) OK() bool {
	return o.Err == nil
}

const DefaultFetchTimeout = 30 * time.Second

type LoggerFn func(string, ...interface{})

// Registry holds the set of fetchers taking part in a sync pass. Adding a
// platform means registering one more Fetcher here, nothing else changes.
type Registry struct {
	fetchers []Fetcher
	timeout  time.Duration
	infFn    LoggerFn
	errFn    LoggerFn
}

type RegistryConfig struct {
	Timeout time.Duration
	InfFn   LoggerFn
	ErrFn   LoggerFn
}

func NewRegistry(conf RegistryConfig, fetchers ...Fetcher) *Registry {
	r := Registry{
		fetchers: fetchers,
		timeout:  conf.Timeout,
		infFn:    func(string, ...interface{}) {},
		errFn:    func(string, ...interface{}) {},
	}
	if r.timeout <= 0 {
		r.timeout = DefaultFetchTimeout
	}
	if conf.InfFn != nil {
		r.infFn = conf.InfFn
	}
	if conf.ErrFn != nil {
		r.errFn = conf.ErrFn
	}
	return &r
}

func (r *Registry) Register(f Fetcher) {
	r.fetchers = append(r.fetchers, f)
}

func (r *Registry) Platforms() []string {
	platforms := make([]string, len(r.fetchers))
	for i, f := range r.fetchers {
		platforms[i] = f.Platform()
	}
	return platforms
}

// FetchAll runs every registered fetcher concurrently and joins them at a
// single barrier. Each fetcher settles into its own slot, so one platform
// being down never touches another platform's results; the per-platform
// verdicts come back in the Outcome list. Contests sharing an identity
// across platforms collapse to the most recently fetched one.
func (r *Registry) FetchAll(ctx context.Context) (Contests, []Outcome, error) {
	if len(r.fetchers) == 0 {
		return nil, nil, fmt.Errorf("no fetchers registered")
	}

	batches := make([]Contests, len(r.fetchers))
	outcomes := make([]Outcome, len(r.fetchers))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range r.fetchers {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(gctx, r.timeout)
			defer cancel()

			contests, skipped, err := f.Load(fctx)
			if errors.Is(err, context.DeadlineExceeded) {
				err = &FetchError{Platform: f.Platform(), Err: ErrTimeout}
			}
			if err != nil {
				r.errFn("unable to load %s listing: %s", f.Platform(), err)
			} else {
				r.infFn("%s: %d contests, %d skipped", f.Platform(), len(contests), skipped)
			}
			batches[i] = contests
			outcomes[i] = Outcome{Platform: f.Platform(), Fetched: len(contests), Skipped: skipped, Err: err}
			return nil
		})
	}
	// the group error is always nil, fetch failures stay in their outcome
	_ = g.Wait()

	merged := make(Contests, 0)
	seen := make(map[string]int)
	for _, batch := range batches {
		for _, c := range batch {
			if !c.IsValid() {
				continue
			}
			if at, ok := seen[c.ID]; ok {
				if c.FetchedAt.After(merged[at].FetchedAt) {
					merged[at] = c
				}
				continue
			}
			seen[c.ID] = len(merged)
			merged = append(merged, c)
		}
	}
	merged.SortByStart()

	for _, o := range outcomes {
		if o.OK() {
			return merged, outcomes, nil
		}
	}
	return merged, outcomes, ErrAllPlatformsFailed
}
