// Package poller drives fixed-interval live price refresh. Every fetch is
// tagged with a monotonically increasing generation; a slow response that
// arrives after a newer one has been applied is discarded instead of
// overwriting fresher state.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ayuga01/Quantara/internal/api"
)

// FetchFunc retrieves one live price snapshot.
type FetchFunc func(ctx context.Context) (*api.CurrentPrices, error)

// ApplyFunc consumes a fresh snapshot. Calls are serialised; an apply for
// generation n is never followed by one for a generation < n.
type ApplyFunc func(ctx context.Context, update *api.CurrentPrices)

// Options tune poller behaviour.
type Options struct {
	Interval     time.Duration
	StartupDelay time.Duration
}

// Poller issues interval fetches and guards against stale responses.
type Poller struct {
	opts   Options
	fetch  FetchFunc
	logger zerolog.Logger

	mu          sync.Mutex
	nextGen     uint64
	lastApplied uint64
}

// New constructs a Poller instance.
func New(opts Options, fetch FetchFunc, logger zerolog.Logger) *Poller {
	if opts.Interval <= 0 {
		panic("poller interval must be positive")
	}
	return &Poller{opts: opts, fetch: fetch, logger: logger.With().Str("component", "poller").Logger()}
}

// Run blocks, polling once immediately and then at every interval until
// ctx is cancelled. Overlapping fetches may be in flight at once; the
// generation guard keeps only the newest result.
func (p *Poller) Run(ctx context.Context, apply ApplyFunc) error {
	if p.opts.StartupDelay > 0 {
		timer := time.NewTimer(p.opts.StartupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	p.poll(ctx, &wg, apply)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx, &wg, apply)
		}
	}
}

func (p *Poller) poll(ctx context.Context, wg *sync.WaitGroup, apply ApplyFunc) {
	gen := p.issueGeneration()

	wg.Add(1)
	go func() {
		defer wg.Done()

		update, err := p.fetch(ctx)
		if err != nil {
			if ctx.Err() == nil {
				p.logger.Error().Err(err).Uint64("generation", gen).Msg("price poll failed")
			}
			return
		}
		p.Deliver(ctx, gen, update, apply)
	}()
}

func (p *Poller) issueGeneration() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextGen++
	return p.nextGen
}

// Deliver applies an update unless a newer generation already landed.
func (p *Poller) Deliver(ctx context.Context, gen uint64, update *api.CurrentPrices, apply ApplyFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen <= p.lastApplied {
		p.logger.Debug().
			Uint64("generation", gen).
			Uint64("latest", p.lastApplied).
			Msg("discarding stale poll response")
		return
	}
	p.lastApplied = gen
	apply(ctx, update)
}
