package applier

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/reskindev/reskin/internal/modification"
)

// DefaultDebounce is how long after the last observed mutation the
// applicator waits before re-asserting.
const DefaultDebounce = 300 * time.Millisecond

// Watcher re-applies a modification set whenever the document's structure
// changes, so single-page-app re-renders cannot wipe the injected nodes.
// Mutations caused by the applicator's own writes are suppressed with an
// explicit applying flag instead of relying on timing.
type Watcher struct {
	Applicator *Applicator
	// Debounce overrides DefaultDebounce when positive.
	Debounce time.Duration

	applying atomic.Bool
}

// Watch applies the set once, then observes the page until ctx is done or
// the returned stop function is called, re-applying after each debounced
// burst of child-list mutations.
func (w *Watcher) Watch(ctx context.Context, combined modification.CombinedResponse) (func(), error) {
	w.applyGuarded(ctx, combined)

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	kick := make(chan struct{}, 1)
	stopObs, err := w.Applicator.Page.ObserveChildList(ctx, func() {
		if w.applying.Load() {
			// Our own writes; ignore to avoid observer churn.
			return
		}
		select {
		case kick <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		var timer *time.Timer
		var timerC <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-kick:
				if timer != nil {
					timer.Stop()
				}
				timer = time.NewTimer(debounce)
				timerC = timer.C
			case <-timerC:
				timerC = nil
				log.Debug().Msg("document mutated, re-asserting modifications")
				w.applyGuarded(ctx, combined)
			}
		}
	}()

	var stopped atomic.Bool
	return func() {
		if stopped.CompareAndSwap(false, true) {
			stopObs()
			close(done)
		}
	}, nil
}

func (w *Watcher) applyGuarded(ctx context.Context, combined modification.CombinedResponse) {
	w.applying.Store(true)
	defer w.applying.Store(false)
	rep := w.Applicator.Apply(ctx, combined)
	log.Debug().
		Int("applied", rep.Applied).
		Int("skipped", rep.Skipped).
		Int("duplicates", rep.DuplicateSkips).
		Int("failed", rep.Failed).
		Msg("application pass complete")
}
