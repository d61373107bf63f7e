package poller

import (
	"context"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/rahul4469/code-scanner/internal/models"
)

// State is the client-side lifecycle of one watched job.
type State string

const (
	StateUnstarted  State = "unstarted"
	StateLoading    State = "loading"
	StateProcessing State = "processing"
	// StateCompleted means the backend reported a terminal status, which is
	// either "completed" or "error". The snapshot result tells them apart.
	StateCompleted State = "completed"
	// StateErrored is a client-side failure: transport error, non-2xx answer,
	// undecodable body or exhausted poll policy.
	StateErrored State = "errored"
)

// Terminal reports whether the watcher stops polling in state s.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateErrored
}

// ResultFetcher queries the backend for the current result of a job.
type ResultFetcher interface {
	Result(ctx context.Context, id string) (*models.AnalysisResult, error)
}

// Snapshot is the watcher's latest known view of a job. Each poll replaces
// the previous snapshot; observers always receive a private copy.
type Snapshot struct {
	JobID     string
	State     State
	Result    *models.AnalysisResult
	Err       error
	Polls     int
	Slow      bool
	StartedAt time.Time
	UpdatedAt time.Time
}

func (s Snapshot) clone() Snapshot {
	s.Result = s.Result.Clone()
	return s
}

// Option configures a Watcher.
type Option func(*Watcher)

func WithPolicy(p Policy) Option {
	return func(w *Watcher) { w.policy = p }
}

func WithClock(c Clock) Option {
	return func(w *Watcher) { w.clock = c }
}

func WithLogger(l logr.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithObserver registers fn to receive every state change. fn runs on the
// watcher goroutine and must not call Close.
func WithObserver(fn func(Snapshot)) Option {
	return func(w *Watcher) { w.observer = fn }
}

// Watcher polls the backend for one job until it reaches a terminal state.
// One Watcher corresponds to one view instance: it can be started once and
// Close tears it down.
//
// Cancellation uses a generation counter. The loop captures the generation
// when it starts and every state change is applied only while that
// generation is still current. Close bumps the generation, so a poll that is
// in flight or scheduled when the view goes away can never publish.
type Watcher struct {
	jobID    string
	fetcher  ResultFetcher
	policy   Policy
	clock    Clock
	logger   logr.Logger
	observer func(Snapshot)

	// pubMu orders publication against Close.
	pubMu sync.Mutex

	mu         sync.Mutex
	snap       Snapshot
	generation uint64
	started    bool
	closed     bool
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewWatcher creates a watcher for jobID. It does nothing until Start or Run.
func NewWatcher(jobID string, fetcher ResultFetcher, opts ...Option) *Watcher {
	w := &Watcher{
		jobID:   jobID,
		fetcher: fetcher,
		policy:  DefaultPolicy(),
		clock:   SystemClock{},
		logger:  logr.Discard(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.WithValues("job", jobID)
	w.snap = Snapshot{JobID: jobID, State: StateUnstarted}
	return w
}

// Start launches the poll loop in its own goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	ctx, cancel, gen, err := w.begin(ctx)
	if err != nil {
		return err
	}
	go w.loop(ctx, cancel, gen)
	return nil
}

// Run polls on the calling goroutine and returns the terminal snapshot. If
// ctx ends or the watcher is closed first, the last snapshot is returned with
// the cause.
func (w *Watcher) Run(parent context.Context) (Snapshot, error) {
	ctx, cancel, gen, err := w.begin(parent)
	if err != nil {
		return w.Snapshot(), err
	}
	w.loop(ctx, cancel, gen)

	snap := w.Snapshot()
	if snap.State.Terminal() {
		return snap, nil
	}
	if err := parent.Err(); err != nil && !w.isClosed() {
		return snap, err
	}
	return snap, models.ErrWatcherClosed
}

// Snapshot returns a copy of the latest state.
func (w *Watcher) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snap.clone()
}

// Done is closed once the poll loop has exited, or on Close of a watcher
// that never started.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// Close tears the watcher down. No observer call happens after Close returns.
func (w *Watcher) Close() {
	w.pubMu.Lock()
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.pubMu.Unlock()
		return
	}
	w.closed = true
	w.generation++
	cancel := w.cancel
	started := w.started
	w.mu.Unlock()
	w.pubMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if !started {
		close(w.done)
	}
	w.logger.V(1).Info("watcher closed")
}

func (w *Watcher) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *Watcher) begin(parent context.Context) (context.Context, context.CancelFunc, uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, nil, 0, models.ErrWatcherClosed
	}
	if w.started {
		return nil, nil, 0, models.ErrWatcherStarted
	}
	w.started = true
	w.generation++

	ctx, cancel := context.WithCancel(parent)
	w.cancel = cancel
	w.snap.StartedAt = w.clock.Now()
	return ctx, cancel, w.generation, nil
}

// apply mutates the snapshot and notifies the observer, but only while gen is
// the current generation. It reports whether the update was applied.
func (w *Watcher) apply(gen uint64, mutate func(*Snapshot)) bool {
	w.pubMu.Lock()
	defer w.pubMu.Unlock()

	w.mu.Lock()
	if gen != w.generation {
		w.mu.Unlock()
		return false
	}
	mutate(&w.snap)
	w.snap.UpdatedAt = w.clock.Now()
	snap := w.snap.clone()
	w.mu.Unlock()

	if w.observer != nil {
		w.observer(snap)
	}
	return true
}

func (w *Watcher) loop(ctx context.Context, cancel context.CancelFunc, gen uint64) {
	defer close(w.done)
	defer cancel()

	schedule := w.policy.backoff()
	started := w.clock.Now()

	for {
		if !w.apply(gen, func(s *Snapshot) {
			s.State = StateLoading
			s.Polls++
		}) {
			return
		}

		res, err := w.fetcher.Result(ctx, w.jobID)
		if ctx.Err() != nil {
			w.logger.V(1).Info("poll abandoned", "reason", ctx.Err().Error())
			return
		}
		if err != nil {
			w.logger.Error(err, "poll failed")
			w.apply(gen, func(s *Snapshot) {
				s.State = StateErrored
				s.Err = err
			})
			return
		}
		if res.ID != "" && res.ID != w.jobID {
			w.logger.Info("result id does not match job", "resultID", res.ID)
		}

		if res.Status.Terminal() {
			w.logger.Info("job finished", "status", string(res.Status))
			w.apply(gen, func(s *Snapshot) {
				s.State = StateCompleted
				s.Result = res
				s.Err = nil
			})
			return
		}

		delay, stop := schedule.Next()
		if stop {
			w.logger.Info("poll limit reached", "polls", w.Snapshot().Polls)
			w.apply(gen, func(s *Snapshot) {
				s.State = StateErrored
				s.Result = res
				s.Err = models.ErrPollLimitReached
			})
			return
		}

		slow := w.policy.SlowAfter > 0 && w.clock.Now().Sub(started) >= w.policy.SlowAfter
		if !w.apply(gen, func(s *Snapshot) {
			s.State = StateProcessing
			s.Result = res
			s.Slow = slow
		}) {
			return
		}

		w.logger.V(1).Info("still processing", "next", delay.String())
		select {
		case <-ctx.Done():
			return
		case <-w.clock.After(delay):
		}
	}
}
