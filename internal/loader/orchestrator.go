package loader

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"tarediiran-industries.com/transit-cancellations/internal/cancellations"
	"tarediiran-industries.com/transit-cancellations/internal/common"
	"tarediiran-industries.com/transit-cancellations/internal/feed"
)

// Orchestrator runs the root -> year -> records pipeline for one session.
//
// Every stage owns a cancel func; starting a stage cancels the run it
// supersedes. The records stage also carries a sequence number, and results
// are applied only while both the stage context is live and the sequence is
// current. All state lives behind mu.
type Orchestrator struct {
	fetcher feed.Fetcher
	cache   Cache
	logger  zerolog.Logger
	metrics *common.Metrics
	flights singleflight.Group

	base      context.Context
	closeBase context.CancelFunc

	mu         sync.Mutex
	state      State
	changed    chan struct{}
	rootCancel context.CancelFunc
	yearCancel context.CancelFunc
	dataCancel context.CancelFunc
	dataSeq    uint64
}

type Option func(*Orchestrator)

// WithCache injects the line file cache, e.g. one shared between sessions
// or pre-seeded in tests.
func WithCache(cache Cache) Option {
	return func(orchestrator *Orchestrator) { orchestrator.cache = cache }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(orchestrator *Orchestrator) { orchestrator.logger = logger }
}

func WithMetrics(metrics *common.Metrics) Option {
	return func(orchestrator *Orchestrator) { orchestrator.metrics = metrics }
}

// New creates an idle orchestrator. Cancelling ctx has the same effect as Close.
func New(ctx context.Context, fetcher feed.Fetcher, options ...Option) *Orchestrator {
	base, closeBase := context.WithCancel(ctx)
	orchestrator := &Orchestrator{
		fetcher:   fetcher,
		cache:     NewMemoryCache(),
		logger:    zerolog.Nop(),
		base:      base,
		closeBase: closeBase,
		state:     initialState(),
		changed:   make(chan struct{}),
	}
	for _, option := range options {
		option(orchestrator)
	}
	return orchestrator
}

// Start loads the root index. Calling it again reloads the year list.
func (orchestrator *Orchestrator) Start() {
	orchestrator.mu.Lock()
	defer orchestrator.mu.Unlock()

	cancelStage(&orchestrator.rootCancel)
	ctx, cancel := context.WithCancel(orchestrator.base)
	orchestrator.rootCancel = cancel

	orchestrator.state.beginRoot()
	orchestrator.notifyLocked()

	go orchestrator.loadRoot(ctx)
}

// SelectYear switches the session to another year. Everything loaded or in
// flight for the previous year is dropped.
func (orchestrator *Orchestrator) SelectYear(year string) {
	orchestrator.mu.Lock()
	defer orchestrator.mu.Unlock()

	if orchestrator.selectYearLocked(year) {
		orchestrator.notifyLocked()
	}
}

// SelectFiles replaces the line file selection. A selection equal to the
// current one after normalisation is a no-op.
func (orchestrator *Orchestrator) SelectFiles(files []string) {
	orchestrator.mu.Lock()
	defer orchestrator.mu.Unlock()

	if !orchestrator.state.selectFiles(files) {
		return
	}
	orchestrator.beginRecordsLocked()
	orchestrator.notifyLocked()
}

func (orchestrator *Orchestrator) Snapshot() State {
	orchestrator.mu.Lock()
	defer orchestrator.mu.Unlock()
	return orchestrator.state
}

// Changed returns a channel closed on the next state change.
func (orchestrator *Orchestrator) Changed() <-chan struct{} {
	orchestrator.mu.Lock()
	defer orchestrator.mu.Unlock()
	return orchestrator.changed
}

// WaitIdle blocks until no stage is loading or ctx is done.
func (orchestrator *Orchestrator) WaitIdle(ctx context.Context) (State, error) {
	return orchestrator.waitUntil(ctx, func(state State) bool { return !state.Loading() })
}

// WaitLineFiles blocks until the root and year stages have settled, the
// earliest point at which a line selection for the selected year can be made.
func (orchestrator *Orchestrator) WaitLineFiles(ctx context.Context) (State, error) {
	return orchestrator.waitUntil(ctx, func(state State) bool {
		return state.Root != Loading && state.Year != Loading
	})
}

func (orchestrator *Orchestrator) waitUntil(ctx context.Context, done func(State) bool) (State, error) {
	for {
		orchestrator.mu.Lock()
		state := orchestrator.state
		changed := orchestrator.changed
		orchestrator.mu.Unlock()

		if done(state) {
			return state, nil
		}

		select {
		case <-ctx.Done():
			return state, ctx.Err()
		case <-changed:
		}
	}
}

// Close cancels all in-flight work. The orchestrator stays readable.
func (orchestrator *Orchestrator) Close() {
	orchestrator.mu.Lock()
	defer orchestrator.mu.Unlock()

	cancelStage(&orchestrator.rootCancel)
	cancelStage(&orchestrator.yearCancel)
	cancelStage(&orchestrator.dataCancel)
	orchestrator.closeBase()

	orchestrator.state.cancelInFlight()
	orchestrator.notifyLocked()
}

func (orchestrator *Orchestrator) selectYearLocked(year string) bool {
	if year == orchestrator.state.SelectedYear {
		return false
	}

	cancelStage(&orchestrator.yearCancel)
	cancelStage(&orchestrator.dataCancel)
	orchestrator.dataSeq++

	orchestrator.state.beginYear(year)
	if year == "" {
		return true
	}

	ctx, cancel := context.WithCancel(orchestrator.base)
	orchestrator.yearCancel = cancel
	go orchestrator.loadYear(ctx, year)
	return true
}

func (orchestrator *Orchestrator) beginRecordsLocked() {
	cancelStage(&orchestrator.dataCancel)
	orchestrator.dataSeq++

	if !orchestrator.state.beginRecords() {
		return
	}

	ctx, cancel := context.WithCancel(orchestrator.base)
	orchestrator.dataCancel = cancel
	go orchestrator.loadRecords(
		ctx,
		orchestrator.dataSeq,
		orchestrator.state.SelectedYear,
		slices.Clone(orchestrator.state.SelectedFiles),
	)
}

func (orchestrator *Orchestrator) loadRoot(ctx context.Context) {
	benchmarker := common.NewBenchmarker(orchestrator.logger, "stage-root")
	defer benchmarker.Close()

	root, err := orchestrator.fetcher.FetchRootIndex(ctx)

	orchestrator.mu.Lock()
	defer orchestrator.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	if err != nil {
		orchestrator.failLocked(StageRoot, err)
		return
	}

	orchestrator.metrics.ObserveStage(StageRoot, benchmarker.Elapsed())
	orchestrator.state.rootLoaded(root.Years)
	if orchestrator.state.SelectedYear == "" {
		orchestrator.selectYearLocked(cancellations.LatestYear(orchestrator.state.Years))
	}
	orchestrator.notifyLocked()
}

func (orchestrator *Orchestrator) loadYear(ctx context.Context, year string) {
	benchmarker := common.NewBenchmarker(orchestrator.logger, "stage-year "+year)
	defer benchmarker.Close()

	index, err := orchestrator.fetcher.FetchYearIndex(ctx, year)

	orchestrator.mu.Lock()
	defer orchestrator.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	if err != nil {
		orchestrator.failLocked(StageYear, err)
		return
	}

	orchestrator.metrics.ObserveStage(StageYear, benchmarker.Elapsed())
	orchestrator.state.yearLoaded(index.Files)
	if orchestrator.state.selectFiles(cancellations.FileNames(orchestrator.state.LineFiles)) {
		orchestrator.beginRecordsLocked()
	}
	orchestrator.notifyLocked()
}

func (orchestrator *Orchestrator) loadRecords(ctx context.Context, seq uint64, year string, files []string) {
	benchmarker := common.NewBenchmarker(orchestrator.logger, fmt.Sprintf("stage-records %s (%d files)", year, len(files)))
	defer benchmarker.Close()

	records, err := orchestrator.collect(ctx, year, files)

	orchestrator.mu.Lock()
	defer orchestrator.mu.Unlock()

	if ctx.Err() != nil || seq != orchestrator.dataSeq {
		orchestrator.logger.Debug().Uint64("seq", seq).Msg("discarding superseded records")
		return
	}
	if err != nil {
		orchestrator.failLocked(StageRecords, err)
		return
	}

	orchestrator.metrics.ObserveStage(StageRecords, benchmarker.Elapsed())
	orchestrator.state.recordsLoaded(records)
	orchestrator.notifyLocked()
}

// collect fetches all files concurrently and merges them newest first.
func (orchestrator *Orchestrator) collect(ctx context.Context, year string, files []string) ([]feed.Cancellation, error) {
	group, groupCtx := errgroup.WithContext(ctx)
	perFile := make([][]feed.Cancellation, len(files))

	for i, file := range files {
		group.Go(func() error {
			records, err := orchestrator.lineData(groupCtx, Key{Year: year, File: file})
			if err != nil {
				return err
			}
			perFile[i] = records
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, records := range perFile {
		total += len(records)
	}
	combined := make([]feed.Cancellation, 0, total)
	for _, records := range perFile {
		combined = append(combined, records...)
	}
	cancellations.SortNewestFirst(combined)
	return combined, nil
}

// lineData serves a file from the cache, or fetches it once no matter how many
// callers ask concurrently.
func (orchestrator *Orchestrator) lineData(ctx context.Context, key Key) ([]feed.Cancellation, error) {
	if cached, ok := orchestrator.cache.Get(key); ok {
		orchestrator.metrics.IncCacheLookup(true)
		return cached, nil
	}
	orchestrator.metrics.IncCacheLookup(false)

	for {
		flight := orchestrator.flights.DoChan(key.String(), func() (any, error) {
			return orchestrator.fetchLine(ctx, key)
		})

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %w", feed.ErrCancelled, key, ctx.Err())
		case result := <-flight:
			if result.Err == nil {
				return result.Val.([]feed.Cancellation), nil
			}
			// We joined a flight started by a run that has since been
			// superseded. Our own context is live, so fetch again.
			if feed.IsCancelled(result.Err) && ctx.Err() == nil {
				orchestrator.flights.Forget(key.String())
				continue
			}
			return nil, result.Err
		}
	}
}

func (orchestrator *Orchestrator) fetchLine(ctx context.Context, key Key) ([]feed.Cancellation, error) {
	if cached, ok := orchestrator.cache.Get(key); ok {
		return cached, nil
	}

	records, err := orchestrator.fetcher.FetchLineData(ctx, key.Year, key.File)
	if feed.IsMalformed(err) {
		orchestrator.logger.Warn().Err(err).Str("file", key.String()).Msg("treating malformed line file as empty")
		records, err = []feed.Cancellation{}, nil
	}
	if err != nil {
		return nil, err
	}
	return orchestrator.cache.PutIfAbsent(key, records), nil
}

// failLocked records a stage failure. Cancellations are not failures.
func (orchestrator *Orchestrator) failLocked(stage string, err error) {
	if feed.IsCancelled(err) {
		orchestrator.logger.Debug().Str("stage", stage).Msg("stage cancelled")
		orchestrator.state.cancel(stage)
		orchestrator.notifyLocked()
		return
	}
	orchestrator.logger.Warn().Err(err).Str("stage", stage).Msg("stage failed")
	orchestrator.state.fail(stage, err)
	orchestrator.notifyLocked()
}

func (orchestrator *Orchestrator) notifyLocked() {
	close(orchestrator.changed)
	orchestrator.changed = make(chan struct{})
}

func cancelStage(cancel *context.CancelFunc) {
	if *cancel != nil {
		(*cancel)()
		*cancel = nil
	}
}

// WaitSettled waits, bounded by timeout when positive, for the pipeline to go
// idle and surfaces the stage error if there is one.
func WaitSettled(ctx context.Context, orchestrator *Orchestrator, timeout time.Duration) (State, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	state, err := orchestrator.WaitIdle(ctx)
	if err != nil {
		return state, err
	}
	return state, state.Err
}
