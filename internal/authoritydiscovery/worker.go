package authoritydiscovery

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dep2p/authority-discovery/pkg/log"
)

var workerLog = log.Logger("authoritydiscovery.worker")

// Worker drives C7: a single goroutine cooperatively owns the cache,
// the lookup queue, the publisher, and the priority-group emitter so
// that none of them need their own locking.
type Worker struct {
	config *Config

	network NetworkProvider
	keys    KeySource
	runtime RuntimeAPI
	events  <-chan DHTEvent
	clock   clock.Clock

	cache      *addressCache
	queue      *lookupQueue
	ingest     *ingestPipeline
	pub        *publisher
	priorities *priorityGroupEmitter
	metrics    *metrics

	requests chan ServiceRequest

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker wires C1-C6 together behind a single Worker. clk is
// injectable so tests can drive ticks deterministically; production
// callers pass clock.New().
func NewWorker(cfg *Config, network NetworkProvider, keys KeySource, runtime RuntimeAPI, events <-chan DHTEvent, reg prometheus.Registerer, clk clock.Clock) *Worker {
	m := newMetrics(reg)
	cache := newAddressCache(cfg.MaxAddressesPerAuthority, cfg.MaxCachedAuthorities)
	queue := newLookupQueue(cfg.MaxInFlightLookups, network, m)
	return &Worker{
		config:     cfg,
		network:    network,
		keys:       keys,
		runtime:    runtime,
		events:     events,
		clock:      clk,
		cache:      cache,
		queue:      queue,
		ingest:     newIngestPipeline(cache, queue, network, m),
		pub:        newPublisher(cfg.Role, network, keys, runtime, m),
		priorities: newPriorityGroupEmitter(cfg.PriorityGroupID, cache, network),
		metrics:    m,
		requests:   make(chan ServiceRequest, cfg.ServiceChannelBuffer),
	}
}

// Requests returns the channel external callers use to ask the worker
// for an authority's cached addresses (§6 ServiceRequest).
func (w *Worker) Requests() chan<- ServiceRequest {
	return w.requests
}

// Start launches the Worker Loop in its own goroutine and returns
// immediately. Run is exported separately so tests can drive it
// directly.
func (w *Worker) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.Run(runCtx); err != nil {
			workerLog.Warn("worker loop terminated", "err", err)
		}
	}()
}

// Stop cancels the loop and waits for it to exit.
func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

// Run is the single cooperative loop described in §5: it owns every
// mutable piece of worker state and never shares it across
// goroutines. It returns nil when the DHT event stream ends or the
// context is cancelled. Errors from its collaborators are logged and
// never end the loop, so Run always returns nil.
func (w *Worker) Run(ctx context.Context) error {
	publishTicker := w.clock.Ticker(w.config.PublishInterval)
	defer publishTicker.Stop()
	refillTicker := w.clock.Ticker(w.config.RefillInterval)
	defer refillTicker.Stop()

	initialPublish := w.clock.Timer(w.config.InitialPublishDelay)
	defer initialPublish.Stop()

	workerLog.Info("worker loop started",
		"publish_interval", w.config.PublishInterval,
		"refill_interval", w.config.RefillInterval)

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-initialPublish.C:
			w.pub.publish(ctx)

		case <-publishTicker.C:
			w.pub.publish(ctx)

		case <-refillTicker.C:
			w.doRefill(ctx)

		case ev, ok := <-w.events:
			if !ok {
				workerLog.Info("dht event stream ended, stopping worker")
				return nil
			}
			w.handleEvent(ctx, ev)

		case req, ok := <-w.requests:
			if !ok {
				continue
			}
			w.handleServiceRequest(req)
		}
	}
}

func (w *Worker) doRefill(ctx context.Context) {
	current, err := w.runtime.Authorities(ctx)
	if err != nil {
		workerLog.Warn("refill tick: failed to fetch runtime authority set", "err", err)
		return
	}
	w.cache.retainAuthorities(current)
	w.queue.refill(current)
	w.queue.startNewLookups(ctx)
	if err := w.priorities.emit(ctx); err != nil {
		workerLog.Warn("refill tick: failed to emit priority group", "err", err)
	}
}

func (w *Worker) handleEvent(ctx context.Context, ev DHTEvent) {
	switch e := ev.(type) {
	case ValueFoundEvent:
		w.ingest.handleValueFound(ctx, e.Values)
	case ValueNotFoundEvent:
		w.ingest.handleValueNotFound(ctx, e.Key)
	default:
		workerLog.Debug("ignoring unrelated dht event")
	}
}

func (w *Worker) handleServiceRequest(req ServiceRequest) {
	addrs, _ := w.cache.get(req.Authority)
	select {
	case req.Reply <- addrs:
	default:
		workerLog.Warn("service request reply channel not ready, dropping", "authority", req.Authority.ShortString())
	}
}
