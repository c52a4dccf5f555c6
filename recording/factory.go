package recording

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/clockz"

	"github.com/zoobzio/scopez"
)

// CompletionHandler is called when a span completes.
type CompletionHandler func(data scopez.SpanData)

type handlerEntry struct {
	handler CompletionHandler
	id      uint64
	async   bool
}

// Factory is a recording implementation of scopez.SpanFactory. It assigns
// trace and span identities, timestamps spans with an injectable clock, and
// fans completed spans out to registered collectors and completion
// handlers. Safe for concurrent use by multiple goroutines.
//
//nolint:govet // Field order optimized for functionality over memory
type Factory struct {
	handlers       []handlerEntry
	collectors     map[string]*Collector
	panicHook      func(handlerID uint64, r interface{})
	workers        *workerPool
	traceIDPool    *idPool
	spanIDPool     *idPool
	clock          clockz.Clock
	handlersLock   sync.RWMutex
	collectorsLock sync.RWMutex
	idPoolOnce     sync.Once
	nextID         atomic.Uint64
	droppedSpans   atomic.Uint64
}

// NewFactory creates a new recording factory.
// Uses the real clock for production behavior.
func NewFactory() *Factory {
	return &Factory{
		handlers:   make([]handlerEntry, 0),
		collectors: make(map[string]*Collector),
		clock:      clockz.RealClock,
	}
}

// WithClock returns a new factory with the specified clock.
// Enables clock injection for deterministic testing.
func (*Factory) WithClock(clock clockz.Clock) *Factory {
	return &Factory{
		handlers:   make([]handlerEntry, 0),
		collectors: make(map[string]*Collector),
		clock:      clock,
	}
}

// Now returns the factory clock's reading of the current time.
func (f *Factory) Now() time.Time {
	return f.clock.Now()
}

// StartSpan creates a new recording span as a child of parent, or a root
// span when parent is nil or carries an invalid context.
func (f *Factory) StartSpan(parent scopez.Span, name string, opts scopez.StartOptions) scopez.Span {
	var psc scopez.SpanContext
	if parent != nil {
		psc = parent.Context()
	}
	return f.start(psc, false, name, opts)
}

// StartSpanWithRemoteParent creates a new recording span parented on a
// cross-process context. An invalid remote context yields a root span.
func (f *Factory) StartSpanWithRemoteParent(remote scopez.SpanContext, name string, opts scopez.StartOptions) scopez.Span {
	return f.start(remote, true, name, opts)
}

func (f *Factory) start(parent scopez.SpanContext, remote bool, name string, opts scopez.StartOptions) scopez.Span {
	sc := scopez.SpanContext{
		TraceID: f.traceIDFor(parent),
		SpanID:  f.generateSpanID(),
	}

	record := true
	if opts.Sampled != nil && !*opts.Sampled && !opts.RecordEvents {
		record = false
	}

	span := &Span{
		factory: f,
		sc:      sc,
		record:  record,
		data: scopez.SpanData{
			TraceID:   sc.TraceID.String(),
			SpanID:    sc.SpanID.String(),
			Name:      name,
			StartTime: f.clock.Now(),
		},
	}

	if parent.IsValid() {
		span.data.ParentID = parent.SpanID.String()
		span.data.RemoteParent = remote
	}

	return span
}

// ensureIDPools initializes ID pools if not already created.
func (f *Factory) ensureIDPools() {
	f.idPoolOnce.Do(func() {
		// Pool size based on number of CPUs for optimal contention balance.
		poolSize := runtime.NumCPU() * 100

		f.traceIDPool = newIDPool(poolSize, func() []byte {
			b := make([]byte, 16)
			if _, err := rand.Read(b); err != nil {
				// Fallback to time-based ID if crypto/rand fails.
				binary.BigEndian.PutUint64(b[:8], uint64(f.clock.Now().UnixNano()))
				binary.BigEndian.PutUint64(b[8:], f.nextID.Add(1))
			}
			return b
		})

		f.spanIDPool = newIDPool(poolSize, func() []byte {
			b := make([]byte, 8)
			if _, err := rand.Read(b); err != nil {
				// Fallback to counter-based ID if crypto/rand fails.
				binary.BigEndian.PutUint64(b, f.nextID.Add(1))
			}
			return b
		})
	})
}

// traceIDFor returns the parent's trace ID, or a fresh one for roots.
func (f *Factory) traceIDFor(parent scopez.SpanContext) scopez.TraceID {
	if parent.IsValid() {
		return parent.TraceID
	}
	f.ensureIDPools()
	var id scopez.TraceID
	copy(id[:], f.traceIDPool.get())
	return id
}

// generateSpanID creates a new span ID using the ID pool.
func (f *Factory) generateSpanID() scopez.SpanID {
	f.ensureIDPools()
	var id scopez.SpanID
	copy(id[:], f.spanIDPool.get())
	return id
}

// AddCollector registers a collector to receive completed spans.
func (f *Factory) AddCollector(name string, c *Collector) {
	if c == nil {
		return
	}
	f.collectorsLock.Lock()
	defer f.collectorsLock.Unlock()
	f.collectors[name] = c
}

// RemoveCollector unregisters a collector by name.
func (f *Factory) RemoveCollector(name string) {
	f.collectorsLock.Lock()
	defer f.collectorsLock.Unlock()
	delete(f.collectors, name)
}

// OnSpanComplete registers a synchronous handler called when spans
// complete.
func (f *Factory) OnSpanComplete(handler CompletionHandler) uint64 {
	return f.registerHandler(handler, false)
}

// OnSpanCompleteAsync registers an asynchronous handler called when spans
// complete.
func (f *Factory) OnSpanCompleteAsync(handler CompletionHandler) uint64 {
	return f.registerHandler(handler, true)
}

func (f *Factory) registerHandler(handler CompletionHandler, async bool) uint64 {
	if handler == nil {
		return 0
	}

	id := f.nextID.Add(1)

	f.handlersLock.Lock()
	defer f.handlersLock.Unlock()

	f.handlers = append(f.handlers, handlerEntry{
		id:      id,
		handler: handler,
		async:   async,
	})

	return id
}

// RemoveHandler removes a handler by ID.
func (f *Factory) RemoveHandler(id uint64) {
	f.handlersLock.Lock()
	defer f.handlersLock.Unlock()

	// Preserve order
	for i, h := range f.handlers {
		if h.id == id {
			copy(f.handlers[i:], f.handlers[i+1:])
			f.handlers = f.handlers[:len(f.handlers)-1]
			return
		}
	}
}

// SetPanicHook sets a function to be called when a handler panics.
func (f *Factory) SetPanicHook(hook func(handlerID uint64, r interface{})) {
	f.panicHook = hook
}

// complete fans a finished span out to collectors and handlers.
func (f *Factory) complete(data scopez.SpanData) {
	f.collectorsLock.RLock()
	for _, c := range f.collectors {
		c.Collect(data)
	}
	f.collectorsLock.RUnlock()

	f.executeHandlers(data)
}

// executeHandlers calls all registered handlers with the completed span.
func (f *Factory) executeHandlers(data scopez.SpanData) {
	f.handlersLock.RLock()
	if len(f.handlers) == 0 {
		f.handlersLock.RUnlock()
		return
	}

	handlers := make([]handlerEntry, len(f.handlers))
	copy(handlers, f.handlers)
	f.handlersLock.RUnlock()

	for _, h := range handlers {
		if h.async {
			// Make a copy of h for closure
			entry := h
			if f.workers != nil {
				f.workers.submit(func() {
					f.safeCall(entry, data)
				})
			} else {
				go f.safeCall(entry, data)
			}
		} else {
			f.safeCall(h, data)
		}
	}
}

func (f *Factory) safeCall(entry handlerEntry, data scopez.SpanData) {
	defer func() {
		if r := recover(); r != nil {
			if f.panicHook != nil {
				f.panicHook(entry.id, r)
			}
		}
	}()
	entry.handler(data)
}

// EnableWorkerPool creates a bounded worker pool for async handlers.
func (f *Factory) EnableWorkerPool(workers, queueSize int) error {
	if f.workers != nil {
		return errors.New("worker pool already enabled")
	}
	if workers <= 0 {
		return errors.New("workers must be > 0")
	}
	if queueSize <= 0 {
		return errors.New("queueSize must be > 0")
	}

	f.workers = &workerPool{
		tasks:   make(chan func(), queueSize),
		stop:    make(chan struct{}),
		dropped: &f.droppedSpans,
	}

	f.workers.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go f.workers.run()
	}

	return nil
}

// DroppedSpans returns the number of spans dropped due to a full worker
// queue.
func (f *Factory) DroppedSpans() uint64 {
	return f.droppedSpans.Load()
}

// Close shuts down the factory gracefully and cleans up resources.
// This should be called when the factory is no longer needed. Registered
// collectors remain owned by their creators and are not closed.
func (f *Factory) Close() {
	// Stop new handler executions
	f.handlersLock.Lock()
	f.handlers = nil
	f.handlersLock.Unlock()

	f.collectorsLock.Lock()
	f.collectors = map[string]*Collector{}
	f.collectorsLock.Unlock()

	// Wait for in-flight async tasks
	if f.workers != nil {
		f.workers.shutdown()
		f.workers = nil
	}

	// Close ID pools
	if f.traceIDPool != nil {
		f.traceIDPool.close()
	}
	if f.spanIDPool != nil {
		f.spanIDPool.close()
	}
}

// workerPool manages a fixed number of workers for processing async
// handlers.
//
//nolint:govet // Field order optimized for functionality over memory
type workerPool struct {
	tasks   chan func()
	stop    chan struct{}
	dropped *atomic.Uint64
	wg      sync.WaitGroup
}

func (w *workerPool) run() {
	defer w.wg.Done()
	for {
		select {
		case task := <-w.tasks:
			task()
		case <-w.stop:
			return
		}
	}
}

func (w *workerPool) submit(task func()) {
	select {
	case w.tasks <- task:
	default:
		w.dropped.Add(1)
	}
}

func (w *workerPool) shutdown() {
	close(w.stop)
	w.wg.Wait()
}

var _ scopez.SpanFactory = (*Factory)(nil)
