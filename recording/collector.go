package recording

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/scopez"
)

// Collector buffers completed spans for batch export.
// Safe for concurrent use by multiple goroutines.
//
//nolint:govet // Field alignment optimized for readability over memory efficiency
type Collector struct {
	spans        []scopez.SpanData
	spansCh      chan scopez.SpanData
	stopCh       chan struct{}
	done         chan struct{}
	droppedCount atomic.Int64
	name         string
	mu           sync.Mutex
	closed       atomic.Bool // Track if collector is closed.
	syncMode     bool        // Bypass channel for synchronous collection.
}

// NewCollector creates a new collector with the specified name and buffer
// size.
func NewCollector(name string, bufferSize int) *Collector {
	c := &Collector{
		name:    name,
		spans:   make([]scopez.SpanData, 0, 8), // Start with small capacity.
		spansCh: make(chan scopez.SpanData, bufferSize),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.start()
	return c
}

// Name returns the name the collector was created with.
func (c *Collector) Name() string {
	return c.name
}

// start runs the collector's main loop, receiving spans from the channel.
func (c *Collector) start() {
	defer close(c.done)

	for {
		select {
		case <-c.stopCh:
			// Drain remaining spans before shutdown.
			for {
				select {
				case data := <-c.spansCh:
					c.buffer(data)
				default:
					return // Clean shutdown.
				}
			}
		case data := <-c.spansCh:
			c.buffer(data)
		}
	}
}

// Close shuts down the collector gracefully.
func (c *Collector) Close() {
	if c.closed.Swap(true) {
		return
	}
	close(c.stopCh)
	select {
	case <-c.done:
		// Clean shutdown completed.
	case <-time.After(100 * time.Millisecond):
		// Timeout - the drain loop is wedged, give up waiting.
	}
}

// Collect attempts to buffer a span with backpressure protection.
// If the internal channel is full, the span is dropped and the drop counter
// is incremented. In sync mode, spans are collected directly for
// deterministic testing.
func (c *Collector) Collect(data scopez.SpanData) {
	// Deep copy so later mutation of shared maps never reaches the buffer.
	data = cloneData(data)

	if c.syncMode {
		// Direct synchronous collection for tests.
		if c.closed.Load() {
			// Collector is closed - drop span.
			c.droppedCount.Add(1)
			return
		}
		c.buffer(data)
		return
	}

	select {
	case c.spansCh <- data:
		// Successfully queued.
	default:
		// Channel full - drop span to prevent blocking.
		c.droppedCount.Add(1)
	}
}

// buffer adds a span to the internal buffer.
func (c *Collector) buffer(data scopez.SpanData) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Check if buffer needs to grow - optimized growth strategy.
	if len(c.spans) >= cap(c.spans) {
		currentCap := cap(c.spans)
		var newCap int
		if currentCap < 1024 {
			// Double capacity for small buffers.
			newCap = currentCap * 2
		} else {
			// Grow by 50% for large buffers to avoid excessive memory usage.
			newCap = currentCap + currentCap/2
		}
		if newCap < 32 {
			newCap = 32
		}
		newSlice := make([]scopez.SpanData, len(c.spans), newCap)
		copy(newSlice, c.spans)
		c.spans = newSlice
	}
	c.spans = append(c.spans, data)
}

// Export returns a copy of all buffered spans and clears the internal
// buffer. The returned slice is safe to modify without affecting the
// collector.
func (c *Collector) Export() []scopez.SpanData {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.spans) == 0 {
		return nil
	}

	result := make([]scopez.SpanData, len(c.spans))
	for i := range c.spans {
		result[i] = cloneData(c.spans[i])
	}

	// Conservative shrinking to avoid allocation churn.
	if cap(c.spans) > 256 && len(c.spans) < cap(c.spans)/8 {
		newCap := cap(c.spans) / 4
		if newCap < 32 {
			newCap = 32
		}
		c.spans = make([]scopez.SpanData, 0, newCap)
	} else {
		c.spans = c.spans[:0] // Keep capacity, reset length.
	}

	return result
}

// Count returns the current number of buffered spans.
func (c *Collector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.spans)
}

// DroppedCount returns the total number of spans dropped due to
// backpressure.
func (c *Collector) DroppedCount() int64 {
	return c.droppedCount.Load()
}

// SetSyncMode enables synchronous collection for testing.
// When enabled, spans are collected directly without using the channel.
// This makes tests deterministic by eliminating async behavior.
func (c *Collector) SetSyncMode(sync bool) {
	c.syncMode = sync
}

// Reset clears all buffered spans and resets the drop counter.
// Does not affect the running goroutine - use Close for that.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.spans = c.spans[:0]
	c.droppedCount.Store(0)
}

// cloneData deep copies a SpanData's maps and annotation slice.
func cloneData(data scopez.SpanData) scopez.SpanData {
	if data.Attributes != nil {
		attrs := make(map[string]string, len(data.Attributes))
		for k, v := range data.Attributes {
			attrs[k] = v
		}
		data.Attributes = attrs
	}
	if data.Annotations != nil {
		anns := make([]scopez.Annotation, len(data.Annotations))
		copy(anns, data.Annotations)
		for i := range anns {
			if anns[i].Attributes == nil {
				continue
			}
			attrs := make(map[string]string, len(anns[i].Attributes))
			for k, v := range anns[i].Attributes {
				attrs[k] = v
			}
			anns[i].Attributes = attrs
		}
		data.Annotations = anns
	}
	return data
}
