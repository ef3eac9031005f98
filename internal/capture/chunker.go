package capture

import (
	"errors"
	"io"
	"sync"
	"time"
)

// chunker turns an encoder's byte stream into timesliced chunks.
// Bytes read while paused are discarded.
type chunker struct {
	src       io.Reader
	timeslice time.Duration
	mimeType  string

	mu      sync.Mutex
	pending []byte
	queue   [][]byte
	paused  bool
	started bool
	readErr error

	ready    chan struct{}
	readDone chan struct{}
	done     chan struct{}

	// onRead runs after each read has been buffered or discarded
	onRead func()
}

func newChunker(src io.Reader, timeslice time.Duration, mimeType string) *chunker {
	if timeslice <= 0 {
		timeslice = 100 * time.Millisecond
	}
	return &chunker{
		src:       src,
		timeslice: timeslice,
		mimeType:  mimeType,
		ready:     make(chan struct{}, 1),
		readDone:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start begins pumping the source
func (c *chunker) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return errors.New("recorder already started")
	}
	c.started = true

	go c.read()
	go c.run()
	return nil
}

// Pause queues whatever was read before the pause, then drops further input
func (c *chunker) Pause() {
	c.mu.Lock()
	c.paused = true
	c.queuePending()
	c.mu.Unlock()
	c.signal()
}

func (c *chunker) Resume() {
	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()
}

// finishing accepts input again so the encoder's trailing bytes are kept
// even when stopping from a pause
func (c *chunker) finishing() {
	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()
}

func (c *chunker) Ready() <-chan struct{} {
	return c.ready
}

func (c *chunker) MimeType() string {
	return c.mimeType
}

// TakeChunks drains queued chunks in arrival order
func (c *chunker) TakeChunks() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	q := c.queue
	c.queue = nil
	return q
}

// wait blocks until the source is exhausted and the tail chunk is queued
func (c *chunker) wait() error {
	c.mu.Lock()
	started := c.started
	c.mu.Unlock()
	if !started {
		return nil
	}

	<-c.done

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil && !errors.Is(c.readErr, io.EOF) {
		return c.readErr
	}
	return nil
}

func (c *chunker) read() {
	defer close(c.readDone)

	buf := make([]byte, 32*1024)
	for {
		n, err := c.src.Read(buf)
		if n > 0 {
			c.mu.Lock()
			if !c.paused {
				c.pending = append(c.pending, buf[:n]...)
			}
			c.mu.Unlock()
			if c.onRead != nil {
				c.onRead()
			}
		}
		if err != nil {
			c.mu.Lock()
			c.readErr = err
			c.mu.Unlock()
			return
		}
	}
}

func (c *chunker) run() {
	defer close(c.done)

	ticker := time.NewTicker(c.timeslice)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.flush()
		case <-c.readDone:
			c.flush()
			return
		}
	}
}

func (c *chunker) flush() {
	c.mu.Lock()
	queued := c.queuePending()
	c.mu.Unlock()
	if queued {
		c.signal()
	}
}

// queuePending moves buffered bytes onto the queue. Caller holds mu.
func (c *chunker) queuePending() bool {
	if len(c.pending) == 0 {
		return false
	}
	c.queue = append(c.queue, c.pending)
	c.pending = nil
	return true
}

func (c *chunker) signal() {
	select {
	case c.ready <- struct{}{}:
	default:
	}
}
