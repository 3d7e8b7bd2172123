package logger

import (
	"errors"
	"io"
	"sync"
)

// asyncWriter fans lines out to its sinks from a single goroutine so that
// logging never blocks on a slow sink until the queue fills up.
type asyncWriter struct {
	queue chan []byte
	flush chan chan struct{}
	done  chan struct{}
	once  sync.Once
	sinks []io.Writer

	closeMu sync.RWMutex
	closed  bool

	mu  sync.Mutex
	err error
}

func newAsyncWriter(sinks []io.Writer, queueSize int) *asyncWriter {
	if queueSize <= 0 {
		queueSize = 256
	}
	w := &asyncWriter{
		queue: make(chan []byte, queueSize),
		flush: make(chan chan struct{}),
		done:  make(chan struct{}),
	}
	for _, s := range sinks {
		if s != nil {
			w.sinks = append(w.sinks, s)
		}
	}
	go w.loop()
	return w
}

func (w *asyncWriter) loop() {
	defer close(w.done)
	for {
		select {
		case line, ok := <-w.queue:
			if !ok {
				return
			}
			w.writeAll(line)
		case ack := <-w.flush:
			w.drain()
			close(ack)
		}
	}
}

func (w *asyncWriter) drain() {
	for {
		select {
		case line, ok := <-w.queue:
			if !ok {
				return
			}
			w.writeAll(line)
		default:
			return
		}
	}
}

func (w *asyncWriter) writeAll(line []byte) {
	var errs []error
	for _, s := range w.sinks {
		if _, err := s.Write(line); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		w.mu.Lock()
		if w.err == nil {
			w.err = err
		}
		w.mu.Unlock()
	}
}

// Write queues a copy of p. It blocks only when the queue is full.
func (w *asyncWriter) Write(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	w.closeMu.RLock()
	defer w.closeMu.RUnlock()
	if w.closed {
		return errors.New("logger: writer closed")
	}
	w.queue <- append([]byte(nil), p...)
	return nil
}

// Flush waits until every queued line has reached the sinks.
func (w *asyncWriter) Flush() error {
	ack := make(chan struct{})
	select {
	case w.flush <- ack:
		<-ack
	case <-w.done:
	}
	return w.Err()
}

// Close drains the queue, stops the loop and returns the first sink error.
func (w *asyncWriter) Close() error {
	w.once.Do(func() {
		w.closeMu.Lock()
		w.closed = true
		close(w.queue)
		w.closeMu.Unlock()
	})
	<-w.done
	return w.Err()
}

// Err returns the first sink error seen so far.
func (w *asyncWriter) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}
