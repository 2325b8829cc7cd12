package midiwindows

import (
	"errors"
	"sync"
)

const (
	maxShortMessageLen = 3
	outputQueueDepth   = 64
)

var (
	errQueueFull   = errors.New("output queue full")
	errQueueClosed = errors.New("output queue closed")
)

// messageWriter is the write side of one open output device.
type messageWriter interface {
	writeShort(data []byte) error
	// writeLong returns once the driver has finished with the buffer.
	writeLong(data []byte) error
}

func isShortMessage(data []byte) bool {
	return len(data) <= maxShortMessageLen && data[0] != 0xF0
}

// outputQueue feeds one output device. Short messages are written by the
// caller, which may be the winmm input callback. Long messages need header
// preparation and a wait for completion, neither of which is allowed inside
// that callback, so a worker goroutine writes them. While anything is queued,
// short messages queue behind it and order is kept.
type outputQueue struct {
	w       messageWriter
	onError func(error)

	mu      sync.Mutex
	pending int
	closed  bool
	jobs    chan []byte
	done    chan struct{}
}

func newOutputQueue(w messageWriter, depth int, onError func(error)) *outputQueue {
	q := &outputQueue{
		w:       w,
		onError: onError,
		jobs:    make(chan []byte, depth),
		done:    make(chan struct{}),
	}
	go q.run()
	return q
}

// send never blocks on a long message. data is copied before it is queued.
func (q *outputQueue) send(data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return errQueueClosed
	}
	if q.pending == 0 && isShortMessage(data) {
		return q.w.writeShort(data)
	}

	select {
	case q.jobs <- append([]byte(nil), data...):
		q.pending++
		return nil
	default:
		return errQueueFull
	}
}

func (q *outputQueue) run() {
	defer close(q.done)
	for data := range q.jobs {
		var err error
		if isShortMessage(data) {
			err = q.w.writeShort(data)
		} else {
			err = q.w.writeLong(data)
		}
		if err != nil && q.onError != nil {
			q.onError(err)
		}

		q.mu.Lock()
		q.pending--
		q.mu.Unlock()
	}
}

// close stops accepting messages and waits for the queued ones to be written.
func (q *outputQueue) close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()
	<-q.done
}
