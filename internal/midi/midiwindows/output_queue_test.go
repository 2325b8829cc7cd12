package midiwindows

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	mu     sync.Mutex
	writes [][]byte

	started chan struct{}
	release chan struct{}
	longErr error
}

func newBlockingWriter() *recordingWriter {
	return &recordingWriter{started: make(chan struct{}, 8), release: make(chan struct{})}
}

func (w *recordingWriter) writeShort(data []byte) error {
	w.record(data)
	return nil
}

func (w *recordingWriter) writeLong(data []byte) error {
	if w.started != nil {
		w.started <- struct{}{}
	}
	if w.release != nil {
		<-w.release
	}
	w.record(data)
	return w.longErr
}

func (w *recordingWriter) record(data []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes = append(w.writes, data)
}

func (w *recordingWriter) recorded() [][]byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([][]byte(nil), w.writes...)
}

var sysexMessage = []byte{0xF0, 0x47, 0x7F, 0x29, 0x60, 0x00, 0x04, 0x41, 0x09, 0x07, 0x05, 0xF7}

func TestOutputQueueWritesShortMessagesInline(t *testing.T) {
	w := &recordingWriter{}
	q := newOutputQueue(w, outputQueueDepth, nil)
	defer q.close()

	require.NoError(t, q.send([]byte{0x90, 0x3C, 0x7F}))
	require.NoError(t, q.send([]byte{0xF8}))

	assert.Equal(t, [][]byte{{0x90, 0x3C, 0x7F}, {0xF8}}, w.recorded())
}

func TestOutputQueueDoesNotBlockOnLongMessages(t *testing.T) {
	w := newBlockingWriter()
	q := newOutputQueue(w, outputQueueDepth, nil)

	require.NoError(t, q.send(sysexMessage))
	<-w.started

	// The long write is still in flight, so this one must wait behind it.
	require.NoError(t, q.send([]byte{0x80, 0x3C, 0x00}))
	assert.Empty(t, w.recorded())

	close(w.release)
	q.close()
	assert.Equal(t, [][]byte{sysexMessage, {0x80, 0x3C, 0x00}}, w.recorded())
}

func TestOutputQueueCopiesQueuedData(t *testing.T) {
	w := newBlockingWriter()
	q := newOutputQueue(w, outputQueueDepth, nil)

	data := append([]byte(nil), sysexMessage...)
	require.NoError(t, q.send(data))
	data[1] = 0x00

	close(w.release)
	q.close()
	assert.Equal(t, [][]byte{sysexMessage}, w.recorded())
}

func TestOutputQueueFull(t *testing.T) {
	w := newBlockingWriter()
	q := newOutputQueue(w, 1, nil)

	require.NoError(t, q.send(sysexMessage))
	<-w.started
	require.NoError(t, q.send(sysexMessage))
	assert.ErrorIs(t, q.send(sysexMessage), errQueueFull)
	assert.ErrorIs(t, q.send([]byte{0x90, 0x3C, 0x7F}), errQueueFull)

	close(w.release)
	q.close()
	assert.Len(t, w.recorded(), 2)
}

func TestOutputQueueReportsWorkerErrors(t *testing.T) {
	w := &recordingWriter{longErr: errors.New("midiOutLongMsg returned 7")}
	var (
		mu   sync.Mutex
		errs []error
	)
	q := newOutputQueue(w, outputQueueDepth, func(err error) {
		mu.Lock()
		defer mu.Unlock()
		errs = append(errs, err)
	})

	require.NoError(t, q.send(sysexMessage))
	q.close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, errs, 1)
	assert.EqualError(t, errs[0], "midiOutLongMsg returned 7")
}

func TestOutputQueueRejectsSendAfterClose(t *testing.T) {
	q := newOutputQueue(&recordingWriter{}, outputQueueDepth, nil)
	q.close()
	q.close()

	assert.ErrorIs(t, q.send([]byte{0x90, 0x3C, 0x7F}), errQueueClosed)
}
