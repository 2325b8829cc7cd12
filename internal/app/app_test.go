package app

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/leandrodaf/midirelay/internal/logger"
	"github.com/leandrodaf/midirelay/internal/midi/miditest"
	"github.com/leandrodaf/midirelay/sdk/contracts"
	"github.com/leandrodaf/midirelay/sdk/ports"
	"github.com/leandrodaf/midirelay/sdk/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const device = "APC Key 25"

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func options() contracts.ClientOptions {
	return contracts.ClientOptions{
		Logger:             logger.NewFromZap(zap.NewNop()),
		PacketListCapacity: contracts.DefaultPacketListCapacity,
	}
}

func echo(t contracts.Transport, o contracts.ClientOptions) (*relay.Session, error) {
	return relay.StartEcho(t, device, o)
}

func TestServeRelaysUntilCancelled(t *testing.T) {
	tr := miditest.New()
	tr.AddDevice(device)
	ctx, cancel := context.WithCancel(context.Background())
	out := &syncBuffer{}

	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, tr, options(), out, "echo test", echo)
	}()

	require.Eventually(t, func() bool { return tr.Connections() == 1 }, time.Second, time.Millisecond)
	tr.Deliver(device, []byte{0x90, 0x40, 0x7F})
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	assert.Len(t, tr.SentPackets(), 1)
	assert.Zero(t, tr.Connections())
	assert.Contains(t, out.String(), "echo test\nAvailable MIDI Input Ports:\n0: APC Key 25\n")
	assert.Contains(t, out.String(), "Press Ctrl+C to exit.")
}

func TestServeFailsWithoutDevice(t *testing.T) {
	tr := miditest.New()
	tr.AddSource(device)

	err := Serve(context.Background(), tr, options(), &syncBuffer{}, "echo test", echo)
	require.ErrorIs(t, err, ports.ErrEndpointNotFound)
	assert.Zero(t, tr.Connections())
}
