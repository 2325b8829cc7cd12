package relay_test

import (
	"errors"
	"testing"

	"github.com/leandrodaf/midirelay/internal/midi/miditest"
	"github.com/leandrodaf/midirelay/sdk/contracts"
	"github.com/leandrodaf/midirelay/sdk/ports"
	"github.com/leandrodaf/midirelay/sdk/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const virtualName = "Test Virtual Destination"

func TestStartEchoLoopsBackToDevice(t *testing.T) {
	tr := miditest.New()
	tr.AddDevice("Other")
	tr.AddDevice(device)
	options, _ := testOptions()

	s, err := relay.StartEcho(tr, device, options)
	require.NoError(t, err)
	assert.Equal(t, 1, tr.Connections())
	assert.Nil(t, s.Monitor())

	tr.Deliver(device, []byte{0x90, 0x30, 0x7F})
	sent := tr.SentPackets()
	require.Len(t, sent, 1)
	assert.Equal(t, device, sent[0].Destination)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Zero(t, tr.Connections())
	assert.Zero(t, tr.Deliver(device, []byte{0x90, 0x30, 0x00}))
}

func TestStartEchoMissingOutputMakesNoConnection(t *testing.T) {
	tr := miditest.New()
	tr.AddSource(device)
	options, _ := testOptions()

	s, err := relay.StartEcho(tr, device, options)
	require.ErrorIs(t, err, ports.ErrEndpointNotFound)
	assert.Nil(t, s)
	assert.Zero(t, tr.Connections())
}

func TestStartEchoUnknownDevice(t *testing.T) {
	tr := miditest.New()
	tr.AddDevice("Launchpad")
	options, _ := testOptions()

	_, err := relay.StartEcho(tr, device, options)
	require.ErrorIs(t, err, ports.ErrEndpointNotFound)
	assert.Zero(t, tr.Connections())
}

func TestStartEchoOpensOutputBeforeConnect(t *testing.T) {
	tr := miditest.New()
	tr.AddDevice(device)
	tr.RequireOpen = true
	options, _ := testOptions()

	s, err := relay.StartEcho(tr, device, options)
	require.NoError(t, err)
	assert.Equal(t, []string{device}, tr.Opened())

	tr.Deliver(device, []byte{0x90, 0x30, 0x7F})
	assert.Equal(t, relay.Stats{Forwarded: 1}, s.Relay().Stats())
	require.NoError(t, s.Close())
}

func TestStartEchoOpenOutputFailureMakesNoConnection(t *testing.T) {
	tr := miditest.New()
	tr.AddDevice(device)
	tr.OpenErr = errors.New("device busy")
	options, _ := testOptions()

	s, err := relay.StartEcho(tr, device, options)
	require.ErrorIs(t, err, tr.OpenErr)
	assert.Nil(t, s)
	assert.Zero(t, tr.Connections())
	assert.Empty(t, tr.Opened())
}

func TestStartVirtualRelaysIntoMonitor(t *testing.T) {
	tr := miditest.New()
	tr.AddSource(device)
	options, logs := testOptions()

	s, err := relay.StartVirtual(tr, device, virtualName, options)
	require.NoError(t, err)

	dests, err := tr.Destinations()
	require.NoError(t, err)
	require.Len(t, dests, 1)
	assert.True(t, dests[0].Info().Virtual)

	tr.Deliver(device, []byte{0x99, 0x24, 0x50})
	tr.Deliver(device, []byte{0x89, 0x24, 0x00})

	assert.EqualValues(t, 2, s.Monitor().Received())
	assert.Equal(t, relay.Stats{Forwarded: 2}, s.Relay().Stats())

	received := logs.FilterMessage("Received MIDI message").AllUntimed()
	require.Len(t, received, 2)
	assert.Equal(t, "99 24 50", received[0].ContextMap()["data"])
	assert.Equal(t, virtualName, received[0].ContextMap()["destination"])

	require.NoError(t, s.Close())
	dests, err = tr.Destinations()
	require.NoError(t, err)
	assert.Empty(t, dests)
}

func TestStartVirtualRollsBackWhenSourceMissing(t *testing.T) {
	tr := miditest.New()
	options, _ := testOptions()

	_, err := relay.StartVirtual(tr, device, virtualName, options)
	require.ErrorIs(t, err, ports.ErrEndpointNotFound)

	dests, err := tr.Destinations()
	require.NoError(t, err)
	assert.Empty(t, dests, "virtual destination must be disposed")
	assert.Zero(t, tr.Connections())
}

func TestStartVirtualRollsBackWhenConnectFails(t *testing.T) {
	tr := miditest.New()
	tr.AddSource(device)
	tr.ConnectErr = errors.New("port busy")
	options, _ := testOptions()

	_, err := relay.StartVirtual(tr, device, virtualName, options)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port busy")

	dests, err := tr.Destinations()
	require.NoError(t, err)
	assert.Empty(t, dests)
}

func TestStartVirtualRollsBackWhenOpenOutputFails(t *testing.T) {
	tr := miditest.New()
	tr.AddSource(device)
	tr.OpenErr = errors.New("no output port")
	options, _ := testOptions()

	_, err := relay.StartVirtual(tr, device, virtualName, options)
	require.ErrorIs(t, err, tr.OpenErr)

	dests, err := tr.Destinations()
	require.NoError(t, err)
	assert.Empty(t, dests, "virtual destination must be disposed")
	assert.Zero(t, tr.Connections())
}

func TestStartVirtualUnsupported(t *testing.T) {
	tr := miditest.New()
	tr.AddSource(device)
	tr.VirtualErr = contracts.ErrVirtualUnsupported
	options, _ := testOptions()

	_, err := relay.StartVirtual(tr, device, virtualName, options)
	assert.ErrorIs(t, err, contracts.ErrVirtualUnsupported)
	assert.Zero(t, tr.Connections())
}
