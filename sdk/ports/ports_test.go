package ports

import (
	"bytes"
	"errors"
	"testing"

	"github.com/leandrodaf/midirelay/internal/midi/miditest"
	"github.com/leandrodaf/midirelay/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindSourceAndDestination(t *testing.T) {
	tr := miditest.New()
	tr.AddDevice("IAC Driver Bus 1")
	tr.AddDevice("APC Key 25")

	src, err := FindSource(tr, "APC Key 25")
	require.NoError(t, err)
	assert.Equal(t, contracts.SourceEndpoint, src.Kind())

	dst, err := FindDestination(tr, "APC Key 25")
	require.NoError(t, err)
	assert.Equal(t, contracts.DestinationEndpoint, dst.Kind())
}

func TestFindRequiresExactName(t *testing.T) {
	tr := miditest.New()
	tr.AddDevice("APC Key 25 mk2")

	_, err := FindSource(tr, "APC Key 25")
	require.ErrorIs(t, err, ErrEndpointNotFound)
	assert.Contains(t, err.Error(), `"APC Key 25"`)
	assert.Zero(t, tr.Connections())
}

func TestFindPropagatesListErrors(t *testing.T) {
	tr := miditest.New()
	tr.ListErr = errors.New("server unavailable")

	_, err := FindDestination(tr, "x")
	require.ErrorIs(t, err, tr.ListErr)
	assert.NotErrorIs(t, err, ErrEndpointNotFound)
}

func TestListPorts(t *testing.T) {
	tr := miditest.New()
	tr.AddSource("APC Key 25")
	tr.AddDestination("APC Key 25")
	tr.AddDestination("IAC Driver Bus 1")

	var buf bytes.Buffer
	require.NoError(t, ListPorts(tr, &buf))
	assert.Equal(t, "Available MIDI Input Ports:\n0: APC Key 25\n"+
		"Available MIDI Output Ports:\n0: APC Key 25\n1: IAC Driver Bus 1\n", buf.String())
}
