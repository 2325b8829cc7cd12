package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/leandrodaf/midirelay/internal/midi/miditest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPrintsPortDetails(t *testing.T) {
	tr := miditest.New()
	tr.AddDevice("APC Key 25")

	var out bytes.Buffer
	require.NoError(t, run(tr, &out))

	assert.Contains(t, out.String(), "Available MIDI Input Ports:\n0: APC Key 25\n")
	assert.Contains(t, out.String(), "Available MIDI Output Ports:\n0: APC Key 25\n")
	assert.Contains(t, out.String(), "Input Port Details:\n0: APC Key 25 manufacturer=\"miditest\" entity=\"APC Key 25\"\n")
}

func TestRunReturnsListingFailure(t *testing.T) {
	tr := miditest.New()
	tr.ListErr = errors.New("MIDIGetNumberOfSources failed")

	var out bytes.Buffer
	err := run(tr, &out)
	require.ErrorIs(t, err, tr.ListErr)
	assert.NotContains(t, out.String(), "Input Port Details:")
}
