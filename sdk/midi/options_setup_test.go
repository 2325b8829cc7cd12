package midi

import (
	"testing"

	"github.com/leandrodaf/midirelay/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaultOptions(t *testing.T) {
	opts, err := ApplyDefaultOptions()
	require.NoError(t, err)
	assert.NotNil(t, opts.Logger)
	assert.Equal(t, contracts.DefaultPacketListCapacity, opts.PacketListCapacity)
	assert.Equal(t, "CoreMIDI Test Client", opts.CoreMIDIConfig.ClientName)
	assert.Equal(t, "Input Port", opts.CoreMIDIConfig.InputPortName)
	assert.Equal(t, "Output Port", opts.CoreMIDIConfig.OutputPortName)

	opts, err = ApplyDefaultOptions(
		contracts.WithPacketListCapacity(256),
		contracts.WithCoreMIDIConfig(contracts.CoreMIDIConfig{ClientName: "relay"}),
	)
	require.NoError(t, err)
	assert.Equal(t, 256, opts.PacketListCapacity)
	assert.Equal(t, "relay", opts.CoreMIDIConfig.ClientName)
	assert.Equal(t, "Output Port", opts.CoreMIDIConfig.OutputPortName)
}
