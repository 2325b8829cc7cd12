package mididarwin

import (
	"bytes"
	"testing"

	"github.com/leandrodaf/midirelay/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sysex(n int) []byte {
	data := bytes.Repeat([]byte{0x11}, n)
	data[0], data[n-1] = 0xF0, 0xF7
	return data
}

func TestPacketChunks(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		sizes   []int
		wantErr bool
	}{
		{name: "note on", data: []byte{0x90, 0x3C, 0x7F}, sizes: []int{3}},
		{name: "single byte", data: []byte{0xF8}, sizes: []int{1}},
		{name: "exactly one packet", data: sysex(256), sizes: []int{256}},
		{name: "one byte over", data: sysex(257), sizes: []int{256, 1}},
		{name: "long sysex", data: sysex(602), sizes: []int{256, 256, 90}},
		{name: "largest forwardable", data: sysex(1010), sizes: []int{256, 256, 256, 242}},
		{name: "oversized channel data", data: bytes.Repeat([]byte{0x90, 0x3C, 0x7F}, 100), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := packetChunks(tt.data)
			if tt.wantErr {
				require.ErrorIs(t, err, contracts.ErrSendFailed)
				assert.Nil(t, chunks)
				return
			}
			require.NoError(t, err)

			sizes := make([]int, len(chunks))
			for i, c := range chunks {
				sizes[i] = len(c)
				assert.LessOrEqual(t, len(c), maxPacketData)
			}
			assert.Equal(t, tt.sizes, sizes)
			assert.Equal(t, tt.data, bytes.Join(chunks, nil))
		})
	}
}
