package mididarwin

import (
	"fmt"

	"github.com/leandrodaf/midirelay/sdk/contracts"
)

// maxPacketData is the most go-coremidi's Packet.Send can carry: it builds its
// packet list on the stack around a single 256 byte MIDIPacket.
const maxPacketData = 256

// packetChunks splits data into pieces that fit one CoreMIDI packet.
// Only system exclusive may span packets; any other oversized payload fails.
func packetChunks(data []byte) ([][]byte, error) {
	if len(data) <= maxPacketData {
		return [][]byte{data}, nil
	}
	if data[0] != 0xF0 {
		return nil, fmt.Errorf("%w: %d byte packet exceeds %d bytes and is not system exclusive",
			contracts.ErrSendFailed, len(data), maxPacketData)
	}

	chunks := make([][]byte, 0, (len(data)+maxPacketData-1)/maxPacketData)
	for len(data) > maxPacketData {
		chunks = append(chunks, data[:maxPacketData])
		data = data[maxPacketData:]
	}
	return append(chunks, data), nil
}
