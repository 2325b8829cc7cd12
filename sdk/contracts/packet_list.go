package contracts

import (
	"errors"
	"fmt"
)

// Sizes of the platform packet list layout: a packet count followed by packets
// that each carry a timestamp and a length ahead of their payload.
const (
	PacketListHeaderSize = 4
	PacketHeaderSize     = 10
)

var (
	ErrPacketListFull = errors.New("packet list capacity exceeded")
	ErrEmptyPacket    = errors.New("empty MIDI packet")
)

// OutboundPacket is one entry of a PacketList.
type OutboundPacket struct {
	Timestamp uint64
	Data      []byte
}

// PacketList is a fixed-capacity batch of outbound packets. Added data is
// copied, so callers may reuse their buffers once Add returns.
type PacketList struct {
	capacity int
	used     int
	packets  []OutboundPacket
}

// NewPacketList returns an empty list that holds at most capacity bytes,
// headers included.
func NewPacketList(capacity int) *PacketList {
	return &PacketList{capacity: capacity, used: PacketListHeaderSize}
}

// Add appends a copy of data. A timestamp of 0 means "send now".
func (l *PacketList) Add(timestamp uint64, data []byte) error {
	if len(data) == 0 {
		return ErrEmptyPacket
	}
	need := PacketHeaderSize + len(data)
	if l.used+need > l.capacity {
		return fmt.Errorf("%w: %d bytes needed, %d of %d available", ErrPacketListFull, need, l.capacity-l.used, l.capacity)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	l.packets = append(l.packets, OutboundPacket{Timestamp: timestamp, Data: buf})
	l.used += need
	return nil
}

// Packets returns the packets in insertion order.
func (l *PacketList) Packets() []OutboundPacket {
	return l.packets
}

// Len returns the number of packets.
func (l *PacketList) Len() int {
	return len(l.packets)
}

// Size returns the bytes consumed so far, headers included.
func (l *PacketList) Size() int {
	return l.used
}

// Capacity returns the total capacity in bytes.
func (l *PacketList) Capacity() int {
	return l.capacity
}
