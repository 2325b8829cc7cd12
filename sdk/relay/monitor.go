package relay

import (
	"sync/atomic"

	"github.com/leandrodaf/midirelay/sdk/contracts"
)

// Monitor logs every packet arriving at a destination it handles, typically a
// virtual destination fed by a Relay.
type Monitor struct {
	logger   contracts.Logger
	settings settings
	received atomic.Uint64
}

// NewMonitor creates a Monitor logging through logger.
func NewMonitor(logger contracts.Logger, opts ...Option) *Monitor {
	return &Monitor{logger: logger, settings: applySettings(opts)}
}

// Handle logs the arrival time in epoch milliseconds and the packet bytes.
func (m *Monitor) Handle(destination contracts.Endpoint, packet contracts.Packet) {
	received := m.settings.receivedAt(packet)
	m.received.Add(1)
	m.logger.Info("Received MIDI message",
		m.logger.Field().String("destination", endpointName(destination)),
		m.logger.Field().Int64("receivedMs", received.UnixMilli()),
		m.logger.Field().String("data", FormatHex(packet.Data)))
}

// Received returns the number of packets seen.
func (m *Monitor) Received() uint64 {
	return m.received.Load()
}
