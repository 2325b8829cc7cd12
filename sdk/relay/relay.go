// Package relay forwards MIDI packets from a connected source to a fixed
// destination and logs the receive-to-send latency of every packet.
package relay

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/leandrodaf/midirelay/sdk/contracts"
)

var (
	ErrNilTransport      = errors.New("relay requires a transport")
	ErrInvalidOutput     = errors.New("relay output must be a destination endpoint")
	ErrInvalidBufferSize = errors.New("packet list capacity must be positive")
	ErrNilLogger         = errors.New("relay requires a logger")
)

// Option customizes a Relay or Monitor.
type Option func(*settings)

type settings struct {
	now     func() time.Time
	observe func(LatencySample)
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		s.now = now
	}
}

// WithObserver registers fn to receive the latency sample of every forwarded packet.
// fn runs on the driver callback goroutine.
func WithObserver(fn func(LatencySample)) Option {
	return func(s *settings) {
		s.observe = fn
	}
}

func applySettings(opts []Option) settings {
	s := settings{now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// receivedAt is the instant the transport stamped at callback entry, or the
// clock when the packet carries none.
func (s settings) receivedAt(packet contracts.Packet) time.Time {
	if !packet.Received.IsZero() {
		return packet.Received
	}
	return s.now()
}

// Stats counts packets handled by a Relay.
type Stats struct {
	Forwarded uint64
	Dropped   uint64
}

// Relay is a stateless per-packet passthrough. The transport and output endpoint
// are fixed at construction and only read afterwards, so Handle may be called
// from the driver's callback goroutine without locking.
type Relay struct {
	transport contracts.Transport
	output    contracts.Endpoint
	logger    contracts.Logger
	capacity  int
	settings  settings

	forwarded atomic.Uint64
	dropped   atomic.Uint64
}

// New creates a Relay sending to output through t.
func New(t contracts.Transport, output contracts.Endpoint, options contracts.ClientOptions, opts ...Option) (*Relay, error) {
	if t == nil {
		return nil, ErrNilTransport
	}
	if output == nil || output.Kind() != contracts.DestinationEndpoint {
		return nil, ErrInvalidOutput
	}
	if options.PacketListCapacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBufferSize, options.PacketListCapacity)
	}
	if options.Logger == nil {
		return nil, ErrNilLogger
	}

	return &Relay{
		transport: t,
		output:    output,
		logger:    options.Logger,
		capacity:  options.PacketListCapacity,
		settings:  applySettings(opts),
	}, nil
}

// Output returns the destination packets are forwarded to.
func (r *Relay) Output() contracts.Endpoint {
	return r.output
}

// Handle forwards one packet. It matches contracts.PacketHandler.
// Failures drop the packet and are logged; they never stop the relay.
func (r *Relay) Handle(source contracts.Endpoint, packet contracts.Packet) {
	received := r.settings.receivedAt(packet)

	list := contracts.NewPacketList(r.capacity)
	if err := list.Add(0, packet.Data); err != nil {
		r.dropped.Add(1)
		r.logger.Error("Error creating MIDI packet list",
			r.logger.Field().String("source", endpointName(source)),
			r.logger.Field().Int("length", len(packet.Data)),
			r.logger.Field().Error("error", err))
		return
	}

	if err := r.transport.Send(r.output, list); err != nil {
		r.dropped.Add(1)
		r.logger.Error("Error sending MIDI message",
			r.logger.Field().String("destination", r.output.Name()),
			r.logger.Field().String("data", FormatHex(packet.Data)),
			r.logger.Field().Error("error", err))
		return
	}

	sample := LatencySample{Received: received, Sent: r.settings.now()}
	r.forwarded.Add(1)

	r.logger.Info("Forwarded MIDI message",
		r.logger.Field().String("source", endpointName(source)),
		r.logger.Field().String("destination", r.output.Name()),
		r.logger.Field().String("data", FormatHex(packet.Data)),
		r.logger.Field().Uint64("driverTimestamp", packet.Timestamp),
		r.logger.Field().Int64("receivedMs", sample.Received.UnixMilli()),
		r.logger.Field().Int64("sentMs", sample.Sent.UnixMilli()),
		r.logger.Field().Float64("elapsedMs", sample.ElapsedMillis()))

	if r.settings.observe != nil {
		r.settings.observe(sample)
	}
}

// Stats returns the packet counters.
func (r *Relay) Stats() Stats {
	return Stats{Forwarded: r.forwarded.Load(), Dropped: r.dropped.Load()}
}

func endpointName(e contracts.Endpoint) string {
	if e == nil {
		return ""
	}
	return e.Name()
}
