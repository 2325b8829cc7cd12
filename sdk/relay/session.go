package relay

import (
	"fmt"
	"sync"

	"github.com/leandrodaf/midirelay/sdk/contracts"
	"github.com/leandrodaf/midirelay/sdk/ports"
	"go.uber.org/multierr"
)

// Session owns the platform resources of one running relay: the input
// connection and, for virtual sessions, the virtual destination.
type Session struct {
	logger  contracts.Logger
	relay   *Relay
	monitor *Monitor
	source  contracts.Endpoint
	conn    contracts.Connection
	virtual contracts.Endpoint

	closeOnce sync.Once
	closeErr  error
}

// StartEcho connects the source named deviceName to a relay that sends
// everything back to the destination of the same name.
// Nothing is connected unless both endpoints resolve.
func StartEcho(t contracts.Transport, deviceName string, options contracts.ClientOptions, opts ...Option) (*Session, error) {
	source, err := ports.FindSource(t, deviceName)
	if err != nil {
		return nil, fmt.Errorf("MIDI input port not found: %w", err)
	}
	output, err := ports.FindDestination(t, deviceName)
	if err != nil {
		return nil, fmt.Errorf("MIDI output port not found: %w", err)
	}

	r, err := New(t, output, options, opts...)
	if err != nil {
		return nil, err
	}

	s := &Session{logger: options.Logger, relay: r, source: source}
	if err := s.connect(t); err != nil {
		return nil, err
	}
	return s, nil
}

// StartVirtual publishes a virtual destination named virtualName whose
// arrivals are logged by a Monitor, then relays the source named deviceName
// into it. The virtual destination is disposed again if any later step fails.
func StartVirtual(t contracts.Transport, deviceName, virtualName string, options contracts.ClientOptions, opts ...Option) (*Session, error) {
	monitor := NewMonitor(options.Logger, opts...)

	virtual, err := t.CreateVirtualDestination(virtualName, monitor.Handle)
	if err != nil {
		return nil, fmt.Errorf("error creating virtual destination: %w", err)
	}
	options.Logger.Info("Virtual MIDI destination created", options.Logger.Field().String("name", virtualName))

	s := &Session{logger: options.Logger, monitor: monitor, virtual: virtual}

	source, err := ports.FindSource(t, deviceName)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("MIDI input endpoint not found: %w", err), s.dispose())
	}
	s.source = source

	s.relay, err = New(t, virtual, options, opts...)
	if err != nil {
		return nil, multierr.Append(err, s.dispose())
	}

	if err := s.connect(t); err != nil {
		return nil, multierr.Append(err, s.dispose())
	}
	return s, nil
}

func (s *Session) connect(t contracts.Transport) error {
	if opener, ok := t.(contracts.OutputOpener); ok {
		if err := opener.OpenOutput(s.relay.Output()); err != nil {
			return fmt.Errorf("error opening MIDI output port: %w", err)
		}
	}

	conn, err := t.Connect(s.source, s.relay.Handle)
	if err != nil {
		return fmt.Errorf("error connecting MIDI input port to source: %w", err)
	}
	s.conn = conn
	s.logger.Info("Listening for MIDI input",
		s.logger.Field().String("source", s.source.Name()),
		s.logger.Field().String("destination", s.relay.Output().Name()))
	return nil
}

func (s *Session) dispose() error {
	if d, ok := s.virtual.(contracts.Disposer); ok {
		return d.Dispose()
	}
	return nil
}

// Relay returns the session's relay.
func (s *Session) Relay() *Relay {
	return s.relay
}

// Monitor returns the virtual destination monitor, or nil for echo sessions.
func (s *Session) Monitor() *Monitor {
	return s.monitor
}

// Close disconnects the source and disposes the virtual destination.
// It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.conn != nil {
			s.closeErr = multierr.Append(s.closeErr, s.conn.Disconnect())
		}
		s.closeErr = multierr.Append(s.closeErr, s.dispose())

		stats := s.relay.Stats()
		s.logger.Info("MIDI relay stopped",
			s.logger.Field().Uint64("forwarded", stats.Forwarded),
			s.logger.Field().Uint64("dropped", stats.Dropped))
	})
	return s.closeErr
}
