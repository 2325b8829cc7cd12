//go:build darwin && cgo
// +build darwin,cgo

package mididarwin

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/midirelay/sdk/contracts"
	"github.com/youpy/go-coremidi"
	"go.uber.org/multierr"
)

// Error definitions for CoreMIDI setup issues.
var (
	ErrCreateClient      = errors.New("error creating MIDI client")
	ErrCreateInputPort   = errors.New("error creating MIDI input port")
	ErrCreateOutputPort  = errors.New("error creating MIDI output port")
	ErrCreateDestination = errors.New("error creating virtual destination")
	ErrConnectSource     = errors.New("error connecting MIDI input port")
)

// internalPortConnection is an interface for handling disconnection from a MIDI port.
type internalPortConnection interface {
	Disconnect()
}

type sourceEndpoint struct {
	source coremidi.Source
	info   contracts.EndpointInfo
}

func (e *sourceEndpoint) Name() string                 { return e.info.Name }
func (e *sourceEndpoint) Kind() contracts.EndpointKind { return contracts.SourceEndpoint }
func (e *sourceEndpoint) Info() contracts.EndpointInfo { return e.info }

type destinationEndpoint struct {
	destination coremidi.Destination
	info        contracts.EndpointInfo
	owner       *Transport
	disposeOnce sync.Once
}

func (e *destinationEndpoint) Name() string                 { return e.info.Name }
func (e *destinationEndpoint) Kind() contracts.EndpointKind { return contracts.DestinationEndpoint }
func (e *destinationEndpoint) Info() contracts.EndpointInfo { return e.info }

// Dispose removes a virtual destination from the MIDI graph. It is a no-op for
// destinations this process did not create.
func (e *destinationEndpoint) Dispose() error {
	if !e.info.Virtual {
		return nil
	}
	e.disposeOnce.Do(func() {
		e.destination.Dispose()
		if e.owner != nil {
			e.owner.forgetVirtual(e)
		}
	})
	return nil
}

// Transport talks to CoreMIDI. One client and one output port live for the
// transport's lifetime; each Connect creates its own input port.
type Transport struct {
	logger     contracts.Logger
	config     contracts.CoreMIDIConfig
	client     coremidi.Client
	outputPort coremidi.OutputPort

	mu       sync.Mutex
	conns    map[*connection]struct{}
	virtuals map[*destinationEndpoint]struct{}
	closed   bool
}

// NewTransport creates the CoreMIDI client and its output port.
func NewTransport(options *contracts.ClientOptions) (contracts.Transport, error) {
	client, err := coremidi.NewClient(options.CoreMIDIConfig.ClientName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateClient, err)
	}
	options.Logger.Info("MIDI client successfully created",
		options.Logger.Field().String("client", options.CoreMIDIConfig.ClientName))

	outputPort, err := coremidi.NewOutputPort(client, options.CoreMIDIConfig.OutputPortName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateOutputPort, err)
	}

	return &Transport{
		logger:     options.Logger,
		config:     *options.CoreMIDIConfig,
		client:     client,
		outputPort: outputPort,
		conns:      make(map[*connection]struct{}),
		virtuals:   make(map[*destinationEndpoint]struct{}),
	}, nil
}

// Sources lists every CoreMIDI source.
func (t *Transport) Sources() ([]contracts.Endpoint, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI sources: %w", err)
	}

	endpoints := make([]contracts.Endpoint, len(sources))
	for i, source := range sources {
		entity := source.Entity()
		endpoints[i] = &sourceEndpoint{
			source: source,
			info: contracts.EndpointInfo{
				Name:         source.Name(),
				EntityName:   entity.Name(),
				Manufacturer: entity.Manufacturer(),
			},
		}
	}
	return endpoints, nil
}

// Destinations lists every CoreMIDI destination, virtual ones included.
func (t *Transport) Destinations() ([]contracts.Endpoint, error) {
	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI destinations: %w", err)
	}

	endpoints := make([]contracts.Endpoint, len(destinations))
	for i, destination := range destinations {
		endpoints[i] = &destinationEndpoint{
			destination: destination,
			info:        contracts.EndpointInfo{Name: destination.Name()},
		}
	}
	return endpoints, nil
}

type connection struct {
	owner *Transport
	port  coremidi.InputPort
	conn  internalPortConnection
	once  sync.Once
}

func (c *connection) Disconnect() error {
	c.once.Do(func() {
		c.conn.Disconnect()
		c.owner.mu.Lock()
		delete(c.owner.conns, c)
		c.owner.mu.Unlock()
	})
	return nil
}

// Connect creates an input port whose read proc hands every packet to handler.
// CoreMIDI calls the read proc on its own high-priority thread.
func (t *Transport) Connect(source contracts.Endpoint, handler contracts.PacketHandler) (contracts.Connection, error) {
	src, ok := source.(*sourceEndpoint)
	if !ok {
		if source != nil && source.Kind() != contracts.SourceEndpoint {
			return nil, fmt.Errorf("%w: %s is a %s", contracts.ErrWrongEndpointKind, source.Name(), source.Kind())
		}
		return nil, contracts.ErrForeignEndpoint
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, contracts.ErrTransportClosed
	}

	port, err := coremidi.NewInputPort(t.client, t.config.InputPortName, func(_ coremidi.Source, packet coremidi.Packet) {
		handler(src, contracts.Packet{Data: packet.Data, Timestamp: packet.TimeStamp, Received: time.Now()})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateInputPort, err)
	}

	portConn, err := port.Connect(src.source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectSource, err)
	}

	c := &connection{owner: t, port: port, conn: portConn}
	t.conns[c] = struct{}{}
	t.logger.Info("MIDI source connected", t.logger.Field().String("source", src.Name()))
	return c, nil
}

// CreateVirtualDestination publishes a destination other MIDI applications can
// send to. Packets arriving there are passed to handler.
func (t *Transport) CreateVirtualDestination(name string, handler contracts.PacketHandler) (contracts.Endpoint, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, contracts.ErrTransportClosed
	}

	endpoint := &destinationEndpoint{
		info:  contracts.EndpointInfo{Name: name, EntityName: name, Virtual: true},
		owner: t,
	}
	destination, err := coremidi.NewDestination(t.client, name, func(packet coremidi.Packet) {
		handler(endpoint, contracts.Packet{Data: packet.Data, Timestamp: packet.TimeStamp, Received: time.Now()})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateDestination, err)
	}
	endpoint.destination = destination
	t.virtuals[endpoint] = struct{}{}
	return endpoint, nil
}

func (t *Transport) forgetVirtual(e *destinationEndpoint) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.virtuals, e)
}

// Send hands each packet of list to MIDISend through the transport's output port.
// Payloads larger than one CoreMIDI packet go out as consecutive chunks.
func (t *Transport) Send(destination contracts.Endpoint, list *contracts.PacketList) error {
	dst, ok := destination.(*destinationEndpoint)
	if !ok {
		return contracts.ErrForeignEndpoint
	}

	for _, p := range list.Packets() {
		chunks, err := packetChunks(p.Data)
		if err != nil {
			return err
		}
		for _, chunk := range chunks {
			packet := coremidi.Packet{Data: chunk, TimeStamp: p.Timestamp}
			if err := packet.Send(&t.outputPort, &dst.destination); err != nil {
				return fmt.Errorf("%w: %v", contracts.ErrSendFailed, err)
			}
		}
	}
	return nil
}

// Close disconnects every source and disposes virtual destinations.
// CoreMIDI releases the client itself when the process exits.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	conns := make([]*connection, 0, len(t.conns))
	for c := range t.conns {
		conns = append(conns, c)
	}
	virtuals := make([]*destinationEndpoint, 0, len(t.virtuals))
	for v := range t.virtuals {
		virtuals = append(virtuals, v)
	}
	t.mu.Unlock()

	var err error
	for _, c := range conns {
		err = multierr.Append(err, c.Disconnect())
	}
	for _, v := range virtuals {
		err = multierr.Append(err, v.Dispose())
	}
	t.logger.Info("MIDI client closed")
	return err
}
