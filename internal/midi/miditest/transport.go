// Package miditest provides an in-memory contracts.Transport for tests.
package miditest

import (
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/midirelay/sdk/contracts"
)

// Endpoint is the endpoint type produced by Transport.
type Endpoint struct {
	name     string
	kind     contracts.EndpointKind
	virtual  bool
	disposed bool
	owner    *Transport
}

func (e *Endpoint) Name() string                 { return e.name }
func (e *Endpoint) Kind() contracts.EndpointKind { return e.kind }

func (e *Endpoint) Info() contracts.EndpointInfo {
	return contracts.EndpointInfo{Name: e.name, Manufacturer: "miditest", EntityName: e.name, Virtual: e.virtual}
}

// Dispose removes a virtual destination from the transport.
func (e *Endpoint) Dispose() error {
	e.owner.mu.Lock()
	defer e.owner.mu.Unlock()
	if e.disposed {
		return nil
	}
	e.disposed = true
	for i, d := range e.owner.destinations {
		if d == e {
			e.owner.destinations = append(e.owner.destinations[:i], e.owner.destinations[i+1:]...)
			break
		}
	}
	delete(e.owner.virtualHandlers, e)
	return nil
}

// Sent records one packet passed to Send.
type Sent struct {
	Destination string
	Data        []byte
}

// Transport is a thread-safe fake. Packets are delivered synchronously by Deliver.
type Transport struct {
	mu              sync.Mutex
	sources         []*Endpoint
	destinations    []*Endpoint
	handlers        map[*Endpoint][]contracts.PacketHandler
	virtualHandlers map[*Endpoint]contracts.PacketHandler
	sent            []Sent
	opened          []string
	closed          bool

	// SendErr, when set, decides the result of each Send call.
	SendErr func(destination contracts.Endpoint, list *contracts.PacketList) error
	// ListErr, when set, is returned by Sources and Destinations.
	ListErr error
	// ConnectErr, when set, is returned by Connect.
	ConnectErr error
	// VirtualErr, when set, is returned by CreateVirtualDestination.
	VirtualErr error
	// OpenErr, when set, is returned by OpenOutput.
	OpenErr error
	// RequireOpen makes Send fail for destinations OpenOutput has not seen,
	// the way winmm needs an open output handle.
	RequireOpen bool
}

// New returns an empty fake transport.
func New() *Transport {
	return &Transport{
		handlers:        make(map[*Endpoint][]contracts.PacketHandler),
		virtualHandlers: make(map[*Endpoint]contracts.PacketHandler),
	}
}

// AddDevice registers a source and a destination with the same name, the way
// a bidirectional controller shows up.
func (t *Transport) AddDevice(name string) {
	t.AddSource(name)
	t.AddDestination(name)
}

// AddSource registers a source endpoint.
func (t *Transport) AddSource(name string) *Endpoint {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := &Endpoint{name: name, kind: contracts.SourceEndpoint, owner: t}
	t.sources = append(t.sources, e)
	return e
}

// AddDestination registers a destination endpoint.
func (t *Transport) AddDestination(name string) *Endpoint {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := &Endpoint{name: name, kind: contracts.DestinationEndpoint, owner: t}
	t.destinations = append(t.destinations, e)
	return e
}

func (t *Transport) Sources() ([]contracts.Endpoint, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ListErr != nil {
		return nil, t.ListErr
	}
	out := make([]contracts.Endpoint, len(t.sources))
	for i, e := range t.sources {
		out[i] = e
	}
	return out, nil
}

func (t *Transport) Destinations() ([]contracts.Endpoint, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ListErr != nil {
		return nil, t.ListErr
	}
	out := make([]contracts.Endpoint, len(t.destinations))
	for i, e := range t.destinations {
		out[i] = e
	}
	return out, nil
}

type connection struct {
	t      *Transport
	source *Endpoint
	once   sync.Once
}

func (c *connection) Disconnect() error {
	c.once.Do(func() {
		c.t.mu.Lock()
		defer c.t.mu.Unlock()
		delete(c.t.handlers, c.source)
	})
	return nil
}

func (t *Transport) Connect(source contracts.Endpoint, handler contracts.PacketHandler) (contracts.Connection, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, contracts.ErrTransportClosed
	}
	if t.ConnectErr != nil {
		return nil, t.ConnectErr
	}
	e, ok := source.(*Endpoint)
	if !ok || e.owner != t {
		return nil, contracts.ErrForeignEndpoint
	}
	if e.kind != contracts.SourceEndpoint {
		return nil, fmt.Errorf("%w: %s is a %s", contracts.ErrWrongEndpointKind, e.name, e.kind)
	}
	t.handlers[e] = append(t.handlers[e], handler)
	return &connection{t: t, source: e}, nil
}

func (t *Transport) CreateVirtualDestination(name string, handler contracts.PacketHandler) (contracts.Endpoint, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.VirtualErr != nil {
		return nil, t.VirtualErr
	}
	e := &Endpoint{name: name, kind: contracts.DestinationEndpoint, virtual: true, owner: t}
	t.destinations = append(t.destinations, e)
	t.virtualHandlers[e] = handler
	return e, nil
}

// OpenOutput records destination as opened.
func (t *Transport) OpenOutput(destination contracts.Endpoint) error {
	e, ok := destination.(*Endpoint)
	if !ok || e.owner != t {
		return contracts.ErrForeignEndpoint
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.OpenErr != nil {
		return t.OpenErr
	}
	if len(t.handlers) > 0 {
		return fmt.Errorf("output %s opened after a source was connected", e.name)
	}
	t.opened = append(t.opened, e.name)
	return nil
}

func (t *Transport) isOpen(name string) bool {
	for _, o := range t.opened {
		if o == name {
			return true
		}
	}
	return false
}

// Send records every packet in list. Packets sent to a virtual destination
// are also delivered to its handler, as the platform would.
func (t *Transport) Send(destination contracts.Endpoint, list *contracts.PacketList) error {
	e, ok := destination.(*Endpoint)
	if !ok || e.owner != t {
		return contracts.ErrForeignEndpoint
	}
	if t.SendErr != nil {
		if err := t.SendErr(destination, list); err != nil {
			return fmt.Errorf("%w: %v", contracts.ErrSendFailed, err)
		}
	}

	t.mu.Lock()
	if t.RequireOpen && !t.isOpen(e.name) {
		t.mu.Unlock()
		return fmt.Errorf("%w: output %s is not open", contracts.ErrSendFailed, e.name)
	}
	for _, p := range list.Packets() {
		t.sent = append(t.sent, Sent{Destination: e.name, Data: append([]byte(nil), p.Data...)})
	}
	handler := t.virtualHandlers[e]
	t.mu.Unlock()

	if handler != nil {
		for _, p := range list.Packets() {
			handler(e, contracts.Packet{Data: p.Data, Timestamp: p.Timestamp, Received: time.Now()})
		}
	}
	return nil
}

func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.handlers = make(map[*Endpoint][]contracts.PacketHandler)
	return nil
}

// Deliver hands data to every handler connected to the named source, as the
// driver callback would. It returns the number of handlers invoked.
func (t *Transport) Deliver(source string, data []byte) int {
	t.mu.Lock()
	var target *Endpoint
	for _, e := range t.sources {
		if e.name == source {
			target = e
			break
		}
	}
	handlers := append([]contracts.PacketHandler(nil), t.handlers[target]...)
	t.mu.Unlock()

	packet := contracts.Packet{Data: data, Received: time.Now()}
	for _, h := range handlers {
		h(target, packet)
	}
	return len(handlers)
}

// Opened returns the names passed to OpenOutput, in call order.
func (t *Transport) Opened() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.opened...)
}

// SentPackets returns a copy of everything sent so far.
func (t *Transport) SentPackets() []Sent {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Sent(nil), t.sent...)
}

// Connections returns the number of live connections.
func (t *Transport) Connections() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, hs := range t.handlers {
		n += len(hs)
	}
	return n
}

// Closed reports whether Close was called.
func (t *Transport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
