//go:build linux && cgo
// +build linux,cgo

package midilinux

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/leandrodaf/midirelay/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"go.uber.org/multierr"
)

var (
	ErrOpenDriver         = errors.New("error opening rtmidi driver")
	ErrVirtualOutNotFound = errors.New("no output port reaches the virtual destination")
)

type endpoint struct {
	kind contracts.EndpointKind
	info contracts.EndpointInfo
	in   drivers.In
	out  drivers.Out

	owner *Transport
	stop  func()
	once  sync.Once
}

func (e *endpoint) Name() string                 { return e.info.Name }
func (e *endpoint) Kind() contracts.EndpointKind { return e.kind }
func (e *endpoint) Info() contracts.EndpointInfo { return e.info }

// Dispose stops listening on a virtual destination and closes its port.
func (e *endpoint) Dispose() error {
	if !e.info.Virtual {
		return nil
	}
	var err error
	e.once.Do(func() {
		if e.stop != nil {
			e.stop()
		}
		err = e.in.Close()
		e.owner.mu.Lock()
		delete(e.owner.virtuals, e)
		e.owner.mu.Unlock()
	})
	return err
}

// Transport uses ALSA through rtmidi.
type Transport struct {
	logger contracts.Logger
	drv    *rtmididrv.Driver

	mu       sync.Mutex
	senders  map[string]func(midi.Message) error
	conns    map[*connection]struct{}
	virtuals map[*endpoint]struct{}
	closed   bool
}

// NewTransport opens the rtmidi driver.
func NewTransport(options *contracts.ClientOptions) (contracts.Transport, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenDriver, err)
	}
	options.Logger.Info("MIDI client created for ALSA")

	return &Transport{
		logger:   options.Logger,
		drv:      drv,
		senders:  make(map[string]func(midi.Message) error),
		conns:    make(map[*connection]struct{}),
		virtuals: make(map[*endpoint]struct{}),
	}, nil
}

func (t *Transport) Sources() ([]contracts.Endpoint, error) {
	ins, err := t.drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI inputs: %w", err)
	}
	endpoints := make([]contracts.Endpoint, len(ins))
	for i, in := range ins {
		endpoints[i] = &endpoint{
			kind:  contracts.SourceEndpoint,
			info:  contracts.EndpointInfo{Name: in.String(), EntityName: in.String()},
			in:    in,
			owner: t,
		}
	}
	return endpoints, nil
}

func (t *Transport) Destinations() ([]contracts.Endpoint, error) {
	outs, err := t.drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI outputs: %w", err)
	}
	endpoints := make([]contracts.Endpoint, len(outs))
	for i, out := range outs {
		endpoints[i] = &endpoint{
			kind:  contracts.DestinationEndpoint,
			info:  contracts.EndpointInfo{Name: out.String(), EntityName: out.String()},
			out:   out,
			owner: t,
		}
	}
	return endpoints, nil
}

type connection struct {
	owner *Transport
	in    drivers.In
	stop  func()
	once  sync.Once
}

func (c *connection) Disconnect() error {
	var err error
	c.once.Do(func() {
		c.stop()
		err = c.in.Close()
		c.owner.mu.Lock()
		delete(c.owner.conns, c)
		c.owner.mu.Unlock()
	})
	return err
}

func listen(in drivers.In, target contracts.Endpoint, handler contracts.PacketHandler) (func(), error) {
	return midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		handler(target, contracts.Packet{Data: msg, Timestamp: uint64(timestampms), Received: time.Now()})
	}, midi.UseSysEx())
}

func (t *Transport) Connect(source contracts.Endpoint, handler contracts.PacketHandler) (contracts.Connection, error) {
	src, ok := source.(*endpoint)
	if !ok || src.owner != t {
		return nil, contracts.ErrForeignEndpoint
	}
	if src.kind != contracts.SourceEndpoint {
		return nil, fmt.Errorf("%w: %s is a %s", contracts.ErrWrongEndpointKind, src.Name(), src.kind)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, contracts.ErrTransportClosed
	}

	stop, err := listen(src.in, src, handler)
	if err != nil {
		return nil, fmt.Errorf("failed to listen to MIDI input: %w", err)
	}
	c := &connection{owner: t, in: src.in, stop: stop}
	t.conns[c] = struct{}{}
	t.logger.Info("MIDI source connected", t.logger.Field().String("source", src.Name()))
	return c, nil
}

// CreateVirtualDestination opens a virtual ALSA input port that other
// applications can write to.
func (t *Transport) CreateVirtualDestination(name string, handler contracts.PacketHandler) (contracts.Endpoint, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, contracts.ErrTransportClosed
	}

	in, err := t.drv.OpenVirtualIn(name)
	if err != nil {
		return nil, fmt.Errorf("failed to create virtual MIDI input port '%s': %w", name, err)
	}
	e := &endpoint{
		kind:  contracts.DestinationEndpoint,
		info:  contracts.EndpointInfo{Name: name, EntityName: name, Virtual: true},
		in:    in,
		owner: t,
	}
	e.stop, err = listen(in, e, handler)
	if err != nil {
		_ = in.Close()
		return nil, fmt.Errorf("failed to listen on virtual MIDI input port '%s': %w", name, err)
	}
	t.virtuals[e] = struct{}{}
	return e, nil
}

func (t *Transport) Send(destination contracts.Endpoint, list *contracts.PacketList) error {
	dst, ok := destination.(*endpoint)
	if !ok || dst.owner != t || dst.kind != contracts.DestinationEndpoint {
		return contracts.ErrForeignEndpoint
	}

	send, err := t.sender(dst)
	if err != nil {
		return fmt.Errorf("%w: %v", contracts.ErrSendFailed, err)
	}
	for _, p := range list.Packets() {
		if err := send(midi.Message(p.Data)); err != nil {
			return fmt.Errorf("%w: %v", contracts.ErrSendFailed, err)
		}
	}
	return nil
}

// OpenOutput opens the ALSA port behind destination ahead of the first Send.
func (t *Transport) OpenOutput(destination contracts.Endpoint) error {
	dst, ok := destination.(*endpoint)
	if !ok || dst.owner != t || dst.kind != contracts.DestinationEndpoint {
		return contracts.ErrForeignEndpoint
	}
	_, err := t.sender(dst)
	return err
}

// sender returns a cached send function. A virtual destination is reached
// through the output port ALSA lists for it.
func (t *Transport) sender(dst *endpoint) (func(midi.Message) error, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, contracts.ErrTransportClosed
	}
	if send, ok := t.senders[dst.Name()]; ok {
		return send, nil
	}

	out := dst.out
	if out == nil {
		outs, err := t.drv.Outs()
		if err != nil {
			return nil, err
		}
		for _, o := range outs {
			if strings.Contains(o.String(), dst.Name()) {
				out = o
				break
			}
		}
		if out == nil {
			return nil, fmt.Errorf("%w: %s", ErrVirtualOutNotFound, dst.Name())
		}
	}

	send, err := midi.SendTo(out)
	if err != nil {
		return nil, err
	}
	t.senders[dst.Name()] = send
	return send, nil
}

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
	virtuals := make([]*endpoint, 0, len(t.virtuals))
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
	err = multierr.Append(err, t.drv.Close())
	t.logger.Info("MIDI client closed")
	return err
}
