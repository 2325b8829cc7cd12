//go:build windows
// +build windows

package midiwindows

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"
	"unsafe"

	"github.com/leandrodaf/midirelay/sdk/contracts"
	"go.uber.org/multierr"
	"golang.org/x/sys/windows"
)

// Type definitions for MIDI handles
type (
	HMIDIIN  windows.Handle
	HMIDIOUT windows.Handle
)

// Constants for open flags
const (
	CALLBACK_NULL     = 0x00000000 // No callback
	CALLBACK_FUNCTION = 0x00030000 // Indicates that the callback is a function
	MIDI_IO_STATUS    = 0x00000020 // MIDI input/output status
)

// Constants for MIDI input message types
const (
	MIM_OPEN      = 0x3C1 // MIDI device opened
	MIM_CLOSE     = 0x3C2 // MIDI device closed
	MIM_DATA      = 0x3C3 // MIDI data received
	MIM_LONGDATA  = 0x3C4 // System exclusive buffer filled
	MIM_ERROR     = 0x3C5 // MIDI error
	MIM_LONGERROR = 0x3C6 // Long MIDI error
	MIM_MOREDATA  = 0x3CC // More MIDI data available
)

const (
	MHDR_DONE        = 0x00000001
	MMSYSERR_NOERROR = 0
	longMsgPoll      = time.Millisecond
	longMsgTimeout   = 2 * time.Second
)

var errLongMsgTimeout = errors.New("timed out waiting for system exclusive send to complete")

// Struct representing MIDI input device capabilities
type midiInCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	dwSupport      uint32
}

// Struct representing MIDI output device capabilities
type midiOutCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	wTechnology    uint16
	wVoices        uint16
	wNotes         uint16
	wChannelMask   uint16
	dwSupport      uint32
}

// MIDIHDR
type midiHdr struct {
	lpData          uintptr
	dwBufferLength  uint32
	dwBytesRecorded uint32
	dwUser          uintptr
	dwFlags         uint32
	lpNext          uintptr
	reserved        uintptr
	dwOffset        uint32
	dwReserved      [8]uintptr
}

// Load the winmm.dll library and required functions
var (
	winmm                      = windows.NewLazySystemDLL("winmm.dll")
	procMidiInGetNumDevs       = winmm.NewProc("midiInGetNumDevs")
	procMidiInGetDevCaps       = winmm.NewProc("midiInGetDevCapsW")
	procMidiInOpen             = winmm.NewProc("midiInOpen")
	procMidiInStart            = winmm.NewProc("midiInStart")
	procMidiInStop             = winmm.NewProc("midiInStop")
	procMidiInClose            = winmm.NewProc("midiInClose")
	procMidiOutGetNumDevs      = winmm.NewProc("midiOutGetNumDevs")
	procMidiOutGetDevCaps      = winmm.NewProc("midiOutGetDevCapsW")
	procMidiOutOpen            = winmm.NewProc("midiOutOpen")
	procMidiOutClose           = winmm.NewProc("midiOutClose")
	procMidiOutShortMsg        = winmm.NewProc("midiOutShortMsg")
	procMidiOutLongMsg         = winmm.NewProc("midiOutLongMsg")
	procMidiOutPrepareHeader   = winmm.NewProc("midiOutPrepareHeader")
	procMidiOutUnprepareHeader = winmm.NewProc("midiOutUnprepareHeader")
)

// One callback serves every input connection; dwInstance selects the connection.
var (
	callbackOnce sync.Once
	callbackPtr  uintptr

	registryMu   sync.RWMutex
	registry     = map[uintptr]*connection{}
	nextInstance uintptr
)

type endpoint struct {
	id   int
	kind contracts.EndpointKind
	info contracts.EndpointInfo
}

func (e *endpoint) Name() string                 { return e.info.Name }
func (e *endpoint) Kind() contracts.EndpointKind { return e.kind }
func (e *endpoint) Info() contracts.EndpointInfo { return e.info }

// output is one open MIDI output device.
type output struct {
	handle HMIDIOUT
	queue  *outputQueue
}

func (o *output) writeShort(data []byte) error {
	if r1, _, _ := procMidiOutShortMsg.Call(uintptr(o.handle), uintptr(packShortMessage(data))); r1 != MMSYSERR_NOERROR {
		return fmt.Errorf("midiOutShortMsg returned %d", r1)
	}
	return nil
}

func (o *output) writeLong(data []byte) error {
	return sendLong(o.handle, data)
}

// Transport drives winmm. Output devices are opened by OpenOutput and kept
// open until Close.
type Transport struct {
	logger contracts.Logger

	mu      sync.Mutex
	outputs map[int]*output
	conns   map[*connection]struct{}
	closed  bool
}

// NewTransport creates a winmm transport.
func NewTransport(options *contracts.ClientOptions) (contracts.Transport, error) {
	options.Logger.Info("MIDI client created for Windows")
	return &Transport{
		logger:  options.Logger,
		outputs: make(map[int]*output),
		conns:   make(map[*connection]struct{}),
	}, nil
}

// Sources lists the MIDI input devices.
func (t *Transport) Sources() ([]contracts.Endpoint, error) {
	r0, _, _ := procMidiInGetNumDevs.Call()
	numDevices := int(uint32(r0))

	endpoints := make([]contracts.Endpoint, 0, numDevices)
	for i := 0; i < numDevices; i++ {
		var caps midiInCaps
		r1, _, _ := procMidiInGetDevCaps.Call(uintptr(i), uintptr(unsafe.Pointer(&caps)), unsafe.Sizeof(caps))
		if r1 != MMSYSERR_NOERROR {
			t.logger.Warn(fmt.Sprintf("Failed to get information for MIDI input device %d", i))
			continue
		}
		name := windows.UTF16ToString(caps.szPname[:])
		endpoints = append(endpoints, &endpoint{
			id:   i,
			kind: contracts.SourceEndpoint,
			info: contracts.EndpointInfo{
				Name:         name,
				EntityName:   name,
				Manufacturer: fmt.Sprintf("MID: %d PID: %d", caps.wMid, caps.wPid),
			},
		})
	}
	return endpoints, nil
}

// Destinations lists the MIDI output devices.
func (t *Transport) Destinations() ([]contracts.Endpoint, error) {
	r0, _, _ := procMidiOutGetNumDevs.Call()
	numDevices := int(uint32(r0))

	endpoints := make([]contracts.Endpoint, 0, numDevices)
	for i := 0; i < numDevices; i++ {
		var caps midiOutCaps
		r1, _, _ := procMidiOutGetDevCaps.Call(uintptr(i), uintptr(unsafe.Pointer(&caps)), unsafe.Sizeof(caps))
		if r1 != MMSYSERR_NOERROR {
			t.logger.Warn(fmt.Sprintf("Failed to get information for MIDI output device %d", i))
			continue
		}
		name := windows.UTF16ToString(caps.szPname[:])
		endpoints = append(endpoints, &endpoint{
			id:   i,
			kind: contracts.DestinationEndpoint,
			info: contracts.EndpointInfo{
				Name:         name,
				EntityName:   name,
				Manufacturer: fmt.Sprintf("MID: %d PID: %d", caps.wMid, caps.wPid),
			},
		})
	}
	return endpoints, nil
}

type connection struct {
	owner    *Transport
	source   *endpoint
	handler  contracts.PacketHandler
	handle   HMIDIIN
	instance uintptr
	once     sync.Once
}

// Disconnect stops and closes the input device.
func (c *connection) Disconnect() error {
	var err error
	c.once.Do(func() {
		if r1, _, e := procMidiInStop.Call(uintptr(c.handle)); r1 != MMSYSERR_NOERROR {
			err = multierr.Append(err, fmt.Errorf("failed to stop MIDI capture: %v", e))
		}
		if r1, _, e := procMidiInClose.Call(uintptr(c.handle)); r1 != MMSYSERR_NOERROR {
			err = multierr.Append(err, fmt.Errorf("failed to close MIDI device: %v", e))
		}

		registryMu.Lock()
		delete(registry, c.instance)
		registryMu.Unlock()

		c.owner.mu.Lock()
		delete(c.owner.conns, c)
		c.owner.mu.Unlock()
	})
	return err
}

// Connect opens the input device and starts delivering short messages to handler.
func (t *Transport) Connect(source contracts.Endpoint, handler contracts.PacketHandler) (contracts.Connection, error) {
	src, ok := source.(*endpoint)
	if !ok {
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

	callbackOnce.Do(func() {
		callbackPtr = windows.NewCallback(midiInCallback)
	})

	c := &connection{owner: t, source: src, handler: handler}
	registryMu.Lock()
	nextInstance++
	c.instance = nextInstance
	registry[c.instance] = c
	registryMu.Unlock()

	r1, _, err := procMidiInOpen.Call(
		uintptr(unsafe.Pointer(&c.handle)),
		uintptr(src.id),
		callbackPtr,
		c.instance,
		uintptr(CALLBACK_FUNCTION|MIDI_IO_STATUS),
	)
	if r1 != MMSYSERR_NOERROR {
		unregister(c.instance)
		return nil, fmt.Errorf("failed to open MIDI device %d: %v", src.id, err)
	}

	if r1, _, err := procMidiInStart.Call(uintptr(c.handle)); r1 != MMSYSERR_NOERROR {
		procMidiInClose.Call(uintptr(c.handle))
		unregister(c.instance)
		return nil, fmt.Errorf("failed to start MIDI capture: %v", err)
	}

	t.conns[c] = struct{}{}
	t.logger.Info(fmt.Sprintf("MIDI device %d connected", src.id), t.logger.Field().String("source", src.Name()))
	return c, nil
}

func unregister(instance uintptr) {
	registryMu.Lock()
	delete(registry, instance)
	registryMu.Unlock()
}

// midiInCallback processes incoming MIDI messages
func midiInCallback(hMidiIn uintptr, wMsg uint32, dwInstance uintptr, dwParam1 uintptr, dwParam2 uintptr) uintptr {
	registryMu.RLock()
	c := registry[dwInstance]
	registryMu.RUnlock()
	if c == nil {
		return 0
	}

	switch wMsg {
	case MIM_OPEN:
		c.owner.logger.Debug("MIDI device opened")
	case MIM_CLOSE:
		c.owner.logger.Debug("MIDI device closed")
	case MIM_DATA:
		data := unpackShortMessage(uint32(dwParam1))
		if len(data) == 0 {
			return 0
		}
		c.handler(c.source, contracts.Packet{Data: data, Timestamp: uint64(dwParam2), Received: time.Now()})
	case MIM_LONGDATA:
		c.owner.logger.Debug("System exclusive input buffer returned; ignored")
	case MIM_ERROR, MIM_LONGERROR:
		c.owner.logger.Error(fmt.Sprintf("MIDI error: msg=0x%X", wMsg))
	case MIM_MOREDATA:
		c.owner.logger.Debug("Received MIM_MOREDATA message; ignored")
	default:
		c.owner.logger.Warn(fmt.Sprintf("Unknown MIDI message: 0x%X", wMsg))
	}

	return 0
}

// CreateVirtualDestination is not available through winmm.
func (t *Transport) CreateVirtualDestination(name string, handler contracts.PacketHandler) (contracts.Endpoint, error) {
	return nil, fmt.Errorf("%w: winmm cannot publish %q", contracts.ErrVirtualUnsupported, name)
}

// OpenOutput opens the output device behind destination. winmm forbids
// midiOutOpen inside the input callback, so this must happen before Connect.
func (t *Transport) OpenOutput(destination contracts.Endpoint) error {
	dst, ok := destination.(*endpoint)
	if !ok || dst.kind != contracts.DestinationEndpoint {
		return contracts.ErrForeignEndpoint
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return contracts.ErrTransportClosed
	}
	if _, ok := t.outputs[dst.id]; ok {
		return nil
	}

	out := &output{}
	r1, _, err := procMidiOutOpen.Call(uintptr(unsafe.Pointer(&out.handle)), uintptr(dst.id), 0, 0, CALLBACK_NULL)
	if r1 != MMSYSERR_NOERROR {
		return fmt.Errorf("failed to open MIDI output device %d: %v", dst.id, err)
	}
	out.queue = newOutputQueue(out, outputQueueDepth, func(err error) {
		t.logger.Error("Error sending MIDI system exclusive message",
			t.logger.Field().String("destination", dst.Name()),
			t.logger.Field().Error("error", err))
	})
	t.outputs[dst.id] = out
	t.logger.Info(fmt.Sprintf("MIDI output device %d opened", dst.id), t.logger.Field().String("destination", dst.Name()))
	return nil
}

// Send writes each packet to an output opened by OpenOutput. Short messages go
// out through midiOutShortMsg before Send returns; longer ones are queued for
// midiOutLongMsg so the input callback never waits on the driver.
func (t *Transport) Send(destination contracts.Endpoint, list *contracts.PacketList) error {
	dst, ok := destination.(*endpoint)
	if !ok || dst.kind != contracts.DestinationEndpoint {
		return contracts.ErrForeignEndpoint
	}

	t.mu.Lock()
	closed := t.closed
	out := t.outputs[dst.id]
	t.mu.Unlock()
	if closed {
		return contracts.ErrTransportClosed
	}
	if out == nil {
		return fmt.Errorf("%w: output %s was not opened", contracts.ErrSendFailed, dst.Name())
	}

	for _, p := range list.Packets() {
		if err := out.queue.send(p.Data); err != nil {
			return fmt.Errorf("%w: %v", contracts.ErrSendFailed, err)
		}
	}
	return nil
}

func sendLong(handle HMIDIOUT, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)
	hdr := &midiHdr{
		lpData:         uintptr(unsafe.Pointer(&buf[0])),
		dwBufferLength: uint32(len(buf)),
	}
	size := unsafe.Sizeof(*hdr)

	if r1, _, _ := procMidiOutPrepareHeader.Call(uintptr(handle), uintptr(unsafe.Pointer(hdr)), size); r1 != MMSYSERR_NOERROR {
		return fmt.Errorf("midiOutPrepareHeader returned %d", r1)
	}
	defer procMidiOutUnprepareHeader.Call(uintptr(handle), uintptr(unsafe.Pointer(hdr)), size)

	if r1, _, _ := procMidiOutLongMsg.Call(uintptr(handle), uintptr(unsafe.Pointer(hdr)), size); r1 != MMSYSERR_NOERROR {
		return fmt.Errorf("midiOutLongMsg returned %d", r1)
	}

	deadline := time.Now().Add(longMsgTimeout)
	for hdr.dwFlags&MHDR_DONE == 0 {
		if time.Now().After(deadline) {
			return errLongMsgTimeout
		}
		time.Sleep(longMsgPoll)
	}
	runtime.KeepAlive(buf)
	return nil
}

// Close disconnects every input and closes the output devices.
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
	outputs := t.outputs
	t.outputs = map[int]*output{}
	t.mu.Unlock()

	var err error
	for _, c := range conns {
		err = multierr.Append(err, c.Disconnect())
	}
	for id, out := range outputs {
		out.queue.close()
		if r1, _, e := procMidiOutClose.Call(uintptr(out.handle)); r1 != MMSYSERR_NOERROR {
			err = multierr.Append(err, fmt.Errorf("failed to close MIDI output device %d: %v", id, e))
		}
	}
	t.logger.Info("MIDI client closed")
	return err
}
