package contracts

import (
	"errors"
	"time"
)

// Errors shared by every Transport implementation.
var (
	ErrUnsupportedPlatform = errors.New("MIDI functionality is not available on this platform")
	ErrVirtualUnsupported  = errors.New("virtual endpoints are not supported by this transport")
	ErrForeignEndpoint     = errors.New("endpoint was not created by this transport")
	ErrWrongEndpointKind   = errors.New("wrong endpoint kind")
	ErrSendFailed          = errors.New("error sending MIDI message")
	ErrTransportClosed     = errors.New("transport closed")
)

// Packet is one MIDI message or system-exclusive fragment delivered by the driver.
// Data is only valid for the duration of the handler call.
type Packet struct {
	Data      []byte    // Raw bytes as delivered.
	Timestamp uint64    // Driver timestamp, 0 if the driver does not supply one.
	Received  time.Time // Wall clock at callback entry.
}

// PacketHandler is invoked by the driver for every packet arriving on a
// connected source. Calls for one source are serial.
type PacketHandler func(source Endpoint, packet Packet)

// Connection is an input port attached to a source.
type Connection interface {
	Disconnect() error
}

// Transport is the platform MIDI service.
type Transport interface {
	Sources() ([]Endpoint, error)                                                  // Lists all MIDI sources.
	Destinations() ([]Endpoint, error)                                             // Lists all MIDI destinations.
	Connect(source Endpoint, handler PacketHandler) (Connection, error)            // Delivers packets from source to handler.
	CreateVirtualDestination(name string, handler PacketHandler) (Endpoint, error) // Publishes a software-only destination.
	Send(destination Endpoint, list *PacketList) error                             // Sends every packet in list to destination.
	Close() error                                                                  // Releases ports and the client.
}

// Disposer is implemented by endpoints that own platform resources, such as
// virtual destinations.
type Disposer interface {
	Dispose() error
}

// OutputOpener is implemented by transports that must acquire an output device
// before sending to it. Sessions open the relay output before Connect, so Send
// never opens devices from inside a driver callback.
type OutputOpener interface {
	OpenOutput(destination Endpoint) error
}
