package contracts

// EndpointKind tells sources and destinations apart.
type EndpointKind int

const (
	// SourceEndpoint produces MIDI data that an input port can connect to.
	SourceEndpoint EndpointKind = iota
	// DestinationEndpoint consumes MIDI data sent through an output port.
	DestinationEndpoint
)

func (k EndpointKind) String() string {
	if k == SourceEndpoint {
		return "source"
	}
	return "destination"
}

// EndpointInfo contains descriptive information about a MIDI endpoint.
type EndpointInfo struct {
	Name         string // Endpoint name.
	Manufacturer string // Device manufacturer.
	EntityName   string // Name of the entity to which the endpoint belongs.
	Virtual      bool   // Whether the endpoint was created in software by this process.
}

// Endpoint is an opaque handle to a MIDI source or destination. Its concrete
// type belongs to the Transport that produced it.
type Endpoint interface {
	Name() string
	Kind() EndpointKind
	Info() EndpointInfo
}
