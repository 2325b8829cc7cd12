// Package ports resolves MIDI endpoints by name and prints port listings.
package ports

import (
	"errors"
	"fmt"
	"io"

	"github.com/leandrodaf/midirelay/sdk/contracts"
)

// ErrEndpointNotFound is returned when no endpoint carries the requested name.
var ErrEndpointNotFound = errors.New("MIDI endpoint not found")

// FindSource returns the first source whose name equals name.
func FindSource(t contracts.Transport, name string) (contracts.Endpoint, error) {
	sources, err := t.Sources()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI sources: %w", err)
	}
	return findByName(sources, contracts.SourceEndpoint, name)
}

// FindDestination returns the first destination whose name equals name.
func FindDestination(t contracts.Transport, name string) (contracts.Endpoint, error) {
	destinations, err := t.Destinations()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI destinations: %w", err)
	}
	return findByName(destinations, contracts.DestinationEndpoint, name)
}

func findByName(endpoints []contracts.Endpoint, kind contracts.EndpointKind, name string) (contracts.Endpoint, error) {
	for _, endpoint := range endpoints {
		if endpoint != nil && endpoint.Name() == name {
			return endpoint, nil
		}
	}
	return nil, fmt.Errorf("%w: %s %q", ErrEndpointNotFound, kind, name)
}

// ListPorts writes the indexed names of all sources and destinations to w.
func ListPorts(t contracts.Transport, w io.Writer) error {
	sources, err := t.Sources()
	if err != nil {
		return fmt.Errorf("error listing MIDI sources: %w", err)
	}
	writePorts(w, "Input", sources)

	destinations, err := t.Destinations()
	if err != nil {
		return fmt.Errorf("error listing MIDI destinations: %w", err)
	}
	writePorts(w, "Output", destinations)
	return nil
}

func writePorts(w io.Writer, label string, endpoints []contracts.Endpoint) {
	fmt.Fprintf(w, "Available MIDI %s Ports:\n", label)
	for i, endpoint := range endpoints {
		if endpoint == nil {
			continue
		}
		fmt.Fprintf(w, "%d: %s\n", i, endpoint.Name())
	}
}
