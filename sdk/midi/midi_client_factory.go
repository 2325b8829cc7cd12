package midi

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/leandrodaf/midirelay/internal/midi/mididarwin"
	"github.com/leandrodaf/midirelay/internal/midi/midilinux"
	"github.com/leandrodaf/midirelay/internal/midi/midiwindows"
	"github.com/leandrodaf/midirelay/sdk/contracts"
)

// ErrUnsupportedOS is returned when the operating system is not supported by the MIDI transport.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// clientInitializers maps OS names to corresponding MIDI transport initializers.
var clientInitializers = map[string]func(*contracts.ClientOptions) (contracts.Transport, error){
	"darwin":  mididarwin.NewTransport,  // CoreMIDI.
	"windows": midiwindows.NewTransport, // winmm.
	"linux":   midilinux.NewTransport,   // ALSA through rtmidi.
}

// NewClient initializes a MIDI transport based on the current operating system.
// It supports macOS (Darwin), Windows and Linux, returning ErrUnsupportedOS otherwise.
func NewClient(opts *contracts.ClientOptions) (contracts.Transport, error) {
	if initializer, exists := clientInitializers[runtime.GOOS]; exists {
		return initializer(opts)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedOS, runtime.GOOS)
}
