//go:build !darwin || !cgo
// +build !darwin !cgo

package mididarwin

import (
	"github.com/leandrodaf/midirelay/sdk/contracts"
)

// NewTransport reports that CoreMIDI is unavailable outside macOS or without cgo.
func NewTransport(options *contracts.ClientOptions) (contracts.Transport, error) {
	options.Logger.Warn("CoreMIDI transport requested without macOS cgo support")
	return nil, contracts.ErrUnsupportedPlatform
}
