//go:build !linux || !cgo
// +build !linux !cgo

package midilinux

import (
	"github.com/leandrodaf/midirelay/sdk/contracts"
)

// NewTransport reports that the ALSA transport is unavailable outside Linux or without cgo.
func NewTransport(options *contracts.ClientOptions) (contracts.Transport, error) {
	options.Logger.Warn("ALSA transport requested without Linux cgo support")
	return nil, contracts.ErrUnsupportedPlatform
}
