//go:build !windows
// +build !windows

package midiwindows

import (
	"github.com/leandrodaf/midirelay/sdk/contracts"
)

// NewTransport reports that winmm is unavailable outside Windows.
func NewTransport(options *contracts.ClientOptions) (contracts.Transport, error) {
	options.Logger.Warn("winmm transport requested on a non-Windows system")
	return nil, contracts.ErrUnsupportedPlatform
}
