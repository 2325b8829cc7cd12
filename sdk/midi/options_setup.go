package midi

import (
	"github.com/leandrodaf/midirelay/internal/logger"
	"github.com/leandrodaf/midirelay/sdk/contracts"
)

// ApplyDefaultOptions sets default values for ClientOptions if not explicitly provided.
//
// opts ...contracts.Option: A variadic list of option functions that can modify ClientOptions.
//
// Returns:
//   - contracts.ClientOptions: A structure containing the finalized client options with defaults applied.
//   - error: An error if there was an issue applying the options.
func ApplyDefaultOptions(opts ...contracts.Option) (contracts.ClientOptions, error) {
	options := &contracts.ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.LogFilePath != "" {
		if err := options.Logger.SetDestination(contracts.FileLog, options.LogFilePath); err != nil {
			return contracts.ClientOptions{}, err
		}
	}

	if options.CoreMIDIConfig == nil {
		options.CoreMIDIConfig = &contracts.CoreMIDIConfig{}
	}
	if options.CoreMIDIConfig.ClientName == "" {
		options.CoreMIDIConfig.ClientName = "CoreMIDI Test Client"
	}
	if options.CoreMIDIConfig.InputPortName == "" {
		options.CoreMIDIConfig.InputPortName = "Input Port"
	}
	if options.CoreMIDIConfig.OutputPortName == "" {
		options.CoreMIDIConfig.OutputPortName = "Output Port"
	}

	if options.PacketListCapacity <= 0 {
		options.PacketListCapacity = contracts.DefaultPacketListCapacity
	}

	options.Logger.SetLevel(options.LogLevel) // the zero value is InfoLevel
	return *options, nil
}
