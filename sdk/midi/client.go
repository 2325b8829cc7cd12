package midi

import (
	"github.com/leandrodaf/midirelay/sdk/contracts"
)

// NewTransport creates the platform MIDI transport with the specified options.
// It applies default options and initializes the transport.
//
// opts ...contracts.Option: A variadic list of option functions to customize the transport configuration.
//
// Returns:
//   - contracts.Transport: The platform transport.
//   - contracts.ClientOptions: The options after defaults were applied, for reuse by the relay.
//   - error: An error, if any occurred during the creation of the transport.
func NewTransport(opts ...contracts.Option) (contracts.Transport, contracts.ClientOptions, error) {
	options, err := ApplyDefaultOptions(opts...)
	if err != nil {
		return nil, options, err
	}

	transport, err := NewClient(&options)
	if err != nil {
		return nil, options, err
	}

	return transport, options, nil
}
