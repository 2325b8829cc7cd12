package contracts

// DefaultPacketListCapacity is the size in bytes of an outbound packet list.
const DefaultPacketListCapacity = 1024

// CoreMIDIConfig holds the names registered with the platform MIDI service.
type CoreMIDIConfig struct {
	ClientName     string // Name of the MIDI client.
	InputPortName  string // Name of the input port created per connection.
	OutputPortName string // Name of the output port used for sending.
}

// ClientOptions defines the configuration options for the MIDI transport and relay.
type ClientOptions struct {
	Logger             Logger          // Logger for logging events and errors.
	LogLevel           LogLevel        // Level of logging to use.
	LogFilePath        string          // File path for logging if file logging is enabled.
	CoreMIDIConfig     *CoreMIDIConfig // Configuration specific to the platform MIDI client.
	PacketListCapacity int             // Capacity in bytes of each outbound packet list.
}

// Option is a function that modifies ClientOptions.
type Option func(*ClientOptions)

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(opts *ClientOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level.
func WithLogLevel(level LogLevel) Option {
	return func(opts *ClientOptions) {
		opts.LogLevel = level
	}
}

// WithLogFile directs log output to the given file instead of the console.
func WithLogFile(path string) Option {
	return func(opts *ClientOptions) {
		opts.LogFilePath = path
	}
}

// WithCoreMIDIConfig sets the platform client and port names.
func WithCoreMIDIConfig(config CoreMIDIConfig) Option {
	return func(opts *ClientOptions) {
		opts.CoreMIDIConfig = &config
	}
}

// WithPacketListCapacity sets the outbound packet list capacity in bytes.
func WithPacketListCapacity(capacity int) Option {
	return func(opts *ClientOptions) {
		opts.PacketListCapacity = capacity
	}
}
