package logger

import (
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/midirelay/sdk/contracts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger implements contracts.Logger on top of zap.
type ZapLogger struct {
	mu     sync.RWMutex
	logger *zap.Logger
	level  contracts.LogLevel
}

// NewZapLogger creates a console logger writing to stderr.
func NewZapLogger() contracts.Logger {
	logger, err := newZap(contracts.ConsoleLog, "")
	if err != nil {
		logger = zap.NewNop()
	}
	return &ZapLogger{logger: logger, level: contracts.InfoLevel}
}

// NewFromZap wraps an existing zap logger. Filtering is done by the wrapper,
// so the zap core should accept every level.
func NewFromZap(logger *zap.Logger) *ZapLogger {
	return &ZapLogger{logger: logger.WithOptions(zap.AddCallerSkip(2)), level: contracts.InfoLevel}
}

func newZap(dest contracts.LogDestination, path string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Sampling = nil

	switch dest {
	case contracts.ConsoleLog:
		cfg.OutputPaths = []string{"stderr"}
	case contracts.FileLog:
		if path == "" {
			return nil, fmt.Errorf("file destination requires a path")
		}
		cfg.OutputPaths = []string{path}
	default:
		return nil, fmt.Errorf("unknown log destination %q", dest)
	}

	return cfg.Build(zap.AddCallerSkip(2))
}

// Info logs a message at the INFO level
func (z *ZapLogger) Info(msg string, fields ...contracts.Field) {
	z.log(contracts.InfoLevel, msg, fields...)
}

// Error logs a message at the ERROR level
func (z *ZapLogger) Error(msg string, fields ...contracts.Field) {
	z.log(contracts.ErrorLevel, msg, fields...)
}

// Debug logs a message at the DEBUG level
func (z *ZapLogger) Debug(msg string, fields ...contracts.Field) {
	z.log(contracts.DebugLevel, msg, fields...)
}

// Warn logs a message at the WARN level
func (z *ZapLogger) Warn(msg string, fields ...contracts.Field) {
	z.log(contracts.WarnLevel, msg, fields...)
}

// Fatal logs a message at the FATAL level. zap then runs the logger's fatal
// hook, which exits the process unless the logger was built with another one.
func (z *ZapLogger) Fatal(msg string, fields ...contracts.Field) {
	z.log(contracts.FatalLevel, msg, fields...)
}

// Field returns a new instance of Field
func (z *ZapLogger) Field() contracts.Field {
	return &zapField{}
}

// SetLevel sets the logging level
func (z *ZapLogger) SetLevel(level contracts.LogLevel) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.level = level
}

// SetDestination rebuilds the underlying logger for the given destination.
// FileLog requires a path.
func (z *ZapLogger) SetDestination(dest contracts.LogDestination, filePath ...string) error {
	path := ""
	if len(filePath) > 0 {
		path = filePath[0]
	}
	logger, err := newZap(dest, path)
	if err != nil {
		return err
	}

	z.mu.Lock()
	old := z.logger
	z.logger = logger
	z.mu.Unlock()

	_ = old.Sync()
	return nil
}

// Sync flushes buffered output.
func (z *ZapLogger) Sync() error {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return z.logger.Sync()
}

func (z *ZapLogger) log(level contracts.LogLevel, msg string, fields ...contracts.Field) {
	z.mu.RLock()
	logger, configured := z.logger, z.level
	z.mu.RUnlock()

	if !configured.Enables(level) {
		return
	}

	zfields := toZapFields(fields)
	switch level {
	case contracts.DebugLevel:
		logger.Debug(msg, zfields...)
	case contracts.InfoLevel:
		logger.Info(msg, zfields...)
	case contracts.WarnLevel:
		logger.Warn(msg, zfields...)
	case contracts.ErrorLevel:
		logger.Error(msg, zfields...)
	case contracts.FatalLevel:
		logger.Fatal(msg, zfields...)
	}
}

func toZapFields(fields []contracts.Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		f, ok := field.(*zapField)
		if !ok || f.key == "" {
			continue
		}
		out = append(out, f.zap)
	}
	return out
}

// zapField implements contracts.Field
type zapField struct {
	key string
	zap zap.Field
}

func (f *zapField) Bool(key string, val bool) contracts.Field {
	return &zapField{key, zap.Bool(key, val)}
}

func (f *zapField) Int(key string, val int) contracts.Field {
	return &zapField{key, zap.Int(key, val)}
}

func (f *zapField) Float64(key string, val float64) contracts.Field {
	return &zapField{key, zap.Float64(key, val)}
}

func (f *zapField) String(key string, val string) contracts.Field {
	return &zapField{key, zap.String(key, val)}
}

func (f *zapField) Time(key string, val time.Time) contracts.Field {
	return &zapField{key, zap.Time(key, val)}
}

func (f *zapField) Duration(key string, val time.Duration) contracts.Field {
	return &zapField{key, zap.Duration(key, val)}
}

func (f *zapField) Int64(key string, val int64) contracts.Field {
	return &zapField{key, zap.Int64(key, val)}
}

func (f *zapField) Error(key string, val error) contracts.Field {
	return &zapField{key, zap.NamedError(key, val)}
}

func (f *zapField) Uint64(key string, val uint64) contracts.Field {
	return &zapField{key, zap.Uint64(key, val)}
}

func (f *zapField) Uint8(key string, val uint8) contracts.Field {
	return &zapField{key, zap.Uint8(key, val)}
}
