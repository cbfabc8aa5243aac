package log

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// Logger writes everything to the file core and mirrors success/error lines
// to the console core.
type Logger struct {
	file    *zap.Logger
	console *zap.Logger
}

type Options struct {
	Dir   string // directory for app.log; empty disables the file core
	Level string // debug, info, warn, error
}

func New(opts Options) (*Logger, error) {
	level := zapcore.DebugLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
	}

	fileLogger := zap.NewNop()
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create logs directory: %w", err)
		}

		fileCore := zapcore.NewCore(
			newCustomFileEncoder(),
			getLogFileWriter(filepath.Join(opts.Dir, "app.log")),
			level,
		)
		fileLogger = zap.New(fileCore)
	}

	consoleConfig := zap.NewDevelopmentConfig()
	consoleConfig.EncoderConfig.EncodeLevel = customLevelEncoder
	consoleConfig.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	consoleConfig.EncoderConfig.EncodeCaller = nil
	consoleConfig.Development = false
	consoleConfig.DisableStacktrace = true
	consoleConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	consoleLogger, err := consoleConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build console logger: %w", err)
	}

	return &Logger{file: fileLogger, console: consoleLogger}, nil
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	return &Logger{file: zap.NewNop(), console: zap.NewNop()}
}

// NewWithCores is used by tests that need to observe log output.
func NewWithCores(file, console zapcore.Core) *Logger {
	return &Logger{file: zap.New(file), console: zap.New(console)}
}

// With returns a child logger carrying fields on the file core.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{file: l.file.With(fields...), console: l.console}
}

// Request returns a child logger bound to one request id.
func (l *Logger) Request(requestID string) *Logger {
	return l.With(zap.String("request_id", requestID))
}

func (l *Logger) LogRequest(method, endpoint string, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.String("method", method),
		zap.String("endpoint", endpoint),
	}, fields...)
	l.file.Info("HTTP request", allFields...)
}

func (l *Logger) LogResponse(endpoint string, statusCode int, durationMs int64, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.String("endpoint", endpoint),
		zap.Int("status_code", statusCode),
		zap.Int64("duration_ms", durationMs),
	}, fields...)

	if statusCode >= 200 && statusCode < 400 {
		l.file.Info("HTTP response", allFields...)
		return
	}
	l.file.Error("HTTP response", allFields...)
	l.console.Error(fmt.Sprintf("✗ HTTP request failed [%d] %s", statusCode, endpoint))
}

func (l *Logger) Info(message string, fields ...zap.Field) {
	l.file.Info(message, fields...)
}

// Success is written to the file and echoed to the console.
func (l *Logger) Success(message string, fields ...zap.Field) {
	durationMs := extractDuration(fields)

	l.file.Info(message, fields...)

	if durationMs > 0 {
		l.console.Info(fmt.Sprintf("✓ %s (%dms)", message, durationMs))
	} else {
		l.console.Info("✓ " + message)
	}
}

// Error is written to the file and echoed to the console.
func (l *Logger) Error(message string, fields ...zap.Field) {
	durationMs := extractDuration(fields)

	l.file.Error(message, fields...)

	if durationMs > 0 {
		l.console.Error(fmt.Sprintf("✗ %s (%dms)", message, durationMs))
	} else {
		l.console.Error("✗ " + message)
	}
}

func (l *Logger) Warn(message string, fields ...zap.Field) {
	l.file.Warn(message, fields...)
}

func (l *Logger) Debug(message string, fields ...zap.Field) {
	l.file.Debug(message, fields...)
}

func (l *Logger) Sync() {
	_ = l.file.Sync()
	_ = l.console.Sync()
}

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorWhite  = "\033[37m"
)

func customLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch level {
	case zapcore.DebugLevel:
		enc.AppendString(colorCyan + "DEBUG" + colorReset)
	case zapcore.InfoLevel:
		enc.AppendString(colorGreen + "SUCCESS" + colorReset)
	case zapcore.WarnLevel:
		enc.AppendString(colorYellow + "WARN" + colorReset)
	case zapcore.ErrorLevel, zapcore.FatalLevel, zapcore.PanicLevel:
		enc.AppendString(colorRed + level.CapitalString() + colorReset)
	default:
		enc.AppendString(colorWhite + level.String() + colorReset)
	}
}

func extractDuration(fields []zap.Field) int64 {
	for _, field := range fields {
		if field.Key == "duration_ms" && field.Type == zapcore.Int64Type {
			return field.Integer
		}
	}
	return 0
}

// MaxLogFileSize caps app.log; the file is truncated once it grows past it.
const MaxLogFileSize = 50 * 1024 * 1024

type rotatingLogWriter struct {
	file *os.File
	path string
	mu   sync.Mutex
}

func (w *rotatingLogWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	info, err := w.file.Stat()
	if err == nil && info.Size() > MaxLogFileSize {
		w.file.Close()

		w.file, err = os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return 0, fmt.Errorf("failed to truncate log file: %w", err)
		}
	}

	return w.file.Write(p)
}

func (w *rotatingLogWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Sync()
}

func getLogFileWriter(path string) zapcore.WriteSyncer {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file %s: %v, falling back to stderr\n", path, err)
		return zapcore.AddSync(os.Stderr)
	}
	return zapcore.AddSync(&rotatingLogWriter{file: file, path: path})
}

// customFileEncoder renders "time     LEVEL message\t{json fields}". Context
// fields added through With are kept in the embedded map encoder.
type customFileEncoder struct {
	*zapcore.MapObjectEncoder
}

func newCustomFileEncoder() *customFileEncoder {
	return &customFileEncoder{MapObjectEncoder: zapcore.NewMapObjectEncoder()}
}

func (e *customFileEncoder) Clone() zapcore.Encoder {
	clone := newCustomFileEncoder()
	for k, v := range e.Fields {
		clone.Fields[k] = v
	}
	return clone
}

var bufferPool = buffer.NewPool()

func (e *customFileEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	buf := bufferPool.Get()

	buf.AppendString(entry.Time.Format("2006-01-02 15:04:05"))
	buf.AppendString("     ")
	buf.AppendString(entry.Level.CapitalString())
	buf.AppendString(" ")
	buf.AppendString(entry.Message)

	if len(fields) > 0 || len(e.Fields) > 0 {
		enc := e.Clone().(*customFileEncoder)
		for _, field := range fields {
			field.AddTo(enc)
		}
		if jsonData, err := json.Marshal(enc.Fields); err == nil {
			buf.AppendString("\t")
			buf.AppendString(string(jsonData))
		}
	}

	buf.AppendString("\n")
	return buf, nil
}
