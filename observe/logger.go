package observe

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap/zapcore"
)

// Level is the severity of a log record.
type Level int32

const (
	LevelDebug    Level = 10
	LevelInfo     Level = 20
	LevelWarning  Level = 30
	LevelError    Level = 40
	LevelCritical Level = 50
)

// ParseLevel parses a level name, case-insensitively. An empty string is INFO.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warning", "warn":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	case "critical":
		return LevelCritical, nil
	default:
		return LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, s)
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	case LevelCritical:
		return "CRITICAL"
	default:
		return fmt.Sprintf("LEVEL(%d)", int32(l))
	}
}

// Defaults used by NewRegistry for empty RegistryConfig members.
const (
	DefaultServiceName = "omnipotence-core"
	DefaultVersion     = "0.1.0"
	DefaultEnvironment = "dev"
	DefaultLoggerName  = "app"
)

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	Service string
	Version string
	Env     string
	Level   Level     // zero means INFO
	Output  io.Writer // nil means os.Stdout
}

// Registry maps logger names to loggers sharing one formatter and one sink.
//
// Contract:
//   - Concurrency: safe for concurrent use; Get creates each name once.
//   - Output: every record is written as a single line with one Write call.
type Registry struct {
	mu        sync.Mutex
	loggers   map[string]*Logger
	level     Level
	formatter *Formatter
	sink      zapcore.WriteSyncer
}

// NewRegistry creates a registry from cfg, filling defaults.
func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.Service == "" {
		cfg.Service = DefaultServiceName
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if cfg.Env == "" {
		cfg.Env = DefaultEnvironment
	}
	if cfg.Level == 0 {
		cfg.Level = LevelInfo
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	return &Registry{
		loggers: make(map[string]*Logger),
		level:   cfg.Level,
		formatter: &Formatter{
			Service: cfg.Service,
			Version: cfg.Version,
			Env:     cfg.Env,
		},
		sink: zapcore.Lock(zapcore.AddSync(cfg.Output)),
	}
}

// Get returns the logger for name, creating it on first use.
func (r *Registry) Get(name string) *Logger {
	if name == "" {
		name = DefaultLoggerName
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.loggers[name]; ok {
		return l
	}
	l := &Logger{name: name, reg: r}
	l.level.Store(int32(r.level))
	r.loggers[name] = l
	return l
}

// Formatter returns the formatter shared by the registry's loggers.
func (r *Registry) Formatter() *Formatter {
	return r.formatter
}

// Sync flushes the sink.
func (r *Registry) Sync() error {
	return r.sink.Sync()
}

// write emits one line. Write errors are dropped: logging is best effort.
func (r *Registry) write(line []byte) {
	line = append(line, '\n')
	_, _ = r.sink.Write(line)
}

var defaultRegistry atomic.Pointer[Registry]

func init() {
	defaultRegistry.Store(NewRegistry(RegistryConfig{}))
}

// DefaultRegistry returns the process-wide registry used by GetLogger.
func DefaultRegistry() *Registry {
	return defaultRegistry.Load()
}

// SetDefaultRegistry replaces the process-wide registry. Loggers obtained
// earlier keep writing to their original registry.
func SetDefaultRegistry(r *Registry) {
	if r != nil {
		defaultRegistry.Store(r)
	}
}

// GetLogger returns the named logger from the default registry.
func GetLogger(name string) *Logger {
	return DefaultRegistry().Get(name)
}

// Logger writes records through its registry's formatter and sink. Loggers
// have no parents; a record is emitted exactly once.
type Logger struct {
	name  string
	level atomic.Int32
	reg   *Registry
}

// Name returns the logger name.
func (l *Logger) Name() string { return l.name }

// Level returns the minimum level emitted.
func (l *Logger) Level() Level { return Level(l.level.Load()) }

// SetLevel changes the minimum level emitted.
func (l *Logger) SetLevel(level Level) { l.level.Store(int32(level)) }

// Enabled reports whether records at level are emitted.
func (l *Logger) Enabled(level Level) bool {
	return level >= l.Level()
}

// Log formats and writes rec if its level is enabled.
func (l *Logger) Log(ctx context.Context, rec Record) {
	if !l.Enabled(rec.Level) {
		return
	}
	rec.Logger = l.name
	l.reg.write(l.reg.formatter.Format(ctx, rec))
}

// Logf logs a printf-style message.
func (l *Logger) Logf(ctx context.Context, level Level, format string, args ...any) {
	l.Log(ctx, Record{Level: level, Message: format, Args: args})
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.Log(ctx, Record{Level: LevelDebug, Message: msg, Fields: fields})
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...Field) {
	l.Log(ctx, Record{Level: LevelInfo, Message: msg, Fields: fields})
}

func (l *Logger) Warning(ctx context.Context, msg string, fields ...Field) {
	l.Log(ctx, Record{Level: LevelWarning, Message: msg, Fields: fields})
}

func (l *Logger) Error(ctx context.Context, msg string, fields ...Field) {
	l.Log(ctx, Record{Level: LevelError, Message: msg, Fields: fields})
}

func (l *Logger) Critical(ctx context.Context, msg string, fields ...Field) {
	l.Log(ctx, Record{Level: LevelCritical, Message: msg, Fields: fields})
}

// Exception logs msg at ERROR with err rendered as exc_info.
func (l *Logger) Exception(ctx context.Context, msg string, err error, fields ...Field) {
	if !l.Enabled(LevelError) {
		return
	}
	l.Log(ctx, Record{Level: LevelError, Message: msg, Fields: fields, Err: NewErrorInfo(err)})
}
