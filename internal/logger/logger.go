package logger

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Output formats understood by New.
const (
	FormatCloud = "cloud"
	FormatJSON  = "json"
	FormatText  = "text"
	FormatLocal = "local"
)

const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Logger wraps logrus.Entry to provide structured logging with context support.
type Logger struct {
	*logrus.Entry
	closer io.Closer
}

// Config holds logger configuration.
type Config struct {
	Level       string    // trace, debug, info, warn, error
	Format      string    // cloud, json, text (local is an alias of text)
	Output      io.Writer // explicit destination, disables the stdout/stderr split
	ServiceName string    // service name for log tagging

	// Optional rotating file sink.
	LogFile    string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// DefaultConfig returns sensible defaults.
// Parameters: none.
// Returns:
//   - *Config: default logger configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:       "info",
		Format:      FormatCloud,
		ServiceName: "hdfs-connector",
		MaxSize:     100,
		MaxBackups:  7,
		MaxAge:      30,
		Compress:    true,
	}
}

// New creates a new Logger with the given configuration.
// Parameters:
//   - cfg: logger configuration; nil uses DefaultConfig.
// Returns:
//   - *Logger: initialized logger instance.
//   - error: *InvalidFormatError when cfg.Format is not recognized.
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	formatter, err := newFormatter(cfg)
	if err != nil {
		return nil, err
	}

	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.SetReportCaller(true)
	log.SetFormatter(formatter)

	var closer io.Closer
	switch {
	case cfg.Output != nil:
		log.SetOutput(cfg.Output)
	default:
		// Console output goes through the split hook; Out only carries the file sink.
		log.SetOutput(io.Discard)
		log.AddHook(&streamSplitHook{
			formatter: formatter,
			stdout:    os.Stdout,
			stderr:    os.Stderr,
		})
		if cfg.LogFile != "" {
			fileWriter := &lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   cfg.Compress,
			}
			log.SetOutput(fileWriter)
			closer = fileWriter
		}
	}

	entry := log.WithField(FieldService, cfg.ServiceName)

	return &Logger{Entry: entry, closer: closer}, nil
}

// Discard returns a logger that drops everything. Intended for tests.
func Discard() *Logger {
	l, _ := New(&Config{Level: "panic", Format: FormatJSON, Output: io.Discard})
	return l
}

// Sync flushes and closes the file sink, if one was configured.
// Should be called before program exit to ensure no logs are lost.
func (l *Logger) Sync() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// WithFields returns a new Logger with additional fields.
// Parameters:
//   - fields: structured fields to add.
// Returns:
//   - *Logger: derived logger with fields applied.
func (l *Logger) WithFields(fields Fields) *Logger {
	return &Logger{Entry: l.Entry.WithFields(logrus.Fields(fields)), closer: l.closer}
}

// WithField returns a new Logger with a single additional field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{Entry: l.Entry.WithField(key, value), closer: l.closer}
}

// WithError returns a new Logger with an error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Entry: l.Entry.WithError(err), closer: l.closer}
}

// WithComponent tags the logger with the component name.
func (l *Logger) WithComponent(name string) *Logger {
	return l.WithField(FieldComponent, name)
}

func newFormatter(cfg *Config) (logrus.Formatter, error) {
	switch strings.ToLower(cfg.Format) {
	case "", FormatCloud:
		return &cloudFormatter{serviceName: cfg.ServiceName}, nil
	case FormatJSON:
		return &logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
			CallerPrettyfier: callerPrettyfier,
		}, nil
	case FormatText, FormatLocal:
		return &logrus.TextFormatter{
			FullTimestamp:    true,
			TimestampFormat:  timestampFormat,
			CallerPrettyfier: callerPrettyfier,
		}, nil
	default:
		return nil, &InvalidFormatError{Format: cfg.Format}
	}
}

// InvalidFormatError reports an unsupported LOG_FORMAT value.
type InvalidFormatError struct {
	Format string
}

func (e *InvalidFormatError) Error() string {
	return "invalid log format: " + strconv.Quote(e.Format)
}

// streamSplitHook writes entries below WARNING to stdout and the rest to stderr.
type streamSplitHook struct {
	formatter logrus.Formatter
	stdout    io.Writer
	stderr    io.Writer
}

func (h *streamSplitHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *streamSplitHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	w := h.stdout
	if entry.Level <= logrus.WarnLevel {
		w = h.stderr
	}
	_, err = w.Write(line)
	return err
}

// callerPrettyfier simplifies caller information to show only relative path and line number
func callerPrettyfier(frame *runtime.Frame) (function string, file string) {
	funcName := frame.Function
	if idx := strings.LastIndex(funcName, "/"); idx != -1 {
		funcName = funcName[idx+1:]
	}

	return funcName, filepath.Base(frame.File) + ":" + strconv.Itoa(frame.Line)
}
