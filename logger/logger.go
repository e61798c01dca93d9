package logger

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// noopFunc is a reusable no-op function to avoid allocations
var noopFunc = func() {}

// Trace returns a function that logs operation duration when called.
// Returns a no-op function when TRACE level is disabled.
// Usage: defer logger.Trace("operation")()
func Trace(name string) func() {
	l := current()
	if !l.shouldLog(LogLevelTrace) {
		return noopFunc
	}
	start := time.Now()
	return func() {
		l.logWithLevel(LogLevelTrace, "%s: %v", name, time.Since(start))
	}
}

// DefaultMaxLines is the number of lines kept in a log file before it is trimmed
const DefaultMaxLines = 5000

// LogLevel represents the logging level
type LogLevel int

const (
	LogLevelTrace LogLevel = iota
	LogLevelDebug
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// String returns the string representation of a log level
func (l LogLevel) String() string {
	switch l {
	case LogLevelTrace:
		return "TRACE"
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel parses a string into a LogLevel. Unknown values map to INFO.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LogLevelTrace
	case "DEBUG":
		return LogLevelDebug
	case "INFO":
		return LogLevelInfo
	case "WARN", "WARNING":
		return LogLevelWarn
	case "ERROR":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// LimitedLogger is a leveled logger. When backed by a regular file it keeps at
// most maxLines lines, dropping the oldest ones.
type LimitedLogger struct {
	out       io.Writer
	file      *os.File // nil when out is not a rotatable file
	lineCount int
	maxLines  int
	level     LogLevel
	now       func() time.Time
	mutex     sync.Mutex
}

var (
	globalMu     sync.RWMutex
	globalLogger *LimitedLogger
)

// defaultLogger is used before a global logger is installed
var defaultLogger = &LimitedLogger{
	out:   os.Stderr,
	level: LogLevelInfo,
	now:   time.Now,
}

func current() *LimitedLogger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger != nil {
		return globalLogger
	}
	return defaultLogger
}

// New creates a LimitedLogger writing to w. It does not become the global logger.
func New(w io.Writer, level LogLevel) *LimitedLogger {
	ll := &LimitedLogger{
		out:      w,
		maxLines: DefaultMaxLines,
		level:    level,
		now:      time.Now,
	}
	if f, ok := w.(*os.File); ok {
		if info, err := f.Stat(); err == nil && info.Mode().IsRegular() {
			ll.file = f
			ll.countExistingLines()
		}
	}
	return ll
}

// NewLimitedLogger creates a logger over file and installs it as the global logger
func NewLimitedLogger(file *os.File, level LogLevel) *LimitedLogger {
	ll := New(file, level)
	SetGlobal(ll)
	return ll
}

// Open opens (or creates) the log file at path and installs a global logger on it.
// An empty path logs to stderr. Caller must Close the returned logger.
func Open(path string, level LogLevel) (*LimitedLogger, error) {
	if path == "" {
		// stderr may be redirected to a regular file; never rotate or close it
		ll := &LimitedLogger{out: os.Stderr, level: level, now: time.Now}
		SetGlobal(ll)
		return ll, nil
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return NewLimitedLogger(f, level), nil
}

// SetGlobal installs ll as the package-level logger. A nil ll restores the stderr default.
func SetGlobal(ll *LimitedLogger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = ll
}

// SetMaxLines changes the rotation threshold. Zero or negative disables rotation.
func (ll *LimitedLogger) SetMaxLines(n int) {
	ll.mutex.Lock()
	defer ll.mutex.Unlock()
	ll.maxLines = n
}

// SetLevel sets the logging level
func (ll *LimitedLogger) SetLevel(level LogLevel) {
	ll.mutex.Lock()
	defer ll.mutex.Unlock()
	ll.level = level
}

// SetGlobalLevel sets the logging level on the global logger
func SetGlobalLevel(level LogLevel) {
	current().SetLevel(level)
}

func (ll *LimitedLogger) shouldLog(level LogLevel) bool {
	ll.mutex.Lock()
	defer ll.mutex.Unlock()
	return level >= ll.level
}

func (ll *LimitedLogger) logWithLevel(level LogLevel, format string, v ...any) {
	if !ll.shouldLog(level) {
		return
	}
	msg := fmt.Sprintf("%s [%s] %s\n", ll.now().Format("2006/01/02 15:04:05"), level.String(), fmt.Sprintf(format, v...))
	ll.Write([]byte(msg))
}

// Debug logs a debug message
func (ll *LimitedLogger) Debug(format string, v ...any) {
	ll.logWithLevel(LogLevelDebug, format, v...)
}

// Info logs an info message
func (ll *LimitedLogger) Info(format string, v ...any) {
	ll.logWithLevel(LogLevelInfo, format, v...)
}

// Warn logs a warning message
func (ll *LimitedLogger) Warn(format string, v ...any) {
	ll.logWithLevel(LogLevelWarn, format, v...)
}

// Error logs an error message
func (ll *LimitedLogger) Error(format string, v ...any) {
	ll.logWithLevel(LogLevelError, format, v...)
}

func Debug(format string, v ...any) { current().Debug(format, v...) }

func Info(format string, v ...any) { current().Info(format, v...) }

func Warn(format string, v ...any) { current().Warn(format, v...) }

func Error(format string, v ...any) { current().Error(format, v...) }

// countExistingLines counts the lines already in the log file
func (ll *LimitedLogger) countExistingLines() {
	ll.mutex.Lock()
	defer ll.mutex.Unlock()

	ll.file.Seek(0, io.SeekStart)
	scanner := bufio.NewScanner(ll.file)
	count := 0
	for scanner.Scan() {
		count++
	}
	ll.lineCount = count
	ll.file.Seek(0, io.SeekEnd)
}

// Write implements io.Writer so the logger can back the standard log package
func (ll *LimitedLogger) Write(p []byte) (n int, err error) {
	ll.mutex.Lock()
	defer ll.mutex.Unlock()

	n, err = ll.out.Write(p)
	if err != nil || ll.file == nil {
		return n, err
	}

	ll.lineCount += strings.Count(string(p), "\n")
	if ll.maxLines > 0 && ll.lineCount > ll.maxLines {
		ll.rotateLogFile()
	}
	return n, err
}

// rotateLogFile trims the log file to its last maxLines lines
func (ll *LimitedLogger) rotateLogFile() {
	ll.file.Seek(0, io.SeekStart)
	scanner := bufio.NewScanner(ll.file)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) > ll.maxLines {
		lines = lines[len(lines)-ll.maxLines:]
	}

	ll.file.Truncate(0)
	ll.file.Seek(0, io.SeekStart)
	for _, line := range lines {
		ll.file.WriteString(line + "\n")
	}
	ll.lineCount = len(lines)
}

// Close closes the underlying file, if any. Stderr is never closed.
func (ll *LimitedLogger) Close() error {
	if ll.file == nil {
		return nil
	}
	return ll.file.Close()
}
