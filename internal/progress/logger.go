package progress

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ErrorEntry represents an error log entry
type ErrorEntry struct {
	File      string
	Error     string
	Timestamp time.Time
}

// ErrorLogger records files that were skipped. Entries are kept in memory and,
// when a log file is configured, written to it as JSON lines. A nil
// *ErrorLogger discards everything.
type ErrorLogger struct {
	mu      sync.Mutex
	logFile string
	errors  []ErrorEntry
	sink    *lumberjack.Logger
	log     *zap.Logger
}

// NewErrorLogger creates a new error logger. An empty logFile keeps entries
// in memory only.
func NewErrorLogger(logFile string) (*ErrorLogger, error) {
	logger := &ErrorLogger{
		logFile: logFile,
		errors:  []ErrorEntry{},
		log:     zap.NewNop(),
	}

	if logFile != "" {
		dir := filepath.Dir(logFile)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("could not create log directory: %w", err)
		}

		// Fail now rather than on the first skipped file.
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("could not open log file: %w", err)
		}
		f.Close()

		logger.sink = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // MB
			MaxBackups: 3,
		}
		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(logger.sink),
			zapcore.InfoLevel,
		)
		logger.log = zap.New(core)
	}

	return logger, nil
}

// Log logs an error for a file.
func (l *ErrorLogger) Log(filePath, errorMsg string) {
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry := ErrorEntry{
		File:      filePath,
		Error:     errorMsg,
		Timestamp: time.Now(),
	}
	l.errors = append(l.errors, entry)

	l.log.Error("file skipped",
		zap.String("file", filePath),
		zap.String("error", errorMsg))
}

// Entries returns a copy of the logged entries.
func (l *ErrorLogger) Entries() []ErrorEntry {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ErrorEntry(nil), l.errors...)
}

// Summary returns a summary of logged errors.
func (l *ErrorLogger) Summary() string {
	n := l.ErrorCount()
	if n == 0 {
		return "No errors"
	}
	if l.logFile == "" {
		return fmt.Sprintf("%d errors", n)
	}
	return fmt.Sprintf("%d errors logged to %s", n, l.logFile)
}

// ErrorCount returns the number of logged errors.
func (l *ErrorLogger) ErrorCount() int {
	if l == nil {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errors)
}

// Close flushes and closes the log file.
func (l *ErrorLogger) Close() error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sink == nil {
		return nil
	}
	_ = l.log.Sync()
	return l.sink.Close()
}
