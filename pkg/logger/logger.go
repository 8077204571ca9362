// Package logger is the process-wide log sink for the CLI and the HTTP server.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

var (
	globalLogger *log.Logger
	logFile      *os.File
	output       io.Writer = io.Discard
	verbose      bool
	mu           sync.Mutex
)

// Init initializes the global logger with the specified log file path.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	// Close previous log file if exists
	if logFile != nil {
		logFile.Close()
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	logFile = f
	output = f
	globalLogger = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds)

	return nil
}

// SetOutput sends log lines to w instead of a file. Passing nil disables logging.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	if w == nil {
		output = io.Discard
		globalLogger = nil
		return
	}
	output = w
	globalLogger = log.New(w, "", log.Ldate|log.Ltime|log.Lmicroseconds)
}

// SetVerbose enables Debug output.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// Close closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	output = io.Discard
	globalLogger = nil
}

// Info logs an info message.
func Info(format string, v ...interface{}) {
	logf("[INFO] ", format, v...)
}

// Debug logs a debug message when verbose logging is on.
func Debug(format string, v ...interface{}) {
	mu.Lock()
	on := verbose
	mu.Unlock()

	if on {
		logf("[DEBUG] ", format, v...)
	}
}

// Error logs an error message.
func Error(format string, v ...interface{}) {
	logf("[ERROR] ", format, v...)
}

// Warn logs a warning message.
func Warn(format string, v ...interface{}) {
	logf("[WARN] ", format, v...)
}

func logf(prefix, format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger != nil {
		globalLogger.Printf(prefix+format, v...)
	}
}

// GetWriter returns the underlying writer, e.g. for the HTTP access log.
func GetWriter() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return output
}
