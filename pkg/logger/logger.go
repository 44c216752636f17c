// Package logger is a small leveled logger for the interpreter and its
// CLI front ends. There is no structured-logging library anywhere in the
// reference corpus this module was grown from, so this stays on the
// standard library the way the teacher project's own logger does.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"
)

// LogLevel represents different logging levels
type LogLevel int

const (
	LogLevelOff LogLevel = iota
	LogLevelError
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

// Logger handles all logging for the interpreter
type Logger struct {
	level        LogLevel
	writer       io.Writer
	cpuEnabled   bool
	busEnabled   bool
	excEnabled   bool
	cacheEnabled bool
}

var globalLogger *Logger

// Initialize sets up the global logger
func Initialize(level LogLevel, filename string) error {
	var writer io.Writer = os.Stdout

	if filename != "" {
		file, err := os.Create(filename)
		if err != nil {
			return fmt.Errorf("failed to create log file: %w", err)
		}
		writer = file
	}

	globalLogger = &Logger{
		level:        level,
		writer:       writer,
		cpuEnabled:   true,
		busEnabled:   false,
		excEnabled:   true,
		cacheEnabled: false,
	}

	return nil
}

// SetCPULogging enables or disables per-instruction CPU logging
func SetCPULogging(enabled bool) {
	if globalLogger != nil {
		globalLogger.cpuEnabled = enabled
	}
}

// SetBusLogging enables or disables bus access logging
func SetBusLogging(enabled bool) {
	if globalLogger != nil {
		globalLogger.busEnabled = enabled
	}
}

// SetExceptionLogging enables or disables exception-processing logging
func SetExceptionLogging(enabled bool) {
	if globalLogger != nil {
		globalLogger.excEnabled = enabled
	}
}

// SetCacheLogging enables or disables 68020 instruction-cache logging
func SetCacheLogging(enabled bool) {
	if globalLogger != nil {
		globalLogger.cacheEnabled = enabled
	}
}

// LogCPU logs instruction dispatch and execution
func LogCPU(format string, args ...interface{}) {
	if globalLogger != nil && globalLogger.cpuEnabled && globalLogger.level >= LogLevelDebug {
		emit(globalLogger.writer, "CPU", format, args...)
	}
}

// LogBus logs bus reads and writes
func LogBus(format string, args ...interface{}) {
	if globalLogger != nil && globalLogger.busEnabled && globalLogger.level >= LogLevelTrace {
		emit(globalLogger.writer, "BUS", format, args...)
	}
}

// LogExc logs exception processing (traps, address errors, interrupts)
func LogExc(format string, args ...interface{}) {
	if globalLogger != nil && globalLogger.excEnabled && globalLogger.level >= LogLevelWarn {
		emit(globalLogger.writer, "EXC", format, args...)
	}
}

// LogCache logs 68020 instruction-cache hits, misses, and installs
func LogCache(format string, args ...interface{}) {
	if globalLogger != nil && globalLogger.cacheEnabled && globalLogger.level >= LogLevelTrace {
		emit(globalLogger.writer, "CACHE", format, args...)
	}
}

// LogInfo logs general information
func LogInfo(format string, args ...interface{}) {
	if globalLogger != nil && globalLogger.level >= LogLevelInfo {
		emit(globalLogger.writer, "INFO", format, args...)
	}
}

// LogError logs errors
func LogError(format string, args ...interface{}) {
	if globalLogger != nil && globalLogger.level >= LogLevelError {
		emit(globalLogger.writer, "ERROR", format, args...)
	}
}

// LogDebug logs debug information
func LogDebug(format string, args ...interface{}) {
	if globalLogger != nil && globalLogger.level >= LogLevelDebug {
		emit(globalLogger.writer, "DEBUG", format, args...)
	}
}

func emit(w io.Writer, tag, format string, args ...interface{}) {
	timestamp := time.Now().Format("15:04:05.000")
	message := fmt.Sprintf(format, args...)
	fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, tag, message)
}

// GetLogLevelFromString converts string to LogLevel
func GetLogLevelFromString(level string) LogLevel {
	switch level {
	case "off":
		return LogLevelOff
	case "error":
		return LogLevelError
	case "warn":
		return LogLevelWarn
	case "info":
		return LogLevelInfo
	case "debug":
		return LogLevelDebug
	case "trace":
		return LogLevelTrace
	default:
		return LogLevelInfo
	}
}

// Close closes the logger and any associated files
func Close() {
	if globalLogger != nil {
		if file, ok := globalLogger.writer.(*os.File); ok && file != os.Stdout && file != os.Stderr {
			file.Close()
		}
	}
}
