package log

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Ensure logrusLogger implements the Logger interface
var _ Logger = (*logrusLogger)(nil)

// logrusLogger wraps logrus to satisfy the Logger interface
type logrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger creates and configures a new logger instance using logrus.
// When logDir is non-empty it logs to both console and logDir/armctl.log.
func NewLogrusLogger(logLevel string, logDir string) (Logger, error) {
	l := logrus.New()

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel // Default to Info if parsing fails
	}
	l.SetLevel(level)

	l.SetFormatter(&SimpleFormatter{
		TimestampFormat: "2006/01/02 15:04:05.000000",
	})

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory '%s': %w", logDir, err)
		}
		logFilePath := filepath.Join(logDir, "armctl.log")
		logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file '%s': %w", logFilePath, err)
		}
		l.SetOutput(io.MultiWriter(os.Stdout, logFile))
	} else {
		l.SetOutput(os.Stdout)
	}

	return &logrusLogger{entry: logrus.NewEntry(l)}, nil
}

func (l *logrusLogger) Debugf(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

func (l *logrusLogger) Infof(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

func (l *logrusLogger) Warnf(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

func (l *logrusLogger) Errorf(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

func (l *logrusLogger) Fatalf(format string, args ...interface{}) {
	l.entry.Fatalf(format, args...)
}

// SimpleFormatter formats logs in a concise way, similar to the standard log package.
// Example: 2025/04/06 17:30:00 [INF] Log message here
type SimpleFormatter struct {
	TimestampFormat string
}

// Format implements the logrus.Formatter interface
func (f *SimpleFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	timestampFormat := f.TimestampFormat
	if timestampFormat == "" {
		timestampFormat = "2006/01/02 15:04:05.000000"
	}

	b.WriteString(entry.Time.Format(timestampFormat))
	b.WriteString(" ")

	level := strings.ToUpper(entry.Level.String())
	if len(level) > 3 {
		level = level[:3]
	}
	fmt.Fprintf(b, "[%s] ", level)

	b.WriteString(entry.Message)
	b.WriteByte('\n')
	return b.Bytes(), nil
}
