package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus to provide structured logging with a fixed set of
// service fields attached to every entry.
type Logger struct {
	entry *logrus.Entry
}

// Init configures the global logrus instance. All loggers created with New
// share this configuration.
func Init(level logrus.Level) {
	logrus.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(level)
}

// ParseLevel converts a config-file level string into a logrus level,
// falling back to Info when the string is empty or unknown.
func ParseLevel(s string) logrus.Level {
	if s == "" {
		return logrus.InfoLevel
	}
	level, err := logrus.ParseLevel(s)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// New creates a Logger with the given service name and trace ID preset.
func New(serviceName, traceID string) *Logger {
	return &Logger{
		entry: logrus.WithFields(logrus.Fields{
			"service_name": serviceName,
			"trace_id":     traceID,
		}),
	}
}

// WithSession returns a Logger that tags every entry with the session ID.
func (l *Logger) WithSession(sessionID string) *Logger {
	return &Logger{entry: l.entry.WithField("session_id", sessionID)}
}

// WithField returns a Logger with an extra field attached.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// WithError returns a Logger with the error message attached.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{entry: l.entry.WithField("error", err.Error())}
}

// WithPayload returns a Logger with custom business data attached.
func (l *Logger) WithPayload(payload map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithField("payload", payload)}
}

// Info logs a message at info level.
func (l *Logger) Info(message string) {
	l.entry.Info(message)
}

// Warn logs a message at warning level.
func (l *Logger) Warn(message string) {
	l.entry.Warn(message)
}

// Error logs a message at error level.
func (l *Logger) Error(message string) {
	l.entry.Error(message)
}

// Debug logs a message at debug level.
func (l *Logger) Debug(message string) {
	l.entry.Debug(message)
}

// Fatal logs a message at fatal level and terminates the process.
func (l *Logger) Fatal(message string) {
	l.entry.Fatal(message)
}
