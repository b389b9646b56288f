package utils

import (
	"github.com/sirupsen/logrus"
)

// Logger is safe to use as nil, in which case the standard logrus logger is used.
type Logger struct {
	logrus.FieldLogger
}

func NewLogger(l logrus.FieldLogger) *Logger {
	return &Logger{FieldLogger: l}
}

func (l *Logger) logger() logrus.FieldLogger {
	if l == nil || l.FieldLogger == nil {
		return logrus.StandardLogger()
	}
	return l.FieldLogger
}

func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{FieldLogger: l.logger().WithField(key, value)}
}

func (l *Logger) Printf(format string, a ...interface{}) {
	l.logger().Debugf(format, a...)
}

func (l *Logger) Warnf(format string, a ...interface{}) {
	l.logger().Warnf(format, a...)
}

func (l *Logger) Errorf(format string, a ...interface{}) {
	l.logger().Errorf(format, a...)
}
