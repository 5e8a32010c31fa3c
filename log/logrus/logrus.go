// Package logrus adapts a logrus.Entry to the accountsync.Logger interface.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/satoshi-watanabe-0001/accountsync"
)

type Logger struct{ E *logrus.Entry }

var _ accountsync.Logger = Logger{}

func (l Logger) Debug(msg string, f accountsync.Fields) {
	l.E.WithFields(logrus.Fields(f)).Debug(msg)
}
func (l Logger) Info(msg string, f accountsync.Fields) {
	l.E.WithFields(logrus.Fields(f)).Info(msg)
}
func (l Logger) Warn(msg string, f accountsync.Fields) {
	l.E.WithFields(logrus.Fields(f)).Warn(msg)
}
func (l Logger) Error(msg string, f accountsync.Fields) {
	l.E.WithFields(logrus.Fields(f)).Error(msg)
}
