// Package logx wraps mgutz/logxi behind the three call sites the
// runner package needs: compiled-statement debug logging, slow-query
// warnings and reconnect notices. It exists so runner.go stays free of
// logxi's own initialization quirks (global ignore filters, writer
// configuration) the way the teacher's sqlx-runner centralizes them in
// init.go.
package logx

import "github.com/mgutz/logxi/v1"

// Logger is the narrow logging surface runner consumes.
type Logger interface {
	Debug(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Info(msg string, args ...interface{})
}

// New returns a named logxi logger.
func New(name string) Logger {
	return log.New(name)
}

// Discard is a Logger that drops everything, the default for a
// runner.DB constructed without an explicit logger.
type discard struct{}

func (discard) Debug(string, ...interface{}) {}
func (discard) Warn(string, ...interface{})  {}
func (discard) Info(string, ...interface{})  {}

// Discard is the no-op Logger.
var Discard Logger = discard{}
