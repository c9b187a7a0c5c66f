// Package logging provides the leveled logging wrapper used throughout
// internal/core and internal/adapters: a thin filter over log.Printf, not
// a third-party logging library.
package logging

import (
	"log"

	"github.com/tobogganhq/toboggan/internal/domain/entities"
)

// Logger provides structured, leveled logging for one component.
type Logger struct {
	component string
	verbose   bool
	level     entities.LogLevel
}

// New creates a logger at the default (info) level.
func New(component string, verbose bool) *Logger {
	return &Logger{component: component, verbose: verbose, level: entities.LogLevelInfo}
}

// NewWithLevel creates a logger at a specific level.
func NewWithLevel(component string, verbose bool, level entities.LogLevel) *Logger {
	return &Logger{component: component, verbose: verbose, level: level}
}

func (l *Logger) shouldLog(msgLevel entities.LogLevel) bool {
	order := map[entities.LogLevel]int{
		entities.LogLevelDebug: 0,
		entities.LogLevelInfo:  1,
		entities.LogLevelWarn:  2,
		entities.LogLevelError: 3,
	}
	return order[msgLevel] >= order[l.level]
}

// Debug logs a debug-level message.
func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.shouldLog(entities.LogLevelDebug) {
		log.Printf("[DEBUG] [%s] "+msg, append([]interface{}{l.component}, args...)...)
	}
}

// Info logs an info-level message.
func (l *Logger) Info(msg string, args ...interface{}) {
	if l.shouldLog(entities.LogLevelInfo) {
		log.Printf("[INFO] [%s] "+msg, append([]interface{}{l.component}, args...)...)
	}
}

// Warn logs a warn-level message.
func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.shouldLog(entities.LogLevelWarn) {
		log.Printf("[WARN] [%s] "+msg, append([]interface{}{l.component}, args...)...)
	}
}

// Error logs an error-level message. Always logged.
func (l *Logger) Error(msg string, args ...interface{}) {
	if l.shouldLog(entities.LogLevelError) {
		log.Printf("[ERROR] [%s] "+msg, append([]interface{}{l.component}, args...)...)
	}
}

// SetLevel updates the logger's minimum level.
func (l *Logger) SetLevel(level entities.LogLevel) {
	l.level = level
}
