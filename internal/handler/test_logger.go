package handler

import (
	"sync"

	"doc-analyzer/internal/domain"
)

// Mock logger used by handler package tests.
type MockHandlerLogger struct {
	mu       sync.Mutex
	messages []string
}

func NewMockHandlerLogger() domain.Logger {
	return &MockHandlerLogger{}
}

func (l *MockHandlerLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *MockHandlerLogger) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.messages...)
}

func (l *MockHandlerLogger) Info(msg string, fields ...interface{})             { l.record(msg) }
func (l *MockHandlerLogger) Error(msg string, err error, fields ...interface{}) { l.record(msg) }
func (l *MockHandlerLogger) Debug(msg string, fields ...interface{})            { l.record(msg) }
func (l *MockHandlerLogger) Warn(msg string, fields ...interface{})             { l.record(msg) }
