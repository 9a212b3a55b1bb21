package libevents

import "github.com/stretchr/testify/mock"

// mockLogger records WithField, Debugf and Warnf; the remaining methods
// are no-ops.
type mockLogger struct {
	noopLogger
	mock.Mock
}

func (m *mockLogger) WithField(key string, value any) Logger {
	args := m.Called(key, value)
	return args.Get(0).(Logger)
}

func (m *mockLogger) Debugf(format string, args ...any) {
	m.Called(append([]any{format}, args...)...)
}

func (m *mockLogger) Warnf(format string, args ...any) {
	m.Called(append([]any{format}, args...)...)
}
