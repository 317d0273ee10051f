package seriallink

import (
	"bytes"
	"errors"
	"sync"
)

// ErrPortClosed is returned by MockPort after Close.
var ErrPortClosed = errors.New("port closed")

// MockPort is an in-memory Port for tests.
type MockPort struct {
	mu     sync.Mutex
	Input  bytes.Buffer
	Output bytes.Buffer
	closed bool
}

func (m *MockPort) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrPortClosed
	}
	return m.Input.Read(p)
}

func (m *MockPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrPortClosed
	}
	return m.Output.Write(p)
}

func (m *MockPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockPort) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// MockFactory records Open calls and hands out Port.
type MockFactory struct {
	Port    *MockPort
	Err     error
	Path    string
	Options PortOptions
	Calls   int
}

func (f *MockFactory) Open(path string, opts PortOptions) (Port, error) {
	f.Calls++
	f.Path = path
	f.Options = opts
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Port == nil {
		f.Port = &MockPort{}
	}
	return f.Port, nil
}
