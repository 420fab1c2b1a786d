package http1

// Public API to easy create connection stubs to test your code.
import (
	"bytes"
	"context"
	"sync"

	"github.com/juju/errors"
)

// MockStream serves scripted response bytes and records written request.
type MockStream struct {
	mu       sync.Mutex
	response []byte
	written  bytes.Buffer
	closed   int
	polls    int

	// StallEvery N-th poll reports no byte, simulates partial reads. 0 disables.
	StallEvery int
	WriteErr   error
}

func NewMockStream(response string) *MockStream {
	return &MockStream{response: []byte(response)}
}

// Append makes more response bytes available, e.g. after a simulated delay.
func (m *MockStream) Append(b []byte) {
	m.mu.Lock()
	m.response = append(m.response, b...)
	m.mu.Unlock()
}

func (m *MockStream) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return 0, m.WriteErr
	}
	if m.closed > 0 {
		return 0, errors.New("mock stream write after close")
	}
	return m.written.Write(p)
}

func (m *MockStream) Poll() (byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.polls++
	if m.closed > 0 || len(m.response) == 0 {
		return 0, false
	}
	if m.StallEvery > 0 && m.polls%m.StallEvery == 0 {
		return 0, false
	}
	c := m.response[0]
	m.response = m.response[1:]
	return c, true
}

func (m *MockStream) Close() error {
	m.mu.Lock()
	m.closed++
	m.mu.Unlock()
	return nil
}

func (m *MockStream) Written() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written.String()
}

func (m *MockStream) Closed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Unread is response bytes not consumed yet.
func (m *MockStream) Unread() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.response)
}

type dialRecord struct {
	Host string
	Port int
}

// MockDialer returns new MockStream with Response for each Dial, or Err.
type MockDialer struct {
	mu      sync.Mutex
	dials   []dialRecord
	streams []*MockStream

	Response   string
	StallEvery int
	Err        error
}

func (d *MockDialer) Dial(ctx context.Context, host string, port int) (Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials = append(d.dials, dialRecord{Host: host, Port: port})
	if d.Err != nil {
		return nil, d.Err
	}
	s := NewMockStream(d.Response)
	s.StallEvery = d.StallEvery
	d.streams = append(d.streams, s)
	return s, nil
}

func (d *MockDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.dials)
}

func (d *MockDialer) LastAddr() (string, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.dials) == 0 {
		return "", 0
	}
	last := d.dials[len(d.dials)-1]
	return last.Host, last.Port
}

func (d *MockDialer) Streams() []*MockStream {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*MockStream(nil), d.streams...)
}
