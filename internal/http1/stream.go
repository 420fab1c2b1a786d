package http1

import (
	"context"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/juju/errors"
)

const (
	DefaultDialTimeout  = 5 * time.Second
	DefaultWriteTimeout = 15 * time.Second
	// how long Poll may block on socket before reporting "no byte yet"
	DefaultReadWindow = time.Millisecond
)

type Poller interface {
	// Poll returns next byte or ok=false when none is available right now.
	// Closed or broken stream never has bytes available.
	Poll() (c byte, ok bool)
}

// Stream is byte oriented connection to collector.
type Stream interface {
	io.Writer
	io.Closer
	Poller
}

type Dialer interface {
	Dial(ctx context.Context, host string, port int) (Stream, error)
}

type NetDialer struct {
	DialTimeout  time.Duration
	WriteTimeout time.Duration
	ReadWindow   time.Duration
}

func (d *NetDialer) Dial(ctx context.Context, host string, port int) (Stream, error) {
	dialer := net.Dialer{Timeout: d.DialTimeout}
	if dialer.Timeout <= 0 {
		dialer.Timeout = DefaultDialTimeout
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Annotatef(err, "dial addr=%s", addr)
	}
	return NewConnStream(conn, d.WriteTimeout, d.ReadWindow), nil
}

type connStream struct {
	conn         net.Conn
	writeTimeout time.Duration
	readWindow   time.Duration
	buf          [512]byte
	r, w         int
	err          error
}

// NewConnStream adapts net.Conn to Stream.
// Poll reads with short deadline, timeout means "no byte yet".
func NewConnStream(conn net.Conn, writeTimeout, readWindow time.Duration) Stream {
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	if readWindow <= 0 {
		readWindow = DefaultReadWindow
	}
	return &connStream{conn: conn, writeTimeout: writeTimeout, readWindow: readWindow}
}

func (s *connStream) Write(p []byte) (int, error) {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		return 0, errors.Trace(err)
	}
	n, err := s.conn.Write(p)
	return n, errors.Trace(err)
}

func (s *connStream) Close() error { return s.conn.Close() }

func (s *connStream) Poll() (byte, bool) {
	if s.r < s.w {
		c := s.buf[s.r]
		s.r++
		return c, true
	}
	if s.err != nil {
		return 0, false
	}
	if err := s.conn.SetReadDeadline(time.Now().Add(s.readWindow)); err != nil {
		s.err = err
		return 0, false
	}
	n, err := s.conn.Read(s.buf[:])
	s.r, s.w = 0, n
	if err != nil {
		if ne, ok := err.(net.Error); !ok || !ne.Timeout() {
			s.err = err
		}
	}
	if n == 0 {
		return 0, false
	}
	s.r = 1
	return s.buf[0], true
}
