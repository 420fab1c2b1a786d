package http1

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/iotrack/internal/query"
)

func TestRequestBytes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		req    Request
		expect string
	}{
		{"query",
			Request{Host: "collector.example", Path: "/i", UserAgent: "iotrack/test",
				Query: query.Pairs{query.P("e", "se"), query.Absent("ev_la"), query.P("ev_ca", "a b")}},
			"GET /i?e=se&ev_ca=a%20b HTTP/1.1\r\nHost: collector.example\r\nUser-Agent: iotrack/test\r\nConnection: close\r\n\r\n"},
		{"empty-query",
			Request{Host: "h", Path: "/i", UserAgent: "ua", Query: query.Pairs{query.Absent("x")}},
			"GET /i HTTP/1.1\r\nHost: h\r\nUser-Agent: ua\r\nConnection: close\r\n\r\n"},
		{"empty-path",
			Request{Host: "h", UserAgent: "ua"},
			"GET / HTTP/1.1\r\nHost: h\r\nUser-Agent: ua\r\nConnection: close\r\n\r\n"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, c.expect, string(c.req.Bytes()))
			assert.NotContains(t, c.req.Target(), "?&")
		})
	}
}

type chunkWriter struct {
	buf   bytes.Buffer
	limit int
	calls int
	stall int // after this many calls, accept nothing; 0 disables
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	w.calls++
	if w.stall != 0 && w.calls > w.stall {
		return 0, nil
	}
	if len(p) > w.limit {
		p = p[:w.limit]
	}
	return w.buf.Write(p)
}

func TestRequestWriteShort(t *testing.T) {
	t.Parallel()

	req := Request{Host: "h", Path: "/i", UserAgent: "ua", Query: query.Pairs{query.P("tid", "1")}}
	w := &chunkWriter{limit: 7}
	n, err := req.WriteTo(w)
	require.NoError(t, err)
	assert.Equal(t, int64(len(req.Bytes())), n)
	assert.Equal(t, string(req.Bytes()), w.buf.String())
	assert.True(t, w.calls > 1)
}

func TestRequestWriteStalled(t *testing.T) {
	t.Parallel()

	req := Request{Host: "h", Path: "/i", UserAgent: "ua", Query: query.Pairs{query.P("tid", "1")}}
	w := &chunkWriter{limit: 7, stall: 2}
	n, err := req.WriteTo(w)
	assert.Equal(t, io.ErrShortWrite, err)
	assert.Equal(t, int64(0), n)
	assert.Equal(t, string(req.Bytes()[:14]), w.buf.String())
	assert.Equal(t, 3, w.calls)
}

func TestRequestWriteError(t *testing.T) {
	t.Parallel()

	m := NewMockStream("")
	m.WriteErr = assert.AnError
	req := Request{Host: "h", Path: "/i"}
	_, err := req.WriteTo(m)
	assert.Equal(t, assert.AnError, err)
	assert.Equal(t, "", m.Written())
}
