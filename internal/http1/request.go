package http1

import (
	"bytes"
	"io"

	"github.com/temoto/iotrack/helpers"
	"github.com/temoto/iotrack/internal/query"
)

const crlf = "\r\n"

type Request struct {
	Host      string
	Path      string
	Query     query.Pairs
	UserAgent string
}

// Target is request-target, "path?query" or just path when query is empty.
func (r *Request) Target() string {
	path := r.Path
	if path == "" {
		path = "/"
	}
	qs := r.Query.Encode()
	if qs == "" {
		return path
	}
	return path + "?" + qs
}

func (r *Request) Bytes() []byte {
	var b bytes.Buffer
	b.Grow(256)
	b.WriteString("GET ")
	b.WriteString(r.Target())
	b.WriteString(" HTTP/1.1" + crlf)
	b.WriteString("Host: " + r.Host + crlf)
	b.WriteString("User-Agent: " + r.UserAgent + crlf)
	b.WriteString("Connection: close" + crlf)
	b.WriteString(crlf)
	return b.Bytes()
}

// WriteTo writes whole request, retrying short writes.
func (r *Request) WriteTo(w io.Writer) (int64, error) {
	b := r.Bytes()
	if err := helpers.WriteAll(w, b); err != nil {
		return 0, err
	}
	return int64(len(b)), nil
}
