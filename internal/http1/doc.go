// Package http1 is minimal HTTP/1.1 client side for constrained devices:
// write GET request, read status line byte by byte with polling and timeout.
// Response headers and body are ignored, the collector closes connection.
//
// Status line parser is explicit state machine fed one byte at a time,
// testable without sockets via MockStream.
package http1
