// Package query builds URL query string from ordered name/value pairs.
package query

import (
	"strings"
)

const lowerhex = "0123456789abcdef"

type Pair struct {
	Name  string
	Value string
	// Unset pair is omitted from output, neither name nor "=" is sent.
	Set bool
}

func P(name, value string) Pair { return Pair{Name: name, Value: value, Set: true} }
func Absent(name string) Pair   { return Pair{Name: name} }

// Pairs order is preserved on the wire.
type Pairs []Pair

func (ps Pairs) Get(name string) (string, bool) {
	for _, p := range ps {
		if p.Name == name && p.Set {
			return p.Value, true
		}
	}
	return "", false
}

// Encode gives "k1=v1&k2=v2" with values escaped, names as is.
// No set pairs gives "".
func (ps Pairs) Encode() string {
	var b strings.Builder
	for _, p := range ps {
		if !p.Set {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.Name)
		b.WriteByte('=')
		escapeTo(&b, p.Value)
	}
	return b.String()
}

func (ps Pairs) String() string { return ps.Encode() }

func shouldEscape(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return false
	case c == '-', c == '_', c == '.', c == '~':
		return false
	}
	return true
}

// Escape percent-encodes every byte except [A-Za-z0-9-_.~], hex in lower case.
// Input is treated as bytes, multi-byte characters are encoded byte by byte.
func Escape(s string) string {
	var b strings.Builder
	escapeTo(&b, s)
	return b.String()
}

func escapeTo(b *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldEscape(c) {
			b.WriteByte('%')
			b.WriteByte(lowerhex[c>>4])
			b.WriteByte(lowerhex[c&0xf])
		} else {
			b.WriteByte(c)
		}
	}
}
