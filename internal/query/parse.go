package query

import (
	"strings"

	"github.com/juju/errors"
)

// Unescape reverses Escape, accepts hex in any case.
// '+' is literal, unlike form encoding.
func Unescape(s string) (string, error) {
	if strings.IndexByte(s, '%') < 0 {
		return s, nil
	}
	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '%' {
			b = append(b, c)
			continue
		}
		if i+2 >= len(s) {
			return "", errors.NotValidf("escape sequence at offset=%d in %q", i, s)
		}
		hi, ok1 := unhex(s[i+1])
		lo, ok2 := unhex(s[i+2])
		if !ok1 || !ok2 {
			return "", errors.NotValidf("escape sequence %q at offset=%d", s[i:i+3], i)
		}
		b = append(b, hi<<4|lo)
		i += 2
	}
	return string(b), nil
}

// Parse splits raw query string into pairs, values unescaped.
// Used by test collectors to inspect what tracker sent.
func Parse(raw string) (Pairs, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, "&")
	ps := make(Pairs, 0, len(parts))
	for _, part := range parts {
		eq := strings.IndexByte(part, '=')
		if eq <= 0 {
			return nil, errors.NotValidf("query pair %q", part)
		}
		v, err := Unescape(part[eq+1:])
		if err != nil {
			return nil, errors.Annotatef(err, "query name=%s", part[:eq])
		}
		ps = append(ps, P(part[:eq], v))
	}
	return ps, nil
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
