package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	ErrInvalidRequest    = errors.New("invalid HTTP request")
	ErrUnsupportedMethod = fmt.Errorf("%w: unsupported method", ErrInvalidRequest)
	ErrMissingHost       = fmt.Errorf("%w: missing host header", ErrInvalidRequest)
	ErrMalformedHeader   = fmt.Errorf("%w: malformed header line", ErrInvalidRequest)
	ErrInvalidEscape     = fmt.Errorf("%w: invalid percent escape in path", ErrInvalidRequest)
	ErrInvalidPath       = fmt.Errorf("%w: path is not valid UTF-8", ErrInvalidRequest)
)

var headerEnd = []byte("\r\n\r\n")

// HeaderComplete reports whether data holds a full request head
func HeaderComplete(data []byte) bool {
	return bytes.Contains(data, headerEnd)
}

// ParseRequest parses one request head. Anything after the first empty line is ignored.
func ParseRequest(data []byte) (*Request, error) {
	line, rest := nextLine(data)
	if len(line) == 0 {
		return nil, ErrInvalidRequest
	}

	req := &Request{}
	if err := parseRequestLine(req, string(line)); err != nil {
		return nil, err
	}

	hasHost := false
	for len(rest) > 0 {
		line, rest = nextLine(rest)
		if len(line) == 0 {
			break
		}

		colon := bytes.IndexByte(line, ':')
		if colon <= 0 {
			return nil, fmt.Errorf("%w: %q", ErrMalformedHeader, line)
		}
		key := strings.ToLower(string(bytes.TrimSpace(line[:colon])))
		value := string(bytes.TrimSpace(line[colon+1:]))
		if key == "host" {
			hasHost = true
		}
		req.setHeader(key, value)
	}

	if !hasHost {
		return nil, ErrMissingHost
	}
	return req, nil
}

// nextLine splits off the first line, dropping the "\n" and a trailing "\r"
func nextLine(data []byte) (line, rest []byte) {
	i := bytes.IndexByte(data, '\n')
	if i == -1 {
		line, rest = data, nil
	} else {
		line, rest = data[:i], data[i+1:]
	}
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line, rest
}

func parseRequestLine(req *Request, line string) error {
	fields := strings.Split(line, " ")
	if len(fields) != 3 {
		return fmt.Errorf("%w: request line %q", ErrInvalidRequest, line)
	}

	method, ok := parseMethod(fields[0])
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedMethod, fields[0])
	}

	if !validProto(fields[2]) {
		return fmt.Errorf("%w: protocol %q", ErrInvalidRequest, fields[2])
	}

	target := fields[1]
	if !strings.HasPrefix(target, "/") {
		return fmt.Errorf("%w: request target %q", ErrInvalidRequest, target)
	}

	path, err := decodePath(target)
	if err != nil {
		return err
	}

	req.Method = method
	req.RawPath = target
	req.Path = path
	req.Proto = fields[2]
	return nil
}

// validProto accepts "HTTP/1.<minor>"
func validProto(proto string) bool {
	minor, ok := strings.CutPrefix(proto, "HTTP/1.")
	if !ok || minor == "" {
		return false
	}
	for i := 0; i < len(minor); i++ {
		if minor[i] < '0' || minor[i] > '9' {
			return false
		}
	}
	return true
}

// decodePath drops the query and fragment and resolves %XY escapes
func decodePath(target string) (string, error) {
	if i := strings.IndexAny(target, "?#"); i != -1 {
		target = target[:i]
	}

	path, err := url.PathUnescape(target)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEscape, err)
	}
	if !utf8.ValidString(path) {
		return "", ErrInvalidPath
	}
	return path, nil
}

// parseRange parses "bytes=<start>-<end>". Anything it does not understand
// yields nil so the whole resource is served.
func parseRange(value string) *RangeSpec {
	if len(value) < 6 || !strings.EqualFold(value[:6], "bytes=") {
		return nil
	}
	start, end, ok := strings.Cut(value[6:], "-")
	if !ok {
		return nil
	}
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)

	switch {
	case start == "" && end == "":
		return nil
	case start == "":
		n, ok := parseOffset(end)
		if !ok {
			return nil
		}
		return Suffix(n)
	case end == "":
		s, ok := parseOffset(start)
		if !ok {
			return nil
		}
		return From(s)
	default:
		s, ok1 := parseOffset(start)
		e, ok2 := parseOffset(end)
		if !ok1 || !ok2 || e < s {
			return nil
		}
		return Full(s, e)
	}
}

func parseOffset(s string) (int64, bool) {
	// ParseInt would accept a leading sign
	if s[0] < '0' || s[0] > '9' {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
