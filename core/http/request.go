package http

// Method is an HTTP request method understood by the server
type Method uint8

const (
	MethodGet Method = iota + 1
	MethodHead
)

// String returns the method token as it appears on the wire
func (m Method) String() string {
	switch m {
	case MethodGet:
		return "GET"
	case MethodHead:
		return "HEAD"
	default:
		return "UNKNOWN"
	}
}

func parseMethod(token string) (Method, bool) {
	switch token {
	case "GET":
		return MethodGet, true
	case "HEAD":
		return MethodHead, true
	}
	return 0, false
}

// RangeKind tells which form of byte range a client asked for
type RangeKind uint8

const (
	// RangeFrom is "bytes=<start>-"
	RangeFrom RangeKind = iota + 1
	// RangeFull is "bytes=<start>-<end>"
	RangeFull
	// RangeSuffix is "bytes=-<n>", the last n bytes
	RangeSuffix
)

// RangeSpec is the parsed Range header. A nil *RangeSpec means the whole resource.
type RangeSpec struct {
	Kind  RangeKind
	Start int64
	End   int64 // inclusive, RangeFull only
	N     int64 // RangeSuffix only
}

// From returns an open range starting at start
func From(start int64) *RangeSpec {
	return &RangeSpec{Kind: RangeFrom, Start: start}
}

// Full returns a closed range [start, end]
func Full(start, end int64) *RangeSpec {
	return &RangeSpec{Kind: RangeFull, Start: start, End: end}
}

// Suffix returns a range covering the last n bytes
func Suffix(n int64) *RangeSpec {
	return &RangeSpec{Kind: RangeSuffix, N: n}
}

// Request is a parsed request head. It is not modified after ParseRequest returns.
type Request struct {
	Method  Method
	Path    string // percent-decoded, query removed
	RawPath string // request target as received
	Proto   string

	Host      string
	RealIP    string // X-Real-IP, taken at face value
	UserAgent string

	Range *RangeSpec
}

// IsHead reports whether the response body must be suppressed
func (r *Request) IsHead() bool {
	return r.Method == MethodHead
}

// setHeader stores a recognized header. key must already be lower-case.
func (r *Request) setHeader(key, value string) {
	switch key {
	case "host":
		r.Host = value
	case "range":
		r.Range = parseRange(value)
	case "x-real-ip":
		r.RealIP = value
	case "user-agent":
		r.UserAgent = value
	}
}
