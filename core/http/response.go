package http

import (
	"io"
	"net"
	"strconv"
)

// Status is one of the response codes the server emits
type Status int

const (
	StatusOK             Status = 200
	StatusPartialContent Status = 206
	StatusBadRequest     Status = 400
	StatusNotFound       Status = 404
)

// Code returns the numeric status code
func (s Status) Code() int {
	return int(s)
}

// Text returns the reason phrase
func (s Status) Text() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusPartialContent:
		return "Partial Content"
	case StatusBadRequest:
		return "Bad Request"
	case StatusNotFound:
		return "Not Found"
	default:
		return "Unknown"
	}
}

// ResolvedRange is the slice of a resource actually carried by one response
type ResolvedRange struct {
	Start int64
	End   int64 // inclusive
	Total int64
}

// Len returns the number of bytes covered by the range
func (r ResolvedRange) Len() int64 {
	return r.End - r.Start + 1
}

// Content is a response payload
type Content struct {
	ContentType string
	Bytes       []byte
	Range       *ResolvedRange
}

// HTML wraps a rendered page
func HTML(page []byte) *Content {
	return &Content{ContentType: MIMETextHTML, Bytes: page}
}

// Text wraps a plain-text message
func Text(s string) *Content {
	return &Content{ContentType: MIMETextPlain, Bytes: []byte(s)}
}

// Response is a status plus optional content
type Response struct {
	Status  Status
	Content *Content
}

// NewResponse returns a response without content
func NewResponse(status Status) *Response {
	return &Response{Status: status}
}

// WithContent attaches content. A ranged content forces 206.
func (r *Response) WithContent(c *Content) *Response {
	r.Content = c
	if c != nil && c.Range != nil {
		r.Status = StatusPartialContent
	}
	return r
}

// BodyLen is the Content-Length of the response
func (r *Response) BodyLen() int {
	if r.Content == nil {
		return 0
	}
	return len(r.Content.Bytes)
}

// AppendHeader appends the status line, headers and the blank line to b
func (r *Response) AppendHeader(b []byte) []byte {
	b = append(b, "HTTP/1.1 "...)
	b = strconv.AppendInt(b, int64(r.Status.Code()), 10)
	b = append(b, ' ')
	b = append(b, r.Status.Text()...)
	b = append(b, "\r\n"...)

	if c := r.Content; c != nil {
		b = append(b, "Content-Type: "...)
		b = append(b, c.ContentType...)
		b = append(b, "\r\nContent-Length: "...)
		b = strconv.AppendInt(b, int64(len(c.Bytes)), 10)
		b = append(b, "\r\n"...)

		if rg := c.Range; rg != nil {
			b = append(b, "Content-Range: bytes "...)
			b = strconv.AppendInt(b, rg.Start, 10)
			b = append(b, '-')
			b = strconv.AppendInt(b, rg.End, 10)
			b = append(b, '/')
			b = strconv.AppendInt(b, rg.Total, 10)
			b = append(b, "\r\n"...)
		}
	}

	return append(b, "\r\n"...)
}

// Encode serializes the whole response. headOnly suppresses the body.
func (r *Response) Encode(headOnly bool) []byte {
	b := r.AppendHeader(make([]byte, 0, 128+r.BodyLen()))
	if !headOnly && r.Content != nil {
		b = append(b, r.Content.Bytes...)
	}
	return b
}

// Send writes the response using head as scratch space for the header.
// The body is handed to the writer without being copied.
func (r *Response) Send(w io.Writer, head []byte, headOnly bool) (int64, error) {
	bufs := net.Buffers{r.AppendHeader(head[:0])}
	if !headOnly && r.BodyLen() > 0 {
		bufs = append(bufs, r.Content.Bytes)
	}
	return bufs.WriteTo(w)
}
