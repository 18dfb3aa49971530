package internal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrInvalidStatus is returned when a status code is outside 100-599.
var ErrInvalidStatus = errors.New("forgecore: invalid status code")

// Response is the value a handler or a short-circuiting middleware produces.
// It is immutable once built: WithHeader and WithStatus return copies.
type Response struct {
	header http.Header
	stream io.Reader
	body   []byte
	status int
}

// NewResponse creates a response with the given status, headers and body.
// Returns ErrInvalidStatus if status is outside 100-599.
func NewResponse(status int, header http.Header, body []byte) (*Response, error) {
	if !validStatus(status) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, status)
	}
	h := make(http.Header, len(header))
	for k, vs := range header {
		for _, v := range vs {
			h.Add(k, v)
		}
	}
	return &Response{status: status, header: h, body: bytes.Clone(body)}, nil
}

// Text creates a text/plain response. Panics on an invalid status.
func Text(status int, s string) *Response {
	return mustResponse(status, "text/plain; charset=utf-8", []byte(s))
}

// HTML creates a text/html response. Panics on an invalid status.
func HTML(status int, s string) *Response {
	return mustResponse(status, "text/html; charset=utf-8", []byte(s))
}

// Blob creates a response with an explicit content type. Panics on an invalid status.
func Blob(status int, contentType string, b []byte) *Response {
	return mustResponse(status, contentType, b)
}

// JSON encodes v as the response body.
func JSON(status int, v any) (*Response, error) {
	if !validStatus(status) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, status)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("forgecore: encode json response: %w", err)
	}
	return mustResponse(status, "application/json", b), nil
}

// Stream creates a response whose body is copied from rd when written.
func Stream(status int, contentType string, rd io.Reader) *Response {
	r := mustResponse(status, contentType, nil)
	r.stream = rd
	return r
}

// Redirect creates a redirect response to location.
// Status defaults to 302 Found when not a 3xx code.
func Redirect(status int, location string) *Response {
	if status < 300 || status > 399 {
		status = http.StatusFound
	}
	r := mustResponse(status, "", nil)
	r.header.Set("Location", location)
	return r
}

// NoContent creates an empty response.
func NoContent(status int) *Response {
	return mustResponse(status, "", nil)
}

// Status returns the status code.
func (r *Response) Status() int { return r.status }

// Header returns the first value of the named header.
func (r *Response) Header(name string) string { return r.header.Get(name) }

// Headers returns a copy of the response headers.
func (r *Response) Headers() http.Header { return r.header.Clone() }

// Body returns the buffered body. It is nil for streamed responses.
func (r *Response) Body() []byte { return r.body }

// IsStream reports whether the body is a stream.
func (r *Response) IsStream() bool { return r.stream != nil }

// Reader returns the body as a reader.
func (r *Response) Reader() io.Reader {
	if r.stream != nil {
		return r.stream
	}
	return bytes.NewReader(r.body)
}

// WithHeader returns a copy of r with the header set to value.
func (r *Response) WithHeader(name, value string) *Response {
	c := *r
	c.header = r.header.Clone()
	c.header.Set(name, value)
	return &c
}

// AddHeader returns a copy of r with value appended to the header.
func (r *Response) AddHeader(name, value string) *Response {
	c := *r
	c.header = r.header.Clone()
	c.header.Add(name, value)
	return &c
}

// WithStatus returns a copy of r with a different status.
func (r *Response) WithStatus(status int) (*Response, error) {
	if !validStatus(status) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, status)
	}
	c := *r
	c.status = status
	return &c, nil
}

// Write sends the response to w.
func (r *Response) Write(w http.ResponseWriter) error {
	h := w.Header()
	for k, vs := range r.header {
		h[k] = append([]string(nil), vs...)
	}
	w.WriteHeader(r.status)

	if r.stream != nil {
		_, err := io.Copy(w, r.stream)
		if c, ok := r.stream.(io.Closer); ok {
			_ = c.Close()
		}
		return err
	}
	if len(r.body) == 0 {
		return nil
	}
	_, err := w.Write(r.body)
	return err
}

func mustResponse(status int, contentType string, b []byte) *Response {
	if !validStatus(status) {
		panic(fmt.Sprintf("forgecore: invalid status code %d", status))
	}
	h := make(http.Header)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return &Response{status: status, header: h, body: b}
}

func validStatus(code int) bool {
	return code >= 100 && code <= 599
}
