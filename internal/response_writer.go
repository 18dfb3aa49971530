package internal

import (
	"bytes"
	"net/http"
	"sync"
)

// bufferedWriter captures what a net/http handler writes so it can be turned
// into a Response. It mirrors the first-write semantics of net/http: the
// status is fixed by the first WriteHeader or Write call.
type bufferedWriter struct {
	header  http.Header
	body    bytes.Buffer
	status  int
	written bool
	mu      sync.Mutex
}

func newBufferedWriter() *bufferedWriter {
	return &bufferedWriter{
		header: make(http.Header),
		status: http.StatusOK,
	}
}

// Header returns the header map to be sent.
func (w *bufferedWriter) Header() http.Header {
	return w.header
}

// WriteHeader records the status code. Only the first call counts.
func (w *bufferedWriter) WriteHeader(code int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.written {
		return
	}
	w.written = true
	w.status = code
}

// Write appends to the buffered body.
func (w *bufferedWriter) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.written = true
	return w.body.Write(b)
}

// Flush implements http.Flusher. Buffered output is only sent once the
// handler returns.
func (w *bufferedWriter) Flush() {}

// Status returns the recorded status code.
func (w *bufferedWriter) Status() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Written reports whether the handler wrote anything.
func (w *bufferedWriter) Written() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// Response converts the captured output into a Response.
func (w *bufferedWriter) Response() (*Response, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return NewResponse(w.status, w.header, w.body.Bytes())
}
