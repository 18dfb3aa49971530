package internal

import (
	"bytes"
	"context"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// DefaultRequestIDHeaders are the headers checked (in order) for an upstream request ID.
var DefaultRequestIDHeaders = []string{"X-Request-ID", "X-Request-Id", "X-Correlation-ID"}

// requestIDKey is the context key for the request ID.
type requestIDKey struct{}

// RequestIDFromContext returns the request ID stored in ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// Request is the framework's view of an inbound call.
// It is immutable from the pipeline's perspective: the With* methods return
// shallow copies. The value bag returned by Set/Get is shared by every copy
// derived from the same inbound call, so middleware can pass state inward and
// outward.
type Request struct {
	ctx        context.Context
	header     http.Header
	query      url.Values
	params     map[string]string
	body       *body
	bag        *bag
	state      *requestState
	id         string
	method     string
	path       string
	remoteAddr string
}

// RequestOption configures a Request at construction time.
type RequestOption func(*Request)

// WithRequestHeader adds a header value. Keys are canonicalized.
func WithRequestHeader(name, value string) RequestOption {
	return func(r *Request) {
		r.header.Add(name, value)
	}
}

// WithRequestHeaders copies all values from h.
func WithRequestHeaders(h http.Header) RequestOption {
	return func(r *Request) {
		for k, vs := range h {
			for _, v := range vs {
				r.header.Add(k, v)
			}
		}
	}
}

// WithRequestBody sets the body stream. It is read lazily.
func WithRequestBody(rd io.Reader) RequestOption {
	return func(r *Request) {
		if rd != nil {
			r.body = &body{reader: rd}
		}
	}
}

// WithRequestBytes sets an in-memory body.
func WithRequestBytes(b []byte) RequestOption {
	return func(r *Request) {
		r.body = &body{reader: bytes.NewReader(b)}
	}
}

// WithRequestQuery sets the query values.
func WithRequestQuery(q url.Values) RequestOption {
	return func(r *Request) {
		if q != nil {
			r.query = q
		}
	}
}

// WithRequestContext sets the base context.
func WithRequestContext(ctx context.Context) RequestOption {
	return func(r *Request) {
		if ctx != nil {
			r.ctx = ctx
		}
	}
}

// WithRequestID overrides the generated request ID.
func WithRequestID(id string) RequestOption {
	return func(r *Request) {
		if id != "" {
			r.id = id
		}
	}
}

// WithRemoteAddr sets the peer address.
func WithRemoteAddr(addr string) RequestOption {
	return func(r *Request) {
		r.remoteAddr = addr
	}
}

// NewRequest creates a Request for the given method and target.
// The target may carry a query string ("/users?page=2").
// A request ID is generated unless WithRequestID is given.
func NewRequest(method, target string, opts ...RequestOption) *Request {
	path, rawQuery, _ := strings.Cut(target, "?")
	if path == "" {
		path = "/"
	}
	query, _ := url.ParseQuery(rawQuery)

	r := &Request{
		ctx:    context.Background(),
		header: make(http.Header),
		query:  query,
		body:   &body{reader: http.NoBody},
		bag:    &bag{values: make(map[string]any)},
		state:  &requestState{},
		method: strings.ToUpper(method),
		path:   path,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.id == "" {
		r.id = uuid.NewString()
	}
	r.ctx = context.WithValue(r.ctx, requestIDKey{}, r.id)

	return r
}

// FromHTTPRequest converts a net/http request into a Request.
// An upstream request ID is taken from DefaultRequestIDHeaders when present.
func FromHTTPRequest(hr *http.Request) *Request {
	var id string
	for _, h := range DefaultRequestIDHeaders {
		if v := hr.Header.Get(h); v != "" {
			id = v
			break
		}
	}

	r := NewRequest(hr.Method, hr.URL.Path,
		WithRequestContext(hr.Context()),
		WithRequestHeaders(hr.Header),
		WithRequestQuery(hr.URL.Query()),
		WithRequestBody(hr.Body),
		WithRequestID(id),
		WithRemoteAddr(hr.RemoteAddr),
	)
	if hr.Host != "" {
		r.header.Set("Host", hr.Host)
	}
	return r
}

// ID returns the request ID.
func (r *Request) ID() string { return r.id }

// Method returns the upper-cased HTTP method.
func (r *Request) Method() string { return r.method }

// Path returns the request path without the query string.
func (r *Request) Path() string { return r.path }

// RemoteAddr returns the peer address, if known.
func (r *Request) RemoteAddr() string { return r.remoteAddr }

// Context returns the request context. It is never nil.
func (r *Request) Context() context.Context { return r.ctx }

// Header returns the first value for the header name (case-insensitive).
func (r *Request) Header(name string) string { return r.header.Get(name) }

// HeaderValues returns all values for the header name in order.
func (r *Request) HeaderValues(name string) []string { return r.header.Values(name) }

// Headers returns a copy of all request headers.
func (r *Request) Headers() http.Header { return r.header.Clone() }

// Query returns the first value of the query parameter.
func (r *Request) Query(name string) string { return r.query.Get(name) }

// QueryValues returns a copy of the query parameters.
func (r *Request) QueryValues() url.Values { return maps.Clone(r.query) }

// Param returns a path parameter set by the router, or "".
func (r *Request) Param(name string) string { return r.params[name] }

// Params returns a copy of all path parameters.
func (r *Request) Params() map[string]string { return maps.Clone(r.params) }

// Body returns the body stream. Reading it consumes it unless BodyBytes
// was called first.
func (r *Request) Body() io.Reader {
	if b, ok := r.body.cached(); ok {
		return bytes.NewReader(b)
	}
	return r.body.reader
}

// BodyBytes reads the whole body once and caches it for later callers.
func (r *Request) BodyBytes() ([]byte, error) {
	return r.body.bytes()
}

// Set stores a value in the per-request bag.
func (r *Request) Set(key string, value any) { r.bag.set(key, value) }

// Get loads a value from the per-request bag.
func (r *Request) Get(key string) (any, bool) { return r.bag.get(key) }

// Delete removes a value from the per-request bag.
func (r *Request) Delete(key string) { r.bag.delete(key) }

// WithContext returns a copy of r that uses ctx.
// The request ID is preserved in the new context.
func (r *Request) WithContext(ctx context.Context) *Request {
	if ctx == nil {
		panic("forgecore: nil context")
	}
	c := r.clone()
	if RequestIDFromContext(ctx) != r.id {
		ctx = context.WithValue(ctx, requestIDKey{}, r.id)
	}
	c.ctx = ctx
	return c
}

// WithID returns a copy of r carrying a different request ID.
func (r *Request) WithID(id string) *Request {
	if id == "" || id == r.id {
		return r
	}
	c := r.clone()
	c.id = id
	c.ctx = context.WithValue(r.ctx, requestIDKey{}, id)
	return c
}

// WithHeader returns a copy of r with the header set to value.
func (r *Request) WithHeader(name, value string) *Request {
	c := r.clone()
	c.header = r.header.Clone()
	c.header.Set(name, value)
	return c
}

// WithPath returns a copy of r with a different path.
func (r *Request) WithPath(path string) *Request {
	c := r.clone()
	c.path = path
	return c
}

// WithParams returns a copy of r with the given path parameters.
func (r *Request) WithParams(params map[string]string) *Request {
	c := r.clone()
	c.params = maps.Clone(params)
	return c
}

func (r *Request) clone() *Request {
	c := *r
	return &c
}

// markHandled flips the shared handled flag. It returns false if the request
// (or any copy of it) was already handed to a Kernel.
func (r *Request) markHandled() bool {
	return r.state.handled.CompareAndSwap(false, true)
}

// Value retrieves a typed value from the request bag.
// Returns the zero value of T if the key is missing or holds another type.
//
// Example:
//
//	user := forgecore.Value[*User](req, "user")
func Value[T any](r *Request, key string) T {
	if v, ok := r.Get(key); ok {
		if t, ok := v.(T); ok {
			return t
		}
	}
	var zero T
	return zero
}

type requestState struct {
	handled atomic.Bool
}

// bag is the per-request context bag.
// Stages may run on other goroutines (Timeout), so access is guarded.
type bag struct {
	values map[string]any
	mu     sync.RWMutex
}

func (b *bag) set(k string, v any) {
	b.mu.Lock()
	b.values[k] = v
	b.mu.Unlock()
}

func (b *bag) get(k string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.values[k]
	return v, ok
}

func (b *bag) delete(k string) {
	b.mu.Lock()
	delete(b.values, k)
	b.mu.Unlock()
}

// body reads the underlying stream at most once.
type body struct {
	reader io.Reader
	data   []byte
	err    error
	once   sync.Once
	read   atomic.Bool
}

func (b *body) bytes() ([]byte, error) {
	b.once.Do(func() {
		b.data, b.err = io.ReadAll(b.reader)
		b.read.Store(true)
	})
	return b.data, b.err
}

func (b *body) cached() ([]byte, bool) {
	if !b.read.Load() || b.err != nil {
		return nil, false
	}
	return b.data, true
}
