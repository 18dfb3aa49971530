package internal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/dmitrymomot/forgecore/pkg/events"
	"github.com/dmitrymomot/forgecore/pkg/logger"
)

// defaultPanicStackSize bounds the stack captured for recovered panics.
const defaultPanicStackSize = 4096

// phase is the per-request state machine:
// Received -> InPipeline -> {Completed | Errored} -> Responded.
type phase uint8

const (
	phaseReceived phase = iota
	phaseInPipeline
	phaseCompleted
	phaseErrored
	phaseResponded
)

func (p phase) String() string {
	switch p {
	case phaseReceived:
		return "received"
	case phaseInPipeline:
		return "in_pipeline"
	case phaseCompleted:
		return "completed"
	case phaseErrored:
		return "errored"
	case phaseResponded:
		return "responded"
	}
	return "unknown"
}

// Kernel drives one request at a time through the middleware pipeline into
// the matched route and owns the error boundary. It holds no per-request
// state and is safe for concurrent use.
type Kernel struct {
	router    RouteMatcher
	pipeline  *Pipeline
	errors    ErrorService
	publisher events.Publisher
	logger    *slog.Logger
	chain     HandlerFunc
	now       func() time.Time
}

// KernelOption configures a Kernel.
type KernelOption func(*Kernel)

// WithKernelMiddleware sets the global middleware, in execution order.
func WithKernelMiddleware(mw ...Middleware) KernelOption {
	return func(k *Kernel) {
		k.pipeline = k.pipeline.Append(mw...)
	}
}

// WithKernelPipeline sets a prebuilt pipeline, replacing any middleware
// given before it.
func WithKernelPipeline(p *Pipeline) KernelOption {
	return func(k *Kernel) {
		if p != nil {
			k.pipeline = p
		}
	}
}

// WithKernelErrorService sets the error boundary's error service.
func WithKernelErrorService(s ErrorService) KernelOption {
	return func(k *Kernel) {
		if s != nil {
			k.errors = s
		}
	}
}

// WithKernelPublisher sets the lifecycle event publisher.
func WithKernelPublisher(p events.Publisher) KernelOption {
	return func(k *Kernel) {
		if p != nil {
			k.publisher = p
		}
	}
}

// WithKernelLogger sets the kernel logger.
func WithKernelLogger(l *slog.Logger) KernelOption {
	return func(k *Kernel) {
		if l != nil {
			k.logger = l
		}
	}
}

// NewKernel creates a kernel dispatching to router.
// The pipeline is composed once here and is read-only afterwards.
func NewKernel(router RouteMatcher, opts ...KernelOption) *Kernel {
	k := &Kernel{
		router:    router,
		pipeline:  NewPipeline(),
		errors:    NewErrorResolver(),
		publisher: events.Nop(),
		logger:    logger.NewNope(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(k)
	}
	if k.router == nil {
		k.router = RouteMatcherFunc(func(*Request) (HandlerFunc, error) {
			return nil, ErrRouteNotFound
		})
	}
	k.chain = k.pipeline.Then(k.route)
	return k
}

// Pipeline returns the kernel's global pipeline.
func (k *Kernel) Pipeline() *Pipeline {
	return k.pipeline
}

// Handle processes r and always returns a Response.
// Failures and panics never escape: they are resolved through the error
// service exactly once, falling back to a minimal 500 when that fails too.
func (k *Kernel) Handle(r *Request) *Response {
	if r == nil {
		r = NewRequest("", "/")
		return k.fail(r, k.now(), ErrNilRequest)
	}
	if !r.markHandled() {
		return k.fail(r, k.now(), ErrRequestReplayed)
	}

	start := k.now()
	ctx := r.Context()
	k.trace(ctx, r, phaseReceived)
	k.emit(ctx, k.requestEvent(events.RequestReceived, r))

	k.trace(ctx, r, phaseInPipeline)
	resp, err := k.dispatch(r)
	if err == nil && resp == nil {
		err = ErrNilResponse
	}
	if err != nil {
		return k.fail(r, start, err)
	}

	k.trace(ctx, r, phaseCompleted)
	e := k.requestEvent(events.RequestCompleted, r)
	e.Status = resp.Status()
	e.Duration = k.now().Sub(start)
	k.emit(ctx, e)

	k.trace(ctx, r, phaseResponded)
	return resp
}

// route is the innermost stage: it resolves the handler and runs it.
func (k *Kernel) route(r *Request) (*Response, error) {
	h, err := k.router.Match(r)
	if err != nil {
		return nil, err
	}
	return h(r)
}

// dispatch runs the composed chain and turns a panic into a PanicError.
func (k *Kernel) dispatch(r *Request) (resp *Response, err error) {
	defer func() {
		if v := recover(); v != nil {
			stack := make([]byte, defaultPanicStackSize)
			stack = stack[:runtime.Stack(stack, false)]
			resp, err = nil, &PanicError{Value: v, Stack: stack}
		}
	}()
	return k.chain(r)
}

// fail is the error boundary.
func (k *Kernel) fail(r *Request, start time.Time, err error) *Response {
	ctx := r.Context()
	k.trace(ctx, r, phaseErrored)

	category := CategoryOf(err)
	kind := events.RequestError
	if ctx.Err() != nil && (category == CategoryCancelled || errors.Is(err, ctx.Err())) {
		kind = events.RequestCancelled
		category = CategoryCancelled
	}

	resp := k.resolve(r, err)

	attrs := []any{
		slog.String("request_id", r.ID()),
		slog.String("method", r.Method()),
		slog.String("path", r.Path()),
		slog.String("category", string(category)),
		slog.Int("status", resp.Status()),
		slog.String("error", err.Error()),
	}
	if pe, ok := AsPanicError(err); ok {
		attrs = append(attrs, slog.String("stack", string(pe.Stack)))
	}
	if resp.Status() >= 500 {
		k.logger.ErrorContext(ctx, "request failed", attrs...)
	} else {
		k.logger.DebugContext(ctx, "request failed", attrs...)
	}

	e := k.requestEvent(kind, r)
	e.Status = resp.Status()
	e.Category = string(category)
	e.Err = err
	e.Error = err.Error()
	e.Duration = k.now().Sub(start)
	k.emit(ctx, e)

	k.trace(ctx, r, phaseResponded)
	return resp
}

// resolve consults the error service once. A failure, nil result or panic
// inside the service yields the hardcoded fallback.
func (k *Kernel) resolve(r *Request, err error) (resp *Response) {
	defer func() {
		if v := recover(); v != nil {
			k.logger.ErrorContext(r.Context(), "error service panicked",
				slog.String("request_id", r.ID()),
				slog.Any("panic", v),
			)
			resp = fallbackResponse()
		}
	}()

	resp, rerr := k.errors.Resolve(r, err)
	if rerr != nil {
		k.logger.ErrorContext(r.Context(), "error service failed",
			slog.String("request_id", r.ID()),
			slog.String("error", rerr.Error()),
		)
		return fallbackResponse()
	}
	if resp == nil {
		return fallbackResponse()
	}
	return resp
}

// emit publishes e without letting the publisher affect the request.
func (k *Kernel) emit(ctx context.Context, e events.Event) {
	defer func() {
		if v := recover(); v != nil {
			k.logger.WarnContext(ctx, "event publisher panicked",
				slog.String("kind", string(e.Kind)),
				slog.Any("panic", v),
			)
		}
	}()

	// Publishing must survive request cancellation.
	if err := k.publisher.Publish(context.WithoutCancel(ctx), e); err != nil {
		k.logger.WarnContext(ctx, "event publish failed",
			slog.String("kind", string(e.Kind)),
			slog.String("error", err.Error()),
		)
	}
}

func (k *Kernel) requestEvent(kind events.Kind, r *Request) events.Event {
	return events.Event{
		Kind:      kind,
		Timestamp: k.now(),
		RequestID: r.ID(),
		Method:    r.Method(),
		Path:      r.Path(),
	}
}

func (k *Kernel) trace(ctx context.Context, r *Request, p phase) {
	k.logger.DebugContext(ctx, "request phase",
		slog.String("request_id", r.ID()),
		slog.String("phase", p.String()),
	)
}

// ServeHTTP adapts the kernel to net/http. The edge request is converted
// with FromHTTPRequest and the resolved response is written as is.
func (k *Kernel) ServeHTTP(w http.ResponseWriter, hr *http.Request) {
	resp := k.Handle(FromHTTPRequest(hr))
	if err := resp.Write(w); err != nil {
		k.logger.DebugContext(hr.Context(), "response write failed",
			slog.String("path", hr.URL.Path),
			slog.String("error", err.Error()),
		)
	}
}
