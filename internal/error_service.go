package internal

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// StatusClientClosedRequest is the non-standard status used when the client
// went away before a response was produced.
const StatusClientClosedRequest = 499

// ErrorService converts a failure into a Response.
// The kernel consults it exactly once per failing request.
type ErrorService interface {
	Resolve(r *Request, err error) (*Response, error)
}

// ErrorServiceFunc adapts a function to ErrorService.
type ErrorServiceFunc func(r *Request, err error) (*Response, error)

// Resolve calls f(r, err).
func (f ErrorServiceFunc) Resolve(r *Request, err error) (*Response, error) {
	return f(r, err)
}

// ErrorStrategy renders a response for one failure category.
type ErrorStrategy func(r *Request, err error) (*Response, error)

// ErrorMatcher selects errors for a custom strategy.
type ErrorMatcher func(err error) bool

type matcherStrategy struct {
	match    ErrorMatcher
	strategy ErrorStrategy
}

// ErrorResolver is the default ErrorService.
// Custom matchers are tried in registration order, then the category
// strategy is used. Every category has a deterministic status/body pair and
// unexpected failures never expose error text.
type ErrorResolver struct {
	strategies map[Category]ErrorStrategy
	matchers   []matcherStrategy
}

// ErrorResolverOption configures an ErrorResolver.
type ErrorResolverOption func(*ErrorResolver)

// WithCategoryStrategy replaces the strategy for a category.
func WithCategoryStrategy(c Category, s ErrorStrategy) ErrorResolverOption {
	return func(er *ErrorResolver) {
		if s != nil {
			er.strategies[c] = s
		}
	}
}

// WithMatcher adds a strategy for errors selected by match.
// Matchers take precedence over category strategies.
func WithMatcher(match ErrorMatcher, s ErrorStrategy) ErrorResolverOption {
	return func(er *ErrorResolver) {
		if match != nil && s != nil {
			er.matchers = append(er.matchers, matcherStrategy{match: match, strategy: s})
		}
	}
}

// NewErrorResolver creates the default error service.
func NewErrorResolver(opts ...ErrorResolverOption) *ErrorResolver {
	er := &ErrorResolver{
		strategies: map[Category]ErrorStrategy{
			CategoryValidation:    validationStrategy,
			CategoryNotFound:      notFoundStrategy,
			CategoryAuthorization: authorizationStrategy,
			CategoryUpstream:      upstreamStrategy,
			CategoryCancelled:     cancelledStrategy,
			CategoryUnexpected:    unexpectedStrategy,
		},
	}
	for _, opt := range opts {
		opt(er)
	}
	return er
}

// Resolve implements ErrorService.
func (er *ErrorResolver) Resolve(r *Request, err error) (*Response, error) {
	for _, m := range er.matchers {
		if m.match(err) {
			return m.strategy(r, err)
		}
	}

	s, ok := er.strategies[CategoryOf(err)]
	if !ok {
		s = er.strategies[CategoryUnexpected]
	}
	return s(r, err)
}

// errorBody is the JSON shape of rendered failures.
type errorBody struct {
	Error     string           `json:"error"`
	Title     string           `json:"title,omitempty"`
	Detail    string           `json:"detail,omitempty"`
	Code      string           `json:"code,omitempty"`
	RequestID string           `json:"request_id,omitempty"`
	Fields    ValidationErrors `json:"fields,omitempty"`
}

func validationStrategy(r *Request, err error) (*Response, error) {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return renderError(r, http.StatusUnprocessableEntity, errorBody{
			Error:  "Validation failed",
			Fields: ve,
		})
	}
	return renderCategorized(r, err, http.StatusBadRequest)
}

func notFoundStrategy(r *Request, err error) (*Response, error) {
	if errors.Is(err, ErrMethodNotAllowed) {
		return renderError(r, http.StatusMethodNotAllowed, errorBody{Error: http.StatusText(http.StatusMethodNotAllowed)})
	}
	if errors.Is(err, ErrRouteNotFound) {
		return renderError(r, http.StatusNotFound, errorBody{Error: http.StatusText(http.StatusNotFound)})
	}
	return renderCategorized(r, err, http.StatusNotFound)
}

func authorizationStrategy(r *Request, err error) (*Response, error) {
	return renderCategorized(r, err, http.StatusUnauthorized)
}

func upstreamStrategy(r *Request, err error) (*Response, error) {
	e := AsError(err)
	if e == nil {
		return renderError(r, http.StatusBadGateway, errorBody{Error: http.StatusText(http.StatusBadGateway)})
	}
	code := failureStatus(e.Code, http.StatusBadGateway)
	return renderError(r, code, errorBody{Error: http.StatusText(code), Code: e.ErrorCode})
}

func cancelledStrategy(r *Request, err error) (*Response, error) {
	if errors.Is(err, context.DeadlineExceeded) {
		return renderError(r, http.StatusGatewayTimeout, errorBody{Error: http.StatusText(http.StatusGatewayTimeout)})
	}
	return renderError(r, StatusClientClosedRequest, errorBody{Error: "Client Closed Request"})
}

// unexpectedStrategy never echoes err.
func unexpectedStrategy(r *Request, _ error) (*Response, error) {
	return renderError(r, http.StatusInternalServerError, errorBody{Error: http.StatusText(http.StatusInternalServerError)})
}

// renderCategorized renders an *Error's user-facing fields, or the status
// text of fallback for plain errors.
func renderCategorized(r *Request, err error, fallback int) (*Response, error) {
	e := AsError(err)
	if e == nil {
		return renderError(r, fallback, errorBody{Error: http.StatusText(fallback)})
	}

	code := failureStatus(e.Code, fallback)
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(code)
	}
	return renderError(r, code, errorBody{
		Error:  msg,
		Title:  e.Title,
		Detail: e.Detail,
		Code:   e.ErrorCode,
	})
}

// failureStatus returns code when it is a 4xx or 5xx status, fallback otherwise.
// A failure must never render as success or redirect.
func failureStatus(code, fallback int) int {
	if !validStatus(code) || code < http.StatusBadRequest {
		return fallback
	}
	return code
}

// renderError renders JSON when the client accepts it, text otherwise.
func renderError(r *Request, status int, b errorBody) (*Response, error) {
	if r != nil {
		b.RequestID = r.ID()
	}
	if r != nil && wantsJSON(r) {
		return JSON(status, b)
	}
	return Text(status, b.Error), nil
}

func wantsJSON(r *Request) bool {
	if r.Query("format") == "json" {
		return true
	}
	accept := r.Header("Accept")
	ct := r.Header("Content-Type")
	return strings.Contains(accept, "application/json") || strings.HasPrefix(ct, "application/json")
}

// fallbackResponse is the hardcoded response used when the error service
// itself fails.
func fallbackResponse() *Response {
	return Text(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}
