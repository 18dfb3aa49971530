package internal

import (
	"fmt"
	"net/http"
	"strings"
)

// ExtractorSource reads one candidate value from a request.
type ExtractorSource = func(*Request) (string, bool)

// Extractor tries multiple sources in order and returns the first match.
type Extractor struct {
	sources []ExtractorSource
}

// NewExtractor creates an Extractor that tries the given sources in order.
func NewExtractor(sources ...ExtractorSource) Extractor {
	return Extractor{sources: sources}
}

// Extract returns the first non-empty value, or ("", false).
func (e Extractor) Extract(r *Request) (string, bool) {
	for _, src := range e.sources {
		if src == nil {
			continue
		}
		if v, ok := src(r); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// FromHeader reads a request header.
func FromHeader(name string) ExtractorSource {
	return func(r *Request) (string, bool) {
		return nonEmpty(r.Header(name))
	}
}

// FromQuery reads a query parameter.
func FromQuery(name string) ExtractorSource {
	return func(r *Request) (string, bool) {
		return nonEmpty(r.Query(name))
	}
}

// FromParam reads a path parameter set by the router.
func FromParam(name string) ExtractorSource {
	return func(r *Request) (string, bool) {
		return nonEmpty(r.Param(name))
	}
}

// FromCookie reads a cookie from the Cookie header.
func FromCookie(name string) ExtractorSource {
	return func(r *Request) (string, bool) {
		cookies, err := http.ParseCookie(strings.Join(r.HeaderValues("Cookie"), "; "))
		if err != nil {
			return "", false
		}
		for _, c := range cookies {
			if c.Name == name {
				return nonEmpty(c.Value)
			}
		}
		return "", false
	}
}

// FromValue reads a value stored on the request with Set.
// Non-string values are formatted with fmt.Sprint.
func FromValue(key string) ExtractorSource {
	return func(r *Request) (string, bool) {
		v, ok := r.Get(key)
		if !ok || v == nil {
			return "", false
		}
		if s, ok := v.(string); ok {
			return nonEmpty(s)
		}
		return nonEmpty(fmt.Sprint(v))
	}
}

// FromBearerToken reads a Bearer token from the Authorization header.
// The scheme is matched case-insensitively.
func FromBearerToken() ExtractorSource {
	return func(r *Request) (string, bool) {
		auth := r.Header("Authorization")
		if len(auth) < 7 || !strings.EqualFold(auth[:7], "bearer ") {
			return "", false
		}
		return nonEmpty(strings.TrimSpace(auth[7:]))
	}
}

func nonEmpty(s string) (string, bool) {
	return s, s != ""
}
