package internal

import "strconv"

// Scalar is the set of types path and query values convert to.
type Scalar interface {
	~string | ~int | ~int64 | ~float64 | ~bool
}

// ParamAs returns a typed path parameter, or the zero value when it is
// missing or cannot be parsed.
func ParamAs[T Scalar](r *Request, name string) T {
	v, _ := convertParam[T](r.Param(name))
	return v
}

// QueryAs returns a typed query parameter, or the zero value when it is
// missing or cannot be parsed.
func QueryAs[T Scalar](r *Request, name string) T {
	v, _ := convertParam[T](r.Query(name))
	return v
}

// QueryDefault returns a typed query parameter, or def when it is empty or
// cannot be parsed.
func QueryDefault[T Scalar](r *Request, name string, def T) T {
	raw := r.Query(name)
	if raw == "" {
		return def
	}
	v, ok := convertParam[T](raw)
	if !ok {
		return def
	}
	return v
}

func convertParam[T Scalar](raw string) (T, bool) {
	var zero T
	switch p := any(&zero).(type) {
	case *string:
		*p = raw
	case *int:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return zero, false
		}
		*p = v
	case *int64:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return zero, false
		}
		*p = v
	case *float64:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return zero, false
		}
		*p = v
	case *bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return zero, false
		}
		*p = v
	default:
		return zero, false
	}
	return zero, true
}
