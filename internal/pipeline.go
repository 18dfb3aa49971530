package internal

// Pipeline is an ordered, immutable sequence of middleware.
// The first middleware wraps outermost: it runs first on the way in and last
// on the way out. Position is the only ordering control.
type Pipeline struct {
	middlewares []Middleware
}

// NewPipeline creates a pipeline from mw in registration order.
// Nil middleware is skipped.
func NewPipeline(mw ...Middleware) *Pipeline {
	p := &Pipeline{middlewares: make([]Middleware, 0, len(mw))}
	for _, m := range mw {
		if m != nil {
			p.middlewares = append(p.middlewares, m)
		}
	}
	return p
}

// Len returns the number of stages.
func (p *Pipeline) Len() int {
	if p == nil {
		return 0
	}
	return len(p.middlewares)
}

// Append returns a new pipeline with mw added after the existing stages.
// The receiver is left unchanged.
func (p *Pipeline) Append(mw ...Middleware) *Pipeline {
	all := make([]Middleware, 0, p.Len()+len(mw))
	if p != nil {
		all = append(all, p.middlewares...)
	}
	all = append(all, mw...)
	return NewPipeline(all...)
}

// Then composes the pipeline around terminal and returns the resulting chain.
// The chain can be reused across requests.
func (p *Pipeline) Then(terminal HandlerFunc) HandlerFunc {
	h := terminal
	if p == nil {
		return h
	}
	for i := len(p.middlewares) - 1; i >= 0; i-- {
		h = p.middlewares[i](h)
	}
	return h
}

// Execute runs r through the pipeline into terminal.
// Failures and panics are not intercepted; that is the Kernel's job.
func (p *Pipeline) Execute(r *Request, terminal HandlerFunc) (*Response, error) {
	return p.Then(terminal)(r)
}
