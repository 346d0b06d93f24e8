package inject

import (
	"fmt"

	"injekt/internal/decl"
	"injekt/internal/types"
)

// Request asks for a value of Type on behalf of a parameter of Owner.
type Request struct {
	Type types.TypeID
	// Owner is the fully-qualified name of the callable whose parameter this is.
	Owner      string
	ParamName  string
	ParamIndex int
	// Required is false when the parameter has a default value.
	Required bool
	// Lazy requests are evaluated after their owner is constructed (lambda bodies).
	Lazy     bool
	Strategy decl.DefaultStrategy
}

func (r *Request) String() string {
	return fmt.Sprintf("%s.%s", r.Owner, r.ParamName)
}

// RequestsFor derives one request per value parameter of c, in declaration order.
func RequestsFor(c *decl.Callable) []*Request {
	out := make([]*Request, len(c.Params))
	for i, p := range c.Params {
		out[i] = &Request{
			Type:       p.Type,
			Owner:      c.FqName,
			ParamName:  p.Name,
			ParamIndex: i,
			Required:   !p.HasDefault,
			Strategy:   p.Strategy,
		}
	}
	return out
}

// dispatchReceiverParam names the implicit receiver dependency of members.
const dispatchReceiverParam = "<this>"
