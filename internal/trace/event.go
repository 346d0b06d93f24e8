package trace

import "time"

// Kind is what an event marks.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
	KindHeartbeat // periodic liveness signal
)

var kindNames = names[Kind]{"", "begin", "end", "point", "heartbeat"}

func (k Kind) String() string { return kindNames.of(k) }

// Scope is the granularity of an event; coarser scopes have lower values.
type Scope uint8

const (
	ScopeDriver    Scope = iota + 1 // one CLI command or HTTP request
	ScopeSession                    // one world file
	ScopeRequest                    // the request set of one call site
	ScopeCandidate                  // one candidate attempt
)

var scopeNames = names[Scope]{"", "driver", "session", "request", "candidate"}

func (s Scope) String() string { return scopeNames.of(s) }

// Event is one trace record. Seq orders events across goroutines; Time
// alone does not.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for roots
	GID      uint64
	Name     string // "session:app.toml", "callsite:main", "candidate:app.repo"
	Detail   string
	Extra    map[string]string
}
