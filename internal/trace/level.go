package trace

// Level controls tracing verbosity. Each level admits every scope up to a
// ceiling; LevelError admits none and only matters for crash dumps.
type Level uint8

const (
	LevelOff Level = iota
	LevelError
	LevelPhase  // driver and session boundaries
	LevelDetail // plus request sets
	LevelDebug  // plus every candidate
)

var levelNames = names[Level]{"off", "error", "phase", "detail", "debug"}

// ceilings[l] is the finest scope l still emits; 0 emits nothing.
var ceilings = [...]Scope{
	LevelOff:    0,
	LevelError:  0,
	LevelPhase:  ScopeSession,
	LevelDetail: ScopeRequest,
	LevelDebug:  ScopeCandidate,
}

func (l Level) String() string { return levelNames.of(l) }

// ParseLevel is case-insensitive; the empty string means off.
func ParseLevel(s string) (Level, error) {
	if s == "" {
		return LevelOff, nil
	}
	return levelNames.parse("level", s)
}

func (l Level) ShouldEmit(scope Scope) bool {
	if int(l) >= len(ceilings) {
		return false
	}
	return scope != 0 && scope <= ceilings[l]
}
