package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Разрешение зависимостей
	InjInfo              Code = 1000
	InjNoCandidates      Code = 1001
	InjAmbiguity         Code = 1002
	InjDivergent         Code = 1003
	InjReifiedMismatch   Code = 1004
	InjDependencyFailure Code = 1005
	InjCircular          Code = 1006

	// Описание мира (manifest)
	ManInfo              Code = 2000
	ManInvalid           Code = 2001
	ManUnknownClassifier Code = 2002
	ManBadTypeExpr       Code = 2003
	ManArity             Code = 2004
	ManUnknownElement    Code = 2005
	ManDuplicateKey      Code = 2006
	ManUnknownKey        Code = 2007
	ManBadKind           Code = 2008

	// I/O
	IOLoadFileError Code = 4001
	IOCacheError    Code = 4002

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:          "Unknown error",
		InjInfo:              "Resolution information",
		InjNoCandidates:      "No candidate found for a required request",
		InjAmbiguity:         "Several equally specific candidates",
		InjDivergent:         "Divergent candidate expansion",
		InjReifiedMismatch:   "Reified type parameter bound to a non-reified argument",
		InjDependencyFailure: "Required dependency of a candidate failed",
		InjCircular:          "Circular dependency",
		ManInfo:              "World description information",
		ManInvalid:           "Invalid world description",
		ManUnknownClassifier: "Unknown classifier",
		ManBadTypeExpr:       "Malformed type expression",
		ManArity:             "Type argument count mismatch",
		ManUnknownElement:    "Unknown element reference",
		ManDuplicateKey:      "Duplicate declaration key",
		ManUnknownKey:        "Unknown key in world description",
		ManBadKind:           "Unknown kind or visibility",
		IOLoadFileError:      "I/O load file error",
		IOCacheError:         "Plan cache error",
		ObsInfo:              "Observability information",
		ObsTimings:           "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("INJ%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("MAN%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
