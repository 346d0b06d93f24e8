package diag

import (
	"fmt"
	"strings"
)

// Severity orders diagnostics; a higher value is more serious.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

var severityNames = [...]string{
	SevInfo:    "INFO",
	SevWarning: "WARNING",
	SevError:   "ERROR",
}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "UNKNOWN"
}

// ParseSeverity accepts the names printed by String in any case.
func ParseSeverity(name string) (Severity, error) {
	for i, n := range severityNames {
		if strings.EqualFold(n, name) {
			return Severity(i), nil
		}
	}
	return 0, fmt.Errorf("unknown severity %q", name)
}

// WarningPolicy says what happens to warnings once a file is resolved.
type WarningPolicy uint8

const (
	// WarnKeep reports warnings as they are.
	WarnKeep WarningPolicy = iota
	// WarnDrop removes warnings and infos, leaving errors only.
	WarnDrop
	// WarnPromote turns warnings into errors.
	WarnPromote
)

// NewWarningPolicy maps the two CLI switches to a policy. Both at once is an error.
func NewWarningPolicy(drop, promote bool) (WarningPolicy, error) {
	switch {
	case drop && promote:
		return WarnKeep, fmt.Errorf("no-warnings and warnings-as-errors cannot be used together")
	case drop:
		return WarnDrop, nil
	case promote:
		return WarnPromote, nil
	}
	return WarnKeep, nil
}
