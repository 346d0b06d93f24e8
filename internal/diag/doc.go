// Package diag defines the diagnostic model shared by the manifest loader, the
// resolver boundary and the CLI.
//
// A Diagnostic carries a Severity, a stable Code (rendered as INJ1001,
// MAN2002 and so on), a short message, the primary span and optional notes.
// Producers emit through a Reporter; BagReporter collects into a Bag, which
// caps, sorts and deduplicates. Rendering lives in internal/diagfmt.
package diag
