package talloc

import "golang.org/x/text/unicode/norm"

// normalizeLabel normalizes a caller-supplied Pool label to Unicode NFC,
// the same normalization the teacher package applies to string keys. Two
// labels that differ only in how a combining character is represented
// compare equal after normalization, so Registry lookups are consistent
// regardless of how a caller's string happened to be composed.
func normalizeLabel(s string) string {
	return norm.NFC.String(s)
}
