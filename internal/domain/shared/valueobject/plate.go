package valueobject

import "strings"

// NormalizePlate canonicalises a licence plate for comparison:
// upper case, with separators and whitespace removed.
func NormalizePlate(plate string) string {
	var b strings.Builder
	b.Grow(len(plate))
	for _, r := range strings.ToUpper(strings.TrimSpace(plate)) {
		switch r {
		case ' ', '-', '.', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
