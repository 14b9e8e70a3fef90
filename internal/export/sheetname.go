package export

import (
	"strconv"
	"strings"
)

// Excel forbids these characters in sheet names and caps the length at 31.
const (
	sheetNameMax      = 31
	invalidSheetRunes = `[]:*?/\`
)

// SanitizeSheetName maps an arbitrary table name onto a valid Excel sheet
// name: disallowed characters become '_', surrounding apostrophes and spaces
// are trimmed, the result is truncated to 31 runes, and an empty result
// falls back to "Sheet". Deterministic by construction.
func SanitizeSheetName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if strings.ContainsRune(invalidSheetRunes, r) {
			b.WriteRune('_')
		} else {
			b.WriteRune(r)
		}
	}
	s := strings.Trim(b.String(), "' ")
	if s == "" {
		s = "Sheet"
	}
	return truncateRunes(s, sheetNameMax)
}

// UniqueSheetNamer hands out sanitized, deduplicated sheet names. Excel
// compares sheet names case-insensitively, so dedup does too: the second
// "Revenue" becomes "Revenue 2", with the base re-truncated so the suffix
// still fits in 31 runes.
type UniqueSheetNamer struct {
	seen map[string]struct{}
}

func NewUniqueSheetNamer() *UniqueSheetNamer {
	return &UniqueSheetNamer{seen: make(map[string]struct{})}
}

func (u *UniqueSheetNamer) Name(tableName string) string {
	base := SanitizeSheetName(tableName)
	candidate := base
	for n := 2; ; n++ {
		key := strings.ToLower(candidate)
		if _, taken := u.seen[key]; !taken {
			u.seen[key] = struct{}{}
			return candidate
		}
		suffix := " " + strconv.Itoa(n)
		candidate = truncateRunes(base, sheetNameMax-len(suffix)) + suffix
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
