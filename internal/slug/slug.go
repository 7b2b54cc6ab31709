// Package slug normalizes free-form strings into URL-safe identifiers.
// Usernames and tag names are stored and looked up in slug form.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes characters (NFKD) and removes combining marks, so
// "José" becomes "Jose" before the ASCII filter below runs.
var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Make returns the slug form of s: lowercase ASCII letters and digits, with
// runs of anything else collapsed to a single hyphen. Leading and trailing
// hyphens are trimmed. Make("") == "".
func Make(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		// Transform only fails on invalid UTF-8; fall back to the raw
		// input and let the ASCII filter drop the bad bytes.
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pendingHyphen = b.Len() > 0
			continue
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
