package resolver

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/solar-leads/internal/address"
)

// localityTerms are bare place names that a place lookup sometimes returns
// instead of an actual occupant. Matched case-insensitively against the
// whole name.
var localityTerms = map[string]struct{}{
	"rochester":        {},
	"new york":         {},
	"ny":               {},
	"monroe county":    {},
	"upstate new york": {},
	"downtown":         {},
	"city center":      {},
}

var zipTokenRe = regexp.MustCompile(`^\d{5}$`)

var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// fold lowercases and strips diacritics so "Café Río" compares as "cafe rio".
func fold(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// IsGenericName reports whether a candidate name is a generic restatement of
// the location rather than an actual business or tenant. Generic names are
// rejected so the waterfall keeps searching.
func IsGenericName(name, addr string) bool {
	folded := fold(name)
	if folded == "" {
		return true
	}

	if _, ok := localityTerms[folded]; ok {
		return true
	}

	// A standalone 5-digit token is a ZIP code leaking through.
	for _, tok := range strings.Fields(folded) {
		if zipTokenRe.MatchString(tok) {
			return true
		}
	}

	// The "business name" is just the address restated.
	segment := fold(address.StreetSegment(addr))
	if segment != "" {
		if strings.Contains(segment, folded) || strings.Contains(folded, segment) {
			return true
		}
	}

	return false
}
