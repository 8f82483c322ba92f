// Package address parses and normalizes US street addresses. It is a
// best-effort primitive: malformed input yields empty components, never an
// error that would abort batch processing.
package address

import (
	"regexp"
	"strings"

	"github.com/sells-group/solar-leads/internal/model"
)

// suffixAbbrevs maps spelled-out street suffixes and directionals to their
// USPS abbreviations, applied during normalization.
var suffixAbbrevs = map[string]string{
	"STREET":    "ST",
	"AVENUE":    "AVE",
	"ROAD":      "RD",
	"BOULEVARD": "BLVD",
	"DRIVE":     "DR",
	"LANE":      "LN",
	"COURT":     "CT",
	"CIRCLE":    "CIR",
	"PLACE":     "PL",
	"PARKWAY":   "PKWY",
	"NORTH":     "N",
	"SOUTH":     "S",
	"EAST":      "E",
	"WEST":      "W",
}

var (
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
	zipRe        = regexp.MustCompile(`\b(\d{5})(?:-\d{4})?\b`)
	stateRe      = regexp.MustCompile(`\b([A-Z]{2})\b`)
	numberRe     = regexp.MustCompile(`^(\d+[A-Za-z]?)\s+`)
	unitRe       = regexp.MustCompile(`(?i)\b(?:suite|ste|unit|apt|apartment|floor|fl)\.?\s*#?\s*([\w-]+)`)
)

// Normalize converts a raw address string to a canonical uppercase form with
// USPS abbreviations and collapsed whitespace. Empty input normalizes to "".
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	addr := strings.ToUpper(strings.TrimSpace(raw))
	words := strings.FieldsFunc(addr, func(r rune) bool { return r == ' ' })
	for i, w := range words {
		trimmed := strings.TrimRight(w, ".,")
		if abbr, ok := suffixAbbrevs[trimmed]; ok {
			suffix := w[len(trimmed):]
			words[i] = abbr + suffix
		}
	}
	addr = strings.Join(words, " ")
	return strings.TrimSpace(multiSpaceRe.ReplaceAllString(addr, " "))
}

// Parse splits a raw address string into components. The parser assumes the
// common "number street, city, state zip" comma layout and degrades to empty
// components otherwise.
func Parse(raw string) model.AddressComponents {
	var c model.AddressComponents
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return c
	}

	if m := zipRe.FindStringSubmatch(raw); m != nil {
		c.ZipCode = m[1]
	}
	if m := unitRe.FindStringSubmatch(raw); m != nil {
		c.Unit = m[1]
	}

	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	street := parts[0]
	if m := numberRe.FindStringSubmatch(street); m != nil {
		c.StreetNumber = m[1]
		street = strings.TrimSpace(street[len(m[0]):])
	}
	// Strip any unit marker off the street segment.
	if loc := unitRe.FindStringIndex(street); loc != nil {
		street = strings.TrimSpace(strings.TrimRight(street[:loc[0]], " ,"))
	}
	c.StreetName = street

	if len(parts) > 1 {
		c.City = parts[1]
	}
	if len(parts) > 2 {
		tail := strings.ToUpper(parts[2])
		tail = zipRe.ReplaceAllString(tail, "")
		if m := stateRe.FindStringSubmatch(tail); m != nil {
			c.State = m[1]
		}
	}
	return c
}

// StreetSegment returns the leading street portion of a raw address (up to
// the first comma), used by the resolver's landmark and base-address stages.
func StreetSegment(raw string) string {
	if i := strings.Index(raw, ","); i >= 0 {
		return strings.TrimSpace(raw[:i])
	}
	return strings.TrimSpace(raw)
}

// unitMarkers are the suite/unit prefixes recognized by BaseAddress.
var unitMarkers = []string{"suite", "ste", "unit", "apt", "apartment", "floor", "fl"}

// BaseAddress strips a trailing unit/suite/floor designation from the street
// segment, truncating at the first recognized marker. "100 Main St Suite 4"
// becomes "100 Main St".
func BaseAddress(segment string) string {
	lower := strings.ToLower(segment)
	cut := len(segment)
	for _, marker := range unitMarkers {
		idx := 0
		for {
			i := strings.Index(lower[idx:], marker)
			if i < 0 {
				break
			}
			i += idx
			// Word boundary on both sides so "fl" does not match inside "floral".
			beforeOK := i == 0 || !isWordChar(lower[i-1])
			after := i + len(marker)
			afterOK := after >= len(lower) || !isWordChar(lower[after]) || lower[after] == '.'
			if beforeOK && afterOK && i < cut {
				cut = i
			}
			idx = after
		}
	}
	return strings.TrimRight(strings.TrimSpace(segment[:cut]), " ,#")
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}
