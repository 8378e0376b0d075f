// Package normalizers provides case-name normalization for docket matching
package normalizers

import (
	"regexp"
	"strings"
	"unicode"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

// registry holds all registered normalizers
var registry = make(map[string]Normalizer)

func init() {
	Register("lowercase", Lowercase)
	Register("trim", Trim)
	Register("collapse_whitespace", CollapseWhitespace)
	Register("remove_punctuation", RemovePunctuation)
	Register("harmonize", Harmonize)
	Register("ndocket", NormalizeDocketNumber)
}

// Register adds a normalizer to the registry
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Normalizer, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named normalizer to a value
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

// ApplyChain applies multiple normalizers in sequence
func ApplyChain(value string, normalizers ...string) string {
	result := value
	for _, name := range normalizers {
		result = Apply(result, name)
	}
	return result
}

// Built-in normalizers

// Lowercase converts string to lowercase
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

var spaceRe = regexp.MustCompile(`\s+`)

// CollapseWhitespace folds runs of whitespace into single spaces
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// RemovePunctuation removes all punctuation characters
func RemovePunctuation(s string) string {
	var result strings.Builder
	for _, r := range s {
		if !unicode.IsPunct(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// versusRe matches the party separator in its common renderings
// ("v.", "v", "vs.", "vs") so captions compare in one canonical form.
var versusRe = regexp.MustCompile(`(?i)\s+vs?\.?\s+`)

// etAlRe strips trailing "et al" markers
var etAlRe = regexp.MustCompile(`(?i),?\s+et\.?\s+al\.?$`)

// partyReplacements canonicalizes party names that the source datasets
// render inconsistently. Applied after case folding.
var partyReplacements = []struct{ from, to string }{
	{"united states of america", "united states"},
	{"u.s.a.", "united states"},
	{"u. s. a.", "united states"},
	{"u.s.", "united states"},
	{"usa", "united states"},
}

// Harmonize canonicalizes a case-name string for comparison: case folding,
// one canonical " v. " separator, trailing "et al" removed, and common
// government-party renderings unified. Both sides of every comparison must
// go through the same harmonization.
func Harmonize(s string) string {
	s = strings.ToLower(CollapseWhitespace(s))
	s = versusRe.ReplaceAllString(s, " v. ")

	parts := strings.Split(s, " v. ")
	for i, part := range parts {
		part = etAlRe.ReplaceAllString(part, "")
		part = strings.TrimSpace(strings.TrimSuffix(part, ","))
		for _, repl := range partyReplacements {
			if part == repl.from {
				part = repl.to
				break
			}
		}
		parts[i] = part
	}
	return strings.Join(parts, " v. ")
}

// CaptionForComparison builds the comparison form of a harmonized caption.
// Two-party captions get each side truncated to max characters to stabilize
// comparison against abbreviation and suffix noise. Captions without a
// separator, or with more than one (consolidated cases), are ambiguous to
// split and pass through harmonized but untruncated.
func CaptionForComparison(name string, max int) string {
	caption := Harmonize(name)
	parts := strings.Split(caption, " v. ")
	if len(parts) != 2 {
		return caption
	}
	return truncateRunes(parts[0], max) + " v. " + truncateRunes(parts[1], max)
}

// truncateRunes cuts on code points, not bytes, so multibyte party names
// never end in a mangled rune.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

var docketCoreRe = regexp.MustCompile(`(?:\d:)?(\d\d(?:\d\d)?)-[a-zA-Z]{1,5}-(\d{1,10})`)

// NormalizeDocketNumber reduces a filed docket number to its core form,
// e.g. "1:17-cv-00101-ABC" -> "1700101". Returns "" when the input does not
// look like a federal docket number.
func NormalizeDocketNumber(s string) string {
	m := docketCoreRe.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	year := m[1]
	if len(year) == 4 {
		year = year[2:]
	}
	serial := m[2]
	for len(serial) < 5 {
		serial = "0" + serial
	}
	return year + serial
}
