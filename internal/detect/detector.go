// internal/detect/detector.go
package detect

import (
	"sort"
	"strings"
	"unicode"
)

// Options controls how strictly an entity name is matched in text
type Options struct {
	// WholeWordOnly rejects matches that are substrings of a larger word.
	// Punctuation-adjacent occurrences count as word boundaries.
	WholeWordOnly bool
}

// DefaultOptions returns the options used when nil is passed to Detect
func DefaultOptions() *Options {
	return &Options{WholeWordOnly: true}
}

// Match is one occurrence of the entity in the text
type Match struct {
	Text       string  `json:"text"`
	Index      int     `json:"index"`
	Confidence float64 `json:"confidence"`
}

// Result is the outcome of detecting a single entity in a text
type Result struct {
	Mentioned  bool    `json:"mentioned"`
	Confidence float64 `json:"confidence"`
	Matches    []Match `json:"matches"`
}

// legal suffixes tolerated at the end of an entity name
var legalSuffixes = []string{
	"inc", "llc", "corp", "corporation", "ltd", "limited", "co", "company", "gmbh", "plc", "sa", "ag",
}

// variant is one way the entity name may appear in text
type variant struct {
	text          string
	caseSensitive bool
	confidence    float64
}

// Detect reports whether entityName is mentioned in text. Matching tolerates
// case, internal spacing, possessive forms and common legal suffixes. The
// result is deterministic for a fixed text/name/options triple.
func Detect(text, entityName string, opts *Options) Result {
	if opts == nil {
		opts = DefaultOptions()
	}

	name := collapseSpaces(strings.TrimSpace(entityName))
	if name == "" || text == "" {
		return Result{}
	}

	var matches []Match
	seen := make(map[int]float64) // match index -> best confidence

	for _, v := range buildVariants(name) {
		for _, idx := range findOccurrences(text, v.text, v.caseSensitive, opts.WholeWordOnly) {
			if prev, ok := seen[idx]; ok && prev >= v.confidence {
				continue
			}
			seen[idx] = v.confidence
			end := idx + len(v.text)
			if end > len(text) {
				end = len(text)
			}
			matches = append(matches, Match{
				Text:       text[idx:end],
				Index:      idx,
				Confidence: v.confidence,
			})
		}
	}

	// Collapse to the best match per index, ordered by position
	best := make(map[int]Match)
	for _, m := range matches {
		if cur, ok := best[m.Index]; !ok || m.Confidence > cur.Confidence {
			best[m.Index] = m
		}
	}
	matches = matches[:0]
	for _, m := range best {
		matches = append(matches, m)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Index < matches[j].Index })

	result := Result{Matches: matches}
	for _, m := range matches {
		if m.Confidence > result.Confidence {
			result.Confidence = m.Confidence
		}
	}
	if result.Confidence > 1.0 {
		result.Confidence = 1.0
	}
	result.Mentioned = len(matches) > 0
	return result
}

// DetectMultiple applies Detect independently per name; entries never
// interact with each other.
func DetectMultiple(text string, names []string, opts *Options) map[string]Result {
	results := make(map[string]Result, len(names))
	for _, name := range names {
		results[name] = Detect(text, name, opts)
	}
	return results
}

// buildVariants expands an entity name into the forms searched for in text,
// highest confidence first. Exact case-sensitive matches score highest; the
// normalized and respaced forms score lower.
func buildVariants(name string) []variant {
	variants := []variant{
		{text: name, caseSensitive: true, confidence: 1.0},
		{text: name, caseSensitive: false, confidence: 0.9},
	}

	if base := StripLegalSuffix(name); base != "" && !strings.EqualFold(base, name) {
		variants = append(variants,
			variant{text: base, caseSensitive: true, confidence: 0.9},
			variant{text: base, caseSensitive: false, confidence: 0.85},
		)
	}

	if nospace := strings.ReplaceAll(name, " ", ""); nospace != name {
		variants = append(variants, variant{text: nospace, caseSensitive: false, confidence: 0.85})
	}

	return variants
}

// findOccurrences returns the byte index of every occurrence of needle in
// haystack, honoring case sensitivity and word boundaries.
func findOccurrences(haystack, needle string, caseSensitive, wholeWordOnly bool) []int {
	h, n := haystack, needle
	if !caseSensitive {
		h = strings.ToLower(haystack)
		n = strings.ToLower(needle)
	}
	if n == "" {
		return nil
	}

	var indexes []int
	offset := 0
	for {
		idx := strings.Index(h[offset:], n)
		if idx < 0 {
			break
		}
		abs := offset + idx
		if !wholeWordOnly || isWholeWord(h, abs, abs+len(n)) {
			indexes = append(indexes, abs)
		}
		offset = abs + len(n)
	}
	return indexes
}

// isWholeWord checks that the match at [start,end) is not embedded in a
// larger word. Apostrophes and other punctuation count as boundaries, which
// is what makes possessive forms ("OpenAI's") match.
func isWholeWord(text string, start, end int) bool {
	if start > 0 {
		r := previousRune(text, start)
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := firstRune(text[end:])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func previousRune(s string, idx int) rune {
	r := rune(s[idx-1])
	if r < 0x80 {
		return r
	}
	runes := []rune(s[:idx])
	return runes[len(runes)-1]
}

func firstRune(s string) (rune, int) {
	for _, r := range s {
		return r, len(string(r))
	}
	return 0, 0
}

// StripLegalSuffix removes a trailing legal suffix ("Acme Inc." -> "Acme").
// Returns the name unchanged when no suffix is present.
func StripLegalSuffix(name string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(name), ".,")
	fields := strings.Fields(trimmed)
	if len(fields) < 2 {
		return name
	}
	last := strings.ToLower(strings.TrimRight(fields[len(fields)-1], ".,"))
	for _, suffix := range legalSuffixes {
		if last == suffix {
			return strings.Join(fields[:len(fields)-1], " ")
		}
	}
	return name
}

// NormalizeName reduces a company name to a comparison key: lowercased,
// legal suffix stripped, possessive dropped, whitespace removed. Used by the
// aggregator to resolve free-text ranking entries against tracked companies.
func NormalizeName(name string) string {
	n := strings.TrimSpace(name)
	n = StripLegalSuffix(n)
	n = strings.ToLower(n)
	n = strings.TrimSuffix(n, "'s")
	var b strings.Builder
	for _, r := range n {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
