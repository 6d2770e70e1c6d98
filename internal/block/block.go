package block

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrKeyNotFound      = errors.New("key not found")
	ErrSentinelNotFound = errors.New("sentinel key not found")
)

// Span locates one keyed block inside the data file text.
type Span struct {
	Key   string
	Start int // opening quote of the key
	Open  int // '{' starting the record
	Close int // matching '}'
}

// End returns the index just past the closing brace.
func (s Span) End() int { return s.Close + 1 }

// Text returns the whole keyed block, key included.
func (s Span) Text(src string) string { return src[s.Start:s.End()] }

// Body returns the object literal without the key.
func (s Span) Body(src string) string { return src[s.Open:s.End()] }

// keyRe matches `"<key>": {` or `'<key>': {` for a literal key.
func keyRe(key string) *regexp.Regexp {
	q := regexp.QuoteMeta(key)
	return regexp.MustCompile(`(?:"` + q + `"|'` + q + `')\s*:\s*\{`)
}

// Locate finds the first block opened by key and matches its braces.
func Locate(text, key string) (Span, error) {
	loc := keyRe(key).FindStringIndex(text)
	if loc == nil {
		return Span{}, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	open := loc[1] - 1
	end, err := FindBlockEnd(text, open)
	if err != nil {
		return Span{}, fmt.Errorf("block %q: %w", key, err)
	}
	return Span{Key: key, Start: loc[0], Open: open, Close: end}, nil
}

// LocateUntil finds the block opened by key whose end is the last '}'
// before the next key's opening.
func LocateUntil(text, key, next string) (Span, error) {
	loc := keyRe(key).FindStringIndex(text)
	if loc == nil {
		return Span{}, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	open := loc[1] - 1
	nloc := keyRe(next).FindStringIndex(text[open:])
	if nloc == nil {
		return Span{}, fmt.Errorf("%w: %q after %q", ErrSentinelNotFound, next, key)
	}
	sentinel := open + nloc[0]
	rel := strings.LastIndexByte(text[open+1:sentinel], '}')
	if rel < 0 {
		return Span{}, fmt.Errorf("block %q: no closing brace before %q: %w", key, next, ErrUnbalanced)
	}
	return Span{Key: key, Start: loc[0], Open: open, Close: open + 1 + rel}, nil
}

// Count reports how many blocks the key opens.
func Count(text, key string) int {
	return len(keyRe(key).FindAllStringIndex(text, -1))
}

// Replace swaps the span for replacement. Bytes outside the span are kept.
func Replace(text string, span Span, replacement string) string {
	var b strings.Builder
	b.Grow(len(text) - (span.End() - span.Start) + len(replacement))
	b.WriteString(text[:span.Start])
	b.WriteString(replacement)
	b.WriteString(text[span.End():])
	return b.String()
}

// InsertAfter places block right after the anchor's closing brace, on its
// own line at the anchor's indentation.
func InsertAfter(text, anchor, block string) (string, error) {
	span, err := Locate(text, anchor)
	if err != nil {
		return "", err
	}
	indent := Indent(text, span.Start)
	return text[:span.End()] + ",\n" + indent + block + text[span.End():], nil
}

// InsertBefore places block at the anchor's key, followed by a separator.
func InsertBefore(text, anchor, block string) (string, error) {
	span, err := Locate(text, anchor)
	if err != nil {
		return "", err
	}
	indent := Indent(text, span.Start)
	return text[:span.Start] + block + ",\n" + indent + text[span.Start:], nil
}

// Remove deletes the block opened by key along with one separating comma.
func Remove(text, key string) (string, error) {
	span, err := Locate(text, key)
	if err != nil {
		return "", err
	}
	from, to := span.Start, span.End()

	before := strings.TrimRight(text[:span.Start], " \t\r\n")
	if strings.HasSuffix(before, ",") {
		from = len(before) - 1
		return text[:from] + text[to:], nil
	}
	after := strings.TrimLeft(text[to:], " \t\r\n")
	if strings.HasPrefix(after, ",") {
		rest := strings.TrimLeft(after[1:], " \t\r\n")
		to = len(text) - len(rest)
	}
	return text[:from] + text[to:], nil
}

// Indent returns the leading whitespace of the line holding pos.
func Indent(text string, pos int) string {
	start := strings.LastIndexByte(text[:pos], '\n') + 1
	end := start
	for end < len(text) && (text[end] == ' ' || text[end] == '\t') {
		end++
	}
	return text[start:end]
}

// CompileKeyPattern builds a matcher for block keys whose name matches
// expr, e.g. `[a-z]+_\d+`.
func CompileKeyPattern(expr string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`["'](` + expr + `)["']\s*:\s*\{`)
	if err != nil {
		return nil, fmt.Errorf("invalid key pattern %q: %w", expr, err)
	}
	return re, nil
}

// All returns every block whose key matches pattern, in file order.
// Matches that fall inside an earlier block are skipped.
func All(text string, pattern *regexp.Regexp) ([]Span, error) {
	var spans []Span
	last := -1
	for _, m := range pattern.FindAllStringSubmatchIndex(text, -1) {
		if m[0] <= last {
			continue
		}
		open := m[1] - 1
		end, err := FindBlockEnd(text, open)
		if err != nil {
			return spans, fmt.Errorf("block %q: %w", text[m[2]:m[3]], err)
		}
		spans = append(spans, Span{Key: text[m[2]:m[3]], Start: m[0], Open: open, Close: end})
		last = end
	}
	return spans, nil
}

// Keys lists the keys of All, duplicates included.
func Keys(text string, pattern *regexp.Regexp) ([]string, error) {
	spans, err := All(text, pattern)
	keys := make([]string, len(spans))
	for i, s := range spans {
		keys[i] = s.Key
	}
	return keys, err
}
