package lesson

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jorge-barreto/splice/internal/block"
)

var ErrNoContent = errors.New("lesson has no content")

// Lesson is one record of the data file mapping.
type Lesson struct {
	ID        string   `yaml:"id"`
	Title     string   `yaml:"title"`
	Content   string   `yaml:"-"`
	Takeaways []string `yaml:"takeaways"`
}

// Chars returns the content length in characters.
func (l Lesson) Chars() int {
	return utf8.RuneCountInString(l.Content)
}

// Sections counts section markers in content.
func Sections(content string, marker *regexp.Regexp) int {
	if marker == nil {
		return 0
	}
	return len(marker.FindAllStringIndex(content, -1))
}

// Render serialises l as a keyed block. The first line carries no
// indentation; nested lines are indented two spaces relative to indent.
func Render(l Lesson, indent string) string {
	return RenderWith(l, indent, "  ")
}

// RenderWith is Render with an explicit nesting unit.
func RenderWith(l Lesson, indent, unit string) string {
	inner := indent + unit
	var b strings.Builder
	fmt.Fprintf(&b, "%s: {\n", Quote(l.ID))
	fmt.Fprintf(&b, "%stitle: %s,\n", inner, Quote(l.Title))
	fmt.Fprintf(&b, "%scontent: %s,\n", inner, QuoteTemplate(l.Content))
	fmt.Fprintf(&b, "%stakeaways: [\n", inner)
	for _, t := range l.Takeaways {
		fmt.Fprintf(&b, "%s%s%s,\n", inner, unit, Quote(t))
	}
	fmt.Fprintf(&b, "%s],\n", inner)
	b.WriteString(indent + "}")
	return b.String()
}

// Extract reads the title, content and takeaways properties from an object
// literal. Unknown properties are skipped.
func Extract(id, object string) (Lesson, error) {
	l := Lesson{ID: id}
	open := strings.IndexByte(object, '{')
	if open < 0 {
		return l, fmt.Errorf("lesson %q: no object literal", id)
	}
	end, err := block.FindBlockEnd(object, open)
	if err != nil {
		return l, fmt.Errorf("lesson %q: %w", id, err)
	}

	sawContent := false
	i := open + 1
	for {
		if i, err = skipSpace(object, i, end); err != nil {
			return l, fmt.Errorf("lesson %q: %w", id, err)
		}
		if i >= end {
			break
		}
		if object[i] == ',' {
			i++
			continue
		}

		name, next, err := readName(object, i)
		if err != nil {
			return l, fmt.Errorf("lesson %q: %w", id, err)
		}
		if i, err = skipSpace(object, next, end); err != nil {
			return l, fmt.Errorf("lesson %q: %w", id, err)
		}
		if i >= end || object[i] != ':' {
			return l, fmt.Errorf("lesson %q: expected ':' after %q", id, name)
		}
		if i, err = skipSpace(object, i+1, end); err != nil {
			return l, fmt.Errorf("lesson %q: %w", id, err)
		}

		switch name {
		case "title", "content":
			s, next, err := readString(object, i)
			if err != nil {
				return l, fmt.Errorf("lesson %q: field %q: %w", id, name, err)
			}
			if name == "title" {
				l.Title = s
			} else {
				l.Content = s
				sawContent = true
			}
			i = next
		case "takeaways":
			list, next, err := readStrings(object, i, end)
			if err != nil {
				return l, fmt.Errorf("lesson %q: field %q: %w", id, name, err)
			}
			l.Takeaways = list
			i = next
		default:
			if i, err = skipValue(object, i, end); err != nil {
				return l, fmt.Errorf("lesson %q: field %q: %w", id, name, err)
			}
		}
	}

	if !sawContent {
		return l, fmt.Errorf("lesson %q: %w", id, ErrNoContent)
	}
	return l, nil
}

func skipSpace(s string, i, end int) (int, error) {
	for i < end {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
			i++
		case '/':
			j, err := block.SkipComment(s, i)
			if err != nil {
				return -1, err
			}
			if j == i {
				return i, nil
			}
			i = j + 1
		default:
			return i, nil
		}
	}
	return i, nil
}

func isIdent(c byte) bool {
	return c == '_' || c == '$' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func readName(s string, i int) (string, int, error) {
	switch s[i] {
	case '"', '\'':
		return readString(s, i)
	}
	j := i
	for j < len(s) && isIdent(s[j]) {
		j++
	}
	if j == i {
		return "", -1, fmt.Errorf("unexpected %q at offset %d", s[i], i)
	}
	return s[i:j], j, nil
}

func readString(s string, i int) (string, int, error) {
	end, err := block.LiteralEnd(s, i)
	if err != nil {
		return "", -1, err
	}
	v, err := Unquote(s[i : end+1])
	if err != nil {
		return "", -1, err
	}
	return v, end + 1, nil
}

func readStrings(s string, i, end int) ([]string, int, error) {
	if s[i] != '[' {
		return nil, -1, fmt.Errorf("expected array")
	}
	list := []string{}
	i++
	for {
		var err error
		if i, err = skipSpace(s, i, end); err != nil {
			return nil, -1, err
		}
		if i >= end {
			return nil, -1, block.ErrUnbalanced
		}
		switch s[i] {
		case ']':
			return list, i + 1, nil
		case ',':
			i++
			continue
		}
		v, next, err := readString(s, i)
		if err != nil {
			return nil, -1, err
		}
		list = append(list, v)
		i = next
	}
}

// skipValue advances past a value of any shape up to the next top-level
// ',' or the end of the object.
func skipValue(s string, i, end int) (int, error) {
	depth := 0
	for ; i < end; i++ {
		switch c := s[i]; c {
		case '{', '[', '(':
			depth++
		case '}', ']', ')':
			depth--
		case ',':
			if depth == 0 {
				return i, nil
			}
		case '"', '\'', '`':
			j, err := block.LiteralEnd(s, i)
			if err != nil {
				return -1, err
			}
			i = j
		case '/':
			j, err := block.SkipComment(s, i)
			if err != nil {
				return -1, err
			}
			i = j
		}
	}
	return end, nil
}
