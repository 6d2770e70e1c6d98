package block

import "errors"

var (
	ErrNotBrace   = errors.New("block: position does not hold an opening brace")
	ErrUnbalanced = errors.New("block: unbalanced braces")
	ErrNotLiteral = errors.New("block: position does not hold a string literal")
)

// FindBlockEnd returns the index of the '}' that closes the '{' at open.
//
// Braces inside string literals ("..", '..', `..`) and comments are not
// counted. Backslash escapes are honoured, and ${...} expressions inside
// template literals are matched with their own depth.
func FindBlockEnd(text string, open int) (int, error) {
	if open < 0 || open >= len(text) || text[open] != '{' {
		return -1, ErrNotBrace
	}
	return matchBrace(text, open)
}

// LiteralEnd returns the index of the delimiter closing the string literal
// that starts at i. text[i] must be a quote or backtick.
func LiteralEnd(text string, i int) (int, error) {
	if i < 0 || i >= len(text) {
		return -1, ErrUnbalanced
	}
	switch text[i] {
	case '"', '\'':
		return skipQuoted(text, i)
	case '`':
		return skipTemplate(text, i)
	}
	return -1, ErrNotLiteral
}

// SkipComment returns the last index of the comment starting at i, or i
// itself when text[i] does not start a comment.
func SkipComment(text string, i int) (int, error) {
	if i < 0 || i >= len(text) || text[i] != '/' {
		return i, nil
	}
	return skipComment(text, i)
}

func matchBrace(text string, open int) (int, error) {
	depth := 0
	for i := open; i < len(text); i++ {
		var err error
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		case '"', '\'':
			i, err = skipQuoted(text, i)
		case '`':
			i, err = skipTemplate(text, i)
		case '/':
			i, err = skipComment(text, i)
		}
		if err != nil {
			return -1, err
		}
	}
	return -1, ErrUnbalanced
}

// skipQuoted returns the index of the quote closing the literal at i.
func skipQuoted(text string, i int) (int, error) {
	q := text[i]
	for j := i + 1; j < len(text); j++ {
		switch text[j] {
		case '\\':
			j++
		case q:
			return j, nil
		case '\n':
			// unterminated single-line literal
			return -1, ErrUnbalanced
		}
	}
	return -1, ErrUnbalanced
}

// skipTemplate returns the index of the backtick closing the template
// literal at i.
func skipTemplate(text string, i int) (int, error) {
	for j := i + 1; j < len(text); j++ {
		switch text[j] {
		case '\\':
			j++
		case '`':
			return j, nil
		case '$':
			if j+1 < len(text) && text[j+1] == '{' {
				end, err := matchBrace(text, j+1)
				if err != nil {
					return -1, err
				}
				j = end
			}
		}
	}
	return -1, ErrUnbalanced
}

// skipComment returns the last index of the comment starting at i, or i
// itself when the slash does not start a comment.
func skipComment(text string, i int) (int, error) {
	if i+1 >= len(text) {
		return i, nil
	}
	switch text[i+1] {
	case '/':
		for j := i + 2; j < len(text); j++ {
			if text[j] == '\n' {
				return j, nil
			}
		}
		return len(text) - 1, nil
	case '*':
		for j := i + 2; j+1 < len(text); j++ {
			if text[j] == '*' && text[j+1] == '/' {
				return j + 1, nil
			}
		}
		return -1, ErrUnbalanced
	}
	return i, nil
}
