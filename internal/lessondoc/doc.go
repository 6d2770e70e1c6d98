package lessondoc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jorge-barreto/splice/internal/lesson"
)

var ErrNoFrontMatter = errors.New("missing front matter")

// Doc is a lesson source file split into its two parts.
type Doc struct {
	Meta string // YAML between the --- fences
	Body string // markdown after the closing fence
}

// Split separates front matter from the body. It recognizes:
//
//	---
//	id: cb_10
//	title: Reading Candles
//	---
//	## Part 1 ...
//
// The opening fence must be the first non-blank line.
func Split(text string) (Doc, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	if start == len(lines) || strings.TrimSpace(lines[start]) != "---" {
		return Doc{}, ErrNoFrontMatter
	}

	var meta strings.Builder
	for i := start + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			body := strings.Join(lines[i+1:], "\n")
			return Doc{Meta: meta.String(), Body: strings.Trim(body, "\n")}, nil
		}
		if meta.Len() > 0 {
			meta.WriteByte('\n')
		}
		meta.WriteString(lines[i])
	}
	// Unclosed fence
	return Doc{}, fmt.Errorf("%w: unclosed --- fence", ErrNoFrontMatter)
}

// Parse decodes a lesson source document.
func Parse(text string) (lesson.Lesson, error) {
	doc, err := Split(text)
	if err != nil {
		return lesson.Lesson{}, err
	}
	var l lesson.Lesson
	if err := yaml.Unmarshal([]byte(doc.Meta), &l); err != nil {
		return lesson.Lesson{}, fmt.Errorf("front matter: %w", err)
	}
	l.Content = doc.Body
	return l, nil
}

// Load reads a lesson source file. The id defaults to the file name
// without extension.
func Load(path string) (lesson.Lesson, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return lesson.Lesson{}, err
	}
	l, err := Parse(string(data))
	if err != nil {
		return lesson.Lesson{}, fmt.Errorf("%s: %w", path, err)
	}
	if l.ID == "" {
		l.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return l, nil
}

// Format renders l as a source document that Parse reads back.
func Format(l lesson.Lesson) (string, error) {
	meta, err := yaml.Marshal(l)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("---\n")
	b.Write(meta)
	b.WriteString("---\n")
	b.WriteString(l.Content)
	if !strings.HasSuffix(l.Content, "\n") {
		b.WriteByte('\n')
	}
	return b.String(), nil
}
