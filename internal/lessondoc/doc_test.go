package lessondoc

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jorge-barreto/splice/internal/lesson"
)

func TestParse_Full(t *testing.T) {
	input := "---\nid: cb_10\ntitle: Reading Candles\ntakeaways:\n  - Wicks show range\n  - Bodies show direction\n---\n\n## Part 1\nIntro\n\n## Part 2\nMore\n"
	l, err := Parse(input)
	if err != nil {
		t.Fatal(err)
	}
	if l.ID != "cb_10" {
		t.Fatalf("ID = %q", l.ID)
	}
	if l.Title != "Reading Candles" {
		t.Fatalf("Title = %q", l.Title)
	}
	if len(l.Takeaways) != 2 || l.Takeaways[1] != "Bodies show direction" {
		t.Fatalf("Takeaways = %v", l.Takeaways)
	}
	if l.Content != "## Part 1\nIntro\n\n## Part 2\nMore" {
		t.Fatalf("unexpected content: %q", l.Content)
	}
}

func TestParse_LeadingBlankLines(t *testing.T) {
	l, err := Parse("\n\n---\ntitle: x\n---\nbody")
	if err != nil {
		t.Fatal(err)
	}
	if l.Content != "body" {
		t.Fatalf("content = %q", l.Content)
	}
}

func TestParse_CRLF(t *testing.T) {
	l, err := Parse("---\r\ntitle: x\r\n---\r\nline one\r\nline two\r\n")
	if err != nil {
		t.Fatal(err)
	}
	if l.Content != "line one\nline two" {
		t.Fatalf("content = %q", l.Content)
	}
}

func TestParse_HorizontalRuleInBody(t *testing.T) {
	l, err := Parse("---\ntitle: x\n---\nabove\n---\nbelow")
	if err != nil {
		t.Fatal(err)
	}
	if l.Content != "above\n---\nbelow" {
		t.Fatalf("content = %q", l.Content)
	}
}

func TestParse_NoFrontMatter(t *testing.T) {
	_, err := Parse("## Part 1\nno meta\n")
	if !errors.Is(err, ErrNoFrontMatter) {
		t.Fatalf("err = %v, want ErrNoFrontMatter", err)
	}
}

func TestParse_UnclosedFence(t *testing.T) {
	_, err := Parse("---\ntitle: x\n## Part 1\n")
	if !errors.Is(err, ErrNoFrontMatter) {
		t.Fatalf("err = %v, want ErrNoFrontMatter", err)
	}
}

func TestParse_BadYAML(t *testing.T) {
	if _, err := Parse("---\ntitle: [unclosed\n---\nbody"); err == nil {
		t.Fatal("expected YAML error")
	}
}

func TestLoad_DefaultsIDFromFileName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fe_5.md")
	os.WriteFile(path, []byte("---\ntitle: Fees\n---\n## Part 1\n"), 0644)

	l, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if l.ID != "fe_5" {
		t.Fatalf("ID = %q, want fe_5", l.ID)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.md")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	want := lesson.Lesson{
		ID:        "cb_10",
		Title:     "Reading: Candles",
		Content:   "## Part 1\nBody with `code` and ${x}\n\n## Part 2\nMore",
		Takeaways: []string{"first", "- dashed"},
	}
	text, err := Format(want)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse(Format()) error: %v\n%s", err, text)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}
}
