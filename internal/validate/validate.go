package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jorge-barreto/splice/internal/lesson"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("validation failed")

// DefaultSectionPattern matches "## Part N" headings at line start.
const DefaultSectionPattern = `(?m)^## Part \d+`

// Rules bounds a lesson payload. A zero bound is not checked.
type Rules struct {
	MinChars       int    `yaml:"min-chars"`
	MaxChars       int    `yaml:"max-chars"`
	MinSections    int    `yaml:"min-sections"`
	MaxSections    int    `yaml:"max-sections"`
	MinTakeaways   int    `yaml:"min-takeaways"`
	MaxTakeaways   int    `yaml:"max-takeaways"`
	SectionPattern string `yaml:"section-pattern"`
}

// Overlay returns r with every non-zero field of o applied on top.
func (r Rules) Overlay(o Rules) Rules {
	if o.MinChars != 0 {
		r.MinChars = o.MinChars
	}
	if o.MaxChars != 0 {
		r.MaxChars = o.MaxChars
	}
	if o.MinSections != 0 {
		r.MinSections = o.MinSections
	}
	if o.MaxSections != 0 {
		r.MaxSections = o.MaxSections
	}
	if o.MinTakeaways != 0 {
		r.MinTakeaways = o.MinTakeaways
	}
	if o.MaxTakeaways != 0 {
		r.MaxTakeaways = o.MaxTakeaways
	}
	if o.SectionPattern != "" {
		r.SectionPattern = o.SectionPattern
	}
	return r
}

// Violation is one out-of-range measurement.
type Violation struct {
	Field string
	Got   int
	Min   int
	Max   int
}

func (v Violation) String() string {
	switch {
	case v.Min > 0 && v.Max > 0:
		return fmt.Sprintf("%s %d outside %d..%d", v.Field, v.Got, v.Min, v.Max)
	case v.Min > 0:
		return fmt.Sprintf("%s %d below minimum %d", v.Field, v.Got, v.Min)
	default:
		return fmt.Sprintf("%s %d above maximum %d", v.Field, v.Got, v.Max)
	}
}

// Report holds the measurements taken for one lesson.
type Report struct {
	Key        string
	Chars      int
	Sections   int
	Takeaways  int
	Violations []Violation
}

// OK reports whether no bound was violated.
func (r Report) OK() bool { return len(r.Violations) == 0 }

// Err returns nil for a passing report, otherwise an *Error.
func (r Report) Err() error {
	if r.OK() {
		return nil
	}
	return &Error{Report: r}
}

// Error carries the failing report.
type Error struct {
	Report Report
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Report.Violations))
	for i, v := range e.Report.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("%s: %s: %s", e.Report.Key, ErrInvalid, strings.Join(parts, "; "))
}

func (e *Error) Unwrap() error { return ErrInvalid }

// Check measures l against r.
func Check(l lesson.Lesson, r Rules) (Report, error) {
	pattern := r.SectionPattern
	if pattern == "" {
		pattern = DefaultSectionPattern
	}
	marker, err := regexp.Compile(pattern)
	if err != nil {
		return Report{}, fmt.Errorf("invalid section pattern %q: %w", pattern, err)
	}

	rep := Report{
		Key:       l.ID,
		Chars:     l.Chars(),
		Sections:  lesson.Sections(l.Content, marker),
		Takeaways: len(l.Takeaways),
	}
	rep.bound("chars", rep.Chars, r.MinChars, r.MaxChars)
	rep.bound("sections", rep.Sections, r.MinSections, r.MaxSections)
	rep.bound("takeaways", rep.Takeaways, r.MinTakeaways, r.MaxTakeaways)
	return rep, nil
}

func (r *Report) bound(field string, got, min, max int) {
	if (min > 0 && got < min) || (max > 0 && got > max) {
		r.Violations = append(r.Violations, Violation{Field: field, Got: got, Min: min, Max: max})
	}
}
