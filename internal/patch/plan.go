package patch

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/jorge-barreto/splice/internal/block"
	"github.com/jorge-barreto/splice/internal/lesson"
	"github.com/jorge-barreto/splice/internal/validate"
)

var (
	ErrKeyExists = errors.New("key already exists")
	ErrUnstable  = errors.New("spliced block does not re-locate to the inserted text")
)

// RulesFunc returns the validation rules for a key.
type RulesFunc func(key string) validate.Rules

// Options configure Plan.
type Options struct {
	Indent string // nesting unit for rendered blocks; two spaces when empty
	Rules  RulesFunc
	Log    *zap.Logger
}

// Step records one applied op.
type Step struct {
	Kind        string
	Key         string
	CharsBefore int // characters of the old block, 0 for inserts
	CharsAfter  int // characters of the new block, 0 for deletes
	Report      *validate.Report
}

// Result is the outcome of Plan. On error Steps holds the ops that
// succeeded before the failing one and Text is empty.
type Result struct {
	Text  string
	Steps []Step
}

// Plan applies ops in order to an in-memory copy of text. Any failure
// aborts the whole plan, so callers write nothing unless err is nil.
func Plan(text string, ops []Op, opts Options) (*Result, error) {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Rules == nil {
		opts.Rules = func(string) validate.Rules { return validate.Rules{} }
	}

	res := &Result{}
	for i, op := range ops {
		if err := op.Validate(); err != nil {
			return res, fmt.Errorf("op %d: %w", i+1, err)
		}
		var (
			step Step
			err  error
		)
		switch op.Kind() {
		case KindReplace:
			text, step, err = replace(text, op, opts)
		case KindInsert:
			text, step, err = insert(text, op, opts)
		case KindDelete:
			text, step, err = remove(text, op, opts)
		}
		if err != nil {
			return res, fmt.Errorf("%s %q: %w", op.Kind(), op.Key(), err)
		}
		opts.Log.Debug("step planned",
			zap.String("kind", step.Kind),
			zap.String("key", step.Key),
			zap.Int("chars_before", step.CharsBefore),
			zap.Int("chars_after", step.CharsAfter))
		res.Steps = append(res.Steps, step)
	}
	res.Text = text
	return res, nil
}

func checkPayload(op Op, opts Options) (lesson.Lesson, *validate.Report, error) {
	if op.Lesson == nil {
		return lesson.Lesson{}, nil, fmt.Errorf("no payload loaded")
	}
	l := *op.Lesson
	l.ID = op.Key()
	rep, err := validate.Check(l, opts.Rules(l.ID))
	if err != nil {
		return l, nil, err
	}
	if err := rep.Err(); err != nil {
		return l, &rep, err
	}
	return l, &rep, nil
}

func render(l lesson.Lesson, indent string, opts Options) string {
	if opts.Indent == "" {
		return lesson.Render(l, indent)
	}
	return lesson.RenderWith(l, indent, opts.Indent)
}

func replace(text string, op Op, opts Options) (string, Step, error) {
	key := op.Key()
	step := Step{Kind: KindReplace, Key: key}

	l, rep, err := checkPayload(op, opts)
	step.Report = rep
	if err != nil {
		return text, step, err
	}

	var span block.Span
	if op.Until != "" {
		span, err = block.LocateUntil(text, key, op.Until)
	} else {
		span, err = block.Locate(text, key)
	}
	if err != nil {
		return text, step, err
	}
	if n := block.Count(text, key); n > 1 {
		opts.Log.Warn("key opens more than one block, replacing the first",
			zap.String("key", key), zap.Int("count", n))
	}

	rendered := render(l, block.Indent(text, span.Start), opts)
	step.CharsBefore = utf8.RuneCountInString(span.Text(text))
	step.CharsAfter = utf8.RuneCountInString(rendered)

	out := block.Replace(text, span, rendered)
	if err := confirm(out, key, rendered); err != nil {
		return text, step, err
	}
	return out, step, nil
}

func insert(text string, op Op, opts Options) (string, Step, error) {
	key := op.Key()
	step := Step{Kind: KindInsert, Key: key}

	if block.Count(text, key) > 0 {
		return text, step, ErrKeyExists
	}
	l, rep, err := checkPayload(op, opts)
	step.Report = rep
	if err != nil {
		return text, step, err
	}

	anchor := op.After
	if anchor == "" {
		anchor = op.Before
	}
	span, err := block.Locate(text, anchor)
	if err != nil {
		return text, step, fmt.Errorf("anchor: %w", err)
	}
	rendered := render(l, block.Indent(text, span.Start), opts)
	step.CharsAfter = utf8.RuneCountInString(rendered)

	var out string
	if op.After != "" {
		out, err = block.InsertAfter(text, anchor, rendered)
	} else {
		out, err = block.InsertBefore(text, anchor, rendered)
	}
	if err != nil {
		return text, step, err
	}
	if err := confirm(out, key, rendered); err != nil {
		return text, step, err
	}
	return out, step, nil
}

func remove(text string, op Op, opts Options) (string, Step, error) {
	key := op.Key()
	step := Step{Kind: KindDelete, Key: key}
	span, err := block.Locate(text, key)
	if err != nil {
		return text, step, err
	}
	step.CharsBefore = utf8.RuneCountInString(span.Text(text))
	out, err := block.Remove(text, key)
	if err != nil {
		return text, step, err
	}
	if block.Count(out, key) >= block.Count(text, key) {
		return text, step, ErrUnstable
	}
	return out, step, nil
}

// confirm re-locates key in out and checks it finds exactly rendered.
func confirm(out, key, rendered string) error {
	span, err := block.Locate(out, key)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnstable, err)
	}
	if span.Text(out) != rendered {
		return ErrUnstable
	}
	return nil
}
