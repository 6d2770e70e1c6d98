package patch

import (
	"regexp"

	"github.com/jorge-barreto/splice/internal/block"
	"github.com/jorge-barreto/splice/internal/lesson"
	"github.com/jorge-barreto/splice/internal/validate"
)

// Finding is the audit outcome for one existing block.
type Finding struct {
	Key    string
	Span   block.Span
	Lesson lesson.Lesson
	Report validate.Report
	Err    error // extraction or rule error; nil when Report is meaningful
}

// Failed reports whether the block failed extraction or its rules.
func (f Finding) Failed() bool {
	return f.Err != nil || !f.Report.OK()
}

// Audit validates existing blocks in text. With no keys every block
// matching pattern is audited; otherwise only the named keys, in order.
func Audit(text string, pattern *regexp.Regexp, keys []string, rules RulesFunc) ([]Finding, error) {
	if rules == nil {
		rules = func(string) validate.Rules { return validate.Rules{} }
	}

	var spans []block.Span
	if len(keys) == 0 {
		all, err := block.All(text, pattern)
		if err != nil {
			return nil, err
		}
		spans = all
	} else {
		for _, k := range keys {
			s, err := block.Locate(text, k)
			if err != nil {
				return nil, err
			}
			spans = append(spans, s)
		}
	}

	findings := make([]Finding, 0, len(spans))
	for _, s := range spans {
		f := Finding{Key: s.Key, Span: s}
		l, err := lesson.Extract(s.Key, s.Body(text))
		if err != nil {
			f.Err = err
			findings = append(findings, f)
			continue
		}
		f.Lesson = l
		f.Report, f.Err = validate.Check(l, rules(s.Key))
		findings = append(findings, f)
	}
	return findings, nil
}
