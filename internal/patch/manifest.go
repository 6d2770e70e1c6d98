package patch

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jorge-barreto/splice/internal/lesson"
	"github.com/jorge-barreto/splice/internal/lessondoc"
)

const (
	KindReplace = "replace"
	KindInsert  = "insert"
	KindDelete  = "delete"
)

// Op is one edit to the data file.
type Op struct {
	Replace string `yaml:"replace"`
	Insert  string `yaml:"insert"`
	Delete  string `yaml:"delete"`
	After   string `yaml:"after"`
	Before  string `yaml:"before"`
	Until   string `yaml:"until"`
	Source  string `yaml:"source"`

	// Lesson is the payload for replace and insert, loaded from Source.
	Lesson *lesson.Lesson `yaml:"-"`
}

// Kind returns which of replace, insert or delete the op performs.
func (o Op) Kind() string {
	switch {
	case o.Replace != "":
		return KindReplace
	case o.Insert != "":
		return KindInsert
	case o.Delete != "":
		return KindDelete
	}
	return ""
}

// Key returns the lesson id the op targets.
func (o Op) Key() string {
	switch o.Kind() {
	case KindReplace:
		return o.Replace
	case KindInsert:
		return o.Insert
	}
	return o.Delete
}

// Validate checks the op's shape.
func (o Op) Validate() error {
	set := 0
	for _, k := range []string{o.Replace, o.Insert, o.Delete} {
		if k != "" {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("exactly one of replace, insert or delete is required")
	}

	key := o.Key()
	switch o.Kind() {
	case KindReplace:
		if o.After != "" || o.Before != "" {
			return fmt.Errorf("replace %q: 'after'/'before' are only valid on insert", key)
		}
		if o.Until == key {
			return fmt.Errorf("replace %q: 'until' must name a different key", key)
		}
	case KindInsert:
		if (o.After == "") == (o.Before == "") {
			return fmt.Errorf("insert %q: exactly one of 'after' or 'before' is required", key)
		}
		if o.After == key || o.Before == key {
			return fmt.Errorf("insert %q: cannot anchor on itself", key)
		}
		if o.Until != "" {
			return fmt.Errorf("insert %q: 'until' is only valid on replace", key)
		}
	case KindDelete:
		if o.After != "" || o.Before != "" || o.Until != "" || o.Source != "" {
			return fmt.Errorf("delete %q: takes no other fields", key)
		}
		return nil
	}
	if o.Source == "" && o.Lesson == nil {
		return fmt.Errorf("%s %q: 'source' is required", o.Kind(), key)
	}
	return nil
}

// Manifest is a list of ops applied together.
type Manifest struct {
	Ops []Op `yaml:"ops"`
}

// LoadManifest reads and validates a manifest, then loads every op's
// source relative to the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	if len(m.Ops) == 0 {
		return nil, fmt.Errorf("manifest %s: at least one op is required", path)
	}
	dir := filepath.Dir(path)
	for i := range m.Ops {
		op := &m.Ops[i]
		if err := op.Validate(); err != nil {
			return nil, fmt.Errorf("manifest %s: op %d: %w", path, i+1, err)
		}
		if op.Source != "" && !filepath.IsAbs(op.Source) {
			op.Source = filepath.Join(dir, op.Source)
		}
		if err := op.Load(); err != nil {
			return nil, fmt.Errorf("manifest %s: op %d: %w", path, i+1, err)
		}
	}
	return &m, nil
}

// Load reads the op's source document into Lesson. The document's id, when
// set, must match the op's key.
func (o *Op) Load() error {
	if o.Source == "" || o.Lesson != nil {
		return nil
	}
	data, err := os.ReadFile(o.Source)
	if err != nil {
		return err
	}
	l, err := lessondoc.Parse(string(data))
	if err != nil {
		return fmt.Errorf("%s: %w", o.Source, err)
	}
	key := o.Key()
	if l.ID != "" && l.ID != key {
		return fmt.Errorf("%s %q: source %s declares id %q", o.Kind(), key, o.Source, l.ID)
	}
	l.ID = key
	o.Lesson = &l
	return nil
}
