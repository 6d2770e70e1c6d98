package patch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	os.MkdirAll(filepath.Dir(path), 0755)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestOp_Validate(t *testing.T) {
	tests := []struct {
		name string
		op   Op
		want string // substring of error, empty for valid
	}{
		{"replace ok", Op{Replace: "a_1", Source: "x.md"}, ""},
		{"replace until", Op{Replace: "a_1", Until: "a_2", Source: "x.md"}, ""},
		{"delete ok", Op{Delete: "a_1"}, ""},
		{"insert ok", Op{Insert: "a_3", After: "a_2", Source: "x.md"}, ""},
		{"none", Op{}, "exactly one of replace"},
		{"two kinds", Op{Replace: "a_1", Delete: "a_1"}, "exactly one of replace"},
		{"replace no source", Op{Replace: "a_1"}, "'source' is required"},
		{"replace with after", Op{Replace: "a_1", After: "a_0", Source: "x.md"}, "only valid on insert"},
		{"until self", Op{Replace: "a_1", Until: "a_1", Source: "x.md"}, "different key"},
		{"insert no anchor", Op{Insert: "a_3", Source: "x.md"}, "exactly one of 'after' or 'before'"},
		{"insert both anchors", Op{Insert: "a_3", After: "a_1", Before: "a_2", Source: "x.md"}, "exactly one of 'after' or 'before'"},
		{"insert self anchor", Op{Insert: "a_3", After: "a_3", Source: "x.md"}, "itself"},
		{"insert until", Op{Insert: "a_3", After: "a_1", Until: "a_2", Source: "x.md"}, "only valid on replace"},
		{"delete extras", Op{Delete: "a_1", Source: "x.md"}, "takes no other fields"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "lessons", "cb_10.md"), "---\nid: cb_10\ntitle: Candles\n---\n## Part 1\nBody\n")
	writeFile(t, filepath.Join(dir, "lessons", "new.md"), "---\ntitle: Fees\ntakeaways: [a]\n---\n## Part 1\n")
	manifest := filepath.Join(dir, "patch.yaml")
	writeFile(t, manifest, `ops:
  - replace: cb_10
    source: lessons/cb_10.md
  - insert: fe_5
    after: fe_4
    source: lessons/new.md
  - delete: ta_9
`)

	m, err := LoadManifest(manifest)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Ops) != 3 {
		t.Fatalf("ops = %d", len(m.Ops))
	}
	if m.Ops[0].Lesson == nil || m.Ops[0].Lesson.Title != "Candles" {
		t.Fatalf("op 1 lesson = %+v", m.Ops[0].Lesson)
	}
	if m.Ops[1].Lesson == nil || m.Ops[1].Lesson.ID != "fe_5" || m.Ops[1].Lesson.Content != "## Part 1" {
		t.Fatalf("op 2 lesson = %+v", m.Ops[1].Lesson)
	}
	if m.Ops[2].Kind() != KindDelete || m.Ops[2].Lesson != nil {
		t.Fatalf("op 3 = %+v", m.Ops[2])
	}
}

func TestLoadManifest_IDMismatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "x.md"), "---\nid: fe_4\n---\nbody\n")
	manifest := filepath.Join(dir, "patch.yaml")
	writeFile(t, manifest, "ops:\n  - replace: cb_10\n    source: x.md\n")

	_, err := LoadManifest(manifest)
	if err == nil || !strings.Contains(err.Error(), `declares id "fe_4"`) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadManifest_UnknownField(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "patch.yaml")
	writeFile(t, manifest, "ops:\n  - delete: a_1\n    colour: blue\n")
	if _, err := LoadManifest(manifest); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadManifest_Empty(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "patch.yaml")
	writeFile(t, manifest, "ops: []\n")
	if _, err := LoadManifest(manifest); err == nil || !strings.Contains(err.Error(), "at least one op") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadManifest_MissingSource(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "patch.yaml")
	writeFile(t, manifest, "ops:\n  - replace: a_1\n    source: missing.md\n")
	if _, err := LoadManifest(manifest); err == nil || !strings.Contains(err.Error(), "op 1") {
		t.Fatalf("err = %v", err)
	}
}
