package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jorge-barreto/splice/internal/config"
	"github.com/jorge-barreto/splice/internal/dispatch"
	"github.com/jorge-barreto/splice/internal/lesson"
	"github.com/jorge-barreto/splice/internal/patch"
	"github.com/jorge-barreto/splice/internal/state"
	"github.com/jorge-barreto/splice/internal/validate"
)

const original = `export const lessonContent = {
  "cf_2": {
    title: "Cash Flow",
    content: ` + "`## Part 1\nOld\n## Part 2\nOld`" + `,
    takeaways: ["a"],
  },
  "cf_3": {
    title: "Next",
    content: "## Part 1",
    takeaways: [],
  },
};
`

// mockVerifier records calls and returns a configurable result.
type mockVerifier struct {
	calls  int
	seen   string // data file contents when Verify ran
	result *dispatch.Result
	err    error
}

func (m *mockVerifier) Verify(ctx context.Context, env *dispatch.Environment) (*dispatch.Result, error) {
	m.calls++
	data, _ := os.ReadFile(env.DataFile)
	m.seen = string(data)
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &dispatch.Result{ExitCode: 0}, nil
}

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "lessons.ts"), []byte(original), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{
		DataFile: "lessons.ts",
		Indent:   "  ",
		Backups:  20,
		Rules: map[string]validate.Rules{
			"default": {MinSections: 2},
		},
	}
	r := New(cfg, root, true)
	r.Command = "replace"
	return r
}

func payload(id string, parts int) *lesson.Lesson {
	var b strings.Builder
	for i := 1; i <= parts; i++ {
		b.WriteString("## Part ")
		b.WriteByte(byte('0' + i))
		b.WriteString("\nNew {text}\n")
	}
	return &lesson.Lesson{ID: id, Title: "New " + id, Content: b.String(), Takeaways: []string{"x"}}
}

func readData(t *testing.T, r *Runner) string {
	t.Helper()
	data, err := os.ReadFile(r.DataPath)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func lastEntry(t *testing.T, r *Runner) state.Entry {
	t.Helper()
	j, err := state.LoadJournal(r.StateDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(j.Entries) == 0 {
		t.Fatal("journal is empty")
	}
	return j.Entries[len(j.Entries)-1]
}

func backupCount(t *testing.T, r *Runner) int {
	t.Helper()
	paths, err := state.Backups(r.StateDir)
	if err != nil {
		t.Fatal(err)
	}
	return len(paths)
}

func TestRun_ReplaceWritesAndJournals(t *testing.T) {
	r := newTestRunner(t)
	mock := &mockVerifier{}
	r.Verifier = mock

	err := r.Run(context.Background(), []patch.Op{{Replace: "cf_2", Lesson: payload("cf_2", 2)}})
	if err != nil {
		t.Fatal(err)
	}

	got := readData(t, r)
	if !strings.Contains(got, `title: "New cf_2"`) {
		t.Fatalf("replacement missing:\n%s", got)
	}
	if !strings.Contains(got, `title: "Next"`) {
		t.Fatal("neighbouring block damaged")
	}
	if mock.calls != 1 || mock.seen != got {
		t.Fatalf("verify calls = %d, saw new contents = %v", mock.calls, mock.seen == got)
	}

	e := lastEntry(t, r)
	if e.Status != state.StatusApplied {
		t.Fatalf("status = %q", e.Status)
	}
	if e.HashBefore != state.Hash([]byte(original)) || e.HashAfter != state.Hash([]byte(got)) {
		t.Fatal("journal hashes do not match file contents")
	}
	if e.Backup == "" || backupCount(t, r) != 1 {
		t.Fatalf("backup = %q, count = %d", e.Backup, backupCount(t, r))
	}
	if _, err := os.Stat(filepath.Join(r.StateDir, "lock")); !os.IsNotExist(err) {
		t.Fatal("lock should be released")
	}
}

func TestRun_MissingKeyLeavesFileUntouched(t *testing.T) {
	r := newTestRunner(t)
	err := r.Run(context.Background(), []patch.Op{
		{Replace: "cf_2", Lesson: payload("cf_2", 2)},
		{Delete: "zz_9"},
	})
	if err == nil {
		t.Fatal("expected error for missing key")
	}
	if readData(t, r) != original {
		t.Fatal("data file changed on a failed plan")
	}
	if backupCount(t, r) != 0 {
		t.Fatal("no backup expected on a failed plan")
	}
	e := lastEntry(t, r)
	if e.Status != state.StatusFailed || !strings.Contains(e.Error, "zz_9") {
		t.Fatalf("entry = %+v", e)
	}
}

func TestRun_ValidationFailureLeavesFileUntouched(t *testing.T) {
	r := newTestRunner(t)
	err := r.Run(context.Background(), []patch.Op{{Replace: "cf_2", Lesson: payload("cf_2", 1)}})
	if !errors.Is(err, validate.ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
	if readData(t, r) != original {
		t.Fatal("data file changed after validation failure")
	}
}

func TestRun_VerifyFailureReverts(t *testing.T) {
	r := newTestRunner(t)
	mock := &mockVerifier{result: &dispatch.Result{ExitCode: 2}}
	r.Verifier = mock

	err := r.Run(context.Background(), []patch.Op{{Replace: "cf_2", Lesson: payload("cf_2", 2)}})
	if err == nil || !strings.Contains(err.Error(), "verify exited 2") {
		t.Fatalf("err = %v", err)
	}
	if strings.Contains(mock.seen, "Old") {
		t.Fatal("verify should see the written file")
	}
	if readData(t, r) != original {
		t.Fatal("data file not restored after verify failure")
	}
	e := lastEntry(t, r)
	if e.Status != state.StatusReverted || e.HashAfter != e.HashBefore {
		t.Fatalf("entry = %+v", e)
	}
	if backupCount(t, r) != 0 {
		t.Fatal("used backup should be removed after revert")
	}
}

func TestRun_VerifyErrorReverts(t *testing.T) {
	r := newTestRunner(t)
	r.Verifier = &mockVerifier{err: context.DeadlineExceeded}

	err := r.Run(context.Background(), []patch.Op{{Delete: "cf_3"}})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
	if readData(t, r) != original {
		t.Fatal("data file not restored")
	}
}

func TestRun_BashVerify(t *testing.T) {
	r := newTestRunner(t)
	r.Config.Verify = `grep -q '"cf_3"' "$DATA_FILE"`
	r.Config.VerifyTimeout = 1
	r = New(r.Config, r.ProjectRoot, false)

	err := r.Run(context.Background(), []patch.Op{{Delete: "cf_3"}})
	if err == nil {
		t.Fatal("expected verify to fail once cf_3 is gone")
	}
	if readData(t, r) != original {
		t.Fatal("data file not restored")
	}
	if _, err := os.Stat(state.LogPath(r.StateDir, lastEntry(t, r).ID)); err != nil {
		t.Fatalf("verify log missing: %v", err)
	}
}

func TestRun_Locked(t *testing.T) {
	r := newTestRunner(t)
	if err := state.EnsureDir(r.StateDir); err != nil {
		t.Fatal(err)
	}
	lock, err := state.AcquireLock(r.StateDir)
	if err != nil {
		t.Fatal(err)
	}
	defer lock.Release()

	err = r.Run(context.Background(), []patch.Op{{Delete: "cf_3"}})
	if !errors.Is(err, state.ErrLocked) {
		t.Fatalf("err = %v, want ErrLocked", err)
	}
	if readData(t, r) != original {
		t.Fatal("data file changed while locked")
	}
}

func TestRun_DryRun(t *testing.T) {
	r := newTestRunner(t)
	r.DryRun = true
	mock := &mockVerifier{}
	r.Verifier = mock

	if err := r.Run(context.Background(), []patch.Op{{Delete: "cf_3"}}); err != nil {
		t.Fatal(err)
	}
	if readData(t, r) != original {
		t.Fatal("dry run wrote the data file")
	}
	if mock.calls != 0 || backupCount(t, r) != 0 {
		t.Fatal("dry run should neither verify nor back up")
	}
	e := lastEntry(t, r)
	if e.Status != state.StatusDryRun || e.Command != "replace --dry-run" {
		t.Fatalf("entry = %+v", e)
	}
}

func TestRun_NoChanges(t *testing.T) {
	r := newTestRunner(t)
	ops := []patch.Op{{Replace: "cf_2", Lesson: payload("cf_2", 2)}}
	if err := r.Run(context.Background(), ops); err != nil {
		t.Fatal(err)
	}
	if err := r.Run(context.Background(), ops); err != nil {
		t.Fatal(err)
	}
	if e := lastEntry(t, r); e.Status != state.StatusNoop {
		t.Fatalf("status = %q, want %q", e.Status, state.StatusNoop)
	}
	if backupCount(t, r) != 1 {
		t.Fatalf("backups = %d, want 1", backupCount(t, r))
	}
}

func TestUndo_WalksBack(t *testing.T) {
	r := newTestRunner(t)
	if err := r.Run(context.Background(), []patch.Op{{Replace: "cf_2", Lesson: payload("cf_2", 2)}}); err != nil {
		t.Fatal(err)
	}
	afterFirst := readData(t, r)
	if err := r.Run(context.Background(), []patch.Op{{Delete: "cf_3"}}); err != nil {
		t.Fatal(err)
	}

	if err := r.Undo(context.Background()); err != nil {
		t.Fatal(err)
	}
	if readData(t, r) != afterFirst {
		t.Fatal("first undo should restore the state after the first run")
	}
	if err := r.Undo(context.Background()); err != nil {
		t.Fatal(err)
	}
	if readData(t, r) != original {
		t.Fatal("second undo should restore the original")
	}
	if e := lastEntry(t, r); e.Status != state.StatusUndone || e.HashAfter != state.Hash([]byte(original)) {
		t.Fatalf("entry = %+v", e)
	}

	if err := r.Undo(context.Background()); !errors.Is(err, state.ErrNoBackup) {
		t.Fatalf("err = %v, want ErrNoBackup", err)
	}
}

func TestUndo_IgnoresOtherFiles(t *testing.T) {
	r := newTestRunner(t)
	if err := state.EnsureDir(r.StateDir); err != nil {
		t.Fatal(err)
	}
	other := &state.Target{Path: filepath.Join(r.ProjectRoot, "my-lessons.ts"), Data: []byte("x")}
	if _, err := state.Backup(r.StateDir, "run00001", other); err != nil {
		t.Fatal(err)
	}
	if err := r.Undo(context.Background()); !errors.Is(err, state.ErrNoBackup) {
		t.Fatalf("err = %v, want ErrNoBackup", err)
	}
	if readData(t, r) != original {
		t.Fatal("undo restored a backup of another file")
	}
}
