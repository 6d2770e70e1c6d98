package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jorge-barreto/splice/internal/config"
	"github.com/jorge-barreto/splice/internal/dispatch"
	"github.com/jorge-barreto/splice/internal/patch"
	"github.com/jorge-barreto/splice/internal/state"
	"github.com/jorge-barreto/splice/internal/ux"
	"github.com/jorge-barreto/splice/internal/validate"
)

// Runner drives one guarded edit of the data file: lock, read, plan,
// back up, write, verify and journal.
type Runner struct {
	Config      *config.Config
	ProjectRoot string
	StateDir    string
	DataPath    string
	Command     string // recorded in the journal, e.g. "replace" or "apply"
	DryRun      bool
	Verifier    dispatch.Verifier // nil skips verification
	Log         *zap.Logger

	journal *state.Journal
	entry   state.Entry
	start   time.Time
}

// New returns a Runner for cfg rooted at projectRoot. Verification is wired
// from the config unless noVerify is set.
func New(cfg *config.Config, projectRoot string, noVerify bool) *Runner {
	r := &Runner{
		Config:      cfg,
		ProjectRoot: projectRoot,
		StateDir:    filepath.Join(projectRoot, config.Dir),
		DataPath:    cfg.DataPath(projectRoot),
		Log:         zap.NewNop(),
	}
	if cfg.Verify != "" && !noVerify {
		r.Verifier = &dispatch.BashVerifier{
			Command: cfg.Verify,
			Timeout: time.Duration(cfg.VerifyTimeout) * time.Minute,
			Out:     os.Stdout,
		}
	}
	return r
}

// failAndRecord marks the journal entry, saves the journal (warning on
// error) and returns the given error.
func (r *Runner) failAndRecord(status string, err error) error {
	r.entry.Status = status
	r.entry.Error = err.Error()
	r.record()
	return err
}

func (r *Runner) record() {
	r.journal.Append(r.entry, r.start)
	if err := r.journal.Save(r.StateDir); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to save journal: %v\n", err)
	}
}

// begin prepares the state directory, takes the lock and opens a journal
// entry. The returned lock must be released by the caller.
func (r *Runner) begin(command string, keys []string) (*state.Lock, error) {
	if r.Log == nil {
		r.Log = zap.NewNop()
	}
	if err := state.EnsureDir(r.StateDir); err != nil {
		return nil, err
	}
	lock, err := state.AcquireLock(r.StateDir)
	if err != nil {
		return nil, err
	}
	j, err := state.LoadJournal(r.StateDir)
	if err != nil {
		lock.Release()
		return nil, fmt.Errorf("loading journal: %w", err)
	}
	r.journal = j
	r.start = time.Now()
	r.entry = state.Entry{
		ID:      state.NewRunID(),
		Command: command,
		File:    r.relPath(r.DataPath),
		Keys:    keys,
	}
	r.Log.Debug("run started",
		zap.String("run_id", r.entry.ID),
		zap.String("command", command),
		zap.Strings("keys", keys))
	return lock, nil
}

func (r *Runner) relPath(p string) string {
	if rel, err := filepath.Rel(r.ProjectRoot, p); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return p
}

// Run applies ops to the data file. Nothing is written unless every op
// succeeds; a failed verify restores the original bytes.
func (r *Runner) Run(ctx context.Context, ops []patch.Op) error {
	keys := make([]string, len(ops))
	for i, op := range ops {
		keys[i] = op.Key()
	}
	command := r.Command
	if command == "" {
		command = "apply"
	}
	if r.DryRun {
		command += " --dry-run"
	}

	lock, err := r.begin(command, keys)
	if err != nil {
		return err
	}
	defer lock.Release()

	target, err := state.ReadTarget(r.DataPath)
	if err != nil {
		return r.failAndRecord(state.StatusFailed, fmt.Errorf("reading data file: %w", err))
	}
	r.entry.HashBefore = target.Hash

	ux.RunHeader(command, r.entry.File, len(ops))
	res, err := patch.Plan(target.Text(), ops, patch.Options{
		Indent: r.Config.Indent,
		Rules:  r.Config.RulesFor,
		Log:    r.Log,
	})
	r.printSteps(res, len(ops))
	if err != nil {
		if i := len(res.Steps); i < len(ops) {
			ux.StepFail(ops[i].Kind(), ops[i].Key(), err.Error())
			var verr *validate.Error
			if errors.As(err, &verr) {
				ux.Report(verr.Report)
			}
		}
		return r.failAndRecord(state.StatusFailed, err)
	}

	if ctx.Err() != nil {
		return r.failAndRecord(state.StatusFailed, ctx.Err())
	}

	if r.DryRun {
		ux.DryRun()
		if err := ux.Diff(r.entry.File, target.Text(), res.Text); err != nil {
			return r.failAndRecord(state.StatusFailed, err)
		}
		r.entry.Status = state.StatusDryRun
		r.record()
		return nil
	}

	if res.Text == target.Text() {
		fmt.Printf("%sNo changes; %s left as is.%s\n", ux.Dim, r.entry.File, ux.Reset)
		r.entry.Status = state.StatusNoop
		r.entry.HashAfter = target.Hash
		r.record()
		return nil
	}

	backup, err := state.Backup(r.StateDir, r.entry.ID, target)
	if err != nil {
		return r.failAndRecord(state.StatusFailed, err)
	}
	r.entry.Backup = r.relPath(backup)

	hash, err := state.WriteTarget(target, res.Text)
	if err != nil {
		os.Remove(backup)
		r.entry.Backup = ""
		return r.failAndRecord(state.StatusFailed, err)
	}
	r.entry.HashAfter = hash
	r.Log.Debug("data file written", zap.String("hash", hash), zap.String("backup", backup))

	if r.Verifier != nil {
		if err := r.verify(ctx, keys); err != nil {
			if restoreErr := state.Restore(backup, r.DataPath); restoreErr != nil {
				return r.failAndRecord(state.StatusFailed,
					fmt.Errorf("%w; restoring %s from %s also failed: %v", err, r.entry.File, backup, restoreErr))
			}
			ux.Reverted(r.entry.File, r.entry.Backup)
			os.Remove(backup)
			r.entry.Backup = ""
			r.entry.HashAfter = target.Hash
			return r.failAndRecord(state.StatusReverted, err)
		}
	}

	if err := state.PruneBackups(r.StateDir, r.Config.Backups); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to prune backups: %v\n", err)
	}
	r.entry.Status = state.StatusApplied
	r.record()
	ux.Success(len(ops), r.entry.File)
	ux.UndoHint()
	return nil
}

func (r *Runner) printSteps(res *patch.Result, total int) {
	if res == nil {
		return
	}
	for i, s := range res.Steps {
		ux.StepOK(i, total, s.Kind, s.Key, s.CharsBefore, s.CharsAfter)
		if s.Report != nil {
			ux.Report(*s.Report)
		}
	}
}

func (r *Runner) verify(ctx context.Context, keys []string) error {
	env := &dispatch.Environment{
		ProjectRoot: r.ProjectRoot,
		StateDir:    r.StateDir,
		DataFile:    r.DataPath,
		RunID:       r.entry.ID,
		Keys:        keys,
	}
	if bv, ok := r.Verifier.(*dispatch.BashVerifier); ok {
		if err := dispatch.Preflight(bv.Command); err != nil {
			return err
		}
		ux.Verifying(dispatch.ExpandVars(bv.Command, env.Vars()))
	}
	result, err := r.Verifier.Verify(ctx, env)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("verify exited %d (log: %s)", result.ExitCode, r.relPath(state.LogPath(r.StateDir, r.entry.ID)))
	}
	return nil
}

// Undo restores the newest backup of the data file and removes it, so a
// second undo steps one write further back.
func (r *Runner) Undo(ctx context.Context) error {
	lock, err := r.begin("undo", nil)
	if err != nil {
		return err
	}
	defer lock.Release()

	backup, err := r.latestBackup()
	if err != nil {
		return r.failAndRecord(state.StatusFailed, err)
	}
	if target, err := state.ReadTarget(r.DataPath); err == nil {
		r.entry.HashBefore = target.Hash
	}
	if err := state.Restore(backup, r.DataPath); err != nil {
		return r.failAndRecord(state.StatusFailed, fmt.Errorf("restoring %s: %w", backup, err))
	}
	restored, err := state.ReadTarget(r.DataPath)
	if err != nil {
		return r.failAndRecord(state.StatusFailed, err)
	}
	r.entry.HashAfter = restored.Hash
	r.entry.Backup = r.relPath(backup)
	if err := os.Remove(backup); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to remove used backup: %v\n", err)
	}

	if r.Verifier != nil {
		if err := r.verify(ctx, nil); err != nil {
			fmt.Fprintf(os.Stderr, "%swarning:%s restored file fails verify: %v\n", ux.Yellow, ux.Reset, err)
		}
	}

	r.entry.Status = state.StatusUndone
	r.record()
	fmt.Printf("%s↺ Restored %s from %s%s\n", ux.Green, r.entry.File, filepath.Base(backup), ux.Reset)
	return nil
}

// latestBackup returns the newest backup taken of this data file.
func (r *Runner) latestBackup() (string, error) {
	paths, err := state.Backups(r.StateDir)
	if err != nil {
		return "", err
	}
	base := filepath.Base(r.DataPath)
	for i := len(paths) - 1; i >= 0; i-- {
		// <timestamp>-<run id>-<file name>
		parts := strings.SplitN(filepath.Base(paths[i]), "-", 3)
		if len(parts) == 3 && parts[2] == base {
			return paths[i], nil
		}
	}
	return "", fmt.Errorf("%s: %w", r.relPath(r.DataPath), state.ErrNoBackup)
}
