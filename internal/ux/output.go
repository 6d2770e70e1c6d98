package ux

import (
	"fmt"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/jorge-barreto/splice/internal/validate"
)

// ANSI color helpers
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Dim    = "\033[2m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
)

func timestamp() string {
	return time.Now().Format("15:04:05")
}

// RunHeader prints a timestamped header for one edit run.
func RunHeader(command, file string, ops int) {
	fmt.Printf("\n%s[%s]%s %s══════════════════════════════════════%s\n",
		Dim, timestamp(), Reset, Cyan, Reset)
	fmt.Printf("%s[%s]%s  %s%s %s (%d op%s)%s\n",
		Dim, timestamp(), Reset, Bold, command, file, ops, plural(ops), Reset)
	fmt.Printf("%s[%s]%s %s══════════════════════════════════════%s\n",
		Dim, timestamp(), Reset, Cyan, Reset)
}

// StepOK prints a completed step with its size change.
func StepOK(index, total int, kind, key string, before, after int) {
	fmt.Printf("%s[%s]%s  %s✓ %d/%d %s %s%s %s\n",
		Dim, timestamp(), Reset, Green, index+1, total, kind, key, Reset, sizeChange(before, after))
}

// StepFail prints a failed step.
func StepFail(kind, key, errMsg string) {
	fmt.Printf("%s[%s]%s  %s✗ %s %s failed: %s%s\n",
		Dim, timestamp(), Reset, Red, kind, key, errMsg, Reset)
}

func sizeChange(before, after int) string {
	switch {
	case before == 0:
		return fmt.Sprintf("%s(+%d chars)%s", Dim, after, Reset)
	case after == 0:
		return fmt.Sprintf("%s(-%d chars)%s", Dim, before, Reset)
	default:
		return fmt.Sprintf("%s(%d → %d chars)%s", Dim, before, after, Reset)
	}
}

// Report prints the measured values of a validation report followed by any
// violations.
func Report(r validate.Report) {
	status := Green + "ok" + Reset
	if !r.OK() {
		status = Red + "invalid" + Reset
	}
	fmt.Printf("     %-12s chars %-6d sections %-3d takeaways %-3d %s\n",
		r.Key, r.Chars, r.Sections, r.Takeaways, status)
	for _, v := range r.Violations {
		fmt.Printf("       %s- %s%s\n", Yellow, v, Reset)
	}
}

// Diff prints a unified diff of the data file before and after a plan.
func Diff(name, before, after string) error {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  3,
	})
	if err != nil {
		return err
	}
	if text == "" {
		fmt.Printf("%s(no changes)%s\n", Dim, Reset)
		return nil
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			fmt.Print(Bold + line + Reset)
		case strings.HasPrefix(line, "@@"):
			fmt.Print(Cyan + line + Reset)
		case strings.HasPrefix(line, "+"):
			fmt.Print(Green + line + Reset)
		case strings.HasPrefix(line, "-"):
			fmt.Print(Red + line + Reset)
		default:
			fmt.Print(line)
		}
	}
	return nil
}

// DryRun prints the dry-run banner.
func DryRun() {
	fmt.Printf("\n%sDry run, nothing written:%s\n\n", Bold, Reset)
}

// Verifying prints the verify command about to run.
func Verifying(command string) {
	fmt.Printf("%s[%s]%s  %s⚙ verify:%s %s\n", Dim, timestamp(), Reset, Cyan, Reset, command)
}

// Reverted prints the revert notice after a failed verify.
func Reverted(file, backup string) {
	fmt.Printf("%s[%s]%s  %s↺ verify failed, restored %s from %s%s\n",
		Dim, timestamp(), Reset, Yellow, file, backup, Reset)
}

// UndoHint prints how to roll back the write that just happened.
func UndoHint() {
	fmt.Printf("%sUndo:%s splice undo\n", Yellow, Reset)
}

// Success prints a final success message.
func Success(total int, file string) {
	fmt.Printf("\n%s[%s]%s  %s%s══ %d op%s applied to %s ══%s\n\n",
		Dim, timestamp(), Reset, Bold, Green, total, plural(total), file, Reset)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
