package ux

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jorge-barreto/splice/internal/state"
)

// ListRow is one block in the list display.
type ListRow struct {
	Key       string
	Title     string
	Chars     int
	Sections  int
	Takeaways int
	Err       string // extraction error, when the block could not be read
}

// RenderList prints the blocks of the data file.
func RenderList(file string, rows []ListRow) {
	fmt.Printf("%sFile:%s    %s\n", Bold, Reset, file)
	fmt.Printf("%sBlocks:%s  %d\n\n", Bold, Reset, len(rows))
	if len(rows) == 0 {
		fmt.Printf("  %s(none)%s\n\n", Dim, Reset)
		return
	}
	seen := make(map[string]int, len(rows))
	for _, r := range rows {
		seen[r.Key]++
	}
	for i, r := range rows {
		dup := ""
		if seen[r.Key] > 1 {
			dup = fmt.Sprintf(" %s(duplicate)%s", Yellow, Reset)
		}
		if r.Err != "" {
			fmt.Printf("  %s%3d%s  %-12s %s%s%s%s\n", Dim, i+1, Reset, r.Key, Red, r.Err, Reset, dup)
			continue
		}
		fmt.Printf("  %s%3d%s  %-12s %6d chars %2d parts %2d takeaways  %s%s%s%s\n",
			Dim, i+1, Reset, r.Key, r.Chars, r.Sections, r.Takeaways, Dim, truncate(r.Title, 40), Reset, dup)
	}
	fmt.Println()
}

// RenderHistory prints journal entries, newest last.
func RenderHistory(j *state.Journal, limit int) {
	entries := j.Entries
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	if len(entries) == 0 {
		fmt.Printf("%s(no runs recorded)%s\n", Dim, Reset)
		return
	}
	for _, e := range entries {
		fmt.Printf("%s%s%s  %s%-8s%s %s%-9s%s %s %s\n",
			Dim, e.Time.Local().Format("2006-01-02 15:04:05"), Reset,
			Bold, shortID(e.ID), Reset,
			statusColor(e.Status), e.Status, Reset,
			e.Command, strings.Join(e.Keys, ","))
		if e.Duration != "" || e.Backup != "" {
			fmt.Printf("    %s%s", Dim, filepath.Base(e.File))
			if e.Duration != "" {
				fmt.Printf("  %s", e.Duration)
			}
			if e.Backup != "" {
				fmt.Printf("  backup %s", filepath.Base(e.Backup))
			}
			fmt.Printf("%s\n", Reset)
		}
		if e.Error != "" {
			fmt.Printf("    %s%s%s\n", Red, e.Error, Reset)
		}
	}
}

func statusColor(status string) string {
	switch status {
	case state.StatusApplied, state.StatusUndone:
		return Green
	case state.StatusFailed:
		return Red
	case state.StatusReverted:
		return Yellow
	default:
		return Dim
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
