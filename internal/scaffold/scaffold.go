package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jorge-barreto/splice/internal/config"
	"github.com/jorge-barreto/splice/internal/ux"
)

// DefaultDataFile is used when init is not told where the data file lives.
const DefaultDataFile = "src/data/lessonContent.ts"

var configTemplate = `# Data file holding the exported lesson mapping, relative to the project root.
data-file: {{DATA_FILE}}

# Keys that list and check treat as lesson blocks.
key-pattern: '[a-z]+_\d+'

# Nesting unit for rendered blocks.
indent: "  "

# Runs after every write; a nonzero exit restores the previous file.
# verify: npx tsc --noEmit
verify-timeout: 5

# Backups kept in .splice/backups.
backups: 20

rules:
  default:
    # min-chars: 6000
    # max-chars: 12000
    min-sections: 3
    max-sections: 8
    min-takeaways: 1
    section-pattern: '(?m)^## Part \d+'
`

var lessonTemplate = `---
id: example_1
title: Example Lesson
takeaways:
  - Each lesson is one keyed block in the data file.
  - Content is Markdown split into numbered parts.
---
## Part 1: What this file is

Lesson sources are Markdown with YAML front matter. The body becomes the
block's content; title and takeaways come from the front matter.

## Part 2: Replacing a block

Run ` + "`splice replace example_1 .splice/lessons/example.md --dry-run`" + ` to
preview the edit as a diff.

## Part 3: Applying many edits

List several operations in a manifest and run ` + "`splice apply`" + `. Either all
of them land or none do.
`

// Init creates a new .splice/ directory with an example config and lesson
// source.
func Init(targetDir, dataFile string) error {
	spliceDir := filepath.Join(targetDir, config.Dir)
	if _, err := os.Stat(spliceDir); err == nil {
		return fmt.Errorf("%s directory already exists in %s", config.Dir, targetDir)
	}
	if dataFile == "" {
		dataFile = DefaultDataFile
	}

	lessonsDir := filepath.Join(spliceDir, "lessons")
	if err := os.MkdirAll(lessonsDir, 0755); err != nil {
		return fmt.Errorf("creating %s/lessons: %w", config.Dir, err)
	}

	cfg := strings.Replace(configTemplate, "{{DATA_FILE}}", dataFile, 1)
	if err := os.WriteFile(config.Path(targetDir), []byte(cfg), 0644); err != nil {
		return fmt.Errorf("writing config.yaml: %w", err)
	}

	lessonPath := filepath.Join(lessonsDir, "example.md")
	if err := os.WriteFile(lessonPath, []byte(lessonTemplate), 0644); err != nil {
		return fmt.Errorf("writing example.md: %w", err)
	}

	fmt.Printf("\n%s%s✓ Initialized %s/ directory%s\n\n", ux.Bold, ux.Green, config.Dir, ux.Reset)
	fmt.Printf("  Created:\n")
	fmt.Printf("    %s.splice/config.yaml%s          project configuration\n", ux.Cyan, ux.Reset)
	fmt.Printf("    %s.splice/lessons/example.md%s   example lesson source\n\n", ux.Cyan, ux.Reset)
	fmt.Printf("  Next steps:\n")
	fmt.Printf("    1. Check %sdata-file%s points at %s\n", ux.Cyan, ux.Reset, dataFile)
	fmt.Printf("    2. Run %ssplice list%s to see the blocks it holds\n", ux.Cyan, ux.Reset)
	fmt.Printf("    3. Run %ssplice docs sources%s for the lesson source format\n\n", ux.Cyan, ux.Reset)

	return nil
}
