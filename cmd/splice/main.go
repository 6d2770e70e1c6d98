package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jorge-barreto/splice/internal/block"
	"github.com/jorge-barreto/splice/internal/config"
	"github.com/jorge-barreto/splice/internal/docs"
	"github.com/jorge-barreto/splice/internal/lesson"
	"github.com/jorge-barreto/splice/internal/lessondoc"
	"github.com/jorge-barreto/splice/internal/patch"
	"github.com/jorge-barreto/splice/internal/runner"
	"github.com/jorge-barreto/splice/internal/scaffold"
	"github.com/jorge-barreto/splice/internal/state"
	"github.com/jorge-barreto/splice/internal/ux"
	"github.com/jorge-barreto/splice/internal/validate"
)

var logger = zap.NewNop()

func main() {
	app := &cli.Command{
		Name:        "splice",
		Usage:       "Locate, validate and replace keyed lesson blocks in a data file",
		Description: "Run 'splice docs' for documentation on config, lesson sources, manifests and safety.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Data file to edit (overrides data-file in config)"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Debug logging to stderr"},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			cfg := zap.NewProductionConfig()
			cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if cmd.Bool("verbose") {
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			l, err := cfg.Build()
			if err != nil {
				return ctx, fmt.Errorf("failed to initialize logger: %w", err)
			}
			logger = l
			return ctx, nil
		},
		After: func(ctx context.Context, cmd *cli.Command) error {
			_ = logger.Sync()
			return nil
		},
		Commands: []*cli.Command{
			initCmd(),
			listCmd(),
			showCmd(),
			checkCmd(),
			lintCmd(),
			replaceCmd(),
			insertCmd(),
			deleteCmd(),
			applyCmd(),
			historyCmd(),
			undoCmd(),
			docsCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%serror:%s %v\n", ux.Red, ux.Reset, err)
		os.Exit(1)
	}
}

func editFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "dry-run", Usage: "Print a unified diff and write nothing"},
		&cli.BoolFlag{Name: "no-verify", Usage: "Skip the configured verify command"},
	}
}

// project is the resolved project root and its config.
type project struct {
	root string
	cfg  *config.Config
}

func loadProject(cmd *cli.Command) (*project, error) {
	root, err := findProjectRoot()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(config.Path(root), root)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if f := cmd.String("file"); f != "" {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, err
		}
		cfg.DataFile = abs
	}
	logger.Debug("project loaded",
		zap.String("root", root),
		zap.String("data_file", cfg.DataPath(root)))
	return &project{root: root, cfg: cfg}, nil
}

func (p *project) readData() (string, error) {
	t, err := state.ReadTarget(p.cfg.DataPath(p.root))
	if err != nil {
		return "", fmt.Errorf("reading data file: %w", err)
	}
	return t.Text(), nil
}

func (p *project) newRunner(cmd *cli.Command, command string) *runner.Runner {
	r := runner.New(p.cfg, p.root, cmd.Bool("no-verify"))
	r.Command = command
	r.DryRun = cmd.Bool("dry-run")
	r.Log = logger
	return r
}

// run executes ops with signal handling.
func (p *project) run(ctx context.Context, cmd *cli.Command, command string, ops []patch.Op) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()
	return p.newRunner(cmd, command).Run(ctx, ops)
}

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize a new .splice/ directory with example config",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data-file", Usage: "Path of the data file, relative to this directory", Value: scaffold.DefaultDataFile},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir, err := os.Getwd()
			if err != nil {
				return err
			}
			return scaffold.Init(dir, cmd.String("data-file"))
		},
	}
}

func listCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List lesson blocks in the data file",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := loadProject(cmd)
			if err != nil {
				return err
			}
			text, err := p.readData()
			if err != nil {
				return err
			}
			pattern, err := block.CompileKeyPattern(p.cfg.KeyPattern)
			if err != nil {
				return err
			}
			findings, err := patch.Audit(text, pattern, nil, p.cfg.RulesFor)
			if err != nil {
				return err
			}
			rows := make([]ux.ListRow, len(findings))
			for i, f := range findings {
				rows[i] = ux.ListRow{
					Key:       f.Key,
					Title:     f.Lesson.Title,
					Chars:     f.Report.Chars,
					Sections:  f.Report.Sections,
					Takeaways: f.Report.Takeaways,
				}
				if f.Err != nil {
					rows[i].Err = f.Err.Error()
				}
			}
			ux.RenderList(p.cfg.DataFile, rows)
			return nil
		},
	}
}

func showCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print a block as a lesson source document",
		ArgsUsage: "<key>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "raw", Usage: "Print the block exactly as it appears in the data file"},
			&cli.StringFlag{Name: "until", Usage: "End the block before this key instead of at its matching brace"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			key := cmd.Args().First()
			if key == "" {
				return fmt.Errorf("key argument is required")
			}
			p, err := loadProject(cmd)
			if err != nil {
				return err
			}
			text, err := p.readData()
			if err != nil {
				return err
			}
			var span block.Span
			if until := cmd.String("until"); until != "" {
				span, err = block.LocateUntil(text, key, until)
			} else {
				span, err = block.Locate(text, key)
			}
			if err != nil {
				return fmt.Errorf("%q: %w", key, err)
			}
			if cmd.Bool("raw") {
				fmt.Println(span.Text(text))
				return nil
			}
			l, err := lesson.Extract(key, span.Body(text))
			if err != nil {
				return err
			}
			doc, err := lessondoc.Format(l)
			if err != nil {
				return err
			}
			fmt.Print(doc)
			return nil
		},
	}
}

func checkCmd() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Validate existing blocks against the configured rules",
		ArgsUsage: "[key...]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := loadProject(cmd)
			if err != nil {
				return err
			}
			text, err := p.readData()
			if err != nil {
				return err
			}
			pattern, err := block.CompileKeyPattern(p.cfg.KeyPattern)
			if err != nil {
				return err
			}
			findings, err := patch.Audit(text, pattern, cmd.Args().Slice(), p.cfg.RulesFor)
			if err != nil {
				return err
			}
			failed := 0
			for _, f := range findings {
				if f.Err != nil {
					ux.StepFail("check", f.Key, f.Err.Error())
				} else {
					ux.Report(f.Report)
				}
				if f.Failed() {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d blocks failed checks", failed, len(findings))
			}
			fmt.Printf("\n%s✓ %d blocks pass%s\n", ux.Green, len(findings), ux.Reset)
			return nil
		},
	}
}

func lintCmd() *cli.Command {
	return &cli.Command{
		Name:      "lint",
		Usage:     "Validate lesson source files without touching the data file",
		ArgsUsage: "<source.md...>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			paths := cmd.Args().Slice()
			if len(paths) == 0 {
				return fmt.Errorf("at least one source file is required")
			}
			p, err := loadProject(cmd)
			if err != nil {
				return err
			}
			failed := 0
			for _, path := range paths {
				l, err := lessondoc.Load(path)
				if err != nil {
					ux.StepFail("lint", path, err.Error())
					failed++
					continue
				}
				rep, err := validate.Check(l, p.cfg.RulesFor(l.ID))
				if err != nil {
					return err
				}
				ux.Report(rep)
				if !rep.OK() {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d sources failed checks", failed, len(paths))
			}
			return nil
		},
	}
}

func replaceCmd() *cli.Command {
	return &cli.Command{
		Name:      "replace",
		Usage:     "Replace a block with a lesson source",
		ArgsUsage: "<key> <source.md>",
		Flags: append(editFlags(),
			&cli.StringFlag{Name: "until", Usage: "End the old block before this key instead of at its matching brace"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return fmt.Errorf("key and source arguments are required")
			}
			op := patch.Op{
				Replace: cmd.Args().Get(0),
				Source:  cmd.Args().Get(1),
				Until:   cmd.String("until"),
			}
			return runSingle(ctx, cmd, "replace", op)
		},
	}
}

func insertCmd() *cli.Command {
	return &cli.Command{
		Name:      "insert",
		Usage:     "Insert a new block next to an existing one",
		ArgsUsage: "<key> <source.md>",
		Flags: append(editFlags(),
			&cli.StringFlag{Name: "after", Usage: "Insert after this key"},
			&cli.StringFlag{Name: "before", Usage: "Insert before this key"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return fmt.Errorf("key and source arguments are required")
			}
			op := patch.Op{
				Insert: cmd.Args().Get(0),
				Source: cmd.Args().Get(1),
				After:  cmd.String("after"),
				Before: cmd.String("before"),
			}
			return runSingle(ctx, cmd, "insert", op)
		},
	}
}

func deleteCmd() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Remove a block",
		ArgsUsage: "<key>",
		Flags:     editFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			key := cmd.Args().First()
			if key == "" {
				return fmt.Errorf("key argument is required")
			}
			return runSingle(ctx, cmd, "delete", patch.Op{Delete: key})
		},
	}
}

func runSingle(ctx context.Context, cmd *cli.Command, command string, op patch.Op) error {
	if err := op.Validate(); err != nil {
		return err
	}
	if err := op.Load(); err != nil {
		return err
	}
	p, err := loadProject(cmd)
	if err != nil {
		return err
	}
	return p.run(ctx, cmd, command, []patch.Op{op})
}

func applyCmd() *cli.Command {
	return &cli.Command{
		Name:      "apply",
		Usage:     "Apply every op in a manifest, or none of them",
		ArgsUsage: "<manifest.yaml>",
		Flags:     editFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("manifest argument is required")
			}
			m, err := patch.LoadManifest(path)
			if err != nil {
				return err
			}
			p, err := loadProject(cmd)
			if err != nil {
				return err
			}
			return p.run(ctx, cmd, "apply "+filepath.Base(path), m.Ops)
		},
	}
}

func historyCmd() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show the run journal",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Show only the last N runs", Value: 20},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			root, err := findProjectRoot()
			if err != nil {
				return err
			}
			j, err := state.LoadJournal(filepath.Join(root, config.Dir))
			if err != nil {
				return fmt.Errorf("loading journal: %w", err)
			}
			ux.RenderHistory(j, int(cmd.Int("limit")))
			return nil
		},
	}
}

func undoCmd() *cli.Command {
	return &cli.Command{
		Name:  "undo",
		Usage: "Restore the data file from its newest backup",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "no-verify", Usage: "Skip the configured verify command"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := loadProject(cmd)
			if err != nil {
				return err
			}
			return p.newRunner(cmd, "undo").Undo(ctx)
		},
	}
}

func docsCmd() *cli.Command {
	return &cli.Command{
		Name:      "docs",
		Usage:     "Show documentation",
		ArgsUsage: "[topic]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				fmt.Print("\nAvailable topics:\n\n")
				for _, t := range docs.All() {
					fmt.Printf("  %-14s %s\n", t.Name, t.Summary)
				}
				fmt.Println("\nRun 'splice docs <topic>' to read a topic.")
				return nil
			}
			t, err := docs.Get(name)
			if err != nil {
				return err
			}
			fmt.Print(t.Content)
			return nil
		},
	}
}

// findProjectRoot walks up from cwd looking for .splice/config.yaml.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(config.Path(dir)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s/config.yaml found (searched from cwd to root); run 'splice init'", config.Dir)
		}
		dir = parent
	}
}
