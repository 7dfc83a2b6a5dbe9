package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/starford/laguz/internal"
	"github.com/starford/laguz/internal/noteservice"
	"github.com/starford/laguz/internal/picker"
)

type appEnv struct {
	cfg *internal.Config
	svc *noteservice.Service
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List every note in the knowledge base",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "type",
				Usage: "Only show notes of this type (daily, project, person, generic)",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			return withService(cmd, func(ctx context.Context, app *appEnv) error {
				typeFilter := cmd.String("type")
				for _, rec := range app.svc.ListNotes(ctx) {
					if typeFilter != "" && string(rec.Type) != typeFilter {
						continue
					}
					fmt.Printf("%s\t%s\n", rec.RelPath(), rec.Type)
				}
				return nil
			})
		},
	}
}

func linksCommand() *cli.Command {
	return &cli.Command{
		Name:      "links",
		Usage:     "Show the outgoing links of a note and where each one resolves",
		ArgsUsage: "<path>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("usage: laguz links <path>")
			}
			return withService(cmd, func(ctx context.Context, app *appEnv) error {
				links, err := app.svc.Links(ctx, path)
				if err != nil {
					return err
				}
				for _, l := range links {
					resolved := l.Resolved
					if resolved == "" {
						resolved = "(unresolved)"
					}
					fmt.Printf("%d\t%s\t%s\t-> %s\n", l.Line, l.Type, l.Target, resolved)
				}
				return nil
			})
		},
	}
}

func backlinksCommand() *cli.Command {
	return &cli.Command{
		Name:      "backlinks",
		Usage:     "List every note that links to the given note",
		ArgsUsage: "<path>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("usage: laguz backlinks <path>")
			}
			return withService(cmd, func(ctx context.Context, app *appEnv) error {
				refs, err := app.svc.Backlinks(ctx, path)
				if err != nil {
					return err
				}
				for _, r := range refs {
					fmt.Printf("%s:%d\t%s\t%s\n", r.Resolved, r.Line, r.Type, r.Target)
				}
				return nil
			})
		},
	}
}

func renameCommand() *cli.Command {
	return &cli.Command{
		Name:      "rename",
		Usage:     "Rename a note and rewrite every link that points at it",
		ArgsUsage: "<path> <new-basename>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Apply without previewing first",
			},
			&cli.BoolFlag{
				Name:  "backup",
				Usage: "Write a .bak copy of each file before rewriting it",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			path := cmd.Args().Get(0)
			newBase := cmd.Args().Get(1)
			if path == "" || newBase == "" {
				return fmt.Errorf("usage: laguz rename <path> <new-basename>")
			}
			return withService(cmd, func(ctx context.Context, app *appEnv) error {
				if !cmd.Bool("yes") {
					prev, err := app.svc.PreviewRename(ctx, path, newBase)
					if err != nil {
						return err
					}
					fmt.Printf("%s -> %s\n", prev.OldPath, prev.NewPath)
					for _, c := range prev.Changes {
						fmt.Printf("%s:%d\n  - %s\n  + %s\n", c.File, c.Line, c.OldLine, c.NewLine)
					}
					fmt.Printf("%d line(s) would change; rerun with --yes to apply\n", len(prev.Changes))
					return nil
				}
				out, err := app.svc.Rename(ctx, path, newBase, cmd.Bool("backup"))
				if err != nil {
					return err
				}
				fmt.Printf("renamed %s -> %s (%d rewritten, %d skipped)\n",
					out.OldPath, out.NewPath, out.Applied, out.Failed)
				if out.Partial != "" {
					return fmt.Errorf("links were rewritten but the note file was not moved: %s", out.Partial)
				}
				return nil
			})
		},
	}
}

// stdinPicker is a minimal terminal picker: numbered list on stderr,
// selection read from stdin. Editor integrations plug in fuzzy finders
// through the same interface.
type stdinPicker struct{}

func (stdinPicker) PickOne(prompt string, items []picker.Item) (picker.Item, error) {
	if len(items) == 0 {
		return picker.Item{}, picker.ErrCancelled
	}
	for i, it := range items {
		fmt.Fprintf(os.Stderr, "%3d  %s\n", i+1, it.Display)
	}
	fmt.Fprintf(os.Stderr, "%s> ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return picker.Item{}, picker.ErrCancelled
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n < 1 || n > len(items) {
		return picker.Item{}, picker.ErrCancelled
	}
	return items[n-1], nil
}

func (p stdinPicker) PickMany(prompt string, items []picker.Item) ([]picker.Item, error) {
	one, err := p.PickOne(prompt, items)
	if err != nil {
		return nil, err
	}
	return []picker.Item{one}, nil
}

func pickCommand() *cli.Command {
	return &cli.Command{
		Name:  "pick",
		Usage: "Select a note interactively and print its path",
		Action: func(_ context.Context, cmd *cli.Command) error {
			return withService(cmd, func(ctx context.Context, app *appEnv) error {
				rec, err := app.svc.PickNote(ctx, stdinPicker{})
				if err != nil {
					return err
				}
				fmt.Println(rec.RelPath())
				return nil
			})
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Full-text search through note content and titles",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results",
				Value: 20,
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			query := cmd.Args().First()
			if query == "" {
				return fmt.Errorf("usage: laguz search <query>")
			}
			return withService(cmd, func(ctx context.Context, app *appEnv) error {
				results, err := app.svc.Search(ctx, query, int(cmd.Int("limit")))
				if err != nil {
					return err
				}
				for _, r := range results {
					fmt.Printf("%s\t%s\n", r.Path, r.Title)
					if r.Snippet != "" {
						fmt.Printf("  %s\n", r.Snippet)
					}
				}
				return nil
			})
		},
	}
}
