package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/laguz/internal"
	"github.com/starford/laguz/internal/mcpserver"
	pkgconfig "github.com/starford/laguz/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadIfExists(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if notes := cmd.String("notes"); notes != "" {
		cfg.Notes.Path = notes
	}
	return cfg, nil
}

func withService(cmd *cli.Command, fn func(ctx context.Context, app *appEnv) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := internal.NewLogger(cfg, os.Stderr)
	svc, closeFn, err := internal.NewService(cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(context.Background(), &appEnv{cfg: cfg, svc: svc})
}

func main() {
	cmd := &cli.Command{
		Name:  "laguz",
		Usage: "Note manager for wiki-linked knowledge bases: index, backlinks, link-preserving renames, and search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   "config/config.yaml",
				Sources: cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "notes",
				Usage:   "Notes root (overrides config)",
				Sources: cli.EnvVars("LAGUZ_NOTES_PATH"),
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			listCommand(),
			linksCommand(),
			backlinksCommand(),
			renameCommand(),
			searchCommand(),
			pickCommand(),
			mcpCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API server",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Invalidate the index on filesystem changes",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			opts := []internal.Option{internal.WithConfig(cfg)}
			if cmd.IsSet("watch") {
				opts = append(opts, internal.WithWatch(cmd.Bool("watch")))
			}
			if err := internal.Run(ctx, opts...); err != nil {
				return fmt.Errorf("app run error: %w", err)
			}
			return nil
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server on stdin/stdout",
		Action: func(_ context.Context, cmd *cli.Command) error {
			return withService(cmd, func(_ context.Context, app *appEnv) error {
				return mcpserver.New(app.svc).ServeStdio()
			})
		},
	}
}
