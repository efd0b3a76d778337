package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/passvault/cmd/app/commands"
	"github.com/allisson/passvault/internal/app"
	"github.com/allisson/passvault/internal/config"
)

// withContainer runs fn against a fresh container and releases its resources
// afterwards. The server command manages its own container lifecycle.
func withContainer(fn func(ctx context.Context, cmd *cli.Command, c *app.Container) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		container := app.NewContainer(config.Load())
		defer func() { _ = container.Shutdown(ctx) }()
		return fn(ctx, cmd, container)
	}
}

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Serve the vault API, and the metrics endpoint when enabled",
			Action: func(ctx context.Context, _ *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Apply pending schema migrations for the configured driver",
			Action: withContainer(func(_ context.Context, _ *cli.Command, c *app.Container) error {
				cfg := c.Config()
				return commands.RunMigrations(c.Logger(), cfg.MigrationsPath, cfg.DBDriver, cfg.DBConnectionString)
			}),
		},
		{
			Name:  "clean-expired-sessions",
			Usage: "Delete unlock sessions whose window has passed",
			Flags: []cli.Flag{formatFlag()},
			Action: withContainer(func(ctx context.Context, cmd *cli.Command, c *app.Container) error {
				sessions, err := c.SessionAuthorizer()
				if err != nil {
					return err
				}
				return commands.RunCleanExpiredSessions(ctx, sessions, c.Logger(), commands.DefaultIO().Writer, cmd.String("format"))
			}),
		},
	}
}
