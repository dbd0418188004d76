package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/touchline/internal/core/logging"
	"github.com/colonyops/touchline/internal/data/db"
	"github.com/colonyops/touchline/internal/devserver"
	"github.com/colonyops/touchline/internal/touchline"
)

const devServerDBFile = "devserver.db"

type ServeCmd struct {
	flags *Flags
	app   *touchline.App

	addr     string
	secret   string
	pageSize int
}

// NewServeCmd creates the serve command.
func NewServeCmd(flags *Flags, app *touchline.App) *ServeCmd {
	return &ServeCmd{flags: flags, app: app}
}

// Register adds the serve command to the application.
func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "serve",
		Usage:     "Run a local comment API for development",
		UsageText: "touchline serve [--addr HOST:PORT] [--secret S] [--page-size N]",
		Description: `Serves GET and POST {base}/{category}/{keyword}/comments backed by a
SQLite file in the data directory. Writes need a bearer token minted with
'touchline token mint' using the same secret.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address (defaults to server.addr)",
				Sources:     cli.EnvVars("TOUCHLINE_SERVER_ADDR"),
				Destination: &cmd.addr,
			},
			&cli.StringFlag{
				Name:        "secret",
				Usage:       "HMAC secret for bearer tokens (defaults to server.secret)",
				Sources:     cli.EnvVars("TOUCHLINE_SERVER_SECRET"),
				Destination: &cmd.secret,
			},
			&cli.IntFlag{
				Name:        "page-size",
				Usage:       "top-level comments per page (defaults to server.page_size)",
				Destination: &cmd.pageSize,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *ServeCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.app.Config
	addr := firstNonEmpty(cmd.addr, cfg.Server.Addr)
	secret := firstNonEmpty(cmd.secret, cfg.Server.Secret)
	pageSize := cmd.pageSize
	if pageSize < 1 {
		pageSize = cfg.Server.PageSize
	}

	database, err := db.Open(cfg.DataDir, db.OpenOptions{
		FileName:     devServerDBFile,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		BusyTimeout:  cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("open dev server database: %w", err)
	}
	defer func() { _ = database.Close() }()

	srv := devserver.New(
		devserver.NewCommentStore(database),
		devserver.NewIssuer(secret, cfg.Server.TokenTTL),
		devserver.Options{PageSize: pageSize, BasePath: "/api"},
		logging.Component("devserver"),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, _ = fmt.Fprintf(c.Root().Writer, "serving comments on http://%s/api (ctrl+c to stop)\n", addr)
	return srv.ListenAndServe(ctx, addr)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
