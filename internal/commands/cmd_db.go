package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/touchline/internal/data/db"
	"github.com/colonyops/touchline/internal/touchline"
)

type DBCmd struct {
	flags *Flags
	app   *touchline.App

	steps     int
	devServer bool
}

// NewDBCmd creates the db maintenance command.
func NewDBCmd(flags *Flags, app *touchline.App) *DBCmd {
	return &DBCmd{flags: flags, app: app}
}

// Register adds the db command to the application.
func (cmd *DBCmd) Register(app *cli.Command) *cli.Command {
	target := func() cli.Flag {
		return &cli.BoolFlag{
			Name:        "dev-server",
			Usage:       "operate on the dev server database instead of the local cache",
			Destination: &cmd.devServer,
		}
	}

	app.Commands = append(app.Commands, &cli.Command{
		Name:  "db",
		Usage: "Inspect or roll back local database migrations",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "List applied and pending migrations",
				Flags:  []cli.Flag{target()},
				Action: cmd.runStatus,
			},
			{
				Name:      "rollback",
				Usage:     "Revert the most recent migrations",
				UsageText: "touchline db rollback [-n N] [--dev-server]",
				Description: `Reverts schema changes newest first. Data in dropped tables is lost.
Migrations reapply automatically the next time the database opens.`,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "steps",
						Aliases:     []string{"n"},
						Value:       1,
						Destination: &cmd.steps,
					},
					target(),
				},
				Action: cmd.runRollback,
			},
		},
	})
	return app
}

// open returns the selected database and a func releasing it. The local
// cache is owned by the app and stays open.
func (cmd *DBCmd) open() (*db.DB, func(), error) {
	if !cmd.devServer {
		return cmd.app.DB, func() {}, nil
	}

	cfg := cmd.flags.Config
	database, err := db.Open(cfg.DataDir, db.OpenOptions{
		FileName:     devServerDBFile,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		BusyTimeout:  cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open dev server database: %w", err)
	}
	return database, func() { _ = database.Close() }, nil
}

func (cmd *DBCmd) runStatus(ctx context.Context, c *cli.Command) error {
	database, release, err := cmd.open()
	if err != nil {
		return err
	}
	defer release()

	status, err := db.Status(ctx, database.Conn())
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	_, _ = fmt.Fprintln(c.Root().Writer, database.Path())
	w := tabwriter.NewWriter(c.Root().Writer, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "VERSION\tNAME\tAPPLIED")
	for _, s := range status {
		applied := "pending"
		if !s.Pending() {
			applied = s.Applied.Local().Format("2006-01-02 15:04")
		}
		_, _ = fmt.Fprintf(w, "%04d\t%s\t%s\n", s.Version, s.Name, applied)
	}
	return w.Flush()
}

func (cmd *DBCmd) runRollback(ctx context.Context, c *cli.Command) error {
	database, release, err := cmd.open()
	if err != nil {
		return err
	}
	defer release()

	reverted, err := db.MigrateDown(ctx, database.Conn(), cmd.steps)
	for _, m := range reverted {
		_, _ = fmt.Fprintf(c.Root().Writer, "reverted %04d_%s\n", m.Version, m.Name)
	}
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}
