package commands

import (
	"github.com/urfave/cli/v3"

	"github.com/colonyops/touchline/internal/touchline"
)

// NewRoot builds the touchline command tree. The caller adds Before and
// After hooks that populate app.
func NewRoot(flags *Flags, app *touchline.App, version string) *cli.Command {
	root := &cli.Command{
		Name:      "touchline",
		Usage:     "Read and write comment threads from the terminal",
		UsageText: "touchline [global options] [category keyword] | command [command options]",
		Description: `Touchline browses the paginated comment thread attached to a subject,
such as a player or a team, and lets you post comments and replies.

Run 'touchline players "Heung-Min Son"' to open a thread.
Run 'touchline' with no arguments to reopen the last thread you viewed.
Run 'touchline serve' for a local comment API to develop against.`,
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("TOUCHLINE_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file, '-' for stderr (defaults to <data-dir>/touchline.log)",
				Sources:     cli.EnvVars("TOUCHLINE_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("TOUCHLINE_CONFIG"),
				Value:       DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("TOUCHLINE_DATA_DIR"),
				Value:       DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
	}

	viewCmd := NewViewCmd(flags, app)

	root = viewCmd.Register(root)
	root = NewCommentsCmd(flags, app).Register(root)
	root = NewServeCmd(flags, app).Register(root)
	root = NewTokenCmd(flags, app).Register(root)
	root = NewHistoryCmd(flags, app).Register(root)
	root = NewConfigCmd(flags).Register(root)
	root = NewDBCmd(flags, app).Register(root)

	// Bare arguments open the viewer, so 'touchline players Son' works.
	root.Flags = append(root.Flags, viewCmd.Flags()...)
	root.Action = viewCmd.Run

	return root
}
