package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/touchline/internal/core/styles"
)

type ConfigCmd struct {
	flags *Flags
}

// NewConfigCmd creates the config command.
func NewConfigCmd(flags *Flags) *ConfigCmd {
	return &ConfigCmd{flags: flags}
}

// Register adds the config command to the application.
func (cmd *ConfigCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "touchline config validate",
				Description: "Validates the configuration values and checks that referenced files are usable.",
				Action:      cmd.runValidate,
			},
		},
	})
	return app
}

func (cmd *ConfigCmd) runValidate(_ context.Context, c *cli.Command) error {
	out := c.Root().Writer
	err := cmd.flags.Config.ValidateDeep(cmd.flags.ConfigPath)
	if err == nil {
		_, _ = fmt.Fprintln(out, styles.CommandHeaderStyle.Render("config ok")+" "+cmd.flags.ConfigPath)
		return nil
	}

	var fieldErrs criterio.FieldErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			_, _ = fmt.Fprintf(out, "  %s: %v\n", fe.Field, fe.Err)
		}
		return fmt.Errorf("config has %d problem(s)", len(fieldErrs))
	}
	return err
}
