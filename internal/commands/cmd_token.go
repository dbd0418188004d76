package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/touchline/internal/core/auth"
	"github.com/colonyops/touchline/internal/devserver"
	"github.com/colonyops/touchline/internal/touchline"
)

type TokenCmd struct {
	flags *Flags
	app   *touchline.App

	name   string
	secret string
	ttl    time.Duration
	save   bool
}

// NewTokenCmd creates the token command.
func NewTokenCmd(flags *Flags, app *touchline.App) *TokenCmd {
	return &TokenCmd{flags: flags, app: app}
}

// Register adds the token command to the application.
func (cmd *TokenCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "token",
		Usage: "Manage the bearer token used for writes",
		Commands: []*cli.Command{
			{
				Name:      "mint",
				Usage:     "Mint a token accepted by 'touchline serve'",
				UsageText: "touchline token mint --name NAME [--secret S] [--ttl 24h] [--save]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "name",
						Usage:       "display name written on comments",
						Required:    true,
						Destination: &cmd.name,
					},
					&cli.StringFlag{
						Name:        "secret",
						Usage:       "HMAC secret (defaults to server.secret)",
						Sources:     cli.EnvVars("TOUCHLINE_SERVER_SECRET"),
						Destination: &cmd.secret,
					},
					&cli.DurationFlag{
						Name:        "ttl",
						Usage:       "token lifetime (defaults to server.token_ttl)",
						Destination: &cmd.ttl,
					},
					&cli.BoolFlag{
						Name:        "save",
						Usage:       "write the token to auth.token_file (default <data-dir>/token)",
						Destination: &cmd.save,
					},
				},
				Action: cmd.runMint,
			},
			{
				Name:   "status",
				Usage:  "Show whether a usable token is configured",
				Action: cmd.runStatus,
			},
		},
	})
	return app
}

func (cmd *TokenCmd) tokenPath() string {
	if p := cmd.app.Config.Auth.TokenFile; p != "" {
		return p
	}
	return filepath.Join(cmd.app.Config.DataDir, "token")
}

func (cmd *TokenCmd) runMint(_ context.Context, c *cli.Command) error {
	cfg := cmd.app.Config
	ttl := cmd.ttl
	if ttl <= 0 {
		ttl = cfg.Server.TokenTTL
	}

	token, err := devserver.NewIssuer(firstNonEmpty(cmd.secret, cfg.Server.Secret), ttl).Mint(cmd.name)
	if err != nil {
		return fmt.Errorf("mint token: %w", err)
	}

	if !cmd.save {
		_, err = fmt.Fprintln(c.Root().Writer, token)
		return err
	}

	path := cmd.tokenPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	_, err = fmt.Fprintf(c.Root().Writer, "token for %s saved to %s\n", cmd.name, path)
	return err
}

func (cmd *TokenCmd) runStatus(_ context.Context, c *cli.Command) error {
	out := c.Root().Writer
	token, ok := cmd.app.Session.CurrentCredential()
	if !ok {
		_, err := fmt.Fprintln(out, "no token configured: comments are read-only")
		return err
	}

	exp, err := auth.Expiry(token)
	switch {
	case errors.Is(err, auth.ErrNoExpiry):
		_, err = fmt.Fprintln(out, "token has no expiry: comments are read-only")
	case err != nil:
		_, err = fmt.Fprintln(out, "opaque token configured: writes allowed, the server decides")
	case cmd.app.Session.CanWrite():
		_, err = fmt.Fprintf(out, "token valid until %s\n", exp.Local().Format(time.RFC1123))
	default:
		_, err = fmt.Fprintf(out, "token expired at %s: comments are read-only\n", exp.Local().Format(time.RFC1123))
	}
	return err
}
