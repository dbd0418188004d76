package commands

import (
	"context"
	"errors"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/touchline/internal/core/thread"
	"github.com/colonyops/touchline/internal/touchline"
	"github.com/colonyops/touchline/internal/tui"
)

var errNoSubject = errors.New("no subject given and no recent subject to reopen; try 'touchline view players \"Heung-Min Son\"'")

type ViewCmd struct {
	flags *Flags
	app   *touchline.App
}

// NewViewCmd creates the view command.
func NewViewCmd(flags *Flags, app *touchline.App) *ViewCmd {
	return &ViewCmd{flags: flags, app: app}
}

// Flags returns the view flags for registration on the root command.
func (cmd *ViewCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "page",
			Aliases:     []string{"p"},
			Usage:       "page to open (defaults to the last page viewed for the subject)",
			Sources:     cli.EnvVars("TOUCHLINE_PAGE"),
			Destination: &cmd.flags.Page,
		},
	}
}

// Register adds the view command to the application.
func (cmd *ViewCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "view",
		Usage:     "Browse comment threads in the terminal",
		UsageText: "touchline view <category> <keyword> [<category> <keyword>...] [--page N]",
		Description: `Opens the interactive thread viewer.

Subjects are given as "category keyword" pairs or as "category/keyword".
With several subjects, tab cycles between them. Without any, the most
recently viewed subject is reopened.`,
		Flags:  cmd.Flags(),
		Action: cmd.Run,
	})
	return app
}

// Run executes the TUI. Exported for use as the default action.
func (cmd *ViewCmd) Run(ctx context.Context, c *cli.Command) error {
	subjects, err := cmd.resolveSubjects(ctx, c.Args().Slice())
	if err != nil {
		return err
	}
	for _, s := range subjects {
		if !cmd.app.Config.SubjectAllowed(s.Category, s.Keyword) {
			return fmt.Errorf("subject %q is not in subjects.allow", s)
		}
	}

	m, err := tui.New(tui.Options{
		Subjects:    subjects,
		InitialPage: cmd.initialPage(ctx, subjects[0]),
		PageSize:    cmd.app.Config.Display.PageSize,
		Threads:     cmd.app.Threads,
		Session:     cmd.app.Session,
		Nav:         cmd.app.Nav,
		Build:       cmd.app.Build,
		Warnings:    cmd.startupWarnings(),
		TokenFile:   cmd.app.Config.Auth.TokenFile,
	})
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	if _, err := tea.NewProgram(m).Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

func (cmd *ViewCmd) resolveSubjects(ctx context.Context, args []string) ([]thread.Subject, error) {
	if len(args) > 0 {
		return parseSubjects(args)
	}

	recent, err := cmd.app.Nav.Recent(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("read recent subjects: %w", err)
	}
	if len(recent) == 0 {
		return nil, errNoSubject
	}
	return []thread.Subject{recent[0].Subject}, nil
}

func (cmd *ViewCmd) initialPage(ctx context.Context, subject thread.Subject) int {
	if cmd.flags.Page > 0 {
		return cmd.flags.Page
	}
	page, err := cmd.app.Nav.InitialPage(ctx, subject)
	if err != nil {
		log.Warn().Err(err).Str("subject", subject.String()).Msg("failed to read last page, starting at 1")
		return 1
	}
	return page
}

func (cmd *ViewCmd) startupWarnings() []string {
	if cmd.app.Session.CanWrite() {
		return nil
	}
	if _, ok := cmd.app.Session.CurrentCredential(); ok {
		return []string{"Your token has expired. Comments are read-only."}
	}
	return nil
}
