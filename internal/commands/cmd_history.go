package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/touchline/internal/touchline"
	"github.com/colonyops/touchline/pkg/iojson"
)

type HistoryCmd struct {
	flags *Flags
	app   *touchline.App

	limit      int
	jsonOutput bool
}

// NewHistoryCmd creates the history command.
func NewHistoryCmd(flags *Flags, app *touchline.App) *HistoryCmd {
	return &HistoryCmd{flags: flags, app: app}
}

// Register adds the history command to the application.
func (cmd *HistoryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "history",
		Usage:     "List recently viewed subjects and their last page",
		UsageText: "touchline history [--limit N] [--json]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "limit",
				Aliases:     []string{"n"},
				Value:       20,
				Destination: &cmd.limit,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})
	return app
}

type historyEntry struct {
	Category  string    `json:"category"`
	Keyword   string    `json:"keyword"`
	Page      int       `json:"page"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (cmd *HistoryCmd) run(ctx context.Context, c *cli.Command) error {
	entries, err := cmd.app.Nav.Recent(ctx, cmd.limit)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		for _, e := range entries {
			row := historyEntry{
				Category:  e.Subject.Category,
				Keyword:   e.Subject.Keyword,
				Page:      e.Page,
				UpdatedAt: e.UpdatedAt,
			}
			if err := iojson.WriteLine(out, row); err != nil {
				return fmt.Errorf("encode entry: %w", err)
			}
		}
		return nil
	}

	if len(entries) == 0 {
		_, _ = fmt.Fprintln(c.Root().ErrWriter, "No subjects viewed yet")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CATEGORY\tKEYWORD\tPAGE\tLAST VIEWED")
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", e.Subject.Category, e.Subject.Keyword, e.Page, e.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}
