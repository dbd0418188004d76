package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/touchline/internal/core/thread"
	"github.com/colonyops/touchline/internal/touchline"
	"github.com/colonyops/touchline/pkg/iojson"
)

// postInput is the JSON accepted by 'comments post --json'. It mirrors the
// comment API request body.
type postInput struct {
	Content  string `json:"content"`
	ParentID *int64 `json:"parentId,omitempty"`
}

type CommentsCmd struct {
	flags *Flags
	app   *touchline.App

	// ls flags
	lsPage int

	// post flags
	postParent int64
	postBody   string
	postJSON   bool
	postInput  iojson.FileReader[postInput]

	// prompt collects a body interactively; replaced in tests.
	prompt func(title string) (string, error)
}

// NewCommentsCmd creates the comments command.
func NewCommentsCmd(flags *Flags, app *touchline.App) *CommentsCmd {
	return &CommentsCmd{flags: flags, app: app, prompt: promptBody}
}

// Register adds the comments command to the application.
func (cmd *CommentsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "comments",
		Usage: "Read and write comments from the command line",
		Commands: []*cli.Command{
			cmd.lsCmd(),
			cmd.postCmd(),
		},
	})
	return app
}

func (cmd *CommentsCmd) lsCmd() *cli.Command {
	return &cli.Command{
		Name:      "ls",
		Usage:     "Print one page of a thread as JSON",
		UsageText: "touchline comments ls <category> <keyword> [--page N]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "page",
				Aliases:     []string{"p"},
				Usage:       "page number",
				Value:       1,
				Destination: &cmd.lsPage,
			},
		},
		Action: cmd.runLs,
	}
}

func (cmd *CommentsCmd) postCmd() *cli.Command {
	return &cli.Command{
		Name:      "post",
		Usage:     "Post a comment or a reply",
		UsageText: "touchline comments post <category> <keyword> [--parent ID] [--body TEXT | -f FILE]",
		Description: `Posts a top-level comment, or a reply when --parent is set.

The body is taken from --body, then from -f/--file or piped stdin. On an
interactive terminal without either, an editor prompt opens. With --json
the input is a request body: {"content": "...", "parentId": 3}.

The credential comes from auth.token_env or auth.token_file.`,
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:        "parent",
				Usage:       "id of the comment to reply to",
				Destination: &cmd.postParent,
			},
			&cli.StringFlag{
				Name:        "body",
				Aliases:     []string{"b"},
				Usage:       "comment text",
				Destination: &cmd.postBody,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "read a JSON request body from file or stdin",
				Destination: &cmd.postJSON,
			},
			cmd.postInput.Flag(),
		},
		Action: cmd.runPost,
	}
}

func (cmd *CommentsCmd) runLs(ctx context.Context, c *cli.Command) error {
	subject, err := parseSubject(c.Args().Slice())
	if err != nil {
		return err
	}

	page, err := cmd.app.Threads.LoadPage(ctx, subject, cmd.lsPage)
	if err != nil {
		return fmt.Errorf("load comments: %w", err)
	}
	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, page)
}

func (cmd *CommentsCmd) runPost(ctx context.Context, c *cli.Command) error {
	subject, err := parseSubject(c.Args().Slice())
	if err != nil {
		return err
	}

	input, err := cmd.readInput(c)
	if err != nil {
		return err
	}

	credential, _ := cmd.app.Session.CurrentCredential()
	if !cmd.app.Session.CanWrite() {
		_, _ = fmt.Fprintln(c.Root().ErrWriter, "warning: no valid credential, the server will probably refuse this")
	}

	var created any
	if input.ParentID != nil {
		created, err = cmd.app.Threads.SubmitReply(ctx, subject, *input.ParentID, input.Content, credential)
	} else {
		created, err = cmd.app.Threads.SubmitComment(ctx, subject, input.Content, credential)
	}
	switch {
	case errors.Is(err, thread.ErrEmptyDraft):
		return errors.New("nothing to post: the body is empty")
	case err != nil:
		return fmt.Errorf("post: %w", err)
	}

	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, created)
}

// readInput resolves the body and parent from flags, input or a prompt.
func (cmd *CommentsCmd) readInput(c *cli.Command) (postInput, error) {
	var input postInput
	if cmd.postParent != 0 {
		parent := cmd.postParent
		input.ParentID = &parent
	}

	if c.Root().Reader != nil && c.Root().Reader != os.Stdin {
		cmd.postInput.SetStdin(c.Root().Reader)
	}

	switch {
	case cmd.postJSON:
		decoded, err := cmd.postInput.Read()
		if err != nil {
			return input, err
		}
		if decoded.ParentID == nil {
			decoded.ParentID = input.ParentID
		}
		return decoded, nil
	case cmd.postBody != "":
		input.Content = cmd.postBody
	case cmd.postInput.HasInput():
		raw, err := cmd.postInput.ReadRaw()
		if err != nil {
			return input, err
		}
		input.Content = string(raw)
	default:
		title := "New comment"
		if input.ParentID != nil {
			title = fmt.Sprintf("Reply to #%d", *input.ParentID)
		}
		body, err := cmd.prompt(title)
		if err != nil {
			return input, err
		}
		input.Content = body
	}
	return input, nil
}

func promptBody(title string) (string, error) {
	var body string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title(title).
				Description("ctrl+j for a new line, enter to post").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("comment is empty")
					}
					return nil
				}).
				Value(&body),
		),
	).WithTheme(huh.ThemeCharm()).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return "", errors.New("aborted")
	}
	return body, err
}
