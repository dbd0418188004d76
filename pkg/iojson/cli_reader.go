package iojson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// ErrNoInput is returned when neither a file nor piped stdin is available.
var ErrNoInput = errors.New("no input provided (stdin is a terminal); use -f flag or pipe input")

// FileReader reads command input from the -f/--file flag or stdin.
type FileReader[T any] struct {
	fileFlagValue string
	stdin         io.Reader
	stdinIsTTY    func() bool
}

func (fr *FileReader[T]) Flag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "file",
		Aliases:     []string{"f"},
		Usage:       "read input from file (reads from stdin if not provided)",
		Destination: &fr.fileFlagValue,
	}
}

// SetStdin replaces stdin as the fallback input.
func (fr *FileReader[T]) SetStdin(r io.Reader) {
	fr.stdin = r
}

// HasInput reports whether Read would have something to read without
// blocking on a terminal.
func (fr *FileReader[T]) HasInput() bool {
	return fr.fileFlagValue != "" || !fr.isTTY()
}

// ReadRaw returns the input bytes.
func (fr *FileReader[T]) ReadRaw() ([]byte, error) {
	if fr.fileFlagValue != "" {
		data, err := os.ReadFile(fr.fileFlagValue)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		return data, nil
	}
	if fr.isTTY() {
		return nil, ErrNoInput
	}
	data, err := io.ReadAll(fr.reader())
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return data, nil
}

// Read decodes the input as JSON.
func (fr *FileReader[T]) Read() (T, error) {
	var input T
	data, err := fr.ReadRaw()
	if err != nil {
		return input, err
	}
	if err := json.Unmarshal(data, &input); err != nil {
		return input, fmt.Errorf("decode JSON: %w", err)
	}
	return input, nil
}

func (fr *FileReader[T]) reader() io.Reader {
	if fr.stdin != nil {
		return fr.stdin
	}
	return os.Stdin
}

func (fr *FileReader[T]) isTTY() bool {
	if fr.stdinIsTTY != nil {
		return fr.stdinIsTTY()
	}
	if fr.stdin != nil {
		return false
	}
	return StdinIsTerminal()
}

// StdinIsTerminal reports whether stdin is an interactive terminal.
func StdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
