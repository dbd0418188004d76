package iojson

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteWith(t *testing.T) {
	var out, errOut bytes.Buffer
	require.NoError(t, WriteWith(&out, &errOut, map[string]int{"count": 2}))
	assert.JSONEq(t, `{"count":2}`, out.String())
	assert.Empty(t, errOut.String())
}

func TestWriteWith_MarshalFailure(t *testing.T) {
	var out, errOut bytes.Buffer
	require.NoError(t, WriteWith(&out, &errOut, func() {}))
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "json_error")
}

func TestWriteLine(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, WriteLine(&out, map[string]string{"a": "b"}))
	assert.Equal(t, "{\"a\":\"b\"}\n", out.String())
}

func TestWriteError(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, WriteError(&out, "boom", map[string]any{"status": 401}))
	assert.JSONEq(t, `{"message":"boom","data":{"status":401}}`, out.String())
}

type payload struct {
	Content string `json:"content"`
}

func TestFileReader_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"content":"hi"}`), 0o600))

	fr := &FileReader[payload]{fileFlagValue: path}
	got, err := fr.Read()
	require.NoError(t, err)
	assert.Equal(t, "hi", got.Content)
}

func TestFileReader_Stdin(t *testing.T) {
	fr := &FileReader[payload]{stdin: strings.NewReader("plain body")}
	assert.True(t, fr.HasInput())

	raw, err := fr.ReadRaw()
	require.NoError(t, err)
	assert.Equal(t, "plain body", string(raw))
}

func TestFileReader_Terminal(t *testing.T) {
	fr := &FileReader[payload]{stdinIsTTY: func() bool { return true }}
	assert.False(t, fr.HasInput())

	_, err := fr.ReadRaw()
	assert.True(t, errors.Is(err, ErrNoInput))
}

func TestFileReader_BadJSON(t *testing.T) {
	fr := &FileReader[payload]{stdin: strings.NewReader("{")}
	_, err := fr.Read()
	assert.ErrorContains(t, err, "decode JSON")
}
