package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/touchline/internal/touchline"
)

func TestNewRoot_RegistersCommands(t *testing.T) {
	root := NewRoot(&Flags{}, &touchline.App{}, "test")

	var names []string
	for _, c := range root.Commands {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"view", "comments", "serve", "token", "history", "config", "db"}, names)
	require.NotNil(t, root.Action)

	var page bool
	for _, f := range root.Flags {
		for _, n := range f.Names() {
			if n == "page" {
				page = true
			}
		}
	}
	assert.True(t, page, "view flags are available on the root command")
}
