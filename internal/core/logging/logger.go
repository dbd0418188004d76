package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component returns the global logger tagged with a subsystem name such as
// "commentapi" or "devserver". Call it after the global logger is configured.
func Component(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}
