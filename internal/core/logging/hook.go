package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook copies subject and request_id from the event context onto log
// events.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == nil || ctx == context.Background() {
		return
	}

	if subject := GetSubject(ctx); subject != "" {
		e.Str("subject", subject)
	}

	if id := GetRequestID(ctx); id != "" {
		e.Str("request_id", id)
	}
}
