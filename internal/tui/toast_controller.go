package tui

import (
	"time"

	"github.com/colonyops/touchline/internal/core/notify"
)

const (
	defaultToastTTL   = 4 * time.Second
	defaultMaxToasts  = 4
	toastTickInterval = 100 * time.Millisecond
	toastWidth        = 44
)

type toast struct {
	notification notify.Notification
	remaining    time.Duration
}

// ToastController tracks active toasts and their remaining lifetime.
// Errors stay on screen twice as long as other levels.
type ToastController struct {
	toasts  []toast
	ticking bool
}

func NewToastController() *ToastController {
	return &ToastController{}
}

// Push adds a notification to the stack, evicting the oldest once the
// stack is over defaultMaxToasts.
func (c *ToastController) Push(n notify.Notification) {
	ttl := defaultToastTTL
	if n.Level == notify.LevelError {
		ttl *= 2
	}
	c.toasts = append(c.toasts, toast{notification: n, remaining: ttl})
	if len(c.toasts) > defaultMaxToasts {
		c.toasts = c.toasts[len(c.toasts)-defaultMaxToasts:]
	}
}

// Tick ages every toast by d and drops the expired ones.
func (c *ToastController) Tick(d time.Duration) {
	alive := c.toasts[:0]
	for _, t := range c.toasts {
		t.remaining -= d
		if t.remaining > 0 {
			alive = append(alive, t)
		}
	}
	c.toasts = alive
}

// Dismiss removes the newest toast.
func (c *ToastController) Dismiss() {
	if len(c.toasts) > 0 {
		c.toasts = c.toasts[:len(c.toasts)-1]
	}
}

func (c *ToastController) HasToasts() bool   { return len(c.toasts) > 0 }
func (c *ToastController) Toasts() []toast   { return c.toasts }
func (c *ToastController) Ticking() bool     { return c.ticking }
func (c *ToastController) SetTicking(v bool) { c.ticking = v }
