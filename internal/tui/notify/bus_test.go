package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/touchline/internal/core/notify"
)

func TestBus_PublishFansOut(t *testing.T) {
	bus := NewBus()

	var first, second []notify.Notification
	bus.Subscribe(func(n notify.Notification) { first = append(first, n) })
	bus.Subscribe(func(n notify.Notification) { second = append(second, n) })

	bus.Infof("reply posted to %s", "bob")

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, notify.LevelInfo, first[0].Level)
	assert.Equal(t, "reply posted to bob", first[0].Message)
	assert.False(t, first[0].CreatedAt.IsZero())
}

func TestBus_Levels(t *testing.T) {
	bus := NewBus()

	var got []notify.Level
	bus.Subscribe(func(n notify.Notification) { got = append(got, n.Level) })

	bus.Errorf("e")
	bus.Warnf("w")
	bus.Infof("i")

	assert.Equal(t, []notify.Level{notify.LevelError, notify.LevelWarning, notify.LevelInfo}, got)
}

func TestBus_NoSubscribers(t *testing.T) {
	assert.NotPanics(t, func() { NewBus().Errorf("nobody listening") })
}
