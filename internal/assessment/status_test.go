package assessment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusBoard_Lifecycle(t *testing.T) {
	timers := &manualTimers{}
	b := NewStatusBoard(WithAfterFunc(timers.after))

	var seen []SaveState
	b.Subscribe(func(s Status) { seen = append(seen, s.State) })

	assert.Equal(t, Idle, b.Current().State)
	b.Saving()
	b.Saved()
	require.Len(t, timers.delays, 1)
	assert.Equal(t, StatusClearDelay, timers.delays[0])

	timers.fire()
	assert.Equal(t, []SaveState{Saving, Saved, Idle}, seen)
}

func TestStatusBoard_FailedCarriesMessage(t *testing.T) {
	timers := &manualTimers{}
	b := NewStatusBoard(WithAfterFunc(timers.after), WithClearDelay(time.Second))

	b.Failed("Network error")
	assert.Equal(t, Status{State: Failed, Message: "Network error"}, b.Current())
	assert.Equal(t, time.Second, timers.delays[0])

	timers.fire()
	assert.Equal(t, Status{State: Idle}, b.Current())
}

func TestStatusBoard_RealTimerClears(t *testing.T) {
	b := NewStatusBoard(WithClearDelay(10 * time.Millisecond))
	b.Saved()

	assert.Eventually(t, func() bool {
		return b.Current().State == Idle
	}, time.Second, 5*time.Millisecond)
}

func TestSaveState_String(t *testing.T) {
	assert.Equal(t, "saving", Saving.String())
	assert.Equal(t, "unknown", SaveState(42).String())
}
