package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInputKeyStateRollsOver(t *testing.T) {
	in := NewInputState(nil)

	in.ProcessKey(KEY_W, true)
	assert.True(t, in.IsKeyDown(KEY_W))
	assert.False(t, in.WasKeyDown(KEY_W))

	in.Update()
	assert.True(t, in.WasKeyDown(KEY_W))

	in.ProcessKey(KEY_W, false)
	assert.True(t, in.IsKeyUp(KEY_W))
	// Released this frame: up now, down last frame.
	assert.True(t, in.WasKeyDown(KEY_W))

	in.Update()
	assert.False(t, in.WasKeyDown(KEY_W))
}

func TestInputFiresKeyEventsOnChange(t *testing.T) {
	es := NewEventSystem()
	in := NewInputState(es)

	var pressed, released []int
	es.Register(EventKeyPressed, func(ctx EventContext) {
		pressed = append(pressed, ctx.Data.(*KeyEvent).KeyCode)
	})
	es.Register(EventKeyReleased, func(ctx EventContext) {
		released = append(released, ctx.Data.(*KeyEvent).KeyCode)
	})

	in.ProcessKey(KEY_SPACE, true)
	in.ProcessKey(KEY_SPACE, true) // repeat, no event
	in.ProcessKey(KEY_SPACE, false)
	es.Pump()

	assert.Equal(t, []int{int(KEY_SPACE)}, pressed)
	assert.Equal(t, []int{int(KEY_SPACE)}, released)
}

func TestInputMouseState(t *testing.T) {
	in := NewInputState(nil)

	in.ProcessButton(BUTTON_LEFT, true)
	assert.True(t, in.IsButtonDown(BUTTON_LEFT))
	assert.False(t, in.IsButtonDown(BUTTON_RIGHT))

	in.ProcessMouseMove(12.5, 30)
	x, y := in.MousePosition()
	assert.Equal(t, 12.5, x)
	assert.Equal(t, float64(30), y)
}
