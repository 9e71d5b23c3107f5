package core

import "sync"

type Button uint16

const (
	BUTTON_LEFT Button = iota
	BUTTON_RIGHT
	BUTTON_MIDDLE
	BUTTON_MAX_BUTTONS
)

// Key code definitions. Values match the GLFW key tokens so the
// platform layer can pass callbacks through without translation.
type KeyCode int

const (
	KEY_SPACE  KeyCode = 32
	KEY_A      KeyCode = 65
	KEY_C      KeyCode = 67
	KEY_D      KeyCode = 68
	KEY_E      KeyCode = 69
	KEY_P      KeyCode = 80
	KEY_Q      KeyCode = 81
	KEY_S      KeyCode = 83
	KEY_W      KeyCode = 87
	KEY_X      KeyCode = 88
	KEY_ESCAPE KeyCode = 256
	KEY_RIGHT  KeyCode = 262
	KEY_LEFT   KeyCode = 263
	KEY_DOWN   KeyCode = 264
	KEY_UP     KeyCode = 265
)

// InputState tracks keyboard and mouse state for the current and the
// previous frame. State changes also fire events so listeners can react
// without polling.
type InputState struct {
	mu sync.Mutex

	events *EventSystem

	keysCurrent  map[KeyCode]bool
	keysPrevious map[KeyCode]bool

	buttonsCurrent  map[Button]bool
	buttonsPrevious map[Button]bool

	mouseX, mouseY float64
}

func NewInputState(events *EventSystem) *InputState {
	return &InputState{
		events:          events,
		keysCurrent:     make(map[KeyCode]bool),
		keysPrevious:    make(map[KeyCode]bool),
		buttonsCurrent:  make(map[Button]bool),
		buttonsPrevious: make(map[Button]bool),
	}
}

func (in *InputState) ProcessKey(key KeyCode, pressed bool) {
	in.mu.Lock()
	changed := in.keysCurrent[key] != pressed
	in.keysCurrent[key] = pressed
	in.mu.Unlock()

	// Only fire if the state actually changed.
	if changed && in.events != nil {
		code := EventKeyReleased
		if pressed {
			code = EventKeyPressed
		}
		in.events.Fire(EventContext{
			Type: code,
			Data: &KeyEvent{KeyCode: int(key)},
		})
	}
}

func (in *InputState) ProcessButton(button Button, pressed bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.buttonsCurrent[button] = pressed
}

func (in *InputState) ProcessMouseMove(x, y float64) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.mouseX, in.mouseY = x, y
}

// Update copies current state into previous state. Input should be the
// last thing updated before a frame ends.
func (in *InputState) Update() {
	in.mu.Lock()
	defer in.mu.Unlock()
	for k, v := range in.keysCurrent {
		in.keysPrevious[k] = v
	}
	for b, v := range in.buttonsCurrent {
		in.buttonsPrevious[b] = v
	}
}

func (in *InputState) IsKeyDown(key KeyCode) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.keysCurrent[key]
}

func (in *InputState) IsKeyUp(key KeyCode) bool {
	return !in.IsKeyDown(key)
}

func (in *InputState) WasKeyDown(key KeyCode) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.keysPrevious[key]
}

func (in *InputState) IsButtonDown(button Button) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.buttonsCurrent[button]
}

func (in *InputState) MousePosition() (float64, float64) {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.mouseX, in.mouseY
}
