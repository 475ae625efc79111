package assessment

import (
	"sync"
	"time"
)

type SaveState int

const (
	Idle SaveState = iota
	Saving
	Saved
	Failed
)

func (s SaveState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Saving:
		return "saving"
	case Saved:
		return "saved"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// StatusClearDelay is how long a saved/failed indicator stays visible.
const StatusClearDelay = 3 * time.Second

type Status struct {
	State   SaveState
	Message string
}

// StatusBoard holds the single transient save indicator. Every completed save schedules its
// own reset to Idle, even when a newer save has started since.
type StatusBoard struct {
	mu        sync.Mutex
	current   Status
	delay     time.Duration
	afterFunc func(time.Duration, func())
	listeners []func(Status)
}

type StatusOption func(*StatusBoard)

// WithAfterFunc replaces the timer used to clear the indicator; tests use it to fire resets
// by hand.
func WithAfterFunc(fn func(time.Duration, func())) StatusOption {
	return func(b *StatusBoard) {
		if fn != nil {
			b.afterFunc = fn
		}
	}
}

func WithClearDelay(d time.Duration) StatusOption {
	return func(b *StatusBoard) {
		b.delay = d
	}
}

func NewStatusBoard(opts ...StatusOption) *StatusBoard {
	b := &StatusBoard{
		delay: StatusClearDelay,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *StatusBoard) Current() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Subscribe registers fn to be called on every change.
func (b *StatusBoard) Subscribe(fn func(Status)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
}

func (b *StatusBoard) Saving() {
	b.set(Status{State: Saving})
}

func (b *StatusBoard) Saved() {
	b.set(Status{State: Saved})
	b.afterFunc(b.delay, b.clear)
}

func (b *StatusBoard) Failed(message string) {
	b.set(Status{State: Failed, Message: message})
	b.afterFunc(b.delay, b.clear)
}

func (b *StatusBoard) clear() {
	b.set(Status{State: Idle})
}

func (b *StatusBoard) set(s Status) {
	b.mu.Lock()
	b.current = s
	listeners := append([]func(Status){}, b.listeners...)
	b.mu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
}
