// Package sink defines where emitted windows go. A sink receives every
// window in emission order on the caller's goroutine, plus a single fatal
// notification if the owning session dies.
package sink

import (
	"github.com/petems/micwindow/internal/fault"
	"github.com/petems/micwindow/internal/window"
)

// Sink receives emitted windows and fatal session errors. Emit is called
// synchronously from the windowing goroutine, one window at a time.
type Sink interface {
	Emit(window.Window)
	Fatal(fault.Notification)
}

// Func adapts plain callbacks into a Sink. Either callback may be nil.
type Func struct {
	OnEmit  func(window.Window)
	OnFatal func(fault.Notification)
}

func (f Func) Emit(w window.Window) {
	if f.OnEmit != nil {
		f.OnEmit(w)
	}
}

func (f Func) Fatal(n fault.Notification) {
	if f.OnFatal != nil {
		f.OnFatal(n)
	}
}

// Chan is a channel-backed sink for consumers that want to drain windows
// from their own goroutine. Emit blocks when the consumer falls behind,
// which stalls chunk delivery at the source.
type Chan struct {
	windows chan window.Window
	fatals  chan fault.Notification
}

// NewChan creates a channel sink with the given window buffer size.
func NewChan(buffer int) *Chan {
	return &Chan{
		windows: make(chan window.Window, buffer),
		fatals:  make(chan fault.Notification, 1),
	}
}

func (c *Chan) Emit(w window.Window) {
	c.windows <- w
}

func (c *Chan) Fatal(n fault.Notification) {
	select {
	case c.fatals <- n:
	default:
	}
}

// Windows drains emitted windows in emission order.
func (c *Chan) Windows() <-chan window.Window {
	return c.windows
}

// Fatals delivers at most one fatal notification per session.
func (c *Chan) Fatals() <-chan fault.Notification {
	return c.fatals
}

// Tee forwards every window and fatal to all wrapped sinks, in order.
func Tee(sinks ...Sink) Sink {
	return teeSink(sinks)
}

type teeSink []Sink

func (t teeSink) Emit(w window.Window) {
	for _, s := range t {
		s.Emit(w)
	}
}

func (t teeSink) Fatal(n fault.Notification) {
	for _, s := range t {
		s.Fatal(n)
	}
}
