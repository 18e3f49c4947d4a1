package sink

import (
	"testing"

	"github.com/petems/micwindow/internal/fault"
	"github.com/petems/micwindow/internal/window"
)

type recordingSink struct {
	windows []window.Window
	fatals  []fault.Notification
}

func (r *recordingSink) Emit(w window.Window) {
	r.windows = append(r.windows, w)
}

func (r *recordingSink) Fatal(n fault.Notification) {
	r.fatals = append(r.fatals, n)
}

func TestFuncSinkNilCallbacks(t *testing.T) {
	// Emitting into a zero Func must not panic.
	var f Func
	f.Emit(window.Window{1, 2})
	f.Fatal(fault.Notification{Code: "x"})
}

func TestFuncSinkForwards(t *testing.T) {
	var got []window.Window
	var fatal *fault.Notification

	f := Func{
		OnEmit:  func(w window.Window) { got = append(got, w) },
		OnFatal: func(n fault.Notification) { fatal = &n },
	}

	f.Emit(window.Window{1})
	f.Emit(window.Window{2})
	f.Fatal(fault.Notification{Code: "c", Message: "m"})

	if len(got) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(got))
	}
	if fatal == nil || fatal.Code != "c" {
		t.Fatalf("fatal not forwarded: %+v", fatal)
	}
}

func TestChanSinkDrainsInOrder(t *testing.T) {
	c := NewChan(4)
	c.Emit(window.Window{1})
	c.Emit(window.Window{2})
	c.Emit(window.Window{3})

	for i := 1; i <= 3; i++ {
		w := <-c.Windows()
		if w[0] != float32(i) {
			t.Fatalf("window %d out of order: %v", i, w)
		}
	}
}

func TestChanSinkFatalDoesNotBlock(t *testing.T) {
	c := NewChan(1)
	c.Fatal(fault.Notification{Code: "first"})
	c.Fatal(fault.Notification{Code: "second"}) // dropped, must not block

	n := <-c.Fatals()
	if n.Code != "first" {
		t.Fatalf("expected first fatal, got %q", n.Code)
	}
}

func TestTeeForwardsToAllSinks(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{}
	tee := Tee(a, b)

	tee.Emit(window.Window{1, 2, 3})
	tee.Fatal(fault.Notification{Code: "boom"})

	for name, s := range map[string]*recordingSink{"a": a, "b": b} {
		if len(s.windows) != 1 {
			t.Errorf("sink %s: expected 1 window, got %d", name, len(s.windows))
		}
		if len(s.fatals) != 1 || s.fatals[0].Code != "boom" {
			t.Errorf("sink %s: fatal not forwarded", name)
		}
	}
}
