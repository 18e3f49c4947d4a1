// Package window implements the sliding-window overlap engine: a stateful
// transformer that turns an arbitrary stream of raw sample chunks into
// fixed-width windows advancing by a configurable stride.
package window

import (
	"math"

	"github.com/petems/micwindow/internal/fault"
)

// Config is the immutable per-session windowing configuration.
type Config struct {
	// ChunkWidth is the width of every emitted window, in samples.
	ChunkWidth int
	// OverlapRatio is the fraction of a window shared with its predecessor,
	// in [0.0, 1.0). 0 means windows equal chunks.
	OverlapRatio float64
	// SampleRate is informational only; the windowing math never uses it.
	SampleRate int
}

// Stride returns the number of samples the window start advances between
// consecutive emissions: floor((1-OverlapRatio) * ChunkWidth).
func (c Config) Stride() int {
	return int(math.Floor((1.0 - c.OverlapRatio) * float64(c.ChunkWidth)))
}

// Validate rejects impossible configurations before any chunk is processed.
func (c Config) Validate() error {
	if c.ChunkWidth <= 0 {
		return fault.ConfigError.New("chunk width must be positive, got %d", c.ChunkWidth)
	}
	if c.OverlapRatio < 0.0 || c.OverlapRatio >= 1.0 {
		return fault.ConfigError.New("overlap ratio must be in [0.0, 1.0), got %g", c.OverlapRatio)
	}
	if c.Stride() < 1 {
		return fault.ConfigError.New("overlap ratio %g yields zero stride for chunk width %d", c.OverlapRatio, c.ChunkWidth)
	}
	return nil
}

// Window is one fixed-width output unit of samples. Emitted windows never
// alias the carry buffer or a caller's chunk; ownership passes to the
// receiver.
type Window []float32

// Windower consumes sample chunks one at a time and emits zero or more
// windows per chunk, carrying partial state across chunk boundaries.
//
// A Windower is not safe for concurrent use; callers must serialize calls
// to Process. Window content is a pure function of the ordered chunk
// history, so replaying the same chunks always yields the same windows.
type Windower struct {
	cfg    Config
	stride int

	// carry holds samples retained across chunk boundaries. Its first
	// sample is always the start of the next window to emit, so it stays
	// strictly shorter than one window.
	carry []float32
}

// NewWindower builds a Windower for cfg, or fails with a config error.
func NewWindower(cfg Config) (*Windower, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Windower{cfg: cfg, stride: cfg.Stride()}, nil
}

// Config returns the configuration the Windower was built with.
func (w *Windower) Config() Config {
	return w.cfg
}

// Process consumes one chunk and returns the windows it completes, in
// emission order. Chunks whose width differs from ChunkWidth are absorbed
// through the carry buffer: windows are cut whenever a full width is
// available and the leftover tail waits for the next chunk.
func (w *Windower) Process(chunk []float32) []Window {
	if len(chunk) == 0 {
		return nil
	}

	width := w.cfg.ChunkWidth

	if w.cfg.OverlapRatio == 0 {
		if len(w.carry) == 0 && len(chunk) == width {
			// Chunk is already exactly one window.
			return []Window{copyWindow(chunk)}
		}
		return w.cut(joined(w.carry, chunk))
	}

	if len(w.carry) == 0 {
		if len(chunk) == width {
			// First chunk of the session, or right after a full drain:
			// emit it un-overlapped and seed the overlap history with its
			// tail past the stride point, where the next window starts.
			w.carry = copyWindow(chunk[w.stride:])
			return []Window{copyWindow(chunk)}
		}
		// Ragged chunk with no history: gather until a full width exists.
		return w.cut(copyWindow(chunk))
	}

	return w.cut(joined(w.carry, chunk))
}

// cut emits full windows from the start of holder, advancing by stride,
// then records whatever remains as the new carry. The leftover is always
// shorter than a window. holder must not be retained by the caller.
func (w *Windower) cut(holder []float32) []Window {
	width := w.cfg.ChunkWidth

	var out []Window
	startIndex := 0
	for startIndex < len(holder) {
		remaining := len(holder) - startIndex
		switch {
		case remaining > width:
			out = append(out, copyWindow(holder[startIndex:startIndex+width]))
			startIndex += w.stride
		case remaining == width:
			out = append(out, copyWindow(holder[startIndex:]))
			w.carry = w.carry[:0]
			startIndex = len(holder)
		default:
			w.carry = append(w.carry[:0], holder[startIndex:]...)
			startIndex = len(holder)
		}
	}
	return out
}

// CarryLen reports how many samples wait for the next chunk. Always less
// than ChunkWidth after any Process call.
func (w *Windower) CarryLen() int {
	return len(w.carry)
}

// Reset clears the carry buffer so no state leaks into a restarted session.
func (w *Windower) Reset() {
	w.carry = w.carry[:0]
}

func copyWindow(s []float32) Window {
	out := make(Window, len(s))
	copy(out, s)
	return out
}

func joined(a, b []float32) []float32 {
	out := make([]float32, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
