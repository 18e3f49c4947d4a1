package sink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/rs/zerolog"

	"github.com/petems/micwindow/internal/window"
)

func TestWAVRecorderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "windows.wav")

	rec, err := NewWAVRecorder(path, 16000, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewWAVRecorder: %v", err)
	}

	rec.Emit(window.Window{0, 0.5, -0.5, 1})
	rec.Emit(window.Window{-1, 0.25, 0, 0})
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open recording: %v", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("recording is not a valid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode recording: %v", err)
	}

	if len(buf.Data) != 8 {
		t.Fatalf("expected 8 samples, got %d", len(buf.Data))
	}
	if dec.SampleRate != 16000 {
		t.Errorf("sample rate = %d, want 16000", dec.SampleRate)
	}
	if dec.NumChans != 1 {
		t.Errorf("channels = %d, want 1", dec.NumChans)
	}

	// Spot-check a few values survive the float -> int16 conversion.
	if buf.Data[0] != 0 {
		t.Errorf("sample 0 = %d, want 0", buf.Data[0])
	}
	if buf.Data[3] != 32767 {
		t.Errorf("sample 3 = %d, want full scale 32767", buf.Data[3])
	}
	if buf.Data[4] != -32767 {
		t.Errorf("sample 4 = %d, want -32767", buf.Data[4])
	}
}

func TestWAVRecorderEmitAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "closed.wav")

	rec, err := NewWAVRecorder(path, 16000, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewWAVRecorder: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Dropped silently; the session may still be flushing when the
	// recorder is torn down.
	rec.Emit(window.Window{1, 2, 3})
	if err := rec.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
