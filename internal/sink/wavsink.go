package sink

import (
	"os"
	"sync"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/rs/zerolog"

	"github.com/petems/micwindow/internal/fault"
	"github.com/petems/micwindow/internal/window"
)

const recordBitDepth = 16

// WAVRecorder persists every emitted window to a mono WAV file, so a
// windowed stream can be inspected or replayed later. Windows are written
// back to back; with overlap enabled the file contains the overlapped
// stream, not the raw capture.
type WAVRecorder struct {
	mu   sync.Mutex
	f    *os.File
	enc  *wav.Encoder
	log  zerolog.Logger
	ints []int
}

// NewWAVRecorder creates the output file and writes the WAV header for a
// mono stream at the given rate.
func NewWAVRecorder(path string, sampleRate int, log zerolog.Logger) (*WAVRecorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fault.SourceUnavailable.Wrap(err, "failed to create recording file")
	}
	return &WAVRecorder{
		f:   f,
		enc: wav.NewEncoder(f, sampleRate, recordBitDepth, 1, 1),
		log: log,
	}, nil
}

func (r *WAVRecorder) Emit(w window.Window) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.enc == nil {
		return
	}
	if cap(r.ints) < len(w) {
		r.ints = make([]int, len(w))
	}
	ints := r.ints[:len(w)]
	for i, s := range w {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		ints[i] = int(s * float32(int(1)<<(recordBitDepth-1)-1))
	}

	buf := &goaudio.IntBuffer{
		Data:           ints,
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: r.enc.SampleRate},
		SourceBitDepth: recordBitDepth,
	}
	if err := r.enc.Write(buf); err != nil {
		r.log.Error().Err(err).Msg("Failed to write window to recording")
	}
}

func (r *WAVRecorder) Fatal(n fault.Notification) {
	r.log.Error().
		Str("code", n.Code).
		Str("details", n.Details).
		Msg(n.Message)
}

// Close finalizes the WAV header. The recorder drops further windows.
func (r *WAVRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.enc == nil {
		return nil
	}
	err := r.enc.Close()
	r.enc = nil
	if cerr := r.f.Close(); err == nil {
		err = cerr
	}
	return err
}
