// Package session owns one capture session: it starts and stops the sample
// source, serializes chunk delivery into the windower, and forwards windows
// and fatal errors to the sink. It implements the host interruption state
// machine Idle -> Capturing -> Interrupted -> {Capturing | Idle}.
package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/petems/micwindow/internal/audio"
	"github.com/petems/micwindow/internal/fault"
	"github.com/petems/micwindow/internal/sink"
	"github.com/petems/micwindow/internal/window"
)

// State is the session lifecycle state.
type State int

const (
	StateIdle State = iota
	StateCapturing
	StateInterrupted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Config wires a session together. Window configuration is validated
// eagerly in New; an invalid one never starts the capture source.
type Config struct {
	Capture  audio.Capture
	Sink     sink.Sink
	Window   window.Config
	DeviceID string
	// Gain is a linear scale applied to chunks before windowing.
	// Zero means 1.0 (no scaling).
	Gain   float32
	Logger zerolog.Logger
}

// Stats counts traffic through a session since its last Start.
type Stats struct {
	ChunksIn   int64
	WindowsOut int64
}

// Session is the exclusive owner of one Windower and one capture stream.
type Session struct {
	capture  audio.Capture
	out      sink.Sink
	windower *window.Windower
	deviceID string
	gain     float32
	log      zerolog.Logger

	chunksIn   atomic.Int64
	windowsOut atomic.Int64

	mu          sync.Mutex
	state       State
	audioStop   context.CancelFunc
	feedDone    chan struct{}
	pending     *fault.Notification
	interrupted chan struct{}
}

// New builds a session. Fails with a config error before any capture is
// attempted if the window configuration is invalid.
func New(cfg Config) (*Session, error) {
	w, err := window.NewWindower(cfg.Window)
	if err != nil {
		return nil, err
	}
	gain := cfg.Gain
	if gain == 0 {
		gain = 1
	}
	return &Session{
		capture:     cfg.Capture,
		out:         cfg.Sink,
		windower:    w,
		deviceID:    cfg.DeviceID,
		gain:        gain,
		log:         cfg.Logger,
		interrupted: make(chan struct{}, 1),
	}, nil
}

// Start moves the session from Idle to Capturing. The windower is reset on
// every transition into Capturing so no carry state leaks between runs.
// A source that cannot start is surfaced to the sink as fatal and the
// session stays Idle.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return fault.SourceUnavailable.New("session already started (state %s)", s.state)
	}
	return s.startCaptureLocked(ctx)
}

func (s *Session) startCaptureLocked(ctx context.Context) error {
	s.windower.Reset()
	s.chunksIn.Store(0)
	s.windowsOut.Store(0)

	audioCtx, cancel := context.WithCancel(ctx)

	chunks := make(chan []float32, 8)
	err := s.capture.Start(audioCtx, audio.StartOpts{
		DeviceID:   s.deviceID,
		SampleRate: s.windower.Config().SampleRate,
		ChunkWidth: s.windower.Config().ChunkWidth,
		OnFault:    s.onCaptureFault,
	}, chunks)
	if err != nil {
		cancel()
		s.log.Error().Err(err).Msg("Failed to start capture")
		s.out.Fatal(fault.Notify(err))
		return err
	}

	s.audioStop = cancel
	s.feedDone = make(chan struct{})
	s.state = StateCapturing
	s.log.Info().
		Int("chunk_width", s.windower.Config().ChunkWidth).
		Float64("overlap", s.windower.Config().OverlapRatio).
		Int("stride", s.windower.Config().Stride()).
		Msg("Capture started")

	go s.feed(audioCtx, chunks)
	return nil
}

// feed is the single producer for the windower: one chunk is processed to
// completion, including all of its emissions, before the next is accepted.
func (s *Session) feed(ctx context.Context, chunks <-chan []float32) {
	defer close(s.feedDone)
	for {
		select {
		case <-ctx.Done():
			return
		case chunk, ok := <-chunks:
			if !ok {
				return
			}
			s.chunksIn.Add(1)
			window.Gain(chunk, s.gain)
			for _, w := range s.windower.Process(chunk) {
				s.windowsOut.Add(1)
				s.out.Emit(w)
			}
		}
	}
}

// onCaptureFault runs on the capture goroutine when a started stream dies.
// The session parks in Interrupted until the host signals whether resume
// is permitted.
func (s *Session) onCaptureFault(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCapturing {
		return
	}
	s.log.Warn().Err(err).Msg("Capture interrupted")
	s.stopCaptureLocked()
	n := fault.Notify(err)
	s.pending = &n
	s.state = StateInterrupted

	select {
	case s.interrupted <- struct{}{}:
	default:
	}
}

// Interruptions signals each transition into Interrupted. The owner should
// answer with OnResume.
func (s *Session) Interruptions() <-chan struct{} {
	return s.interrupted
}

// OnResume handles the host's interruption-ended signal. When resume is
// permitted the capture restarts with the same configuration and a freshly
// reset windower; buffered carry history is invalid after an interruption.
// Otherwise the pending fault is surfaced to the sink and the session ends.
func (s *Session) OnResume(ctx context.Context, permitted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInterrupted {
		return nil
	}
	if !permitted {
		if s.pending != nil {
			s.out.Fatal(*s.pending)
			s.pending = nil
		}
		s.state = StateIdle
		s.log.Info().Msg("Resume not permitted, session ended")
		return nil
	}

	s.pending = nil
	s.state = StateIdle
	return s.startCaptureLocked(ctx)
}

// Stop ends the session from any state and discards in-flight carry.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateIdle {
		return
	}
	s.stopCaptureLocked()
	s.pending = nil
	s.state = StateIdle
	s.windower.Reset()
	s.log.Info().
		Int64("chunks_in", s.chunksIn.Load()).
		Int64("windows_out", s.windowsOut.Load()).
		Msg("Capture stopped")
}

func (s *Session) stopCaptureLocked() {
	if s.audioStop != nil {
		s.audioStop()
		s.audioStop = nil
	}
	if s.feedDone != nil {
		<-s.feedDone
		s.feedDone = nil
	}
	s.capture.Stop()
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentSampleRate reports the negotiated rate of the underlying source.
func (s *Session) CurrentSampleRate() int {
	return s.capture.CurrentSampleRate()
}

// Stats returns traffic counters for the current run.
func (s *Session) Stats() Stats {
	return Stats{
		ChunksIn:   s.chunksIn.Load(),
		WindowsOut: s.windowsOut.Load(),
	}
}

// Wait blocks until the current run's feed loop exits, which happens when
// the source drains (file sources), the context is cancelled, or the
// session is stopped or interrupted.
func (s *Session) Wait() {
	s.mu.Lock()
	done := s.feedDone
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}
