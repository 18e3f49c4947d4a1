package audio

import (
	"context"
	"os"
	"sync/atomic"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/petems/micwindow/internal/fault"
)

// wavFileCapture replays a recorded WAV file as a capture source, so chunk
// logs can be reprocessed offline through the same pipeline as live audio.
type wavFileCapture struct {
	path   string
	rate   atomic.Int64
	cancel context.CancelFunc
}

// NewWAVFile creates a capture source that reads samples from a WAV file.
func NewWAVFile(path string) Capture {
	return &wavFileCapture{path: path}
}

func (c *wavFileCapture) Start(ctx context.Context, opts StartOpts, out chan<- []float32) error {
	f, err := os.Open(c.path)
	if err != nil {
		return fault.SourceUnavailable.Wrap(err, "failed to open wav file")
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return fault.SourceUnavailable.New("invalid wav file: %s", c.path).
			WithProperty(fault.PropertyDetails, c.path)
	}

	channels := int(dec.NumChans)
	if channels < 1 {
		channels = 1
	}
	bitDepth := int(dec.BitDepth)
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float32(int(1) << (bitDepth - 1))
	c.rate.Store(int64(dec.SampleRate))

	ctx, c.cancel = context.WithCancel(ctx)

	go func() {
		defer f.Close()
		buf := &goaudio.IntBuffer{
			Data:   make([]int, opts.ChunkWidth*channels),
			Format: &goaudio.Format{NumChannels: channels, SampleRate: int(dec.SampleRate)},
		}
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			n, err := dec.PCMBuffer(buf)
			if err != nil {
				if opts.OnFault != nil {
					opts.OnFault(fault.Interrupted.Wrap(err, "wav decode failed"))
				}
				return
			}
			if n == 0 {
				// Drained: closing lets the consumer finish cleanly.
				close(out)
				return
			}

			frames := n / channels
			samples := make([]float32, frames)
			for i := 0; i < frames; i++ {
				var sum float32
				for ch := 0; ch < channels; ch++ {
					sum += float32(buf.Data[i*channels+ch]) / scale
				}
				samples[i] = sum / float32(channels)
			}

			select {
			case out <- samples:
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

func (c *wavFileCapture) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

func (c *wavFileCapture) CurrentSampleRate() int {
	return int(c.rate.Load())
}

func (c *wavFileCapture) ListDevices() ([]Device, error) {
	return []Device{{ID: c.path, Name: c.path, Default: true}}, nil
}

func (c *wavFileCapture) Close() error {
	return c.Stop()
}
