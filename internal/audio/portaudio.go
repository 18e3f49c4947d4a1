package audio

import (
	"context"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"

	"github.com/petems/micwindow/internal/fault"
)

type portAudioCapture struct {
	stream *portaudio.Stream
	rate   atomic.Int64
}

// New creates a new PortAudio-based capture source.
func New() (Capture, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fault.SourceUnavailable.Wrap(err, "failed to initialize PortAudio")
	}
	return &portAudioCapture{}, nil
}

func (p *portAudioCapture) Start(ctx context.Context, opts StartOpts, out chan<- []float32) error {
	// Find device
	var device *portaudio.DeviceInfo
	if opts.DeviceID == "" {
		var err error
		device, err = portaudio.DefaultInputDevice()
		if err != nil {
			return fault.SourceUnavailable.Wrap(err, "failed to get default input device")
		}
	} else {
		devices, err := portaudio.Devices()
		if err != nil {
			return fault.SourceUnavailable.Wrap(err, "failed to enumerate devices")
		}
		for _, d := range devices {
			if d.Name == opts.DeviceID {
				device = d
				break
			}
		}
	}

	if device == nil {
		return fault.SourceUnavailable.New("device not found: %s", opts.DeviceID).
			WithProperty(fault.PropertyDetails, opts.DeviceID)
	}

	// Open stream: mono, requested rate, float32, one buffer per chunk
	buffer := make([]float32, opts.ChunkWidth)
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: 1,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      float64(opts.SampleRate),
		FramesPerBuffer: len(buffer),
	}, buffer)

	if err != nil {
		return fault.SourceUnavailable.Wrap(err, "failed to open audio stream")
	}

	p.stream = stream
	p.rate.Store(int64(opts.SampleRate))

	if err := stream.Start(); err != nil {
		stream.Close()
		return fault.SourceUnavailable.Wrap(err, "failed to start audio stream")
	}

	// Read loop. Delivery blocks when the consumer is slow; the windowing
	// contract is one chunk processed to completion before the next.
	go func() {
		defer stream.Close()
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := stream.Read(); err != nil {
				if ctx.Err() == nil && opts.OnFault != nil {
					opts.OnFault(fault.Interrupted.Wrap(err, "audio stream read failed"))
				}
				return
			}

			samples := make([]float32, len(buffer))
			copy(samples, buffer)

			select {
			case out <- samples:
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

func (p *portAudioCapture) Stop() error {
	if p.stream != nil {
		return p.stream.Stop()
	}
	return nil
}

func (p *portAudioCapture) CurrentSampleRate() int {
	return int(p.rate.Load())
}

func (p *portAudioCapture) ListDevices() ([]Device, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fault.SourceUnavailable.Wrap(err, "failed to list devices")
	}

	result := make([]Device, 0, len(devices))
	defaultDevice, _ := portaudio.DefaultInputDevice()

	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			result = append(result, Device{
				ID:      d.Name,
				Name:    d.Name,
				Default: d == defaultDevice,
			})
		}
	}

	return result, nil
}

func (p *portAudioCapture) Close() error {
	if p.stream != nil {
		p.stream.Close()
	}
	portaudio.Terminate()
	return nil
}
