package audio

import "context"

// Capture defines the interface for sample sources. Implementations push
// mono chunks of normalized samples into the out channel from their own
// capture goroutine.
type Capture interface {
	Start(ctx context.Context, opts StartOpts, out chan<- []float32) error
	Stop() error
	ListDevices() ([]Device, error)
	// CurrentSampleRate reports the negotiated rate of the running stream,
	// or 0 before a successful Start.
	CurrentSampleRate() int
	Close() error
}

// StartOpts configures one capture stream.
type StartOpts struct {
	DeviceID   string
	SampleRate int
	// ChunkWidth is the preferred number of samples per delivered chunk.
	// Hosts may still deliver ragged widths at stream start or end.
	ChunkWidth int
	// OnFault is invoked from the capture goroutine when the stream dies
	// after a successful start (e.g. the device was claimed by a competing
	// session). Chunk delivery stops after the call.
	OnFault func(error)
}

// Device represents an audio input device.
type Device struct {
	ID      string
	Name    string
	Default bool
}
