package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/petems/micwindow/internal/audio"
	"github.com/petems/micwindow/internal/config"
	"github.com/petems/micwindow/internal/fault"
	"github.com/petems/micwindow/internal/logging"
	"github.com/petems/micwindow/internal/session"
	"github.com/petems/micwindow/internal/sink"
	"github.com/petems/micwindow/internal/window"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

type cliOptions struct {
	deviceID   string
	sampleRate int
	chunkWidth int
	overlap    float64
	gain       float32
	record     string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:           "micwindow",
		Short:         "Stream microphone audio as fixed-width overlapping sample windows",
		Version:       fmt.Sprintf("%s (%s)", Version, Commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	root.PersistentFlags().IntVar(&opts.chunkWidth, "chunk-width", 0, "window width in samples")
	root.PersistentFlags().Float64Var(&opts.overlap, "overlap", -1, "overlap ratio in [0.0, 1.0)")
	root.PersistentFlags().Float32Var(&opts.gain, "gain", 0, "linear gain applied before windowing")
	root.PersistentFlags().StringVar(&opts.record, "record", "", "write emitted windows to this WAV file")

	root.AddCommand(newCaptureCmd(opts), newReprocessCmd(opts), newDevicesCmd())
	return root
}

// loadConfig applies flag overrides on top of the config file.
func loadConfig(opts *cliOptions) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, logging.New(), err
	}

	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.chunkWidth > 0 {
		cfg.Window.ChunkWidth = opts.chunkWidth
	}
	if opts.overlap >= 0 {
		cfg.Window.OverlapRatio = opts.overlap
	}
	if opts.gain != 0 {
		cfg.Gain = opts.gain
	}
	if opts.deviceID != "" {
		cfg.Audio.DeviceID = opts.deviceID
	}
	if opts.sampleRate > 0 {
		cfg.Audio.SampleRate = opts.sampleRate
	}

	log := logging.NewWithLevel(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return nil, log, err
	}
	return cfg, log, nil
}

func newCaptureCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture live microphone audio and emit windows until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(opts)
			if err != nil {
				return err
			}

			capture, err := audio.New()
			if err != nil {
				return err
			}
			defer capture.Close()

			return runSession(cmd.Context(), cfg, log, capture, opts.record, true)
		},
	}
	cmd.Flags().StringVar(&opts.deviceID, "device", "", "input device name (default input when empty)")
	cmd.Flags().IntVar(&opts.sampleRate, "sample-rate", 0, "requested capture sample rate in Hz")
	return cmd
}

func newReprocessCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reprocess <file.wav>",
		Short: "Replay a recorded WAV file through the windowing pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(opts)
			if err != nil {
				return err
			}

			capture := audio.NewWAVFile(args[0])
			defer capture.Close()

			return runSession(cmd.Context(), cfg, log, capture, opts.record, false)
		},
	}
}

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio input devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			capture, err := audio.New()
			if err != nil {
				return err
			}
			defer capture.Close()

			devices, err := capture.ListDevices()
			if err != nil {
				return err
			}
			for _, d := range devices {
				marker := " "
				if d.Default {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, d.Name)
			}
			return nil
		},
	}
}

// runSession wires source -> windower -> sink and blocks until the source
// drains (file replay) or a shutdown signal arrives (live capture).
func runSession(ctx context.Context, cfg *config.Config, log zerolog.Logger, capture audio.Capture, record string, live bool) error {
	out := sink.Sink(sink.Func{
		OnEmit: func(w window.Window) {
			log.Debug().Int("samples", len(w)).Msg("Window emitted")
		},
		OnFatal: func(n fault.Notification) {
			log.Error().Str("code", n.Code).Str("details", n.Details).Msg(n.Message)
		},
	})

	var recorder *sink.WAVRecorder
	if record != "" {
		var err error
		recorder, err = sink.NewWAVRecorder(record, cfg.Audio.SampleRate, log)
		if err != nil {
			return err
		}
		defer recorder.Close()
		out = sink.Tee(out, recorder)
	}

	sess, err := session.New(session.Config{
		Capture:  capture,
		Sink:     out,
		Window:   cfg.WindowerConfig(),
		DeviceID: cfg.Audio.DeviceID,
		Gain:     cfg.Gain,
		Logger:   log,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := sess.Start(ctx); err != nil {
		return err
	}
	defer sess.Stop()

	if live {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		log.Info().Int("sample_rate", sess.CurrentSampleRate()).Msg("Capturing, press Ctrl+C to stop")
		select {
		case <-sigChan:
			log.Info().Msg("Shutting down...")
			return nil
		case <-ctx.Done():
			return nil
		case <-sess.Interruptions():
			// A headless CLI has no way to wait out a competing audio
			// session, so interruptions are not resumable here.
			sess.OnResume(ctx, false)
			return fault.Interrupted.New("capture interrupted")
		}
	}

	sess.Wait()
	if sess.State() == session.StateInterrupted {
		sess.OnResume(ctx, false)
		return fault.Interrupted.New("replay interrupted")
	}
	stats := sess.Stats()
	log.Info().
		Int64("chunks_in", stats.ChunksIn).
		Int64("windows_out", stats.WindowsOut).
		Msg("Reprocess finished")
	return nil
}
