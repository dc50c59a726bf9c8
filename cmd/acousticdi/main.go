package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v2"

	"github.com/Wang-Ji20/acousticdi/pkg/acoustic/config"
	"github.com/Wang-Ji20/acousticdi/pkg/acoustic/device"
	"github.com/Wang-Ji20/acousticdi/pkg/acoustic/device/capture"
	"github.com/Wang-Ji20/acousticdi/pkg/acoustic/device/wavfile"
	"github.com/Wang-Ji20/acousticdi/pkg/acoustic/modem"
	"github.com/Wang-Ji20/acousticdi/pkg/acoustic/source"
	acsync "github.com/Wang-Ji20/acousticdi/pkg/acoustic/sync"
	"github.com/Wang-Ji20/acousticdi/pkg/acoustic/transmit"
	"github.com/Wang-Ji20/acousticdi/pkg/audio/playback"
	"github.com/Wang-Ji20/acousticdi/pkg/audio/wavio"
	"github.com/Wang-Ji20/acousticdi/pkg/dsp/viz"
)

const (
	wavBlockSize  = 4096
	wavBlockDelay = time.Millisecond * 20
	vizWindowSize = 8192
	vizFeedPeriod = time.Millisecond * 100
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel)
	configFile := flag.String("config", "acousticdi.yaml", "YAML config file")
	mode := flag.String("mode", "recv", "send or recv")
	message := flag.String("message", "", "text to transmit in send mode (stdin when empty)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	if *verbose {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	}

	var appCfg config.Config
	configContents, err := os.ReadFile(*configFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn().Str("file", *configFile).Msg("config file not found, using defaults")
	case err != nil:
		log.Fatal().Err(err).Msg("error reading config file")
	default:
		if err := yaml.Unmarshal(configContents, &appCfg); err != nil {
			log.Fatal().Err(err).Msg("error unmarshaling yaml file")
		}
	}

	cfg := modem.NewConfig()

	switch *mode {
	case "send":
		runSend(appCfg, cfg, *message)
	case "recv":
		runRecv(appCfg, cfg)
	default:
		flag.Usage()
		os.Exit(1)
	}
}

func runSend(appCfg config.Config, cfg *modem.Config, message string) {
	data := []byte(message)
	if len(data) == 0 {
		var err error
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatal().Err(err).Msg("error reading stdin")
		}
	}
	if len(data) == 0 {
		log.Fatal().Msg("nothing to transmit")
	}

	tx := transmit.NewTransmitter(cfg, transmit.WithLogger(log.Logger))
	wave := tx.Waveform(data)

	if appCfg.WavOutput != "" {
		if err := wavio.Write(appCfg.WavOutput, wave, cfg.SampleRate()); err != nil {
			log.Fatal().Err(err).Msg("error writing waveform")
		}
		log.Info().Str("file", appCfg.WavOutput).Int("samples", len(wave)).Msg("wrote waveform")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := playback.Play(ctx, wave, cfg.SampleRate()); err != nil {
		log.Fatal().Err(err).Msg("playback failed")
	}
	log.Info().Int("samples", len(wave)).Msg("transmission complete")
}

func runRecv(appCfg config.Config, cfg *modem.Config) {
	buf := source.NewCaptureBuffer()
	var dev device.Device
	var err error

	switch appCfg.Device {
	case "wav":
		log.Info().Str("device", "wav").Str("file", appCfg.WavInput).Msg("initializing device...")
		dev, err = wavfile.New(appCfg.WavInput, cfg.SampleRate(), wavBlockSize, wavBlockDelay, log.Logger)
		if err != nil {
			log.Fatal().Str("device", "wav").Err(err).Msg("failed to open recording")
		}
	default:
		log.Info().Str("device", "capture").Msg("initializing device...")
		dev = capture.New(cfg.SampleRate(), log.Logger)
	}

	receiver := acsync.NewReceiver(cfg, buf, acsync.WithLogger(log.Logger))

	var ctx context.Context
	var cancel context.CancelFunc
	if appCfg.ReceiveTimeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), appCfg.ReceiveTimeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	eg.Go(func() error {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
		return dev.Stop()
	})

	eg.Go(func() error {
		if err := dev.Start(ctx, buf); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if appCfg.VizServer.Port != 0 {
		startViz(ctx, eg, appCfg, cfg, buf)
	}

	var decoded []byte
	eg.Go(func() error {
		data, err := receiver.Receive(ctx)
		cancel()
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		decoded = data
		return nil
	})

	if err := eg.Wait(); err != nil {
		log.Fatal().Err(err).Msg("exited program")
	}
	if decoded == nil {
		log.Warn().Msg("no transmission decoded")
		return
	}
	fmt.Printf("%s\n", decoded)
}

func startViz(ctx context.Context, eg *errgroup.Group, appCfg config.Config, cfg *modem.Config, buf tailer) {
	interval := appCfg.VizServer.UpdateInterval
	if interval == 0 {
		interval = time.Millisecond * 500
	}
	server := viz.NewServer(appCfg.VizServer.Port, interval)

	waveform := viz.NewWaveformPlotter("capture", vizWindowSize)
	spectrum := viz.NewSpectrumPlotter("spectrum", vizWindowSize, cfg.SampleRate())
	server.Register(waveform)
	server.Register(spectrum)

	eg.Go(func() error {
		return server.Run(ctx)
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		server.Stop(shutdownCtx)
		return nil
	})
	eg.Go(func() error {
		tick := time.NewTicker(vizFeedPeriod)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-tick.C:
				tail := buf.Tail(vizWindowSize)
				if len(tail) == 0 {
					continue
				}
				waveform.Append(tail)
				spectrum.Append(tail)
			}
		}
	})
	log.Info().Int("port", appCfg.VizServer.Port).Msg("viz server listening")
}

type tailer interface {
	Tail(n int) []float64
}
