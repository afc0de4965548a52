package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/petems/audiotexter/internal/app"
	"github.com/petems/audiotexter/internal/audio"
	"github.com/petems/audiotexter/internal/config"
	"github.com/petems/audiotexter/internal/console"
	"github.com/petems/audiotexter/internal/logging"
	"github.com/petems/audiotexter/internal/tray"
	"github.com/petems/audiotexter/internal/whisper"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

var (
	cfgFile    string
	driverName string
	logLevel   string
	timestamps bool
)

const shutdownTimeout = 15 * time.Second

var rootCmd = &cobra.Command{
	Use:   "audiotexter",
	Short: "Live transcription of system audio",
	Long: `AudioTexter captures what your computer is playing through a loopback
device (Stereo Mix, BlackHole, a PulseAudio monitor...) and transcribes it live.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTray()
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the tray application",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTray()
	},
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Transcribe system audio to stdout until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runListen(cmd.OutOrStdout())
	},
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List capture devices and show which one would be used",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listDevices(cmd.OutOrStdout())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "AudioTexter %s (%s)\n", Version, Commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is the platform config dir)")
	rootCmd.PersistentFlags().StringVar(&driverName, "driver", "", "audio driver: portaudio, pulse or miniaudio")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	listenCmd.Flags().BoolVar(&timestamps, "timestamps", false, "prefix each line with the time")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies command-line overrides. A .env
// file in the working directory, if present, supplies API keys.
func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if driverName != "" {
		cfg.Audio.Driver = driverName
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

// runtimeDeps holds everything buildApp opened that main must release.
type runtimeDeps struct {
	app         *app.App
	transcriber whisper.Transcriber
	transcript  *logging.TranscriptWriter
}

func (d *runtimeDeps) Close(log zerolog.Logger) {
	if err := d.transcriber.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close transcriber")
	}
	if d.transcript != nil {
		d.transcript.Close()
	}
}

func buildApp(cfg *config.Config, log zerolog.Logger, presenter app.Presenter) (*runtimeDeps, error) {
	driver, err := audio.NewDriver(cfg.Audio.Driver)
	if err != nil {
		return nil, err
	}

	// Initialize whisper
	transcriber, err := whisper.New(cfg.Whisper, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize whisper: %w", err)
	}

	deps := &runtimeDeps{transcriber: transcriber}
	appCfg := app.Config{
		Engine:      audio.NewEngine(driver, log),
		Transcriber: transcriber,
		Config:      cfg,
		Logger:      log,
		Presenter:   presenter,
	}

	if cfg.TranscriptLog {
		tw, err := logging.OpenTranscript(logging.TranscriptPath())
		if err != nil {
			log.Warn().Err(err).Msg("Transcript log disabled")
		} else {
			deps.transcript = tw
			appCfg.Transcript = tw
		}
	}

	deps.app = app.New(appCfg)
	log.Info().
		Str("driver", driver.Name()).
		Str("transcriber", transcriber.Name()).
		Msg("AudioTexter initialized")
	return deps, nil
}

func runTray() error {
	cfg, err := loadConfig()
	if err != nil {
		logging.New().Error().Err(err).Msg("Failed to load config")
		return err
	}

	// Initialize logger with configured level
	log := logging.NewWithLevel(cfg.LogLevel)

	// Create tray UI first (we'll pass it to app)
	trayUI := tray.New(nil, cfg, Version, Commit, log)

	deps, err := buildApp(cfg, log, trayUI)
	if err != nil {
		log.Error().Err(err).Msg("Startup failed")
		return err
	}
	defer deps.Close(log)

	// Set app reference in tray
	trayUI.SetApp(deps.app)

	log.Info().Msg("AudioTexter starting...")

	// Setup shutdown signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := deps.app.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Shutdown error")
		}
		deps.Close(log)
		os.Exit(0)
	}()

	// Start tray UI - MUST run on main thread
	return trayUI.Run(context.Background())
}

func runListen(out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.NewWithLevel(cfg.LogLevel)

	deps, err := buildApp(cfg, log, console.New(out, timestamps))
	if err != nil {
		log.Error().Err(err).Msg("Startup failed")
		return err
	}
	defer deps.Close(log)

	if _, ok := deps.app.DetectDevice(); !ok {
		return audio.ErrNoDeviceFound
	}
	if err := deps.app.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Returns early if the pipeline ends on its own (device lost).
	select {
	case <-ctx.Done():
	case <-waitClosed(deps.app.Utterances()):
	}

	log.Info().Msg("Stopping, flushing remaining audio...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return deps.app.Shutdown(shutdownCtx)
}

// waitClosed drains ch and signals once it is closed.
func waitClosed[T any](ch <-chan T) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range ch {
		}
	}()
	return done
}

func listDevices(out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	driver, err := audio.NewDriver(cfg.Audio.Driver)
	if err != nil {
		return err
	}

	devices, err := audio.ListDevices(driver)
	if err != nil {
		return err
	}

	chosen, ok := audio.Locate(devices, cfg.Audio.ExtraKeywords...)
	writeDevices(out, driver.Name(), devices, chosen, ok)
	return nil
}
