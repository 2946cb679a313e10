// Command clayvoice is an interactive voice chat client for the GLM-4-Voice
// model: it captures audio, sends it as one signed turn, and plays the
// synthesized reply.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/clayvoice/clayvoice/internal/config"
	"github.com/clayvoice/clayvoice/internal/health"
	"github.com/clayvoice/clayvoice/internal/observe"
	"github.com/clayvoice/clayvoice/internal/session"
	"github.com/clayvoice/clayvoice/pkg/audio"
	"github.com/clayvoice/clayvoice/pkg/provider/voice"
	"github.com/clayvoice/clayvoice/pkg/provider/voice/glm"
	voicemock "github.com/clayvoice/clayvoice/pkg/provider/voice/mock"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── Environment & CLI flags ───────────────────────────────────────────────
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "clayvoice: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "clayvoice: %v\n", err)
		}
		return 1
	}
	if keys := os.Getenv("CLAYVOICE_API_KEYS"); keys != "" {
		cfg.Settings.APIKeys = keys
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("clayvoice starting",
		"version", version,
		"config", *configPath,
		"provider", cfg.Voice.Provider,
		"listen_addr", cfg.Server.ListenAddr,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Voice backend ─────────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	providerName := cfg.Voice.Provider
	if providerName == "" {
		providerName = "glm"
		cfg.Voice.Provider = providerName
	}
	provider, err := reg.CreateVoice(cfg.Voice)
	if err != nil {
		slog.Error("failed to create voice provider", "name", providerName, "err", err)
		return 1
	}
	slog.Info("voice provider created", "name", providerName, "model", cfg.Voice.Model)

	// ── Audio I/O ─────────────────────────────────────────────────────────────
	device := audio.NewFileDevice(cfg.Audio.InputFile,
		audio.WithFileRate(cfg.Audio.SampleRate),
		audio.WithFileBlockSize(cfg.Audio.BlockSize),
	)

	player, err := buildPlayer(cfg.Audio)
	if err != nil {
		slog.Error("failed to set up playback", "err", err)
		return 1
	}

	// ── Live settings ─────────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(_, _ *config.Config) {
		slog.Info("settings reloaded; next turn uses the new values")
	})
	if err != nil {
		slog.Error("failed to start config watcher", "err", err)
		return 1
	}
	defer watcher.Stop()

	// ── Session controller ────────────────────────────────────────────────────
	ctrl := session.New(device, provider, player, watcher,
		session.WithMetrics(observe.DefaultMetrics()),
		session.WithProviderName(providerName),
	)
	defer ctrl.Close()

	// ── Run ───────────────────────────────────────────────────────────────────
	// A quit from the interactive loop must also stop the listener, not just a
	// signal or a goroutine error.
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	g, gctx := errgroup.WithContext(runCtx)

	if cfg.Server.ListenAddr != "" {
		srv := newObservabilityServer(cfg.Server.ListenAddr, *configPath, provider)
		g.Go(func() error {
			slog.Info("observability listener ready", "addr", cfg.Server.ListenAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("observability listener: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer cancelRun()
		return interactiveLoop(gctx, ctrl)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// registerBuiltinProviders wires the voice backends that ship with clayvoice.
func registerBuiltinProviders(reg *config.Registry) {
	reg.RegisterVoice("glm", func(cfg config.VoiceConfig) (voice.Provider, error) {
		var opts []glm.Option
		if cfg.Endpoint != "" {
			opts = append(opts, glm.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Model != "" {
			opts = append(opts, glm.WithModel(cfg.Model))
		}
		if cfg.RequestTimeout > 0 {
			opts = append(opts, glm.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}))
		}
		opts = append(opts, glm.WithMetrics(observe.DefaultMetrics()))
		return glm.New(opts...), nil
	})

	// Offline backend for trying the client without credentials.
	reg.RegisterVoice("mock", func(config.VoiceConfig) (voice.Provider, error) {
		return &voicemock.Provider{Reply: voice.Reply{Text: "(mock reply)"}}, nil
	})
}

// buildPlayer picks the audio output: an external command when configured,
// otherwise reply files in a directory.
func buildPlayer(cfg config.AudioConfig) (audio.Player, error) {
	if cmd := strings.Fields(cfg.PlayerCommand); len(cmd) > 0 {
		slog.Info("playing replies via command", "command", cfg.PlayerCommand)
		return audio.NewCommandPlayer(cmd[0], cmd[1:]...), nil
	}
	dir := cfg.OutputDir
	if dir == "" {
		dir = "replies"
	}
	slog.Info("writing replies to directory", "dir", dir)
	return audio.NewFilePlayer(dir)
}

// newObservabilityServer serves /metrics, /healthz and /readyz.
func newObservabilityServer(addr, configPath string, provider voice.Provider) *http.Server {
	h := health.New(
		health.Checker{Name: "voice_provider", Check: func(context.Context) error {
			if provider == nil {
				return errors.New("no voice provider constructed")
			}
			return nil
		}},
		health.Checker{Name: "config", Check: func(context.Context) error {
			_, err := os.Stat(configPath)
			return err
		}},
	)

	mux := http.NewServeMux()
	h.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// interactiveLoop drives the session from the terminal: Enter toggles
// recording, "q" quits. It also ticks the volume decay at display cadence.
func interactiveLoop(ctx context.Context, ctrl *session.Controller) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			select {
			case lines <- strings.TrimSpace(sc.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Println("clayvoice — press Enter to start/stop recording, q to quit")

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			ctrl.TickVolume()

		case line, ok := <-lines:
			if !ok || line == "q" || line == "quit" {
				return nil
			}
			if err := toggle(ctx, ctrl); err != nil {
				fmt.Printf("  [%s] %v\n", ctrl.State(), err)
				continue
			}
			printStatus(ctrl)
		}
	}
}

// toggle starts recording when possible and otherwise stops and runs the
// turn.
func toggle(ctx context.Context, ctrl *session.Controller) error {
	if ctrl.State() == session.StateRecording {
		return ctrl.StopRecording(ctx)
	}
	err := ctrl.StartRecording(ctx)
	if errors.Is(err, session.ErrBusy) {
		fmt.Printf("  [%s] still busy, wait for the reply to finish\n", ctrl.State())
		return nil
	}
	return err
}

// printStatus renders the state line and the newest transcript entries.
func printStatus(ctrl *session.Controller) {
	fmt.Printf("  [%s] volume %.2f\n", ctrl.State(), ctrl.Volume())
	msgs := ctrl.Transcript()
	if len(msgs) > 2 {
		msgs = msgs[len(msgs)-2:]
	}
	for _, m := range msgs {
		fmt.Printf("    %s: %s\n", m.Role, m.Content)
	}
}

// newLogger builds the process logger at the configured level.
func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
