// Murmur is a push-to-talk dictation tool. A global hotkey toggles
// microphone recording; on stop the audio is transcribed through the
// Whisper API and the text is pasted into the focused application.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/murmurapp/murmur/audio"
	"github.com/murmurapp/murmur/config"
	"github.com/murmurapp/murmur/history"
	"github.com/murmurapp/murmur/hotkey"
	"github.com/murmurapp/murmur/internal/app"
	"github.com/murmurapp/murmur/paste"
	"github.com/murmurapp/murmur/recording"
	"github.com/murmurapp/murmur/transcribe"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var (
		setupKey    = flag.String("api-key", "", "save the OpenAI API key and exit")
		showHistory = flag.Int("history", 0, "print the N most recent transcripts and exit")
		verbose     = flag.Bool("verbose", false, "enable debug logging")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("murmur %s (%s, %s)\n", version, commit, date)
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(*setupKey, *showHistory); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(setupKey string, showHistory int) error {
	if setupKey != "" {
		if err := config.SaveAPIKey(setupKey); err != nil {
			return fmt.Errorf("save API key: %w", err)
		}
		path, _ := config.Path()
		fmt.Println("API key saved to", path)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dataDir, err := config.DataDir()
	if err != nil {
		return fmt.Errorf("locate data dir: %w", err)
	}
	store, err := history.Open(filepath.Join(dataDir, "history"))
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()
	if cfg.HistoryTTLDays > 0 {
		store.SetTTL(time.Duration(cfg.HistoryTTLDays) * 24 * time.Hour)
	}

	if showHistory > 0 {
		return printHistory(store, showHistory)
	}

	if cfg.APIKey == "" {
		path, _ := config.Path()
		fmt.Fprintf(os.Stderr, "No API key configured.\n")
		fmt.Fprintf(os.Stderr, "Run: murmur -api-key sk-...\n")
		fmt.Fprintf(os.Stderr, "or set OPENAI_API_KEY, or edit %s\n", path)
		return fmt.Errorf("missing API key")
	}

	if err := audio.Initialize(); err != nil {
		return fmt.Errorf("initialize audio: %w", err)
	}
	defer audio.Terminate()

	recorder := audio.NewRecorder()
	client := transcribe.NewClient(transcribe.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	})

	a := app.New(app.Options{
		Negotiate:  audio.Negotiate,
		Capture:    recorder,
		Transcribe: client,
		Paste:      paste.Paste,
		OnResult: func(text string, seconds float64) {
			if _, err := store.Add(text, seconds); err != nil {
				slog.Warn("save transcript", "error", err)
			}
		},
	})

	listener := hotkey.NewListener(nil)
	listener.Start()
	defer listener.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go logStateChanges(ctx, a)

	slog.Info("ready", "version", version, "hotkey", hotkey.DefaultChord)
	a.Run(ctx, listener.Toggles())
	slog.Info("shutting down")
	return nil
}

// logStateChanges polls the lifecycle and reports transitions, standing
// in for a waveform overlay when running headless.
func logStateChanges(ctx context.Context, a *app.App) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	last := recording.Idle
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		snap := a.Snapshot()
		if snap.State == last {
			continue
		}
		last = snap.State

		switch snap.State {
		case recording.Recording:
			slog.Info("recording, press the hotkey again to stop")
		case recording.Transcribing:
			slog.Info("transcribing")
		case recording.Result:
			slog.Info("transcribed", "text", snap.ResultText)
		case recording.Error:
			slog.Error("recording failed", "reason", snap.ErrReason)
		}
	}
}

func printHistory(store *history.Store, n int) error {
	entries, err := store.Recent(n)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no transcripts yet")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s  (%.1fs)\n  %s\n", e.CreatedAt.Local().Format(time.RFC3339), e.AudioSeconds, e.Text)
	}
	return nil
}
