package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"screen-translate-llm/clipboard"
	"screen-translate-llm/config"
	"screen-translate-llm/eventloop"
	"screen-translate-llm/hotkey"
	"screen-translate-llm/logutil"
	"screen-translate-llm/overlay"
	"screen-translate-llm/translate"
	"screen-translate-llm/tray"
)

// enableDPIAwareness sets per-monitor DPI awareness before any window is
// created, so overlay coordinates match physical pixels on scaled displays.
func enableDPIAwareness() {
	if runtime.GOOS != "windows" {
		return
	}
	shcore := syscall.NewLazyDLL("Shcore.dll")
	setProcessDpiAwareness := shcore.NewProc("SetProcessDpiAwareness")
	const processPerMonitorDPIAware = 2
	if err := setProcessDpiAwareness.Find(); err == nil {
		_, _, _ = setProcessDpiAwareness.Call(uintptr(processPerMonitorDPIAware))
		return
	}
	user32 := syscall.NewLazyDLL("user32.dll")
	setProcessDPIAware := user32.NewProc("SetProcessDPIAware")
	if err := setProcessDPIAware.Find(); err == nil {
		_, _, _ = setProcessDPIAware.Call()
	}
}

func main() {
	enableDPIAwareness()

	// The event loop owns all session state; pin it to one OS thread so it
	// never shares a message queue with the overlay's window thread.
	runtime.LockOSThread()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logutil.Setup(cfg.EnableFileLogging)

	if cfg.APIKey == "" {
		log.Fatalf("OPENROUTER_API_KEY is required. Please set it in your .env file.")
	}
	if cfg.Model == "" {
		log.Fatalf("MODEL is required. Please set it in your .env file.")
	}

	translate.Init(&translate.Config{
		APIKey:         cfg.APIKey,
		Model:          cfg.Model,
		TargetLanguage: cfg.TargetLanguage,
		Providers:      cfg.Providers,
		Timeout:        time.Duration(cfg.TranslateTimeout) * time.Second,
		ChunkDelay:     time.Duration(cfg.StreamDelayMillis) * time.Millisecond,
	})

	if err := clipboard.Init(); err != nil {
		if cfg.CopyResult {
			log.Printf("Clipboard unavailable, results stay on screen only: %v", err)
			cfg.CopyResult = false
		}
	}

	log.Printf("Screen Translate initialized")
	log.Printf("Using model: %s", cfg.Model)
	log.Printf("Target language: %s", cfg.TargetLanguage)
	log.Printf("Hotkey: %s", cfg.Hotkey)
	log.Printf("API key: %s", logutil.RedactKey(cfg.APIKey))

	loop := eventloop.New(cfg, overlay.New())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go tray.Run(loop.Trigger, cancel)
	defer tray.Quit()

	combo := cfg.Hotkey
	if err := hotkey.Parse(combo); err != nil {
		log.Printf("Configured hotkey %q is invalid (%v), using %s", combo, err, config.FallbackHotkey)
		combo = config.FallbackHotkey
	}
	loop.StartHotkey(combo)

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	if err := loop.Run(ctx); err != nil && err != context.Canceled {
		log.Printf("event loop stopped: %v", err)
	}
}
