package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"OPENROUTER_API_KEY", "MODEL", "TARGET_LANGUAGE", "HOTKEY",
		"TRANSLATE_TIMEOUT_SEC", "STREAM_DELAY_MS", "COPY_RESULT", "ENABLE_FILE_LOGGING",
	} {
		os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.TargetLanguage != DefaultTargetLanguage {
		t.Errorf("Expected default target language %q, got %q", DefaultTargetLanguage, cfg.TargetLanguage)
	}
	if cfg.Hotkey != DefaultHotkey {
		t.Errorf("Expected default hotkey %q, got %q", DefaultHotkey, cfg.Hotkey)
	}
	if cfg.TranslateTimeout != 60 {
		t.Errorf("Expected 60s translate timeout, got %d", cfg.TranslateTimeout)
	}
	if cfg.StreamDelayMillis != 40 {
		t.Errorf("Expected 40ms stream delay, got %d", cfg.StreamDelayMillis)
	}
	if !cfg.CopyResult {
		t.Error("Expected CopyResult to default to true")
	}
	if cfg.EnableFileLogging {
		t.Error("Expected file logging to default to false")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "test_key")
	t.Setenv("MODEL", "test_model")
	t.Setenv("TARGET_LANGUAGE", "German")
	t.Setenv("HOTKEY", "Ctrl+Alt+G")
	t.Setenv("TRANSLATE_TIMEOUT_SEC", "30")
	t.Setenv("STREAM_DELAY_MS", "10")
	t.Setenv("COPY_RESULT", "false")
	t.Setenv(APIKeyPathEnvVar, filepath.Join(t.TempDir(), "missing"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.APIKey != "test_key" {
		t.Errorf("Expected API key 'test_key', got %q", cfg.APIKey)
	}
	if cfg.Model != "test_model" {
		t.Errorf("Expected model 'test_model', got %q", cfg.Model)
	}
	if cfg.TargetLanguage != "German" {
		t.Errorf("Expected target language 'German', got %q", cfg.TargetLanguage)
	}
	if cfg.TranslateTimeout != 30 {
		t.Errorf("Expected 30s timeout, got %d", cfg.TranslateTimeout)
	}
	if cfg.StreamDelayMillis != 10 {
		t.Errorf("Expected 10ms delay, got %d", cfg.StreamDelayMillis)
	}
	if cfg.CopyResult {
		t.Error("Expected CopyResult=false")
	}
}

func TestAPIKeyFileTakesPriority(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(keyFile, []byte("  file_key \n"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	t.Setenv(APIKeyPathEnvVar, keyFile)
	t.Setenv("OPENROUTER_API_KEY", "env_key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIKey != "file_key" {
		t.Errorf("Expected key from file, got %q", cfg.APIKey)
	}
}

func TestProvidersParsing(t *testing.T) {
	t.Setenv("PROVIDERS", "openai, anthropic , ,google")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := []string{"openai", "anthropic", "google"}
	if len(cfg.Providers) != len(want) {
		t.Fatalf("Expected %d providers, got %d: %v", len(want), len(cfg.Providers), cfg.Providers)
	}
	for i := range want {
		if cfg.Providers[i] != want[i] {
			t.Errorf("Provider[%d]: expected %q, got %q", i, want[i], cfg.Providers[i])
		}
	}
}

func TestInvalidIntFallsBack(t *testing.T) {
	t.Setenv("TRANSLATE_TIMEOUT_SEC", "not-a-number")
	t.Setenv("STREAM_DELAY_MS", "-5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.TranslateTimeout != 60 {
		t.Errorf("Expected fallback timeout 60, got %d", cfg.TranslateTimeout)
	}
	if cfg.StreamDelayMillis != 40 {
		t.Errorf("Expected fallback delay 40, got %d", cfg.StreamDelayMillis)
	}
}
