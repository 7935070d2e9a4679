package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIKeyPath = "/run/secrets/api_keys/openrouter"
	APIKeyPathEnvVar  = "OPENROUTER_API_KEY_FILE"

	DefaultTargetLanguage = "Brazilian Portuguese"
	DefaultHotkey         = "Ctrl+Alt+T"
	FallbackHotkey        = "Ctrl+Alt+F9"
)

type Config struct {
	APIKey            string
	APIKeyPath        string
	Model             string
	TargetLanguage    string
	Hotkey            string
	Providers         []string
	TranslateTimeout  int  // seconds for the whole streaming request
	StreamDelayMillis int  // per-chunk throttle so the overlay keeps up
	CopyResult        bool // copy the finished translation to the clipboard
	EnableFileLogging bool
}

// Load reads configuration from a .env file next to the executable (or the file
// named by SCREEN_TRANSLATE_LLM) and from process environment variables.
func Load() (*Config, error) {
	envPath := resolveEnvPath()
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	var providers []string
	if providersStr := os.Getenv("PROVIDERS"); providersStr != "" {
		for _, provider := range strings.Split(providersStr, ",") {
			if trimmed := strings.TrimSpace(provider); trimmed != "" {
				providers = append(providers, trimmed)
			}
		}
	}

	apiKeyPath := resolveAPIKeyPath()

	cfg := &Config{
		APIKey:            resolveAPIKey(apiKeyPath),
		APIKeyPath:        apiKeyPath,
		Model:             os.Getenv("MODEL"),
		TargetLanguage:    getEnvWithDefault("TARGET_LANGUAGE", DefaultTargetLanguage),
		Hotkey:            getEnvWithDefault("HOTKEY", DefaultHotkey),
		Providers:         providers,
		TranslateTimeout:  getEnvInt("TRANSLATE_TIMEOUT_SEC", 60),
		StreamDelayMillis: getEnvInt("STREAM_DELAY_MS", 40),
		CopyResult:        strings.ToLower(getEnvWithDefault("COPY_RESULT", "true")) == "true",
		EnableFileLogging: strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
	}

	return cfg, nil
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}

	exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
	if _, err := os.Stat(exeEnv); err == nil {
		return exeEnv
	}

	if alt := os.Getenv("SCREEN_TRANSLATE_LLM"); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func resolveAPIKeyPath() string {
	if envPath := strings.TrimSpace(os.Getenv(APIKeyPathEnvVar)); envPath != "" {
		return envPath
	}
	return DefaultAPIKeyPath
}

func resolveAPIKey(keyPath string) string {
	if data, err := os.ReadFile(keyPath); err == nil {
		if fileKey := strings.TrimSpace(string(data)); fileKey != "" {
			return fileKey
		}
	}

	return os.Getenv("OPENROUTER_API_KEY")
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
