package translate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// Config controls the streaming vision-translation client.
type Config struct {
	APIKey         string
	Model          string
	TargetLanguage string
	Providers      []string
	Timeout        time.Duration // whole-request bound, default 60s
	ChunkDelay     time.Duration // per-chunk throttle, default 40ms
	Endpoint       string        // override for tests; default OpenRouter
}

var config *Config

func Init(cfg *Config) {
	config = cfg
}

// EventKind discriminates the messages a streaming session emits.
type EventKind int

const (
	EventChunk EventKind = iota // one text increment, in arrival order
	EventDone                   // terminal success, no payload
	EventError                  // terminal failure, Text carries the message
)

// Event is one message from a streaming translation session. Token identifies
// the session that launched the request so superseded sessions can drop late
// events.
type Event struct {
	Token uint64
	Kind  EventKind
	Text  string
}

// OpenRouter chat-completions request/response structures.
type Message struct {
	Role    string    `json:"role"`
	Content []Content `json:"content"`
}

type Content struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ProviderPreferences struct {
	Order          []string `json:"order,omitempty"`
	AllowFallbacks *bool    `json:"allow_fallbacks,omitempty"`
}

type ChatRequest struct {
	Model       string               `json:"model"`
	Messages    []Message            `json:"messages"`
	Temperature float64              `json:"temperature"`
	Stream      bool                 `json:"stream"`
	Provider    *ProviderPreferences `json:"provider,omitempty"`
}

type StreamChunk struct {
	Choices []StreamChoice `json:"choices"`
	Error   *APIError      `json:"error,omitempty"`
}

type StreamChoice struct {
	Delta struct {
		Content string `json:"content"`
	} `json:"delta"`
}

type APIError struct {
	Message string      `json:"message"`
	Type    string      `json:"type"`
	Code    interface{} `json:"code"` // Can be string or number
}

const (
	openRouterURL  = "https://openrouter.ai/api/v1/chat/completions"
	defaultTimeout = 60 * time.Second
	defaultDelay   = 40 * time.Millisecond
	temperature    = 0.6
)

func promptText(targetLanguage string) string {
	return fmt.Sprintf(
		"Please translate the following image into %s. "+
			"Output in Markdown, preserving the document's structure where helpful. "+
			"Do not use any code blocks around the text. "+
			"Do not add any commentary before or after; include ONLY the translation. "+
			"The user providing the image is your friend, so a friendly tone is OK if appropriate.",
		targetLanguage)
}

// getProviderPreferences returns provider preferences based on config
func getProviderPreferences() *ProviderPreferences {
	if config == nil || len(config.Providers) == 0 {
		return nil
	}
	allowFallbacks := false
	return &ProviderPreferences{
		Order:          config.Providers,
		AllowFallbacks: &allowFallbacks,
	}
}

// Stream sends a PNG image to the vision model and forwards every streamed
// text increment to events in arrival order, tagged with token. Exactly one
// terminal event follows the increments: EventDone on clean completion,
// EventError otherwise. Already-delivered increments are never retracted; a
// failure mid-stream leaves them in place with the error appended after.
// Stream never panics across this boundary and never blocks user input; it is
// meant to run on a worker goroutine.
func Stream(ctx context.Context, token uint64, pngData []byte, events chan<- Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Translate: panic recovered: %v", r)
			events <- Event{Token: token, Kind: EventError, Text: fmt.Sprintf("Unexpected error: %v", r)}
		}
	}()

	if err := stream(ctx, token, pngData, events); err != nil {
		events <- Event{Token: token, Kind: EventError, Text: err.Error()}
		return
	}
	events <- Event{Token: token, Kind: EventDone}
}

func stream(ctx context.Context, token uint64, pngData []byte, events chan<- Event) error {
	if config == nil {
		return fmt.Errorf("translation client not initialized")
	}
	if config.APIKey == "" {
		return fmt.Errorf("API key is required")
	}
	if config.Model == "" {
		return fmt.Errorf("model is required")
	}

	base64Image := base64.StdEncoding.EncodeToString(pngData)
	imageURL := fmt.Sprintf("data:image/png;base64,%s", base64Image)

	request := ChatRequest{
		Model: config.Model,
		Messages: []Message{
			{
				Role: "user",
				Content: []Content{
					{Type: "text", Text: promptText(config.TargetLanguage)},
					{Type: "image_url", ImageURL: &ImageURL{URL: imageURL}},
				},
			},
		},
		Temperature: temperature,
		Stream:      true,
		Provider:    getProviderPreferences(),
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %v", err)
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = openRouterURL
	}

	req, err := http.NewRequestWithContext(reqCtx, "POST", endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", config.APIKey))
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("X-Title", "Screen Translate Tool")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiResp StreamChunk
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiResp); decodeErr == nil && apiResp.Error != nil {
			return fmt.Errorf("API error: %s (type: %s, code: %v)",
				apiResp.Error.Message, apiResp.Error.Type, apiResp.Error.Code)
		}
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	delay := config.ChunkDelay
	if delay < 0 {
		delay = 0
	} else if delay == 0 {
		delay = defaultDelay
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ":") {
			continue // SSE keep-alive
		}
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "[DONE]" {
			return nil
		}

		var chunk StreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			log.Printf("Translate: skipping malformed stream line: %v", err)
			continue
		}
		if chunk.Error != nil {
			return fmt.Errorf("API error: %s (type: %s, code: %v)",
				chunk.Error.Message, chunk.Error.Type, chunk.Error.Code)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}

		select {
		case events <- Event{Token: token, Kind: EventChunk, Text: delta}:
		case <-reqCtx.Done():
			return reqCtx.Err()
		}

		// Gentle throttle so the overlay keeps up with bursty streams.
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-reqCtx.Done():
				return reqCtx.Err()
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream read failed: %v", err)
	}

	// Server closed the stream without [DONE]; treat a clean EOF as success.
	return nil
}
