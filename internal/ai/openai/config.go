package openai

import "time"

// Config holds the configuration for the OpenAI-compatible client.
type Config struct {
	// BaseURL is the API root, without the /chat/completions suffix.
	// Any OpenAI-compatible endpoint works.
	BaseURL string
	// APIKey authenticates the requests. Empty disables drafting.
	APIKey string
	// Model is the model name sent with each request.
	Model string
	// Timeout bounds a single drafting call.
	Timeout time.Duration
	// MaxConcurrent caps in-flight drafting calls across all requests.
	MaxConcurrent int
}

// DefaultConfig provides sensible defaults; only APIKey must be supplied.
func DefaultConfig() Config {
	return Config{
		BaseURL:       "https://api.openai.com/v1",
		Model:         "gpt-4o-mini",
		Timeout:       30 * time.Second,
		MaxConcurrent: 4,
	}
}
