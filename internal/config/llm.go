package config

// LLMConfig configures the Gemini text and image models.
type LLMConfig struct {
	Provider   string `yaml:"provider"` // only gemini is supported
	APIKey     string `yaml:"api_key"`
	TextModel  string `yaml:"text_model"`
	ImageModel string `yaml:"image_model"`
	Timeout    string `yaml:"timeout"`

	// Overload handling: attempts after the first call and the base delay.
	// Wait before retry n is RetryDelay * (n+1).
	MaxRetries int    `yaml:"max_retries"`
	RetryDelay string `yaml:"retry_delay"`

	// Routing selects the intent router: heuristic or llm.
	Routing string `yaml:"routing"`
}
