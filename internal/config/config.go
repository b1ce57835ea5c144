package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	telegramTokenEnv  = "PHOTOCLERK_TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "PHOTOCLERK_TELEGRAM_CHAT_ID"
	geminiKeyEnv      = "PHOTOCLERK_GEMINI_API_KEY"
	photosTokenEnv    = "PHOTOCLERK_PHOTOS_ACCESS_TOKEN"
	emailPasswordEnv  = "PHOTOCLERK_EMAIL_PASSWORD"
)

// Config holds the application settings loaded from the YAML config file.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Email    EmailConfig    `yaml:"email"`
	Person   PersonConfig   `yaml:"person"`
	Photos   PhotosConfig   `yaml:"photos"`
	Vision   VisionConfig   `yaml:"vision"`
	Send     SendConfig     `yaml:"send"`
	Batch    BatchConfig    `yaml:"batch"`
}

// TelegramConfig wires the chat destination.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// EmailConfig wires the email destination.
type EmailConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	Recipient string `yaml:"recipient"`
}

// PersonConfig names the tracked family member and their album.
type PersonConfig struct {
	Name  string `yaml:"name"`
	Album string `yaml:"album"`
}

// PhotosConfig selects the photo-source backend.
type PhotosConfig struct {
	// Backend is "local" or "remote".
	Backend     string `yaml:"backend"`
	LocalRoot   string `yaml:"localRoot"`
	APIURL      string `yaml:"apiUrl"`
	AccessToken string `yaml:"accessToken"`
}

// VisionConfig selects the OCR / face-count provider.
type VisionConfig struct {
	// Provider is "gemini" or "ollama".
	Provider    string `yaml:"provider"`
	GeminiKey   string `yaml:"geminiKey"`
	GeminiModel string `yaml:"geminiModel"`
	OllamaURL   string `yaml:"ollamaUrl"`
	OllamaModel string `yaml:"ollamaModel"`
}

// SendConfig tunes batch photo sends.
type SendConfig struct {
	// MaxPhotos caps how many photos one batch send attempts; 0 means
	// no cap.
	MaxPhotos int `yaml:"maxPhotos"`
}

// BatchConfig tunes intake batches.
type BatchConfig struct {
	Workers int `yaml:"workers"`
}

func defaultConfig() Config {
	var cfg Config
	cfg.Email.Port = 587
	cfg.Photos.Backend = "local"
	cfg.Vision.Provider = "gemini"
	cfg.Batch.Workers = 4
	return cfg
}

// Load reads the YAML config file and applies environment overrides for
// secrets. An empty path yields defaults plus overrides.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv(geminiKeyEnv); v != "" {
		c.Vision.GeminiKey = v
	}
	if v := os.Getenv(photosTokenEnv); v != "" {
		c.Photos.AccessToken = v
	}
	if v := os.Getenv(emailPasswordEnv); v != "" {
		c.Email.Password = v
	}
}

// Validate checks that the settings the delivery paths depend on are
// present. Telegram is always required; the remote photo backend also
// needs its access token.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" || c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram botToken and chatId are required")
	}
	switch c.Photos.Backend {
	case "local":
		if c.Photos.LocalRoot == "" {
			return fmt.Errorf("photos.localRoot is required for the local backend")
		}
	case "remote":
		if c.Photos.AccessToken == "" {
			return fmt.Errorf("photos.accessToken is required for the remote backend")
		}
	default:
		return fmt.Errorf("unknown photos backend %q (use local or remote)", c.Photos.Backend)
	}
	return nil
}
