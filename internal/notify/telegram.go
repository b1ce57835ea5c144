package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"
)

const telegramAPI = "https://api.telegram.org"

// ChatSender delivers text and photos to a chat destination.
type ChatSender interface {
	SendText(ctx context.Context, text string) error
	SendPhoto(ctx context.Context, image []byte, caption string) error
}

// Telegram implements ChatSender against the Telegram bot API.
type Telegram struct {
	baseURL  string
	botToken string
	chatID   string
	client   *http.Client
}

// NewTelegram creates a Telegram client for one bot and chat.
func NewTelegram(botToken, chatID string) *Telegram {
	return NewTelegramWithURL(telegramAPI, botToken, chatID)
}

// NewTelegramWithURL creates a Telegram client against a custom API base
// URL, for testing.
func NewTelegramWithURL(baseURL, botToken, chatID string) *Telegram {
	return &Telegram{
		baseURL:  baseURL,
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// SendText posts an HTML-formatted message.
func (t *Telegram) SendText(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "HTML",
	})
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}
	return nil
}

// SendPhoto uploads a captioned photo via multipart form.
func (t *Telegram) SendPhoto(ctx context.Context, image []byte, caption string) error {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	if err := form.WriteField("chat_id", t.chatID); err != nil {
		return fmt.Errorf("writing form field: %w", err)
	}
	if err := form.WriteField("caption", caption); err != nil {
		return fmt.Errorf("writing form field: %w", err)
	}
	part, err := form.CreateFormFile("photo", "photo.png")
	if err != nil {
		return fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return fmt.Errorf("writing photo: %w", err)
	}
	if err := form.Close(); err != nil {
		return fmt.Errorf("closing form: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendPhoto", t.baseURL, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending photo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}
	return nil
}

// Ping sends a short connectivity-check message.
func (t *Telegram) Ping(ctx context.Context) error {
	return t.SendText(ctx, "PhotoClerk is connected and ready to send receipt details.")
}
