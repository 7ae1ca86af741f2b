package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/linecontrol/boxline/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	sendTimeout    = 5 * time.Second
)

// Provider posts line notifications to a chat.
type Provider interface {
	SendMessage(ctx context.Context, text string) error
}

// NoOpProvider is used when no bot token is configured.
type NoOpProvider struct{}

func (NoOpProvider) SendMessage(ctx context.Context, text string) error {
	return nil
}

type BotAPI struct {
	log     *zap.Logger
	client  *http.Client
	baseURL string
	token   string
	chatID  string
}

type Option func(*BotAPI)

// WithBaseURL points the provider at a different API host, used by tests.
func WithBaseURL(url string) Option {
	return func(b *BotAPI) { b.baseURL = url }
}

func WithHTTPClient(client *http.Client) Option {
	return func(b *BotAPI) { b.client = client }
}

func NewBotAPI(log *zap.Logger, token, chatID string, opts ...Option) *BotAPI {
	b := &BotAPI{
		log:     log.Named("telegram"),
		client:  &http.Client{Timeout: sendTimeout},
		baseURL: defaultBaseURL,
		token:   token,
		chatID:  chatID,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *BotAPI) SendMessage(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id":    b.chatID,
		"text":       text,
		"parse_mode": "HTML",
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", b.baseURL, b.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram responded %d", resp.StatusCode)
	}
	return nil
}

var Module = fx.Module("telegram",
	fx.Provide(func(log *zap.Logger, cfg config.Config) Provider {
		if cfg.TelegramToken == "" || cfg.TelegramChatID == "" {
			log.Warn("telegram token or chat id missing, notifications disabled")
			return NoOpProvider{}
		}
		return NewBotAPI(log, cfg.TelegramToken, cfg.TelegramChatID)
	}),
)
