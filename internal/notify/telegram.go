// Package notify delivers availability alerts.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/seatwatch/internal/domain"
	"github.com/MrSnakeDoc/seatwatch/internal/logger"
	"github.com/MrSnakeDoc/seatwatch/internal/utils"
)

// DefaultTelegramAPI is the Bot API base URL.
const DefaultTelegramAPI = "https://api.telegram.org"

// TelegramOptions configures the Telegram notifier.
type TelegramOptions struct {
	BotToken   string
	ChatID     string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Telegram sends alerts through the Bot API sendMessage method.
type Telegram struct {
	token   string
	chatID  string
	baseURL string
	http    *http.Client
	logger  logger.Logger
}

func NewTelegram(opts TelegramOptions, log logger.Logger) (*Telegram, error) {
	if opts.BotToken == "" || opts.ChatID == "" {
		return nil, fmt.Errorf("%w: telegram bot token and chat id are required", domain.ErrConfiguration)
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	base := opts.BaseURL
	if base == "" {
		base = DefaultTelegramAPI
	}

	return &Telegram{
		token:   opts.BotToken,
		chatID:  opts.ChatID,
		baseURL: base,
		http:    hc,
		logger:  log,
	}, nil
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// Notify sends one message for the alert. Errors match domain.ErrNotify.
func (t *Telegram) Notify(ctx context.Context, alert domain.Alert) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:                t.chatID,
		Text:                  FormatAlert(alert),
		ParseMode:             "MarkdownV2",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("%w: encode message: %v", domain.ErrNotify, err)
	}

	url := t.baseURL + "/bot" + t.token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", domain.ErrNotify, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		// The URL carries the bot token; never surface it.
		return fmt.Errorf("%w: telegram request failed", domain.ErrNotify)
	}
	defer utils.DrainClose(resp.Body)

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var result apiResponse
	_ = json.Unmarshal(raw, &result)

	if resp.StatusCode != http.StatusOK || !result.OK {
		return fmt.Errorf("%w: telegram answered %d: %s", domain.ErrNotify, resp.StatusCode, result.Description)
	}

	t.logger.Info("telegram notification sent",
		logger.Stringer("date", alert.Date),
		logger.Int("coaches", len(alert.Coaches)))
	return nil
}
