/**
 * @description
 * Chat transports for alert dispatch. Two variants share one interface: the
 * Bot API transport (official bot token) and a user-session gateway speaking
 * the same sendMessage shape over plain HTTP. Both honor server-supplied
 * rate-limit delays.
 *
 * @dependencies
 * - github.com/go-telegram-bot-api/telegram-bot-api/v5
 * - net/http
 */

package alerter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/marketpulse-project/backend/internal/config"
	"github.com/marketpulse-project/backend/internal/logger"
)

const (
	dispatchTimeout  = 10 * time.Second
	maxRateLimitWait = 60 * time.Second
)

// Dispatcher sends one plain-text alert message.
type Dispatcher interface {
	Name() string
	Send(ctx context.Context, text string) error
}

// NewDispatcher builds the configured transport variant, or nil when the
// Telegram config is incomplete (alerts are then logged only).
func NewDispatcher(cfg *config.Config) (Dispatcher, error) {
	if !cfg.Telegram.Configured() {
		return nil, nil
	}

	switch cfg.Telegram.Mode {
	case "user":
		return NewUserDispatcher(cfg.Telegram.UserAPIURL, cfg.Telegram.ChatID), nil
	default:
		return NewBotDispatcher(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	}
}

// BotDispatcher sends through the official Bot API.
type BotDispatcher struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewBotDispatcher(botToken, chatID string) (*BotDispatcher, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	return &BotDispatcher{bot: bot, chatID: chatIDInt}, nil
}

func (d *BotDispatcher) Name() string {
	return "telegram-bot"
}

// Send delivers the message, waiting out one server-supplied retry delay.
func (d *BotDispatcher) Send(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(d.chatID, text)

	_, err := d.bot.Send(msg)
	if err == nil {
		return nil
	}

	if tgErr, ok := err.(*tgbotapi.Error); ok && tgErr.RetryAfter > 0 {
		delay := time.Duration(tgErr.RetryAfter) * time.Second
		if delay > maxRateLimitWait {
			delay = maxRateLimitWait
		}
		logger.Info("telegram: rate limited, retrying in %s", delay)
		if err := sleepCtx(ctx, delay); err != nil {
			return err
		}
		_, err = d.bot.Send(msg)
		if err == nil {
			return nil
		}
	}

	return fmt.Errorf("telegram send failed: %w", err)
}

// UserDispatcher posts to a user-session gateway that mirrors the Bot API
// sendMessage contract.
type UserDispatcher struct {
	baseURL    string
	chatID     string
	httpClient *http.Client
}

func NewUserDispatcher(baseURL, chatID string) *UserDispatcher {
	return &UserDispatcher{
		baseURL: baseURL,
		chatID:  chatID,
		httpClient: &http.Client{
			Timeout: dispatchTimeout,
		},
	}
}

func (d *UserDispatcher) Name() string {
	return "telegram-user"
}

func (d *UserDispatcher) Send(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id": d.chatID,
		"text":    text,
	})
	if err != nil {
		return err
	}

	for attempt := 0; attempt < 2; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/sendMessage", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := d.httpClient.Do(req)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			delay := retryAfterDelay(resp.Header.Get("Retry-After"))
			resp.Body.Close()
			logger.Info("telegram-user: rate limited, retrying in %s", delay)
			if err := sleepCtx(ctx, delay); err != nil {
				return err
			}
			continue
		}

		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("telegram-user send failed: status %d", resp.StatusCode)
		}
		return nil
	}

	return fmt.Errorf("telegram-user send failed: rate limited after retries")
}

func retryAfterDelay(header string) time.Duration {
	delay := 2 * time.Second
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		delay = time.Duration(secs) * time.Second
	}
	if delay > maxRateLimitWait {
		delay = maxRateLimitWait
	}
	return delay
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
