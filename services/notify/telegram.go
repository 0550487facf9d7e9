package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// sendTelegram posts the summary through the Bot API. The channel is
// considered unconfigured unless both the bot token and chat id are set.
func (s *Service) sendTelegram(ctx context.Context, summary string) ChannelResult {
	if s.cfg.TelegramBotToken == "" || s.cfg.TelegramChatID == "" {
		return ChannelResult{}
	}

	body, err := json.Marshal(map[string]string{
		"chat_id": s.cfg.TelegramChatID,
		"text":    summary,
	})
	if err != nil {
		return ChannelResult{Attempted: true, Err: fmt.Errorf("telegram payload: %w", err)}
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.telegramBaseURL, s.cfg.TelegramBotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return ChannelResult{Attempted: true, Err: fmt.Errorf("telegram request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return ChannelResult{Attempted: true, Err: fmt.Errorf("telegram sendMessage: %w", err)}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ChannelResult{Attempted: true, Err: fmt.Errorf("telegram sendMessage: unexpected status %d", resp.StatusCode)}
	}

	return ChannelResult{Attempted: true, OK: true}
}
