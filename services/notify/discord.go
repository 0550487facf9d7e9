package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// discordMaxMessageLen keeps a safety margin under Discord's 2000-character
// content limit.
const discordMaxMessageLen = 1900

// sendDiscord posts the summary to the configured webhook. Any non-2xx
// status or transport failure is reported without retry.
func (s *Service) sendDiscord(ctx context.Context, summary string) ChannelResult {
	if s.cfg.DiscordWebhookURL == "" {
		return ChannelResult{}
	}

	if len(summary) > discordMaxMessageLen {
		summary = summary[:discordMaxMessageLen]
	}

	body, err := json.Marshal(map[string]string{"content": summary})
	if err != nil {
		return ChannelResult{Attempted: true, Err: fmt.Errorf("discord payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.DiscordWebhookURL, bytes.NewReader(body))
	if err != nil {
		return ChannelResult{Attempted: true, Err: fmt.Errorf("discord request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return ChannelResult{Attempted: true, Err: fmt.Errorf("discord webhook: %w", err)}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ChannelResult{Attempted: true, Err: fmt.Errorf("discord webhook: unexpected status %d", resp.StatusCode)}
	}

	return ChannelResult{Attempted: true, OK: true}
}
