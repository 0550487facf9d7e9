package notify

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ChannelResult is the outcome of one channel dispatch. An unconfigured
// channel yields the zero value (not attempted, no error).
type ChannelResult struct {
	Attempted bool
	OK        bool
	Err       error
}

// Result collects the independent per-channel outcomes of one dispatch.
// It is side information only and never affects the ingestion response.
type Result struct {
	Discord  ChannelResult
	Telegram ChannelResult
}

// Config holds the outbound channel settings.
type Config struct {
	DiscordWebhookURL string
	TelegramBotToken  string
	TelegramChatID    string
	Timeout           time.Duration
}

// Locator resolves a coarse location label for an IP address. May be nil.
type Locator interface {
	Lookup(ip string) string
}

// Service dispatches best-effort, at-most-once notifications about
// persisted login records to Discord and Telegram.
type Service struct {
	cfg     Config
	client  *http.Client
	locator Locator
	logger  *zap.Logger

	// telegramBaseURL is overridden in tests.
	telegramBaseURL string
}

// NewService creates a notification service. Both channels share one HTTP
// client with separate connect and response-header timeouts.
func NewService(cfg Config, locator Locator, logger *zap.Logger) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	client := &http.Client{
		Transport: &http.Transport{
			DialContext:           (&net.Dialer{Timeout: cfg.Timeout}).DialContext,
			TLSHandshakeTimeout:   cfg.Timeout,
			ResponseHeaderTimeout: cfg.Timeout,
		},
	}
	return &Service{
		cfg:             cfg,
		client:          client,
		locator:         locator,
		logger:          logger,
		telegramBaseURL: "https://api.telegram.org",
	}
}

// Dispatch sends the record summary to both channels concurrently and
// collects the outcomes. Both channels are always attempted; a failure in
// one neither blocks nor fails the other.
func (s *Service) Dispatch(ctx context.Context, record map[string]any) Result {
	summary := s.Summary(record)

	var res Result
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		res.Discord = s.sendDiscord(ctx, summary)
	}()
	go func() {
		defer wg.Done()
		res.Telegram = s.sendTelegram(ctx, summary)
	}()
	wg.Wait()

	if res.Discord.Attempted && !res.Discord.OK {
		s.logger.Warn("discord notification failed", zap.Error(res.Discord.Err))
	}
	if res.Telegram.Attempted && !res.Telegram.OK {
		s.logger.Warn("telegram notification failed", zap.Error(res.Telegram.Err))
	}

	return res
}

// Summary builds the human-readable message shared by all channels.
// Missing fields render as "n/a".
func (s *Service) Summary(record map[string]any) string {
	username := stringField(record, "username")
	ip := stringField(record, "ip")
	timestamp := stringField(record, "timestamp")

	device, _ := record["device"].(map[string]any)
	platform := stringField(device, "platform")
	language := stringField(device, "language")

	screen := "n/a"
	if scr, ok := device["screen"].(map[string]any); ok {
		if w, wok := scr["width"].(float64); wok {
			if h, hok := scr["height"].(float64); hok {
				screen = fmt.Sprintf("%dx%d", int(w), int(h))
			}
		}
	}

	location := "n/a"
	if s.locator != nil {
		if loc := s.locator.Lookup(ip); loc != "" {
			location = loc
		}
	}

	return fmt.Sprintf(
		"New login: %s\nIP: %s\nLocation: %s\nTime: %s\nPlatform: %s\nLanguage: %s\nScreen: %s",
		username, ip, location, timestamp, platform, language, screen,
	)
}

func stringField(obj map[string]any, key string) string {
	if obj == nil {
		return "n/a"
	}
	if s, ok := obj[key].(string); ok && s != "" {
		return s
	}
	return "n/a"
}
