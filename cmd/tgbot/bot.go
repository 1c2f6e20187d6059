package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	exchanger "HeatX/internal/calc/exchanger"

	log "github.com/sirupsen/logrus"
)

const telegramAPI = "https://api.telegram.org"

type Update struct {
	UpdateID int      `json:"update_id"`
	Message  *Message `json:"message"`
}

type Message struct {
	MessageID int    `json:"message_id"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

type Chat struct {
	ID int64 `json:"id"`
}

type UpdateResponse struct {
	OK     bool     `json:"ok"`
	Result []Update `json:"result"`
}

type Bot struct {
	token  string
	api    string
	client *http.Client
	engine *exchanger.Engine
}

func NewBot(token string, engine *exchanger.Engine) *Bot {
	return &Bot{
		token:  token,
		api:    telegramAPI,
		client: &http.Client{Timeout: 30 * time.Second},
		engine: engine,
	}
}

func (b *Bot) url(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", b.api, b.token, method)
}

func (b *Bot) getUpdates(ctx context.Context, offset int) ([]Update, error) {
	url := fmt.Sprintf("%s?timeout=20&offset=%d", b.url("getUpdates"), offset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	res, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	var out UpdateResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}
	if !out.OK {
		return nil, fmt.Errorf("telegram: getUpdates not ok (status %d)", res.StatusCode)
	}
	return out.Result, nil
}

func (b *Bot) handleMessage(ctx context.Context, m *Message) {
	reply := b.Reply(m.Text)
	if reply == "" {
		return
	}
	if err := b.sendMessage(ctx, m.Chat.ID, reply); err != nil {
		log.WithField("chat", m.Chat.ID).Warnf("tgbot: sendMessage: %v", err)
	}
}

// Reply answers a command; non-commands get no reply.
func (b *Bot) Reply(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	// "/calc@SomeBot" in group chats
	cmd, _, _ := strings.Cut(fields[0], "@")
	switch cmd {
	case "/start", "/help":
		return usage
	case "/calc":
		in, err := ParseCalc(fields[1:])
		if err != nil {
			return "⚠️ " + err.Error() + "\n\n" + usage
		}
		out, err := b.engine.Calculate(in)
		if err != nil {
			return "⚠️ " + err.Error()
		}
		return FormatOutput(out)
	default:
		return "Unknown command. Send /help for usage."
	}
}

func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string) error {
	payload, err := json.Marshal(map[string]any{"chat_id": chatID, "text": text})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url("sendMessage"), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := b.client.Do(req)
	if err != nil {
		return err
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram: sendMessage status %d", res.StatusCode)
	}
	return nil
}
