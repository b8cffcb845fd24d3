// Package channel is the outbound edge towards the messaging platform.
package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Keyboard is an optional reply markup attached to a message. Reply
// keyboards carry menu button labels, inline keyboards carry callback data.
type Keyboard struct {
	Buttons [][]Button `json:"buttons"`
	Inline  bool        `json:"inline"`
}

type Button struct {
	Label string `json:"label"`
	// Data is the callback payload for inline buttons; empty for plain
	// menu buttons.
	Data string `json:"data,omitempty"`
}

// Sender delivers a message to a user over the channel. Delivery errors
// (blocked or unreachable recipients) are non-fatal to the process.
type Sender interface {
	SendMessage(ctx context.Context, userID, text string, keyboard *Keyboard) error
}

// HTTPSender talks to the channel's bot HTTP API.
type HTTPSender struct {
	apiBase string
	token   string
	client  *http.Client
}

func NewHTTPSender(apiBase, token string) *HTTPSender {
	return &HTTPSender{
		apiBase: apiBase,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPSender) SendMessage(ctx context.Context, userID, text string, keyboard *Keyboard) error {
	payload := map[string]any{
		"chat_id": userID,
		"text":    text,
	}
	if keyboard != nil {
		payload["reply_markup"] = replyMarkup(keyboard)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal sendMessage payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sendMessage request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sendMessage returned status %d: %s", resp.StatusCode, snippet)
	}
	return nil
}

func replyMarkup(kb *Keyboard) map[string]any {
	if kb.Inline {
		rows := make([][]map[string]string, 0, len(kb.Buttons))
		for _, row := range kb.Buttons {
			r := make([]map[string]string, 0, len(row))
			for _, b := range row {
				r = append(r, map[string]string{"text": b.Label, "callback_data": b.Data})
			}
			rows = append(rows, r)
		}
		return map[string]any{"inline_keyboard": rows}
	}

	rows := make([][]string, 0, len(kb.Buttons))
	for _, row := range kb.Buttons {
		r := make([]string, 0, len(row))
		for _, b := range row {
			r = append(r, b.Label)
		}
		rows = append(rows, r)
	}
	return map[string]any{"keyboard": rows, "resize_keyboard": true}
}
