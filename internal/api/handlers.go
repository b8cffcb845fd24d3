package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"botlab.dev/assistant-bot/internal/bot"
	"botlab.dev/assistant-bot/internal/core"
)

type APIHandler struct {
	dispatcher    *bot.Dispatcher
	webhookSecret string
}

func NewAPIHandler(dispatcher *bot.Dispatcher, webhookSecret string) *APIHandler {
	return &APIHandler{dispatcher: dispatcher, webhookSecret: webhookSecret}
}

// update mirrors the channel's webhook payload, trimmed to the fields the
// bot consumes.
type update struct {
	Message *struct {
		From struct {
			ID        int64  `json:"id"`
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
			Username  string `json:"username"`
		} `json:"from"`
		Text string `json:"text"`
	} `json:"message"`
	CallbackQuery *struct {
		From struct {
			ID        int64  `json:"id"`
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
			Username  string `json:"username"`
		} `json:"from"`
		Data string `json:"data"`
	} `json:"callback_query"`
}

// WebhookHandler decodes an inbound channel update into a command and
// enqueues it. It always answers 200 quickly; processing happens on the
// dispatcher loop.
func (h *APIHandler) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	if h.webhookSecret != "" && r.Header.Get("X-Webhook-Secret-Token") != h.webhookSecret {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	var u update
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	switch {
	case u.Message != nil:
		h.dispatcher.Enqueue(core.Event{
			UserID: strconv.FormatInt(u.Message.From.ID, 10),
			Profile: core.Profile{
				FirstName: u.Message.From.FirstName,
				LastName:  u.Message.From.LastName,
				Username:  u.Message.From.Username,
			},
			Command: core.DecodeText(u.Message.Text),
		})
	case u.CallbackQuery != nil:
		h.dispatcher.Enqueue(core.Event{
			UserID: strconv.FormatInt(u.CallbackQuery.From.ID, 10),
			Profile: core.Profile{
				FirstName: u.CallbackQuery.From.FirstName,
				LastName:  u.CallbackQuery.From.LastName,
				Username:  u.CallbackQuery.From.Username,
			},
			Command: core.DecodeCallback(u.CallbackQuery.Data),
		})
	default:
		log.Println("webhook: update without message or callback, ignoring")
	}

	w.WriteHeader(http.StatusOK)
}
