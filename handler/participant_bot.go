package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/go-telegram/bot/models"

	"AvailabilityBot/model"
	"AvailabilityBot/service"
)

// webAppPayload is what the mini-app sends back through Telegram.
type webAppPayload struct {
	EventID string          `json:"eventId"`
	Slots   json.RawMessage `json:"slots"`
}

func (h *BotHandler) handleWebAppData(ctx context.Context, s sender, msg *models.Message) {
	chatID := msg.Chat.ID

	var payload webAppPayload
	if err := json.Unmarshal([]byte(msg.WebAppData.Data), &payload); err != nil || payload.EventID == "" {
		h.log.Warn().Err(err).Int64("user", msg.From.ID).Msg("unreadable mini-app data")
		h.reply(ctx, s, chatID, "Sorry, I couldn't read that submission. Please try again.", nil)
		return
	}

	res, err := h.svc.Submit(ctx, service.SubmitRequest{
		EventID:       payload.EventID,
		ParticipantID: userKey(msg.From),
		DisplayName:   displayName(msg.From),
		Slots:         payload.Slots,
	})
	if err != nil {
		h.reply(ctx, s, chatID, h.lookupError(payload.EventID, err), nil)
		return
	}

	h.reply(ctx, s, chatID, fmt.Sprintf("✅ Saved your availability. %d participant(s) so far.", res.Participants), nil)
}

// sendVoteButton answers a deep link with the mini-app button for the event.
func (h *BotHandler) sendVoteButton(ctx context.Context, s sender, chatID int64, eventID string) {
	ev, err := h.svc.GetEvent(ctx, eventID)
	if err != nil {
		h.reply(ctx, s, chatID, h.lookupError(eventID, err), nil)
		return
	}
	h.reply(ctx, s, chatID, fmt.Sprintf("🗓 %s\nClick below to add your times!", ev.Name), h.voteKeyboard(ev))
}

// voteKeyboard is nil when no mini-app URL is configured.
func (h *BotHandler) voteKeyboard(ev *model.Event) models.ReplyMarkup {
	link := voteURL(h.webAppURL, ev)
	if link == "" {
		return nil
	}
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "📅 Add Availability", WebApp: &models.WebAppInfo{URL: link}}},
		},
	}
}

func voteURL(base string, ev *model.Event) string {
	if base == "" {
		return ""
	}
	u, err := url.Parse(base)
	if err != nil {
		return ""
	}
	q := u.Query()
	q.Set("eventId", ev.ID)
	q.Set("eventName", ev.Name)
	q.Set("mode", string(ev.Mode))
	if ev.DateRange != nil {
		q.Set("startDate", ev.DateRange.Start)
		q.Set("endDate", ev.DateRange.End)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
