package handler

import (
	"context"
	"strings"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"AvailabilityBot/model"
	"AvailabilityBot/service"
)

// sender is the part of *bot.Bot the handlers use.
type sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// BotHandler routes Telegram updates: mini-app submissions go to the
// participant flow, everything else to the organiser flow.
type BotHandler struct {
	svc       *service.Service
	webAppURL string
	topN      int
	log       zerolog.Logger

	mu         sync.Mutex
	userStates map[int64]*model.UserState
}

func NewBotHandler(svc *service.Service, webAppURL string, topN int, logger zerolog.Logger) *BotHandler {
	return &BotHandler{
		svc:        svc,
		webAppURL:  webAppURL,
		topN:       topN,
		log:        logger.With().Str("component", "bot").Logger(),
		userStates: make(map[int64]*model.UserState),
	}
}

// Handler is registered as the bot's default handler.
func (h *BotHandler) Handler(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handle(ctx, b, update)
}

func (h *BotHandler) handle(ctx context.Context, s sender, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	msg := update.Message

	if msg.WebAppData != nil {
		h.handleWebAppData(ctx, s, msg)
		return
	}

	h.log.Debug().Str("user", msg.From.Username).Str("text", msg.Text).Msg("message received")
	h.handleOrganiser(ctx, s, msg)
}

// getState returns a copy of the user's setup state.
func (h *BotHandler) getState(userID int64) model.UserState {
	h.mu.Lock()
	defer h.mu.Unlock()
	if st, ok := h.userStates[userID]; ok {
		return *st
	}
	return model.UserState{State: model.StateIdle}
}

func (h *BotHandler) setState(userID int64, st model.UserState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if st.State == model.StateIdle {
		delete(h.userStates, userID)
		return
	}
	h.userStates[userID] = &st
}

func (h *BotHandler) reply(ctx context.Context, s sender, chatID int64, text string, markup models.ReplyMarkup) {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := s.SendMessage(ctx, params); err != nil {
		h.log.Error().Err(err).Int64("chat", chatID).Msg("error sending message")
	}
}

// splitCommand splits "/cmd@BotName arg1 arg2" into "/cmd" and "arg1 arg2".
func splitCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	cmd, args, _ := strings.Cut(text, " ")
	if at := strings.Index(cmd, "@"); at > 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd), strings.TrimSpace(args)
}

// displayName prefers the Telegram handle so required participants can be
// matched by it.
func displayName(u *models.User) string {
	if u.Username != "" {
		return u.Username
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
