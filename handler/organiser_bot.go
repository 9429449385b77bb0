package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot/models"

	"AvailabilityBot/model"
	"AvailabilityBot/service"
)

const helpText = `I help groups find a time that works for everyone.

/schedule <name> - start a new availability poll
/results <event id> - show the best slots so far
/missing <event id> - list required participants who have not voted
/cancel - abandon the poll you are setting up
/help - show this message`

func (h *BotHandler) handleOrganiser(ctx context.Context, s sender, msg *models.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID
	userState := h.getState(userID)

	cmd, args := splitCommand(msg.Text)
	if cmd == "/cancel" {
		h.cancelSetup(ctx, s, chatID, userID, userState)
		return
	}

	var text string
	switch userState.State {
	case model.StateIdle:
		switch cmd {
		case "/start":
			if args != "" {
				// deep link: t.me/<bot>?start=<event id>
				h.sendVoteButton(ctx, s, chatID, args)
				return
			}
			text = "👋 Hi! Use /schedule <Name> to start a new poll."
		case "/help":
			text = helpText
		case "/schedule":
			h.startSetup(ctx, s, chatID, msg.From, args)
			return
		case "/results":
			h.sendResults(ctx, s, chatID, args)
			return
		case "/missing":
			h.sendMissing(ctx, s, chatID, args)
			return
		default:
			text = "I didn't understand that command. Use /start or /help."
		}
	case model.StateAddingDateRange:
		text = h.handleDateRange(ctx, userID, userState, msg.Text)
	case model.StateAddingRequiredParticipants:
		text = h.handleRequiredParticipants(ctx, userID, userState, msg.Text)
	case model.StateChoosingMode:
		h.handleMode(ctx, s, chatID, userID, userState, msg.Text)
		return
	default:
		text = "An error occurred."
		h.setState(userID, model.UserState{State: model.StateIdle})
	}

	h.reply(ctx, s, chatID, text, nil)
}

func (h *BotHandler) startSetup(ctx context.Context, s sender, chatID int64, from *models.User, name string) {
	if name == "" {
		h.reply(ctx, s, chatID, "Please provide a name. Usage: /schedule <Event Name>", nil)
		return
	}

	draft, err := h.svc.StartDraft(ctx, service.DraftInput{Name: name, CreatedBy: userKey(from)})
	if err != nil {
		h.log.Error().Err(err).Msg("error starting draft")
		h.reply(ctx, s, chatID, "Error creating the poll. Please try again.", nil)
		return
	}

	h.setState(from.ID, model.UserState{State: model.StateAddingDateRange, DraftID: draft.ID})
	h.reply(ctx, s, chatID, fmt.Sprintf(
		"Okay, let's set up '%s'. Send the date range as 'YYYY-MM-DD YYYY-MM-DD', or 'skip'.", draft.Name), nil)
}

func (h *BotHandler) handleDateRange(ctx context.Context, userID int64, st model.UserState, text string) string {
	if !isSkip(text) {
		dr, err := parseDateRange(text)
		if err != nil {
			return "Please send two dates like '2024-06-01 2024-06-07', or 'skip'."
		}
		if _, err := h.svc.UpdateDraft(ctx, st.DraftID, func(d *model.Draft) { d.DateRange = dr }); err != nil {
			return h.draftError(userID, err)
		}
	}

	st.State = model.StateAddingRequiredParticipants
	h.setState(userID, st)
	return "Who needs to vote? Send handles like '@ann @bob', or 'skip'."
}

func (h *BotHandler) handleRequiredParticipants(ctx context.Context, userID int64, st model.UserState, text string) string {
	if !isSkip(text) {
		handles := strings.FieldsFunc(text, func(r rune) bool { return r == ' ' || r == ',' || r == '\n' })
		if _, err := h.svc.UpdateDraft(ctx, st.DraftID, func(d *model.Draft) { d.RequiredParticipants = handles }); err != nil {
			return h.draftError(userID, err)
		}
	}

	st.State = model.StateChoosingMode
	h.setState(userID, st)
	return "Reply 'time' for an hourly weekly grid or 'date' to vote on whole days."
}

func (h *BotHandler) handleMode(ctx context.Context, s sender, chatID, userID int64, st model.UserState, text string) {
	mode, err := model.ParseMode(text)
	if err != nil {
		h.reply(ctx, s, chatID, "Please reply 'time' or 'date'.", nil)
		return
	}

	ev, err := h.svc.PromoteDraft(ctx, st.DraftID, mode)
	if err != nil {
		h.reply(ctx, s, chatID, h.draftError(userID, err), nil)
		return
	}
	h.setState(userID, model.UserState{State: model.StateIdle})

	text = fmt.Sprintf("🗓 %s\nEvent ID: %s\nClick below to add your times!", ev.Name, ev.ID)
	h.reply(ctx, s, chatID, text, h.voteKeyboard(ev))
}

func (h *BotHandler) cancelSetup(ctx context.Context, s sender, chatID, userID int64, st model.UserState) {
	if st.State == model.StateIdle {
		h.reply(ctx, s, chatID, "Nothing to cancel.", nil)
		return
	}
	if err := h.svc.DiscardDraft(ctx, st.DraftID); err != nil && !errors.Is(err, model.ErrNotFound) {
		h.log.Error().Err(err).Str("draft", st.DraftID).Msg("error discarding draft")
	}
	h.setState(userID, model.UserState{State: model.StateIdle})
	h.reply(ctx, s, chatID, "Poll setup cancelled.", nil)
}

// draftError resets the user's setup and returns the message to show.
func (h *BotHandler) draftError(userID int64, err error) string {
	h.setState(userID, model.UserState{State: model.StateIdle})
	if errors.Is(err, model.ErrNotFound) {
		return "This poll setup has expired. Start again with /schedule <name>."
	}
	h.log.Error().Err(err).Int64("user", userID).Msg("error updating draft")
	return "Error saving the poll. Please try again."
}

func (h *BotHandler) sendResults(ctx context.Context, s sender, chatID int64, eventID string) {
	if eventID == "" {
		h.reply(ctx, s, chatID, "Usage: /results <event id>", nil)
		return
	}
	_, report, err := h.svc.Report(ctx, eventID)
	if err != nil {
		h.reply(ctx, s, chatID, h.lookupError(eventID, err), nil)
		return
	}
	h.reply(ctx, s, chatID, formatSummary(report, h.topN), nil)
}

func (h *BotHandler) sendMissing(ctx context.Context, s sender, chatID int64, eventID string) {
	if eventID == "" {
		h.reply(ctx, s, chatID, "Usage: /missing <event id>", nil)
		return
	}
	missing, err := h.svc.Missing(ctx, eventID)
	if err != nil {
		h.reply(ctx, s, chatID, h.lookupError(eventID, err), nil)
		return
	}
	h.reply(ctx, s, chatID, formatMissing(missing), nil)
}

func (h *BotHandler) lookupError(eventID string, err error) string {
	if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrInvalidRequest) {
		return fmt.Sprintf("No event found with ID '%s'.", eventID)
	}
	h.log.Error().Err(err).Str("event", eventID).Msg("error reading event")
	return "Error retrieving the event. Please try again later."
}

func isSkip(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), "skip")
}

func parseDateRange(text string) (*model.DateRange, error) {
	fields := strings.Fields(strings.ReplaceAll(text, ",", " "))
	if len(fields) != 2 {
		return nil, errors.New("expected two dates")
	}
	start, err := time.Parse(time.DateOnly, fields[0])
	if err != nil {
		return nil, err
	}
	end, err := time.Parse(time.DateOnly, fields[1])
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, errors.New("end date before start date")
	}
	return &model.DateRange{Start: fields[0], End: fields[1]}, nil
}

func userKey(u *models.User) string {
	return strconv.FormatInt(u.ID, 10)
}
