package handler

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"AvailabilityBot/engine"
	"AvailabilityBot/model"
	"AvailabilityBot/repo"
	"AvailabilityBot/service"
)

type fakeSender struct {
	sent []*bot.SendMessageParams
}

func (f *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	f.sent = append(f.sent, params)
	return &models.Message{}, nil
}

func (f *fakeSender) lastText(t *testing.T) string {
	t.Helper()
	if len(f.sent) == 0 {
		t.Fatal("no message sent")
	}
	return f.sent[len(f.sent)-1].Text
}

func newHandler() (*BotHandler, *service.Service) {
	svc := service.New(repo.NewMemoryStore())
	return NewBotHandler(svc, "https://example.test/app", 3, zerolog.Nop()), svc
}

func textUpdate(userID int64, username, text string) *models.Update {
	return &models.Update{Message: &models.Message{
		From: &models.User{ID: userID, Username: username, FirstName: "First"},
		Chat: models.Chat{ID: userID},
		Text: text,
	}}
}

func webAppUpdate(userID int64, username, data string) *models.Update {
	u := textUpdate(userID, username, "")
	u.Message.WebAppData = &models.WebAppData{Data: data}
	return u
}

func TestOrganiserFlowCreatesEvent(t *testing.T) {
	ctx := context.Background()
	h, svc := newHandler()
	s := &fakeSender{}

	h.handle(ctx, s, textUpdate(1, "org", "/schedule"))
	if !strings.Contains(s.lastText(t), "Usage: /schedule") {
		t.Fatalf("expected usage hint, got %q", s.lastText(t))
	}

	h.handle(ctx, s, textUpdate(1, "org", "/schedule@AvailBot Team dinner"))
	if got := h.getState(1); got.State != model.StateAddingDateRange || got.DraftID == "" {
		t.Fatalf("state after /schedule = %+v", got)
	}
	draftID := h.getState(1).DraftID

	h.handle(ctx, s, textUpdate(1, "org", "2024-06-07 2024-06-01"))
	if h.getState(1).State != model.StateAddingDateRange {
		t.Fatal("reversed range should be asked again")
	}
	h.handle(ctx, s, textUpdate(1, "org", "2024-06-01 2024-06-07"))
	h.handle(ctx, s, textUpdate(1, "org", "@ann, @bob"))
	if h.getState(1).State != model.StateChoosingMode {
		t.Fatalf("state = %+v", h.getState(1))
	}

	h.handle(ctx, s, textUpdate(1, "org", "weekly"))
	if !strings.Contains(s.lastText(t), "'time' or 'date'") {
		t.Fatalf("expected mode hint, got %q", s.lastText(t))
	}

	h.handle(ctx, s, textUpdate(1, "org", "Date"))
	if h.getState(1).State != model.StateIdle {
		t.Fatalf("state after promotion = %+v", h.getState(1))
	}

	last := s.sent[len(s.sent)-1]
	kb, ok := last.ReplyMarkup.(*models.InlineKeyboardMarkup)
	if !ok || kb.InlineKeyboard[0][0].WebApp == nil {
		t.Fatalf("expected web app button, got %#v", last.ReplyMarkup)
	}
	link, err := url.Parse(kb.InlineKeyboard[0][0].WebApp.URL)
	if err != nil {
		t.Fatalf("bad link: %v", err)
	}
	eventID := link.Query().Get("eventId")
	if link.Query().Get("mode") != "date" || link.Query().Get("eventName") != "Team dinner" || link.Query().Get("startDate") != "2024-06-01" {
		t.Fatalf("link = %s", link)
	}

	ev, err := svc.GetEvent(ctx, eventID)
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if ev.Mode != model.ModeDate || len(ev.RequiredParticipants) != 2 || ev.DateRange.End != "2024-06-07" {
		t.Fatalf("event = %+v", ev)
	}
	if _, err := svc.GetDraft(ctx, draftID); err == nil {
		t.Fatal("draft should be removed after promotion")
	}
}

func TestCancelDiscardsDraft(t *testing.T) {
	ctx := context.Background()
	h, svc := newHandler()
	s := &fakeSender{}

	h.handle(ctx, s, textUpdate(1, "org", "/cancel"))
	if s.lastText(t) != "Nothing to cancel." {
		t.Fatalf("got %q", s.lastText(t))
	}

	h.handle(ctx, s, textUpdate(1, "org", "/schedule Lunch"))
	draftID := h.getState(1).DraftID
	h.handle(ctx, s, textUpdate(1, "org", "/cancel"))

	if h.getState(1).State != model.StateIdle {
		t.Fatal("cancel should reset state")
	}
	if _, err := svc.GetDraft(ctx, draftID); err == nil {
		t.Fatal("cancelled draft should be gone")
	}
}

func TestWebAppSubmissionAndResults(t *testing.T) {
	ctx := context.Background()
	h, svc := newHandler()
	s := &fakeSender{}

	draft, err := svc.StartDraft(ctx, service.DraftInput{Name: "Standup", RequiredParticipants: []string{"ann", "bob"}})
	if err != nil {
		t.Fatalf("StartDraft: %v", err)
	}
	ev, err := svc.PromoteDraft(ctx, draft.ID, model.ModeTime)
	if err != nil {
		t.Fatalf("PromoteDraft: %v", err)
	}

	h.handle(ctx, s, textUpdate(9, "org", "/results "+ev.ID))
	if !strings.Contains(s.lastText(t), "No votes yet.") {
		t.Fatalf("got %q", s.lastText(t))
	}

	h.handle(ctx, s, webAppUpdate(10, "ann", `{"eventId":"`+ev.ID+`","slots":{"0-9":"yes","0-10":"maybe"}}`))
	if !strings.Contains(s.lastText(t), "1 participant(s)") {
		t.Fatalf("got %q", s.lastText(t))
	}
	h.handle(ctx, s, webAppUpdate(11, "", `{"eventId":"`+ev.ID+`","slots":["0-9"]}`))
	if !strings.Contains(s.lastText(t), "2 participant(s)") {
		t.Fatalf("got %q", s.lastText(t))
	}

	h.handle(ctx, s, textUpdate(9, "org", "/results "+ev.ID))
	want := "🗓 Standup\n2 participant(s) voted.\n\nBest slots:\n1. Mon 9:00 - 2/2 (100%)\n2. Mon 10:00 - 0.5/2 (25%)"
	if got := s.lastText(t); got != want {
		t.Fatalf("results = %q, want %q", got, want)
	}

	h.handle(ctx, s, textUpdate(9, "org", "/missing "+ev.ID))
	if got := s.lastText(t); got != "Still waiting for:\n- @bob" {
		t.Fatalf("missing = %q", got)
	}

	h.handle(ctx, s, webAppUpdate(10, "ann", `not json`))
	if !strings.Contains(s.lastText(t), "couldn't read") {
		t.Fatalf("got %q", s.lastText(t))
	}
	h.handle(ctx, s, webAppUpdate(10, "ann", `{"eventId":"nope","slots":[]}`))
	if !strings.Contains(s.lastText(t), "No event found") {
		t.Fatalf("got %q", s.lastText(t))
	}
}

func TestDeepLinkSendsVoteButton(t *testing.T) {
	ctx := context.Background()
	h, svc := newHandler()
	s := &fakeSender{}

	draft, _ := svc.StartDraft(ctx, service.DraftInput{Name: "Retro"})
	ev, err := svc.PromoteDraft(ctx, draft.ID, model.ModeTime)
	if err != nil {
		t.Fatalf("PromoteDraft: %v", err)
	}

	h.handle(ctx, s, textUpdate(5, "cara", "/start "+ev.ID))
	if _, ok := s.sent[0].ReplyMarkup.(*models.InlineKeyboardMarkup); !ok {
		t.Fatalf("expected keyboard, got %#v", s.sent[0].ReplyMarkup)
	}

	h.handle(ctx, s, textUpdate(5, "cara", "/start nope"))
	if !strings.Contains(s.lastText(t), "No event found") {
		t.Fatalf("got %q", s.lastText(t))
	}

	h.handle(ctx, s, textUpdate(5, "cara", "/results "+ev.ID+"/votes"))
	if !strings.Contains(s.lastText(t), "No event found") {
		t.Fatalf("got %q", s.lastText(t))
	}
}

func TestSlotLabel(t *testing.T) {
	cases := map[string]string{
		"0-9":           "Mon 9:00",
		"7-5":           "Day 5:00",
		"2024-06-01-14": "2024-06-01 14:00",
		"2024-06-01":    "2024-06-01",
		"weird":         "weird",
	}
	for key, want := range cases {
		if got := slotLabel(key); got != want {
			t.Errorf("slotLabel(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestFormatSummaryNoSlots(t *testing.T) {
	report := &service.Report{
		Name:   "Empty",
		Result: engine.Result{TotalParticipants: 1, Scores: []engine.SlotScore{}},
	}
	if got := formatSummary(report, 5); got != "🗓 Empty\n1 participant(s) voted.\nNo slots picked yet." {
		t.Fatalf("got %q", got)
	}
}

func TestVoteURLWithoutBase(t *testing.T) {
	if got := voteURL("", &model.Event{ID: "x"}); got != "" {
		t.Fatalf("got %q", got)
	}
	h := NewBotHandler(nil, "", 5, zerolog.Nop())
	if h.voteKeyboard(&model.Event{ID: "x"}) != nil {
		t.Fatal("expected no keyboard without a mini-app url")
	}
}
