package service

import (
	"context"
	"encoding/json"
	"strings"

	"AvailabilityBot/model"
	"AvailabilityBot/repo"
	"AvailabilityBot/slotkey"
	"AvailabilityBot/vote"
)

// SubmitRequest is one participant's availability for one event. Slots may
// be any payload shape the vote package accepts.
type SubmitRequest struct {
	EventID       string
	ParticipantID string
	DisplayName   string
	Slots         json.RawMessage
}

type SubmitResult struct {
	EventID      string
	Participants int // participant count after this submission
}

// Submit replaces the participant's previous submission. Only that
// participant's vote node is written, so submissions from different
// participants never overwrite each other. A payload that cannot be read is
// stored as an empty submission rather than rejected, and slot keys of no
// known shape are dropped before storing.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	eventID := strings.TrimSpace(req.EventID)
	participantID := strings.TrimSpace(req.ParticipantID)
	if err := checkID("event", eventID); err != nil {
		return nil, err
	}
	if err := checkID("participant", participantID); err != nil {
		return nil, err
	}

	ev, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	canonical, kind := vote.NormalizeRaw(req.Slots)
	if kind == vote.Invalid {
		s.log.Warn().
			Str("event", eventID).
			Str("participant", participantID).
			Msg("malformed submission, storing as no votes")
	}
	for key := range canonical.Weights {
		if slotkey.Classify(key).Shape == slotkey.Unrecognized {
			delete(canonical.Weights, key)
			s.log.Debug().
				Str("event", eventID).
				Str("participant", participantID).
				Str("slot", key).
				Msg("dropping unrecognized slot key")
		}
	}
	if name := strings.TrimSpace(req.DisplayName); name != "" {
		canonical.DisplayName = name
	}

	sub := canonical.Submission(s.now().UTC())
	if err := s.store.Put(ctx, repo.VoteKey(eventID, participantID), sub); err != nil {
		return nil, storeErr(err, model.ErrEventDoesNotExist)
	}

	count := ev.ParticipantCount()
	if _, ok := ev.Votes[participantID]; !ok {
		count++
	}

	s.log.Info().
		Str("event", eventID).
		Str("participant", participantID).
		Int("slots", len(sub.Slots)).
		Int("participants", count).
		Msg("saved availability")
	return &SubmitResult{EventID: eventID, Participants: count}, nil
}
