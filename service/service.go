// Package service exposes the scheduling call-contracts: draft setup and
// promotion, submission intake, event queries and result export. Transports
// (Telegram, HTTP, CLI) call these as plain functions.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"AvailabilityBot/model"
	"AvailabilityBot/repo"
	"AvailabilityBot/vote"
)

// IDFunc produces ids for new drafts and events.
type IDFunc func() string

// NewUUID is the default IDFunc.
func NewUUID() string {
	return uuid.NewString()
}

type Service struct {
	store repo.Store
	newID IDFunc
	now   func() time.Time
	log   zerolog.Logger
}

type Option func(*Service)

func WithIDFunc(f IDFunc) Option {
	return func(s *Service) { s.newID = f }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func New(store repo.Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		newID: NewUUID,
		now:   time.Now,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("component", "service").Logger()
	return s
}

// storeErr maps store errors onto the model taxonomy.
func storeErr(err error, notFound error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return notFound
	case errors.Is(err, repo.ErrInvalidKey):
		return fmt.Errorf("%w: %w", model.ErrInvalidRequest, err)
	}
	return fmt.Errorf("%w: %w", model.ErrStoreFailure, err)
}

// checkID rejects ids that are empty or would not map to exactly one store
// node.
func checkID(what, id string) error {
	if id == "" {
		return fmt.Errorf("%w: %s id is required", model.ErrInvalidRequest, what)
	}
	if err := repo.CheckSegment(id); err != nil {
		return fmt.Errorf("%w: %s id: %w", model.ErrInvalidRequest, what, err)
	}
	return nil
}

// DraftInput is the proposed metadata of a new event.
type DraftInput struct {
	Name                 string
	DateRange            *model.DateRange
	RequiredParticipants []string
	CreatedBy            string
}

// StartDraft stores a new draft. Drafts are not open for voting.
func (s *Service) StartDraft(ctx context.Context, in DraftInput) (*model.Draft, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: event name is required", model.ErrInvalidRequest)
	}
	draft := &model.Draft{
		ID:                   s.newID(),
		Name:                 name,
		DateRange:            in.DateRange,
		RequiredParticipants: normalizeHandles(in.RequiredParticipants),
		CreatedBy:            in.CreatedBy,
		CreatedAt:            s.now().UTC(),
	}
	if err := s.store.Put(ctx, repo.DraftKey(draft.ID), draft); err != nil {
		return nil, storeErr(err, model.ErrDraftDoesNotExist)
	}
	s.log.Info().Str("draft", draft.ID).Str("name", draft.Name).Msg("draft started")
	return draft, nil
}

// GetDraft returns the draft or ErrDraftDoesNotExist.
func (s *Service) GetDraft(ctx context.Context, draftID string) (*model.Draft, error) {
	if err := checkID("draft", draftID); err != nil {
		return nil, err
	}
	var draft model.Draft
	if err := s.store.Get(ctx, repo.DraftKey(draftID), &draft); err != nil {
		return nil, storeErr(err, model.ErrDraftDoesNotExist)
	}
	return &draft, nil
}

// UpdateDraft applies fn to the stored draft and writes it back.
func (s *Service) UpdateDraft(ctx context.Context, draftID string, fn func(*model.Draft)) (*model.Draft, error) {
	draft, err := s.GetDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}
	fn(draft)
	draft.ID = draftID
	draft.RequiredParticipants = normalizeHandles(draft.RequiredParticipants)
	if err := s.store.Put(ctx, repo.DraftKey(draftID), draft); err != nil {
		return nil, storeErr(err, model.ErrDraftDoesNotExist)
	}
	return draft, nil
}

// DiscardDraft removes a draft that will not be promoted.
func (s *Service) DiscardDraft(ctx context.Context, draftID string) error {
	if _, err := s.GetDraft(ctx, draftID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, repo.DraftKey(draftID)); err != nil {
		return storeErr(err, model.ErrDraftDoesNotExist)
	}
	return nil
}

// PromoteDraft turns a draft into an active event with the chosen mode and
// removes the draft. Promoting a draft a second time finds no draft and
// returns ErrDraftDoesNotExist.
func (s *Service) PromoteDraft(ctx context.Context, draftID string, mode model.Mode) (*model.Event, error) {
	mode, err := model.ParseMode(string(mode))
	if err != nil {
		return nil, err
	}
	draft, err := s.GetDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	ev := &model.Event{
		ID:                   s.newID(),
		Name:                 draft.Name,
		Mode:                 mode,
		DateRange:            draft.DateRange,
		RequiredParticipants: draft.RequiredParticipants,
		CreatedBy:            draft.CreatedBy,
		CreatedAt:            s.now().UTC(),
		Votes:                map[string]json.RawMessage{},
	}
	if err := s.store.Put(ctx, repo.EventKey(ev.ID), ev); err != nil {
		return nil, storeErr(err, model.ErrEventDoesNotExist)
	}
	if err := s.store.Delete(ctx, repo.DraftKey(draftID)); err != nil {
		return nil, storeErr(err, model.ErrDraftDoesNotExist)
	}

	s.log.Info().Str("draft", draftID).Str("event", ev.ID).Str("mode", string(mode)).Msg("draft promoted")
	return ev, nil
}

// GetEvent returns the full event snapshot, raw votes included.
func (s *Service) GetEvent(ctx context.Context, eventID string) (*model.Event, error) {
	if err := checkID("event", eventID); err != nil {
		return nil, err
	}
	var ev model.Event
	if err := s.store.Get(ctx, repo.EventKey(eventID), &ev); err != nil {
		return nil, storeErr(err, model.ErrEventDoesNotExist)
	}
	if ev.ID == "" {
		ev.ID = eventID
	}
	return &ev, nil
}

// DeleteEvent removes an event together with its votes.
func (s *Service) DeleteEvent(ctx context.Context, eventID string) error {
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, repo.EventKey(eventID)); err != nil {
		return storeErr(err, model.ErrEventDoesNotExist)
	}
	s.log.Info().Str("event", eventID).Msg("event deleted")
	return nil
}

// normalizeHandles trims, strips a leading "@" and drops duplicates
// (case-insensitive), keeping first-seen order.
func normalizeHandles(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, h := range in {
		h = strings.TrimPrefix(strings.TrimSpace(h), "@")
		if h == "" {
			continue
		}
		k := strings.ToLower(h)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, h)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Missing lists required participants that have not submitted. A required
// handle matches a participant id or a submission's display name.
func (s *Service) Missing(ctx context.Context, eventID string) ([]string, error) {
	ev, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	voted := make(map[string]struct{}, len(ev.Votes)*2)
	for id, raw := range ev.Votes {
		voted[strings.ToLower(id)] = struct{}{}
		c, _ := vote.NormalizeRaw(raw)
		if name := strings.TrimPrefix(strings.TrimSpace(c.DisplayName), "@"); name != "" {
			voted[strings.ToLower(name)] = struct{}{}
		}
	}

	missing := []string{}
	for _, h := range ev.RequiredParticipants {
		if _, ok := voted[strings.ToLower(h)]; !ok {
			missing = append(missing, h)
		}
	}
	sort.Strings(missing)
	return missing, nil
}

// SweepDrafts deletes drafts created more than ttl ago and reports how many
// were removed.
func (s *Service) SweepDrafts(ctx context.Context, ttl time.Duration) (int, error) {
	var drafts map[string]model.Draft
	if err := s.store.Get(ctx, repo.DraftsRoot, &drafts); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return 0, nil
		}
		return 0, storeErr(err, model.ErrDraftDoesNotExist)
	}

	cutoff := s.now().Add(-ttl)
	removed := 0
	for id, d := range drafts {
		if !d.CreatedAt.Before(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, repo.DraftKey(id)); err != nil {
			return removed, storeErr(err, model.ErrDraftDoesNotExist)
		}
		removed++
	}
	if removed > 0 {
		s.log.Info().Int("removed", removed).Dur("ttl", ttl).Msg("stale drafts swept")
	}
	return removed, nil
}
