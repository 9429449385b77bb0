// Package engine aggregates participant submissions into ranked slot scores
// and arranges those scores into a grid for rendering.
//
// Everything here is a pure function of the event snapshot it is given, so it
// is safe to call from any number of goroutines.
package engine

import (
	"sort"

	"github.com/rs/zerolog/log"

	"AvailabilityBot/model"
	"AvailabilityBot/slotkey"
	"AvailabilityBot/vote"
)

// SlotScore is one ranked slot. Score is the sum of canonical weights, so its
// maximum equals the number of participants.
type SlotScore struct {
	Key   string  `json:"slot"`
	Score float64 `json:"score"`
}

type Result struct {
	TotalParticipants int         `json:"totalParticipants"`
	Scores            []SlotScore `json:"slotScores"`
}

// Empty reports whether nobody has voted yet.
func (r Result) Empty() bool {
	return r.TotalParticipants == 0
}

// Top returns at most n leading scores.
func (r Result) Top(n int) []SlotScore {
	if n < 0 || n >= len(r.Scores) {
		return r.Scores
	}
	return r.Scores[:n]
}

// Aggregate sums every participant's canonical weights per slot and ranks the
// slots by score descending, ties by ascending key. Malformed submissions count
// as a participant with no votes; unrecognized slot keys are dropped.
func Aggregate(ev *model.Event) Result {
	if ev == nil || len(ev.Votes) == 0 {
		return Result{Scores: []SlotScore{}}
	}

	participants := make([]string, 0, len(ev.Votes))
	for id := range ev.Votes {
		participants = append(participants, id)
	}
	sort.Strings(participants)

	totals := make(map[string]float64)
	for _, id := range participants {
		canonical, kind := vote.NormalizeRaw(ev.Votes[id])
		if kind == vote.Invalid {
			log.Warn().
				Str("event", ev.ID).
				Str("participant", id).
				Msg("malformed submission, counting as no votes")
		}

		for key, weight := range canonical.Weights {
			if slotkey.Classify(key).Shape == slotkey.Unrecognized {
				log.Debug().
					Str("event", ev.ID).
					Str("participant", id).
					Str("slot", key).
					Msg("dropping unrecognized slot key")
				continue
			}
			totals[key] += weight
		}
	}

	scores := make([]SlotScore, 0, len(totals))
	for key, score := range totals {
		scores = append(scores, SlotScore{Key: key, Score: score})
	}
	Rank(scores)

	return Result{TotalParticipants: len(ev.Votes), Scores: scores}
}

// Rank sorts scores in place: highest first, equal scores by ascending key.
func Rank(scores []SlotScore) {
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Key < scores[j].Key
	})
}
