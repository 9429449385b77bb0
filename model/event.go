package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Mode selects the shape of slot keys an event collects.
type Mode string

const (
	ModeTime Mode = "time"
	ModeDate Mode = "date"
)

// ParseMode accepts "time" or "date" in any case.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeTime:
		return ModeTime, nil
	case ModeDate:
		return ModeDate, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// DateRange is advisory only; slot keys outside it are still counted.
type DateRange struct {
	Start string `json:"startDate"`
	End   string `json:"endDate"`
}

type Event struct {
	ID                   string                     `json:"id"`
	Name                 string                     `json:"name"`
	Mode                 Mode                       `json:"mode"`
	DateRange            *DateRange                 `json:"dateRange,omitempty"`
	RequiredParticipants []string                   `json:"requiredParticipants,omitempty"`
	CreatedBy            string                     `json:"createdBy,omitempty"`
	CreatedAt            time.Time                  `json:"createdAt"`
	Votes                map[string]json.RawMessage `json:"votes,omitempty"` // participant id -> raw submission
}

// Draft holds proposed event metadata until a mode is chosen.
type Draft struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"`
	DateRange            *DateRange `json:"dateRange,omitempty"`
	RequiredParticipants []string   `json:"requiredParticipants,omitempty"`
	CreatedBy            string     `json:"createdBy,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
}

// ParticipantCount is the number of participants that have submitted.
func (e *Event) ParticipantCount() int {
	return len(e.Votes)
}
