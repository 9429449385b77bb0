// Package vote turns the submission payloads participants have sent over time
// into one canonical slot -> weight map.
//
// Three payload shapes are accepted:
//
//	["0-9", "0-10"]                                  slot list, every entry "yes"
//	{"0-9": "yes", "0-10": "maybe"}                  weighted map
//	{"slots": <list or map>, "displayName": "Ann"}   wrapped submission
//
// Anything else decodes to an Invalid payload and normalizes to no votes.
package vote

import (
	"bytes"
	"encoding/json"
	"time"
)

// Kind tags the shape of a decoded payload.
type Kind int

const (
	Invalid Kind = iota
	SlotList
	WeightedMap
	Wrapped
)

func (k Kind) String() string {
	switch k {
	case SlotList:
		return "slotList"
	case WeightedMap:
		return "weightedMap"
	case Wrapped:
		return "wrapped"
	}
	return "invalid"
}

// Response is a participant's answer for a single slot.
type Response string

const (
	Yes   Response = "yes"
	Maybe Response = "maybe"
)

const (
	WeightYes   = 1.0
	WeightMaybe = 0.5
)

// maxWrapDepth bounds {"slots": {"slots": ...}} nesting.
const maxWrapDepth = 4

// Reserved keys of a weighted map that carry metadata rather than slots.
const (
	keyDisplayName = "displayName"
	keySubmittedAt = "submittedAt"
	keySlots       = "slots"
)

// Payload is a decoded submission. Exactly the fields of its Kind are set.
type Payload struct {
	Kind        Kind
	List        []string           // SlotList
	Entries     map[string]float64 // WeightedMap, already weighted
	Inner       *Payload           // Wrapped
	DisplayName string             // WeightedMap, Wrapped
}

// Canonical is the normalized form consumed by aggregation.
type Canonical struct {
	DisplayName string
	Weights     map[string]float64
}

// Submission is the canonical stored form of one participant's submission.
// It is itself a wrapped payload, so Decode reads it back unchanged.
type Submission struct {
	Slots       map[string]Response `json:"slots"`
	DisplayName string              `json:"displayName,omitempty"`
	SubmittedAt time.Time           `json:"submittedAt"`
}

// Decode classifies raw JSON into a Payload. It never fails.
func Decode(raw json.RawMessage) Payload {
	return decode(raw, 0)
}

func decode(raw json.RawMessage, depth int) Payload {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Payload{Kind: Invalid}
	}

	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return Payload{Kind: Invalid}
		}
		list := make([]string, 0, len(items))
		for _, item := range items {
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				return Payload{Kind: Invalid}
			}
			list = append(list, s)
		}
		return Payload{Kind: SlotList, List: list}

	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return Payload{Kind: Invalid}
		}
		displayName := stringField(fields[keyDisplayName])

		if inner, ok := fields[keySlots]; ok {
			if depth >= maxWrapDepth {
				return Payload{Kind: Invalid}
			}
			p := decode(inner, depth+1)
			return Payload{Kind: Wrapped, Inner: &p, DisplayName: displayName}
		}

		entries := make(map[string]float64, len(fields))
		for key, value := range fields {
			if key == keyDisplayName || key == keySubmittedAt {
				continue
			}
			if w, ok := weigh(value); ok {
				entries[key] = w
			}
		}
		return Payload{Kind: WeightedMap, Entries: entries, DisplayName: displayName}
	}

	return Payload{Kind: Invalid}
}

// weigh maps one response value to its canonical weight. Strings: "yes" is
// firm, any other non-empty answer is tentative. Numbers are accepted so that
// canonical weights read back unchanged.
func weigh(value json.RawMessage) (float64, bool) {
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		switch {
		case s == string(Yes):
			return WeightYes, true
		case s != "":
			return WeightMaybe, true
		}
		return 0, false
	}

	var n float64
	if err := json.Unmarshal(value, &n); err == nil {
		switch {
		case n >= WeightYes:
			return WeightYes, true
		case n > 0:
			return WeightMaybe, true
		}
	}
	return 0, false
}

func stringField(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// Normalize folds a payload into its canonical weights. Invalid payloads
// yield an empty, non-nil map.
func Normalize(p Payload) Canonical {
	c := Canonical{DisplayName: p.DisplayName, Weights: map[string]float64{}}

	switch p.Kind {
	case SlotList:
		for _, key := range p.List {
			c.Weights[key] = WeightYes
		}
	case WeightedMap:
		for key, w := range p.Entries {
			c.Weights[key] = w
		}
	case Wrapped:
		if p.Inner != nil {
			inner := Normalize(*p.Inner)
			c.Weights = inner.Weights
			if c.DisplayName == "" {
				c.DisplayName = inner.DisplayName
			}
		}
	}
	return c
}

// NormalizeRaw is Decode followed by Normalize.
func NormalizeRaw(raw json.RawMessage) (Canonical, Kind) {
	p := Decode(raw)
	return Normalize(p), p.Kind
}

// Submission converts canonical weights back to yes/maybe responses.
func (c Canonical) Submission(submittedAt time.Time) Submission {
	slots := make(map[string]Response, len(c.Weights))
	for key, w := range c.Weights {
		if w >= WeightYes {
			slots[key] = Yes
		} else {
			slots[key] = Maybe
		}
	}
	return Submission{Slots: slots, DisplayName: c.DisplayName, SubmittedAt: submittedAt}
}
