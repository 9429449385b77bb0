package model

const (
	// Organiser setup states
	StateIdle = iota
	StateAddingDateRange
	StateAddingRequiredParticipants
	StateChoosingMode
)

type UserState struct {
	State   int
	DraftID string // draft being set up in this chat
}
