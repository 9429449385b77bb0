package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound   = errors.New("key not found")
	ErrInvalidKey = errors.New("invalid key")
)

// Store is the persistence boundary. Keys are "/"-separated paths in one JSON
// tree, so "events/abc/votes/42" addresses a node inside "events/abc". Values
// are copied through JSON; a Put replaces the whole node at key.
type Store interface {
	// Get decodes the node at key into dst, or returns ErrNotFound.
	Get(ctx context.Context, key string, dst any) error
	Put(ctx context.Context, key string, value any) error
	// Delete removes the node at key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Key namespaces. Drafts and events never share a parent so their ids
// cannot collide.
const (
	EventsRoot = "events"
	DraftsRoot = "drafts"
)

func EventKey(eventID string) string {
	return EventsRoot + "/" + eventID
}

func DraftKey(draftID string) string {
	return DraftsRoot + "/" + draftID
}

func VoteKey(eventID, participantID string) string {
	return EventKey(eventID) + "/votes/" + participantID
}

// SplitKey validates key and returns its path segments. Segments follow the
// Realtime Database rules: non-empty, no ". $ # [ ]".
func SplitKey(key string) ([]string, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	parts := strings.Split(key, "/")
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidKey, key)
		}
		if strings.ContainsAny(p, ".$#[]") {
			return nil, fmt.Errorf("%w: forbidden character in %q", ErrInvalidKey, key)
		}
	}
	return parts, nil
}

// CheckSegment reports whether id can stand as a single path segment. An id
// containing "/" would address a node other than its own.
func CheckSegment(id string) error {
	if strings.Contains(id, "/") {
		return fmt.Errorf("%w: %q spans more than one segment", ErrInvalidKey, id)
	}
	_, err := SplitKey(id)
	return err
}
