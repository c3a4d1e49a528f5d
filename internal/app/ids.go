package app

import "github.com/google/uuid"

// newMatchID returns a random UUIDv4 used as the match key.
func newMatchID() string {
    return uuid.NewString()
}

// validID rejects ids that are not UUIDs before any map lookup.
func validID(id string) bool {
    _, err := uuid.Parse(id)
    return err == nil
}
