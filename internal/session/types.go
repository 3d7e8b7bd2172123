// Package session keeps per-user conversation state between turns.
package session

import (
	"context"
	"errors"
	"time"
)

// State identifies a step of the search conversation.
type State string

const (
	// StateEntry means there is no active conversation with the user.
	StateEntry State = "entry"
	// StateAwaitOrigin waits for the FROM station.
	StateAwaitOrigin State = "await_origin"
	// StateAwaitDestination waits for the TO station.
	StateAwaitDestination State = "await_destination"
	// StateAwaitDate waits for a DD-MM-YYYY travel date.
	StateAwaitDate State = "await_date"
	// StateDone is terminal; the session is evicted right after.
	StateDone State = "done"
)

// Active reports whether s belongs to an ongoing conversation.
func (s State) Active() bool {
	switch s {
	case StateAwaitOrigin, StateAwaitDestination, StateAwaitDate:
		return true
	}
	return false
}

// ErrInvalidUser is returned for a zero user identifier.
var ErrInvalidUser = errors.New("session: user id is empty")

// Session is the state of one conversation. Fields fill in order:
// Origin, then Destination, then TravelDate (canonical DD-MM-YYYY).
type Session struct {
	State       State     `json:"state"`
	Origin      string    `json:"origin,omitempty"`
	Destination string    `json:"destination,omitempty"`
	TravelDate  string    `json:"travel_date,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Entry returns the session of a user with no active conversation.
func Entry() Session {
	return Session{State: StateEntry}
}

// Store persists sessions keyed by Telegram user ID.
// Get returns Entry() when nothing is stored. Delete is idempotent.
type Store interface {
	Get(ctx context.Context, userID int64) (Session, error)
	Put(ctx context.Context, userID int64, s Session) error
	Delete(ctx context.Context, userID int64) error
}
