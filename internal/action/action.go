// Package action defines the pending-action model: a durably queued user
// intent awaiting delivery to the remote service.
package action

import (
	"crypto/rand"
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

// Type identifies the kind of user intent an action carries.
// The set is closed; the remote dispatch table is keyed by it.
type Type string

const (
	TypeSubmitFact Type = "submit_fact"
	TypeVote       Type = "vote"
	TypeComment    Type = "comment"
	TypeSaveFact   Type = "save_fact"
)

// Types lists all valid action types in a stable order.
var Types = []Type{TypeSubmitFact, TypeVote, TypeComment, TypeSaveFact}

// Valid reports whether t is a member of the closed type set.
func (t Type) Valid() bool {
	switch t {
	case TypeSubmitFact, TypeVote, TypeComment, TypeSaveFact:
		return true
	}
	return false
}

// PendingAction is a queued user intent. Once persisted it is immutable
// except for deletion; the queue never mutates a record in place.
type PendingAction struct {
	// ID is assigned by the durable store on insert; zero until persisted.
	ID int64 `json:"id"`

	Type Type `json:"type"`

	// Data is the opaque payload whose shape is defined by Type.
	// The queue does not validate its contents.
	Data json.RawMessage `json:"data,omitempty"`

	// IdempotencyKey is a client-generated ULID sent with every dispatch so
	// the remote service can deduplicate at-least-once replays.
	IdempotencyKey string `json:"idempotency_key"`

	// Timestamp is milliseconds since epoch at enqueue time.
	Timestamp int64 `json:"timestamp"`
}

// New builds an unpersisted PendingAction stamped with the current time
// and a fresh idempotency key.
func New(typ Type, data json.RawMessage) (*PendingAction, error) {
	key, err := generateULID()
	if err != nil {
		return nil, err
	}
	return &PendingAction{
		Type:           typ,
		Data:           data,
		IdempotencyKey: key,
		Timestamp:      time.Now().UnixMilli(),
	}, nil
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
