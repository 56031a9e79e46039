package types

import "time"

// ConnectionKind distinguishes the two relationship types members can form.
type ConnectionKind string

// Supported connection kinds.
const (
	// KindConnection is a plain peer connection.
	KindConnection ConnectionKind = "connection"

	// KindMentorship is a mentee-to-mentor relationship. The addressee
	// must be a verified mentor.
	KindMentorship ConnectionKind = "mentorship"
)

// Valid reports whether the kind is supported.
func (k ConnectionKind) Valid() bool {
	return k == KindConnection || k == KindMentorship
}

// ConnectionStatus is the lifecycle status of a connection request.
type ConnectionStatus string

// Supported connection statuses.
const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionAccepted ConnectionStatus = "accepted"
	ConnectionDeclined ConnectionStatus = "declined"
)

// Connection represents a relationship request between two members.
type Connection struct {
	// ID is the unique identifier of the connection.
	ID int64 `json:"id" db:"id"`

	// RequesterID identifies the user who initiated the request.
	RequesterID int `json:"requester_id" db:"requester_id"`

	// AddresseeID identifies the user the request was sent to.
	AddresseeID int `json:"addressee_id" db:"addressee_id"`

	// Kind is the relationship type being requested.
	Kind ConnectionKind `json:"kind" db:"kind"`

	// Status is the lifecycle status of the request.
	Status ConnectionStatus `json:"status" db:"status"`

	// CreatedAt is the timestamp when the request was made.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// RespondedAt is the timestamp of the accept/decline action,
	// nil while pending.
	RespondedAt *time.Time `json:"responded_at,omitempty" db:"responded_at"`
}
