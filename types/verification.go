package types

import "time"

// VerificationTrack identifies one of the two independent verification
// pipelines a user can go through.
type VerificationTrack string

// Supported verification tracks.
const (
	// TrackStudent is the student identity track, opened by uploading a
	// student document.
	TrackStudent VerificationTrack = "student"

	// TrackMentor is the mentorship track, opened when a member opts in
	// to mentoring.
	TrackMentor VerificationTrack = "mentor"
)

// Valid reports whether the track is one of the supported pipelines.
func (t VerificationTrack) Valid() bool {
	return t == TrackStudent || t == TrackMentor
}

// RequestStatus is the lifecycle status of a single verification request.
type RequestStatus string

// Supported request statuses.
const (
	// RequestPending indicates the request has been submitted and is
	// waiting for staff review.
	RequestPending RequestStatus = "pending"

	// RequestApproved indicates a reviewer accepted the request.
	RequestApproved RequestStatus = "approved"

	// RequestRejected indicates a reviewer declined the request.
	RequestRejected RequestStatus = "rejected"
)

// TrackStatus is the derived per-track status stored on the user record.
// It mirrors RequestStatus plus TrackNone for users with no request
// history in that track.
type TrackStatus string

// Supported track statuses.
const (
	TrackNone     TrackStatus = "none"
	TrackPending  TrackStatus = "pending"
	TrackApproved TrackStatus = "approved"
	TrackRejected TrackStatus = "rejected"
)

// AggregateStatus is the legacy single verification value derived from
// both tracks for display purposes.
type AggregateStatus string

// Supported aggregate statuses.
const (
	AggregateUnverified AggregateStatus = "unverified"
	AggregatePending    AggregateStatus = "pending"
	AggregateVerified   AggregateStatus = "verified"
	AggregateRejected   AggregateStatus = "rejected"
)

// VerificationRequest represents one submission in one track for one user.
// Requests are never deleted; the most recently created request per
// (user, track) is the authoritative one.
type VerificationRequest struct {
	// ID is the unique identifier of the request. It doubles as the
	// tie-break between requests sharing a creation timestamp.
	ID int64 `json:"id" db:"id"`

	// UserID identifies the user the request belongs to.
	UserID int `json:"user_id" db:"user_id"`

	// Track identifies the verification pipeline.
	Track VerificationTrack `json:"track" db:"track"`

	// DocumentKey is the object storage key of the submitted document.
	// Empty for mentor-track requests, which carry no document.
	DocumentKey string `json:"document_key,omitempty" db:"document_key"`

	// Status is the lifecycle status of the request. It is mutated at
	// most once, by the review action.
	Status RequestStatus `json:"status" db:"status"`

	// ReviewerID identifies the staff member who reviewed the request,
	// nil while the request is pending.
	ReviewerID *int `json:"reviewer_id,omitempty" db:"reviewer_id"`

	// Comment is the optional note left by the reviewer.
	Comment string `json:"comment,omitempty" db:"comment"`

	// Metadata holds track-specific extra fields supplied at submission
	// time (institution, graduation year, areas of expertise, ...).
	Metadata map[string]string `json:"metadata,omitempty" db:"metadata"`

	// CreatedAt is the timestamp when the request was submitted.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// ReviewedAt is the timestamp of the review action, nil while pending.
	ReviewedAt *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
}

// TrackStatus maps the request's lifecycle status to the derived
// per-track status.
func (r VerificationRequest) TrackStatus() TrackStatus {
	switch r.Status {
	case RequestApproved:
		return TrackApproved
	case RequestRejected:
		return TrackRejected
	default:
		return TrackPending
	}
}

// VerificationState is the full set of derived verification fields for
// one user, as recomputed by reconciliation and persisted on the user
// record.
type VerificationState struct {
	StudentStatus   TrackStatus     `json:"student_verification_status"`
	MentorStatus    TrackStatus     `json:"mentor_verification_status"`
	StudentVerified bool            `json:"student_verified"`
	MentorVerified  bool            `json:"mentor_verified"`
	Aggregate       AggregateStatus `json:"verification_status"`
}
