package types

import "time"

// Role identifies an authorization role held by a user.
type Role string

// Supported role values.
const (
	// RoleStudent marks a member who joined as a student.
	RoleStudent Role = "student"

	// RoleProfessional marks a member who joined as a working professional.
	RoleProfessional Role = "professional"

	// RoleMentor marks a member approved to mentor others.
	RoleMentor Role = "mentor"

	// RoleModerator is the lowest staff tier. Moderators can remove
	// content from the feed and the opportunity board.
	RoleModerator Role = "moderator"

	// RoleManager is the middle staff tier. Managers additionally review
	// identity verification requests.
	RoleManager Role = "manager"

	// RoleAdmin is the highest staff tier and grants every capability.
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is part of the fixed vocabulary.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleProfessional, RoleMentor, RoleModerator, RoleManager, RoleAdmin:
		return true
	default:
		return false
	}
}

// User represents a member account.
// It contains identity, profile, role, and derived verification metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the unique handle chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's email address.
	Email string `json:"email" db:"email"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Headline is a short profile tagline.
	Headline string `json:"headline" db:"headline"`

	// Bio is the free-form profile description.
	Bio string `json:"bio" db:"bio"`

	// Region is the user's self-reported region or city.
	Region string `json:"region" db:"region"`

	// AvatarKey is the object storage key of the profile picture,
	// empty when no avatar has been uploaded.
	AvatarKey string `json:"avatar_key,omitempty" db:"avatar_key"`

	// Roles is the set of roles held by the user. Membership only;
	// ordering carries no meaning.
	Roles []Role `json:"roles" db:"roles"`

	// IsAdmin is the legacy full-access flag. Accounts created before
	// the role set existed may carry this instead of (or in addition to)
	// the admin role; both grant every capability.
	IsAdmin bool `json:"is_admin" db:"is_admin"`

	// IsActive is false when the account has been deactivated by staff.
	IsActive bool `json:"is_active" db:"is_active"`

	// StudentTrackStatus is the derived status of the student
	// verification track. Maintained by reconciliation, never written
	// directly by handlers.
	StudentTrackStatus TrackStatus `json:"student_verification_status" db:"student_verification_status"`

	// MentorTrackStatus is the derived status of the mentor
	// verification track.
	MentorTrackStatus TrackStatus `json:"mentor_verification_status" db:"mentor_verification_status"`

	// StudentVerified is true iff the latest student-track request
	// was approved.
	StudentVerified bool `json:"student_verified" db:"student_verified"`

	// MentorVerified is true iff the latest mentor-track request
	// was approved.
	MentorVerified bool `json:"mentor_verified" db:"mentor_verified"`

	// VerificationStatus is the legacy single-value aggregate shown in
	// profile views, derived from both tracks.
	VerificationStatus AggregateStatus `json:"verification_status" db:"verification_status"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasRole reports plain set membership, with no rank or override logic.
// Authorization decisions go through the authz package instead.
func (u User) HasRole(role Role) bool {
	for _, held := range u.Roles {
		if held == role {
			return true
		}
	}
	return false
}
