package types

import "time"

// OpportunityKind categorizes a listing on the opportunity board.
type OpportunityKind string

// Supported opportunity kinds.
const (
	OpportunityJob        OpportunityKind = "job"
	OpportunityInternship OpportunityKind = "internship"
	OpportunityVolunteer  OpportunityKind = "volunteer"
	OpportunityEvent      OpportunityKind = "event"
)

// Valid reports whether the kind is supported.
func (k OpportunityKind) Valid() bool {
	switch k {
	case OpportunityJob, OpportunityInternship, OpportunityVolunteer, OpportunityEvent:
		return true
	default:
		return false
	}
}

// Opportunity represents a job or opportunity listing.
type Opportunity struct {
	// ID is the unique identifier of the listing.
	ID int64 `json:"id" db:"id"`

	// PostedBy identifies the user who published the listing.
	PostedBy int `json:"posted_by" db:"posted_by"`

	// Title is the listing headline.
	Title string `json:"title" db:"title"`

	// Company is the organization offering the opportunity.
	Company string `json:"company" db:"company"`

	// Location is the free-form location text of the opportunity.
	Location string `json:"location" db:"location"`

	// Region is the platform region the listing targets, used for
	// filtering.
	Region string `json:"region" db:"region"`

	// Kind categorizes the listing.
	Kind OpportunityKind `json:"kind" db:"kind"`

	// Description is the full listing text.
	Description string `json:"description" db:"description"`

	// ApplyURL is the external application link, if any.
	ApplyURL string `json:"apply_url,omitempty" db:"apply_url"`

	// IsOpen is false once the listing has been closed by its author
	// or by staff.
	IsOpen bool `json:"is_open" db:"is_open"`

	// CreatedAt is the timestamp when the listing was published.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent edit.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
