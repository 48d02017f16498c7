package models

import "time"

// Account roles.
const (
	RoleApplicant = "applicant"
	RoleEmployer  = "employer"
	RoleAdmin     = "admin"
)

// ValidRole reports whether role is one of the known account roles.
func ValidRole(role string) bool {
	switch role {
	case RoleApplicant, RoleEmployer, RoleAdmin:
		return true
	}
	return false
}

// User represents a user account in the system.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	CreatedAt    time.Time `json:"createdAt"`

	// Reset token state; only the hash is ever persisted.
	ResetTokenHash    string     `json:"-"`
	ResetTokenExpires *time.Time `json:"-"`
}

// PublishedJob is the trimmed posting view attached to an employer profile.
type PublishedJob struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	PostingDate time.Time `json:"postingDate"`
}

// Profile is the /me response payload: the account plus its published
// postings resolved by an explicit join (the original used an ORM virtual).
type Profile struct {
	User
	JobsPublished []PublishedJob `json:"jobsPublished,omitempty"`
}
