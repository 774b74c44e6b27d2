package models

import "time"

// User represents a person authenticated by the external identity provider.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// IdentityID is the identity provider's subject for this user (unique).
	// Every request resolves the caller's User through this field.
	IdentityID string

	// Name is the display name of the user.
	Name string

	// Email is the user's email address. Reports are addressed to it.
	Email string

	// CreatedAt is when the user row was created.
	CreatedAt time.Time
}
