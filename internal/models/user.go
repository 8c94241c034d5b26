package models

import "time"

// User represents a person known to the ledger.
//
// Users are not registered here: the identity adapter creates the row the
// first time a verified token for a new subject is seen.
type User struct {
	// ID is the unique identifier for the user (the token subject).
	ID string

	// Email is the user's email address as asserted by the identity provider.
	Email string

	// DisplayName is the name shown to friends on split requests.
	DisplayName string

	// CreatedAt is the Unix timestamp when the user row was created.
	CreatedAt int64
}

// NewUser creates a user record for the given identity.
func NewUser(id, email, displayName string) *User {
	return &User{
		ID:          id,
		Email:       email,
		DisplayName: displayName,
		CreatedAt:   time.Now().Unix(),
	}
}

// FriendshipStatus is the state of a friend request.
type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "PENDING"
	FriendshipAccepted FriendshipStatus = "ACCEPTED"
	FriendshipDeclined FriendshipStatus = "DECLINED"
)

// Friendship is a directed friend request between two users.
// Two users are friends when an ACCEPTED row exists in either direction.
type Friendship struct {
	RequesterID string
	AddresseeID string
	Status      FriendshipStatus
	CreatedAt   int64
}
