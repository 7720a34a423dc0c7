package models

import "time"

// Friend request statuses. Declined and cancelled requests are deleted rather
// than kept around, so "declined" never appears in storage.
const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
)

// FriendRequest represents a pending or accepted request between two users.
type FriendRequest struct {
	ID        int       `db:"id" json:"id"`
	FromUser  int       `db:"from_user" json:"from_user"`
	ToUser    int       `db:"to_user" json:"to_user"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RequestSummary is a request joined with the other party's profile, as shown
// in the incoming/outgoing request lists.
type RequestSummary struct {
	RequestID int       `db:"id" json:"request_id"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Profile   Profile   `json:"profile"`
}

// Friendship is a confirmed symmetric relation. A single row covers both
// directions; visibility checks match either column.
type Friendship struct {
	UserID    int       `db:"user_id" json:"user_id"`
	FriendID  int       `db:"friend_id" json:"friend_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
