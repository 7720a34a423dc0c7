package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"social-chat-service/internal/models"
)

var (
	ErrRequestNotFound  = errors.New("friend request not found")
	ErrDuplicateRequest = errors.New("friend request already exists")
)

// FriendRepository abstracts friend request and friendship persistence.
// Authorization lives in the query predicates: a mutation that matches no row
// reports ErrRequestNotFound instead of silently doing nothing.
type FriendRepository interface {
	CreateRequest(ctx context.Context, fromUser, toUser int) (models.FriendRequest, error)
	CancelRequest(ctx context.Context, requestID, fromUser int) error
	AcceptRequest(ctx context.Context, requestID, fromUser, toUser int) error
	DeclineRequest(ctx context.Context, requestID, fromUser, toUser int) error
	ListIncoming(ctx context.Context, userID int) ([]models.RequestSummary, error)
	ListOutgoing(ctx context.Context, userID int) ([]models.RequestSummary, error)
	ListFriends(ctx context.Context, userID int) ([]models.Profile, error)
	AreFriends(ctx context.Context, userID, friendID int) (bool, error)
	HasRequestBetween(ctx context.Context, userID, otherID int) (bool, error)
}

// FriendRepo is a sqlx implementation of FriendRepository.
type FriendRepo struct {
	db *sqlx.DB
}

// NewFriendRepo constructs a FriendRepo.
func NewFriendRepo(db *sqlx.DB) *FriendRepo {
	return &FriendRepo{db: db}
}

// CreateRequest inserts a pending request.
func (r *FriendRepo) CreateRequest(ctx context.Context, fromUser, toUser int) (models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.QueryRowxContext(ctx, `INSERT INTO friend_requests (from_user, to_user, status) VALUES ($1, $2, $3)
        RETURNING id, from_user, to_user, status, created_at`, fromUser, toUser, models.RequestStatusPending).
		Scan(&req.ID, &req.FromUser, &req.ToUser, &req.Status, &req.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return models.FriendRequest{}, ErrDuplicateRequest
		}
		return models.FriendRequest{}, err
	}
	return req, nil
}

// CancelRequest deletes the request if and only if the caller is its sender
// and the request is still pending.
func (r *FriendRepo) CancelRequest(ctx context.Context, requestID, fromUser int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM friend_requests WHERE id=$1 AND from_user=$2 AND status=$3`,
		requestID, fromUser, models.RequestStatusPending)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// AcceptRequest flips a pending request to accepted and creates the
// friendship row in the same transaction. Only the recipient matches the
// update predicate; anyone else gets ErrRequestNotFound.
func (r *FriendRepo) AcceptRequest(ctx context.Context, requestID, fromUser, toUser int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var res sql.Result
	res, err = tx.ExecContext(ctx, `UPDATE friend_requests SET status=$4
        WHERE id=$1 AND from_user=$2 AND to_user=$3 AND status=$5`,
		requestID, fromUser, toUser, models.RequestStatusAccepted, models.RequestStatusPending)
	if err != nil {
		return err
	}
	var count int64
	count, err = res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		err = ErrRequestNotFound
		return err
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO friends (user_id, friend_id) VALUES ($1, $2)`, toUser, fromUser); err != nil {
		return err
	}

	err = tx.Commit()
	return err
}

// DeclineRequest deletes the request if the caller is its recipient and the
// request is still pending, so an accepted request cannot be declined out
// from under its friendship. No declined row is retained.
func (r *FriendRepo) DeclineRequest(ctx context.Context, requestID, fromUser, toUser int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM friend_requests WHERE id=$1 AND from_user=$2 AND to_user=$3 AND status=$4`,
		requestID, fromUser, toUser, models.RequestStatusPending)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// ListIncoming returns pending requests addressed to the user with the
// sender's profile joined inline.
func (r *FriendRepo) ListIncoming(ctx context.Context, userID int) ([]models.RequestSummary, error) {
	query := `SELECT r.id, r.status, r.created_at, p.id, p.username, p.email, p.avatar_url, p.created_at
        FROM friend_requests r
        JOIN profiles p ON p.id = r.from_user
        WHERE r.to_user=$1 AND r.status=$2
        ORDER BY r.created_at DESC`
	return r.scanSummaries(ctx, query, userID, models.RequestStatusPending)
}

// ListOutgoing returns the user's sent requests with the recipient's profile
// joined inline.
func (r *FriendRepo) ListOutgoing(ctx context.Context, userID int) ([]models.RequestSummary, error) {
	query := `SELECT r.id, r.status, r.created_at, p.id, p.username, p.email, p.avatar_url, p.created_at
        FROM friend_requests r
        JOIN profiles p ON p.id = r.to_user
        WHERE r.from_user=$1
        ORDER BY r.created_at DESC`
	return r.scanSummaries(ctx, query, userID)
}

func (r *FriendRepo) scanSummaries(ctx context.Context, query string, args ...interface{}) ([]models.RequestSummary, error) {
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.RequestSummary
	for rows.Next() {
		var summary models.RequestSummary
		if err := rows.Scan(&summary.RequestID, &summary.Status, &summary.CreatedAt,
			&summary.Profile.ID, &summary.Profile.Username, &summary.Profile.Email,
			&summary.Profile.AvatarURL, &summary.Profile.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, summary)
	}
	return result, rows.Err()
}

// ListFriends returns the profiles of everyone linked to the user by a
// friendship row on either side.
func (r *FriendRepo) ListFriends(ctx context.Context, userID int) ([]models.Profile, error) {
	query := `SELECT p.id, p.username, p.email, p.avatar_url, p.created_at
        FROM friends f
        JOIN profiles p ON p.id = CASE WHEN f.user_id=$1 THEN f.friend_id ELSE f.user_id END
        WHERE f.user_id=$1 OR f.friend_id=$1
        ORDER BY p.username ASC`
	var friends []models.Profile
	err := r.db.SelectContext(ctx, &friends, query, userID)
	return friends, err
}

// AreFriends checks friendship in either direction.
func (r *FriendRepo) AreFriends(ctx context.Context, userID, friendID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM friends
        WHERE (user_id=$1 AND friend_id=$2) OR (user_id=$2 AND friend_id=$1))`, userID, friendID)
	return exists, err
}

// HasRequestBetween checks for a request in either direction.
func (r *FriendRepo) HasRequestBetween(ctx context.Context, userID, otherID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM friend_requests
        WHERE (from_user=$1 AND to_user=$2) OR (from_user=$2 AND to_user=$1))`, userID, otherID)
	return exists, err
}
