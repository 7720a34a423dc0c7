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
	ErrProfileNotFound = errors.New("profile not found")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrEmailTaken      = errors.New("email already taken")
)

// ProfileRepository abstracts profile persistence.
type ProfileRepository interface {
	CreateProfile(ctx context.Context, username, email, passwordHash string) (models.Profile, error)
	GetProfile(ctx context.Context, userID int) (models.Profile, error)
	GetCredentialByEmail(ctx context.Context, email string) (models.Credential, error)
	GetCredential(ctx context.Context, userID int) (models.Credential, error)
	SearchStrangers(ctx context.Context, userID int, query string, limit int) ([]models.Profile, error)
	UpdateUsername(ctx context.Context, userID int, username string) error
	UpdateEmail(ctx context.Context, userID int, email string) error
	UpdatePassword(ctx context.Context, userID int, passwordHash string) error
	UpdateAvatarURL(ctx context.Context, userID int, avatarURL string) error
}

// ProfileRepo is a sqlx implementation of ProfileRepository.
type ProfileRepo struct {
	db *sqlx.DB
}

// NewProfileRepo constructs a ProfileRepo.
func NewProfileRepo(db *sqlx.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// CreateProfile inserts a profile together with its credentials. A single row
// holds both, so registration cannot half-succeed.
func (r *ProfileRepo) CreateProfile(ctx context.Context, username, email, passwordHash string) (models.Profile, error) {
	var profile models.Profile
	err := r.db.QueryRowxContext(ctx, `INSERT INTO profiles (username, email, password_hash) VALUES ($1, $2, $3)
        RETURNING id, username, email, avatar_url, created_at`, username, email, passwordHash).
		Scan(&profile.ID, &profile.Username, &profile.Email, &profile.AvatarURL, &profile.CreatedAt)
	if err != nil {
		return models.Profile{}, translateUniqueViolation(err)
	}
	return profile, nil
}

// GetProfile fetches a profile by id.
func (r *ProfileRepo) GetProfile(ctx context.Context, userID int) (models.Profile, error) {
	var profile models.Profile
	err := r.db.GetContext(ctx, &profile, `SELECT id, username, email, avatar_url, created_at FROM profiles WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrProfileNotFound
	}
	return profile, err
}

// GetCredentialByEmail fetches a profile with its password hash for login.
func (r *ProfileRepo) GetCredentialByEmail(ctx context.Context, email string) (models.Credential, error) {
	var cred models.Credential
	err := r.db.GetContext(ctx, &cred, `SELECT id, username, email, password_hash, avatar_url, created_at FROM profiles WHERE email=$1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Credential{}, ErrProfileNotFound
	}
	return cred, err
}

// GetCredential fetches a profile with its password hash by id.
func (r *ProfileRepo) GetCredential(ctx context.Context, userID int) (models.Credential, error) {
	var cred models.Credential
	err := r.db.GetContext(ctx, &cred, `SELECT id, username, email, password_hash, avatar_url, created_at FROM profiles WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Credential{}, ErrProfileNotFound
	}
	return cred, err
}

// SearchStrangers finds profiles by case-insensitive username match, excluding
// the caller and anyone already linked to them by a request or friendship.
func (r *ProfileRepo) SearchStrangers(ctx context.Context, userID int, query string, limit int) ([]models.Profile, error) {
	sqlQuery := `SELECT id, username, email, avatar_url, created_at FROM profiles
        WHERE username ILIKE '%' || $2 || '%'
        AND id <> $1
        AND id NOT IN (
            SELECT to_user FROM friend_requests WHERE from_user=$1
            UNION SELECT from_user FROM friend_requests WHERE to_user=$1
            UNION SELECT friend_id FROM friends WHERE user_id=$1
            UNION SELECT user_id FROM friends WHERE friend_id=$1
        )
        ORDER BY username ASC
        LIMIT $3`
	var profiles []models.Profile
	err := r.db.SelectContext(ctx, &profiles, sqlQuery, userID, query, limit)
	return profiles, err
}

// UpdateUsername changes the caller's username.
func (r *ProfileRepo) UpdateUsername(ctx context.Context, userID int, username string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE profiles SET username=$2 WHERE id=$1`, userID, username)
	if err != nil {
		return translateUniqueViolation(err)
	}
	return requireRow(res)
}

// UpdateEmail changes the caller's email.
func (r *ProfileRepo) UpdateEmail(ctx context.Context, userID int, email string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE profiles SET email=$2 WHERE id=$1`, userID, email)
	if err != nil {
		return translateUniqueViolation(err)
	}
	return requireRow(res)
}

// UpdatePassword stores a new password hash.
func (r *ProfileRepo) UpdatePassword(ctx context.Context, userID int, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE profiles SET password_hash=$2 WHERE id=$1`, userID, passwordHash)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateAvatarURL stores the signed avatar URL on the profile.
func (r *ProfileRepo) UpdateAvatarURL(ctx context.Context, userID int, avatarURL string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE profiles SET avatar_url=$2 WHERE id=$1`, userID, avatarURL)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func translateUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		switch pqErr.Constraint {
		case "profiles_username_key":
			return ErrUsernameTaken
		case "profiles_email_key":
			return ErrEmailTaken
		}
	}
	return err
}
