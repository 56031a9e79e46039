package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ilyasvvv/BridgeAZ-sub000/types"
	"github.com/lib/pq"
)

const userColumns = `
	id, username, email, name, headline, bio, region, avatar_key,
	roles, is_admin, is_active,
	student_verification_status, mentor_verification_status,
	student_verified, mentor_verified, verification_status,
	password_hash, created_at, updated_at`

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row interface{ Scan(...any) error }) (types.User, error) {
	var user types.User
	var roles pq.StringArray
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Name,
		&user.Headline,
		&user.Bio,
		&user.Region,
		&user.AvatarKey,
		&roles,
		&user.IsAdmin,
		&user.IsActive,
		&user.StudentTrackStatus,
		&user.MentorTrackStatus,
		&user.StudentVerified,
		&user.MentorVerified,
		&user.VerificationStatus,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	user.Roles = rolesFromStrings(roles)
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `SELECT` + userColumns + `
		FROM users
		WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	const query = `SELECT` + userColumns + `
		FROM users
		WHERE username = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `SELECT` + userColumns + `
		FROM users
		WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	const query = `
		INSERT INTO users (
			username, email, name, headline, bio, region, avatar_key,
			roles, is_admin, is_active,
			student_verification_status, mentor_verification_status,
			student_verified, mentor_verified, verification_status,
			password_hash, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Username,
		user.Email,
		user.Name,
		user.Headline,
		user.Bio,
		user.Region,
		user.AvatarKey,
		pq.Array(rolesToStrings(user.Roles)),
		user.IsAdmin,
		user.IsActive,
		user.StudentTrackStatus,
		user.MentorTrackStatus,
		user.StudentVerified,
		user.MentorVerified,
		user.VerificationStatus,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		return types.User{}, err
	}
	return user, nil
}

// UpdateProfile persists the mutable profile fields only.
func (r *UserRepository) UpdateProfile(ctx context.Context, user types.User) (types.User, error) {
	user.UpdatedAt = time.Now()

	const query = `
		UPDATE users
		SET name = $1,
			headline = $2,
			bio = $3,
			region = $4,
			avatar_key = $5,
			updated_at = $6
		WHERE id = $7`
	result, err := r.db.ExecContext(
		ctx,
		query,
		user.Name,
		user.Headline,
		user.Bio,
		user.Region,
		user.AvatarKey,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return types.User{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.User{}, err
	}
	if affected == 0 {
		return types.User{}, ErrNotFound
	}
	return user, nil
}

// SetRoles replaces the role set. Staff-only operation; callers enforce
// authorization.
func (r *UserRepository) SetRoles(ctx context.Context, id int, roles []types.Role) error {
	const query = `
		UPDATE users
		SET roles = $1,
			updated_at = $2
		WHERE id = $3`
	return r.execExpectingRow(ctx, query, pq.Array(rolesToStrings(roles)), time.Now(), id)
}

// AddRole appends a role when not already held.
func (r *UserRepository) AddRole(ctx context.Context, id int, role types.Role) error {
	const query = `
		UPDATE users
		SET roles = array_append(roles, $1),
			updated_at = $2
		WHERE id = $3 AND NOT ($1 = ANY(roles))`
	result, err := r.db.ExecContext(ctx, query, string(role), time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Either the user is gone or the role was already held. Only the
		// former is an error.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// SetActive flips the account deactivation flag.
func (r *UserRepository) SetActive(ctx context.Context, id int, active bool) error {
	const query = `
		UPDATE users
		SET is_active = $1,
			updated_at = $2
		WHERE id = $3`
	return r.execExpectingRow(ctx, query, active, time.Now(), id)
}

// UpdateVerificationFields persists the reconciled verification snapshot
// in a single update.
func (r *UserRepository) UpdateVerificationFields(ctx context.Context, id int, state types.VerificationState) error {
	const query = `
		UPDATE users
		SET student_verification_status = $1,
			mentor_verification_status = $2,
			student_verified = $3,
			mentor_verified = $4,
			verification_status = $5,
			updated_at = $6
		WHERE id = $7`
	return r.execExpectingRow(
		ctx,
		query,
		state.StudentStatus,
		state.MentorStatus,
		state.StudentVerified,
		state.MentorVerified,
		state.Aggregate,
		time.Now(),
		id,
	)
}

func (r *UserRepository) List(ctx context.Context, offset, limit int) ([]types.User, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	const countQuery = `SELECT COUNT(1) FROM users`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `SELECT` + userColumns + `
		FROM users
		ORDER BY id
		OFFSET $1 LIMIT $2`
	rows, err := r.db.QueryContext(ctx, listQuery, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]types.User, 0, limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// ListIDs streams all user ids in insertion order. Used by the backfill
// command, which reconciles every account.
func (r *UserRepository) ListIDs(ctx context.Context) ([]int, error) {
	const query = `SELECT id FROM users ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *UserRepository) execExpectingRow(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func rolesToStrings(roles []types.Role) []string {
	out := make([]string, 0, len(roles))
	for _, role := range roles {
		out = append(out, string(role))
	}
	return out
}

func rolesFromStrings(raw []string) []types.Role {
	out := make([]types.Role, 0, len(raw))
	for _, value := range raw {
		out = append(out, types.Role(value))
	}
	return out
}
