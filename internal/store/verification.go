package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/ilyasvvv/BridgeAZ-sub000/types"
)

const verificationColumns = `
	id, user_id, track, document_key, status, reviewer_id, comment,
	metadata, created_at, reviewed_at`

// VerificationRepository handles persistence for verification requests.
type VerificationRepository struct {
	db *sql.DB
}

func NewVerificationRepository(db *sql.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

func scanVerificationRequest(row interface{ Scan(...any) error }) (types.VerificationRequest, error) {
	var request types.VerificationRequest
	var reviewerID sql.NullInt64
	var metadataJSON []byte
	err := row.Scan(
		&request.ID,
		&request.UserID,
		&request.Track,
		&request.DocumentKey,
		&request.Status,
		&reviewerID,
		&request.Comment,
		&metadataJSON,
		&request.CreatedAt,
		&request.ReviewedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.VerificationRequest{}, ErrNotFound
		}
		return types.VerificationRequest{}, err
	}
	if reviewerID.Valid {
		id := int(reviewerID.Int64)
		request.ReviewerID = &id
	}
	_ = json.Unmarshal(metadataJSON, &request.Metadata)
	return request, nil
}

func (r *VerificationRepository) Get(ctx context.Context, id int64) (types.VerificationRequest, error) {
	const query = `SELECT` + verificationColumns + `
		FROM verification_requests
		WHERE id = $1`
	return scanVerificationRequest(r.db.QueryRowContext(ctx, query, id))
}

// GetLatestByUserAndTrack returns the single authoritative request for
// the (user, track) pair: newest creation timestamp, with the insertion
// id breaking ties from bulk imports.
func (r *VerificationRepository) GetLatestByUserAndTrack(ctx context.Context, userID int, track types.VerificationTrack) (types.VerificationRequest, error) {
	const query = `SELECT` + verificationColumns + `
		FROM verification_requests
		WHERE user_id = $1 AND track = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
	return scanVerificationRequest(r.db.QueryRowContext(ctx, query, userID, track))
}

func (r *VerificationRepository) Create(ctx context.Context, request types.VerificationRequest) (types.VerificationRequest, error) {
	request.CreatedAt = time.Now()

	metadataJSON, err := json.Marshal(request.Metadata)
	if err != nil {
		return types.VerificationRequest{}, err
	}

	const query = `
		INSERT INTO verification_requests (user_id, track, document_key, status, comment, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		request.UserID,
		request.Track,
		request.DocumentKey,
		request.Status,
		request.Comment,
		metadataJSON,
		request.CreatedAt,
	).Scan(&request.ID); err != nil {
		return types.VerificationRequest{}, err
	}
	return request, nil
}

// Review records the single allowed mutation of a request: a pending
// request moves to approved or rejected along with reviewer id, comment,
// and review timestamp. Already-reviewed requests are not matched, so a
// double review reports ErrNotFound.
func (r *VerificationRepository) Review(ctx context.Context, id int64, status types.RequestStatus, reviewerID int, comment string) (types.VerificationRequest, error) {
	const query = `
		UPDATE verification_requests
		SET status = $1,
			reviewer_id = $2,
			comment = $3,
			reviewed_at = $4
		WHERE id = $5 AND status = $6
		RETURNING` + verificationColumns
	return scanVerificationRequest(r.db.QueryRowContext(
		ctx,
		query,
		status,
		reviewerID,
		comment,
		time.Now(),
		id,
		types.RequestPending,
	))
}

// ListPending returns pending requests oldest first for the review queue.
func (r *VerificationRepository) ListPending(ctx context.Context, offset, limit int) ([]types.VerificationRequest, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	const countQuery = `SELECT COUNT(1) FROM verification_requests WHERE status = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, types.RequestPending).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `SELECT` + verificationColumns + `
		FROM verification_requests
		WHERE status = $1
		ORDER BY created_at, id
		OFFSET $2 LIMIT $3`
	rows, err := r.db.QueryContext(ctx, listQuery, types.RequestPending, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	requests := make([]types.VerificationRequest, 0, limit)
	for rows.Next() {
		request, err := scanVerificationRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

// ListByUser returns a user's full request history, newest first.
func (r *VerificationRepository) ListByUser(ctx context.Context, userID int) ([]types.VerificationRequest, error) {
	const query = `SELECT` + verificationColumns + `
		FROM verification_requests
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []types.VerificationRequest
	for rows.Next() {
		request, err := scanVerificationRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}
