package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ilyasvvv/BridgeAZ-sub000/types"
)

const connectionColumns = `
	id, requester_id, addressee_id, kind, status, created_at, responded_at`

// ConnectionRepository handles persistence for connection and mentorship
// requests.
type ConnectionRepository struct {
	db *sql.DB
}

func NewConnectionRepository(db *sql.DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

func scanConnection(row interface{ Scan(...any) error }) (types.Connection, error) {
	var connection types.Connection
	err := row.Scan(
		&connection.ID,
		&connection.RequesterID,
		&connection.AddresseeID,
		&connection.Kind,
		&connection.Status,
		&connection.CreatedAt,
		&connection.RespondedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Connection{}, ErrNotFound
		}
		return types.Connection{}, err
	}
	return connection, nil
}

func (r *ConnectionRepository) Get(ctx context.Context, id int64) (types.Connection, error) {
	const query = `SELECT` + connectionColumns + `
		FROM connections
		WHERE id = $1`
	return scanConnection(r.db.QueryRowContext(ctx, query, id))
}

// GetBetween returns the most recent request of the given kind between
// two users, in either direction.
func (r *ConnectionRepository) GetBetween(ctx context.Context, userA, userB int, kind types.ConnectionKind) (types.Connection, error) {
	const query = `SELECT` + connectionColumns + `
		FROM connections
		WHERE kind = $3
		  AND ((requester_id = $1 AND addressee_id = $2) OR (requester_id = $2 AND addressee_id = $1))
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
	return scanConnection(r.db.QueryRowContext(ctx, query, userA, userB, kind))
}

func (r *ConnectionRepository) Create(ctx context.Context, connection types.Connection) (types.Connection, error) {
	connection.CreatedAt = time.Now()

	const query = `
		INSERT INTO connections (requester_id, addressee_id, kind, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		connection.RequesterID,
		connection.AddresseeID,
		connection.Kind,
		connection.Status,
		connection.CreatedAt,
	).Scan(&connection.ID); err != nil {
		return types.Connection{}, err
	}
	return connection, nil
}

// Respond moves a pending request to accepted or declined. A request
// that has already been answered is not matched and reports ErrNotFound.
func (r *ConnectionRepository) Respond(ctx context.Context, id int64, status types.ConnectionStatus) (types.Connection, error) {
	const query = `
		UPDATE connections
		SET status = $1,
			responded_at = $2
		WHERE id = $3 AND status = $4
		RETURNING` + connectionColumns
	return scanConnection(r.db.QueryRowContext(ctx, query, status, time.Now(), id, types.ConnectionPending))
}

// ListForUser returns requests involving the user, optionally filtered
// by status, newest first.
func (r *ConnectionRepository) ListForUser(ctx context.Context, userID int, status types.ConnectionStatus) ([]types.Connection, error) {
	const query = `SELECT` + connectionColumns + `
		FROM connections
		WHERE (requester_id = $1 OR addressee_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var connections []types.Connection
	for rows.Next() {
		connection, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		connections = append(connections, connection)
	}
	return connections, rows.Err()
}

// AreConnected reports whether an accepted relationship of any kind
// exists between the two users.
func (r *ConnectionRepository) AreConnected(ctx context.Context, userA, userB int) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM connections
			WHERE status = $3
			  AND ((requester_id = $1 AND addressee_id = $2) OR (requester_id = $2 AND addressee_id = $1))
		)`
	var connected bool
	err := r.db.QueryRowContext(ctx, query, userA, userB, types.ConnectionAccepted).Scan(&connected)
	return connected, err
}
