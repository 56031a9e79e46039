package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ilyasvvv/BridgeAZ-sub000/internal/store"
	"github.com/ilyasvvv/BridgeAZ-sub000/types"
)

// ConnectionRepository defines persistence operations for connection and
// mentorship requests.
type ConnectionRepository interface {
	Get(ctx context.Context, id int64) (types.Connection, error)
	GetBetween(ctx context.Context, userA, userB int, kind types.ConnectionKind) (types.Connection, error)
	Create(ctx context.Context, connection types.Connection) (types.Connection, error)
	Respond(ctx context.Context, id int64, status types.ConnectionStatus) (types.Connection, error)
	ListForUser(ctx context.Context, userID int, status types.ConnectionStatus) ([]types.Connection, error)
	AreConnected(ctx context.Context, userA, userB int) (bool, error)
}

// ConnectionUserStore is the slice of user persistence connection logic
// needs.
type ConnectionUserStore interface {
	GetByID(ctx context.Context, id int) (types.User, error)
}

// ConnectionService encapsulates connection and mentorship use-cases.
type ConnectionService struct {
	repo  ConnectionRepository
	users ConnectionUserStore
}

func NewConnectionService(repo ConnectionRepository, users ConnectionUserStore) *ConnectionService {
	return &ConnectionService{repo: repo, users: users}
}

// Request creates a pending relationship request. A mentorship request
// may only target a verified mentor; a duplicate live request between
// the same pair is rejected with ErrConflict.
func (s *ConnectionService) Request(ctx context.Context, requesterID, addresseeID int, kind types.ConnectionKind) (types.Connection, error) {
	if !kind.Valid() {
		return types.Connection{}, fmt.Errorf("invalid connection kind %q", kind)
	}
	if requesterID == addresseeID {
		return types.Connection{}, errors.New("cannot connect to yourself")
	}

	addressee, err := s.users.GetByID(ctx, addresseeID)
	if err != nil {
		return types.Connection{}, err
	}
	if !addressee.IsActive {
		return types.Connection{}, fmt.Errorf("%w: account is deactivated", store.ErrNotFound)
	}
	if kind == types.KindMentorship && !addressee.HasRole(types.RoleMentor) {
		return types.Connection{}, fmt.Errorf("%w: addressee is not a verified mentor", ErrConflict)
	}

	existing, err := s.repo.GetBetween(ctx, requesterID, addresseeID, kind)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return types.Connection{}, err
	}
	if err == nil && existing.Status != types.ConnectionDeclined {
		return types.Connection{}, fmt.Errorf("%w: a %s between these users already exists", ErrConflict, kind)
	}

	return s.repo.Create(ctx, types.Connection{
		RequesterID: requesterID,
		AddresseeID: addresseeID,
		Kind:        kind,
		Status:      types.ConnectionPending,
	})
}

// Respond accepts or declines a pending request. Only the addressee may
// answer.
func (s *ConnectionService) Respond(ctx context.Context, userID int, connectionID int64, accept bool) (types.Connection, error) {
	connection, err := s.repo.Get(ctx, connectionID)
	if err != nil {
		return types.Connection{}, err
	}
	if connection.AddresseeID != userID {
		return types.Connection{}, ErrNotOwner
	}
	if connection.Status != types.ConnectionPending {
		return types.Connection{}, fmt.Errorf("%w: request already answered", ErrConflict)
	}

	status := types.ConnectionDeclined
	if accept {
		status = types.ConnectionAccepted
	}
	return s.repo.Respond(ctx, connectionID, status)
}

// ListForUser returns the user's requests, optionally filtered by
// status ("" for all).
func (s *ConnectionService) ListForUser(ctx context.Context, userID int, status types.ConnectionStatus) ([]types.Connection, error) {
	return s.repo.ListForUser(ctx, userID, status)
}
