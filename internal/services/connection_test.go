package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ilyasvvv/BridgeAZ-sub000/internal/store"
	"github.com/ilyasvvv/BridgeAZ-sub000/types"
)

type fakeConnectionRepo struct {
	connections []types.Connection
	nextID      int64
}

func (f *fakeConnectionRepo) Get(_ context.Context, id int64) (types.Connection, error) {
	for _, connection := range f.connections {
		if connection.ID == id {
			return connection, nil
		}
	}
	return types.Connection{}, store.ErrNotFound
}

func (f *fakeConnectionRepo) GetBetween(_ context.Context, userA, userB int, kind types.ConnectionKind) (types.Connection, error) {
	for i := len(f.connections) - 1; i >= 0; i-- {
		connection := f.connections[i]
		if connection.Kind != kind {
			continue
		}
		samePair := (connection.RequesterID == userA && connection.AddresseeID == userB) ||
			(connection.RequesterID == userB && connection.AddresseeID == userA)
		if samePair {
			return connection, nil
		}
	}
	return types.Connection{}, store.ErrNotFound
}

func (f *fakeConnectionRepo) Create(_ context.Context, connection types.Connection) (types.Connection, error) {
	f.nextID++
	connection.ID = f.nextID
	connection.CreatedAt = time.Now()
	f.connections = append(f.connections, connection)
	return connection, nil
}

func (f *fakeConnectionRepo) Respond(_ context.Context, id int64, status types.ConnectionStatus) (types.Connection, error) {
	for i, connection := range f.connections {
		if connection.ID != id {
			continue
		}
		now := time.Now()
		connection.Status = status
		connection.RespondedAt = &now
		f.connections[i] = connection
		return connection, nil
	}
	return types.Connection{}, store.ErrNotFound
}

func (f *fakeConnectionRepo) ListForUser(_ context.Context, userID int, status types.ConnectionStatus) ([]types.Connection, error) {
	var result []types.Connection
	for _, connection := range f.connections {
		if connection.RequesterID != userID && connection.AddresseeID != userID {
			continue
		}
		if status != "" && connection.Status != status {
			continue
		}
		result = append(result, connection)
	}
	return result, nil
}

func (f *fakeConnectionRepo) AreConnected(_ context.Context, userA, userB int) (bool, error) {
	for _, connection := range f.connections {
		samePair := (connection.RequesterID == userA && connection.AddresseeID == userB) ||
			(connection.RequesterID == userB && connection.AddresseeID == userA)
		if samePair && connection.Status == types.ConnectionAccepted {
			return true, nil
		}
	}
	return false, nil
}

type fakeConnectionUsers struct {
	users map[int]types.User
}

func (f *fakeConnectionUsers) GetByID(_ context.Context, id int) (types.User, error) {
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func newConnectionFixture() (*ConnectionService, *fakeConnectionRepo) {
	repo := &fakeConnectionRepo{}
	users := &fakeConnectionUsers{users: map[int]types.User{
		1: {ID: 1, IsActive: true},
		2: {ID: 2, IsActive: true},
		3: {ID: 3, IsActive: true, MentorVerified: true, Roles: []types.Role{types.RoleMentor}},
		4: {ID: 4, IsActive: false},
		5: {ID: 5, IsActive: true, Roles: []types.Role{types.RoleMentor}},
	}}
	return NewConnectionService(repo, users), repo
}

func TestRequestConnection(t *testing.T) {
	svc, _ := newConnectionFixture()

	connection, err := svc.Request(context.Background(), 1, 2, types.KindConnection)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if connection.Status != types.ConnectionPending {
		t.Fatalf("expected pending, got %q", connection.Status)
	}
}

func TestRequestMentorshipRequiresVerifiedMentor(t *testing.T) {
	svc, _ := newConnectionFixture()

	if _, err := svc.Request(context.Background(), 1, 2, types.KindMentorship); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict for unverified addressee, got %v", err)
	}
	if _, err := svc.Request(context.Background(), 1, 3, types.KindMentorship); err != nil {
		t.Fatalf("mentorship to verified mentor: %v", err)
	}
	// The granted mentor role is what admits the request, not the
	// derived verification flag.
	if _, err := svc.Request(context.Background(), 2, 5, types.KindMentorship); err != nil {
		t.Fatalf("mentorship to mentor-role holder: %v", err)
	}
}

func TestRequestDuplicateConflicts(t *testing.T) {
	svc, _ := newConnectionFixture()

	if _, err := svc.Request(context.Background(), 1, 2, types.KindConnection); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if _, err := svc.Request(context.Background(), 1, 2, types.KindConnection); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict on duplicate, got %v", err)
	}
	// The reverse direction counts as the same pair.
	if _, err := svc.Request(context.Background(), 2, 1, types.KindConnection); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict on reverse duplicate, got %v", err)
	}
}

func TestRequestAfterDeclineAllowed(t *testing.T) {
	svc, _ := newConnectionFixture()

	connection, err := svc.Request(context.Background(), 1, 2, types.KindConnection)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := svc.Respond(context.Background(), 2, connection.ID, false); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if _, err := svc.Request(context.Background(), 1, 2, types.KindConnection); err != nil {
		t.Fatalf("re-request after decline: %v", err)
	}
}

func TestRequestDeactivatedAddressee(t *testing.T) {
	svc, _ := newConnectionFixture()

	if _, err := svc.Request(context.Background(), 1, 4, types.KindConnection); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found for deactivated addressee, got %v", err)
	}
}

func TestRespondOnlyAddressee(t *testing.T) {
	svc, _ := newConnectionFixture()

	connection, err := svc.Request(context.Background(), 1, 2, types.KindConnection)
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	if _, err := svc.Respond(context.Background(), 1, connection.ID, true); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner for requester response, got %v", err)
	}

	accepted, err := svc.Respond(context.Background(), 2, connection.ID, true)
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if accepted.Status != types.ConnectionAccepted {
		t.Fatalf("expected accepted, got %q", accepted.Status)
	}

	if _, err := svc.Respond(context.Background(), 2, connection.ID, false); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict on second response, got %v", err)
	}
}
