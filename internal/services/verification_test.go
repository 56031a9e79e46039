package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ilyasvvv/BridgeAZ-sub000/internal/store"
	"github.com/ilyasvvv/BridgeAZ-sub000/types"
)

type fakeVerificationRepo struct {
	requests []types.VerificationRequest
	nextID   int64
}

func (f *fakeVerificationRepo) Get(_ context.Context, id int64) (types.VerificationRequest, error) {
	for _, request := range f.requests {
		if request.ID == id {
			return request, nil
		}
	}
	return types.VerificationRequest{}, store.ErrNotFound
}

func (f *fakeVerificationRepo) GetLatestByUserAndTrack(_ context.Context, userID int, track types.VerificationTrack) (types.VerificationRequest, error) {
	var latest types.VerificationRequest
	found := false
	for _, request := range f.requests {
		if request.UserID != userID || request.Track != track {
			continue
		}
		if !found ||
			request.CreatedAt.After(latest.CreatedAt) ||
			(request.CreatedAt.Equal(latest.CreatedAt) && request.ID > latest.ID) {
			latest = request
			found = true
		}
	}
	if !found {
		return types.VerificationRequest{}, store.ErrNotFound
	}
	return latest, nil
}

func (f *fakeVerificationRepo) Create(_ context.Context, request types.VerificationRequest) (types.VerificationRequest, error) {
	f.nextID++
	request.ID = f.nextID
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now()
	}
	f.requests = append(f.requests, request)
	return request, nil
}

func (f *fakeVerificationRepo) Review(_ context.Context, id int64, status types.RequestStatus, reviewerID int, comment string) (types.VerificationRequest, error) {
	for i, request := range f.requests {
		if request.ID != id {
			continue
		}
		if request.Status != types.RequestPending {
			return types.VerificationRequest{}, store.ErrNotFound
		}
		now := time.Now()
		request.Status = status
		request.ReviewerID = &reviewerID
		request.Comment = comment
		request.ReviewedAt = &now
		f.requests[i] = request
		return request, nil
	}
	return types.VerificationRequest{}, store.ErrNotFound
}

func (f *fakeVerificationRepo) ListPending(_ context.Context, offset, limit int) ([]types.VerificationRequest, int, error) {
	var pending []types.VerificationRequest
	for _, request := range f.requests {
		if request.Status == types.RequestPending {
			pending = append(pending, request)
		}
	}
	return pending, len(pending), nil
}

func (f *fakeVerificationRepo) ListByUser(_ context.Context, userID int) ([]types.VerificationRequest, error) {
	var history []types.VerificationRequest
	for _, request := range f.requests {
		if request.UserID == userID {
			history = append(history, request)
		}
	}
	return history, nil
}

func (f *fakeVerificationRepo) seed(request types.VerificationRequest) {
	if request.ID == 0 {
		f.nextID++
		request.ID = f.nextID
	} else if request.ID > f.nextID {
		f.nextID = request.ID
	}
	f.requests = append(f.requests, request)
}

type fakeUserStore struct {
	users  map[int]types.User
	states map[int]types.VerificationState
	writes int
}

func newFakeUserStore(ids ...int) *fakeUserStore {
	f := &fakeUserStore{
		users:  make(map[int]types.User),
		states: make(map[int]types.VerificationState),
	}
	for _, id := range ids {
		f.users[id] = types.User{ID: id, IsActive: true}
	}
	return f
}

func (f *fakeUserStore) GetByID(_ context.Context, id int) (types.User, error) {
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserStore) AddRole(_ context.Context, id int, role types.Role) error {
	user, ok := f.users[id]
	if !ok {
		return store.ErrNotFound
	}
	if !user.HasRole(role) {
		user.Roles = append(user.Roles, role)
		f.users[id] = user
	}
	return nil
}

func (f *fakeUserStore) UpdateVerificationFields(_ context.Context, id int, state types.VerificationState) error {
	if _, ok := f.users[id]; !ok {
		return store.ErrNotFound
	}
	f.states[id] = state
	f.writes++
	return nil
}

func newTestVerificationService(repo *fakeVerificationRepo, users *fakeUserStore) *VerificationService {
	return NewVerificationService(repo, users, nil)
}

func TestReconcileNoRequests(t *testing.T) {
	repo := &fakeVerificationRepo{}
	users := newFakeUserStore(1)
	svc := newTestVerificationService(repo, users)

	state, err := svc.Reconcile(context.Background(), 1)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if state.StudentStatus != types.TrackNone || state.MentorStatus != types.TrackNone {
		t.Fatalf("expected both tracks none, got %q / %q", state.StudentStatus, state.MentorStatus)
	}
	if state.StudentVerified || state.MentorVerified {
		t.Fatalf("expected no verified flags")
	}
	if state.Aggregate != types.AggregateUnverified {
		t.Fatalf("expected unverified aggregate, got %q", state.Aggregate)
	}
	if users.writes != 1 {
		t.Fatalf("expected one write, got %d", users.writes)
	}
}

func TestReconcileMissingUser(t *testing.T) {
	repo := &fakeVerificationRepo{}
	users := newFakeUserStore()
	svc := newTestVerificationService(repo, users)

	if _, err := svc.Reconcile(context.Background(), 42); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReconcileAggregatePrecedence(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name            string
		student         types.RequestStatus
		mentor          types.RequestStatus
		aggregate       types.AggregateStatus
		studentVerified bool
		mentorVerified  bool
	}{
		{"pending beats approved", types.RequestPending, types.RequestApproved, types.AggregatePending, false, true},
		{"approved with mentor pending", types.RequestApproved, types.RequestPending, types.AggregatePending, true, false},
		{"pending beats rejected", types.RequestRejected, types.RequestPending, types.AggregatePending, false, false},
		{"approved beats rejected", types.RequestApproved, types.RequestRejected, types.AggregateVerified, true, false},
		{"both approved", types.RequestApproved, types.RequestApproved, types.AggregateVerified, true, true},
		{"both rejected", types.RequestRejected, types.RequestRejected, types.AggregateRejected, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeVerificationRepo{}
			repo.seed(types.VerificationRequest{
				UserID: 1, Track: types.TrackStudent, Status: tc.student, CreatedAt: base,
			})
			repo.seed(types.VerificationRequest{
				UserID: 1, Track: types.TrackMentor, Status: tc.mentor, CreatedAt: base,
			})
			users := newFakeUserStore(1)
			svc := newTestVerificationService(repo, users)

			state, err := svc.Reconcile(context.Background(), 1)
			if err != nil {
				t.Fatalf("reconcile: %v", err)
			}
			if state.Aggregate != tc.aggregate {
				t.Fatalf("expected aggregate %q, got %q", tc.aggregate, state.Aggregate)
			}
			if state.StudentVerified != tc.studentVerified {
				t.Fatalf("expected student_verified %v, got %v", tc.studentVerified, state.StudentVerified)
			}
			if state.MentorVerified != tc.mentorVerified {
				t.Fatalf("expected mentor_verified %v, got %v", tc.mentorVerified, state.MentorVerified)
			}
		})
	}
}

func TestReconcileLatestRequestWins(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeVerificationRepo{}
	repo.seed(types.VerificationRequest{
		UserID: 1, Track: types.TrackStudent, Status: types.RequestApproved, CreatedAt: base,
	})
	repo.seed(types.VerificationRequest{
		UserID: 1, Track: types.TrackStudent, Status: types.RequestRejected, CreatedAt: base.Add(time.Hour),
	})
	users := newFakeUserStore(1)
	svc := newTestVerificationService(repo, users)

	state, err := svc.Reconcile(context.Background(), 1)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if state.StudentStatus != types.TrackRejected {
		t.Fatalf("expected latest rejection to win, got %q", state.StudentStatus)
	}
	if state.StudentVerified {
		t.Fatalf("expected student_verified false after rejection")
	}
}

func TestReconcileTimestampTieBreaksOnID(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeVerificationRepo{}
	repo.seed(types.VerificationRequest{
		ID: 7, UserID: 1, Track: types.TrackStudent, Status: types.RequestRejected, CreatedAt: base,
	})
	repo.seed(types.VerificationRequest{
		ID: 8, UserID: 1, Track: types.TrackStudent, Status: types.RequestApproved, CreatedAt: base,
	})
	users := newFakeUserStore(1)
	svc := newTestVerificationService(repo, users)

	state, err := svc.Reconcile(context.Background(), 1)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if state.StudentStatus != types.TrackApproved {
		t.Fatalf("expected higher id to win the tie, got %q", state.StudentStatus)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeVerificationRepo{}
	repo.seed(types.VerificationRequest{
		UserID: 1, Track: types.TrackStudent, Status: types.RequestApproved, CreatedAt: base,
	})
	users := newFakeUserStore(1)
	svc := newTestVerificationService(repo, users)

	first, err := svc.Reconcile(context.Background(), 1)
	if err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	second, err := svc.Reconcile(context.Background(), 1)
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical states, got %+v then %+v", first, second)
	}
	if users.writes != 2 {
		t.Fatalf("expected one write per reconcile, got %d", users.writes)
	}
}

func TestSubmitRejectsDuplicatePending(t *testing.T) {
	repo := &fakeVerificationRepo{}
	users := newFakeUserStore(1)
	svc := newTestVerificationService(repo, users)

	if _, err := svc.Submit(context.Background(), 1, types.TrackStudent, "verification/1/doc.pdf", nil); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	_, err := svc.Submit(context.Background(), 1, types.TrackStudent, "verification/1/doc2.pdf", nil)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestSubmitStudentRequiresDocument(t *testing.T) {
	repo := &fakeVerificationRepo{}
	users := newFakeUserStore(1)
	svc := newTestVerificationService(repo, users)

	if _, err := svc.Submit(context.Background(), 1, types.TrackStudent, "", nil); err == nil {
		t.Fatalf("expected error for missing document")
	}
	if _, err := svc.Submit(context.Background(), 1, types.TrackMentor, "", nil); err != nil {
		t.Fatalf("mentor submit without document: %v", err)
	}
}

func TestSubmitMarksUserPending(t *testing.T) {
	repo := &fakeVerificationRepo{}
	users := newFakeUserStore(1)
	svc := newTestVerificationService(repo, users)

	if _, err := svc.Submit(context.Background(), 1, types.TrackStudent, "verification/1/doc.pdf", nil); err != nil {
		t.Fatalf("submit: %v", err)
	}

	state := users.states[1]
	if state.StudentStatus != types.TrackPending {
		t.Fatalf("expected pending student track, got %q", state.StudentStatus)
	}
	if state.Aggregate != types.AggregatePending {
		t.Fatalf("expected pending aggregate, got %q", state.Aggregate)
	}
}

func TestReviewApprovalReconcilesOwner(t *testing.T) {
	repo := &fakeVerificationRepo{}
	users := newFakeUserStore(1, 9)
	svc := newTestVerificationService(repo, users)

	request, err := svc.Submit(context.Background(), 1, types.TrackStudent, "verification/1/doc.pdf", nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	reviewed, err := svc.Review(context.Background(), request.ID, true, 9, "looks good")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.Status != types.RequestApproved {
		t.Fatalf("expected approved, got %q", reviewed.Status)
	}
	if reviewed.ReviewerID == nil || *reviewed.ReviewerID != 9 {
		t.Fatalf("expected reviewer 9, got %v", reviewed.ReviewerID)
	}

	state := users.states[1]
	if !state.StudentVerified {
		t.Fatalf("expected student_verified after approval")
	}
	if state.Aggregate != types.AggregateVerified {
		t.Fatalf("expected verified aggregate, got %q", state.Aggregate)
	}
}

func TestReviewMentorApprovalGrantsRole(t *testing.T) {
	repo := &fakeVerificationRepo{}
	users := newFakeUserStore(1, 9)
	svc := newTestVerificationService(repo, users)

	request, err := svc.Submit(context.Background(), 1, types.TrackMentor, "", nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Review(context.Background(), request.ID, true, 9, ""); err != nil {
		t.Fatalf("review: %v", err)
	}

	user := users.users[1]
	if !user.HasRole(types.RoleMentor) {
		t.Fatalf("expected mentor role after approval, roles: %v", user.Roles)
	}
	if !users.states[1].MentorVerified {
		t.Fatalf("expected mentor_verified after approval")
	}
}

func TestReviewRejectionDoesNotGrantRole(t *testing.T) {
	repo := &fakeVerificationRepo{}
	users := newFakeUserStore(1, 9)
	svc := newTestVerificationService(repo, users)

	request, err := svc.Submit(context.Background(), 1, types.TrackMentor, "", nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Review(context.Background(), request.ID, false, 9, "insufficient experience"); err != nil {
		t.Fatalf("review: %v", err)
	}

	if users.users[1].HasRole(types.RoleMentor) {
		t.Fatalf("rejection must not grant the mentor role")
	}
	if users.states[1].MentorStatus != types.TrackRejected {
		t.Fatalf("expected rejected mentor track, got %q", users.states[1].MentorStatus)
	}
}

func TestReviewTwiceConflicts(t *testing.T) {
	repo := &fakeVerificationRepo{}
	users := newFakeUserStore(1, 9)
	svc := newTestVerificationService(repo, users)

	request, err := svc.Submit(context.Background(), 1, types.TrackStudent, "verification/1/doc.pdf", nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Review(context.Background(), request.ID, true, 9, ""); err != nil {
		t.Fatalf("first review: %v", err)
	}

	_, err = svc.Review(context.Background(), request.ID, false, 9, "changed my mind")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict on double review, got %v", err)
	}
}

func TestReviewUnknownRequest(t *testing.T) {
	repo := &fakeVerificationRepo{}
	users := newFakeUserStore(9)
	svc := newTestVerificationService(repo, users)

	if _, err := svc.Review(context.Background(), 123, true, 9, ""); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestResubmitAfterRejection(t *testing.T) {
	repo := &fakeVerificationRepo{}
	users := newFakeUserStore(1, 9)
	svc := newTestVerificationService(repo, users)

	request, err := svc.Submit(context.Background(), 1, types.TrackStudent, "verification/1/doc.pdf", nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Review(context.Background(), request.ID, false, 9, "unreadable document"); err != nil {
		t.Fatalf("review: %v", err)
	}

	if _, err := svc.Submit(context.Background(), 1, types.TrackStudent, "verification/1/doc2.pdf", nil); err != nil {
		t.Fatalf("resubmit after rejection: %v", err)
	}
	if users.states[1].StudentStatus != types.TrackPending {
		t.Fatalf("expected pending after resubmission, got %q", users.states[1].StudentStatus)
	}
}
