package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ilyasvvv/BridgeAZ-sub000/internal/mq"
	"github.com/ilyasvvv/BridgeAZ-sub000/internal/store"
	"github.com/ilyasvvv/BridgeAZ-sub000/types"
)

// ErrConflict is returned when an operation collides with existing state,
// e.g. submitting a new request while one is already pending.
var ErrConflict = errors.New("conflict")

// VerificationRepository defines persistence operations for verification
// requests.
type VerificationRepository interface {
	Get(ctx context.Context, id int64) (types.VerificationRequest, error)
	GetLatestByUserAndTrack(ctx context.Context, userID int, track types.VerificationTrack) (types.VerificationRequest, error)
	Create(ctx context.Context, request types.VerificationRequest) (types.VerificationRequest, error)
	Review(ctx context.Context, id int64, status types.RequestStatus, reviewerID int, comment string) (types.VerificationRequest, error)
	ListPending(ctx context.Context, offset, limit int) ([]types.VerificationRequest, int, error)
	ListByUser(ctx context.Context, userID int) ([]types.VerificationRequest, error)
}

// VerificationUserStore is the slice of user persistence the verification
// service needs: role grants and the derived-field write.
type VerificationUserStore interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	AddRole(ctx context.Context, id int, role types.Role) error
	UpdateVerificationFields(ctx context.Context, id int, state types.VerificationState) error
}

// VerificationService owns the verification request lifecycle and the
// reconciliation of derived user fields from request history.
type VerificationService struct {
	repo   VerificationRepository
	users  VerificationUserStore
	events *mq.MQ
}

// NewVerificationService constructs the service. events may be nil, in
// which case review decisions are not published.
func NewVerificationService(repo VerificationRepository, users VerificationUserStore, events *mq.MQ) *VerificationService {
	return &VerificationService{repo: repo, users: users, events: events}
}

// Submit creates a pending request on the given track and reconciles the
// user's derived fields. A track with a request still pending rejects
// resubmission with ErrConflict.
func (s *VerificationService) Submit(ctx context.Context, userID int, track types.VerificationTrack, documentKey string, metadata map[string]string) (types.VerificationRequest, error) {
	if !track.Valid() {
		return types.VerificationRequest{}, fmt.Errorf("invalid verification track %q", track)
	}
	if track == types.TrackStudent && documentKey == "" {
		return types.VerificationRequest{}, errors.New("student verification requires a document")
	}

	latest, err := s.repo.GetLatestByUserAndTrack(ctx, userID, track)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return types.VerificationRequest{}, err
	}
	if err == nil && latest.Status == types.RequestPending {
		return types.VerificationRequest{}, fmt.Errorf("%w: a %s request is already pending review", ErrConflict, track)
	}

	request, err := s.repo.Create(ctx, types.VerificationRequest{
		UserID:      userID,
		Track:       track,
		DocumentKey: documentKey,
		Status:      types.RequestPending,
		Metadata:    metadata,
	})
	if err != nil {
		return types.VerificationRequest{}, err
	}

	if _, err := s.Reconcile(ctx, userID); err != nil {
		return types.VerificationRequest{}, err
	}
	return request, nil
}

// Review applies the single allowed mutation to a pending request and
// reconciles the owner afterwards. Approving a mentor-track request also
// grants the mentor role directly: mentor capability gating does not
// depend on the derived snapshot.
func (s *VerificationService) Review(ctx context.Context, requestID int64, approve bool, reviewerID int, comment string) (types.VerificationRequest, error) {
	status := types.RequestRejected
	if approve {
		status = types.RequestApproved
	}

	request, err := s.repo.Review(ctx, requestID, status, reviewerID, comment)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Distinguish "no such request" from "already reviewed".
			existing, getErr := s.repo.Get(ctx, requestID)
			if getErr == nil && existing.Status != types.RequestPending {
				return types.VerificationRequest{}, fmt.Errorf("%w: request already reviewed", ErrConflict)
			}
		}
		return types.VerificationRequest{}, err
	}

	if approve && request.Track == types.TrackMentor {
		if err := s.users.AddRole(ctx, request.UserID, types.RoleMentor); err != nil {
			return types.VerificationRequest{}, err
		}
	}

	if _, err := s.Reconcile(ctx, request.UserID); err != nil {
		return types.VerificationRequest{}, err
	}

	s.publishReviewed(ctx, request)
	return request, nil
}

// publishReviewed emits the review decision event. Publishing is best
// effort: the decision is already persisted and reconciled.
func (s *VerificationService) publishReviewed(ctx context.Context, request types.VerificationRequest) {
	if s.events == nil {
		return
	}

	reviewedAt := ""
	if request.ReviewedAt != nil {
		reviewedAt = request.ReviewedAt.Format(time.RFC3339)
	}
	reviewerID := 0
	if request.ReviewerID != nil {
		reviewerID = *request.ReviewerID
	}

	payload, err := json.Marshal(mq.VerificationReviewedEvent{
		RequestID:  request.ID,
		UserID:     request.UserID,
		Track:      string(request.Track),
		Status:     string(request.Status),
		ReviewerID: reviewerID,
		ReviewedAt: reviewedAt,
	})
	if err != nil {
		return
	}
	if _, err := s.events.Publish(ctx, mq.TopicVerificationReviewed, payload, nil); err != nil {
		slog.Warn("failed to publish verification review event", "request_id", request.ID, "error", err)
	}
}

// Reconcile recomputes the user's derived verification fields from the
// authoritative request history and persists them in one update. It is
// idempotent and performs exactly one read pair and one write. Callers
// are responsible for authorization; concurrent invocations for the same
// user race benignly with last-writer-wins.
func (s *VerificationService) Reconcile(ctx context.Context, userID int) (types.VerificationState, error) {
	studentStatus, err := s.latestTrackStatus(ctx, userID, types.TrackStudent)
	if err != nil {
		return types.VerificationState{}, err
	}
	mentorStatus, err := s.latestTrackStatus(ctx, userID, types.TrackMentor)
	if err != nil {
		return types.VerificationState{}, err
	}

	state := types.VerificationState{
		StudentStatus:   studentStatus,
		MentorStatus:    mentorStatus,
		StudentVerified: studentStatus == types.TrackApproved,
		MentorVerified:  mentorStatus == types.TrackApproved,
		Aggregate:       aggregateOf(studentStatus, mentorStatus),
	}

	if err := s.users.UpdateVerificationFields(ctx, userID, state); err != nil {
		return types.VerificationState{}, err
	}
	return state, nil
}

func (s *VerificationService) latestTrackStatus(ctx context.Context, userID int, track types.VerificationTrack) (types.TrackStatus, error) {
	latest, err := s.repo.GetLatestByUserAndTrack(ctx, userID, track)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.TrackNone, nil
		}
		return "", err
	}
	return latest.TrackStatus(), nil
}

// aggregateOf folds the two track statuses into the legacy display value.
// Precedence: pending over approved over rejected, with unverified as the
// base case.
func aggregateOf(student, mentor types.TrackStatus) types.AggregateStatus {
	if student == types.TrackPending || mentor == types.TrackPending {
		return types.AggregatePending
	}
	if student == types.TrackApproved || mentor == types.TrackApproved {
		return types.AggregateVerified
	}
	if student == types.TrackRejected || mentor == types.TrackRejected {
		return types.AggregateRejected
	}
	return types.AggregateUnverified
}

// StatusFor returns the persisted derived state together with the full
// request history for the user's own status view.
func (s *VerificationService) StatusFor(ctx context.Context, userID int) (types.VerificationState, []types.VerificationRequest, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return types.VerificationState{}, nil, err
	}

	history, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return types.VerificationState{}, nil, err
	}

	state := types.VerificationState{
		StudentStatus:   user.StudentTrackStatus,
		MentorStatus:    user.MentorTrackStatus,
		StudentVerified: user.StudentVerified,
		MentorVerified:  user.MentorVerified,
		Aggregate:       user.VerificationStatus,
	}
	return state, history, nil
}

// Get returns a single verification request.
func (s *VerificationService) Get(ctx context.Context, id int64) (types.VerificationRequest, error) {
	return s.repo.Get(ctx, id)
}

// ListPending returns the staff review queue.
func (s *VerificationService) ListPending(ctx context.Context, offset, limit int) ([]types.VerificationRequest, int, error) {
	return s.repo.ListPending(ctx, offset, limit)
}
