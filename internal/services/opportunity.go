package services

import (
	"context"
	"errors"
	"strings"

	"github.com/ilyasvvv/BridgeAZ-sub000/internal/store"
	"github.com/ilyasvvv/BridgeAZ-sub000/types"
)

// OpportunityRepository defines persistence operations for listings.
type OpportunityRepository interface {
	List(ctx context.Context, filter store.OpportunityFilter, offset, limit int) ([]types.Opportunity, int, error)
	Get(ctx context.Context, id int64) (types.Opportunity, error)
	Create(ctx context.Context, opportunity types.Opportunity) (types.Opportunity, error)
	Update(ctx context.Context, opportunity types.Opportunity) (types.Opportunity, error)
	Delete(ctx context.Context, id int64) error
}

// OpportunityService encapsulates opportunity board use-cases.
type OpportunityService struct {
	repo OpportunityRepository
}

func NewOpportunityService(repo OpportunityRepository) *OpportunityService {
	return &OpportunityService{repo: repo}
}

func (s *OpportunityService) List(ctx context.Context, filter store.OpportunityFilter, offset, limit int) ([]types.Opportunity, int, error) {
	return s.repo.List(ctx, filter, offset, limit)
}

func (s *OpportunityService) Get(ctx context.Context, id int64) (types.Opportunity, error) {
	return s.repo.Get(ctx, id)
}

func (s *OpportunityService) Create(ctx context.Context, opportunity types.Opportunity) (types.Opportunity, error) {
	if err := validateOpportunity(&opportunity); err != nil {
		return types.Opportunity{}, err
	}
	opportunity.IsOpen = true
	return s.repo.Create(ctx, opportunity)
}

// Update edits a listing. Only the author may edit; staff close or
// remove listings instead.
func (s *OpportunityService) Update(ctx context.Context, editorID int, opportunity types.Opportunity) (types.Opportunity, error) {
	existing, err := s.repo.Get(ctx, opportunity.ID)
	if err != nil {
		return types.Opportunity{}, err
	}
	if existing.PostedBy != editorID {
		return types.Opportunity{}, ErrNotOwner
	}
	if err := validateOpportunity(&opportunity); err != nil {
		return types.Opportunity{}, err
	}
	opportunity.PostedBy = existing.PostedBy
	return s.repo.Update(ctx, opportunity)
}

// Delete removes a listing when the actor is the author or staffOverride
// is set by the handler after a rank check.
func (s *OpportunityService) Delete(ctx context.Context, actorID int, id int64, staffOverride bool) error {
	opportunity, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if opportunity.PostedBy != actorID && !staffOverride {
		return ErrNotOwner
	}
	return s.repo.Delete(ctx, id)
}

func validateOpportunity(opportunity *types.Opportunity) error {
	opportunity.Title = strings.TrimSpace(opportunity.Title)
	opportunity.Company = strings.TrimSpace(opportunity.Company)
	opportunity.Description = strings.TrimSpace(opportunity.Description)
	if opportunity.Title == "" {
		return errors.New("title is required")
	}
	if opportunity.Description == "" {
		return errors.New("description is required")
	}
	if opportunity.Kind == "" {
		opportunity.Kind = types.OpportunityJob
	}
	if !opportunity.Kind.Valid() {
		return errors.New("invalid opportunity kind")
	}
	return nil
}
