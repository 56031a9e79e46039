package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ilyasvvv/BridgeAZ-sub000/types"
)

const opportunityColumns = `
	id, posted_by, title, company, location, region, kind, description,
	apply_url, is_open, created_at, updated_at`

// OpportunityFilter narrows opportunity listings.
type OpportunityFilter struct {
	Region   string
	Kind     types.OpportunityKind
	OpenOnly bool
}

// OpportunityRepository handles persistence for opportunity listings.
type OpportunityRepository struct {
	db *sql.DB
}

func NewOpportunityRepository(db *sql.DB) *OpportunityRepository {
	return &OpportunityRepository{db: db}
}

func scanOpportunity(row interface{ Scan(...any) error }) (types.Opportunity, error) {
	var opportunity types.Opportunity
	err := row.Scan(
		&opportunity.ID,
		&opportunity.PostedBy,
		&opportunity.Title,
		&opportunity.Company,
		&opportunity.Location,
		&opportunity.Region,
		&opportunity.Kind,
		&opportunity.Description,
		&opportunity.ApplyURL,
		&opportunity.IsOpen,
		&opportunity.CreatedAt,
		&opportunity.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Opportunity{}, ErrNotFound
		}
		return types.Opportunity{}, err
	}
	return opportunity, nil
}

func (r *OpportunityRepository) List(ctx context.Context, filter OpportunityFilter, offset, limit int) ([]types.Opportunity, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	const where = `
		WHERE ($1 = '' OR region = $1)
		  AND ($2 = '' OR kind = $2)
		  AND (NOT $3 OR is_open)`

	const countQuery = `SELECT COUNT(1) FROM opportunities` + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, filter.Region, string(filter.Kind), filter.OpenOnly).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `SELECT` + opportunityColumns + `
		FROM opportunities` + where + `
		ORDER BY created_at DESC, id DESC
		OFFSET $4 LIMIT $5`
	rows, err := r.db.QueryContext(ctx, listQuery, filter.Region, string(filter.Kind), filter.OpenOnly, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	opportunities := make([]types.Opportunity, 0, limit)
	for rows.Next() {
		opportunity, err := scanOpportunity(rows)
		if err != nil {
			return nil, 0, err
		}
		opportunities = append(opportunities, opportunity)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return opportunities, total, nil
}

func (r *OpportunityRepository) Get(ctx context.Context, id int64) (types.Opportunity, error) {
	const query = `SELECT` + opportunityColumns + `
		FROM opportunities
		WHERE id = $1`
	return scanOpportunity(r.db.QueryRowContext(ctx, query, id))
}

func (r *OpportunityRepository) Create(ctx context.Context, opportunity types.Opportunity) (types.Opportunity, error) {
	now := time.Now()
	opportunity.CreatedAt = now
	opportunity.UpdatedAt = now

	const query = `
		INSERT INTO opportunities (posted_by, title, company, location, region, kind, description, apply_url, is_open, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		opportunity.PostedBy,
		opportunity.Title,
		opportunity.Company,
		opportunity.Location,
		opportunity.Region,
		opportunity.Kind,
		opportunity.Description,
		opportunity.ApplyURL,
		opportunity.IsOpen,
		opportunity.CreatedAt,
		opportunity.UpdatedAt,
	).Scan(&opportunity.ID); err != nil {
		return types.Opportunity{}, err
	}
	return opportunity, nil
}

func (r *OpportunityRepository) Update(ctx context.Context, opportunity types.Opportunity) (types.Opportunity, error) {
	opportunity.UpdatedAt = time.Now()

	const query = `
		UPDATE opportunities
		SET title = $1,
			company = $2,
			location = $3,
			region = $4,
			kind = $5,
			description = $6,
			apply_url = $7,
			is_open = $8,
			updated_at = $9
		WHERE id = $10`
	result, err := r.db.ExecContext(
		ctx,
		query,
		opportunity.Title,
		opportunity.Company,
		opportunity.Location,
		opportunity.Region,
		opportunity.Kind,
		opportunity.Description,
		opportunity.ApplyURL,
		opportunity.IsOpen,
		opportunity.UpdatedAt,
		opportunity.ID,
	)
	if err != nil {
		return types.Opportunity{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Opportunity{}, err
	}
	if affected == 0 {
		return types.Opportunity{}, ErrNotFound
	}
	return opportunity, nil
}

func (r *OpportunityRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM opportunities WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
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
