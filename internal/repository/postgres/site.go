package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jwalitptl/pharmacy-api/internal/model"
	"github.com/jwalitptl/pharmacy-api/internal/repository"
)

type siteRepository struct {
	BaseRepository
}

func NewSiteRepository(base BaseRepository) repository.SiteRepository {
	return &siteRepository{base}
}

func (r *siteRepository) List(ctx context.Context, activeOnly bool) ([]*model.Site, error) {
	query := `SELECT id, name, address, phone, is_active, created_at, updated_at FROM sites`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name`

	sites := []*model.Site{}
	err := r.db.SelectContext(ctx, &sites, query)
	if err := r.observe("site_list", err); err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	return sites, nil
}

func (r *siteRepository) GetByID(ctx context.Context, id int64) (*model.Site, error) {
	query := `SELECT id, name, address, phone, is_active, created_at, updated_at FROM sites WHERE id = $1`

	var site model.Site
	err := r.db.GetContext(ctx, &site, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		r.observe("site_get", nil)
		return nil, nil
	}
	if err := r.observe("site_get", err); err != nil {
		return nil, fmt.Errorf("failed to get site: %w", err)
	}
	return &site, nil
}

func (r *siteRepository) Create(ctx context.Context, site *model.Site) error {
	query := `
		INSERT INTO sites (name, address, phone, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		site.Name, nullString(site.Address), nullString(site.Phone), site.IsActive,
	).Scan(&site.ID, &site.CreatedAt, &site.UpdatedAt)
	if err := r.observe("site_create", err); err != nil {
		return fmt.Errorf("failed to create site: %w", err)
	}
	return nil
}

func (r *siteRepository) Update(ctx context.Context, site *model.Site) error {
	query := `
		UPDATE sites
		SET name = $1, address = $2, phone = $3, is_active = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		site.Name, nullString(site.Address), nullString(site.Phone), site.IsActive, site.ID,
	).Scan(&site.UpdatedAt)
	if err := r.observe("site_update", err); err != nil {
		return fmt.Errorf("failed to update site: %w", err)
	}
	return nil
}
