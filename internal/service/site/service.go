package site

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/pharmacy-api/internal/model"
	"github.com/jwalitptl/pharmacy-api/internal/policy"
	"github.com/jwalitptl/pharmacy-api/internal/repository"
	"github.com/jwalitptl/pharmacy-api/pkg/errors"
)

const (
	msgNotFound  = "Site non trouvé"
	msgForbidden = "Accès non autorisé"
)

// Service manages sites and keeps a short-lived lookup cache used to resolve
// the X-Site-ID header on every request.
type Service struct {
	repo  repository.SiteRepository
	cache *cache.Cache
}

func NewService(repo repository.SiteRepository, ttl time.Duration) *Service {
	return &Service{
		repo:  repo,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]*model.Site, error) {
	return s.repo.List(ctx, activeOnly)
}

func (s *Service) Get(ctx context.Context, id int64) (*model.Site, error) {
	site, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, errors.NotFound(msgNotFound)
	}
	return site, nil
}

// Resolve returns the site with id, or nil when there is none. Hits are
// served from cache.
func (s *Service) Resolve(ctx context.Context, id int64) (*model.Site, error) {
	key := strconv.FormatInt(id, 10)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*model.Site), nil
	}

	site, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if site != nil {
		s.cache.SetDefault(key, site)
	}
	return site, nil
}

func (s *Service) Create(ctx context.Context, caller model.Caller, req model.SiteRequest) (*model.Site, error) {
	if !policy.Can(caller, policy.ResourceSite, policy.ActionWrite, 0) {
		return nil, errors.Forbidden(msgForbidden)
	}

	site := &model.Site{IsActive: true}
	apply(site, req)
	if err := s.repo.Create(ctx, site); err != nil {
		return nil, err
	}
	return site, nil
}

func (s *Service) Update(ctx context.Context, caller model.Caller, id int64, req model.SiteRequest) (*model.Site, error) {
	if !policy.Can(caller, policy.ResourceSite, policy.ActionWrite, 0) {
		return nil, errors.Forbidden(msgForbidden)
	}

	site, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, errors.NotFound(msgNotFound)
	}

	apply(site, req)
	if err := s.repo.Update(ctx, site); err != nil {
		return nil, err
	}
	s.cache.Delete(strconv.FormatInt(id, 10))
	return site, nil
}

func apply(site *model.Site, req model.SiteRequest) {
	site.Name = strings.TrimSpace(req.Name)
	site.Address = req.Address
	site.Phone = req.Phone
	if req.IsActive != nil {
		site.IsActive = *req.IsActive
	}
}
