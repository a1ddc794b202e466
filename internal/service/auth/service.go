package auth

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/jwalitptl/pharmacy-api/internal/model"
	"github.com/jwalitptl/pharmacy-api/internal/repository"
	"github.com/jwalitptl/pharmacy-api/pkg/auth"
	"github.com/jwalitptl/pharmacy-api/pkg/errors"
	"github.com/jwalitptl/pharmacy-api/pkg/security"
)

const (
	msgInvalidCredentials = "Email ou mot de passe incorrect"
	msgAccountDisabled    = "Compte désactivé"
	msgUserExists         = "Un utilisateur avec cet email existe déjà"
	msgUserNotFound       = "Utilisateur non trouvé"
	msgRoleReserved       = "Seul un administrateur peut attribuer ce rôle"
)

// SiteLister supplies the sites shown on a user profile.
type SiteLister interface {
	List(ctx context.Context, activeOnly bool) ([]*model.Site, error)
}

type Service struct {
	userRepo repository.UserRepository
	sites    SiteLister
	jwtSvc   auth.JWTService
	hasher   security.PasswordHasher
}

func NewService(userRepo repository.UserRepository, sites SiteLister, jwtSvc auth.JWTService, hasher security.PasswordHasher) *Service {
	return &Service{
		userRepo: userRepo,
		sites:    sites,
		jwtSvc:   jwtSvc,
		hasher:   hasher,
	}
}

func (s *Service) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.Unauthorized(msgInvalidCredentials)
	}
	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, errors.Unauthorized(msgInvalidCredentials)
	}
	if !user.IsActive {
		return nil, errors.Unauthorized(msgAccountDisabled)
	}
	return s.issueTokens(user)
}

// Register creates an active account. The role defaults to pharmacist;
// any other role may only be granted by an authenticated admin, passed as
// registrar. Anonymous sign-ups have a nil registrar.
func (s *Service) Register(ctx context.Context, registrar *model.Caller, req model.RegisterRequest) (*model.AuthResponse, error) {
	role := req.Role
	if role == "" {
		role = model.DefaultRole
	}
	if role != model.DefaultRole && (registrar == nil || registrar.Role != model.RoleAdmin) {
		return nil, errors.Forbidden(msgRoleReserved)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.Conflict(msgUserExists, nil)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if stderrors.Is(err, security.ErrPasswordTooShort) {
			return nil, errors.Validation([]string{"Le mot de passe doit contenir au moins 6 caractères"})
		}
		return nil, errors.Internal(err)
	}

	user := &model.User{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        email,
		Phone:        req.Phone,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(errors.FromDB(err), errors.ErrConflict) {
			return nil, errors.Conflict(msgUserExists, err)
		}
		return nil, err
	}
	return s.issueTokens(user)
}

// Refresh exchanges a refresh token for a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", tokenError(err)
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return "", err
	}
	if user == nil || !user.IsActive {
		return "", errors.Unauthorized(msgUserNotFound)
	}
	return s.jwtSvc.GenerateAccessToken(user.ID, user.Email, string(user.Role))
}

// Authenticate resolves an access token to the calling user. Disabled or
// deleted accounts are rejected even with a valid token.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*model.Caller, error) {
	claims, err := s.jwtSvc.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, tokenError(err)
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.Unauthorized(msgUserNotFound)
	}
	if !user.IsActive {
		return nil, errors.Unauthorized(msgAccountDisabled)
	}
	return &model.Caller{
		ID:            user.ID,
		Email:         user.Email,
		Role:          user.Role,
		CurrentSiteID: user.CurrentSiteID,
	}, nil
}

func (s *Service) Profile(ctx context.Context, userID int64) (*model.Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.NotFound(msgUserNotFound)
	}

	sites, err := s.sites.List(ctx, true)
	if err != nil {
		sites = []*model.Site{}
	}
	return &model.Profile{User: user, Sites: sites}, nil
}

func (s *Service) issueTokens(user *model.User) (*model.AuthResponse, error) {
	token, err := s.jwtSvc.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, errors.Internal(err)
	}
	refresh, err := s.jwtSvc.GenerateRefreshToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, errors.Internal(err)
	}
	return &model.AuthResponse{User: user, Token: token, RefreshToken: refresh}, nil
}

func tokenError(err error) error {
	if stderrors.Is(err, auth.ErrExpiredToken) {
		return errors.ExpiredToken(err)
	}
	return errors.InvalidToken(err)
}
