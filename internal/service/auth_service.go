package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/assetdesk/asset-service/internal/auth"
	"github.com/assetdesk/asset-service/internal/config"
	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/repository"
	apperrors "github.com/assetdesk/asset-service/pkg/util/errorutil"
)

const minPasswordLength = 8

func hashPassword(password string, cost int) (string, error) {
	hash, err := auth.HashPassword(password, cost)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return "", apperrors.NewValidationError("password is too long", map[string]any{"max_bytes": auth.MaxPasswordBytes})
	}
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	return hash, nil
}

// AuthService coordinates login and credential flows.
type AuthService struct {
	users         repository.UserRepository
	roles         repository.RoleRepository
	businessUnits repository.BusinessUnitRepository
	tokenMgr      *auth.TokenManager
	bcryptCost    int
	tx            Transactor
	audit         *AuditService
	logger        *zap.Logger
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo         repository.UserRepository
	RoleRepo         repository.RoleRepository
	BusinessUnitRepo repository.BusinessUnitRepository
	Tokens           *auth.TokenManager
	Tx               Transactor
	Audit            *AuditService
	Logger           *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tokens := deps.Tokens
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes)
	}
	return &AuthService{
		users:         deps.UserRepo,
		roles:         deps.RoleRepo,
		businessUnits: deps.BusinessUnitRepo,
		tokenMgr:      tokens,
		bcryptCost:    cfg.BcryptCost,
		tx:            transactorOrDirect(deps.Tx),
		audit:         deps.Audit,
		logger:        logger,
	}
}

// LoginResult is a signed-in session.
type LoginResult struct {
	User      *domain.User
	Role      *domain.Role
	Token     string
	ExpiresAt time.Time
}

// Login authenticates a user by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password are required", nil)
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if !user.IsActive {
		return nil, apperrors.NewUnauthorized("user inactive")
	}

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := s.users.TouchLogin(ctx, user.ID); err != nil {
		s.logger.Warn("last login update failed", zap.String("user_id", user.ID), zap.Error(err))
	}
	now := time.Now().UTC()
	user.LastLoginAt = &now

	role, err := s.role(ctx, user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Role: role, Token: token, ExpiresAt: exp}, nil
}

// Me returns the signed-in user and their role.
func (s *AuthService) Me(ctx context.Context, scope domain.Scope) (*domain.User, *domain.Role, error) {
	user, err := s.users.GetByID(ctx, scope.UserID)
	if err != nil {
		return nil, nil, apperrors.NotFoundOr(err, "user", map[string]any{"id": scope.UserID})
	}
	role, err := s.role(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, role, nil
}

// ChangePassword verifies current password before updating to new hash.
func (s *AuthService) ChangePassword(ctx context.Context, scope domain.Scope, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return apperrors.NewValidationError("new password is too short", map[string]any{"min_length": minPasswordLength})
	}
	user, err := s.users.GetByID(ctx, scope.UserID)
	if err != nil {
		return apperrors.NotFoundOr(err, "user", map[string]any{"id": scope.UserID})
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("current password is incorrect")
	}
	hash, err := hashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
			return err
		}
		return s.audit.Record(ctx, scope, AuditChange{
			Entity:    domain.EntityUser,
			EntityID:  user.ID,
			Action:    domain.ActionUpdate,
			NewValues: map[string]any{"password": "changed"},
		})
	})
	return apperrors.MapError(err)
}

// BootstrapInput names the first administrator and their business unit.
type BootstrapInput struct {
	UnitCode string
	UnitName string
	Email    string
	Password string
}

// Bootstrap seeds a business unit, an all-permission role and an administrator when no user exists.
// It reports whether anything was created.
func (s *AuthService) Bootstrap(ctx context.Context, input BootstrapInput) (bool, error) {
	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return false, nil
	}
	count, err := s.users.Count(ctx)
	if err != nil {
		return false, apperrors.MapError(err)
	}
	if count > 0 {
		return false, nil
	}
	hash, err := hashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return false, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		unit := &domain.BusinessUnit{
			Code:     strings.ToUpper(strings.TrimSpace(input.UnitCode)),
			Name:     strings.TrimSpace(input.UnitName),
			IsActive: true,
		}
		if err := s.businessUnits.Create(ctx, unit); err != nil {
			return err
		}
		role := &domain.Role{
			BusinessUnitID: unit.ID,
			Name:           "Administrator",
			Description:    "Full access to every business unit",
			Permissions:    []string{string(domain.PermissionAll)},
		}
		if err := s.roles.Create(ctx, role); err != nil {
			return err
		}
		roleID := role.ID
		admin := &domain.User{
			BusinessUnitID: unit.ID,
			RoleID:         &roleID,
			Name:           "Administrator",
			Email:          strings.ToLower(strings.TrimSpace(input.Email)),
			PasswordHash:   hash,
			IsActive:       true,
		}
		return s.users.Create(ctx, admin)
	})
	if err != nil {
		return false, apperrors.MapError(err)
	}
	s.logger.Info("bootstrap administrator created", zap.String("email", input.Email), zap.String("unit", input.UnitCode))
	return true, nil
}

func (s *AuthService) role(ctx context.Context, user *domain.User) (*domain.Role, error) {
	if user.RoleID == nil {
		return nil, nil
	}
	role, err := s.roles.FindByID(ctx, *user.RoleID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, apperrors.MapError(err)
	}
	return role, nil
}
