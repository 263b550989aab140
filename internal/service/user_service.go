package service

import (
	"context"
	"strings"

	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/repository"
	apperrors "github.com/assetdesk/asset-service/pkg/util/errorutil"
)

// UserService manages application accounts of a business unit.
type UserService struct {
	users      repository.UserRepository
	roles      repository.RoleRepository
	bcryptCost int
	tx         Transactor
	audit      *AuditService
}

// UserDependencies bundles collaborators for UserService.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	RoleRepo   repository.RoleRepository
	BcryptCost int
	Tx         Transactor
	Audit      *AuditService
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{
		users:      deps.UserRepo,
		roles:      deps.RoleRepo,
		bcryptCost: deps.BcryptCost,
		tx:         transactorOrDirect(deps.Tx),
		audit:      deps.Audit,
	}
}

// UserInput describes an account. Password is only read on create.
type UserInput struct {
	Name     string
	Email    string
	Password string
	RoleID   *string
	IsActive *bool
}

// Create adds an account to scope's business unit.
func (s *UserService) Create(ctx context.Context, scope domain.Scope, input UserInput) (*domain.User, error) {
	if len(input.Password) < minPasswordLength {
		return nil, apperrors.NewValidationError("password is too short", map[string]any{"min_length": minPasswordLength})
	}
	user := &domain.User{BusinessUnitID: scope.BusinessUnitID, IsActive: true}
	if err := s.apply(ctx, scope, user, input); err != nil {
		return nil, err
	}
	hash, err := hashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		return s.audit.Record(ctx, scope, AuditChange{
			Entity:    domain.EntityUser,
			EntityID:  user.ID,
			Action:    domain.ActionCreate,
			NewValues: userSnapshot(user),
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Update edits an account's profile, role and active flag.
func (s *UserService) Update(ctx context.Context, scope domain.Scope, id string, input UserInput) (*domain.User, error) {
	user, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	before := userSnapshot(user)
	if err := s.apply(ctx, scope, user, input); err != nil {
		return nil, err
	}
	if user.ID == scope.UserID && !user.IsActive {
		return nil, apperrors.NewConflict("cannot deactivate your own account", nil)
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.users.Update(ctx, user); err != nil {
			return err
		}
		return s.audit.Record(ctx, scope, AuditChange{
			Entity:    domain.EntityUser,
			EntityID:  id,
			Action:    domain.ActionUpdate,
			OldValues: before,
			NewValues: userSnapshot(user),
		})
	})
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "user", map[string]any{"id": id})
	}
	return user, nil
}

// Get fetches an account of scope's business unit.
func (s *UserService) Get(ctx context.Context, scope domain.Scope, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "user", map[string]any{"id": id})
	}
	if user.BusinessUnitID != scope.BusinessUnitID {
		return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
	}
	return user, nil
}

// List returns the accounts of scope's business unit.
func (s *UserService) List(ctx context.Context, scope domain.Scope) ([]domain.User, error) {
	users, err := s.users.List(ctx, scope.BusinessUnitID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

func (s *UserService) apply(ctx context.Context, scope domain.Scope, user *domain.User, input UserInput) error {
	if err := requireText("name", input.Name); err != nil {
		return err
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !strings.Contains(email, "@") {
		return apperrors.NewValidationError("email is invalid", map[string]any{"field": "email"})
	}
	role := optionalID(input.RoleID)
	if !sameID(role, user.RoleID) {
		if role != nil {
			granted, err := s.roles.GetByID(ctx, scope.BusinessUnitID, *role)
			if err != nil {
				return apperrors.NotFoundOr(err, "role", map[string]any{"id": *role})
			}
			if err := checkGrant(scope, granted.Permissions); err != nil {
				return err
			}
		}
		if user.RoleID != nil {
			if previous, err := s.roles.GetByID(ctx, scope.BusinessUnitID, *user.RoleID); err == nil {
				if err := checkGrant(scope, previous.Permissions); err != nil {
					return err
				}
			}
		}
	}
	user.Name = strings.TrimSpace(input.Name)
	user.Email = email
	user.RoleID = role
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	return nil
}

func userSnapshot(u *domain.User) map[string]any {
	return map[string]any{
		"name":      u.Name,
		"email":     u.Email,
		"role_id":   derefString(u.RoleID),
		"is_active": u.IsActive,
	}
}
