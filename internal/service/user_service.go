package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/ug1-portal-api/internal/models"
	appErrors "github.com/noah-isme/ug1-portal-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByRegistrationNumber(ctx context.Context, regNo string) (*models.User, error)
	FindActiveHolder(ctx context.Context, role models.UserRole, excludeID string) (*models.User, error)
	CountActiveByRole(ctx context.Context, role models.UserRole) (int, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateUserRequest represents payload for creating users.
type CreateUserRequest struct {
	Email              string          `json:"email" validate:"omitempty,email"`
	RegistrationNumber string          `json:"registrationNumber"`
	FullName           string          `json:"fullName" validate:"required"`
	Role               models.UserRole `json:"role" validate:"required,oneof=admin dg-office fee-office manager tutor student"`
	Department         string          `json:"department"`
	Active             *bool           `json:"active"`
	Password           string          `json:"password" validate:"required,min=8"`
}

// UpdateUserRequest payload for updating users.
type UpdateUserRequest struct {
	Email              *string         `json:"email" validate:"omitempty,email"`
	RegistrationNumber *string         `json:"registrationNumber"`
	FullName           string          `json:"fullName" validate:"required"`
	Role               models.UserRole `json:"role" validate:"required,oneof=admin dg-office fee-office manager tutor student"`
	Department         string          `json:"department"`
	Active             *bool           `json:"active"`
	Password           string          `json:"password" validate:"omitempty,min=8"`
}

// UserService handles user management workflows.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list users")
	}
	return users, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	return user, nil
}

// Create adds a new user of any role.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest, actorID string, meta models.RequestMeta) (*models.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.RegistrationNumber = strings.TrimSpace(req.RegistrationNumber)
	req.FullName = strings.TrimSpace(req.FullName)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid create user payload")
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	user := &models.User{
		ID:         uuid.NewString(),
		FullName:   req.FullName,
		Role:       req.Role,
		Department: strings.TrimSpace(req.Department),
		Active:     active,
	}
	if req.Email != "" {
		user.Email = &req.Email
	}
	if req.RegistrationNumber != "" {
		user.RegistrationNumber = &req.RegistrationNumber
	}
	if err := s.checkIdentity(ctx, user); err != nil {
		return nil, err
	}
	if err := s.ensureSingleHolder(ctx, user); err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}
	user.PasswordHash = string(passwordHash)

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Internal(err, "failed to create user")
	}

	s.audit(ctx, models.AuditActionUserCreate, actorID, user.ID, nil, userSnapshot(user), meta)
	return user, nil
}

// Update modifies the user attributes.
func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest, actorID string, meta models.RequestMeta) (*models.User, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid update payload")
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := userSnapshot(user)
	wasActiveAdmin := user.Active && user.Role == models.RoleAdmin

	user.FullName = req.FullName
	user.Role = req.Role
	user.Department = strings.TrimSpace(req.Department)
	if req.Active != nil {
		user.Active = *req.Active
	}
	if req.Email != nil {
		user.Email = optionalString(strings.ToLower(strings.TrimSpace(*req.Email)))
	}
	if req.RegistrationNumber != nil {
		user.RegistrationNumber = optionalString(strings.TrimSpace(*req.RegistrationNumber))
	}
	if err := s.checkIdentity(ctx, user); err != nil {
		return nil, err
	}
	if err := s.ensureSingleHolder(ctx, user); err != nil {
		return nil, err
	}
	if wasActiveAdmin && (!user.Active || user.Role != models.RoleAdmin) {
		if err := s.ensureAnotherAdmin(ctx); err != nil {
			return nil, err
		}
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to hash password")
		}
		user.PasswordHash = string(hash)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to update user")
	}

	s.audit(ctx, models.AuditActionUserUpdate, actorID, user.ID, before, userSnapshot(user), meta)
	return user, nil
}

// SetActive activates or deactivates an account.
func (s *UserService) SetActive(ctx context.Context, id string, active bool, actorID string, meta models.RequestMeta) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Active == active {
		return user, nil
	}
	before := userSnapshot(user)

	if active {
		user.Active = true
		if err := s.ensureSingleHolder(ctx, user); err != nil {
			return nil, err
		}
	} else if user.Role == models.RoleAdmin {
		if err := s.ensureAnotherAdmin(ctx); err != nil {
			return nil, err
		}
	}

	if err := s.repo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to update user status")
	}
	user.Active = active

	s.audit(ctx, models.AuditActionUserUpdate, actorID, user.ID, before, userSnapshot(user), meta)
	return user, nil
}

// Delete removes a user. The last active admin cannot be removed.
func (s *UserService) Delete(ctx context.Context, id string, actorID string, meta models.RequestMeta) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if id == actorID {
		return appErrors.Clone(appErrors.ErrConflict, "cannot delete your own account")
	}
	if user.Role == models.RoleAdmin && user.Active {
		if err := s.ensureAnotherAdmin(ctx); err != nil {
			return err
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Internal(err, "failed to delete user")
	}

	s.audit(ctx, models.AuditActionUserDelete, actorID, user.ID, userSnapshot(user), nil, meta)
	return nil
}

// checkIdentity enforces email for staff, registration number for students, and uniqueness of both.
func (s *UserService) checkIdentity(ctx context.Context, user *models.User) error {
	if user.Role == models.RoleStudent {
		if user.RegistrationValue() == "" {
			return appErrors.Validation("registrationNumber", "registrationNumber is required for students")
		}
		existing, err := s.repo.FindByRegistrationNumber(ctx, user.RegistrationValue())
		if err == nil && existing.ID != user.ID {
			return appErrors.Clone(appErrors.ErrConflict, "registration number already exists")
		}
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return appErrors.Internal(err, "failed to check registration number")
		}
	} else if user.EmailValue() == "" {
		return appErrors.Validation("email", "email is required for staff accounts")
	}

	if user.EmailValue() != "" {
		existing, err := s.repo.FindByEmail(ctx, user.EmailValue())
		if err == nil && existing.ID != user.ID {
			return appErrors.Clone(appErrors.ErrConflict, "email already exists")
		}
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return appErrors.Internal(err, "failed to check email uniqueness")
		}
	}
	if (user.Role == models.RoleManager || user.Role == models.RoleTutor) && user.Department == "" {
		return appErrors.Validation("department", "department is required for tutors and managers")
	}
	return nil
}

// ensureSingleHolder refuses a second active dg-office or fee-office account.
func (s *UserService) ensureSingleHolder(ctx context.Context, user *models.User) error {
	if !user.Active || !user.Role.SingleHolder() {
		return nil
	}
	holder, err := s.repo.FindActiveHolder(ctx, user.Role, user.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.Internal(err, "failed to check role holder")
	}
	return appErrors.WithDetails(
		appErrors.Clone(appErrors.ErrConflict, "an active "+string(user.Role)+" account already exists"),
		map[string]interface{}{"role": user.Role, "holderId": holder.ID},
	)
}

func (s *UserService) ensureAnotherAdmin(ctx context.Context) error {
	count, err := s.repo.CountActiveByRole(ctx, models.RoleAdmin)
	if err != nil {
		return appErrors.Internal(err, "failed to count admins")
	}
	if count <= 1 {
		return appErrors.Clone(appErrors.ErrConflict, "the last active admin cannot be removed")
	}
	return nil
}

func (s *UserService) audit(ctx context.Context, action, actorID, userID string, before, after map[string]interface{}, meta models.RequestMeta) {
	entry := &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   "users",
		ResourceID: &userID,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}
	if before != nil {
		entry.OldValues, _ = json.Marshal(before)
	}
	if after != nil {
		entry.NewValues, _ = json.Marshal(after)
	}
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record user audit log", zap.String("action", action), zap.Error(err))
	}
}

func userSnapshot(user *models.User) map[string]interface{} {
	return map[string]interface{}{
		"email":              user.EmailValue(),
		"registrationNumber": user.RegistrationValue(),
		"role":               user.Role,
		"department":         user.Department,
		"active":             user.Active,
	}
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func pagination(page, pageSize, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}
