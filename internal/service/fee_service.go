package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/noah-isme/ug1-portal-api/internal/dto"
	"github.com/noah-isme/ug1-portal-api/internal/models"
	"github.com/noah-isme/ug1-portal-api/internal/repository"
	appErrors "github.com/noah-isme/ug1-portal-api/pkg/errors"
)

type feeRepository interface {
	Create(ctx context.Context, fee *models.FeeVerification) error
	FindByID(ctx context.Context, id string) (*models.FeeVerification, error)
	FindOpenByVoucher(ctx context.Context, regNo, voucherNumber string) (*models.FeeVerification, error)
	List(ctx context.Context, filter models.FeeFilter) ([]models.FeeVerification, int, error)
	UpdateReview(ctx context.Context, fee *models.FeeVerification, from models.FeeStatus) error
}

// FeeService manages student fee vouchers and the fee office review.
type FeeService struct {
	repo      feeRepository
	audit     auditLogWriter
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    *zap.Logger
	now       func() time.Time
}

// NewFeeService constructs the fee verification service.
func NewFeeService(repo feeRepository, audit auditLogWriter, validate *validator.Validate, logger *zap.Logger) *FeeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &FeeService{repo: repo, audit: audit, validator: validate, sanitizer: bluemonday.StrictPolicy(), logger: logger, now: time.Now}
}

// Submit records a voucher for the calling student.
func (s *FeeService) Submit(ctx context.Context, actor *models.JWTClaims, req dto.SubmitFeeRequest, meta models.RequestMeta) (*models.FeeVerification, error) {
	if actor == nil || actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student access required")
	}
	req.VoucherNumber = strings.TrimSpace(req.VoucherNumber)
	req.BankName = strings.TrimSpace(req.BankName)
	req.BranchCode = strings.TrimSpace(req.BranchCode)
	req.VoucherImageURL = strings.TrimSpace(req.VoucherImageURL)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid voucher payload")
	}
	deposit, err := time.Parse("2006-01-02", strings.TrimSpace(req.DepositDate))
	if err != nil {
		return nil, appErrors.Validation("depositDate", "depositDate must be YYYY-MM-DD")
	}
	if deposit.After(s.now().UTC()) {
		return nil, appErrors.Validation("depositDate", "depositDate cannot be in the future")
	}

	if _, err := s.repo.FindOpenByVoucher(ctx, actor.RegistrationNumber, req.VoucherNumber); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "voucher already submitted")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to check voucher")
	}

	fee := &models.FeeVerification{
		RegistrationNumber: actor.RegistrationNumber,
		StudentName:        actor.FullName,
		VoucherNumber:      req.VoucherNumber,
		BankName:           req.BankName,
		BranchCode:         req.BranchCode,
		Amount:             req.Amount,
		DepositDate:        deposit,
		VoucherImageURL:    optionalString(req.VoucherImageURL),
		Status:             models.FeeStatusPending,
	}
	if err := s.repo.Create(ctx, fee); err != nil {
		if errors.Is(err, repository.ErrDuplicateOpenVoucher) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "voucher already submitted")
		}
		return nil, appErrors.Internal(err, "failed to save voucher")
	}
	s.record(ctx, actor.UserID, models.AuditActionFeeSubmit, fee.ID, nil, map[string]interface{}{"status": fee.Status, "voucherNumber": fee.VoucherNumber}, meta)
	return fee, nil
}

// List returns vouchers visible to the caller: students see their own, the fee office sees all.
func (s *FeeService) List(ctx context.Context, actor *models.JWTClaims, status string, page, pageSize int) ([]models.FeeVerification, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	filter := models.FeeFilter{Status: models.FeeStatus(strings.ToLower(strings.TrimSpace(status))), Page: page, PageSize: pageSize}
	switch filter.Status {
	case "", models.FeeStatusPending, models.FeeStatusProcessing, models.FeeStatusApproved, models.FeeStatusRejected:
	default:
		return nil, nil, appErrors.Validation("status", "unknown status filter "+status)
	}
	switch actor.Role {
	case models.RoleStudent:
		filter.RegistrationNumber = actor.RegistrationNumber
	case models.RoleFeeOffice:
	default:
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "fee office access required")
	}

	fees, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list vouchers")
	}
	if fees == nil {
		fees = []models.FeeVerification{}
	}
	return fees, pagination(page, pageSize, total), nil
}

// Review moves a voucher along a legal edge on behalf of the fee office.
func (s *FeeService) Review(ctx context.Context, actor *models.JWTClaims, id string, req dto.ReviewFeeRequest, meta models.RequestMeta) (*models.FeeVerification, error) {
	if actor == nil || actor.Role != models.RoleFeeOffice {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "fee office access required")
	}
	req.Status = models.FeeStatus(strings.ToLower(strings.TrimSpace(string(req.Status))))
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid review payload")
	}

	fee, err := s.repo.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "voucher not found")
		}
		return nil, appErrors.Internal(err, "failed to load voucher")
	}
	from := fee.Status
	if !from.CanMoveTo(req.Status) {
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrInvalidState, "voucher is "+string(from)),
			map[string]interface{}{"currentStatus": from},
		)
	}

	now := s.now().UTC()
	remarks := strings.TrimSpace(s.sanitizer.Sanitize(req.Remarks))
	fee.Status = req.Status
	fee.Remarks = optionalString(remarks)
	fee.ReviewedBy = &actor.UserID
	fee.ReviewedAt = &now
	fee.UpdatedAt = now

	if err := s.repo.UpdateReview(ctx, fee, from); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "voucher was updated by another request")
		}
		return nil, appErrors.Internal(err, "failed to update voucher")
	}
	s.record(ctx, actor.UserID, models.AuditActionFeeReview, fee.ID,
		map[string]interface{}{"status": from},
		map[string]interface{}{"status": fee.Status, "remarks": fee.Remarks}, meta)
	return fee, nil
}

func (s *FeeService) record(ctx context.Context, actorID, action, feeID string, before, after map[string]interface{}, meta models.RequestMeta) {
	if s.audit == nil {
		return
	}
	var oldValues, newValues json.RawMessage
	if before != nil {
		oldValues, _ = json.Marshal(before)
	}
	if after != nil {
		newValues, _ = json.Marshal(after)
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   "fee_verifications",
		ResourceID: &feeID,
		OldValues:  oldValues,
		NewValues:  newValues,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record fee audit log", zap.String("fee_id", feeID), zap.Error(err))
	}
}
