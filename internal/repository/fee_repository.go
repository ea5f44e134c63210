package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/ug1-portal-api/internal/models"
)

const feeColumns = `id, registration_number, student_name, voucher_number, bank_name, branch_code, amount, deposit_date,
       voucher_image_url, status, remarks, reviewed_by, reviewed_at, created_at, updated_at`

// ErrDuplicateOpenVoucher is returned when a non-rejected voucher with the same number already exists.
var ErrDuplicateOpenVoucher = errors.New("open voucher already exists")

// FeeRepository persists fee voucher verifications.
type FeeRepository struct {
	db *sqlx.DB
}

// NewFeeRepository constructs the repository.
func NewFeeRepository(db *sqlx.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

// Create inserts a voucher in pending status.
func (r *FeeRepository) Create(ctx context.Context, fee *models.FeeVerification) error {
	if fee.ID == "" {
		fee.ID = uuid.NewString()
	}
	if fee.Status == "" {
		fee.Status = models.FeeStatusPending
	}
	now := time.Now().UTC()
	fee.CreatedAt = now
	fee.UpdatedAt = now

	const query = `INSERT INTO fee_verifications
	(id, registration_number, student_name, voucher_number, bank_name, branch_code, amount, deposit_date, voucher_image_url, status, created_at, updated_at)
	VALUES (:id, :registration_number, :student_name, :voucher_number, :bank_name, :branch_code, :amount, :deposit_date, :voucher_image_url, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, fee); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == "fee_verifications_open_voucher_idx" {
			return ErrDuplicateOpenVoucher
		}
		return fmt.Errorf("create fee verification: %w", err)
	}
	return nil
}

// FindByID fetches a voucher.
func (r *FeeRepository) FindByID(ctx context.Context, id string) (*models.FeeVerification, error) {
	query := `SELECT ` + feeColumns + ` FROM fee_verifications WHERE id = $1`
	var fee models.FeeVerification
	if err := r.db.GetContext(ctx, &fee, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find fee verification: %w", err)
	}
	return &fee, nil
}

// FindOpenByVoucher returns a non-rejected voucher with the same number for the student.
func (r *FeeRepository) FindOpenByVoucher(ctx context.Context, regNo, voucherNumber string) (*models.FeeVerification, error) {
	query := `SELECT ` + feeColumns + ` FROM fee_verifications
	WHERE registration_number = $1 AND voucher_number = $2 AND status <> $3 LIMIT 1`
	var fee models.FeeVerification
	if err := r.db.GetContext(ctx, &fee, query, regNo, voucherNumber, models.FeeStatusRejected); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find open voucher: %w", err)
	}
	return &fee, nil
}

// HasApproved reports whether the student has at least one approved voucher.
func (r *FeeRepository) HasApproved(ctx context.Context, regNo string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM fee_verifications WHERE registration_number = $1 AND status = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, regNo, models.FeeStatusApproved); err != nil {
		return false, fmt.Errorf("check approved voucher: %w", err)
	}
	return exists, nil
}

// List returns vouchers matching the filter, newest first.
func (r *FeeRepository) List(ctx context.Context, filter models.FeeFilter) ([]models.FeeVerification, int, error) {
	var where []string
	var args []interface{}
	if filter.RegistrationNumber != "" {
		args = append(args, filter.RegistrationNumber)
		where = append(where, fmt.Sprintf("registration_number = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	baseQuery := " FROM fee_verifications"
	if len(where) > 0 {
		baseQuery += " WHERE " + strings.Join(where, " AND ")
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf("SELECT %s%s ORDER BY created_at DESC LIMIT %d OFFSET %d", feeColumns, baseQuery, pageSize, (page-1)*pageSize)

	var fees []models.FeeVerification
	if err := r.db.SelectContext(ctx, &fees, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list fee verifications: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count fee verifications: %w", err)
	}
	return fees, total, nil
}

// UpdateReview records the fee office decision if the voucher is still in status from.
func (r *FeeRepository) UpdateReview(ctx context.Context, fee *models.FeeVerification, from models.FeeStatus) error {
	const query = `UPDATE fee_verifications SET status = $2, remarks = $3, reviewed_by = $4, reviewed_at = $5, updated_at = $5
	WHERE id = $1 AND status = $6`
	result, err := r.db.ExecContext(ctx, query, fee.ID, fee.Status, fee.Remarks, fee.ReviewedBy, fee.ReviewedAt, from)
	if err != nil {
		return fmt.Errorf("update fee review: %w", err)
	}
	return expectRow(result, "update fee review")
}
