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

const ugformColumns = `id, form_number, registered_no, student_name, father_name, department_name, degree_name, semester, section,
       session, admission_term, tutor_name, tutor_email, subjects, extra_subjects, total_credit_hours, status,
       tutor_signature, tutor_signed_at, tutor_action_at, rejection_reason, verification_notes, manager_approved_at,
       collector_rejected_at, completed_at, pdf_generated, submitted_by, created_at, updated_at`

// ErrDuplicateActiveForm is returned when the partial unique index on active forms rejects an insert.
var ErrDuplicateActiveForm = errors.New("active form already exists for tuple")

// UGFormRepository persists UG-1 forms and their numbering sequence.
type UGFormRepository struct {
	db *sqlx.DB
}

// NewUGFormRepository constructs the repository.
func NewUGFormRepository(db *sqlx.DB) *UGFormRepository {
	return &UGFormRepository{db: db}
}

// NextFormNumber atomically increments the year's counter and formats the form number.
func (r *UGFormRepository) NextFormNumber(ctx context.Context, year int) (string, error) {
	const query = `INSERT INTO form_sequences (year, value) VALUES ($1, 1)
	ON CONFLICT (year) DO UPDATE SET value = form_sequences.value + 1
	RETURNING value`
	var value int64
	if err := r.db.GetContext(ctx, &value, query, year); err != nil {
		return "", fmt.Errorf("next form number: %w", err)
	}
	return fmt.Sprintf("UG1-%d-%05d", year, value), nil
}

// Create inserts a new form.
func (r *UGFormRepository) Create(ctx context.Context, form *models.UGForm) error {
	if form.ID == "" {
		form.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if form.CreatedAt.IsZero() {
		form.CreatedAt = now
	}
	form.UpdatedAt = form.CreatedAt
	if form.Status == "" {
		form.Status = models.UGFormStatusSubmitted
	}

	const query = `INSERT INTO ugforms
	(id, form_number, registered_no, student_name, father_name, department_name, degree_name, semester, section, session,
	 admission_term, tutor_name, tutor_email, subjects, extra_subjects, total_credit_hours, status, submitted_by, created_at, updated_at)
	VALUES (:id, :form_number, :registered_no, :student_name, :father_name, :department_name, :degree_name, :semester, :section, :session,
	 :admission_term, :tutor_name, :tutor_email, :subjects, :extra_subjects, :total_credit_hours, :status, :submitted_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, form); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == "ugforms_active_tuple_idx" {
			return ErrDuplicateActiveForm
		}
		return fmt.Errorf("create ugform: %w", err)
	}
	return nil
}

// FindByID fetches a form by identifier.
func (r *UGFormRepository) FindByID(ctx context.Context, id string) (*models.UGForm, error) {
	query := `SELECT ` + ugformColumns + ` FROM ugforms WHERE id = $1`
	var form models.UGForm
	if err := r.db.GetContext(ctx, &form, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find ugform: %w", err)
	}
	return &form, nil
}

// FindActiveByTuple returns the active form for (registeredNo, semester, degree, session), if any.
func (r *UGFormRepository) FindActiveByTuple(ctx context.Context, registeredNo string, semester int, degree, session string) (*models.UGForm, error) {
	query := `SELECT ` + ugformColumns + ` FROM ugforms
	WHERE LOWER(registered_no) = LOWER($1) AND semester = $2 AND degree_name = $3 AND session = $4 AND status IN ($5, $6)
	ORDER BY created_at DESC LIMIT 1`
	var form models.UGForm
	err := r.db.GetContext(ctx, &form, query, registeredNo, semester, degree, session,
		models.ActiveUGFormStatuses[0], models.ActiveUGFormStatuses[1])
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find active ugform: %w", err)
	}
	return &form, nil
}

// LatestByRegisteredNo returns the student's most recent form.
func (r *UGFormRepository) LatestByRegisteredNo(ctx context.Context, registeredNo string) (*models.UGForm, error) {
	query := `SELECT ` + ugformColumns + ` FROM ugforms WHERE registered_no = $1 ORDER BY created_at DESC LIMIT 1`
	var form models.UGForm
	if err := r.db.GetContext(ctx, &form, query, registeredNo); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("latest ugform: %w", err)
	}
	return &form, nil
}

// List returns forms matching the filter, newest first, with the total count.
func (r *UGFormRepository) List(ctx context.Context, filter models.UGFormFilter) ([]models.UGForm, int, error) {
	where, args := scopeConditions(filter.Scope)
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		where = append(where, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(LOWER(form_number) LIKE $%d OR LOWER(student_name) LIKE $%d OR LOWER(registered_no) LIKE $%d)", n, n, n))
	}

	baseQuery := " FROM ugforms"
	if len(where) > 0 {
		baseQuery += " WHERE " + strings.Join(where, " AND ")
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf("SELECT %s%s ORDER BY created_at DESC LIMIT %d OFFSET %d", ugformColumns, baseQuery, pageSize, (page-1)*pageSize)

	var forms []models.UGForm
	if err := r.db.SelectContext(ctx, &forms, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list ugforms: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count ugforms: %w", err)
	}
	return forms, total, nil
}

// CountByStatus runs one grouped count under the given scope.
func (r *UGFormRepository) CountByStatus(ctx context.Context, scope models.UGFormScope) (models.UGFormStatusCounts, error) {
	where, args := scopeConditions(scope)
	query := "SELECT status, COUNT(*) AS total FROM ugforms"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " GROUP BY status"

	var rows []struct {
		Status models.UGFormStatus `db:"status"`
		Total  int                 `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("count ugforms by status: %w", err)
	}
	counts := models.UGFormStatusCounts{}
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

// ApplyTransition writes a workflow transition if the form is still in the expected
// status. It returns sql.ErrNoRows when the form moved on or does not exist.
func (r *UGFormRepository) ApplyTransition(ctx context.Context, t models.UGFormTransition) error {
	params := map[string]interface{}{
		"id":         t.ID,
		"from":       t.From,
		"status":     t.To,
		"updated_at": t.UpdatedAt,
	}
	setParts := []string{"status = :status", "updated_at = :updated_at"}
	optional := []struct {
		column string
		value  interface{}
		set    bool
	}{
		{"tutor_signature", t.TutorSignature, t.TutorSignature != nil},
		{"tutor_signed_at", t.TutorSignedAt, t.TutorSignedAt != nil},
		{"tutor_action_at", t.TutorActionAt, t.TutorActionAt != nil},
		{"rejection_reason", t.RejectionReason, t.RejectionReason != nil},
		{"verification_notes", t.VerificationNotes, t.VerificationNotes != nil},
		{"manager_approved_at", t.ManagerApprovedAt, t.ManagerApprovedAt != nil},
		{"collector_rejected_at", t.CollectorRejectedAt, t.CollectorRejectedAt != nil},
		{"completed_at", t.CompletedAt, t.CompletedAt != nil},
		{"pdf_generated", t.PDFGenerated, t.PDFGenerated != nil},
	}
	for _, col := range optional {
		if !col.set {
			continue
		}
		setParts = append(setParts, fmt.Sprintf("%s = :%s", col.column, col.column))
		params[col.column] = col.value
	}

	query := fmt.Sprintf("UPDATE ugforms SET %s WHERE id = :id AND status = :from", strings.Join(setParts, ", "))
	result, err := r.db.NamedExecContext(ctx, query, params)
	if err != nil {
		return fmt.Errorf("apply ugform transition: %w", err)
	}
	return expectRow(result, "apply ugform transition")
}

// MarkPDFGenerated flips one copy flag on an approved form.
func (r *UGFormRepository) MarkPDFGenerated(ctx context.Context, id string, variant models.PDFCopy) error {
	const query = `UPDATE ugforms
	SET pdf_generated = jsonb_set(COALESCE(pdf_generated, '{}'::jsonb), ARRAY[$2::text], 'true'::jsonb), updated_at = $3
	WHERE id = $1 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, id, string(variant), time.Now().UTC(), models.UGFormStatusManagerApproved)
	if err != nil {
		return fmt.Errorf("mark ugform pdf: %w", err)
	}
	return expectRow(result, "mark ugform pdf")
}

func scopeConditions(scope models.UGFormScope) ([]string, []interface{}) {
	var where []string
	var args []interface{}
	if scope.TutorEmail != "" {
		args = append(args, scope.TutorEmail)
		where = append(where, fmt.Sprintf("LOWER(tutor_email) = LOWER($%d)", len(args)))
	}
	if scope.DepartmentName != "" {
		args = append(args, scope.DepartmentName)
		where = append(where, fmt.Sprintf("department_name = $%d", len(args)))
	}
	if scope.RegisteredNo != "" {
		args = append(args, scope.RegisteredNo)
		where = append(where, fmt.Sprintf("registered_no = $%d", len(args)))
	}
	return where, args
}
