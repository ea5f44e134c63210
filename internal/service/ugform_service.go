package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/ug1-portal-api/internal/dto"
	"github.com/noah-isme/ug1-portal-api/internal/models"
	"github.com/noah-isme/ug1-portal-api/internal/repository"
	appErrors "github.com/noah-isme/ug1-portal-api/pkg/errors"
)

type ugformRepository interface {
	approvalFormRepository
	NextFormNumber(ctx context.Context, year int) (string, error)
	Create(ctx context.Context, form *models.UGForm) error
	FindActiveByTuple(ctx context.Context, registeredNo string, semester int, degree, session string) (*models.UGForm, error)
	LatestByRegisteredNo(ctx context.Context, registeredNo string) (*models.UGForm, error)
}

type feeApprovalChecker interface {
	HasApproved(ctx context.Context, regNo string) (bool, error)
}

type auditTrail interface {
	auditLogWriter
	ListAuditLogs(ctx context.Context, resource, resourceID string) ([]models.AuditLog, error)
}

var creditPattern = regexp.MustCompile(`^\s*(\d+)\s*\(\s*(\d+)\s*-\s*(\d+)\s*\)\s*$`)

// UGFormService handles student submission and the read-only form views.
type UGFormService struct {
	repo      ugformRepository
	fees      feeApprovalChecker
	audit     auditTrail
	cache     *CacheService
	metrics   *MetricsService
	notifier  *NotificationService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewUGFormService wires the submission service.
func NewUGFormService(repo ugformRepository, fees feeApprovalChecker, audit auditTrail, cache *CacheService, metrics *MetricsService, notifier *NotificationService, validate *validator.Validate, logger *zap.Logger) *UGFormService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UGFormService{repo: repo, fees: fees, audit: audit, cache: cache, metrics: metrics, notifier: notifier, validator: validate, logger: logger, now: time.Now}
}

// Submit validates and stores a new form on behalf of the calling student.
func (s *UGFormService) Submit(ctx context.Context, actor *models.JWTClaims, req dto.SubmitUGFormRequest, meta models.RequestMeta) (*dto.SubmitUGFormResponse, error) {
	if actor == nil || actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student access required")
	}
	trimSubmission(&req)

	if err := s.validateScalars(req); err != nil {
		s.metrics.RecordSubmission("invalid")
		return nil, err
	}
	if !strings.EqualFold(req.RegisteredNo, actor.RegistrationNumber) {
		s.metrics.RecordSubmission("forbidden")
		return nil, appErrors.Clone(appErrors.ErrForbidden, "registeredNo does not match your account")
	}
	// The account's spelling is canonical for storage and the active-tuple check.
	req.RegisteredNo = actor.RegistrationNumber
	if len(req.Subjects) == 0 {
		s.metrics.RecordSubmission("invalid")
		return nil, appErrors.Validation("subjects", "select at least one subject")
	}

	subjects, err := buildSubjects("subjects", req.Subjects, false)
	if err != nil {
		s.metrics.RecordSubmission("invalid")
		return nil, err
	}
	extras, err := buildSubjects("extraSubjects", req.ExtraSubjects, true)
	if err != nil {
		s.metrics.RecordSubmission("invalid")
		return nil, err
	}

	existing, err := s.repo.FindActiveByTuple(ctx, req.RegisteredNo, req.Semester, req.DegreeName, req.Session)
	switch {
	case err == nil:
		s.metrics.RecordSubmission("conflict")
		return nil, duplicateForm(existing)
	case !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Internal(err, "failed to check existing forms")
	}

	now := s.now().UTC()
	number, err := s.repo.NextFormNumber(ctx, now.Year())
	if err != nil {
		return nil, appErrors.Internal(err, "failed to allocate form number")
	}

	form := &models.UGForm{
		FormNumber:       number,
		RegisteredNo:     req.RegisteredNo,
		StudentName:      req.StudentName,
		FatherName:       req.FatherName,
		DepartmentName:   req.DepartmentName,
		DegreeName:       req.DegreeName,
		Semester:         req.Semester,
		Section:          req.Section,
		Session:          req.Session,
		AdmissionTerm:    req.AdmissionTerm,
		TutorName:        req.TutorName,
		TutorEmail:       strings.ToLower(req.TutorEmail),
		Subjects:         subjects,
		ExtraSubjects:    extras,
		TotalCreditHours: sumCredits(subjects) + sumCredits(extras),
		Status:           models.UGFormStatusSubmitted,
		SubmittedBy:      actor.UserID,
		CreatedAt:        now,
	}

	if err := s.repo.Create(ctx, form); err != nil {
		if errors.Is(err, repository.ErrDuplicateActiveForm) {
			s.metrics.RecordSubmission("conflict")
			if existing, findErr := s.repo.FindActiveByTuple(ctx, req.RegisteredNo, req.Semester, req.DegreeName, req.Session); findErr == nil {
				return nil, duplicateForm(existing)
			}
			return nil, appErrors.Clone(appErrors.ErrConflict, "an active form already exists for this semester")
		}
		return nil, appErrors.Internal(err, "failed to save form")
	}
	s.metrics.RecordSubmission("ok")

	if s.audit != nil {
		newValues, _ := json.Marshal(map[string]interface{}{
			"formNumber":       form.FormNumber,
			"status":           form.Status,
			"totalCreditHours": form.TotalCreditHours,
		})
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actor.UserID,
			Action:     models.AuditActionUGFormSubmit,
			Resource:   "ugforms",
			ResourceID: &form.ID,
			NewValues:  newValues,
			IPAddress:  meta.IP,
			UserAgent:  meta.UserAgent,
		}); err != nil {
			s.logger.Warn("failed to record submission audit log", zap.String("form_id", form.ID), zap.Error(err))
		}
	}

	s.cache.InvalidateStats(ctx)
	s.notifier.FormEvent(ctx, form, string(models.UGFormStatusSubmitted))

	s.logger.Info("ugform submitted",
		zap.String("form_id", form.ID),
		zap.String("form_number", form.FormNumber),
		zap.String("registered_no", form.RegisteredNo),
	)

	return &dto.SubmitUGFormResponse{
		ID:               form.ID,
		FormNumber:       form.FormNumber,
		Status:           form.Status,
		TotalCreditHours: form.TotalCreditHours,
	}, nil
}

// ListMine returns the calling student's forms, newest first.
func (s *UGFormService) ListMine(ctx context.Context, actor *models.JWTClaims, page, pageSize int) ([]models.UGForm, *models.Pagination, error) {
	if actor == nil || actor.RegistrationNumber == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "student access required")
	}
	forms, total, err := s.repo.List(ctx, models.UGFormFilter{
		Scope:    models.UGFormScope{RegisteredNo: actor.RegistrationNumber},
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list forms")
	}
	return nonNilForms(forms), pagination(page, pageSize, total), nil
}

// GetMine returns one of the caller's forms. Forms owned by someone else are reported as missing.
func (s *UGFormService) GetMine(ctx context.Context, actor *models.JWTClaims, id string) (*models.UGForm, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	form, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(form.RegisteredNo, actor.RegistrationNumber) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "form not found")
	}
	return form, nil
}

// Autofill pre-populates a new form for a student whose fee has been verified.
func (s *UGFormService) Autofill(ctx context.Context, actor *models.JWTClaims) (*dto.AutofillResponse, error) {
	if actor == nil || actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student access required")
	}
	approved, err := s.fees.HasApproved(ctx, actor.RegistrationNumber)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check fee verification")
	}
	if !approved {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "fee verification must be approved first")
	}

	resp := &dto.AutofillResponse{RegisteredNo: actor.RegistrationNumber, StudentName: actor.FullName}
	last, err := s.repo.LatestByRegisteredNo(ctx, actor.RegistrationNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return resp, nil
		}
		return nil, appErrors.Internal(err, "failed to load previous form")
	}
	resp.FatherName = last.FatherName
	resp.DepartmentName = last.DepartmentName
	resp.DegreeName = last.DegreeName
	resp.Semester = last.Semester
	resp.Section = last.Section
	resp.Session = last.Session
	resp.AdmissionTerm = last.AdmissionTerm
	resp.TutorName = last.TutorName
	resp.TutorEmail = last.TutorEmail
	return resp, nil
}

// GlobalStats counts every form per status.
func (s *UGFormService) GlobalStats(ctx context.Context) (*dto.StatusSummary, error) {
	counts, err := s.cache.StatusCounts(ctx, "global", func(ctx context.Context) (models.UGFormStatusCounts, error) {
		return s.repo.CountByStatus(ctx, models.UGFormScope{})
	})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count forms")
	}
	if counts == nil {
		counts = models.UGFormStatusCounts{}
	}
	return &dto.StatusSummary{ByStatus: counts, Total: counts.Total()}, nil
}

// Activity returns the audit trail of one form.
func (s *UGFormService) Activity(ctx context.Context, id string) ([]models.AuditLog, error) {
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	logs, err := s.audit.ListAuditLogs(ctx, "ugforms", id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load activity")
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	return logs, nil
}

// ListAll lists forms across departments for the admin and DG office views.
func (s *UGFormService) ListAll(ctx context.Context, statuses []models.UGFormStatus, search string, page, pageSize int) ([]models.UGForm, *models.Pagination, error) {
	forms, total, err := s.repo.List(ctx, models.UGFormFilter{Statuses: statuses, Search: search, Page: page, PageSize: pageSize})
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list forms")
	}
	return nonNilForms(forms), pagination(page, pageSize, total), nil
}

// ListCompleted lists manager-approved forms for the DG office.
func (s *UGFormService) ListCompleted(ctx context.Context, search string, page, pageSize int) ([]models.UGForm, *models.Pagination, error) {
	return s.ListAll(ctx, []models.UGFormStatus{models.UGFormStatusManagerApproved}, search, page, pageSize)
}

func (s *UGFormService) find(ctx context.Context, id string) (*models.UGForm, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, appErrors.Validation("id", "form id is required")
	}
	form, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "form not found")
		}
		return nil, appErrors.Internal(err, "failed to load form")
	}
	return form, nil
}

// validateScalars reports the first missing or malformed header field in form order.
func (s *UGFormService) validateScalars(req dto.SubmitUGFormRequest) error {
	checks := []struct {
		field string
		value interface{}
		tag   string
	}{
		{"departmentName", req.DepartmentName, "required"},
		{"degreeName", req.DegreeName, "required"},
		{"semester", req.Semester, "required,min=1"},
		{"section", req.Section, "required"},
		{"session", req.Session, "required"},
		{"admissionTerm", req.AdmissionTerm, "required"},
		{"registeredNo", req.RegisteredNo, "required"},
		{"studentName", req.StudentName, "required"},
		{"fatherName", req.FatherName, "required"},
		{"tutorName", req.TutorName, "required"},
		{"tutorEmail", req.TutorEmail, "required"},
	}
	for _, c := range checks {
		if err := s.validator.Var(c.value, c.tag); err != nil {
			return appErrors.Validation(c.field, c.field+" is required")
		}
	}
	if err := s.validator.Var(req.TutorEmail, "email"); err != nil {
		return appErrors.Validation("tutorEmail", "tutorEmail is not a valid email")
	}
	return nil
}

func trimSubmission(req *dto.SubmitUGFormRequest) {
	for _, field := range []*string{
		&req.DepartmentName, &req.DegreeName, &req.Section, &req.Session, &req.AdmissionTerm,
		&req.RegisteredNo, &req.StudentName, &req.FatherName, &req.TutorName, &req.TutorEmail,
	} {
		*field = strings.TrimSpace(*field)
	}
}

func buildSubjects(field string, inputs []dto.SubjectInput, extra bool) (models.SubjectList, error) {
	out := make(models.SubjectList, 0, len(inputs))
	for i, in := range inputs {
		name := fmt.Sprintf("%s[%d]", field, i)
		sel := models.SubjectSelection{
			Code:        strings.TrimSpace(in.Code),
			Name:        strings.TrimSpace(in.Name),
			CreditHours: strings.TrimSpace(in.CreditHours),
			IsExtra:     extra,
		}
		if sel.Code == "" {
			return nil, appErrors.Validation(name+".code", "subject code is required")
		}
		if sel.Name == "" {
			sel.Name = sel.Code
		}

		if sel.CreditHours != "" {
			total, theory, practical, ok := ParseCreditHours(sel.CreditHours)
			if !ok {
				return nil, appErrors.Validation(name+".creditHours", "creditHours must look like 3(2-1)")
			}
			sel.TotalCredits, sel.TheoryHours, sel.PracticalHours = total, theory, practical
		} else {
			sel.TheoryHours = intValue(in.TheoryHours)
			sel.PracticalHours = intValue(in.PracticalHours)
			if in.TotalCredits != nil {
				sel.TotalCredits = *in.TotalCredits
			} else {
				sel.TotalCredits = sel.TheoryHours + sel.PracticalHours
			}
		}
		if sel.TheoryHours < 0 || sel.PracticalHours < 0 || sel.TotalCredits < 0 {
			return nil, appErrors.Validation(name+".totalCredits", "credit hours cannot be negative")
		}
		out = append(out, sel)
	}
	return out, nil
}

// ParseCreditHours splits a credit string such as "3(2-1)" into total, theory and practical hours.
func ParseCreditHours(raw string) (total, theory, practical int, ok bool) {
	m := creditPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, 0, 0, false
	}
	total, _ = strconv.Atoi(m[1])
	theory, _ = strconv.Atoi(m[2])
	practical, _ = strconv.Atoi(m[3])
	return total, theory, practical, true
}

func sumCredits(list models.SubjectList) int {
	total := 0
	for _, s := range list {
		total += s.TotalCredits
	}
	return total
}

func intValue(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func duplicateForm(existing *models.UGForm) error {
	return appErrors.WithDetails(
		appErrors.Clone(appErrors.ErrConflict, "an active form already exists for this semester"),
		map[string]interface{}{"existingFormId": existing.ID, "existingFormNumber": existing.FormNumber},
	)
}
