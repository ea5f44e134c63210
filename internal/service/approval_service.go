package service

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/ug1-portal-api/internal/dto"
	"github.com/noah-isme/ug1-portal-api/internal/models"
	appErrors "github.com/noah-isme/ug1-portal-api/pkg/errors"
)

type approvalFormRepository interface {
	ugformTransitionStore
	List(ctx context.Context, filter models.UGFormFilter) ([]models.UGForm, int, error)
	CountByStatus(ctx context.Context, scope models.UGFormScope) (models.UGFormStatusCounts, error)
}

type auditLogWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// tutorSigned covers every status a form reaches after the tutor signed it.
var tutorSigned = []models.UGFormStatus{
	models.UGFormStatusTutorApproved,
	models.UGFormStatusManagerApproved,
	models.UGFormStatusCollectorRejected,
}

var tutorQueueFilters = map[string][]models.UGFormStatus{
	"pending":  {models.UGFormStatusSubmitted},
	"signed":   tutorSigned,
	"rejected": {models.UGFormStatusTutorRejected},
	"all":      nil,
}

var managerQueueFilters = map[string][]models.UGFormStatus{
	"pending":  {models.UGFormStatusTutorApproved},
	"approved": {models.UGFormStatusManagerApproved},
	"rejected": {models.UGFormStatusCollectorRejected},
	"all":      tutorSigned,
}

// ApprovalService serves the tutor and manager queues and routes their decisions
// through the workflow engine.
type ApprovalService struct {
	repo     approvalFormRepository
	workflow *UGFormWorkflow
	audit    auditLogWriter
	cache    *CacheService
	metrics  *MetricsService
	notifier *NotificationService
	logger   *zap.Logger
}

// NewApprovalService wires the approval use cases.
func NewApprovalService(repo approvalFormRepository, workflow *UGFormWorkflow, audit auditLogWriter, cache *CacheService, metrics *MetricsService, notifier *NotificationService, logger *zap.Logger) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workflow == nil {
		workflow = NewUGFormWorkflow(repo)
	}
	return &ApprovalService{repo: repo, workflow: workflow, audit: audit, cache: cache, metrics: metrics, notifier: notifier, logger: logger}
}

// TutorQueue lists forms assigned to the calling tutor with scoped stats.
func (s *ApprovalService) TutorQueue(ctx context.Context, actor *models.JWTClaims, query dto.QueueQuery) (*dto.TutorQueue, error) {
	if actor == nil || actor.Role != models.RoleTutor {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "tutor access required")
	}
	statuses, err := queueStatuses(tutorQueueFilters, query.Status)
	if err != nil {
		return nil, err
	}
	scope := models.UGFormScope{TutorEmail: strings.ToLower(strings.TrimSpace(actor.Email))}

	forms, total, err := s.repo.List(ctx, models.UGFormFilter{Scope: scope, Statuses: statuses, Search: query.Search, Page: query.Page, PageSize: query.PageSize})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list forms")
	}
	counts, err := s.scopedCounts(ctx, "tutor:"+scope.TutorEmail, scope)
	if err != nil {
		return nil, err
	}

	return &dto.TutorQueue{
		Forms: nonNilForms(forms),
		Stats: dto.TutorStats{
			Pending:  counts[models.UGFormStatusSubmitted],
			Signed:   counts.Sum(tutorSigned...),
			Rejected: counts[models.UGFormStatusTutorRejected],
			Total:    counts.Total(),
		},
		Pagination: pagination(query.Page, query.PageSize, total),
	}, nil
}

// ManagerQueue lists forms of the manager's department that have passed the tutor.
func (s *ApprovalService) ManagerQueue(ctx context.Context, actor *models.JWTClaims, query dto.QueueQuery) (*dto.ManagerQueue, error) {
	if actor == nil || actor.Role != models.RoleManager {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "manager access required")
	}
	statuses, err := queueStatuses(managerQueueFilters, query.Status)
	if err != nil {
		return nil, err
	}
	scope := models.UGFormScope{DepartmentName: strings.TrimSpace(actor.Department)}
	if scope.DepartmentName == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "manager account has no department")
	}

	forms, total, err := s.repo.List(ctx, models.UGFormFilter{Scope: scope, Statuses: statuses, Search: query.Search, Page: query.Page, PageSize: query.PageSize})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list forms")
	}
	counts, err := s.scopedCounts(ctx, "manager:"+scope.DepartmentName, scope)
	if err != nil {
		return nil, err
	}

	return &dto.ManagerQueue{
		Forms: nonNilForms(forms),
		Stats: dto.ManagerStats{
			Pending:  counts[models.UGFormStatusTutorApproved],
			Approved: counts[models.UGFormStatusManagerApproved],
			Rejected: counts[models.UGFormStatusCollectorRejected],
			Total:    counts.Sum(tutorSigned...),
		},
		Pagination: pagination(query.Page, query.PageSize, total),
	}, nil
}

// TutorDecide applies a tutor's sign or reject action.
func (s *ApprovalService) TutorDecide(ctx context.Context, actor *models.JWTClaims, req dto.TutorActionRequest, meta models.RequestMeta) (*dto.TransitionResponse, error) {
	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case "sign":
		return s.decide(ctx, actor, ActionTutorSign, req.FormID, req.TutorSignature, meta)
	case "reject":
		return s.decide(ctx, actor, ActionTutorReject, req.FormID, req.RejectionReason, meta)
	}
	return nil, appErrors.Validation("action", "action must be sign or reject")
}

// ManagerDecide applies a manager's approve or reject action.
func (s *ApprovalService) ManagerDecide(ctx context.Context, actor *models.JWTClaims, req dto.ManagerActionRequest, meta models.RequestMeta) (*dto.TransitionResponse, error) {
	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case "approve":
		return s.decide(ctx, actor, ActionManagerApprove, req.FormID, req.VerificationNotes, meta)
	case "reject":
		return s.decide(ctx, actor, ActionManagerReject, req.FormID, req.RejectionReason, meta)
	}
	return nil, appErrors.Validation("action", "action must be approve or reject")
}

func (s *ApprovalService) decide(ctx context.Context, actor *models.JWTClaims, action WorkflowAction, formID, input string, meta models.RequestMeta) (*dto.TransitionResponse, error) {
	result, err := s.workflow.Transition(ctx, actor, action, formID, input)
	if err != nil {
		s.metrics.RecordTransition(string(action), appErrors.FromError(err).Code)
		return nil, err
	}
	s.metrics.RecordTransition(string(action), "ok")
	form := result.Form

	oldValues, _ := json.Marshal(map[string]interface{}{"status": result.From})
	newValues, _ := json.Marshal(map[string]interface{}{
		"status":            form.Status,
		"tutorSignature":    form.TutorSignature,
		"rejectionReason":   form.RejectionReason,
		"verificationNotes": form.VerificationNotes,
	})
	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actor.UserID,
			Action:     result.AuditAction,
			Resource:   "ugforms",
			ResourceID: &form.ID,
			OldValues:  oldValues,
			NewValues:  newValues,
			IPAddress:  meta.IP,
			UserAgent:  meta.UserAgent,
		}); err != nil {
			s.logger.Warn("failed to record transition audit log", zap.String("form_id", form.ID), zap.Error(err))
		}
	}

	s.cache.InvalidateStats(ctx)
	s.notifier.FormEvent(ctx, form, string(form.Status))

	s.logger.Info("ugform transition",
		zap.String("form_id", form.ID),
		zap.String("action", string(action)),
		zap.String("from", string(result.From)),
		zap.String("to", string(form.Status)),
		zap.String("actor_id", actor.UserID),
	)

	return &dto.TransitionResponse{
		FormID:         form.ID,
		FormNumber:     form.FormNumber,
		PreviousStatus: result.From,
		Status:         form.Status,
		Form:           form,
	}, nil
}

func (s *ApprovalService) scopedCounts(ctx context.Context, key string, scope models.UGFormScope) (models.UGFormStatusCounts, error) {
	counts, err := s.cache.StatusCounts(ctx, key, func(ctx context.Context) (models.UGFormStatusCounts, error) {
		return s.repo.CountByStatus(ctx, scope)
	})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count forms")
	}
	return counts, nil
}

func queueStatuses(filters map[string][]models.UGFormStatus, raw string) ([]models.UGFormStatus, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		key = "all"
	}
	statuses, ok := filters[key]
	if !ok {
		return nil, appErrors.Validation("status", "unknown status filter "+raw)
	}
	return statuses, nil
}

func nonNilForms(forms []models.UGForm) []models.UGForm {
	if forms == nil {
		return []models.UGForm{}
	}
	return forms
}
