package service

import (
	"context"
	"database/sql"
	"errors"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/noah-isme/ug1-portal-api/internal/models"
	"github.com/noah-isme/ug1-portal-api/internal/rbac"
	appErrors "github.com/noah-isme/ug1-portal-api/pkg/errors"
)

// WorkflowAction names one edge of the UG-1 state machine.
type WorkflowAction string

const (
	ActionTutorSign      WorkflowAction = "tutor_sign"
	ActionTutorReject    WorkflowAction = "tutor_reject"
	ActionManagerApprove WorkflowAction = "manager_approve"
	ActionManagerReject  WorkflowAction = "manager_reject"
)

// transitionRule is one row of the state machine table.
type transitionRule struct {
	From        models.UGFormStatus
	To          models.UGFormStatus
	Actor       models.UserRole
	InputField  string
	AuditAction string
	owns        func(actor *models.JWTClaims, form *models.UGForm) bool
	apply       func(t *models.UGFormTransition, input *string, now time.Time)
}

func tutorOwns(actor *models.JWTClaims, form *models.UGForm) bool {
	return actor.Email != "" && strings.EqualFold(strings.TrimSpace(actor.Email), strings.TrimSpace(form.TutorEmail))
}

func managerOwns(actor *models.JWTClaims, form *models.UGForm) bool {
	return actor.Department != "" && strings.TrimSpace(actor.Department) == strings.TrimSpace(form.DepartmentName)
}

var workflowTable = map[WorkflowAction]transitionRule{
	ActionTutorSign: {
		From: models.UGFormStatusSubmitted, To: models.UGFormStatusTutorApproved, Actor: models.RoleTutor,
		InputField: "tutorSignature", AuditAction: models.AuditActionUGFormTutorSign, owns: tutorOwns,
		apply: func(t *models.UGFormTransition, input *string, now time.Time) {
			t.TutorSignature = input
			t.TutorSignedAt = &now
			t.TutorActionAt = &now
		},
	},
	ActionTutorReject: {
		From: models.UGFormStatusSubmitted, To: models.UGFormStatusTutorRejected, Actor: models.RoleTutor,
		InputField: "rejectionReason", AuditAction: models.AuditActionUGFormTutorReject, owns: tutorOwns,
		apply: func(t *models.UGFormTransition, input *string, now time.Time) {
			t.RejectionReason = input
			t.TutorActionAt = &now
		},
	},
	ActionManagerApprove: {
		From: models.UGFormStatusTutorApproved, To: models.UGFormStatusManagerApproved, Actor: models.RoleManager,
		AuditAction: models.AuditActionUGFormManagerApprove, owns: managerOwns,
		apply: func(t *models.UGFormTransition, input *string, now time.Time) {
			t.VerificationNotes = input
			t.ManagerApprovedAt = &now
			t.CompletedAt = &now
			t.PDFGenerated = &models.PDFFlags{}
		},
	},
	ActionManagerReject: {
		From: models.UGFormStatusTutorApproved, To: models.UGFormStatusCollectorRejected, Actor: models.RoleManager,
		InputField: "rejectionReason", AuditAction: models.AuditActionUGFormManagerReject, owns: managerOwns,
		apply: func(t *models.UGFormTransition, input *string, now time.Time) {
			t.RejectionReason = input
			t.CollectorRejectedAt = &now
		},
	},
}

// NextStatus reports where action leads from status, if the edge exists.
func NextStatus(from models.UGFormStatus, action WorkflowAction) (models.UGFormStatus, bool) {
	rule, ok := workflowTable[action]
	if !ok || rule.From != from {
		return "", false
	}
	return rule.To, true
}

type ugformTransitionStore interface {
	FindByID(ctx context.Context, id string) (*models.UGForm, error)
	ApplyTransition(ctx context.Context, t models.UGFormTransition) error
}

// TransitionResult is the outcome of a successful transition.
type TransitionResult struct {
	Form        *models.UGForm
	From        models.UGFormStatus
	AuditAction string
}

// UGFormWorkflow is the single dispatch point for every UG-1 status change.
type UGFormWorkflow struct {
	store     ugformTransitionStore
	sanitizer *bluemonday.Policy
	now       func() time.Time
}

// NewUGFormWorkflow constructs the workflow engine.
func NewUGFormWorkflow(store ugformTransitionStore) *UGFormWorkflow {
	return &UGFormWorkflow{store: store, sanitizer: bluemonday.StrictPolicy(), now: time.Now}
}

// Transition validates and applies action to the form. Every precondition is checked
// before the conditional write, in order: actor role, required input, existence,
// ownership, current status.
func (w *UGFormWorkflow) Transition(ctx context.Context, actor *models.JWTClaims, action WorkflowAction, formID, input string) (*TransitionResult, error) {
	rule, ok := workflowTable[action]
	if !ok {
		return nil, appErrors.Validation("action", "unknown action")
	}
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !rbac.Allowed(actor.Role, rule.Actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only a "+string(rule.Actor)+" may perform this action")
	}

	cleaned := w.sanitize(input)
	if rule.InputField != "" && cleaned == "" {
		return nil, appErrors.Validation(rule.InputField, rule.InputField+" is required")
	}
	formID = strings.TrimSpace(formID)
	if formID == "" {
		return nil, appErrors.Validation("formId", "formId is required")
	}

	form, err := w.store.FindByID(ctx, formID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "form not found")
		}
		return nil, appErrors.Internal(err, "failed to load form")
	}
	if !rule.owns(actor, form) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "form is not assigned to you")
	}
	if form.Status != rule.From {
		return nil, invalidState(form.Status, "form is "+string(form.Status)+", expected "+string(rule.From))
	}

	now := w.now().UTC()
	transition := models.UGFormTransition{ID: form.ID, From: rule.From, To: rule.To, UpdatedAt: now}
	var inputPtr *string
	if cleaned != "" {
		inputPtr = &cleaned
	}
	rule.apply(&transition, inputPtr, now)

	if err := w.store.ApplyTransition(ctx, transition); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			current := form.Status
			if latest, findErr := w.store.FindByID(ctx, form.ID); findErr == nil {
				current = latest.Status
			}
			return nil, invalidState(current, "form was updated by another request")
		}
		return nil, appErrors.Internal(err, "failed to update form")
	}

	transition.Apply(form)
	return &TransitionResult{Form: form, From: rule.From, AuditAction: rule.AuditAction}, nil
}

// sanitize strips markup from free text. Entities are decoded again because the
// value is stored as plain text, not HTML.
func (w *UGFormWorkflow) sanitize(input string) string {
	return strings.TrimSpace(html.UnescapeString(w.sanitizer.Sanitize(input)))
}

func invalidState(current models.UGFormStatus, message string) error {
	return appErrors.WithDetails(appErrors.Clone(appErrors.ErrInvalidState, message), map[string]interface{}{"currentStatus": current})
}
