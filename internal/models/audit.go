package models

import (
	"encoding/json"
	"time"
)

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin                = "LOGIN"
	AuditActionLogout               = "LOGOUT"
	AuditActionUserCreate           = "USER_CREATE"
	AuditActionUserUpdate           = "USER_UPDATE"
	AuditActionUserDelete           = "USER_DELETE"
	AuditActionUserRegister         = "USER_REGISTER"
	AuditActionUGFormSubmit         = "UGFORM_SUBMIT"
	AuditActionUGFormTutorSign      = "UGFORM_TUTOR_SIGN"
	AuditActionUGFormTutorReject    = "UGFORM_TUTOR_REJECT"
	AuditActionUGFormManagerApprove = "UGFORM_MANAGER_APPROVE"
	AuditActionUGFormManagerReject  = "UGFORM_MANAGER_REJECT"
	AuditActionUGFormPDF            = "UGFORM_PDF"
	AuditActionUGFormDownload       = "UGFORM_DOWNLOAD"
	AuditActionFeeSubmit            = "FEE_SUBMIT"
	AuditActionFeeReview            = "FEE_REVIEW"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string          `db:"id" json:"id"`
	UserID     *string         `db:"user_id" json:"userId,omitempty"`
	Action     string          `db:"action" json:"action"`
	Resource   string          `db:"resource" json:"resource"`
	ResourceID *string         `db:"resource_id" json:"resourceId,omitempty"`
	OldValues  json.RawMessage `db:"old_values" json:"oldValues,omitempty"`
	NewValues  json.RawMessage `db:"new_values" json:"newValues,omitempty"`
	IPAddress  string          `db:"ip_address" json:"ipAddress"`
	UserAgent  string          `db:"user_agent" json:"userAgent"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}

// RequestMeta carries caller network details recorded in audit entries.
type RequestMeta struct {
	IP        string
	UserAgent string
}
