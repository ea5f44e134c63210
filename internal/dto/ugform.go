package dto

import (
	"time"

	"github.com/noah-isme/ug1-portal-api/internal/models"
)

// SubjectInput is one subject row on a submitted form.
type SubjectInput struct {
	Code           string `json:"code"`
	Name           string `json:"name"`
	CreditHours    string `json:"creditHours"`
	TheoryHours    *int   `json:"theoryHours"`
	PracticalHours *int   `json:"practicalHours"`
	TotalCredits   *int   `json:"totalCredits"`
}

// SubmitUGFormRequest is the full form draft posted by a student.
type SubmitUGFormRequest struct {
	DepartmentName string         `json:"departmentName"`
	DegreeName     string         `json:"degreeName"`
	Semester       int            `json:"semester"`
	Section        string         `json:"section"`
	Session        string         `json:"session"`
	AdmissionTerm  string         `json:"admissionTerm"`
	RegisteredNo   string         `json:"registeredNo"`
	StudentName    string         `json:"studentName"`
	FatherName     string         `json:"fatherName"`
	TutorName      string         `json:"tutorName"`
	TutorEmail     string         `json:"tutorEmail"`
	Subjects       []SubjectInput `json:"subjects"`
	ExtraSubjects  []SubjectInput `json:"extraSubjects"`
}

// SubmitUGFormResponse acknowledges a stored form.
type SubmitUGFormResponse struct {
	ID               string              `json:"id"`
	FormNumber       string              `json:"formNumber"`
	Status           models.UGFormStatus `json:"status"`
	TotalCreditHours int                 `json:"totalCreditHours"`
}

// TutorActionRequest is the body of PUT /tutor/sign.
type TutorActionRequest struct {
	FormID          string `json:"formId"`
	Action          string `json:"action"`
	TutorSignature  string `json:"tutorSignature"`
	RejectionReason string `json:"rejectionReason"`
}

// ManagerActionRequest is the body of PUT /manager/approval.
type ManagerActionRequest struct {
	FormID            string `json:"formId"`
	Action            string `json:"action"`
	VerificationNotes string `json:"verificationNotes"`
	RejectionReason   string `json:"rejectionReason"`
}

// QueueQuery carries list filters for tutor and manager queues.
type QueueQuery struct {
	Status   string
	Search   string
	Page     int
	PageSize int
}

// TutorStats summarises a tutor's forms.
type TutorStats struct {
	Pending  int `json:"pending"`
	Signed   int `json:"signed"`
	Rejected int `json:"rejected"`
	Total    int `json:"total"`
}

// ManagerStats summarises a department's forms awaiting or past verification.
type ManagerStats struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Total    int `json:"total"`
}

// TutorQueue is the tutor sign page payload.
type TutorQueue struct {
	Forms      []models.UGForm    `json:"forms"`
	Stats      TutorStats         `json:"stats"`
	Pagination *models.Pagination `json:"pagination"`
}

// ManagerQueue is the manager approval page payload.
type ManagerQueue struct {
	Forms      []models.UGForm    `json:"forms"`
	Stats      ManagerStats       `json:"stats"`
	Pagination *models.Pagination `json:"pagination"`
}

// TransitionResponse reports the new state of a form after an action.
type TransitionResponse struct {
	FormID         string              `json:"formId"`
	FormNumber     string              `json:"formNumber"`
	PreviousStatus models.UGFormStatus `json:"previousStatus"`
	Status         models.UGFormStatus `json:"status"`
	Form           *models.UGForm      `json:"form"`
}

// StatusSummary is the admin-wide count per status.
type StatusSummary struct {
	ByStatus models.UGFormStatusCounts `json:"byStatus"`
	Total    int                       `json:"total"`
}

// AutofillResponse pre-populates a new form from the student's profile and last form.
type AutofillResponse struct {
	RegisteredNo   string `json:"registeredNo"`
	StudentName    string `json:"studentName"`
	FatherName     string `json:"fatherName,omitempty"`
	DepartmentName string `json:"departmentName,omitempty"`
	DegreeName     string `json:"degreeName,omitempty"`
	Semester       int    `json:"semester,omitempty"`
	Section        string `json:"section,omitempty"`
	Session        string `json:"session,omitempty"`
	AdmissionTerm  string `json:"admissionTerm,omitempty"`
	TutorName      string `json:"tutorName,omitempty"`
	TutorEmail     string `json:"tutorEmail,omitempty"`
}

// PDFLinkResponse is returned after a copy has been rendered.
type PDFLinkResponse struct {
	FormID    string          `json:"formId"`
	Copy      models.PDFCopy  `json:"copy"`
	URL       string          `json:"url"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Generated models.PDFFlags `json:"generated"`
}
