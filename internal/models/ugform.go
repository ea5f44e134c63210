package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// UGFormStatus captures the workflow state of a UG-1 form.
type UGFormStatus string

const (
	UGFormStatusSubmitted         UGFormStatus = "submitted"
	UGFormStatusTutorApproved     UGFormStatus = "tutor_approved"
	UGFormStatusTutorRejected     UGFormStatus = "tutor_rejected"
	UGFormStatusManagerApproved   UGFormStatus = "manager_approved"
	UGFormStatusCollectorRejected UGFormStatus = "collector_rejected"
)

// ActiveUGFormStatuses are the statuses that block a duplicate submission.
var ActiveUGFormStatuses = []UGFormStatus{UGFormStatusSubmitted, UGFormStatusTutorApproved}

// Terminal reports whether no further transition may leave the status.
func (s UGFormStatus) Terminal() bool {
	switch s {
	case UGFormStatusTutorRejected, UGFormStatusManagerApproved, UGFormStatusCollectorRejected:
		return true
	}
	return false
}

// SubjectSelection is one subject chosen on a UG-1 form.
type SubjectSelection struct {
	Code           string `json:"code"`
	Name           string `json:"name"`
	CreditHours    string `json:"creditHours,omitempty"`
	TheoryHours    int    `json:"theoryHours"`
	PracticalHours int    `json:"practicalHours"`
	TotalCredits   int    `json:"totalCredits"`
	IsExtra        bool   `json:"isExtra"`
}

// SubjectList is stored as a JSONB array.
type SubjectList []SubjectSelection

// Value implements driver.Valuer.
func (l SubjectList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *SubjectList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// PDFCopy names one of the printable copy variants of an approved form.
type PDFCopy string

const (
	PDFCopyStudent  PDFCopy = "student"
	PDFCopyAdvisor  PDFCopy = "advisor"
	PDFCopyControl  PDFCopy = "control"
	PDFCopyDirector PDFCopy = "director"
)

// PDFCopies lists the variants in print order.
var PDFCopies = []PDFCopy{PDFCopyStudent, PDFCopyAdvisor, PDFCopyControl, PDFCopyDirector}

// ParsePDFCopy validates a copy variant name.
func ParsePDFCopy(raw string) (PDFCopy, bool) {
	for _, c := range PDFCopies {
		if string(c) == raw {
			return c, true
		}
	}
	return "", false
}

// PDFFlags records which copy variants have been generated.
type PDFFlags struct {
	Student  bool `json:"student"`
	Advisor  bool `json:"advisor"`
	Control  bool `json:"control"`
	Director bool `json:"director"`
}

// Mark sets the flag for the given variant.
func (f *PDFFlags) Mark(variant PDFCopy) {
	switch variant {
	case PDFCopyStudent:
		f.Student = true
	case PDFCopyAdvisor:
		f.Advisor = true
	case PDFCopyControl:
		f.Control = true
	case PDFCopyDirector:
		f.Director = true
	}
}

// Value implements driver.Valuer.
func (f PDFFlags) Value() (driver.Value, error) {
	return json.Marshal(f)
}

// Scan implements sql.Scanner.
func (f *PDFFlags) Scan(src interface{}) error {
	return scanJSON(src, f)
}

// UGForm is the persisted UG-1 course registration form.
type UGForm struct {
	ID                  string       `db:"id" json:"id"`
	FormNumber          string       `db:"form_number" json:"formNumber"`
	RegisteredNo        string       `db:"registered_no" json:"registeredNo"`
	StudentName         string       `db:"student_name" json:"studentName"`
	FatherName          string       `db:"father_name" json:"fatherName"`
	DepartmentName      string       `db:"department_name" json:"departmentName"`
	DegreeName          string       `db:"degree_name" json:"degreeName"`
	Semester            int          `db:"semester" json:"semester"`
	Section             string       `db:"section" json:"section"`
	Session             string       `db:"session" json:"session"`
	AdmissionTerm       string       `db:"admission_term" json:"admissionTerm"`
	TutorName           string       `db:"tutor_name" json:"tutorName"`
	TutorEmail          string       `db:"tutor_email" json:"tutorEmail"`
	Subjects            SubjectList  `db:"subjects" json:"subjects"`
	ExtraSubjects       SubjectList  `db:"extra_subjects" json:"extraSubjects"`
	TotalCreditHours    int          `db:"total_credit_hours" json:"totalCreditHours"`
	Status              UGFormStatus `db:"status" json:"status"`
	TutorSignature      *string      `db:"tutor_signature" json:"tutorSignature,omitempty"`
	TutorSignedAt       *time.Time   `db:"tutor_signed_at" json:"tutorSignedAt,omitempty"`
	TutorActionAt       *time.Time   `db:"tutor_action_at" json:"tutorActionAt,omitempty"`
	RejectionReason     *string      `db:"rejection_reason" json:"rejectionReason,omitempty"`
	VerificationNotes   *string      `db:"verification_notes" json:"verificationNotes,omitempty"`
	ManagerApprovedAt   *time.Time   `db:"manager_approved_at" json:"managerApprovedAt,omitempty"`
	CollectorRejectedAt *time.Time   `db:"collector_rejected_at" json:"collectorRejectedAt,omitempty"`
	CompletedAt         *time.Time   `db:"completed_at" json:"completedAt,omitempty"`
	PDFGenerated        *PDFFlags    `db:"pdf_generated" json:"pdfGenerated,omitempty"`
	SubmittedBy         string       `db:"submitted_by" json:"submittedBy"`
	CreatedAt           time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time    `db:"updated_at" json:"updatedAt"`
}

// UGFormScope restricts form queries to what an actor may see.
type UGFormScope struct {
	TutorEmail     string
	DepartmentName string
	RegisteredNo   string
}

// UGFormFilter constrains listing queries.
type UGFormFilter struct {
	Scope    UGFormScope
	Statuses []UGFormStatus
	Search   string
	Page     int
	PageSize int
}

// UGFormStatusCounts maps each status to the number of forms in scope.
type UGFormStatusCounts map[UGFormStatus]int

// Total sums every status.
func (c UGFormStatusCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Sum adds the counts of the given statuses.
func (c UGFormStatusCounts) Sum(statuses ...UGFormStatus) int {
	total := 0
	for _, s := range statuses {
		total += c[s]
	}
	return total
}

// UGFormTransition is the single-row update produced by the workflow.
type UGFormTransition struct {
	ID                  string
	From                UGFormStatus
	To                  UGFormStatus
	TutorSignature      *string
	TutorSignedAt       *time.Time
	TutorActionAt       *time.Time
	RejectionReason     *string
	VerificationNotes   *string
	ManagerApprovedAt   *time.Time
	CollectorRejectedAt *time.Time
	CompletedAt         *time.Time
	PDFGenerated        *PDFFlags
	UpdatedAt           time.Time
}

// Apply copies the transition's effects onto the form.
func (t UGFormTransition) Apply(form *UGForm) {
	form.Status = t.To
	form.UpdatedAt = t.UpdatedAt
	if t.TutorSignature != nil {
		form.TutorSignature = t.TutorSignature
	}
	if t.TutorSignedAt != nil {
		form.TutorSignedAt = t.TutorSignedAt
	}
	if t.TutorActionAt != nil {
		form.TutorActionAt = t.TutorActionAt
	}
	if t.RejectionReason != nil {
		form.RejectionReason = t.RejectionReason
	}
	if t.VerificationNotes != nil {
		form.VerificationNotes = t.VerificationNotes
	}
	if t.ManagerApprovedAt != nil {
		form.ManagerApprovedAt = t.ManagerApprovedAt
	}
	if t.CollectorRejectedAt != nil {
		form.CollectorRejectedAt = t.CollectorRejectedAt
	}
	if t.CompletedAt != nil {
		form.CompletedAt = t.CompletedAt
	}
	if t.PDFGenerated != nil {
		flags := *t.PDFGenerated
		form.PDFGenerated = &flags
	}
}

func scanJSON(src interface{}, dest interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported json source %T", src)
	}
}
