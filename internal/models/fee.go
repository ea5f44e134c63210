package models

import "time"

// FeeStatus captures the review state of a fee voucher.
type FeeStatus string

const (
	FeeStatusPending    FeeStatus = "pending"
	FeeStatusProcessing FeeStatus = "processing"
	FeeStatusApproved   FeeStatus = "approved"
	FeeStatusRejected   FeeStatus = "rejected"
)

// CanMoveTo reports whether the fee office may move a voucher from s to next.
func (s FeeStatus) CanMoveTo(next FeeStatus) bool {
	switch s {
	case FeeStatusPending:
		return next == FeeStatusProcessing || next == FeeStatusApproved || next == FeeStatusRejected
	case FeeStatusProcessing:
		return next == FeeStatusApproved || next == FeeStatusRejected
	}
	return false
}

// FeeVerification is a student-submitted bank voucher awaiting fee-office review.
type FeeVerification struct {
	ID                 string     `db:"id" json:"id"`
	RegistrationNumber string     `db:"registration_number" json:"registrationNumber"`
	StudentName        string     `db:"student_name" json:"studentName"`
	VoucherNumber      string     `db:"voucher_number" json:"voucherNumber"`
	BankName           string     `db:"bank_name" json:"bankName"`
	BranchCode         string     `db:"branch_code" json:"branchCode"`
	Amount             int64      `db:"amount" json:"amount"`
	DepositDate        time.Time  `db:"deposit_date" json:"depositDate"`
	VoucherImageURL    *string    `db:"voucher_image_url" json:"voucherImageUrl,omitempty"`
	Status             FeeStatus  `db:"status" json:"status"`
	Remarks            *string    `db:"remarks" json:"remarks,omitempty"`
	ReviewedBy         *string    `db:"reviewed_by" json:"reviewedBy,omitempty"`
	ReviewedAt         *time.Time `db:"reviewed_at" json:"reviewedAt,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updatedAt"`
}

// FeeFilter constrains voucher listings.
type FeeFilter struct {
	RegistrationNumber string
	Status             FeeStatus
	Page               int
	PageSize           int
}
