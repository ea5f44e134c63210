package dto

import "github.com/noah-isme/ug1-portal-api/internal/models"

// SubmitFeeRequest is a student's voucher submission.
type SubmitFeeRequest struct {
	VoucherNumber   string `json:"voucherNumber" validate:"required"`
	BankName        string `json:"bankName" validate:"required"`
	BranchCode      string `json:"branchCode"`
	Amount          int64  `json:"amount" validate:"required,gt=0"`
	DepositDate     string `json:"depositDate" validate:"required"`
	VoucherImageURL string `json:"voucherImageUrl" validate:"omitempty,url"`
}

// ReviewFeeRequest is the fee office decision on a voucher.
type ReviewFeeRequest struct {
	Status  models.FeeStatus `json:"status" validate:"required,oneof=processing approved rejected"`
	Remarks string           `json:"remarks"`
}
