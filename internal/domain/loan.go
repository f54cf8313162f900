package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrLoanNotFound           = errors.New("loan not found")
	ErrLoanPrincipalInvalid   = errors.New("loan principal must be positive")
	ErrLoanRateInvalid        = errors.New("loan interest rate must not be negative")
	ErrLoanTermInvalid        = errors.New("loan term must be at least 1 installment")
	ErrLoanStartDateInvalid   = errors.New("loan start date is required")
	ErrLoanFeeInvalid         = errors.New("origination fee must not be negative")
	ErrLoanDescriptionEmpty   = errors.New("loan description is required")
	ErrLoanDescriptionTooLong = errors.New("loan description must be 200 characters or less")
	ErrLoanNotPayable         = errors.New("loan does not accept payments in its current status")
	ErrLoanNotCancellable     = errors.New("loan cannot be cancelled in its current status")
)

// LoanKind distinguishes a cash loan from a product bought on credit. Both
// repay through the same installment schedule.
type LoanKind string

const (
	LoanKindCash     LoanKind = "loan"
	LoanKindPurchase LoanKind = "purchase"
)

type LoanStatus string

const (
	LoanStatusActive     LoanStatus = "active"
	LoanStatusPaid       LoanStatus = "paid"
	LoanStatusDelinquent LoanStatus = "delinquent"
	LoanStatusCancelled  LoanStatus = "cancelled"
)

// Loan is a repayment obligation owned by a client. Principal, rate, term and
// start date are immutable after creation; corrections go through a
// compensating cancellation plus a new loan.
type Loan struct {
	ID             int32            `json:"id"`
	ClientID       int32            `json:"clientId"`
	Kind           LoanKind         `json:"kind"`
	Description    string           `json:"description"`
	Principal      decimal.Decimal  `json:"principal"`
	AnnualRate     decimal.Decimal  `json:"annualRate"`
	TermCount      int32            `json:"termCount"`
	StartDate      time.Time        `json:"startDate"`
	OriginationFee *decimal.Decimal `json:"originationFee,omitempty"`
	Status         LoanStatus       `json:"status"`
	CreditBalance  decimal.Decimal  `json:"creditBalance"`
	CancelledAt    *time.Time       `json:"cancelledAt,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
	Installments   []*Installment   `json:"installments,omitempty"`
}

func (l *Loan) Validate() error {
	if l.Description == "" {
		return ErrLoanDescriptionEmpty
	}
	if len(l.Description) > MaxLoanDescriptionLength {
		return ErrLoanDescriptionTooLong
	}
	if l.Principal.LessThanOrEqual(decimal.Zero) {
		return ErrLoanPrincipalInvalid
	}
	if l.AnnualRate.IsNegative() {
		return ErrLoanRateInvalid
	}
	if l.TermCount < 1 {
		return ErrLoanTermInvalid
	}
	if l.StartDate.IsZero() {
		return ErrLoanStartDateInvalid
	}
	if l.OriginationFee != nil && l.OriginationFee.IsNegative() {
		return ErrLoanFeeInvalid
	}
	return nil
}

// AcceptsPayments reports whether the loan is in a status that allows new
// payments.
func (l *Loan) AcceptsPayments() bool {
	return l.Status == LoanStatusActive || l.Status == LoanStatusDelinquent
}

// Cancellable reports whether the loan can transition to cancelled.
func (l *Loan) Cancellable() bool {
	return l.Status == LoanStatusActive || l.Status == LoanStatusDelinquent
}

// ClassifyLoan derives the loan status from its installments as of a date.
// Cancelled is terminal and overrides every other derivation.
func ClassifyLoan(loan *Loan, installments []*Installment, asOf time.Time) LoanStatus {
	if loan.Status == LoanStatusCancelled {
		return LoanStatusCancelled
	}
	allPaid := true
	for _, inst := range installments {
		status := inst.StatusAsOf(asOf)
		if status == InstallmentStatusOverdue {
			return LoanStatusDelinquent
		}
		if status != InstallmentStatusPaid {
			allPaid = false
		}
	}
	if allPaid && len(installments) > 0 {
		return LoanStatusPaid
	}
	return LoanStatusActive
}

type LoanRepository interface {
	CreateTx(tx interface{}, loan *Loan) (*Loan, error)
	GetByID(id int32) (*Loan, error)
	GetByIDForUpdateTx(tx interface{}, id int32) (*Loan, error)
	GetAll() ([]*Loan, error)
	GetByClientID(clientID int32) ([]*Loan, error)
	UpdateStatus(id int32, status LoanStatus) error
	UpdateStatusTx(tx interface{}, id int32, status LoanStatus) error
	UpdateCreditBalanceTx(tx interface{}, id int32, credit decimal.Decimal) error
	MarkCancelledTx(tx interface{}, id int32, cancelledAt time.Time) error
	CountByStatus(status LoanStatus) (int64, error)
}
