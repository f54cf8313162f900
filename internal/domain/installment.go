package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInstallmentNotFound   = errors.New("installment not found")
	ErrInstallmentSeqInvalid = errors.New("installment sequence must be at least 1")
	ErrInstallmentOverpaid   = errors.New("installment paid amount exceeds its scheduled total")
)

type InstallmentStatus string

const (
	InstallmentStatusPending       InstallmentStatus = "pending"
	InstallmentStatusPartiallyPaid InstallmentStatus = "partially_paid"
	InstallmentStatusPaid          InstallmentStatus = "paid"
	InstallmentStatusOverdue       InstallmentStatus = "overdue"
)

// Installment is one scheduled repayment unit of a loan. Sequence numbers are
// strictly increasing and unique within the loan.
type Installment struct {
	ID         int32             `json:"id"`
	LoanID     int32             `json:"loanId"`
	Seq        int32             `json:"seq"`
	DueDate    time.Time         `json:"dueDate"`
	Principal  decimal.Decimal   `json:"principal"`
	Interest   decimal.Decimal   `json:"interest"`
	AmountPaid decimal.Decimal   `json:"amountPaid"`
	Status     InstallmentStatus `json:"status"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// ScheduledTotal is the full amount due for this installment.
func (i *Installment) ScheduledTotal() decimal.Decimal {
	return i.Principal.Add(i.Interest)
}

// Outstanding is the amount still owed on this installment.
func (i *Installment) Outstanding() decimal.Decimal {
	return i.ScheduledTotal().Sub(i.AmountPaid)
}

// IsPaid reports whether the installment is fully settled.
func (i *Installment) IsPaid() bool {
	return i.AmountPaid.GreaterThanOrEqual(i.ScheduledTotal())
}

// StatusAsOf derives the installment status from its paid amount and due date.
// An installment still carrying a balance after its due date is overdue.
func (i *Installment) StatusAsOf(asOf time.Time) InstallmentStatus {
	if i.IsPaid() {
		return InstallmentStatusPaid
	}
	if asOf.After(i.DueDate) {
		return InstallmentStatusOverdue
	}
	if i.AmountPaid.IsPositive() {
		return InstallmentStatusPartiallyPaid
	}
	return InstallmentStatusPending
}

// UpcomingInstallment is an installment joined with its loan and client for
// the upcoming-payments view.
type UpcomingInstallment struct {
	Installment
	ClientID    int32  `json:"clientId"`
	ClientName  string `json:"clientName"`
	Description string `json:"description"`
}

type InstallmentRepository interface {
	CreateBatchTx(tx interface{}, installments []*Installment) ([]*Installment, error)
	GetByLoanID(loanID int32) ([]*Installment, error)
	GetByLoanIDTx(tx interface{}, loanID int32) ([]*Installment, error)
	UpdatePaymentStateTx(tx interface{}, id int32, amountPaid decimal.Decimal, status InstallmentStatus) error
	UpdateStatus(id int32, status InstallmentStatus) error
	GetUpcoming(from, to time.Time) ([]*UpcomingInstallment, error)
	SumOutstandingPrincipal() (decimal.Decimal, error)
	SumOverdue(asOf time.Time) (decimal.Decimal, error)
}
