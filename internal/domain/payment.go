package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrPaymentNotFound         = errors.New("payment not found")
	ErrPaymentAmountInvalid    = errors.New("payment amount must be positive")
	ErrPaymentRequestIDMissing = errors.New("payment request id is required")
	ErrPaymentDateInvalid      = errors.New("payment date is required")
)

// Payment is a manually recorded receipt against a loan, broken down into
// per-installment allocations. The allocations always sum to the portion of
// the payment applied to installments; any remainder is held on the loan as a
// credit balance.
type Payment struct {
	ID           int32                `json:"id"`
	LoanID       int32                `json:"loanId"`
	RequestID    uuid.UUID            `json:"requestId"`
	Amount       decimal.Decimal      `json:"amount"`
	ReceivedDate time.Time            `json:"receivedDate"`
	RecordedBy   string               `json:"recordedBy"`
	CreatedAt    time.Time            `json:"createdAt"`
	Allocations  []*PaymentAllocation `json:"allocations,omitempty"`
}

// PaymentAllocation is the portion of a payment applied to one installment.
type PaymentAllocation struct {
	ID            int32           `json:"id"`
	PaymentID     int32           `json:"paymentId"`
	InstallmentID int32           `json:"installmentId"`
	Amount        decimal.Decimal `json:"amount"`
}

func (p *Payment) Validate() error {
	if p.RequestID == uuid.Nil {
		return ErrPaymentRequestIDMissing
	}
	if p.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrPaymentAmountInvalid
	}
	if p.ReceivedDate.IsZero() {
		return ErrPaymentDateInvalid
	}
	return nil
}

// AllocatedTotal sums the payment's allocations.
func (p *Payment) AllocatedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, a := range p.Allocations {
		total = total.Add(a.Amount)
	}
	return total
}

type PaymentRepository interface {
	CreateTx(tx interface{}, payment *Payment) (*Payment, error)
	GetByID(id int32) (*Payment, error)
	GetByRequestID(requestID uuid.UUID) (*Payment, error)
	GetByLoanID(loanID int32) ([]*Payment, error)
	SumReceivedBetween(from, to time.Time) (decimal.Decimal, error)
}
