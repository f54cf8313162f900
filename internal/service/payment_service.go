package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/davargas/prestamo/prestamo-backend/internal/domain"
	"github.com/davargas/prestamo/prestamo-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// PaymentService allocates incoming payments across a loan's outstanding
// installments
type PaymentService struct {
	db              TxBeginner
	paymentRepo     domain.PaymentRepository
	loanRepo        domain.LoanRepository
	installmentRepo domain.InstallmentRepository
	eventPublisher  websocket.EventPublisher
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(db TxBeginner, paymentRepo domain.PaymentRepository, loanRepo domain.LoanRepository, installmentRepo domain.InstallmentRepository) *PaymentService {
	return &PaymentService{
		db:              db,
		paymentRepo:     paymentRepo,
		loanRepo:        loanRepo,
		installmentRepo: installmentRepo,
	}
}

// SetEventPublisher sets the publisher for ledger events
func (s *PaymentService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// ApplyPaymentInput contains input for recording a payment. RequestID is the
// caller-supplied idempotency key: resubmitting after an ambiguous failure
// returns the already-persisted payment instead of double-applying.
type ApplyPaymentInput struct {
	RequestID    uuid.UUID
	Amount       decimal.Decimal
	ReceivedDate time.Time
	RecordedBy   string
}

// ApplyPayment allocates a payment oldest-due-first across the loan's
// installments and persists the payment, its allocation breakdown, and the
// updated installment and loan state as one atomic unit.
//
// Any credit balance held on the loan is spent before the new money. Any
// remainder after all installments are satisfied becomes the new credit
// balance; it is never discarded and never prepays principal.
func (s *PaymentService) ApplyPayment(ctx context.Context, loanID int32, input ApplyPaymentInput) (*domain.Payment, error) {
	if input.RequestID == uuid.Nil {
		return nil, domain.ErrPaymentRequestIDMissing
	}
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrPaymentAmountInvalid
	}
	if input.ReceivedDate.IsZero() {
		return nil, domain.ErrPaymentDateInvalid
	}

	// Idempotent replay: a request id already in the ledger means the earlier
	// submission committed even if the caller never saw the response.
	existing, err := s.paymentRepo.GetByRequestID(input.RequestID)
	if err == nil {
		log.Info().
			Int32("loan_id", loanID).
			Str("request_id", input.RequestID.String()).
			Msg("Payment replayed by request id")
		return existing, nil
	}
	if !errors.Is(err, domain.ErrPaymentNotFound) {
		return nil, err
	}

	payment, err := s.applyOnce(ctx, loanID, input)
	if errors.Is(err, domain.ErrConcurrencyConflict) {
		// A racing mutation won; retry once against fresh state.
		log.Warn().Int32("loan_id", loanID).Msg("Payment application conflicted, retrying")
		payment, err = s.applyOnce(ctx, loanID, input)
	}
	if err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		s.eventPublisher.Publish(websocket.NewEvent(websocket.EventTypeApplied, websocket.EntityTypePayment, payment))
	}
	return payment, nil
}

func (s *PaymentService) applyOnce(ctx context.Context, loanID int32, input ApplyPaymentInput) (*domain.Payment, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	defer tx.Rollback(ctx)

	// Row lock serializes concurrent payments against the same loan.
	loan, err := s.loanRepo.GetByIDForUpdateTx(tx, loanID)
	if err != nil {
		return nil, err
	}
	if !loan.AcceptsPayments() {
		return nil, domain.ErrLoanNotPayable
	}

	installments, err := s.installmentRepo.GetByLoanIDTx(tx, loanID)
	if err != nil {
		return nil, err
	}

	payment := &domain.Payment{
		LoanID:       loanID,
		RequestID:    input.RequestID,
		Amount:       input.Amount,
		ReceivedDate: input.ReceivedDate,
		RecordedBy:   input.RecordedBy,
	}

	// The spendable pool is held credit plus the new payment, applied
	// oldest-due-first. GetByLoanIDTx already orders by due date ascending.
	pool := loan.CreditBalance.Add(input.Amount)
	for _, inst := range installments {
		if pool.IsZero() {
			break
		}
		if inst.IsPaid() {
			continue
		}

		applied := decimal.Min(inst.Outstanding(), pool)
		inst.AmountPaid = inst.AmountPaid.Add(applied)
		pool = pool.Sub(applied)

		status := inst.StatusAsOf(input.ReceivedDate)
		if err := s.installmentRepo.UpdatePaymentStateTx(tx, inst.ID, inst.AmountPaid, status); err != nil {
			return nil, err
		}
		inst.Status = status

		payment.Allocations = append(payment.Allocations, &domain.PaymentAllocation{
			InstallmentID: inst.ID,
			Amount:        applied,
		})
	}

	// Whatever the installments could not absorb stays on the loan.
	if err := s.loanRepo.UpdateCreditBalanceTx(tx, loanID, pool); err != nil {
		return nil, err
	}

	newStatus := domain.ClassifyLoan(loan, installments, input.ReceivedDate)
	if newStatus != loan.Status {
		if err := s.loanRepo.UpdateStatusTx(tx, loanID, newStatus); err != nil {
			return nil, err
		}
	}

	created, err := s.paymentRepo.CreateTx(tx, payment)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}

	log.Info().
		Int32("loan_id", loanID).
		Int32("payment_id", created.ID).
		Str("amount", created.Amount.String()).
		Str("credit_balance", pool.String()).
		Int("allocations", len(created.Allocations)).
		Msg("Payment applied")
	return created, nil
}

// GetPaymentsByLoan retrieves all recorded payments for a loan
func (s *PaymentService) GetPaymentsByLoan(loanID int32) ([]*domain.Payment, error) {
	if _, err := s.loanRepo.GetByID(loanID); err != nil {
		return nil, err
	}
	return s.paymentRepo.GetByLoanID(loanID)
}
