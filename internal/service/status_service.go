package service

import (
	"time"

	"github.com/davargas/prestamo/prestamo-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// StatusService recomputes and persists derived delinquency state. Statuses
// are a cached projection of payment history plus the calendar: recomputed on
// every read that displays them and after every mutation that could change
// them, then written back so the dashboard aggregation can read the cache.
type StatusService struct {
	loanRepo        domain.LoanRepository
	installmentRepo domain.InstallmentRepository
}

// NewStatusService creates a new StatusService
func NewStatusService(loanRepo domain.LoanRepository, installmentRepo domain.InstallmentRepository) *StatusService {
	return &StatusService{
		loanRepo:        loanRepo,
		installmentRepo: installmentRepo,
	}
}

// RefreshLoan reclassifies a loan and its installments as of a date,
// persists any status that changed, and returns the loan with installments
// attached.
func (s *StatusService) RefreshLoan(loanID int32, asOf time.Time) (*domain.Loan, error) {
	loan, err := s.loanRepo.GetByID(loanID)
	if err != nil {
		return nil, err
	}

	installments, err := s.installmentRepo.GetByLoanID(loanID)
	if err != nil {
		return nil, err
	}

	for _, inst := range installments {
		derived := inst.StatusAsOf(asOf)
		if derived == inst.Status {
			continue
		}
		if err := s.installmentRepo.UpdateStatus(inst.ID, derived); err != nil {
			return nil, err
		}
		inst.Status = derived
	}

	derived := domain.ClassifyLoan(loan, installments, asOf)
	if derived != loan.Status {
		if err := s.loanRepo.UpdateStatus(loanID, derived); err != nil {
			return nil, err
		}
		log.Info().
			Int32("loan_id", loanID).
			Str("from", string(loan.Status)).
			Str("to", string(derived)).
			Msg("Loan status changed")
		loan.Status = derived
	}

	loan.Installments = installments
	return loan, nil
}
