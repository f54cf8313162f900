package service

import (
	"errors"

	"github.com/davargas/prestamo/prestamo-backend/internal/domain"
	"github.com/davargas/prestamo/prestamo-backend/internal/util"
)

// ErrDaysInvalid rejects non-positive upcoming-payment windows
var ErrDaysInvalid = errors.New("days must be positive")

// DashboardService computes read-only projections over the ledger. Nothing
// here mutates state, and nothing is cached: every call scans the latest
// committed ledger so the aggregates can never drift from the per-loan
// detail.
type DashboardService struct {
	loanRepo        domain.LoanRepository
	installmentRepo domain.InstallmentRepository
	paymentRepo     domain.PaymentRepository
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(loanRepo domain.LoanRepository, installmentRepo domain.InstallmentRepository, paymentRepo domain.PaymentRepository) *DashboardService {
	return &DashboardService{
		loanRepo:        loanRepo,
		installmentRepo: installmentRepo,
		paymentRepo:     paymentRepo,
	}
}

// UpcomingPayments returns unpaid installments due within the next withinDays
// days, due date ascending.
func (s *DashboardService) UpcomingPayments(withinDays int) ([]*domain.UpcomingInstallment, error) {
	if withinDays <= 0 {
		return nil, ErrDaysInvalid
	}
	today := util.Today()
	return s.installmentRepo.GetUpcoming(today, today.AddDate(0, 0, withinDays))
}

// Stats returns the aggregate dashboard snapshot: loan counts, outstanding
// principal, overdue amount, and the total collected this calendar month.
func (s *DashboardService) Stats() (*domain.DashboardStats, error) {
	activeLoans, err := s.loanRepo.CountByStatus(domain.LoanStatusActive)
	if err != nil {
		return nil, err
	}
	delinquentLoans, err := s.loanRepo.CountByStatus(domain.LoanStatusDelinquent)
	if err != nil {
		return nil, err
	}
	outstanding, err := s.installmentRepo.SumOutstandingPrincipal()
	if err != nil {
		return nil, err
	}

	today := util.Today()
	overdue, err := s.installmentRepo.SumOverdue(today)
	if err != nil {
		return nil, err
	}

	monthStart, monthEnd := util.MonthWindow(today.Year(), today.Month())
	collected, err := s.paymentRepo.SumReceivedBetween(monthStart, monthEnd)
	if err != nil {
		return nil, err
	}

	return &domain.DashboardStats{
		ActiveLoans:          activeLoans,
		DelinquentLoans:      delinquentLoans,
		OutstandingPrincipal: outstanding,
		OverdueAmount:        overdue,
		CollectedThisMonth:   collected,
	}, nil
}
