package service

import (
	"testing"
	"time"

	"github.com/davargas/prestamo/prestamo-backend/internal/domain"
	"github.com/davargas/prestamo/prestamo-backend/internal/testutil"
	"github.com/davargas/prestamo/prestamo-backend/internal/util"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upcomingDue(due time.Time, outstanding string) *domain.UpcomingInstallment {
	return &domain.UpcomingInstallment{
		Installment: domain.Installment{
			DueDate:    due,
			Principal:  decimal.RequireFromString(outstanding),
			Interest:   decimal.Zero,
			AmountPaid: decimal.Zero,
			Status:     domain.InstallmentStatusPending,
		},
		ClientName:  "Maria Lopez",
		Description: "Working capital",
	}
}

func TestUpcomingPayments_WindowFiltering(t *testing.T) {
	loanRepo := testutil.NewMockLoanRepository()
	installmentRepo := testutil.NewMockInstallmentRepository()
	paymentRepo := testutil.NewMockPaymentRepository()
	svc := NewDashboardService(loanRepo, installmentRepo, paymentRepo)

	today := util.Today()
	installmentRepo.Upcoming = []*domain.UpcomingInstallment{
		upcomingDue(today.AddDate(0, 0, 2), "2000.00"),
		upcomingDue(today.AddDate(0, 0, 6), "1500.00"),
		upcomingDue(today.AddDate(0, 0, 30), "1500.00"),
	}

	within, err := svc.UpcomingPayments(7)
	require.NoError(t, err)
	assert.Len(t, within, 2, "installment due in 30 days is outside a 7-day window")

	wide, err := svc.UpcomingPayments(60)
	require.NoError(t, err)
	assert.Len(t, wide, 3)
}

func TestUpcomingPayments_InvalidWindow(t *testing.T) {
	svc := NewDashboardService(testutil.NewMockLoanRepository(), testutil.NewMockInstallmentRepository(), testutil.NewMockPaymentRepository())

	for _, days := range []int{0, -1} {
		_, err := svc.UpcomingPayments(days)
		assert.ErrorIs(t, err, ErrDaysInvalid, "days=%d", days)
	}
}

func TestStats_AggregatesLedger(t *testing.T) {
	loanRepo := testutil.NewMockLoanRepository()
	installmentRepo := testutil.NewMockInstallmentRepository()
	paymentRepo := testutil.NewMockPaymentRepository()
	svc := NewDashboardService(loanRepo, installmentRepo, paymentRepo)

	for _, status := range []domain.LoanStatus{
		domain.LoanStatusActive,
		domain.LoanStatusActive,
		domain.LoanStatusDelinquent,
		domain.LoanStatusPaid,
		domain.LoanStatusCancelled,
	} {
		_, err := loanRepo.CreateTx(nil, &domain.Loan{Description: "x", Status: status})
		require.NoError(t, err)
	}

	today := util.Today()
	_, err := installmentRepo.CreateBatchTx(nil, []*domain.Installment{
		{
			LoanID: 1, Seq: 1,
			DueDate:    today.AddDate(0, 0, -10),
			Principal:  decimal.RequireFromString("1800.00"),
			Interest:   decimal.RequireFromString("200.00"),
			AmountPaid: decimal.RequireFromString("500.00"),
		},
		{
			LoanID: 1, Seq: 2,
			DueDate:    today.AddDate(0, 1, 0),
			Principal:  decimal.RequireFromString("1850.00"),
			Interest:   decimal.RequireFromString("150.00"),
			AmountPaid: decimal.Zero,
		},
	})
	require.NoError(t, err)

	_, err = paymentRepo.CreateTx(nil, &domain.Payment{
		LoanID:       1,
		Amount:       decimal.RequireFromString("500.00"),
		ReceivedDate: today,
	})
	require.NoError(t, err)
	_, err = paymentRepo.CreateTx(nil, &domain.Payment{
		LoanID:       1,
		Amount:       decimal.RequireFromString("900.00"),
		ReceivedDate: today.AddDate(0, -2, 0),
	})
	require.NoError(t, err)

	stats, err := svc.Stats()
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.ActiveLoans)
	assert.Equal(t, int64(1), stats.DelinquentLoans)
	assert.True(t, stats.OutstandingPrincipal.Equal(decimal.RequireFromString("3650.00")),
		"unpaid principal across both installments, got %s", stats.OutstandingPrincipal)
	assert.True(t, stats.OverdueAmount.Equal(decimal.RequireFromString("1500.00")),
		"only the past-due installment's outstanding counts, got %s", stats.OverdueAmount)
	assert.True(t, stats.CollectedThisMonth.Equal(decimal.RequireFromString("500.00")),
		"the two-months-old payment must not count, got %s", stats.CollectedThisMonth)
}
