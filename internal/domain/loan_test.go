package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func installment(due time.Time, principal, interest, paid string) *Installment {
	return &Installment{
		DueDate:    due,
		Principal:  decimal.RequireFromString(principal),
		Interest:   decimal.RequireFromString(interest),
		AmountPaid: decimal.RequireFromString(paid),
	}
}

func TestInstallmentStatusAsOf(t *testing.T) {
	due := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		inst *Installment
		asOf time.Time
		want InstallmentStatus
	}{
		{"unpaid before due", installment(due, "1800.00", "200.00", "0"), due.AddDate(0, 0, -5), InstallmentStatusPending},
		{"unpaid on due date", installment(due, "1800.00", "200.00", "0"), due, InstallmentStatusPending},
		{"unpaid day after due", installment(due, "1800.00", "200.00", "0"), due.AddDate(0, 0, 1), InstallmentStatusOverdue},
		{"partial before due", installment(due, "1800.00", "200.00", "500.00"), due, InstallmentStatusPartiallyPaid},
		{"partial after due", installment(due, "1800.00", "200.00", "1999.99"), due.AddDate(0, 0, 1), InstallmentStatusOverdue},
		{"paid is never overdue", installment(due, "1800.00", "200.00", "2000.00"), due.AddDate(1, 0, 0), InstallmentStatusPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.inst.StatusAsOf(tt.asOf))
		})
	}
}

func TestInstallmentOutstanding(t *testing.T) {
	inst := installment(time.Now(), "1800.00", "200.00", "1500.00")
	assert.True(t, inst.ScheduledTotal().Equal(decimal.RequireFromString("2000.00")))
	assert.True(t, inst.Outstanding().Equal(decimal.RequireFromString("500.00")))
	assert.False(t, inst.IsPaid())
}

func TestClassifyLoan(t *testing.T) {
	jan := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)

	active := &Loan{Status: LoanStatusActive}

	tests := []struct {
		name         string
		loan         *Loan
		installments []*Installment
		asOf         time.Time
		want         LoanStatus
	}{
		{
			name: "current loan stays active",
			loan: active,
			installments: []*Installment{
				installment(jan, "1800.00", "200.00", "2000.00"),
				installment(feb, "1850.00", "150.00", "0"),
			},
			asOf: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			want: LoanStatusActive,
		},
		{
			name: "one overdue installment makes the loan delinquent",
			loan: active,
			installments: []*Installment{
				installment(jan, "1800.00", "200.00", "0"),
				installment(feb, "1850.00", "150.00", "0"),
			},
			asOf: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			want: LoanStatusDelinquent,
		},
		{
			name: "all installments paid",
			loan: active,
			installments: []*Installment{
				installment(jan, "1800.00", "200.00", "2000.00"),
				installment(feb, "1850.00", "150.00", "2000.00"),
			},
			asOf: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			want: LoanStatusPaid,
		},
		{
			name:         "no installments never counts as paid",
			loan:         active,
			installments: nil,
			asOf:         jan,
			want:         LoanStatusActive,
		},
		{
			name: "cancelled is terminal even with overdue arrears",
			loan: &Loan{Status: LoanStatusCancelled},
			installments: []*Installment{
				installment(jan, "1800.00", "200.00", "0"),
			},
			asOf: feb,
			want: LoanStatusCancelled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyLoan(tt.loan, tt.installments, tt.asOf))
		})
	}
}

func TestLoanValidate(t *testing.T) {
	valid := func() *Loan {
		return &Loan{
			Description: "Working capital",
			Principal:   decimal.RequireFromString("10000.00"),
			AnnualRate:  decimal.RequireFromString("0.24"),
			TermCount:   12,
			StartDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		}
	}
	assert.NoError(t, valid().Validate())

	fee := decimal.RequireFromString("-1.00")
	tests := []struct {
		name    string
		mutate  func(*Loan)
		wantErr error
	}{
		{"empty description", func(l *Loan) { l.Description = "" }, ErrLoanDescriptionEmpty},
		{"zero principal", func(l *Loan) { l.Principal = decimal.Zero }, ErrLoanPrincipalInvalid},
		{"negative rate", func(l *Loan) { l.AnnualRate = decimal.RequireFromString("-0.1") }, ErrLoanRateInvalid},
		{"zero term", func(l *Loan) { l.TermCount = 0 }, ErrLoanTermInvalid},
		{"zero start date", func(l *Loan) { l.StartDate = time.Time{} }, ErrLoanStartDateInvalid},
		{"negative fee", func(l *Loan) { l.OriginationFee = &fee }, ErrLoanFeeInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := valid()
			tt.mutate(loan)
			assert.ErrorIs(t, loan.Validate(), tt.wantErr)
		})
	}
}

func TestLoanTransitions(t *testing.T) {
	assert.True(t, (&Loan{Status: LoanStatusActive}).AcceptsPayments())
	assert.True(t, (&Loan{Status: LoanStatusDelinquent}).AcceptsPayments())
	assert.False(t, (&Loan{Status: LoanStatusPaid}).AcceptsPayments())
	assert.False(t, (&Loan{Status: LoanStatusCancelled}).AcceptsPayments())

	assert.True(t, (&Loan{Status: LoanStatusActive}).Cancellable())
	assert.True(t, (&Loan{Status: LoanStatusDelinquent}).Cancellable())
	assert.False(t, (&Loan{Status: LoanStatusPaid}).Cancellable())
	assert.False(t, (&Loan{Status: LoanStatusCancelled}).Cancellable())
}
