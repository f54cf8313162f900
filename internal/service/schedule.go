package service

import (
	"errors"
	"math"
	"time"

	"github.com/davargas/prestamo/prestamo-backend/internal/domain"
	"github.com/davargas/prestamo/prestamo-backend/internal/util"
	"github.com/shopspring/decimal"
)

var ErrFrequencyInvalid = errors.New("payment frequency must be monthly or weekly")

// PaymentFrequency is the cadence of an installment schedule.
type PaymentFrequency string

const (
	FrequencyMonthly PaymentFrequency = "monthly"
	FrequencyWeekly  PaymentFrequency = "weekly"
)

func (f PaymentFrequency) periodsPerYear() int64 {
	if f == FrequencyWeekly {
		return 52
	}
	return 12
}

func (f PaymentFrequency) dueDate(start time.Time, period int) time.Time {
	if f == FrequencyWeekly {
		return start.AddDate(0, 0, 7*period)
	}
	return util.AddMonthsClamped(start, period)
}

// BuildSchedule computes a fixed-payment amortization schedule. The annual
// rate is a fraction (0.24 = 24%). Due dates advance one period from
// startDate. The final installment's principal component absorbs all rounding
// residue, so the principal components always sum to the loan principal
// exactly.
//
// The schedule is returned unpersisted; loan creation persists the loan and
// its installments together.
func BuildSchedule(principal, annualRate decimal.Decimal, termCount int32, startDate time.Time, frequency PaymentFrequency) ([]*domain.Installment, error) {
	if principal.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrLoanPrincipalInvalid
	}
	if termCount < 1 {
		return nil, domain.ErrLoanTermInvalid
	}
	if annualRate.IsNegative() {
		return nil, domain.ErrLoanRateInvalid
	}
	if startDate.IsZero() {
		return nil, domain.ErrLoanStartDateInvalid
	}
	if frequency != FrequencyMonthly && frequency != FrequencyWeekly {
		return nil, ErrFrequencyInvalid
	}

	periodicRate := annualRate.Div(decimal.NewFromInt(frequency.periodsPerYear()))
	payment := fixedPayment(principal, periodicRate, int(termCount))

	schedule := make([]*domain.Installment, 0, termCount)
	balance := principal

	for period := 1; period <= int(termCount); period++ {
		interest := domain.Round2(balance.Mul(periodicRate))
		principalPart := payment.Sub(interest)

		if period == int(termCount) || principalPart.GreaterThan(balance) {
			// Absorb the rounding residue instead of leaking it.
			principalPart = balance
		}

		schedule = append(schedule, &domain.Installment{
			Seq:        int32(period),
			DueDate:    frequency.dueDate(startDate, period),
			Principal:  principalPart,
			Interest:   interest,
			AmountPaid: decimal.Zero,
			Status:     domain.InstallmentStatusPending,
		})

		balance = balance.Sub(principalPart)
	}

	return schedule, nil
}

// fixedPayment computes the per-period annuity payment
// P * r * (1+r)^n / ((1+r)^n - 1), rounded to two decimal places. float64 is
// used only for the power term; all monetary arithmetic stays in decimal.
func fixedPayment(principal, periodicRate decimal.Decimal, periods int) decimal.Decimal {
	if periodicRate.IsZero() {
		return domain.Round2(principal.Div(decimal.NewFromInt(int64(periods))))
	}

	rate := periodicRate.InexactFloat64()
	factor := math.Pow(1+rate, float64(periods))
	annuity := decimal.NewFromFloat(rate * factor / (factor - 1))
	return domain.Round2(principal.Mul(annuity))
}
