package postgres

import (
	"context"
	"time"

	"github.com/davargas/prestamo/prestamo-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PaymentRepository implements domain.PaymentRepository using PostgreSQL
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

const paymentColumns = "id, loan_id, request_id, amount, received_date, recorded_by, created_at"

// CreateTx persists a payment and its allocation breakdown within a
// transaction. Payments only ever exist together with their ledger update.
func (r *PaymentRepository) CreateTx(tx interface{}, payment *domain.Payment) (*domain.Payment, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	amount, err := decimalToPgNumeric(payment.Amount)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	row := pgxTx.QueryRow(ctx, `
		INSERT INTO payments (loan_id, request_id, amount, received_date, recorded_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+paymentColumns,
		payment.LoanID, payment.RequestID, amount, dateToPg(payment.ReceivedDate), payment.RecordedBy)

	created, err := scanPayment(row)
	if err != nil {
		return nil, storageErr(err)
	}

	for _, alloc := range payment.Allocations {
		allocAmount, err := decimalToPgNumeric(alloc.Amount)
		if err != nil {
			return nil, err
		}

		var saved domain.PaymentAllocation
		err = pgxTx.QueryRow(ctx, `
			INSERT INTO payment_allocations (payment_id, installment_id, amount)
			VALUES ($1, $2, $3)
			RETURNING id, payment_id, installment_id, amount`,
			created.ID, alloc.InstallmentID, allocAmount).
			Scan(&saved.ID, &saved.PaymentID, &saved.InstallmentID, &allocAmount)
		if err != nil {
			return nil, storageErr(err)
		}
		saved.Amount = pgNumericToDecimal(allocAmount)
		created.Allocations = append(created.Allocations, &saved)
	}
	return created, nil
}

// GetByID retrieves a payment with its allocations
func (r *PaymentRepository) GetByID(id int32) (*domain.Payment, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)

	payment, err := scanPayment(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, storageErr(err)
	}
	if err := r.loadAllocations(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// GetByRequestID retrieves a payment by its idempotency key, with allocations
func (r *PaymentRepository) GetByRequestID(requestID uuid.UUID) (*domain.Payment, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+paymentColumns+` FROM payments WHERE request_id = $1`, requestID)

	payment, err := scanPayment(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, storageErr(err)
	}
	if err := r.loadAllocations(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// GetByLoanID retrieves all payments for a loan, newest first, with
// allocations
func (r *PaymentRepository) GetByLoanID(loanID int32) ([]*domain.Payment, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+paymentColumns+` FROM payments WHERE loan_id = $1 ORDER BY created_at DESC`, loanID)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}

	for _, payment := range payments {
		if err := r.loadAllocations(ctx, payment); err != nil {
			return nil, err
		}
	}
	return payments, nil
}

// SumReceivedBetween sums payment amounts received within [from, to]
func (r *PaymentRepository) SumReceivedBetween(from, to time.Time) (decimal.Decimal, error) {
	ctx := context.Background()
	var sum pgtype.Numeric
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM payments
		WHERE received_date BETWEEN $1 AND $2`,
		dateToPg(from), dateToPg(to)).Scan(&sum)
	if err != nil {
		return decimal.Zero, storageErr(err)
	}
	return pgNumericToDecimal(sum), nil
}

func (r *PaymentRepository) loadAllocations(ctx context.Context, payment *domain.Payment) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id, payment_id, installment_id, amount
		FROM payment_allocations
		WHERE payment_id = $1
		ORDER BY id ASC`, payment.ID)
	if err != nil {
		return storageErr(err)
	}
	defer rows.Close()

	for rows.Next() {
		var alloc domain.PaymentAllocation
		var amount pgtype.Numeric
		if err := rows.Scan(&alloc.ID, &alloc.PaymentID, &alloc.InstallmentID, &amount); err != nil {
			return storageErr(err)
		}
		alloc.Amount = pgNumericToDecimal(amount)
		payment.Allocations = append(payment.Allocations, &alloc)
	}
	return rows.Err()
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	var amount pgtype.Numeric
	var receivedDate pgtype.Date
	var createdAt pgtype.Timestamptz

	err := row.Scan(&p.ID, &p.LoanID, &p.RequestID, &amount, &receivedDate, &p.RecordedBy, &createdAt)
	if err != nil {
		return nil, err
	}

	p.Amount = pgNumericToDecimal(amount)
	p.ReceivedDate = receivedDate.Time
	p.CreatedAt = createdAt.Time
	return &p, nil
}
