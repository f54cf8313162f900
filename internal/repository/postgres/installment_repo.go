package postgres

import (
	"context"
	"time"

	"github.com/davargas/prestamo/prestamo-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// InstallmentRepository implements domain.InstallmentRepository using PostgreSQL
type InstallmentRepository struct {
	pool *pgxpool.Pool
}

// NewInstallmentRepository creates a new InstallmentRepository
func NewInstallmentRepository(pool *pgxpool.Pool) *InstallmentRepository {
	return &InstallmentRepository{pool: pool}
}

const installmentColumns = `id, loan_id, seq, due_date, principal, interest,
	amount_paid, status, created_at, updated_at`

// CreateBatchTx inserts a loan's full schedule within a transaction
func (r *InstallmentRepository) CreateBatchTx(tx interface{}, installments []*domain.Installment) ([]*domain.Installment, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	created := make([]*domain.Installment, 0, len(installments))
	for _, inst := range installments {
		principal, err := decimalToPgNumeric(inst.Principal)
		if err != nil {
			return nil, err
		}
		interest, err := decimalToPgNumeric(inst.Interest)
		if err != nil {
			return nil, err
		}

		row := pgxTx.QueryRow(ctx, `
			INSERT INTO installments (loan_id, seq, due_date, principal, interest, amount_paid, status)
			VALUES ($1, $2, $3, $4, $5, 0, $6)
			RETURNING `+installmentColumns,
			inst.LoanID, inst.Seq, dateToPg(inst.DueDate), principal, interest, string(inst.Status))

		saved, err := scanInstallment(row)
		if err != nil {
			return nil, storageErr(err)
		}
		created = append(created, saved)
	}
	return created, nil
}

// GetByLoanID retrieves a loan's installments ordered by due date ascending.
// The ordering is the payment allocation order: oldest due first.
func (r *InstallmentRepository) GetByLoanID(loanID int32) ([]*domain.Installment, error) {
	return r.getByLoanID(r.pool, loanID)
}

// GetByLoanIDTx is GetByLoanID within a transaction
func (r *InstallmentRepository) GetByLoanIDTx(tx interface{}, loanID int32) ([]*domain.Installment, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	return r.getByLoanID(pgxTx, loanID)
}

func (r *InstallmentRepository) getByLoanID(q dbtx, loanID int32) ([]*domain.Installment, error) {
	ctx := context.Background()
	rows, err := q.Query(ctx, `
		SELECT `+installmentColumns+`
		FROM installments
		WHERE loan_id = $1
		ORDER BY due_date ASC, seq ASC`, loanID)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var installments []*domain.Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		installments = append(installments, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return installments, nil
}

// UpdatePaymentStateTx persists an installment's paid amount and derived
// status within a transaction
func (r *InstallmentRepository) UpdatePaymentStateTx(tx interface{}, id int32, amountPaid decimal.Decimal, status domain.InstallmentStatus) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}

	paid, err := decimalToPgNumeric(amountPaid)
	if err != nil {
		return err
	}

	ctx := context.Background()
	tag, err := pgxTx.Exec(ctx, `
		UPDATE installments
		SET amount_paid = $2, status = $3, updated_at = NOW()
		WHERE id = $1`, id, paid, string(status))
	if err != nil {
		return storageErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInstallmentNotFound
	}
	return nil
}

// UpdateStatus persists a derived installment status
func (r *InstallmentRepository) UpdateStatus(id int32, status domain.InstallmentStatus) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `
		UPDATE installments SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return storageErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInstallmentNotFound
	}
	return nil
}

// GetUpcoming retrieves unpaid installments due within [from, to], joined
// with loan and client info, due date ascending
func (r *InstallmentRepository) GetUpcoming(from, to time.Time) ([]*domain.UpcomingInstallment, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT i.id, i.loan_id, i.seq, i.due_date, i.principal, i.interest,
			i.amount_paid, i.status, i.created_at, i.updated_at,
			c.id, c.full_name, l.description
		FROM installments i
		JOIN loans l ON l.id = i.loan_id
		JOIN clients c ON c.id = l.client_id
		WHERE i.status IN ('pending', 'partially_paid')
			AND l.status IN ('active', 'delinquent')
			AND i.due_date BETWEEN $1 AND $2
		ORDER BY i.due_date ASC, i.loan_id ASC, i.seq ASC`,
		dateToPg(from), dateToPg(to))
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var upcoming []*domain.UpcomingInstallment
	for rows.Next() {
		var u domain.UpcomingInstallment
		var status string
		var principal, interest, paid pgtype.Numeric
		var dueDate pgtype.Date
		var createdAt, updatedAt pgtype.Timestamptz

		err := rows.Scan(&u.ID, &u.LoanID, &u.Seq, &dueDate, &principal, &interest,
			&paid, &status, &createdAt, &updatedAt,
			&u.ClientID, &u.ClientName, &u.Description)
		if err != nil {
			return nil, storageErr(err)
		}

		u.DueDate = dueDate.Time
		u.Principal = pgNumericToDecimal(principal)
		u.Interest = pgNumericToDecimal(interest)
		u.AmountPaid = pgNumericToDecimal(paid)
		u.Status = domain.InstallmentStatus(status)
		u.CreatedAt = createdAt.Time
		u.UpdatedAt = updatedAt.Time
		upcoming = append(upcoming, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return upcoming, nil
}

// SumOutstandingPrincipal sums the unpaid principal across all live loans
func (r *InstallmentRepository) SumOutstandingPrincipal() (decimal.Decimal, error) {
	ctx := context.Background()
	var sum pgtype.Numeric
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(i.principal), 0)
		FROM installments i
		JOIN loans l ON l.id = i.loan_id
		WHERE i.status <> 'paid' AND l.status IN ('active', 'delinquent')`).Scan(&sum)
	if err != nil {
		return decimal.Zero, storageErr(err)
	}
	return pgNumericToDecimal(sum), nil
}

// SumOverdue sums the outstanding amount of installments past due as of a date
func (r *InstallmentRepository) SumOverdue(asOf time.Time) (decimal.Decimal, error) {
	ctx := context.Background()
	var sum pgtype.Numeric
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(i.principal + i.interest - i.amount_paid), 0)
		FROM installments i
		JOIN loans l ON l.id = i.loan_id
		WHERE i.status <> 'paid'
			AND l.status IN ('active', 'delinquent')
			AND i.due_date < $1`, dateToPg(asOf)).Scan(&sum)
	if err != nil {
		return decimal.Zero, storageErr(err)
	}
	return pgNumericToDecimal(sum), nil
}

func scanInstallment(row pgx.Row) (*domain.Installment, error) {
	var i domain.Installment
	var status string
	var principal, interest, paid pgtype.Numeric
	var dueDate pgtype.Date
	var createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(&i.ID, &i.LoanID, &i.Seq, &dueDate, &principal, &interest,
		&paid, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	i.DueDate = dueDate.Time
	i.Principal = pgNumericToDecimal(principal)
	i.Interest = pgNumericToDecimal(interest)
	i.AmountPaid = pgNumericToDecimal(paid)
	i.Status = domain.InstallmentStatus(status)
	i.CreatedAt = createdAt.Time
	i.UpdatedAt = updatedAt.Time
	return &i, nil
}
