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

// LoanRepository implements domain.LoanRepository using PostgreSQL
type LoanRepository struct {
	pool *pgxpool.Pool
}

// NewLoanRepository creates a new LoanRepository
func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

const loanColumns = `id, client_id, kind, description, principal, annual_rate,
	term_count, start_date, origination_fee, status, credit_balance,
	cancelled_at, created_at, updated_at`

// CreateTx creates a new loan within a transaction. Loans are only ever
// created together with their installment schedule, so there is no
// non-transactional variant.
func (r *LoanRepository) CreateTx(tx interface{}, loan *domain.Loan) (*domain.Loan, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	principal, err := decimalToPgNumeric(loan.Principal)
	if err != nil {
		return nil, err
	}
	annualRate, err := decimalToPgNumeric(loan.AnnualRate)
	if err != nil {
		return nil, err
	}

	fee := pgtype.Numeric{}
	if loan.OriginationFee != nil {
		fee, err = decimalToPgNumeric(*loan.OriginationFee)
		if err != nil {
			return nil, err
		}
	}

	ctx := context.Background()
	row := pgxTx.QueryRow(ctx, `
		INSERT INTO loans (client_id, kind, description, principal, annual_rate,
			term_count, start_date, origination_fee, status, credit_balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0)
		RETURNING `+loanColumns,
		loan.ClientID, string(loan.Kind), loan.Description, principal, annualRate,
		loan.TermCount, dateToPg(loan.StartDate), fee, string(domain.LoanStatusActive))

	created, err := scanLoan(row)
	if err != nil {
		return nil, storageErr(err)
	}
	return created, nil
}

// GetByID retrieves a loan by its ID
func (r *LoanRepository) GetByID(id int32) (*domain.Loan, error) {
	return r.getByID(r.pool, id, "")
}

// GetByIDForUpdateTx retrieves a loan by ID with a row lock, serializing
// concurrent mutations against the same loan.
func (r *LoanRepository) GetByIDForUpdateTx(tx interface{}, id int32) (*domain.Loan, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	return r.getByID(pgxTx, id, " FOR UPDATE")
}

func (r *LoanRepository) getByID(q dbtx, id int32, suffix string) (*domain.Loan, error) {
	ctx := context.Background()
	row := q.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`+suffix, id)

	loan, err := scanLoan(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrLoanNotFound
		}
		return nil, storageErr(err)
	}
	return loan, nil
}

// GetAll retrieves all loans, newest first
func (r *LoanRepository) GetAll() ([]*domain.Loan, error) {
	return r.queryLoans(`SELECT ` + loanColumns + ` FROM loans ORDER BY created_at DESC`)
}

// GetByClientID retrieves all loans owned by a client
func (r *LoanRepository) GetByClientID(clientID int32) ([]*domain.Loan, error) {
	return r.queryLoans(`SELECT `+loanColumns+` FROM loans WHERE client_id = $1 ORDER BY created_at DESC`, clientID)
}

func (r *LoanRepository) queryLoans(sql string, args ...any) ([]*domain.Loan, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var loans []*domain.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return loans, nil
}

// UpdateStatus persists a derived loan status
func (r *LoanRepository) UpdateStatus(id int32, status domain.LoanStatus) error {
	return r.updateStatus(r.pool, id, status)
}

// UpdateStatusTx persists a derived loan status within a transaction
func (r *LoanRepository) UpdateStatusTx(tx interface{}, id int32, status domain.LoanStatus) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}
	return r.updateStatus(pgxTx, id, status)
}

func (r *LoanRepository) updateStatus(q dbtx, id int32, status domain.LoanStatus) error {
	ctx := context.Background()
	tag, err := q.Exec(ctx, `
		UPDATE loans SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return storageErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

// UpdateCreditBalanceTx persists the loan's held credit balance within a
// transaction
func (r *LoanRepository) UpdateCreditBalanceTx(tx interface{}, id int32, credit decimal.Decimal) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}

	creditNum, err := decimalToPgNumeric(credit)
	if err != nil {
		return err
	}

	ctx := context.Background()
	tag, err := pgxTx.Exec(ctx, `
		UPDATE loans SET credit_balance = $2, updated_at = NOW() WHERE id = $1`, id, creditNum)
	if err != nil {
		return storageErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

// MarkCancelledTx transitions a loan to cancelled within a transaction.
// Cancellation is a status change, never a delete.
func (r *LoanRepository) MarkCancelledTx(tx interface{}, id int32, cancelledAt time.Time) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}

	ctx := context.Background()
	tag, err := pgxTx.Exec(ctx, `
		UPDATE loans
		SET status = $2, cancelled_at = $3, updated_at = NOW()
		WHERE id = $1`,
		id, string(domain.LoanStatusCancelled), pgtype.Timestamptz{Time: cancelledAt, Valid: true})
	if err != nil {
		return storageErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

// CountByStatus counts loans in a given status
func (r *LoanRepository) CountByStatus(status domain.LoanStatus) (int64, error) {
	ctx := context.Background()
	var count int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM loans WHERE status = $1`, string(status)).Scan(&count)
	if err != nil {
		return 0, storageErr(err)
	}
	return count, nil
}

func scanLoan(row pgx.Row) (*domain.Loan, error) {
	var l domain.Loan
	var kind, status string
	var principal, annualRate, fee, credit pgtype.Numeric
	var startDate pgtype.Date
	var cancelledAt, createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(&l.ID, &l.ClientID, &kind, &l.Description, &principal, &annualRate,
		&l.TermCount, &startDate, &fee, &status, &credit, &cancelledAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	l.Kind = domain.LoanKind(kind)
	l.Status = domain.LoanStatus(status)
	l.Principal = pgNumericToDecimal(principal)
	l.AnnualRate = pgNumericToDecimal(annualRate)
	l.CreditBalance = pgNumericToDecimal(credit)
	l.StartDate = startDate.Time
	if fee.Valid {
		f := pgNumericToDecimal(fee)
		l.OriginationFee = &f
	}
	if cancelledAt.Valid {
		l.CancelledAt = &cancelledAt.Time
	}
	l.CreatedAt = createdAt.Time
	l.UpdatedAt = updatedAt.Time
	return &l, nil
}
