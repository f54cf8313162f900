package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/davargas/prestamo/prestamo-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx, so repository internals
// can run inside or outside a transaction.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var errInvalidTx = errors.New("invalid transaction type")

// asTx asserts the opaque transaction handle passed through the repository
// interfaces back to a pgx.Tx.
func asTx(tx interface{}) (pgx.Tx, error) {
	pgxTx, ok := tx.(pgx.Tx)
	if !ok {
		return nil, errInvalidTx
	}
	return pgxTx, nil
}

func decimalToPgNumeric(d decimal.Decimal) (pgtype.Numeric, error) {
	var num pgtype.Numeric
	if err := num.Scan(d.String()); err != nil {
		return pgtype.Numeric{}, err
	}
	return num, nil
}

func pgNumericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func dateToPg(t time.Time) pgtype.Date {
	return pgtype.Date{Time: t, Valid: true}
}

// storageErr translates low-level pgx failures into domain errors. Postgres
// serialization failures and deadlocks (40001, 40P01) surface as
// ErrConcurrencyConflict so callers can retry with fresh state; everything
// else wraps ErrStorageFailure.
func storageErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return domain.ErrConcurrencyConflict
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
}
