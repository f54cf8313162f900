package postgres

import (
	"context"

	"github.com/davargas/prestamo/prestamo-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AttachmentRepository implements domain.AttachmentRepository using PostgreSQL
type AttachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository creates a new AttachmentRepository
func NewAttachmentRepository(pool *pgxpool.Pool) *AttachmentRepository {
	return &AttachmentRepository{pool: pool}
}

const attachmentColumns = "id, loan_id, client_id, file_name, url, created_at"

// Create persists an opaque attachment reference
func (r *AttachmentRepository) Create(attachment *domain.Attachment) (*domain.Attachment, error) {
	ctx := context.Background()

	loanID := pgtype.Int4{}
	if attachment.LoanID != nil {
		loanID = pgtype.Int4{Int32: *attachment.LoanID, Valid: true}
	}
	clientID := pgtype.Int4{}
	if attachment.ClientID != nil {
		clientID = pgtype.Int4{Int32: *attachment.ClientID, Valid: true}
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO attachments (id, loan_id, client_id, file_name, url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+attachmentColumns,
		attachment.ID, loanID, clientID, attachment.FileName, attachment.URL)

	created, err := scanAttachment(row)
	if err != nil {
		return nil, storageErr(err)
	}
	return created, nil
}

// GetByID retrieves an attachment reference by its ID
func (r *AttachmentRepository) GetByID(id uuid.UUID) (*domain.Attachment, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+attachmentColumns+` FROM attachments WHERE id = $1`, id)

	attachment, err := scanAttachment(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrAttachmentNotFound
		}
		return nil, storageErr(err)
	}
	return attachment, nil
}

// GetByLoanID retrieves all attachment references for a loan
func (r *AttachmentRepository) GetByLoanID(loanID int32) ([]*domain.Attachment, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+attachmentColumns+` FROM attachments WHERE loan_id = $1 ORDER BY created_at ASC`, loanID)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var attachments []*domain.Attachment
	for rows.Next() {
		attachment, err := scanAttachment(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		attachments = append(attachments, attachment)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return attachments, nil
}

// Delete removes an attachment reference. The external object is deleted
// separately, after the reference is gone.
func (r *AttachmentRepository) Delete(id uuid.UUID) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `DELETE FROM attachments WHERE id = $1`, id)
	if err != nil {
		return storageErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAttachmentNotFound
	}
	return nil
}

func scanAttachment(row pgx.Row) (*domain.Attachment, error) {
	var a domain.Attachment
	var loanID, clientID pgtype.Int4
	var createdAt pgtype.Timestamptz

	err := row.Scan(&a.ID, &loanID, &clientID, &a.FileName, &a.URL, &createdAt)
	if err != nil {
		return nil, err
	}

	if loanID.Valid {
		a.LoanID = &loanID.Int32
	}
	if clientID.Valid {
		a.ClientID = &clientID.Int32
	}
	a.CreatedAt = createdAt.Time
	return &a, nil
}
