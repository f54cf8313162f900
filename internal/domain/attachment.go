package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrAttachmentOrphaned = errors.New("attachment must reference a loan or a client")
)

// Attachment is an opaque reference to an externally stored document. The
// ledger keeps only the identifier and URL, never the binary content.
type Attachment struct {
	ID        uuid.UUID `json:"id"`
	LoanID    *int32    `json:"loanId,omitempty"`
	ClientID  *int32    `json:"clientId,omitempty"`
	FileName  string    `json:"fileName"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

func (a *Attachment) Validate() error {
	if a.LoanID == nil && a.ClientID == nil {
		return ErrAttachmentOrphaned
	}
	return nil
}

type AttachmentRepository interface {
	Create(attachment *Attachment) (*Attachment, error)
	GetByID(id uuid.UUID) (*Attachment, error)
	GetByLoanID(loanID int32) ([]*Attachment, error)
	Delete(id uuid.UUID) error
}
