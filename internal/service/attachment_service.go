package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"path/filepath"
	"strings"

	"github.com/davargas/prestamo/prestamo-backend/internal/domain"
	"github.com/davargas/prestamo/prestamo-backend/internal/repository/storage"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	MaxAttachmentSize = 10 * 1024 * 1024 // 10MB
	MaxPhotoWidth     = 1600
	JPEGQuality       = 85
)

var (
	ErrAttachmentTooLarge           = errors.New("file too large. Maximum size is 10MB")
	ErrAttachmentFormatInvalid      = errors.New("invalid format. Supported: JPEG, PNG, WebP, PDF")
	ErrAttachmentDataInvalid        = errors.New("invalid file data")
	ErrAttachmentStorageUnavailable = errors.New("attachment storage not configured")
)

// attachmentContentTypes maps allowed extensions to content types
var attachmentContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".pdf":  "application/pdf",
}

// AttachmentService stores loan and client documents externally and keeps
// only the opaque (id, url) reference in the ledger. Photos are downscaled
// before upload; the ledger never inspects the stored bytes afterwards.
type AttachmentService struct {
	store          storage.ObjectStore
	attachmentRepo domain.AttachmentRepository
	loanRepo       domain.LoanRepository
}

// NewAttachmentService creates a new AttachmentService
func NewAttachmentService(store storage.ObjectStore, attachmentRepo domain.AttachmentRepository, loanRepo domain.LoanRepository) *AttachmentService {
	return &AttachmentService{
		store:          store,
		attachmentRepo: attachmentRepo,
		loanRepo:       loanRepo,
	}
}

// IsEnabled indicates whether uploads/deletes are supported
func (s *AttachmentService) IsEnabled() bool {
	return s != nil && s.store != nil
}

// UploadLoanDocument validates a document, uploads it to external storage,
// and records the reference on the loan. The upload happens first so a
// storage failure never leaves a dangling ledger reference.
func (s *AttachmentService) UploadLoanDocument(ctx context.Context, loanID int32, data []byte, filename string) (*domain.Attachment, error) {
	if !s.IsEnabled() {
		return nil, ErrAttachmentStorageUnavailable
	}
	if _, err := s.loanRepo.GetByID(loanID); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := attachmentContentTypes[ext]
	if !ok {
		return nil, ErrAttachmentFormatInvalid
	}
	if len(data) > MaxAttachmentSize {
		return nil, ErrAttachmentTooLarge
	}

	if strings.HasPrefix(contentType, "image/") {
		processed, err := downscalePhoto(data)
		if err != nil {
			return nil, err
		}
		data = processed
		contentType = "image/jpeg"
		ext = ".jpg"
	}

	id := uuid.New()
	key := fmt.Sprintf("loans/%d/%s%s", loanID, id, ext)
	url, err := s.store.Upload(ctx, key, bytes.NewReader(data), contentType, int64(len(data)))
	if err != nil {
		return nil, err
	}

	attachment := &domain.Attachment{
		ID:       id,
		LoanID:   &loanID,
		FileName: filename,
		URL:      url,
	}
	created, err := s.attachmentRepo.Create(attachment)
	if err != nil {
		// Compensate: the reference never made it into the ledger, so the
		// uploaded object must not linger.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			log.Error().Err(delErr).Str("key", key).Msg("Orphaned object cleanup failed")
		}
		return nil, err
	}
	return created, nil
}

// ListLoanAttachments returns the attachment references recorded for a loan
func (s *AttachmentService) ListLoanAttachments(loanID int32) ([]*domain.Attachment, error) {
	if _, err := s.loanRepo.GetByID(loanID); err != nil {
		return nil, err
	}
	return s.attachmentRepo.GetByLoanID(loanID)
}

// DeleteAttachment removes the ledger reference, then forwards the deletion
// to external storage. An external failure is logged for manual cleanup, not
// surfaced: the reference is already gone.
func (s *AttachmentService) DeleteAttachment(ctx context.Context, id uuid.UUID) error {
	if !s.IsEnabled() {
		return ErrAttachmentStorageUnavailable
	}

	attachment, err := s.attachmentRepo.GetByID(id)
	if err != nil {
		return err
	}
	if err := s.attachmentRepo.Delete(id); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, storageKey(attachment)); err != nil {
		log.Error().Err(err).Str("attachment_id", id.String()).Msg("External attachment delete failed")
	}
	return nil
}

// DeleteForLoan removes all attachment references and objects for a loan.
// Used by loan cancellation, after the ledger transaction commits.
func (s *AttachmentService) DeleteForLoan(ctx context.Context, loanID int32) error {
	if !s.IsEnabled() {
		return nil
	}

	attachments, err := s.attachmentRepo.GetByLoanID(loanID)
	if err != nil {
		return err
	}
	for _, attachment := range attachments {
		if err := s.DeleteAttachment(ctx, attachment.ID); err != nil {
			return err
		}
	}
	return nil
}

func storageKey(a *domain.Attachment) string {
	if a.LoanID != nil {
		return fmt.Sprintf("loans/%d/%s%s", *a.LoanID, a.ID, filepath.Ext(a.URL))
	}
	return fmt.Sprintf("clients/%d/%s%s", *a.ClientID, a.ID, filepath.Ext(a.URL))
}

// downscalePhoto re-encodes a document photo as JPEG, capped at MaxPhotoWidth
func downscalePhoto(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrAttachmentDataInvalid
	}

	if img.Bounds().Dx() > MaxPhotoWidth {
		img = imaging.Resize(img, MaxPhotoWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, ErrAttachmentDataInvalid
	}
	return buf.Bytes(), nil
}
