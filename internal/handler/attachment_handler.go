package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/davargas/prestamo/prestamo-backend/internal/domain"
	"github.com/davargas/prestamo/prestamo-backend/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AttachmentHandler handles document upload and deletion HTTP requests
type AttachmentHandler struct {
	attachmentService *service.AttachmentService
}

// NewAttachmentHandler creates a new AttachmentHandler
func NewAttachmentHandler(attachmentService *service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachmentService: attachmentService}
}

// AttachmentResponse is the opaque attachment reference stored on the ledger
type AttachmentResponse struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
	URL      string `json:"url"`
}

func toAttachmentResponse(a *domain.Attachment) *AttachmentResponse {
	return &AttachmentResponse{
		ID:       a.ID.String(),
		FileName: a.FileName,
		URL:      a.URL,
	}
}

// UploadLoanDocument handles POST /api/v1/loans/:id/attachments
func (h *AttachmentHandler) UploadLoanDocument(c echo.Context) error {
	loanID, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(c, "No file provided", nil)
	}
	if file.Size > service.MaxAttachmentSize {
		return NewValidationError(c, "File too large. Maximum size is 10MB", nil)
	}

	src, err := file.Open()
	if err != nil {
		return NewValidationError(c, "Failed to read file", nil)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, service.MaxAttachmentSize+1))
	if err != nil {
		return NewValidationError(c, "Failed to read file", nil)
	}

	attachment, err := h.attachmentService.UploadLoanDocument(c.Request().Context(), loanID, data, file.Filename)
	if err != nil {
		return attachmentErrorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, toAttachmentResponse(attachment))
}

// GetLoanAttachments handles GET /api/v1/loans/:id/attachments
func (h *AttachmentHandler) GetLoanAttachments(c echo.Context) error {
	loanID, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	attachments, err := h.attachmentService.ListLoanAttachments(loanID)
	if err != nil {
		return attachmentErrorResponse(c, err)
	}

	resp := make([]*AttachmentResponse, 0, len(attachments))
	for _, attachment := range attachments {
		resp = append(resp, toAttachmentResponse(attachment))
	}
	return c.JSON(http.StatusOK, resp)
}

// DeleteAttachment handles DELETE /api/v1/attachments/:id
func (h *AttachmentHandler) DeleteAttachment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid attachment ID", nil)
	}

	if err := h.attachmentService.DeleteAttachment(c.Request().Context(), id); err != nil {
		return attachmentErrorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func attachmentErrorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrLoanNotFound):
		return NewNotFoundError(c, "Loan not found")
	case errors.Is(err, domain.ErrAttachmentNotFound):
		return NewNotFoundError(c, "Attachment not found")
	case errors.Is(err, service.ErrAttachmentTooLarge),
		errors.Is(err, service.ErrAttachmentFormatInvalid),
		errors.Is(err, service.ErrAttachmentDataInvalid):
		return NewValidationError(c, err.Error(), nil)
	case errors.Is(err, service.ErrAttachmentStorageUnavailable):
		return NewProblemDetails(c, http.StatusServiceUnavailable, "Storage Unavailable", err.Error(), ErrorTypeInternal)
	default:
		return NewInternalError(c, "An unexpected error occurred")
	}
}
