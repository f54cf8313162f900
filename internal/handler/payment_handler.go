package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/davargas/prestamo/prestamo-backend/internal/domain"
	"github.com/davargas/prestamo/prestamo-backend/internal/middleware"
	"github.com/davargas/prestamo/prestamo-backend/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// PaymentHandler handles payment-related HTTP requests
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// ApplyPaymentRequest represents the apply payment request body. The request
// ID makes the operation idempotent: replaying the same ID returns the
// original payment instead of applying it twice.
type ApplyPaymentRequest struct {
	RequestID    string `json:"requestId"`
	Amount       string `json:"amount"`
	ReceivedDate string `json:"receivedDate"`
}

// PaymentResponse represents a recorded payment in API responses
type PaymentResponse struct {
	ID           int32                 `json:"id"`
	LoanID       int32                 `json:"loanId"`
	RequestID    string                `json:"requestId"`
	Amount       string                `json:"amount"`
	ReceivedDate string                `json:"receivedDate"`
	RecordedBy   string                `json:"recordedBy"`
	CreatedAt    string                `json:"createdAt"`
	Allocations  []*AllocationResponse `json:"allocations"`
}

// AllocationResponse is the portion of a payment applied to one installment
type AllocationResponse struct {
	InstallmentID int32  `json:"installmentId"`
	Amount        string `json:"amount"`
}

func toPaymentResponse(payment *domain.Payment) *PaymentResponse {
	resp := &PaymentResponse{
		ID:           payment.ID,
		LoanID:       payment.LoanID,
		RequestID:    payment.RequestID.String(),
		Amount:       payment.Amount.StringFixed(2),
		ReceivedDate: payment.ReceivedDate.Format(dateFormat),
		RecordedBy:   payment.RecordedBy,
		CreatedAt:    payment.CreatedAt.Format(timestampFormat),
		Allocations:  make([]*AllocationResponse, 0, len(payment.Allocations)),
	}
	for _, alloc := range payment.Allocations {
		resp.Allocations = append(resp.Allocations, &AllocationResponse{
			InstallmentID: alloc.InstallmentID,
			Amount:        alloc.Amount.StringFixed(2),
		})
	}
	return resp
}

// ApplyPayment handles POST /api/v1/loans/:id/payments
func (h *PaymentHandler) ApplyPayment(c echo.Context) error {
	loanID, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	var req ApplyPaymentRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	var details []ValidationError

	requestID, err := uuid.Parse(req.RequestID)
	if err != nil {
		details = append(details, ValidationError{Field: "requestId", Message: "Request ID must be a valid UUID"})
	}
	amount, err := domain.ParsePositiveAmount(req.Amount)
	if err != nil {
		details = append(details, ValidationError{Field: "amount", Message: "Amount must be a positive value with at most two decimal places"})
	}
	receivedDate, err := time.Parse(dateFormat, req.ReceivedDate)
	if err != nil {
		details = append(details, ValidationError{Field: "receivedDate", Message: "Received date must be in YYYY-MM-DD format"})
	}
	if len(details) > 0 {
		return NewValidationError(c, "Validation failed", details)
	}

	payment, err := h.paymentService.ApplyPayment(c.Request().Context(), loanID, service.ApplyPaymentInput{
		RequestID:    requestID,
		Amount:       amount,
		ReceivedDate: receivedDate,
		RecordedBy:   middleware.GetOperator(c),
	})
	if err != nil {
		return paymentErrorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, toPaymentResponse(payment))
}

// GetLoanPayments handles GET /api/v1/loans/:id/payments
func (h *PaymentHandler) GetLoanPayments(c echo.Context) error {
	loanID, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	payments, err := h.paymentService.GetPaymentsByLoan(loanID)
	if err != nil {
		return paymentErrorResponse(c, err)
	}

	resp := make([]*PaymentResponse, 0, len(payments))
	for _, payment := range payments {
		resp = append(resp, toPaymentResponse(payment))
	}
	return c.JSON(http.StatusOK, resp)
}

func paymentErrorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrLoanNotFound):
		return NewNotFoundError(c, "Loan not found")
	case errors.Is(err, domain.ErrLoanNotPayable):
		return NewConflictError(c, "Loan does not accept payments in its current status")
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return NewConflictError(c, "The loan was modified concurrently, please retry")
	case errors.Is(err, domain.ErrPaymentAmountInvalid),
		errors.Is(err, domain.ErrPaymentRequestIDMissing),
		errors.Is(err, domain.ErrPaymentDateInvalid):
		return NewValidationError(c, err.Error(), nil)
	default:
		return NewInternalError(c, "An unexpected error occurred")
	}
}
