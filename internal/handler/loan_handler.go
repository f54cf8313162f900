package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/davargas/prestamo/prestamo-backend/internal/domain"
	"github.com/davargas/prestamo/prestamo-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// LoanHandler handles loan-related HTTP requests
type LoanHandler struct {
	loanService *service.LoanService
}

// NewLoanHandler creates a new LoanHandler
func NewLoanHandler(loanService *service.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// CreateLoanRequest represents the create loan request body. Amounts travel as
// strings so no precision is lost in JSON numbers.
type CreateLoanRequest struct {
	ClientID       int32   `json:"clientId"`
	Kind           string  `json:"kind"`
	Description    string  `json:"description"`
	Principal      string  `json:"principal"`
	AnnualRate     string  `json:"annualRate"`
	TermCount      int32   `json:"termCount"`
	StartDate      string  `json:"startDate"`
	Frequency      string  `json:"frequency"`
	OriginationFee *string `json:"originationFee,omitempty"`
}

// LoanResponse represents a loan in API responses
type LoanResponse struct {
	ID             int32                  `json:"id"`
	ClientID       int32                  `json:"clientId"`
	Kind           string                 `json:"kind"`
	Description    string                 `json:"description"`
	Principal      string                 `json:"principal"`
	AnnualRate     string                 `json:"annualRate"`
	TermCount      int32                  `json:"termCount"`
	StartDate      string                 `json:"startDate"`
	OriginationFee *string                `json:"originationFee,omitempty"`
	Status         string                 `json:"status"`
	CreditBalance  string                 `json:"creditBalance"`
	CancelledAt    *string                `json:"cancelledAt,omitempty"`
	CreatedAt      string                 `json:"createdAt"`
	Installments   []*InstallmentResponse `json:"installments,omitempty"`
}

// InstallmentResponse represents one scheduled installment in API responses
type InstallmentResponse struct {
	ID         int32  `json:"id"`
	Seq        int32  `json:"seq"`
	DueDate    string `json:"dueDate"`
	Principal  string `json:"principal"`
	Interest   string `json:"interest"`
	Total      string `json:"total"`
	AmountPaid string `json:"amountPaid"`
	Status     string `json:"status"`
}

func toLoanResponse(loan *domain.Loan) *LoanResponse {
	resp := &LoanResponse{
		ID:            loan.ID,
		ClientID:      loan.ClientID,
		Kind:          string(loan.Kind),
		Description:   loan.Description,
		Principal:     loan.Principal.StringFixed(2),
		AnnualRate:    loan.AnnualRate.String(),
		TermCount:     loan.TermCount,
		StartDate:     loan.StartDate.Format(dateFormat),
		Status:        string(loan.Status),
		CreditBalance: loan.CreditBalance.StringFixed(2),
		CreatedAt:     loan.CreatedAt.Format(timestampFormat),
	}
	if loan.OriginationFee != nil {
		fee := loan.OriginationFee.StringFixed(2)
		resp.OriginationFee = &fee
	}
	if loan.CancelledAt != nil {
		cancelled := loan.CancelledAt.Format(timestampFormat)
		resp.CancelledAt = &cancelled
	}
	for _, inst := range loan.Installments {
		resp.Installments = append(resp.Installments, toInstallmentResponse(inst))
	}
	return resp
}

func toInstallmentResponse(inst *domain.Installment) *InstallmentResponse {
	return &InstallmentResponse{
		ID:         inst.ID,
		Seq:        inst.Seq,
		DueDate:    inst.DueDate.Format(dateFormat),
		Principal:  inst.Principal.StringFixed(2),
		Interest:   inst.Interest.StringFixed(2),
		Total:      inst.ScheduledTotal().StringFixed(2),
		AmountPaid: inst.AmountPaid.StringFixed(2),
		Status:     string(inst.Status),
	}
}

// CreateLoan handles POST /api/v1/loans
func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req CreateLoanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, details := buildCreateLoanInput(&req)
	if len(details) > 0 {
		return NewValidationError(c, "Validation failed", details)
	}

	loan, err := h.loanService.CreateLoan(c.Request().Context(), input)
	if err != nil {
		return loanErrorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, toLoanResponse(loan))
}

func buildCreateLoanInput(req *CreateLoanRequest) (service.CreateLoanInput, []ValidationError) {
	var details []ValidationError

	input := service.CreateLoanInput{
		ClientID:    req.ClientID,
		Kind:        domain.LoanKind(req.Kind),
		Description: req.Description,
		TermCount:   req.TermCount,
		Frequency:   service.PaymentFrequency(req.Frequency),
	}

	principal, err := domain.ParsePositiveAmount(req.Principal)
	if err != nil {
		details = append(details, ValidationError{Field: "principal", Message: "Principal must be a positive amount with at most two decimal places"})
	}
	input.Principal = principal

	rate, err := domain.ParseAmount(req.AnnualRate)
	if err != nil || rate.IsNegative() {
		details = append(details, ValidationError{Field: "annualRate", Message: "Annual rate must be a non-negative decimal fraction"})
	}
	input.AnnualRate = rate

	startDate, err := time.Parse(dateFormat, req.StartDate)
	if err != nil {
		details = append(details, ValidationError{Field: "startDate", Message: "Start date must be in YYYY-MM-DD format"})
	}
	input.StartDate = startDate

	if req.OriginationFee != nil {
		fee, err := domain.ParseAmount(*req.OriginationFee)
		if err != nil || fee.IsNegative() {
			details = append(details, ValidationError{Field: "originationFee", Message: "Origination fee must be a non-negative amount"})
		} else {
			input.OriginationFee = &fee
		}
	}

	return input, details
}

// GetLoans handles GET /api/v1/loans
func (h *LoanHandler) GetLoans(c echo.Context) error {
	loans, err := h.loanService.GetLoans()
	if err != nil {
		return NewInternalError(c, "Failed to retrieve loans")
	}

	resp := make([]*LoanResponse, 0, len(loans))
	for _, loan := range loans {
		resp = append(resp, toLoanResponse(loan))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetLoan handles GET /api/v1/loans/:id
func (h *LoanHandler) GetLoan(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	loan, err := h.loanService.GetLoan(id)
	if err != nil {
		return loanErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, toLoanResponse(loan))
}

// GetClientLoans handles GET /api/v1/clients/:id/loans
func (h *LoanHandler) GetClientLoans(c echo.Context) error {
	clientID, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid client ID", nil)
	}

	loans, err := h.loanService.GetLoansByClient(clientID)
	if err != nil {
		return loanErrorResponse(c, err)
	}

	resp := make([]*LoanResponse, 0, len(loans))
	for _, loan := range loans {
		resp = append(resp, toLoanResponse(loan))
	}
	return c.JSON(http.StatusOK, resp)
}

// CancelLoan handles POST /api/v1/loans/:id/cancel
func (h *LoanHandler) CancelLoan(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	loan, err := h.loanService.CancelLoan(c.Request().Context(), id)
	if err != nil {
		return loanErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, toLoanResponse(loan))
}

func loanErrorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrLoanNotFound):
		return NewNotFoundError(c, "Loan not found")
	case errors.Is(err, domain.ErrClientNotFound):
		return NewNotFoundError(c, "Client not found")
	case errors.Is(err, domain.ErrClientInactive):
		return NewConflictError(c, "Client is deactivated and cannot take new loans")
	case errors.Is(err, domain.ErrLoanNotCancellable):
		return NewConflictError(c, "Loan cannot be cancelled in its current status")
	case errors.Is(err, domain.ErrLoanDescriptionEmpty),
		errors.Is(err, domain.ErrLoanDescriptionTooLong),
		errors.Is(err, domain.ErrLoanPrincipalInvalid),
		errors.Is(err, domain.ErrLoanRateInvalid),
		errors.Is(err, domain.ErrLoanTermInvalid),
		errors.Is(err, domain.ErrLoanStartDateInvalid),
		errors.Is(err, domain.ErrLoanFeeInvalid),
		errors.Is(err, service.ErrFrequencyInvalid):
		return NewValidationError(c, err.Error(), nil)
	default:
		return NewInternalError(c, "An unexpected error occurred")
	}
}
