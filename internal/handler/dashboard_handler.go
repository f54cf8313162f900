package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/davargas/prestamo/prestamo-backend/internal/domain"
	"github.com/davargas/prestamo/prestamo-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// DashboardHandler handles portfolio aggregation HTTP requests
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// defaultUpcomingDays is the window used when the query omits withinDays.
const defaultUpcomingDays = 7

// UpcomingPaymentResponse is one installment due inside the requested window
type UpcomingPaymentResponse struct {
	InstallmentID int32  `json:"installmentId"`
	LoanID        int32  `json:"loanId"`
	ClientID      int32  `json:"clientId"`
	ClientName    string `json:"clientName"`
	Description   string `json:"description"`
	Seq           int32  `json:"seq"`
	DueDate       string `json:"dueDate"`
	AmountDue     string `json:"amountDue"`
	Status        string `json:"status"`
}

// StatsResponse represents portfolio-level dashboard statistics
type StatsResponse struct {
	ActiveLoans          int64  `json:"activeLoans"`
	DelinquentLoans      int64  `json:"delinquentLoans"`
	OutstandingPrincipal string `json:"outstandingPrincipal"`
	OverdueAmount        string `json:"overdueAmount"`
	CollectedThisMonth   string `json:"collectedThisMonth"`
}

// GetUpcomingPayments handles GET /api/v1/dashboard/upcoming
func (h *DashboardHandler) GetUpcomingPayments(c echo.Context) error {
	days := defaultUpcomingDays
	if raw := c.QueryParam("withinDays"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return NewValidationError(c, "withinDays must be an integer", nil)
		}
		days = parsed
	}

	upcoming, err := h.dashboardService.UpcomingPayments(days)
	if err != nil {
		if errors.Is(err, service.ErrDaysInvalid) {
			return NewValidationError(c, "withinDays must be positive", nil)
		}
		return NewInternalError(c, "Failed to retrieve upcoming payments")
	}

	resp := make([]*UpcomingPaymentResponse, 0, len(upcoming))
	for _, item := range upcoming {
		resp = append(resp, toUpcomingPaymentResponse(item))
	}
	return c.JSON(http.StatusOK, resp)
}

func toUpcomingPaymentResponse(item *domain.UpcomingInstallment) *UpcomingPaymentResponse {
	return &UpcomingPaymentResponse{
		InstallmentID: item.ID,
		LoanID:        item.LoanID,
		ClientID:      item.ClientID,
		ClientName:    item.ClientName,
		Description:   item.Description,
		Seq:           item.Seq,
		DueDate:       item.DueDate.Format(dateFormat),
		AmountDue:     item.Outstanding().StringFixed(2),
		Status:        string(item.Status),
	}
}

// GetStats handles GET /api/v1/dashboard/stats
func (h *DashboardHandler) GetStats(c echo.Context) error {
	stats, err := h.dashboardService.Stats()
	if err != nil {
		return NewInternalError(c, "Failed to compute dashboard statistics")
	}

	return c.JSON(http.StatusOK, &StatsResponse{
		ActiveLoans:          stats.ActiveLoans,
		DelinquentLoans:      stats.DelinquentLoans,
		OutstandingPrincipal: stats.OutstandingPrincipal.StringFixed(2),
		OverdueAmount:        stats.OverdueAmount.StringFixed(2),
		CollectedThisMonth:   stats.CollectedThisMonth.StringFixed(2),
	})
}
