package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/davargas/prestamo/prestamo-backend/internal/domain"
	"github.com/davargas/prestamo/prestamo-backend/internal/service"
	"github.com/davargas/prestamo/prestamo-backend/internal/util"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDashboardHandler(f *handlerFixture) *DashboardHandler {
	return NewDashboardHandler(service.NewDashboardService(f.loanRepo, f.installmentRepo, f.paymentRepo))
}

func TestGetUpcomingPaymentsHandler(t *testing.T) {
	f, _ := newHandlerFixture(t)
	handler := newDashboardHandler(f)

	today := util.Today()
	f.installmentRepo.Upcoming = []*domain.UpcomingInstallment{{
		Installment: domain.Installment{
			ID:        7,
			LoanID:    3,
			Seq:       2,
			DueDate:   today.AddDate(0, 0, 3),
			Principal: decimal.RequireFromString("1800.00"),
			Interest:  decimal.RequireFromString("200.00"),
			Status:    domain.InstallmentStatusPending,
		},
		ClientID:    1,
		ClientName:  "Maria Lopez",
		Description: "Working capital",
	}}

	c, rec := jsonRequest(f.e, http.MethodGet, "/api/v1/dashboard/upcoming?withinDays=7", "")

	require.NoError(t, handler.GetUpcomingPayments(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []UpcomingPaymentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "Maria Lopez", resp[0].ClientName)
	assert.Equal(t, "2000.00", resp[0].AmountDue)
	assert.Equal(t, int32(7), resp[0].InstallmentID)
}

func TestGetUpcomingPaymentsHandler_BadWindow(t *testing.T) {
	f, _ := newHandlerFixture(t)
	handler := newDashboardHandler(f)

	c, rec := jsonRequest(f.e, http.MethodGet, "/api/v1/dashboard/upcoming?withinDays=zero", "")
	require.NoError(t, handler.GetUpcomingPayments(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = jsonRequest(f.e, http.MethodGet, "/api/v1/dashboard/upcoming?withinDays=-3", "")
	require.NoError(t, handler.GetUpcomingPayments(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetStatsHandler(t *testing.T) {
	f, _ := newHandlerFixture(t)
	handler := newDashboardHandler(f)

	_, err := f.loanRepo.CreateTx(nil, &domain.Loan{Description: "x", Status: domain.LoanStatusActive})
	require.NoError(t, err)
	_, err = f.loanRepo.CreateTx(nil, &domain.Loan{Description: "y", Status: domain.LoanStatusDelinquent})
	require.NoError(t, err)

	c, rec := jsonRequest(f.e, http.MethodGet, "/api/v1/dashboard/stats", "")

	require.NoError(t, handler.GetStats(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.ActiveLoans)
	assert.Equal(t, int64(1), resp.DelinquentLoans)
	assert.Equal(t, "0.00", resp.OutstandingPrincipal)
}
