package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/davargas/prestamo/prestamo-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedHandlerLoan(t *testing.T, f *handlerFixture, clientID int32) *domain.Loan {
	t.Helper()

	loan, err := f.loanRepo.CreateTx(nil, &domain.Loan{
		ClientID:      clientID,
		Description:   "Working capital",
		Principal:     decimal.RequireFromString("2000.00"),
		AnnualRate:    decimal.Zero,
		TermCount:     1,
		StartDate:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:        domain.LoanStatusActive,
		CreditBalance: decimal.Zero,
	})
	require.NoError(t, err)

	_, err = f.installmentRepo.CreateBatchTx(nil, []*domain.Installment{{
		LoanID:     loan.ID,
		Seq:        1,
		DueDate:    time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Principal:  decimal.RequireFromString("1800.00"),
		Interest:   decimal.RequireFromString("200.00"),
		AmountPaid: decimal.Zero,
		Status:     domain.InstallmentStatusPending,
	}})
	require.NoError(t, err)
	return loan
}

func TestApplyPaymentHandler_Success(t *testing.T) {
	f, client := newHandlerFixture(t)
	loan := seedHandlerLoan(t, f, client.ID)
	handler := NewPaymentHandler(f.paymentService)

	body := `{
		"requestId": "` + uuid.NewString() + `",
		"amount": "1500.00",
		"receivedDate": "2024-01-20"
	}`
	c, rec := jsonRequest(f.e, http.MethodPost, "/api/v1/loans/1/payments", body)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, handler.ApplyPayment(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp PaymentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, loan.ID, resp.LoanID)
	assert.Equal(t, "1500.00", resp.Amount)
	require.Len(t, resp.Allocations, 1)
	assert.Equal(t, "1500.00", resp.Allocations[0].Amount)
}

func TestApplyPaymentHandler_ReplayReturnsSamePayment(t *testing.T) {
	f, client := newHandlerFixture(t)
	seedHandlerLoan(t, f, client.ID)
	handler := NewPaymentHandler(f.paymentService)

	requestID := uuid.NewString()
	body := `{
		"requestId": "` + requestID + `",
		"amount": "500.00",
		"receivedDate": "2024-01-20"
	}`

	c, rec := jsonRequest(f.e, http.MethodPost, "/api/v1/loans/1/payments", body)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, handler.ApplyPayment(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var first PaymentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))

	c, rec = jsonRequest(f.e, http.MethodPost, "/api/v1/loans/1/payments", body)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, handler.ApplyPayment(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var replayed PaymentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &replayed))
	assert.Equal(t, first.ID, replayed.ID)
	assert.Len(t, f.paymentRepo.Payments, 1)
}

func TestApplyPaymentHandler_Validation(t *testing.T) {
	f, client := newHandlerFixture(t)
	seedHandlerLoan(t, f, client.ID)
	handler := NewPaymentHandler(f.paymentService)

	body := `{
		"requestId": "not-a-uuid",
		"amount": "-5.00",
		"receivedDate": "soon"
	}`
	c, rec := jsonRequest(f.e, http.MethodPost, "/api/v1/loans/1/payments", body)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, handler.ApplyPayment(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var problem ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Len(t, problem.Errors, 3)
}

func TestApplyPaymentHandler_TerminalLoanConflict(t *testing.T) {
	f, client := newHandlerFixture(t)
	loan := seedHandlerLoan(t, f, client.ID)
	f.loanRepo.Loans[loan.ID].Status = domain.LoanStatusCancelled
	handler := NewPaymentHandler(f.paymentService)

	body := `{
		"requestId": "` + uuid.NewString() + `",
		"amount": "100.00",
		"receivedDate": "2024-01-20"
	}`
	c, rec := jsonRequest(f.e, http.MethodPost, "/api/v1/loans/1/payments", body)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, handler.ApplyPayment(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetLoanPaymentsHandler(t *testing.T) {
	f, client := newHandlerFixture(t)
	seedHandlerLoan(t, f, client.ID)
	handler := NewPaymentHandler(f.paymentService)

	c, rec := jsonRequest(f.e, http.MethodGet, "/api/v1/loans/1/payments", "")
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, handler.GetLoanPayments(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []PaymentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp)

	c, rec = jsonRequest(f.e, http.MethodGet, "/api/v1/loans/9/payments", "")
	c.SetParamNames("id")
	c.SetParamValues("9")
	require.NoError(t, handler.GetLoanPayments(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
