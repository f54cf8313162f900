package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/davargas/prestamo/prestamo-backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClientHandler(f *handlerFixture) *ClientHandler {
	return NewClientHandler(service.NewClientService(f.clientRepo, f.loanRepo))
}

func TestCreateClientHandler_Success(t *testing.T) {
	f, _ := newHandlerFixture(t)
	handler := newClientHandler(f)

	body := `{"fullName": "Jorge Ruiz", "email": "jorge@example.com"}`
	c, rec := jsonRequest(f.e, http.MethodPost, "/api/v1/clients", body)

	require.NoError(t, handler.CreateClient(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp ClientResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Jorge Ruiz", resp.FullName)
	assert.True(t, resp.Active)
}

func TestCreateClientHandler_Validation(t *testing.T) {
	f, _ := newHandlerFixture(t)
	handler := newClientHandler(f)

	c, rec := jsonRequest(f.e, http.MethodPost, "/api/v1/clients", `{"fullName": "  "}`)

	require.NoError(t, handler.CreateClient(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var problem ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "fullName", problem.Errors[0].Field)
}

func TestDeactivateClientHandler(t *testing.T) {
	f, client := newHandlerFixture(t)
	handler := newClientHandler(f)

	c, rec := jsonRequest(f.e, http.MethodPost, "/api/v1/clients/1/deactivate", "")
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, handler.DeactivateClient(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, f.clientRepo.Clients[client.ID].Active)

	c, rec = jsonRequest(f.e, http.MethodPost, "/api/v1/clients/9/deactivate", "")
	c.SetParamNames("id")
	c.SetParamValues("9")
	require.NoError(t, handler.DeactivateClient(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetClientHandler_WithLoans(t *testing.T) {
	f, client := newHandlerFixture(t)
	seedHandlerLoan(t, f, client.ID)
	handler := newClientHandler(f)

	c, rec := jsonRequest(f.e, http.MethodGet, "/api/v1/clients/1", "")
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, handler.GetClient(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ClientResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Loans, 1)
	assert.Equal(t, client.ID, resp.Loans[0].ClientID)
}
