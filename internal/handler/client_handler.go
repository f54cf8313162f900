package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/davargas/prestamo/prestamo-backend/internal/domain"
	"github.com/davargas/prestamo/prestamo-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// ClientHandler handles client-related HTTP requests
type ClientHandler struct {
	clientService *service.ClientService
}

// NewClientHandler creates a new ClientHandler
func NewClientHandler(clientService *service.ClientService) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

// ClientRequest represents the create/update client request body
type ClientRequest struct {
	FullName string  `json:"fullName"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}

// ClientResponse represents a client in API responses
type ClientResponse struct {
	ID        int32           `json:"id"`
	FullName  string          `json:"fullName"`
	Email     *string         `json:"email,omitempty"`
	Phone     *string         `json:"phone,omitempty"`
	Active    bool            `json:"active"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
	Loans     []*LoanResponse `json:"loans,omitempty"`
}

func toClientResponse(client *domain.Client) *ClientResponse {
	resp := &ClientResponse{
		ID:        client.ID,
		FullName:  client.FullName,
		Email:     client.Email,
		Phone:     client.Phone,
		Active:    client.Active,
		CreatedAt: client.CreatedAt.Format(timestampFormat),
		UpdatedAt: client.UpdatedAt.Format(timestampFormat),
	}
	for _, loan := range client.Loans {
		resp.Loans = append(resp.Loans, toLoanResponse(loan))
	}
	return resp
}

// CreateClient handles POST /api/v1/clients
func (h *ClientHandler) CreateClient(c echo.Context) error {
	var req ClientRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	client, err := h.clientService.RegisterClient(service.RegisterClientInput{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		return clientErrorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, toClientResponse(client))
}

// GetClients handles GET /api/v1/clients
func (h *ClientHandler) GetClients(c echo.Context) error {
	clients, err := h.clientService.GetClients()
	if err != nil {
		return NewInternalError(c, "Failed to retrieve clients")
	}

	resp := make([]*ClientResponse, 0, len(clients))
	for _, client := range clients {
		resp = append(resp, toClientResponse(client))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetClient handles GET /api/v1/clients/:id
func (h *ClientHandler) GetClient(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid client ID", nil)
	}

	client, err := h.clientService.GetClient(id)
	if err != nil {
		return clientErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, toClientResponse(client))
}

// UpdateClient handles PUT /api/v1/clients/:id
func (h *ClientHandler) UpdateClient(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid client ID", nil)
	}

	var req ClientRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	client, err := h.clientService.UpdateClient(id, service.RegisterClientInput{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		return clientErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, toClientResponse(client))
}

// DeactivateClient handles POST /api/v1/clients/:id/deactivate
func (h *ClientHandler) DeactivateClient(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid client ID", nil)
	}

	if err := h.clientService.DeactivateClient(id); err != nil {
		return clientErrorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func clientErrorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrClientNotFound):
		return NewNotFoundError(c, "Client not found")
	case errors.Is(err, domain.ErrClientNameEmpty):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "fullName", Message: "Full name is required"},
		})
	case errors.Is(err, domain.ErrClientNameTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "fullName", Message: "Full name is too long"},
		})
	case errors.Is(err, domain.ErrClientEmailInvalid):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "email", Message: "Email is invalid"},
		})
	default:
		return NewInternalError(c, "An unexpected error occurred")
	}
}

func parseIDParam(c echo.Context, name string) (int32, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 32)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return int32(id), nil
}

const (
	dateFormat      = "2006-01-02"
	timestampFormat = "2006-01-02T15:04:05Z07:00"
)
