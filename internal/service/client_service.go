package service

import (
	"strings"

	"github.com/davargas/prestamo/prestamo-backend/internal/domain"
)

// ClientService handles client business logic
type ClientService struct {
	clientRepo domain.ClientRepository
	loanRepo   domain.LoanRepository
}

// NewClientService creates a new ClientService
func NewClientService(clientRepo domain.ClientRepository, loanRepo domain.LoanRepository) *ClientService {
	return &ClientService{
		clientRepo: clientRepo,
		loanRepo:   loanRepo,
	}
}

// RegisterClientInput contains input for registering a client
type RegisterClientInput struct {
	FullName string
	Email    *string
	Phone    *string
}

// RegisterClient registers a new borrower
func (s *ClientService) RegisterClient(input RegisterClientInput) (*domain.Client, error) {
	client := &domain.Client{
		FullName: strings.TrimSpace(input.FullName),
		Email:    input.Email,
		Phone:    input.Phone,
		Active:   true,
	}
	if err := client.Validate(); err != nil {
		return nil, err
	}
	return s.clientRepo.Create(client)
}

// GetClient retrieves a client with their loans
func (s *ClientService) GetClient(id int32) (*domain.Client, error) {
	client, err := s.clientRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	loans, err := s.loanRepo.GetByClientID(id)
	if err != nil {
		return nil, err
	}
	client.Loans = loans
	return client, nil
}

// GetClients retrieves all clients
func (s *ClientService) GetClients() ([]*domain.Client, error) {
	return s.clientRepo.GetAll()
}

// UpdateClient updates a client's contact information
func (s *ClientService) UpdateClient(id int32, input RegisterClientInput) (*domain.Client, error) {
	client, err := s.clientRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	client.FullName = strings.TrimSpace(input.FullName)
	client.Email = input.Email
	client.Phone = input.Phone
	if err := client.Validate(); err != nil {
		return nil, err
	}
	return s.clientRepo.Update(client)
}

// DeactivateClient soft-deactivates a client. The client and its loans stay
// in the ledger.
func (s *ClientService) DeactivateClient(id int32) error {
	if _, err := s.clientRepo.GetByID(id); err != nil {
		return err
	}
	return s.clientRepo.Deactivate(id)
}
