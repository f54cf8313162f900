package service

import (
	"testing"

	"github.com/davargas/prestamo/prestamo-backend/internal/domain"
	"github.com/davargas/prestamo/prestamo-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClientService() (*ClientService, *testutil.MockClientRepository, *testutil.MockLoanRepository) {
	clientRepo := testutil.NewMockClientRepository()
	loanRepo := testutil.NewMockLoanRepository()
	return NewClientService(clientRepo, loanRepo), clientRepo, loanRepo
}

func TestRegisterClient_Success(t *testing.T) {
	svc, _, _ := newClientService()

	email := "maria@example.com"
	client, err := svc.RegisterClient(RegisterClientInput{FullName: "  Maria Lopez  ", Email: &email})
	require.NoError(t, err)

	assert.Equal(t, "Maria Lopez", client.FullName, "name must be trimmed")
	assert.True(t, client.Active, "new clients start active")
	assert.NotZero(t, client.ID)
}

func TestRegisterClient_Invalid(t *testing.T) {
	svc, _, _ := newClientService()

	_, err := svc.RegisterClient(RegisterClientInput{FullName: "   "})
	assert.ErrorIs(t, err, domain.ErrClientNameEmpty)

	badEmail := "not-an-email"
	_, err = svc.RegisterClient(RegisterClientInput{FullName: "Maria", Email: &badEmail})
	assert.ErrorIs(t, err, domain.ErrClientEmailInvalid)
}

func TestGetClient_IncludesLoans(t *testing.T) {
	svc, clientRepo, loanRepo := newClientService()

	created, err := clientRepo.Create(&domain.Client{FullName: "Jorge Ruiz", Active: true})
	require.NoError(t, err)
	_, err = loanRepo.CreateTx(nil, &domain.Loan{ClientID: created.ID, Description: "Loan", Status: domain.LoanStatusActive})
	require.NoError(t, err)

	client, err := svc.GetClient(created.ID)
	require.NoError(t, err)
	assert.Len(t, client.Loans, 1)

	_, err = svc.GetClient(99)
	assert.ErrorIs(t, err, domain.ErrClientNotFound)
}

func TestUpdateClient(t *testing.T) {
	svc, clientRepo, _ := newClientService()

	created, err := clientRepo.Create(&domain.Client{FullName: "Jorge Ruiz", Active: true})
	require.NoError(t, err)

	phone := "+52 555 123 4567"
	updated, err := svc.UpdateClient(created.ID, RegisterClientInput{FullName: "Jorge A. Ruiz", Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Jorge A. Ruiz", updated.FullName)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, phone, *updated.Phone)

	_, err = svc.UpdateClient(42, RegisterClientInput{FullName: "Nobody"})
	assert.ErrorIs(t, err, domain.ErrClientNotFound)
}

func TestDeactivateClient_SoftDeactivation(t *testing.T) {
	svc, clientRepo, _ := newClientService()

	created, err := clientRepo.Create(&domain.Client{FullName: "Jorge Ruiz", Active: true})
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateClient(created.ID))

	// Still readable afterwards, just inactive.
	client, err := svc.GetClient(created.ID)
	require.NoError(t, err)
	assert.False(t, client.Active)

	assert.ErrorIs(t, svc.DeactivateClient(99), domain.ErrClientNotFound)
}
