package testutil

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/davargas/prestamo/prestamo-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// MockTx satisfies pgx.Tx for service tests. Only Commit and Rollback are
// implemented; repository mocks ignore the tx argument entirely.
type MockTx struct {
	pgx.Tx
	Committed  bool
	RolledBack bool
	CommitErr  error
}

// Commit records the commit
func (t *MockTx) Commit(ctx context.Context) error {
	if t.CommitErr != nil {
		return t.CommitErr
	}
	t.Committed = true
	return nil
}

// Rollback records the rollback. After a commit it is a no-op, mirroring the
// deferred-rollback idiom.
func (t *MockTx) Rollback(ctx context.Context) error {
	if !t.Committed {
		t.RolledBack = true
	}
	return nil
}

// MockTxBeginner is a mock implementation of service.TxBeginner
type MockTxBeginner struct {
	Txs      []*MockTx
	BeginErr error
}

// Begin returns a fresh MockTx
func (b *MockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	if b.BeginErr != nil {
		return nil, b.BeginErr
	}
	tx := &MockTx{}
	b.Txs = append(b.Txs, tx)
	return tx, nil
}

// MockClientRepository is a mock implementation of domain.ClientRepository
type MockClientRepository struct {
	Clients map[int32]*domain.Client
	nextID  int32
}

// NewMockClientRepository creates a new MockClientRepository
func NewMockClientRepository() *MockClientRepository {
	return &MockClientRepository{Clients: make(map[int32]*domain.Client)}
}

// Create creates a new client
func (m *MockClientRepository) Create(client *domain.Client) (*domain.Client, error) {
	m.nextID++
	client.ID = m.nextID
	client.CreatedAt = time.Now()
	client.UpdatedAt = client.CreatedAt
	m.Clients[client.ID] = client
	return client, nil
}

// GetByID retrieves a client by ID
func (m *MockClientRepository) GetByID(id int32) (*domain.Client, error) {
	if client, ok := m.Clients[id]; ok {
		copied := *client
		return &copied, nil
	}
	return nil, domain.ErrClientNotFound
}

// GetAll retrieves all clients
func (m *MockClientRepository) GetAll() ([]*domain.Client, error) {
	clients := make([]*domain.Client, 0, len(m.Clients))
	for _, client := range m.Clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].ID < clients[j].ID })
	return clients, nil
}

// Update updates an existing client
func (m *MockClientRepository) Update(client *domain.Client) (*domain.Client, error) {
	if _, ok := m.Clients[client.ID]; !ok {
		return nil, domain.ErrClientNotFound
	}
	client.UpdatedAt = time.Now()
	m.Clients[client.ID] = client
	return client, nil
}

// Deactivate soft-deactivates a client
func (m *MockClientRepository) Deactivate(id int32) error {
	client, ok := m.Clients[id]
	if !ok {
		return domain.ErrClientNotFound
	}
	client.Active = false
	return nil
}

// MockLoanRepository is a mock implementation of domain.LoanRepository. The
// tx arguments are ignored; ForUpdateErrs lets a test inject one error per
// lock attempt to exercise conflict handling.
type MockLoanRepository struct {
	Loans         map[int32]*domain.Loan
	ForUpdateErrs []error
	nextID        int32
}

// NewMockLoanRepository creates a new MockLoanRepository
func NewMockLoanRepository() *MockLoanRepository {
	return &MockLoanRepository{Loans: make(map[int32]*domain.Loan)}
}

// CreateTx creates a loan inside a transaction
func (m *MockLoanRepository) CreateTx(tx interface{}, loan *domain.Loan) (*domain.Loan, error) {
	m.nextID++
	loan.ID = m.nextID
	loan.CreatedAt = time.Now()
	loan.UpdatedAt = loan.CreatedAt
	m.Loans[loan.ID] = loan
	return loan, nil
}

// GetByID retrieves a loan by ID
func (m *MockLoanRepository) GetByID(id int32) (*domain.Loan, error) {
	if loan, ok := m.Loans[id]; ok {
		copied := *loan
		return &copied, nil
	}
	return nil, domain.ErrLoanNotFound
}

// GetByIDForUpdateTx retrieves a loan under a row lock
func (m *MockLoanRepository) GetByIDForUpdateTx(tx interface{}, id int32) (*domain.Loan, error) {
	if len(m.ForUpdateErrs) > 0 {
		err := m.ForUpdateErrs[0]
		m.ForUpdateErrs = m.ForUpdateErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return m.GetByID(id)
}

// GetAll retrieves all loans
func (m *MockLoanRepository) GetAll() ([]*domain.Loan, error) {
	loans := make([]*domain.Loan, 0, len(m.Loans))
	for _, loan := range m.Loans {
		loans = append(loans, loan)
	}
	sort.Slice(loans, func(i, j int) bool { return loans[i].ID < loans[j].ID })
	return loans, nil
}

// GetByClientID retrieves all loans owned by a client
func (m *MockLoanRepository) GetByClientID(clientID int32) ([]*domain.Loan, error) {
	loans := make([]*domain.Loan, 0)
	for _, loan := range m.Loans {
		if loan.ClientID == clientID {
			loans = append(loans, loan)
		}
	}
	sort.Slice(loans, func(i, j int) bool { return loans[i].ID < loans[j].ID })
	return loans, nil
}

// UpdateStatus updates a loan's status
func (m *MockLoanRepository) UpdateStatus(id int32, status domain.LoanStatus) error {
	loan, ok := m.Loans[id]
	if !ok {
		return domain.ErrLoanNotFound
	}
	loan.Status = status
	return nil
}

// UpdateStatusTx updates a loan's status inside a transaction
func (m *MockLoanRepository) UpdateStatusTx(tx interface{}, id int32, status domain.LoanStatus) error {
	return m.UpdateStatus(id, status)
}

// UpdateCreditBalanceTx updates the loan's held credit balance
func (m *MockLoanRepository) UpdateCreditBalanceTx(tx interface{}, id int32, credit decimal.Decimal) error {
	loan, ok := m.Loans[id]
	if !ok {
		return domain.ErrLoanNotFound
	}
	loan.CreditBalance = credit
	return nil
}

// MarkCancelledTx transitions a loan to cancelled
func (m *MockLoanRepository) MarkCancelledTx(tx interface{}, id int32, cancelledAt time.Time) error {
	loan, ok := m.Loans[id]
	if !ok {
		return domain.ErrLoanNotFound
	}
	loan.Status = domain.LoanStatusCancelled
	loan.CancelledAt = &cancelledAt
	return nil
}

// CountByStatus counts loans in a given status
func (m *MockLoanRepository) CountByStatus(status domain.LoanStatus) (int64, error) {
	var count int64
	for _, loan := range m.Loans {
		if loan.Status == status {
			count++
		}
	}
	return count, nil
}

// MockInstallmentRepository is a mock implementation of
// domain.InstallmentRepository
type MockInstallmentRepository struct {
	Installments map[int32]*domain.Installment
	Upcoming     []*domain.UpcomingInstallment
	nextID       int32
}

// NewMockInstallmentRepository creates a new MockInstallmentRepository
func NewMockInstallmentRepository() *MockInstallmentRepository {
	return &MockInstallmentRepository{Installments: make(map[int32]*domain.Installment)}
}

// CreateBatchTx persists a schedule inside a transaction
func (m *MockInstallmentRepository) CreateBatchTx(tx interface{}, installments []*domain.Installment) ([]*domain.Installment, error) {
	for _, inst := range installments {
		m.nextID++
		inst.ID = m.nextID
		m.Installments[inst.ID] = inst
	}
	return installments, nil
}

// GetByLoanID retrieves a loan's installments ordered by due date
func (m *MockInstallmentRepository) GetByLoanID(loanID int32) ([]*domain.Installment, error) {
	installments := make([]*domain.Installment, 0)
	for _, inst := range m.Installments {
		if inst.LoanID == loanID {
			installments = append(installments, inst)
		}
	}
	sort.Slice(installments, func(i, j int) bool {
		if installments[i].DueDate.Equal(installments[j].DueDate) {
			return installments[i].Seq < installments[j].Seq
		}
		return installments[i].DueDate.Before(installments[j].DueDate)
	})
	return installments, nil
}

// GetByLoanIDTx retrieves a loan's installments inside a transaction
func (m *MockInstallmentRepository) GetByLoanIDTx(tx interface{}, loanID int32) ([]*domain.Installment, error) {
	return m.GetByLoanID(loanID)
}

// UpdatePaymentStateTx updates an installment's paid amount and status
func (m *MockInstallmentRepository) UpdatePaymentStateTx(tx interface{}, id int32, amountPaid decimal.Decimal, status domain.InstallmentStatus) error {
	inst, ok := m.Installments[id]
	if !ok {
		return domain.ErrInstallmentNotFound
	}
	inst.AmountPaid = amountPaid
	inst.Status = status
	return nil
}

// UpdateStatus updates an installment's status
func (m *MockInstallmentRepository) UpdateStatus(id int32, status domain.InstallmentStatus) error {
	inst, ok := m.Installments[id]
	if !ok {
		return domain.ErrInstallmentNotFound
	}
	inst.Status = status
	return nil
}

// GetUpcoming returns the canned upcoming-payment rows
func (m *MockInstallmentRepository) GetUpcoming(from, to time.Time) ([]*domain.UpcomingInstallment, error) {
	result := make([]*domain.UpcomingInstallment, 0)
	for _, item := range m.Upcoming {
		if !item.DueDate.Before(from) && !item.DueDate.After(to) {
			result = append(result, item)
		}
	}
	return result, nil
}

// SumOutstandingPrincipal sums unpaid principal across active loans
func (m *MockInstallmentRepository) SumOutstandingPrincipal() (decimal.Decimal, error) {
	total := decimal.Zero
	for _, inst := range m.Installments {
		if !inst.IsPaid() {
			total = total.Add(inst.Principal)
		}
	}
	return total, nil
}

// SumOverdue sums outstanding amounts past their due date
func (m *MockInstallmentRepository) SumOverdue(asOf time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, inst := range m.Installments {
		if !inst.IsPaid() && asOf.After(inst.DueDate) {
			total = total.Add(inst.Outstanding())
		}
	}
	return total, nil
}

// MockPaymentRepository is a mock implementation of domain.PaymentRepository
type MockPaymentRepository struct {
	Payments map[int32]*domain.Payment
	nextID   int32
}

// NewMockPaymentRepository creates a new MockPaymentRepository
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{Payments: make(map[int32]*domain.Payment)}
}

// CreateTx persists a payment with its allocations inside a transaction
func (m *MockPaymentRepository) CreateTx(tx interface{}, payment *domain.Payment) (*domain.Payment, error) {
	m.nextID++
	payment.ID = m.nextID
	payment.CreatedAt = time.Now()
	for _, alloc := range payment.Allocations {
		alloc.PaymentID = payment.ID
	}
	m.Payments[payment.ID] = payment
	return payment, nil
}

// GetByID retrieves a payment by ID
func (m *MockPaymentRepository) GetByID(id int32) (*domain.Payment, error) {
	if payment, ok := m.Payments[id]; ok {
		return payment, nil
	}
	return nil, domain.ErrPaymentNotFound
}

// GetByRequestID retrieves a payment by its idempotency key
func (m *MockPaymentRepository) GetByRequestID(requestID uuid.UUID) (*domain.Payment, error) {
	for _, payment := range m.Payments {
		if payment.RequestID == requestID {
			return payment, nil
		}
	}
	return nil, domain.ErrPaymentNotFound
}

// GetByLoanID retrieves all payments recorded against a loan
func (m *MockPaymentRepository) GetByLoanID(loanID int32) ([]*domain.Payment, error) {
	payments := make([]*domain.Payment, 0)
	for _, payment := range m.Payments {
		if payment.LoanID == loanID {
			payments = append(payments, payment)
		}
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].ID < payments[j].ID })
	return payments, nil
}

// SumReceivedBetween sums payment amounts received inside a date window
func (m *MockPaymentRepository) SumReceivedBetween(from, to time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, payment := range m.Payments {
		if !payment.ReceivedDate.Before(from) && payment.ReceivedDate.Before(to) {
			total = total.Add(payment.Amount)
		}
	}
	return total, nil
}

// MockAttachmentRepository is a mock implementation of
// domain.AttachmentRepository
type MockAttachmentRepository struct {
	Attachments map[uuid.UUID]*domain.Attachment
	CreateErr   error
}

// NewMockAttachmentRepository creates a new MockAttachmentRepository
func NewMockAttachmentRepository() *MockAttachmentRepository {
	return &MockAttachmentRepository{Attachments: make(map[uuid.UUID]*domain.Attachment)}
}

// Create records an attachment reference
func (m *MockAttachmentRepository) Create(attachment *domain.Attachment) (*domain.Attachment, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.Attachments[attachment.ID] = attachment
	return attachment, nil
}

// GetByID retrieves an attachment by ID
func (m *MockAttachmentRepository) GetByID(id uuid.UUID) (*domain.Attachment, error) {
	if attachment, ok := m.Attachments[id]; ok {
		return attachment, nil
	}
	return nil, domain.ErrAttachmentNotFound
}

// GetByLoanID retrieves attachments for a loan
func (m *MockAttachmentRepository) GetByLoanID(loanID int32) ([]*domain.Attachment, error) {
	attachments := make([]*domain.Attachment, 0)
	for _, attachment := range m.Attachments {
		if attachment.LoanID != nil && *attachment.LoanID == loanID {
			attachments = append(attachments, attachment)
		}
	}
	return attachments, nil
}

// Delete removes an attachment reference
func (m *MockAttachmentRepository) Delete(id uuid.UUID) error {
	if _, ok := m.Attachments[id]; !ok {
		return domain.ErrAttachmentNotFound
	}
	delete(m.Attachments, id)
	return nil
}

// MockObjectStore is an in-memory implementation of storage.ObjectStore
type MockObjectStore struct {
	Objects   map[string][]byte
	UploadErr error
	DeleteErr error
}

// NewMockObjectStore creates a new MockObjectStore
func NewMockObjectStore() *MockObjectStore {
	return &MockObjectStore{Objects: make(map[string][]byte)}
}

// Upload stores the bytes under the key
func (m *MockObjectStore) Upload(ctx context.Context, key string, data io.Reader, contentType string, size int64) (string, error) {
	if m.UploadErr != nil {
		return "", m.UploadErr
	}
	content, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.Objects[key] = content
	return m.URL(key), nil
}

// Delete removes the object under the key
func (m *MockObjectStore) Delete(ctx context.Context, key string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.Objects, key)
	return nil
}

// URL returns a deterministic fake URL for the key
func (m *MockObjectStore) URL(key string) string {
	return "https://storage.test/" + key
}
