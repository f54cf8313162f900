package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/davargas/prestamo/prestamo-backend/internal/domain"
	"github.com/davargas/prestamo/prestamo-backend/internal/util"
	"github.com/davargas/prestamo/prestamo-backend/internal/websocket"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// TxBeginner starts a ledger transaction. *pgxpool.Pool satisfies it.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// LoanService handles loan lifecycle business logic
type LoanService struct {
	db              TxBeginner
	loanRepo        domain.LoanRepository
	installmentRepo domain.InstallmentRepository
	clientRepo      domain.ClientRepository
	statusService   *StatusService
	attachments     *AttachmentService
	eventPublisher  websocket.EventPublisher
}

// NewLoanService creates a new LoanService
func NewLoanService(db TxBeginner, loanRepo domain.LoanRepository, installmentRepo domain.InstallmentRepository, clientRepo domain.ClientRepository, statusService *StatusService) *LoanService {
	return &LoanService{
		db:              db,
		loanRepo:        loanRepo,
		installmentRepo: installmentRepo,
		clientRepo:      clientRepo,
		statusService:   statusService,
	}
}

// SetEventPublisher sets the publisher for ledger events
func (s *LoanService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// SetAttachmentService wires the attachment cleanup used on cancellation
func (s *LoanService) SetAttachmentService(attachments *AttachmentService) {
	s.attachments = attachments
}

func (s *LoanService) publishEvent(event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(event)
	}
}

// CreateLoanInput contains input for creating a loan or credit purchase
type CreateLoanInput struct {
	ClientID       int32
	Kind           domain.LoanKind
	Description    string
	Principal      decimal.Decimal
	AnnualRate     decimal.Decimal
	TermCount      int32
	StartDate      time.Time
	Frequency      PaymentFrequency
	OriginationFee *decimal.Decimal
}

// CreateLoan creates a loan together with its amortization schedule. The loan
// and all its installments are persisted in one transaction: either both
// exist or neither does.
func (s *LoanService) CreateLoan(ctx context.Context, input CreateLoanInput) (*domain.Loan, error) {
	client, err := s.clientRepo.GetByID(input.ClientID)
	if err != nil {
		return nil, err
	}
	if !client.Active {
		return nil, domain.ErrClientInactive
	}

	kind := input.Kind
	if kind == "" {
		kind = domain.LoanKindCash
	}
	frequency := input.Frequency
	if frequency == "" {
		frequency = FrequencyMonthly
	}

	loan := &domain.Loan{
		ClientID:       input.ClientID,
		Kind:           kind,
		Description:    strings.TrimSpace(input.Description),
		Principal:      input.Principal,
		AnnualRate:     input.AnnualRate,
		TermCount:      input.TermCount,
		StartDate:      input.StartDate,
		OriginationFee: input.OriginationFee,
		Status:         domain.LoanStatusActive,
		CreditBalance:  decimal.Zero,
	}
	if err := loan.Validate(); err != nil {
		return nil, err
	}

	schedule, err := BuildSchedule(input.Principal, input.AnnualRate, input.TermCount, input.StartDate, frequency)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	defer tx.Rollback(ctx)

	created, err := s.loanRepo.CreateTx(tx, loan)
	if err != nil {
		return nil, err
	}

	for _, inst := range schedule {
		inst.LoanID = created.ID
	}
	installments, err := s.installmentRepo.CreateBatchTx(tx, schedule)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}

	created.Installments = installments

	log.Info().
		Int32("loan_id", created.ID).
		Int32("client_id", created.ClientID).
		Str("principal", created.Principal.String()).
		Int32("term_count", created.TermCount).
		Msg("Loan created")

	s.publishEvent(websocket.NewEvent(websocket.EventTypeCreated, websocket.EntityTypeLoan, created))
	return created, nil
}

// GetLoan retrieves a loan with its installments, statuses refreshed as of
// today
func (s *LoanService) GetLoan(id int32) (*domain.Loan, error) {
	return s.statusService.RefreshLoan(id, util.Today())
}

// GetLoans retrieves all loans
func (s *LoanService) GetLoans() ([]*domain.Loan, error) {
	return s.loanRepo.GetAll()
}

// GetLoansByClient retrieves all loans owned by a client
func (s *LoanService) GetLoansByClient(clientID int32) ([]*domain.Loan, error) {
	if _, err := s.clientRepo.GetByID(clientID); err != nil {
		return nil, err
	}
	return s.loanRepo.GetByClientID(clientID)
}

// CancelLoan transitions a loan to cancelled. The ledger rows are kept for
// auditability; only the status changes. External attachment objects are
// deleted after the transaction commits.
func (s *LoanService) CancelLoan(ctx context.Context, id int32) (*domain.Loan, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	defer tx.Rollback(ctx)

	loan, err := s.loanRepo.GetByIDForUpdateTx(tx, id)
	if err != nil {
		return nil, err
	}
	if !loan.Cancellable() {
		return nil, domain.ErrLoanNotCancellable
	}

	if err := s.loanRepo.MarkCancelledTx(tx, id, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}

	log.Info().Int32("loan_id", id).Msg("Loan cancelled")

	// Attachment cleanup runs strictly after the ledger commit; a failure
	// here is logged and retried manually, never rolled into the ledger.
	if s.attachments != nil {
		if err := s.attachments.DeleteForLoan(ctx, id); err != nil {
			log.Error().Err(err).Int32("loan_id", id).Msg("Attachment cleanup after cancellation failed")
		}
	}

	cancelled, err := s.loanRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	s.publishEvent(websocket.NewEvent(websocket.EventTypeCancelled, websocket.EntityTypeLoan, cancelled))
	return cancelled, nil
}
