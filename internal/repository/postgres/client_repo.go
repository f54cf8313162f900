package postgres

import (
	"context"

	"github.com/davargas/prestamo/prestamo-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ClientRepository implements domain.ClientRepository using PostgreSQL
type ClientRepository struct {
	pool *pgxpool.Pool
}

// NewClientRepository creates a new ClientRepository
func NewClientRepository(pool *pgxpool.Pool) *ClientRepository {
	return &ClientRepository{pool: pool}
}

const clientColumns = "id, full_name, email, phone, active, created_at, updated_at"

// Create creates a new client
func (r *ClientRepository) Create(client *domain.Client) (*domain.Client, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO clients (full_name, email, phone, active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING `+clientColumns,
		client.FullName, textOrNil(client.Email), textOrNil(client.Phone))

	created, err := scanClient(row)
	if err != nil {
		return nil, storageErr(err)
	}
	return created, nil
}

// GetByID retrieves a client by its ID
func (r *ClientRepository) GetByID(id int32) (*domain.Client, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)

	client, err := scanClient(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrClientNotFound
		}
		return nil, storageErr(err)
	}
	return client, nil
}

// GetAll retrieves all clients, newest first
func (r *ClientRepository) GetAll() ([]*domain.Client, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+clientColumns+` FROM clients ORDER BY created_at DESC`)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var clients []*domain.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return clients, nil
}

// Update updates a client's contact information
func (r *ClientRepository) Update(client *domain.Client) (*domain.Client, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		UPDATE clients
		SET full_name = $2, email = $3, phone = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING `+clientColumns,
		client.ID, client.FullName, textOrNil(client.Email), textOrNil(client.Phone))

	updated, err := scanClient(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrClientNotFound
		}
		return nil, storageErr(err)
	}
	return updated, nil
}

// Deactivate soft-deactivates a client. Clients are never deleted.
func (r *ClientRepository) Deactivate(id int32) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `
		UPDATE clients SET active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return storageErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrClientNotFound
	}
	return nil
}

func scanClient(row pgx.Row) (*domain.Client, error) {
	var c domain.Client
	var email, phone pgtype.Text
	var createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(&c.ID, &c.FullName, &email, &phone, &c.Active, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if email.Valid {
		c.Email = &email.String
	}
	if phone.Valid {
		c.Phone = &phone.String
	}
	c.CreatedAt = createdAt.Time
	c.UpdatedAt = updatedAt.Time
	return &c, nil
}

func textOrNil(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}
