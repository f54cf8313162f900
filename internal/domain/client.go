package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrClientNotFound     = errors.New("client not found")
	ErrClientNameEmpty    = errors.New("client name is required")
	ErrClientNameTooLong  = errors.New("client name exceeds maximum length")
	ErrClientEmailInvalid = errors.New("client email is invalid")
	ErrClientInactive     = errors.New("client is deactivated")
)

// Client is a borrower. Clients are never deleted, only deactivated, so
// historical loans always resolve to their owner.
type Client struct {
	ID        int32      `json:"id"`
	FullName  string     `json:"fullName"`
	Email     *string    `json:"email,omitempty"`
	Phone     *string    `json:"phone,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Loans     []*Loan   `json:"loans,omitempty"`
}

func (c *Client) Validate() error {
	name := strings.TrimSpace(c.FullName)
	if name == "" {
		return ErrClientNameEmpty
	}
	if len(name) > MaxClientNameLength {
		return ErrClientNameTooLong
	}
	if c.Email != nil && !strings.Contains(*c.Email, "@") {
		return ErrClientEmailInvalid
	}
	return nil
}

type ClientRepository interface {
	Create(client *Client) (*Client, error)
	GetByID(id int32) (*Client, error)
	GetAll() ([]*Client, error)
	Update(client *Client) (*Client, error)
	Deactivate(id int32) error
}
