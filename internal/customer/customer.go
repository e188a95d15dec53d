// Package customer keeps the shoppers orders are placed for.
package customer

import (
	"context"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/apperr"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/db"
)

type Customer struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateRequest payload of customer creation.
// swagger:model CreateCustomerRequest
type CreateRequest struct {
	Email     string `json:"email"      example:"ana@example.com"`
	FirstName string `json:"first_name" example:"Ana"`
	LastName  string `json:"last_name"  example:"Diaz"`
	Phone     string `json:"phone"      example:"+15125550100"`
}

type Repository interface {
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, id string) (*Customer, error)
	GetByEmail(ctx context.Context, email string) (*Customer, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const customerColumns = `id, email, first_name, last_name, phone, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, c *Customer) error {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	err := r.db.QueryRow(ctx, `
		INSERT INTO customers (id, email, first_name, last_name, phone, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,NOW(),NOW())
		RETURNING created_at, updated_at
	`, c.ID, c.Email, c.FirstName, c.LastName, c.Phone).Scan(&c.CreatedAt, &c.UpdatedAt)
	return db.Translate(err, "insert customer", "customer", c.Email)
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Customer, error) {
	return r.getOne(ctx, `SELECT `+customerColumns+` FROM customers WHERE id=$1`, id)
}

func (r *PGRepo) GetByEmail(ctx context.Context, email string) (*Customer, error) {
	return r.getOne(ctx, `SELECT `+customerColumns+` FROM customers WHERE email=$1`, email)
}

func (r *PGRepo) getOne(ctx context.Context, query, key string) (*Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	var c Customer
	err := r.db.QueryRow(ctx, query, key).
		Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.Phone, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, db.Translate(err, "get customer", "customer", key)
	}
	return &c, nil
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

// NormalizeEmail trims and lower-cases an address; emails are unique
// case-insensitively.
func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Customer, error) {
	c := &Customer{
		ID:        uuid.NewString(),
		Email:     NormalizeEmail(req.Email),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Phone:     strings.TrimSpace(req.Phone),
	}
	switch {
	case c.Email == "" || c.FirstName == "" || c.LastName == "":
		return nil, apperr.Validation("email, first_name and last_name are required")
	case !validEmail(c.Email):
		return nil, apperr.Validation("email %q is not a valid address", req.Email)
	}
	if err := s.repo.Create(ctx, c); err != nil {
		if e, ok := apperr.As(err); ok && e.Kind == apperr.KindDuplicate {
			ref := ""
			if existing, lerr := s.repo.GetByEmail(ctx, c.Email); lerr == nil {
				ref = existing.ID
			}
			return nil, apperr.Duplicate("a customer with this email already exists", ref)
		}
		return nil, err
	}
	log.Printf("[customer] created %s", c.ID)
	return c, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Customer, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.NotFound("customer", id)
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*Customer, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, apperr.Validation("email is required")
	}
	return s.repo.GetByEmail(ctx, email)
}

func validEmail(s string) bool {
	a, err := mail.ParseAddress(s)
	return err == nil && a.Address == s
}
