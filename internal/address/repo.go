// Package address provides the delivery-address lookup used when an order is
// placed. Address-book CRUD is out of scope here.
package address

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("address not found")

type Address struct {
	ID       int64  `json:"id"`
	UserID   string `json:"user_id"`
	Street   string `json:"street"`
	City     string `json:"city"`
	Postcode string `json:"postcode,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// Format renders the one-line form used by order projections.
func (a *Address) Format() string {
	if a.Postcode == "" {
		return fmt.Sprintf("%s, %s", a.Street, a.City)
	}
	return fmt.Sprintf("%s, %s %s", a.Street, a.City, a.Postcode)
}

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Address, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) GetByID(ctx context.Context, id int64) (*Address, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, street, city, COALESCE(postcode,''), COALESCE(notes,'')
		FROM addresses WHERE id=$1
	`, id)
	var a Address
	if err := row.Scan(&a.ID, &a.UserID, &a.Street, &a.City, &a.Postcode, &a.Notes); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
